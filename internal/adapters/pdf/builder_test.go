package pdf

import (
	"bytes"
	"testing"
)

func TestBuilder_OutputIsPDF(t *testing.T) {
	b := NewBuilder()
	b.AddPage()
	b.Title("Flight Plan")
	b.Text("Waypoints: 2")
	b.Heading("Legs")
	b.Table([]string{"From", "To"}, []float64{60, 60}, [][]string{{"Alpha", "Bravo"}})

	out, err := b.Output()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Errorf("expected PDF magic, got %q", out[:min(len(out), 8)])
	}
	if b.PageCount() != 1 {
		t.Errorf("expected 1 page, got %d", b.PageCount())
	}
}

func TestBuilder_EnsureSpaceBreaksPage(t *testing.T) {
	b := NewBuilder()
	b.AddPage()

	// Fill most of the page, then demand more room than remains.
	for i := 0; i < 40; i++ {
		b.Text("line")
	}
	b.EnsureSpace(100)

	if b.PageCount() != 2 {
		t.Errorf("expected page break, got %d pages", b.PageCount())
	}
}

func TestBuilder_EnsureSpaceNoopWhenRoomRemains(t *testing.T) {
	b := NewBuilder()
	b.AddPage()
	b.Text("one line")
	b.EnsureSpace(50)

	if b.PageCount() != 1 {
		t.Errorf("expected no page break, got %d pages", b.PageCount())
	}
}

func TestBuilder_ImageRejectsBadBase64(t *testing.T) {
	b := NewBuilder()
	b.AddPage()

	if err := b.Image("not base64 !!!", 150, 100); err == nil {
		t.Error("expected decode error")
	}
}
