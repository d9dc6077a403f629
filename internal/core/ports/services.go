package ports

import (
	"context"

	"github.com/skyplanhq/skyplan/internal/core/domain"
)

// ImageFetcher retrieves a raw raster image over the network.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ImageSource is a deduplicating fetch-and-encode image cache keyed by
// request URL. FetchEncoded performs at most one network fetch per distinct
// URL for the process lifetime; failures are never memoized, so a later call
// with the same URL fetches again.
type ImageSource interface {
	FetchEncoded(ctx context.Context, url string) (string, error)
}

// StaticMapProvider builds request URLs for a static map image service.
// It is a thin collaborator: it only constructs URLs, never fetches.
type StaticMapProvider interface {
	// WaypointMapURL returns the detail map URL for a single waypoint with
	// its numbered marker.
	WaypointMapURL(wp domain.Waypoint, label int) string
	// OverviewMapURL returns a map URL fitting every waypoint, with numbered
	// markers and a connecting path. Empty input yields an empty URL.
	OverviewMapURL(wps []domain.Waypoint) string
}

// DocumentBuilder assembles a paginated report document. Implementations own
// the vertical cursor; EnsureSpace starts a new page when the given height
// would cross the bottom margin. A builder is single-use.
type DocumentBuilder interface {
	AddPage()
	EnsureSpace(heightMM float64)
	Title(text string)
	Heading(text string)
	Text(line string)
	Spacer(heightMM float64)
	Table(headers []string, widths []float64, rows [][]string)
	Image(encoded string, widthMM, heightMM float64) error
	PageCount() int
	Output() ([]byte, error)
}

// ProgressSink observes report compilation progress as a percentage in
// [0,100]. A failed compilation resets the sink to 0.
type ProgressSink interface {
	Progress(percent float64)
}

// ProgressFunc adapts a function to the ProgressSink interface.
type ProgressFunc func(percent float64)

func (f ProgressFunc) Progress(percent float64) { f(percent) }
