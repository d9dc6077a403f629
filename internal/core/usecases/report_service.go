package usecases

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/skyplanhq/skyplan/internal/core/domain"
	"github.com/skyplanhq/skyplan/internal/core/ports"
	"github.com/skyplanhq/skyplan/internal/pkg/geospatial"
	"github.com/skyplanhq/skyplan/internal/pkg/metrics"
)

// MaxReportWaypoints caps the export size. The precondition is static, so it
// is checked up front: an export never starts and then dies midway on it.
const MaxReportWaypoints = 50

// Report layout in millimeters on an A4 portrait page.
const (
	lineHeightMM    = 6
	headingHeightMM = 9
	titleHeightMM   = 14
	blockGapMM      = 4

	// Overview map: 800x600 px request rendered at content width.
	overviewWidthMM  = 180
	overviewHeightMM = 135

	// Waypoint detail map: 600x400 px request.
	detailImageWidthMM  = 150
	detailImageHeightMM = 100
)

// Compilation states. A ReportService call runs one state machine from Idle
// to Done or Failed; a new export always starts fresh.
type compileState int

const (
	stateIdle compileState = iota
	stateValidating
	stateRendering
	stateDone
	stateFailed
)

// ExportRequest carries the caller-supplied report options.
type ExportRequest struct {
	Title         string  `json:"title"`
	CruiseSpeedKt float64 `json:"cruise_speed_kt"`
}

// ReportService compiles a plan snapshot into a paginated PDF document with
// an overview map, a legs table, and one detail block per waypoint. The
// document is all-or-nothing: any image failure discards the partial output.
type ReportService struct {
	maps       ports.StaticMapProvider
	images     ports.ImageSource
	newBuilder func() ports.DocumentBuilder

	defaultSpeedKt float64
}

// NewReportService creates a new ReportService. newBuilder is invoked once
// per compilation, since builders are single-use.
func NewReportService(maps ports.StaticMapProvider, images ports.ImageSource, newBuilder func() ports.DocumentBuilder, defaultSpeedKt float64) *ReportService {
	return &ReportService{
		maps:           maps,
		images:         images,
		newBuilder:     newBuilder,
		defaultSpeedKt: defaultSpeedKt,
	}
}

type compilation struct {
	state compileState
	doc   ports.DocumentBuilder
	sink  ports.ProgressSink
}

type nopSink struct{}

func (nopSink) Progress(float64) {}

// Compile runs the full pipeline: validate, render section by section, and
// serialize. Image fetches are strictly sequential because the page cursor
// and the progress percentage both depend on the completion of earlier
// blocks. There is no mid-flight cancellation beyond ctx reaching the
// fetcher; callers observe eventual success or failure.
func (s *ReportService) Compile(ctx context.Context, req ExportRequest, wps []domain.Waypoint, route domain.Route, sink ports.ProgressSink) ([]byte, error) {
	tracer := otel.Tracer("skyplan/report")
	ctx, span := tracer.Start(ctx, "report.compile")
	defer span.End()
	span.SetAttributes(attribute.Int("report.waypoints", len(wps)))

	if sink == nil {
		sink = nopSink{}
	}
	c := &compilation{state: stateIdle, sink: sink}
	start := time.Now()

	out, err := s.compile(ctx, c, req, wps, route)
	if err != nil {
		c.state = stateFailed
		// All-or-nothing: drop partial output and reset the observer.
		c.sink.Progress(0)
		span.RecordError(err)
		metrics.ExportsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	c.state = stateDone
	metrics.ExportsTotal.WithLabelValues("ok").Inc()
	metrics.ExportDuration.Observe(time.Since(start).Seconds())
	metrics.ReportPages.Observe(float64(c.doc.PageCount()))
	return out, nil
}

func (s *ReportService) compile(ctx context.Context, c *compilation, req ExportRequest, wps []domain.Waypoint, route domain.Route) ([]byte, error) {
	c.state = stateValidating
	if err := validateExport(wps); err != nil {
		return nil, err
	}

	speed := req.CruiseSpeedKt
	if speed <= 0 {
		speed = s.defaultSpeedKt
	}
	title := req.Title
	if title == "" {
		title = "Flight Plan"
	}

	c.state = stateRendering
	c.doc = s.newBuilder()
	c.doc.AddPage()

	s.renderTitle(c, title, wps, route, speed)
	if err := s.renderOverview(ctx, c, wps); err != nil {
		return nil, err
	}
	s.renderLegsTable(c, route)
	if err := s.renderDetails(ctx, c, wps, route); err != nil {
		return nil, err
	}

	return c.doc.Output()
}

// validateExport rejects exports that would fail on a checkable precondition.
func validateExport(wps []domain.Waypoint) error {
	if len(wps) == 0 {
		return domain.NewValidationError("waypoints", "cannot export an empty plan")
	}
	if len(wps) > MaxReportWaypoints {
		return domain.NewValidationError("waypoints", "plan has %d waypoints, maximum is %d", len(wps), MaxReportWaypoints)
	}
	for i, wp := range wps {
		if wp.Name == "" {
			return domain.NewValidationError("waypoints", "waypoint %d has no name", i+1)
		}
		if !wp.Location.Valid() {
			return domain.NewValidationError("waypoints", "waypoint %q has out-of-range coordinates", wp.Name)
		}
	}
	return nil
}

func (s *ReportService) renderTitle(c *compilation, title string, wps []domain.Waypoint, route domain.Route, speedKt float64) {
	c.doc.EnsureSpace(titleHeightMM + 4*lineHeightMM)
	c.doc.Title(title)
	c.doc.Text(time.Now().UTC().Format("2 January 2006 15:04 UTC"))
	c.doc.Text(fmt.Sprintf("Waypoints: %d", len(wps)))
	c.doc.Text(fmt.Sprintf("Total distance: %.2f NM", route.TotalDistanceNM))
	c.doc.Text(fmt.Sprintf("Estimated time en route: %.2f h at %.0f kt", route.FlightTimeHours(speedKt), speedKt))
	c.doc.Spacer(blockGapMM)
}

func (s *ReportService) renderOverview(ctx context.Context, c *compilation, wps []domain.Waypoint) error {
	c.doc.EnsureSpace(headingHeightMM + overviewHeightMM)
	c.doc.Heading("Route Overview")

	url := s.maps.OverviewMapURL(wps)
	encoded, err := s.images.FetchEncoded(ctx, url)
	if err != nil {
		return fmt.Errorf("overview map: %w", err)
	}
	c.doc.EnsureSpace(overviewHeightMM)
	if err := c.doc.Image(encoded, overviewWidthMM, overviewHeightMM); err != nil {
		return fmt.Errorf("overview map: %w", err)
	}
	c.doc.Spacer(blockGapMM)
	return nil
}

func (s *ReportService) renderLegsTable(c *compilation, route domain.Route) {
	if len(route.Legs) == 0 {
		return
	}

	rows := make([][]string, 0, len(route.Legs))
	for _, leg := range route.Legs {
		rows = append(rows, []string{
			leg.FromName,
			leg.ToName,
			fmt.Sprintf("%.2f", leg.DistanceNM),
			formatHeading(leg),
		})
	}

	c.doc.EnsureSpace(headingHeightMM + float64(len(rows)+1)*lineHeightMM)
	c.doc.Heading("Legs")
	c.doc.Table(
		[]string{"From", "To", "Distance (NM)", "Heading"},
		[]float64{55, 55, 35, 35},
		rows,
	)
	c.doc.Spacer(blockGapMM)
}

func (s *ReportService) renderDetails(ctx context.Context, c *compilation, wps []domain.Waypoint, route domain.Route) error {
	total := len(wps)

	for i, wp := range wps {
		textLines := 1 // coordinates
		if i < len(route.Legs) {
			textLines++ // outgoing leg
		}
		blockHeight := headingHeightMM + float64(textLines)*lineHeightMM + detailImageHeightMM + blockGapMM

		// Keep each detail block on one page; the per-element checks below
		// still re-run against the live cursor.
		c.doc.EnsureSpace(blockHeight)

		c.doc.Heading(fmt.Sprintf("%d. %s", i+1, wp.Name))
		c.doc.EnsureSpace(lineHeightMM)
		c.doc.Text(fmt.Sprintf("Position: %s %s (%.5f, %.5f)",
			geospatial.FormatLatDM(wp.Location.Lat),
			geospatial.FormatLonDM(wp.Location.Lon),
			wp.Location.Lat, wp.Location.Lon))
		if i < len(route.Legs) {
			leg := route.Legs[i]
			c.doc.EnsureSpace(lineHeightMM)
			c.doc.Text(fmt.Sprintf("Next leg: %s, %.2f NM, heading %s",
				leg.ToName, leg.DistanceNM, formatHeading(leg)))
		}

		url := s.maps.WaypointMapURL(wp, i+1)
		encoded, err := s.images.FetchEncoded(ctx, url)
		if err != nil {
			return fmt.Errorf("waypoint %q (%d of %d): %w", wp.Name, i+1, total, err)
		}
		c.doc.EnsureSpace(detailImageHeightMM)
		if err := c.doc.Image(encoded, detailImageWidthMM, detailImageHeightMM); err != nil {
			return fmt.Errorf("waypoint %q (%d of %d): %w", wp.Name, i+1, total, err)
		}
		c.doc.Spacer(blockGapMM)

		c.sink.Progress(float64(i+1) / float64(total) * 100)
	}
	return nil
}

// formatHeading renders a three-digit magnetic-style heading, or an em-dash
// sentinel for degenerate legs where no bearing exists. Rendering 0 there
// would be indistinguishable from true north.
func formatHeading(leg domain.Leg) string {
	if !leg.HasHeading {
		return "—"
	}
	return fmt.Sprintf("%03d°", leg.HeadingDeg)
}
