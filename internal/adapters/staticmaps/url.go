// Package staticmaps adapts the Google Static Maps API: it builds request
// URLs for overview and per-waypoint imagery and fetches the rendered tiles.
package staticmaps

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/skyplanhq/skyplan/internal/core/domain"
	"github.com/skyplanhq/skyplan/internal/pkg/geospatial"
)

// Image request parameters mirrored from the map provider contract.
const (
	detailZoom    = 15
	detailWidth   = 600
	detailHeight  = 400
	overviewWidth = 800
	overviewHgt   = 600

	// marginFactor widens the overview bounding box so edge markers are not
	// clipped by the frame.
	marginFactor = 1.2
	paddingPx    = 40

	imageScale  = 2
	imageFormat = "png"
	mapType     = "satellite"
	markerColor = "red"
)

// Google builds Static Maps API URLs.
type Google struct {
	apiKey  string
	baseURL string
}

// NewGoogle creates a URL builder for the given API key. baseURL is the
// static map endpoint, e.g. https://maps.googleapis.com/maps/api/staticmap.
func NewGoogle(apiKey, baseURL string) *Google {
	return &Google{apiKey: apiKey, baseURL: baseURL}
}

// WaypointMapURL returns the detail map for one waypoint: fixed zoom,
// 600x400 at 2x, a single numbered marker.
func (g *Google) WaypointMapURL(wp domain.Waypoint, label int) string {
	q := url.Values{}
	q.Set("center", formatPoint(wp.Location))
	q.Set("zoom", fmt.Sprintf("%d", detailZoom))
	q.Set("size", fmt.Sprintf("%dx%d", detailWidth, detailHeight))
	q.Set("scale", fmt.Sprintf("%d", imageScale))
	q.Set("format", imageFormat)
	q.Set("maptype", mapType)
	q.Set("markers", fmt.Sprintf("color:%s|label:%d|%s", markerColor, label, formatPoint(wp.Location)))
	q.Set("key", g.apiKey)
	return g.baseURL + "?" + q.Encode()
}

// OverviewMapURL returns a map fitting every waypoint: bounding-box center,
// zoom from the viewport fitter with a widened span, numbered markers, and a
// polyline connecting the route. Empty input yields an empty URL.
func (g *Google) OverviewMapURL(wps []domain.Waypoint) string {
	if len(wps) == 0 {
		return ""
	}

	points := make([]domain.GeoPoint, len(wps))
	for i, wp := range wps {
		points[i] = wp.Location
	}
	bounds, _ := domain.BoundsOf(points)

	zoom := geospatial.FitZoom(
		bounds.LatSpan()*marginFactor,
		bounds.LonSpan()*marginFactor,
		overviewWidth, overviewHgt,
		imageScale, paddingPx,
	)

	q := url.Values{}
	q.Set("center", formatPoint(bounds.Center()))
	q.Set("zoom", fmt.Sprintf("%d", zoom))
	q.Set("size", fmt.Sprintf("%dx%d", overviewWidth, overviewHgt))
	q.Set("scale", fmt.Sprintf("%d", imageScale))
	q.Set("format", imageFormat)
	q.Set("maptype", mapType)
	for i, wp := range wps {
		q.Add("markers", fmt.Sprintf("color:%s|label:%d|%s", markerColor, i+1, formatPoint(wp.Location)))
	}
	q.Set("path", "color:0xff0000ff|weight:2|"+formatPath(points))
	q.Set("key", g.apiKey)
	return g.baseURL + "?" + q.Encode()
}

func formatPoint(p domain.GeoPoint) string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

func formatPath(points []domain.GeoPoint) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = formatPoint(p)
	}
	return strings.Join(parts, "|")
}
