package geospatial

import (
	"fmt"
	"math"
)

const (
	earthRadiusMeters = 6371000.0

	// MetersPerNauticalMile converts great-circle meters to NM.
	MetersPerNauticalMile = 1852.0
)

// Web-mercator tile model constants for static map viewport fitting.
const (
	tileSize = 256

	MinZoom = 0
	MaxZoom = 21

	// SinglePointZoom is the zoom used when the bounding box collapses to a
	// single point and both axis fractions are zero. It matches the zoom of
	// the per-waypoint detail maps.
	SinglePointZoom = 15
)

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// InitialBearing returns the initial compass direction in degrees [0,360)
// along the great-circle path from point 1 toward point 2. Undefined for
// identical points; callers must handle that case before calling.
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	rLat1 := toRad(lat1)
	rLat2 := toRad(lat2)
	dLon := toRad(lon2 - lon1)

	y := math.Sin(dLon) * math.Cos(rLat2)
	x := math.Cos(rLat1)*math.Sin(rLat2) - math.Sin(rLat1)*math.Cos(rLat2)*math.Cos(dLon)
	theta := math.Atan2(y, x)

	return math.Mod(theta*180/math.Pi+360, 360)
}

// FitZoom returns the largest integer zoom in [MinZoom, MaxZoom] at which a
// bounding box with the given degree spans, plus padding on all sides, fits a
// widthPx x heightPx static map.
//
// Latitude is projected through the Mercator vertical fraction
// ln(tan(π/4 + lat/2))/π rather than a flat degree ratio, since degrees per
// pixel are not uniform along the Mercator vertical axis. Longitude scales
// linearly at span/360.
//
// scale multiplies output resolution, not ground coverage, so it does not
// enter the computation; it is accepted to mirror the static map request.
func FitZoom(latSpanDeg, lonSpanDeg float64, widthPx, heightPx, scale, paddingPx int) int {
	_ = scale

	latFraction := math.Log(math.Tan(math.Pi/4+toRad(latSpanDeg)/2)) / math.Pi
	lonFraction := lonSpanDeg / 360

	latZoom, latOK := zoomForAxis(heightPx, paddingPx, latFraction)
	lonZoom, lonOK := zoomForAxis(widthPx, paddingPx, lonFraction)

	switch {
	case !latOK && !lonOK:
		return SinglePointZoom
	case !latOK:
		return clampZoom(lonZoom)
	case !lonOK:
		return clampZoom(latZoom)
	}
	return clampZoom(min(latZoom, lonZoom))
}

// zoomForAxis computes floor(log2(availablePx / (tileSize * fraction)) + 0.5)
// for one axis. ok is false when the fraction is zero or negative, where the
// log is unbounded and the axis imposes no constraint.
func zoomForAxis(axisPx, paddingPx int, fraction float64) (zoom int, ok bool) {
	if fraction <= 0 {
		return 0, false
	}
	available := float64(axisPx - 2*paddingPx)
	if available <= 0 {
		return MinZoom, true
	}
	return int(math.Floor(math.Log2(available/(tileSize*fraction)) + 0.5)), true
}

func clampZoom(z int) int {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// FormatLatDM formats a decimal latitude as degrees and whole minutes with a
// hemisphere prefix, e.g. N59°52'.
func FormatLatDM(deg float64) string {
	hemi := "N"
	if deg < 0 {
		hemi = "S"
	}
	return formatDM(hemi, deg)
}

// FormatLonDM formats a decimal longitude as degrees and whole minutes with a
// hemisphere prefix, e.g. W75°09'.
func FormatLonDM(deg float64) string {
	hemi := "E"
	if deg < 0 {
		hemi = "W"
	}
	return formatDM(hemi, deg)
}

func formatDM(hemi string, deg float64) string {
	abs := math.Abs(deg)
	d := math.Floor(abs)
	m := math.Floor((abs - d) * 60)
	return fmt.Sprintf("%s%02.0f°%02.0f'", hemi, d, m)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
