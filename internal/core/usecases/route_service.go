package usecases

import (
	"math"

	"github.com/skyplanhq/skyplan/internal/core/domain"
	"github.com/skyplanhq/skyplan/internal/pkg/geospatial"
)

// RouteService derives leg distances and headings from an ordered waypoint
// snapshot. It is pure: no state, fully deterministic for a given input, and
// it never fails for waypoints that passed collection validation.
type RouteService struct{}

// NewRouteService creates a new RouteService.
func NewRouteService() *RouteService {
	return &RouteService{}
}

// ComputeRoute builds the full set of legs for consecutive waypoint pairs.
// Fewer than two waypoints is a defined empty state, not an error. The route
// is always recomputed wholesale; a single move or removal can change every
// downstream leg, so incremental patching is never attempted.
func (s *RouteService) ComputeRoute(wps []domain.Waypoint) domain.Route {
	if len(wps) < 2 {
		return domain.Route{Legs: []domain.Leg{}}
	}

	legs := make([]domain.Leg, 0, len(wps)-1)
	total := 0.0

	for i := 0; i < len(wps)-1; i++ {
		from, to := wps[i], wps[i+1]
		leg := domain.Leg{
			FromIndex: i,
			ToIndex:   i + 1,
			FromName:  from.Name,
			ToName:    to.Name,
		}

		// Identical coordinates: distance is zero and the initial bearing is
		// undefined. Skip the math so atan2 on a zero vector can never leak
		// a NaN into the route.
		if from.Location != to.Location {
			meters := geospatial.Haversine(
				from.Location.Lat, from.Location.Lon,
				to.Location.Lat, to.Location.Lon,
			)
			bearing := geospatial.InitialBearing(
				from.Location.Lat, from.Location.Lon,
				to.Location.Lat, to.Location.Lon,
			)
			leg.DistanceNM = meters / geospatial.MetersPerNauticalMile
			leg.HeadingDeg = int(math.Round(bearing)) % 360
			leg.HasHeading = true
		}

		total += leg.DistanceNM
		legs = append(legs, leg)
	}

	return domain.Route{Legs: legs, TotalDistanceNM: total}
}
