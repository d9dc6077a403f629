package domain

// Leg is the directed segment between two consecutive waypoints. Legs are
// derived values: they are recomputed wholesale whenever the collection
// changes and never patched incrementally.
type Leg struct {
	FromIndex  int     `json:"from_index"`
	ToIndex    int     `json:"to_index"`
	FromName   string  `json:"from_name"`
	ToName     string  `json:"to_name"`
	DistanceNM float64 `json:"distance_nm"`
	HeadingDeg int     `json:"heading_deg"`
	// HasHeading is false for a degenerate leg between identical coordinates,
	// where an initial bearing is undefined. HeadingDeg is 0 in that case and
	// must not be read as due north.
	HasHeading bool `json:"has_heading"`
}

// Route aggregates the legs of a plan. TotalDistanceNM is the exact sum of
// the per-leg distances, so the table and the total can never drift apart.
type Route struct {
	Legs            []Leg   `json:"legs"`
	TotalDistanceNM float64 `json:"total_distance_nm"`
}

// FlightTimeHours estimates time en route at the given cruise speed in
// knots. Returns 0 for a non-positive speed.
func (r Route) FlightTimeHours(speedKt float64) float64 {
	if speedKt <= 0 {
		return 0
	}
	return r.TotalDistanceNM / speedKt
}
