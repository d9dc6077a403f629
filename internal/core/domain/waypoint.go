package domain

import "time"

// Waypoint is a named geographic point in a flight plan. Identity is the
// opaque ID, fixed at creation; name and location are mutable in place.
// Position inside a Collection is separate from identity.
type Waypoint struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  GeoPoint  `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

// LabeledWaypoint pairs a waypoint with its externally visible 1-based map
// label. Labels are derived from collection order on read, never stored.
type LabeledWaypoint struct {
	Waypoint
	Label int `json:"label"`
}
