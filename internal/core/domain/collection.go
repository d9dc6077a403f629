package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Collection is the ordered, uniquely keyed waypoint sequence backing a
// single planning session. Records live in an arena keyed by ID with an
// explicit order slice beside it, so the rendered marker labels (1-based
// position) can be derived on read and can never desync from the order.
//
// Collection is not safe for concurrent use; the owning service serializes
// access.
type Collection struct {
	byID  map[string]*Waypoint
	order []string
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{byID: make(map[string]*Waypoint)}
}

// Len returns the number of waypoints.
func (c *Collection) Len() int { return len(c.order) }

// Add validates and appends a waypoint at the end of the sequence, returning
// the created record.
func (c *Collection) Add(name string, loc GeoPoint) (Waypoint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Waypoint{}, NewValidationError("name", "waypoint name must not be empty")
	}
	if !loc.Valid() {
		return Waypoint{}, &GeometryError{Lat: loc.Lat, Lon: loc.Lon}
	}

	wp := &Waypoint{
		ID:        uuid.NewString(),
		Name:      name,
		Location:  loc,
		CreatedAt: time.Now().UTC(),
	}
	c.byID[wp.ID] = wp
	c.order = append(c.order, wp.ID)
	return *wp, nil
}

// MoveBy swaps the waypoint with the entry delta positions away. A target
// index outside the sequence is a no-op, matching the move up/down
// interaction at either end of the list.
func (c *Collection) MoveBy(id string, delta int) error {
	i := c.indexOf(id)
	if i < 0 {
		return ErrWaypointNotFound
	}
	j := i + delta
	if j < 0 || j >= len(c.order) {
		return nil
	}
	c.order[i], c.order[j] = c.order[j], c.order[i]
	return nil
}

// Rename replaces the waypoint name, leaving order and identity untouched.
func (c *Collection) Rename(id, name string) error {
	wp, ok := c.byID[id]
	if !ok {
		return ErrWaypointNotFound
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return NewValidationError("name", "waypoint name must not be empty")
	}
	wp.Name = name
	return nil
}

// Reposition updates the coordinates in place, as after a marker drag.
func (c *Collection) Reposition(id string, loc GeoPoint) error {
	wp, ok := c.byID[id]
	if !ok {
		return ErrWaypointNotFound
	}
	if !loc.Valid() {
		return &GeometryError{Lat: loc.Lat, Lon: loc.Lon}
	}
	wp.Location = loc
	return nil
}

// Remove deletes the waypoint; every later entry shifts down one position and
// picks up a new label on the next read.
func (c *Collection) Remove(id string) error {
	i := c.indexOf(id)
	if i < 0 {
		return ErrWaypointNotFound
	}
	delete(c.byID, id)
	c.order = append(c.order[:i], c.order[i+1:]...)
	return nil
}

// Waypoints returns an ordered snapshot of the collection. The returned
// values are copies; mutating them does not touch the collection.
func (c *Collection) Waypoints() []Waypoint {
	out := make([]Waypoint, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.byID[id])
	}
	return out
}

// Labeled returns the ordered snapshot with derived 1-based labels.
func (c *Collection) Labeled() []LabeledWaypoint {
	out := make([]LabeledWaypoint, 0, len(c.order))
	for i, id := range c.order {
		out = append(out, LabeledWaypoint{Waypoint: *c.byID[id], Label: i + 1})
	}
	return out
}

func (c *Collection) indexOf(id string) int {
	for i, candidate := range c.order {
		if candidate == id {
			return i
		}
	}
	return -1
}
