package usecases

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skyplanhq/skyplan/internal/core/domain"
)

// PlanView is the external projection of a planning session: the labeled
// waypoint snapshot plus the route derived from it.
type PlanView struct {
	ID            string                   `json:"id"`
	Title         string                   `json:"title"`
	Waypoints     []domain.LabeledWaypoint `json:"waypoints"`
	Route         domain.Route             `json:"route"`
	CruiseSpeedKt float64                  `json:"cruise_speed_kt"`
	FlightTimeHr  float64                  `json:"flight_time_hr"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

type planEntry struct {
	id        string
	title     string
	coll      *domain.Collection
	route     domain.Route
	createdAt time.Time
	updatedAt time.Time
}

// PlanService owns the in-memory planning sessions. Every structural or
// positional mutation recomputes the whole route before the call returns, so
// the displayed legs can never drift from the underlying waypoints.
type PlanService struct {
	mu     sync.RWMutex
	plans  map[string]*planEntry
	routes *RouteService

	cruiseSpeedKt float64
}

// NewPlanService creates a new PlanService. cruiseSpeedKt is the speed used
// for the flight-time estimate shown with each plan.
func NewPlanService(routes *RouteService, cruiseSpeedKt float64) *PlanService {
	return &PlanService{
		plans:         make(map[string]*planEntry),
		routes:        routes,
		cruiseSpeedKt: cruiseSpeedKt,
	}
}

// Create starts a new empty planning session.
func (s *PlanService) Create(ctx context.Context, title string) (PlanView, error) {
	entry := &planEntry{
		id:        uuid.NewString(),
		title:     title,
		coll:      domain.NewCollection(),
		route:     domain.Route{Legs: []domain.Leg{}},
		createdAt: time.Now().UTC(),
	}
	entry.updatedAt = entry.createdAt

	s.mu.Lock()
	s.plans[entry.id] = entry
	s.mu.Unlock()

	return s.view(entry), nil
}

// List returns all sessions ordered by creation time.
func (s *PlanService) List(ctx context.Context) []PlanView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]PlanView, 0, len(s.plans))
	for _, entry := range s.plans {
		out = append(out, s.view(entry))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Get returns a single session.
func (s *PlanService) Get(ctx context.Context, planID string) (PlanView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.plans[planID]
	if !ok {
		return PlanView{}, domain.ErrPlanNotFound
	}
	return s.view(entry), nil
}

// Delete removes a session.
func (s *PlanService) Delete(ctx context.Context, planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[planID]; !ok {
		return domain.ErrPlanNotFound
	}
	delete(s.plans, planID)
	return nil
}

// AddWaypoint appends a waypoint at the end of the sequence.
func (s *PlanService) AddWaypoint(ctx context.Context, planID, name string, loc domain.GeoPoint) (PlanView, error) {
	return s.mutate(planID, func(entry *planEntry) error {
		_, err := entry.coll.Add(name, loc)
		return err
	})
}

// MoveWaypoint swaps a waypoint with its neighbor delta positions away.
func (s *PlanService) MoveWaypoint(ctx context.Context, planID, waypointID string, delta int) (PlanView, error) {
	return s.mutate(planID, func(entry *planEntry) error {
		return entry.coll.MoveBy(waypointID, delta)
	})
}

// RenameWaypoint replaces a waypoint name.
func (s *PlanService) RenameWaypoint(ctx context.Context, planID, waypointID, name string) (PlanView, error) {
	return s.mutate(planID, func(entry *planEntry) error {
		return entry.coll.Rename(waypointID, name)
	})
}

// RepositionWaypoint updates waypoint coordinates after a marker drag.
func (s *PlanService) RepositionWaypoint(ctx context.Context, planID, waypointID string, loc domain.GeoPoint) (PlanView, error) {
	return s.mutate(planID, func(entry *planEntry) error {
		return entry.coll.Reposition(waypointID, loc)
	})
}

// RemoveWaypoint deletes a waypoint; later entries shift down and relabel.
func (s *PlanService) RemoveWaypoint(ctx context.Context, planID, waypointID string) (PlanView, error) {
	return s.mutate(planID, func(entry *planEntry) error {
		return entry.coll.Remove(waypointID)
	})
}

// Route returns the current derived route of a session.
func (s *PlanService) Route(ctx context.Context, planID string) (domain.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.plans[planID]
	if !ok {
		return domain.Route{}, domain.ErrPlanNotFound
	}
	return entry.route, nil
}

// Snapshot returns the ordered waypoints and route of a session, for export.
func (s *PlanService) Snapshot(ctx context.Context, planID string) ([]domain.Waypoint, domain.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.plans[planID]
	if !ok {
		return nil, domain.Route{}, domain.ErrPlanNotFound
	}
	return entry.coll.Waypoints(), entry.route, nil
}

// mutate runs op under the write lock and recomputes the route from the
// canonical snapshot, never patching legs in place.
func (s *PlanService) mutate(planID string, op func(*planEntry) error) (PlanView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.plans[planID]
	if !ok {
		return PlanView{}, domain.ErrPlanNotFound
	}
	if err := op(entry); err != nil {
		return PlanView{}, err
	}

	entry.route = s.routes.ComputeRoute(entry.coll.Waypoints())
	entry.updatedAt = time.Now().UTC()
	return s.view(entry), nil
}

func (s *PlanService) view(entry *planEntry) PlanView {
	return PlanView{
		ID:            entry.id,
		Title:         entry.title,
		Waypoints:     entry.coll.Labeled(),
		Route:         entry.route,
		CruiseSpeedKt: s.cruiseSpeedKt,
		FlightTimeHr:  entry.route.FlightTimeHours(s.cruiseSpeedKt),
		CreatedAt:     entry.createdAt,
		UpdatedAt:     entry.updatedAt,
	}
}
