package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/skyplanhq/skyplan/internal/core/domain"
	"github.com/skyplanhq/skyplan/internal/core/ports"
	"github.com/skyplanhq/skyplan/internal/core/usecases"
	"github.com/skyplanhq/skyplan/internal/pkg/progress"
)

// CreatePlanHandler starts a new planning session.
func CreatePlanHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		Title string `json:"title"`
	}

	return func(c *fiber.Ctx) error {
		var req request
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}

		plan, err := deps.Plans.Create(c.Context(), req.Title)
		if err != nil {
			return mapDomainError(c, err)
		}
		return c.Status(201).JSON(plan)
	}
}

// ListPlansHandler returns all planning sessions ordered by creation time.
func ListPlansHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plans := deps.Plans.List(c.Context())

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 100
		}

		total := len(plans)
		if offset >= total {
			plans = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			plans = plans[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: plans, Pagination: pg})
	}
}

// GetPlanHandler returns a single planning session.
func GetPlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plan, err := deps.Plans.Get(c.Context(), c.Params("id"))
		if err != nil {
			return mapDomainError(c, err)
		}
		return c.JSON(plan)
	}
}

// DeletePlanHandler removes a planning session.
func DeletePlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Plans.Delete(c.Context(), c.Params("id")); err != nil {
			return mapDomainError(c, err)
		}
		return c.SendStatus(204)
	}
}

// AddWaypointHandler appends a waypoint to the end of the sequence.
func AddWaypointHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		Name string   `json:"name"`
		Lat  *float64 `json:"lat"`
		Lon  *float64 `json:"lon"`
	}

	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Lat == nil || req.Lon == nil {
			return errBadRequest(c, "lat and lon are required")
		}

		plan, err := deps.Plans.AddWaypoint(c.Context(), c.Params("id"), req.Name,
			domain.GeoPoint{Lat: *req.Lat, Lon: *req.Lon})
		if err != nil {
			return mapDomainError(c, err)
		}
		return c.Status(201).JSON(plan)
	}
}

// MoveWaypointHandler swaps a waypoint with a neighbor delta positions away.
// An out-of-range target is a silent no-op; the unchanged plan is returned.
func MoveWaypointHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		Delta int `json:"delta"`
	}

	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		plan, err := deps.Plans.MoveWaypoint(c.Context(), c.Params("id"), c.Params("wid"), req.Delta)
		if err != nil {
			return mapDomainError(c, err)
		}
		return c.JSON(plan)
	}
}

// UpdateWaypointHandler renames and/or repositions a waypoint. Fields absent
// from the body are left untouched; lat and lon must come as a pair.
func UpdateWaypointHandler(deps *Dependencies) fiber.Handler {
	type request struct {
		Name *string  `json:"name"`
		Lat  *float64 `json:"lat"`
		Lon  *float64 `json:"lon"`
	}

	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Name == nil && req.Lat == nil && req.Lon == nil {
			return errBadRequest(c, "nothing to update: provide name, or lat and lon")
		}
		if (req.Lat == nil) != (req.Lon == nil) {
			return errBadRequest(c, "lat and lon must be provided together")
		}

		planID, waypointID := c.Params("id"), c.Params("wid")

		var (
			plan usecases.PlanView
			err  error
		)
		if req.Name != nil {
			plan, err = deps.Plans.RenameWaypoint(c.Context(), planID, waypointID, *req.Name)
			if err != nil {
				return mapDomainError(c, err)
			}
		}
		if req.Lat != nil {
			plan, err = deps.Plans.RepositionWaypoint(c.Context(), planID, waypointID,
				domain.GeoPoint{Lat: *req.Lat, Lon: *req.Lon})
			if err != nil {
				return mapDomainError(c, err)
			}
		}
		return c.JSON(plan)
	}
}

// RemoveWaypointHandler deletes a waypoint; later waypoints shift down and
// relabel.
func RemoveWaypointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plan, err := deps.Plans.RemoveWaypoint(c.Context(), c.Params("id"), c.Params("wid"))
		if err != nil {
			return mapDomainError(c, err)
		}
		return c.JSON(plan)
	}
}

// GetRouteHandler returns the derived route of a plan.
func GetRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route, err := deps.Plans.Route(c.Context(), c.Params("id"))
		if err != nil {
			return mapDomainError(c, err)
		}
		return c.JSON(route)
	}
}

// ExportPlanHandler compiles the plan into a PDF and streams it back.
// Progress events are published to the broker for WebSocket subscribers.
func ExportPlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		planID := c.Params("id")

		var req usecases.ExportRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}

		wps, route, err := deps.Plans.Snapshot(c.Context(), planID)
		if err != nil {
			return mapDomainError(c, err)
		}

		sink := ports.ProgressFunc(func(percent float64) {
			state := "rendering"
			if percent >= 100 {
				state = "done"
			}
			deps.Progress.Publish(progress.Event{PlanID: planID, Percent: percent, State: state})
		})

		pdf, err := deps.Reports.Compile(c.Context(), req, wps, route, sink)
		if err != nil {
			deps.Progress.Publish(progress.Event{PlanID: planID, State: "failed", Error: err.Error()})
			return mapDomainError(c, err)
		}

		c.Set("Content-Type", "application/pdf")
		c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "flight-plan-"+planID+".pdf"))
		return c.Send(pdf)
	}
}
