package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/skyplanhq/skyplan/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errBadGateway returns a 502 error for upstream image provider failures.
func errBadGateway(c *fiber.Ctx, msg string) error {
	return newError(c, 502, "bad_gateway", msg)
}

// mapDomainError translates service errors to HTTP responses. Validation and
// geometry problems are the caller's fault; missing plans or waypoints are
// 404s; upstream image failures surface as 502.
func mapDomainError(c *fiber.Ctx, err error) error {
	var (
		validationErr *domain.ValidationError
		geometryErr   *domain.GeometryError
		fetchErr      *domain.FetchError
		decodeErr     *domain.DecodeError
	)

	switch {
	case errors.Is(err, domain.ErrPlanNotFound):
		return errNotFound(c, "plan not found")
	case errors.Is(err, domain.ErrWaypointNotFound):
		return errNotFound(c, "waypoint not found")
	case errors.As(err, &validationErr), errors.As(err, &geometryErr):
		return errBadRequest(c, err.Error())
	case errors.As(err, &fetchErr), errors.As(err, &decodeErr):
		return errBadGateway(c, err.Error())
	default:
		return errInternal(c, err.Error())
	}
}
