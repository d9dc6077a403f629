package http

import (
	"github.com/skyplanhq/skyplan/internal/core/usecases"
	"github.com/skyplanhq/skyplan/internal/pkg/progress"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Plans    *usecases.PlanService
	Reports  *usecases.ReportService
	Progress *progress.Broker
}
