package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/chamado-service/internal/domain"
	"github.com/spec-kit/chamado-service/internal/service"
)

// DashboardHandler serves aggregate reporting.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// Dashboard GET /api/dashboard?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *DashboardHandler) Dashboard(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	values, err := queryValues(c, "from", "to")
	if err != nil {
		return err
	}
	var window domain.DateRange
	if window.From, err = parseDay(values, "from"); err != nil {
		return err
	}
	if window.To, err = parseDay(values, "to"); err != nil {
		return err
	}

	dashboard, err := h.service.Compute(c.UserContext(), caller, window)
	if err != nil {
		return err
	}
	return c.JSON(dashboardResponse(dashboard))
}
