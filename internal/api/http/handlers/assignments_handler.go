package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/chamado-service/internal/api/dto"
	"github.com/spec-kit/chamado-service/internal/service"
)

// AssignmentsHandler serves the shared queue and claims.
type AssignmentsHandler struct {
	service *service.AssignmentService
}

// NewAssignmentsHandler constructs handler.
func NewAssignmentsHandler(assignmentService *service.AssignmentService) *AssignmentsHandler {
	return &AssignmentsHandler{service: assignmentService}
}

// Queue GET /api/tickets/queue.
func (h *AssignmentsHandler) Queue(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	page, err := pageQuery(c)
	if err != nil {
		return err
	}
	result, err := h.service.Queue(c.UserContext(), caller, page)
	if err != nil {
		return err
	}
	return c.JSON(ticketPageResponse(result))
}

// MyAssignments GET /api/tickets/assignments.
func (h *AssignmentsHandler) MyAssignments(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	page, err := pageQuery(c)
	if err != nil {
		return err
	}
	result, err := h.service.MyAssignments(c.UserContext(), caller, page)
	if err != nil {
		return err
	}
	return c.JSON(ticketPageResponse(result))
}

// Claim POST /api/tickets/:id/claim.
func (h *AssignmentsHandler) Claim(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	var req dto.ClaimRequest
	if err := bodyParser(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Claim(c.UserContext(), caller, id, req.TechnicianID)
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}
