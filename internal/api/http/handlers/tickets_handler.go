package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/chamado-service/internal/api/dto"
	"github.com/spec-kit/chamado-service/internal/service"
)

// TicketsHandler manages ticket lifecycle and history endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := bodyParser(c, &req); err != nil {
		return err
	}

	ticket, err := h.service.Create(c.UserContext(), caller, service.TicketCreateInput{
		Secretariat:       req.Secretariat,
		OriginSector:      req.OriginSector,
		DestinationSector: req.DestinationSector,
		ProblemType:       req.ProblemType,
		OpeningReason:     req.OpeningReason,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(ticketResponse(ticket))
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	query, page, err := filterQuery(c)
	if err != nil {
		return err
	}
	result, err := h.service.Find(c.UserContext(), caller, query, page)
	if err != nil {
		return err
	}
	return c.JSON(ticketPageResponse(result))
}

// ListMine GET /api/tickets/mine.
func (h *TicketsHandler) ListMine(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	query, page, err := filterQuery(c)
	if err != nil {
		return err
	}
	result, err := h.service.FindMine(c.UserContext(), caller, query, page)
	if err != nil {
		return err
	}
	return c.JSON(ticketPageResponse(result))
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// StartTicket POST /api/tickets/:id/start.
func (h *TicketsHandler) StartTicket(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Start(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// ResolveTicket POST /api/tickets/:id/resolve.
func (h *TicketsHandler) ResolveTicket(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	var req dto.ResolveRequest
	if err := bodyParser(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Resolve(c.UserContext(), caller, id, service.ResolveInput{
		Reason:      req.ResolutionReason,
		ProblemType: req.ProblemType,
	})
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// ReopenTicket POST /api/tickets/:id/reopen.
func (h *TicketsHandler) ReopenTicket(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	var req dto.ReopenRequest
	if err := bodyParser(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Reopen(c.UserContext(), caller, id, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// AddFollowUp POST /api/tickets/:id/follow-ups.
func (h *TicketsHandler) AddFollowUp(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	var req dto.FollowUpRequest
	if err := bodyParser(c, &req); err != nil {
		return err
	}
	entry, err := h.service.AddFollowUp(c.UserContext(), caller, id, req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(historyEntryResponse(entry))
}

// History GET /api/tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	ticket, entries, err := h.service.History(c.UserContext(), caller, id)
	if err != nil {
		return err
	}
	return c.JSON(ticketHistoryResponse(ticket, entries))
}
