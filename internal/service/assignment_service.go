package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/chamado-service/internal/domain"
	"github.com/spec-kit/chamado-service/internal/events"
	"github.com/spec-kit/chamado-service/internal/observability"
	"github.com/spec-kit/chamado-service/internal/repository"
	apperrors "github.com/spec-kit/chamado-service/pkg/util/errorutil"
)

// AssignmentService mediates the shared queue and exclusive claims.
type AssignmentService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// AssignmentDependencies bundles collaborators for the assignment service.
type AssignmentDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     loggerOrNop(deps.Logger),
		now:        clockOrDefault(deps.Clock),
	}
}

// Queue lists claimable tickets, oldest first.
func (s *AssignmentService) Queue(ctx context.Context, caller domain.Caller, page PageRequest) (*Page, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	filter := repository.TicketFilter{
		Statuses:  []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusReopened},
		Ascending: true,
	}
	return findPage(ctx, s.tickets, filter, page)
}

// MyAssignments lists the tickets the caller currently works on.
func (s *AssignmentService) MyAssignments(ctx context.Context, caller domain.Caller, page PageRequest) (*Page, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	filter := repository.TicketFilter{
		Statuses:   []domain.TicketStatus{domain.TicketStatusAssigned, domain.TicketStatusInProgress},
		AssigneeID: &caller.ID,
	}
	return findPage(ctx, s.tickets, filter, page)
}

// Claim assigns a queued ticket to the calling technician. technicianID may be
// empty; when given it must be the caller's own id. Losing a race yields
// ALREADY_CLAIMED and is never retried.
func (s *AssignmentService) Claim(ctx context.Context, caller domain.Caller, ticketID int64, technicianID string) (*domain.Ticket, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	technicianID = strings.TrimSpace(technicianID)
	if technicianID != "" && technicianID != caller.ID {
		return nil, apperrors.NewUnauthorized("technicians can only claim tickets for themselves")
	}

	ticket, err := s.tickets.Claim(ctx, ticketID, caller.ID, caller.DisplayName(), s.now())
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeAlreadyClaimed) {
			s.metrics.RecordClaim(observability.ClaimLost)
			s.logger.Info("claim lost", zap.Int64("ticket_id", ticketID), zap.String("technician_id", caller.ID))
		}
		return nil, err
	}
	s.metrics.RecordClaim(observability.ClaimWon)
	s.logger.Info("ticket claimed", zap.Int64("ticket_id", ticket.ID), zap.String("technician_id", caller.ID))

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketClaimed,
		TicketID: ticket.ID,
		Protocol: ticket.Protocol,
		Actor:    events.ActorFromCaller(caller),
		Payload: events.TicketTransitionPayload{
			NewStatus:  ticket.Status,
			AssigneeID: ticket.AssigneeID,
		},
	})
	return ticket, nil
}
