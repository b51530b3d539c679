package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/chamado-service/internal/domain"
	"github.com/spec-kit/chamado-service/internal/events"
	"github.com/spec-kit/chamado-service/internal/repository"
	apperrors "github.com/spec-kit/chamado-service/pkg/util/errorutil"
)

// TicketService coordinates ticket creation, lifecycle transitions, follow-ups
// and listings.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.HistoryRepository
	sequencer  repository.Sequencer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.HistoryRepository
	Sequencer   repository.Sequencer
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Secretariat       string
	OriginSector      string
	DestinationSector string
	ProblemType       string
	OpeningReason     string
}

// ResolveInput carries the closing reason and the corrected classification.
type ResolveInput struct {
	Reason      string
	ProblemType string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		sequencer:  deps.Sequencer,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		now:        clockOrDefault(deps.Clock),
	}
}

// Create opens a ticket on behalf of the caller.
func (s *TicketService) Create(ctx context.Context, caller domain.Caller, input TicketCreateInput) (*domain.Ticket, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	ticket, err := validateCreateInput(input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	scope := repository.ProtocolScope(now)
	number, err := s.sequencer.Next(ctx, scope)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Protocol = repository.FormatProtocol(scope, number)
	ticket.RequesterID = caller.ID
	ticket.RequesterName = caller.DisplayName()
	ticket.Status = domain.TicketStatusOpen
	ticket.CreatedAt = now
	ticket.LastTransitionAt = now

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.logger.Info("ticket created",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("protocol", ticket.Protocol),
		zap.String("requester_id", ticket.RequesterID))
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Protocol: ticket.Protocol,
		Actor:    events.ActorFromCaller(caller),
		Payload: events.TicketCreatedPayload{
			Secretariat:       ticket.Secretariat,
			DestinationSector: ticket.DestinationSector,
			ProblemType:       ticket.ProblemType,
		},
	})
	return ticket, nil
}

// Get returns a ticket the caller may see: staff, its requester or its assignee.
func (s *TicketService) Get(ctx context.Context, caller domain.Caller, ticketID int64) (*domain.Ticket, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !canView(caller, ticket) {
		return nil, apperrors.NewUnauthorized("ticket belongs to another requester")
	}
	return ticket, nil
}

// History returns the ticket and its follow-up log in append order.
func (s *TicketService) History(ctx context.Context, caller domain.Caller, ticketID int64) (*domain.Ticket, []domain.HistoryEntry, error) {
	ticket, err := s.Get(ctx, caller, ticketID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, entries, nil
}

// AddFollowUp appends a comment to the ticket's history. Any caller who may
// view the ticket may comment, whatever its status.
func (s *TicketService) AddFollowUp(ctx context.Context, caller domain.Caller, ticketID int64, body string) (*domain.HistoryEntry, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	entry, err := domain.NewFollowUp(ticketID, caller, body, s.now())
	if err != nil {
		return nil, err
	}
	ticket, err := s.Get(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.history.Append(ctx, entry); err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketFollowUpAdded,
		TicketID: ticket.ID,
		Protocol: ticket.Protocol,
		Actor:    events.ActorFromCaller(caller),
		Payload: events.TicketFollowUpAddedPayload{
			EntryID:     entry.ID,
			Seq:         entry.Seq,
			Kind:        entry.Kind,
			BodyPreview: stringPreview(entry.Body, 120),
		},
	})
	return entry, nil
}

// Start moves an assigned ticket into progress.
func (s *TicketService) Start(ctx context.Context, caller domain.Caller, ticketID int64) (*domain.Ticket, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	var previous domain.TicketStatus
	ticket, err := s.tickets.Mutate(ctx, ticketID, func(ticket *domain.Ticket) (*domain.HistoryEntry, error) {
		previous = ticket.Status
		return nil, ticket.Start(caller.ID, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.publishTransition(ctx, caller, ticket, events.EventTicketStarted, previous, "")
	return ticket, nil
}

// Resolve closes the work with a reason and records it in the history.
func (s *TicketService) Resolve(ctx context.Context, caller domain.Caller, ticketID int64, input ResolveInput) (*domain.Ticket, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(input.Reason)
	if err := domain.ValidateReason("resolutionReason", reason); err != nil {
		return nil, err
	}
	problemType, err := domain.ParseProblemType(input.ProblemType)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid problem type", map[string]any{"problemType": input.ProblemType})
	}

	var previous domain.TicketStatus
	ticket, err := s.tickets.Mutate(ctx, ticketID, func(ticket *domain.Ticket) (*domain.HistoryEntry, error) {
		previous = ticket.Status
		return ticket.Resolve(caller, reason, problemType, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("ticket resolved",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("assignee_id", caller.ID),
		zap.String("problem_type", string(problemType)))
	s.publishTransition(ctx, caller, ticket, events.EventTicketResolved, previous, "")
	return ticket, nil
}

// Reopen returns a resolved ticket to the queue. Administrators only.
func (s *TicketService) Reopen(ctx context.Context, caller domain.Caller, ticketID int64, note string) (*domain.Ticket, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		return nil, apperrors.NewUnauthorized("only administrators can reopen tickets")
	}
	if utf8.RuneCountInString(strings.TrimSpace(note)) > domain.MaxReasonLength {
		return nil, apperrors.NewValidationError("note too long", map[string]any{"field": "note", "max": domain.MaxReasonLength})
	}

	var previous domain.TicketStatus
	ticket, err := s.tickets.Mutate(ctx, ticketID, func(ticket *domain.Ticket) (*domain.HistoryEntry, error) {
		previous = ticket.Status
		return ticket.Reopen(caller, note, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("ticket reopened", zap.Int64("ticket_id", ticket.ID), zap.String("admin_id", caller.ID))
	s.publishTransition(ctx, caller, ticket, events.EventTicketReopened, previous, strings.TrimSpace(note))
	return ticket, nil
}

// Find lists every ticket matching query. Staff only.
func (s *TicketService) Find(ctx context.Context, caller domain.Caller, query TicketQuery, page PageRequest) (*Page, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	filter, err := query.toFilter()
	if err != nil {
		return nil, err
	}
	return findPage(ctx, s.tickets, filter, page)
}

// FindMine lists the caller's own tickets. The requester criterion is fixed to
// the caller and cannot be overridden by the query.
func (s *TicketService) FindMine(ctx context.Context, caller domain.Caller, query TicketQuery, page PageRequest) (*Page, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	query.Requester = ""
	filter, err := query.toFilter()
	if err != nil {
		return nil, err
	}
	filter.RequesterID = &caller.ID
	return findPage(ctx, s.tickets, filter, page)
}

func (s *TicketService) publishTransition(ctx context.Context, caller domain.Caller, ticket *domain.Ticket, eventType events.EventType, previous domain.TicketStatus, note string) {
	publish(ctx, s.dispatcher, events.Event{
		Type:     eventType,
		TicketID: ticket.ID,
		Protocol: ticket.Protocol,
		Actor:    events.ActorFromCaller(caller),
		Payload: events.TicketTransitionPayload{
			OldStatus:  previous,
			NewStatus:  ticket.Status,
			AssigneeID: ticket.AssigneeID,
			Note:       note,
		},
	})
}

func validateCreateInput(input TicketCreateInput) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		Secretariat:       strings.TrimSpace(input.Secretariat),
		OriginSector:      strings.TrimSpace(input.OriginSector),
		DestinationSector: strings.TrimSpace(input.DestinationSector),
		OpeningReason:     strings.TrimSpace(input.OpeningReason),
	}
	fields := []struct {
		name  string
		value string
	}{
		{"secretariat", ticket.Secretariat},
		{"originSector", ticket.OriginSector},
		{"destinationSector", ticket.DestinationSector},
	}
	for _, field := range fields {
		if field.value == "" {
			return nil, apperrors.NewValidationError(field.name+" required", map[string]any{"field": field.name})
		}
		if utf8.RuneCountInString(field.value) > domain.MaxSectorLength {
			return nil, apperrors.NewValidationError(field.name+" too long", map[string]any{"field": field.name, "max": domain.MaxSectorLength})
		}
	}
	problemType, err := domain.ParseProblemType(input.ProblemType)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid problem type", map[string]any{"problemType": input.ProblemType})
	}
	ticket.ProblemType = problemType
	if err := domain.ValidateReason("openingReason", ticket.OpeningReason); err != nil {
		return nil, err
	}
	return ticket, nil
}

func canView(caller domain.Caller, ticket *domain.Ticket) bool {
	return caller.IsStaff() || ticket.RequesterID == caller.ID || ticket.IsAssignee(caller.ID)
}
