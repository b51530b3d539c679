package events

import (
	"time"

	"github.com/spec-kit/chamado-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketClaimed       EventType = "ticket_claimed"
	EventTicketStarted       EventType = "ticket_started"
	EventTicketResolved      EventType = "ticket_resolved"
	EventTicketReopened      EventType = "ticket_reopened"
	EventTicketFollowUpAdded EventType = "ticket_follow_up_added"
)

// QueueEvents are the events that change the set of claimable tickets.
var QueueEvents = []EventType{
	EventTicketCreated,
	EventTicketClaimed,
	EventTicketReopened,
}

// Actor identifies who triggered an event.
type Actor struct {
	ID   string      `json:"id"`
	Name string      `json:"name,omitempty"`
	Role domain.Role `json:"role"`
}

// ActorFromCaller converts a caller into event metadata.
func ActorFromCaller(caller domain.Caller) Actor {
	return Actor{ID: caller.ID, Name: caller.Name, Role: caller.Role}
}

// Event represents a domain event emitted by services after a committed change.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  int64     `json:"ticket_id"`
	Protocol  string    `json:"protocol"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Secretariat       string             `json:"secretariat"`
	DestinationSector string             `json:"destination_sector"`
	ProblemType       domain.ProblemType `json:"problem_type"`
}

// TicketTransitionPayload describes a lifecycle edge taken by a ticket.
type TicketTransitionPayload struct {
	OldStatus  domain.TicketStatus `json:"old_status,omitempty"`
	NewStatus  domain.TicketStatus `json:"new_status"`
	AssigneeID *string             `json:"assignee_id,omitempty"`
	Note       string              `json:"note,omitempty"`
}

// TicketFollowUpAddedPayload payload.
type TicketFollowUpAddedPayload struct {
	EntryID     int64                   `json:"entry_id"`
	Seq         int                     `json:"seq"`
	Kind        domain.HistoryEntryKind `json:"kind"`
	BodyPreview string                  `json:"body_preview"`
}
