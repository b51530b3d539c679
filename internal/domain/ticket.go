package domain

import (
	"fmt"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusReopened   TicketStatus = "REOPENED"
)

// TicketStatuses lists every status in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusAssigned,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusReopened,
}

// ParseTicketStatus accepts the exact enum spelling, case-insensitively.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	candidate := TicketStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, status := range TicketStatuses {
		if status == candidate {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown ticket status %q", raw)
}

// Claimable reports whether a ticket in this status sits in the assignment queue.
func (s TicketStatus) Claimable() bool {
	switch s {
	case TicketStatusOpen, TicketStatusReopened:
		return true
	case TicketStatusAssigned, TicketStatusInProgress, TicketStatusResolved:
		return false
	}
	return false
}

// HoldsAssignment reports whether a ticket in this status must carry an assignee.
func (s TicketStatus) HoldsAssignment() bool {
	switch s {
	case TicketStatusAssigned, TicketStatusInProgress, TicketStatusResolved:
		return true
	case TicketStatusOpen, TicketStatusReopened:
		return false
	}
	return false
}

// ProblemType classifies the reported problem.
type ProblemType string

const (
	ProblemTypeSoftware ProblemType = "SOFTWARE"
	ProblemTypeHardware ProblemType = "HARDWARE"
	ProblemTypeNetwork  ProblemType = "NETWORK"
	ProblemTypeInternet ProblemType = "INTERNET"
)

// ProblemTypes lists the accepted classifications.
var ProblemTypes = []ProblemType{
	ProblemTypeSoftware,
	ProblemTypeHardware,
	ProblemTypeNetwork,
	ProblemTypeInternet,
}

// ParseProblemType validates a classification string.
func ParseProblemType(raw string) (ProblemType, error) {
	candidate := ProblemType(strings.ToUpper(strings.TrimSpace(raw)))
	for _, pt := range ProblemTypes {
		if pt == candidate {
			return pt, nil
		}
	}
	return "", fmt.Errorf("unknown problem type %q", raw)
}

// Text limits enforced on free-text fields.
const (
	MaxReasonLength = 255
	MaxSectorLength = 100
)

// Ticket is the aggregate for reported work ("chamado").
type Ticket struct {
	ID                int64
	Protocol          string
	RequesterID       string
	RequesterName     string
	Secretariat       string
	OriginSector      string
	DestinationSector string
	ProblemType       ProblemType
	OpeningReason     string
	Status            TicketStatus
	AssigneeID        *string
	AssigneeName      *string
	ResolutionReason  *string
	Version           int64
	CreatedAt         time.Time
	LastTransitionAt  time.Time
}

// Clone returns a deep copy so callers never share pointer fields with a store.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	clone := *t
	clone.AssigneeID = cloneString(t.AssigneeID)
	clone.AssigneeName = cloneString(t.AssigneeName)
	clone.ResolutionReason = cloneString(t.ResolutionReason)
	return &clone
}

// IsAssignee reports whether the caller id currently owns the ticket.
func (t *Ticket) IsAssignee(callerID string) bool {
	return t.AssigneeID != nil && *t.AssigneeID == callerID
}

// CheckInvariants verifies that the assignee is present exactly in the assignment-holding states.
func (t *Ticket) CheckInvariants() error {
	hasAssignee := t.AssigneeID != nil
	if hasAssignee != t.Status.HoldsAssignment() {
		return fmt.Errorf("ticket %d: status %s with assignee present=%t", t.ID, t.Status, hasAssignee)
	}
	if t.Status == TicketStatusResolved && t.ResolutionReason == nil {
		return fmt.Errorf("ticket %d: resolved without resolution reason", t.ID)
	}
	return nil
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
