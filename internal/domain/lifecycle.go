package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/spec-kit/chamado-service/pkg/util/errorutil"
)

// TransitionAction names a lifecycle edge request.
type TransitionAction string

const (
	ActionClaim   TransitionAction = "claim"
	ActionStart   TransitionAction = "start"
	ActionResolve TransitionAction = "resolve"
	ActionReopen  TransitionAction = "reopen"
)

// NextStatus returns the status reached by applying action in from, or an
// INVALID_TRANSITION error when the edge does not exist.
func NextStatus(from TicketStatus, action TransitionAction) (TicketStatus, error) {
	switch from {
	case TicketStatusOpen, TicketStatusReopened:
		if action == ActionClaim {
			return TicketStatusAssigned, nil
		}
	case TicketStatusAssigned:
		if action == ActionStart {
			return TicketStatusInProgress, nil
		}
	case TicketStatusInProgress:
		if action == ActionResolve {
			return TicketStatusResolved, nil
		}
	case TicketStatusResolved:
		if action == ActionReopen {
			return TicketStatusReopened, nil
		}
	}
	return "", apperrors.NewInvalidTransition(string(from), string(action))
}

// Claim assigns a queued ticket to the technician. Tickets already held by
// someone report ALREADY_CLAIMED rather than an invalid transition.
func (t *Ticket) Claim(technicianID, technicianName string, at time.Time) error {
	if t.Status == TicketStatusAssigned || t.Status == TicketStatusInProgress {
		return apperrors.NewAlreadyClaimed(t.ID)
	}
	next, err := NextStatus(t.Status, ActionClaim)
	if err != nil {
		return err
	}
	id := technicianID
	name := technicianName
	t.Status = next
	t.AssigneeID = &id
	t.AssigneeName = &name
	t.LastTransitionAt = at
	return nil
}

// Start moves an assigned ticket into progress; only the assignee may do it.
func (t *Ticket) Start(callerID string, at time.Time) error {
	next, err := NextStatus(t.Status, ActionStart)
	if err != nil {
		return err
	}
	if !t.IsAssignee(callerID) {
		return apperrors.NewUnauthorized("only the assigned technician can start this ticket")
	}
	t.Status = next
	t.LastTransitionAt = at
	return nil
}

// Resolve closes the work with a reason and a corrected classification. The
// returned entry surfaces the reason in the ticket's history.
func (t *Ticket) Resolve(caller Caller, reason string, problemType ProblemType, at time.Time) (*HistoryEntry, error) {
	reason = strings.TrimSpace(reason)
	if err := ValidateReason("resolution_reason", reason); err != nil {
		return nil, err
	}
	if _, err := ParseProblemType(string(problemType)); err != nil {
		return nil, apperrors.NewValidationError("invalid problem type", map[string]any{"problem_type": problemType})
	}
	next, err := NextStatus(t.Status, ActionResolve)
	if err != nil {
		return nil, err
	}
	if !t.IsAssignee(caller.ID) {
		return nil, apperrors.NewUnauthorized("only the assigned technician can resolve this ticket")
	}
	t.Status = next
	t.ProblemType = problemType
	t.ResolutionReason = &reason
	t.LastTransitionAt = at
	return &HistoryEntry{
		TicketID:   t.ID,
		Kind:       HistoryKindResolution,
		AuthorID:   caller.ID,
		AuthorName: caller.DisplayName(),
		Body:       reason,
		AuthoredAt: at,
	}, nil
}

// Reopen returns a resolved ticket to the queue. The previous resolution
// reason is kept. A non-blank note becomes a history entry.
func (t *Ticket) Reopen(caller Caller, note string, at time.Time) (*HistoryEntry, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.NewUnauthorized("only administrators can reopen tickets")
	}
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > MaxReasonLength {
		return nil, apperrors.NewValidationError("note too long", map[string]any{"max": MaxReasonLength})
	}
	next, err := NextStatus(t.Status, ActionReopen)
	if err != nil {
		return nil, err
	}
	t.Status = next
	t.AssigneeID = nil
	t.AssigneeName = nil
	t.LastTransitionAt = at
	if note == "" {
		return nil, nil
	}
	return &HistoryEntry{
		TicketID:   t.ID,
		Kind:       HistoryKindReopenNote,
		AuthorID:   caller.ID,
		AuthorName: caller.DisplayName(),
		Body:       note,
		AuthoredAt: at,
	}, nil
}

// ValidateReason checks a free-text reason is present and within bounds.
func ValidateReason(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.NewValidationError(field+" required", map[string]any{"field": field})
	}
	if utf8.RuneCountInString(value) > MaxReasonLength {
		return apperrors.NewValidationError(field+" too long", map[string]any{"field": field, "max": MaxReasonLength})
	}
	return nil
}
