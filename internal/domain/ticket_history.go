package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/spec-kit/chamado-service/pkg/util/errorutil"
)

// HistoryEntryKind tells follow-up comments apart from notes carried by transitions.
type HistoryEntryKind string

const (
	HistoryKindFollowUp   HistoryEntryKind = "FOLLOW_UP"
	HistoryKindResolution HistoryEntryKind = "RESOLUTION"
	HistoryKindReopenNote HistoryEntryKind = "REOPEN_NOTE"
)

// HistoryEntry is an immutable entry in a ticket's log. Seq is the entry's
// 1-based position in that log.
type HistoryEntry struct {
	ID         int64
	TicketID   int64
	Seq        int
	Kind       HistoryEntryKind
	AuthorID   string
	AuthorName string
	Body       string
	AuthoredAt time.Time
}

// MaxFollowUpLength bounds the body of a follow-up comment.
const MaxFollowUpLength = 1000

// NewFollowUp builds a follow-up comment authored by caller.
func NewFollowUp(ticketID int64, author Caller, body string, at time.Time) (*HistoryEntry, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("body required", map[string]any{"field": "body"})
	}
	if utf8.RuneCountInString(body) > MaxFollowUpLength {
		return nil, apperrors.NewValidationError("body too long", map[string]any{"field": "body", "max": MaxFollowUpLength})
	}
	return &HistoryEntry{
		TicketID:   ticketID,
		Kind:       HistoryKindFollowUp,
		AuthorID:   author.ID,
		AuthorName: author.DisplayName(),
		Body:       body,
		AuthoredAt: at,
	}, nil
}
