package dto

import (
	"time"

	"github.com/spec-kit/chamado-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Secretariat       string `json:"secretariat"`
	OriginSector      string `json:"originSector"`
	DestinationSector string `json:"destinationSector"`
	ProblemType       string `json:"problemType"`
	OpeningReason     string `json:"openingReason"`
}

// ClaimRequest payload. An empty TechnicianID claims for the caller.
type ClaimRequest struct {
	TechnicianID string `json:"technicianId"`
}

// ResolveRequest payload.
type ResolveRequest struct {
	ResolutionReason string `json:"resolutionReason"`
	ProblemType      string `json:"problemType"`
}

// ReopenRequest payload.
type ReopenRequest struct {
	Note string `json:"note"`
}

// FollowUpRequest payload.
type FollowUpRequest struct {
	Body string `json:"body"`
}

// TicketResponse is the full projection of a ticket.
type TicketResponse struct {
	ID                int64               `json:"id"`
	Protocol          string              `json:"protocol"`
	RequesterID       string              `json:"requesterId"`
	RequesterName     string              `json:"requesterName"`
	Secretariat       string              `json:"secretariat"`
	OriginSector      string              `json:"originSector"`
	DestinationSector string              `json:"destinationSector"`
	ProblemType       domain.ProblemType  `json:"problemType"`
	OpeningReason     string              `json:"openingReason"`
	Status            domain.TicketStatus `json:"status"`
	AssigneeID        *string             `json:"assigneeId"`
	AssigneeName      *string             `json:"assigneeName"`
	ResolutionReason  *string             `json:"resolutionReason"`
	Version           int64               `json:"version"`
	CreatedAt         time.Time           `json:"createdAt"`
	LastTransitionAt  time.Time           `json:"lastTransitionAt"`
}

// TicketPageResponse mirrors the page shape the web client consumes.
type TicketPageResponse struct {
	Content       []TicketResponse `json:"content"`
	TotalPages    int              `json:"totalPages"`
	Number        int              `json:"number"`
	Size          int              `json:"size"`
	TotalElements int              `json:"totalElements"`
}

// HistoryEntryResponse is one follow-up or transition note.
type HistoryEntryResponse struct {
	ID         int64                   `json:"id"`
	Seq        int                     `json:"seq"`
	Kind       domain.HistoryEntryKind `json:"kind"`
	Author     string                  `json:"author"`
	AuthorName string                  `json:"authorName"`
	AuthoredAt time.Time               `json:"authoredAt"`
	Body       string                  `json:"body"`
}

// TicketHistoryResponse is a ticket followed by its log, oldest first.
type TicketHistoryResponse struct {
	TicketResponse
	FollowUps []HistoryEntryResponse `json:"followUps"`
}
