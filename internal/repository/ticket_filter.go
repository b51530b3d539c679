package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/chamado-service/internal/domain"
)

// TicketFilter captures search parameters. Nil and empty fields are ignored;
// the rest are AND-combined.
type TicketFilter struct {
	Statuses      []domain.TicketStatus
	Secretariat   *string
	Sector        *string // origin or destination
	AssigneeID    *string
	RequesterID   *string // exact requester id
	Requester     *string // exact id or case-insensitive name substring
	CreatedFrom   *time.Time
	CreatedBefore *time.Time // exclusive
	Limit         int
	Offset        int
	Ascending     bool
}

// Matches reports whether ticket satisfies every predicate of the filter.
func (f TicketFilter) Matches(ticket *domain.Ticket) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, ticket.Status) {
		return false
	}
	if f.Secretariat != nil && ticket.Secretariat != *f.Secretariat {
		return false
	}
	if f.Sector != nil && ticket.OriginSector != *f.Sector && ticket.DestinationSector != *f.Sector {
		return false
	}
	if f.AssigneeID != nil && !ticket.IsAssignee(*f.AssigneeID) {
		return false
	}
	if f.RequesterID != nil && ticket.RequesterID != *f.RequesterID {
		return false
	}
	if f.Requester != nil {
		needle := strings.ToLower(*f.Requester)
		if ticket.RequesterID != *f.Requester && !strings.Contains(strings.ToLower(ticket.RequesterName), needle) {
			return false
		}
	}
	if f.CreatedFrom != nil && ticket.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedBefore != nil && !ticket.CreatedAt.Before(*f.CreatedBefore) {
		return false
	}
	return true
}

// Less orders tickets by creation time then id, descending unless Ascending.
func (f TicketFilter) Less(a, b *domain.Ticket) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		if f.Ascending {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	}
	if f.Ascending {
		return a.ID < b.ID
	}
	return a.ID > b.ID
}

func (f TicketFilter) orderBy() string {
	if f.Ascending {
		return "created_at ASC, id ASC"
	}
	return "created_at DESC, id DESC"
}

// whereClause renders the filter as a SQL predicate with positional arguments.
func (f TicketFilter) whereClause() (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(f.Statuses) > 0 {
		placeholders := make([]string, len(f.Statuses))
		for i, status := range f.Statuses {
			args = append(args, string(status))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if f.Secretariat != nil {
		args = append(args, *f.Secretariat)
		clauses = append(clauses, fmt.Sprintf("secretariat=$%d", len(args)))
	}
	if f.Sector != nil {
		args = append(args, *f.Sector)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(origin_sector=%s OR destination_sector=%s)", placeholder, placeholder))
	}
	if f.AssigneeID != nil {
		args = append(args, *f.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if f.RequesterID != nil {
		args = append(args, *f.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if f.Requester != nil {
		args = append(args, *f.Requester)
		exact := len(args)
		args = append(args, "%"+escapeLike(strings.ToLower(*f.Requester))+"%")
		clauses = append(clauses, fmt.Sprintf("(requester_id=$%d OR LOWER(requester_name) LIKE $%d)", exact, len(args)))
	}
	if f.CreatedFrom != nil {
		args = append(args, *f.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if f.CreatedBefore != nil {
		args = append(args, *f.CreatedBefore)
		clauses = append(clauses, fmt.Sprintf("created_at < $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}
