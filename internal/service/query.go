package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/spec-kit/chamado-service/internal/domain"
	"github.com/spec-kit/chamado-service/internal/repository"
	apperrors "github.com/spec-kit/chamado-service/pkg/util/errorutil"
)

// Paging defaults.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// TicketQuery is the typed filter accepted by the listing operations. Blank
// fields are ignored. Dates are calendar days; CreatedTo covers its whole day.
type TicketQuery struct {
	Status      *domain.TicketStatus
	Secretariat string
	Sector      string
	AssigneeID  string
	Requester   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PageRequest selects a zero-indexed page. A zero Size means DefaultPageSize.
type PageRequest struct {
	Page int
	Size int
}

// Page is one slice of an ordered result set.
type Page struct {
	Items         []domain.Ticket
	Number        int
	Size          int
	TotalElements int
	TotalPages    int
}

func (p PageRequest) normalize() (PageRequest, error) {
	if p.Page < 0 {
		return p, apperrors.NewValidationError("page must be >= 0", map[string]any{"page": p.Page})
	}
	if p.Size < 0 {
		return p, apperrors.NewValidationError("size must be >= 0", map[string]any{"size": p.Size})
	}
	if p.Size == 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p, nil
}

// toFilter validates the query and converts it to a store filter.
func (q TicketQuery) toFilter() (repository.TicketFilter, error) {
	var filter repository.TicketFilter
	if q.Status != nil {
		status, err := domain.ParseTicketStatus(string(*q.Status))
		if err != nil {
			return filter, apperrors.NewValidationError("invalid status", map[string]any{"status": *q.Status})
		}
		filter.Statuses = []domain.TicketStatus{status}
	}
	filter.Secretariat = nonBlank(q.Secretariat)
	filter.Sector = nonBlank(q.Sector)
	filter.AssigneeID = nonBlank(q.AssigneeID)
	filter.Requester = nonBlank(q.Requester)

	window := domain.DateRange{From: q.CreatedFrom, To: q.CreatedTo}
	if err := validateWindow(window); err != nil {
		return filter, err
	}
	if window.From != nil {
		from := domain.StartOfDay(*window.From)
		filter.CreatedFrom = &from
	}
	filter.CreatedBefore = window.EndExclusive()
	return filter, nil
}

func validateWindow(window domain.DateRange) error {
	if window.From != nil && window.To != nil && domain.StartOfDay(*window.From).After(domain.StartOfDay(*window.To)) {
		return apperrors.NewValidationError("from must not be after to", map[string]any{
			"from": window.From.UTC().Format(domain.DayLayout),
			"to":   window.To.UTC().Format(domain.DayLayout),
		})
	}
	return nil
}

// findPage runs filter against the store for the requested page.
func findPage(ctx context.Context, tickets repository.TicketRepository, filter repository.TicketFilter, request PageRequest) (*Page, error) {
	request, err := request.normalize()
	if err != nil {
		return nil, err
	}
	var (
		items []domain.Ticket
		total int
	)
	if request.Page > math.MaxInt/request.Size-1 {
		// No store can hold a page this far out; only the count is needed.
		filter.Limit = 1
		if _, total, err = tickets.Find(ctx, filter); err != nil {
			return nil, err
		}
	} else {
		filter.Limit = request.Size
		filter.Offset = request.Page * request.Size
		if items, total, err = tickets.Find(ctx, filter); err != nil {
			return nil, err
		}
	}
	if items == nil {
		items = []domain.Ticket{}
	}
	return &Page{
		Items:         items,
		Number:        request.Page,
		Size:          request.Size,
		TotalElements: total,
		TotalPages:    (total + request.Size - 1) / request.Size,
	}, nil
}

func nonBlank(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
