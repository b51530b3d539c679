package service

import (
	"context"
	"sort"
	"time"

	"github.com/spec-kit/chamado-service/internal/domain"
	"github.com/spec-kit/chamado-service/internal/repository"
)

// DashboardService recomputes aggregate reporting from the ticket store on
// every call.
type DashboardService struct {
	stats repository.StatsRepository
}

// NewDashboardService creates the service.
func NewDashboardService(stats repository.StatsRepository) *DashboardService {
	return &DashboardService{stats: stats}
}

// StatusCount is the number of tickets in one status.
type StatusCount struct {
	Status domain.TicketStatus
	Count  int
}

// NamedCount is the number of tickets sharing one label.
type NamedCount struct {
	Name  string
	Count int
}

// DayCount is the number of tickets created on one UTC day.
type DayCount struct {
	Day   time.Time
	Count int
}

// Dashboard holds the ordered aggregates of one window.
type Dashboard struct {
	Total         int
	Open          int // OPEN + REOPENED
	InProgress    int // ASSIGNED + IN_PROGRESS
	Resolved      int
	ByStatus      []StatusCount
	BySector      []NamedCount
	Ranking       []domain.TechnicianCount
	ByDay         []DayCount
	ByProblemType []NamedCount
}

// Compute aggregates the tickets created inside window. Staff only.
func (s *DashboardService) Compute(ctx context.Context, caller domain.Caller, window domain.DateRange) (*Dashboard, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	if err := validateWindow(window); err != nil {
		return nil, err
	}
	stats, err := s.stats.Stats(ctx, window)
	if err != nil {
		return nil, err
	}
	return buildDashboard(stats), nil
}

func buildDashboard(stats *domain.TicketStats) *Dashboard {
	dashboard := &Dashboard{
		Total:      stats.Total,
		Open:       stats.ByStatus[domain.TicketStatusOpen] + stats.ByStatus[domain.TicketStatusReopened],
		InProgress: stats.ByStatus[domain.TicketStatusAssigned] + stats.ByStatus[domain.TicketStatusInProgress],
		Resolved:   stats.ByStatus[domain.TicketStatusResolved],
	}

	dashboard.ByStatus = make([]StatusCount, 0, len(domain.TicketStatuses))
	for _, status := range domain.TicketStatuses {
		dashboard.ByStatus = append(dashboard.ByStatus, StatusCount{Status: status, Count: stats.ByStatus[status]})
	}

	dashboard.BySector = rankNamed(stats.BySector)

	byProblemType := make(map[string]int, len(stats.ByProblemType))
	for problemType, count := range stats.ByProblemType {
		byProblemType[string(problemType)] = count
	}
	dashboard.ByProblemType = rankNamed(byProblemType)

	dashboard.Ranking = make([]domain.TechnicianCount, 0, len(stats.ResolvedBy))
	for _, technician := range stats.ResolvedBy {
		dashboard.Ranking = append(dashboard.Ranking, technician)
	}
	sort.Slice(dashboard.Ranking, func(i, j int) bool {
		a, b := dashboard.Ranking[i], dashboard.Ranking[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.TechnicianID < b.TechnicianID
	})

	dashboard.ByDay = make([]DayCount, 0, len(stats.ByDay))
	for day, count := range stats.ByDay {
		parsed, err := time.Parse(domain.DayLayout, day)
		if err != nil {
			continue
		}
		dashboard.ByDay = append(dashboard.ByDay, DayCount{Day: parsed, Count: count})
	}
	sort.Slice(dashboard.ByDay, func(i, j int) bool {
		return dashboard.ByDay[i].Day.Before(dashboard.ByDay[j].Day)
	})
	return dashboard
}

// rankNamed orders counts descending, ties broken by name.
func rankNamed(counts map[string]int) []NamedCount {
	ranked := make([]NamedCount, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, NamedCount{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}
