package domain

import "time"

// DayLayout is the storage/bucketing format for calendar days.
const DayLayout = "2006-01-02"

// DateRange is an inclusive window of calendar days (UTC). Nil bounds are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether instant falls inside the window.
func (r DateRange) Contains(instant time.Time) bool {
	if r.From != nil && instant.Before(StartOfDay(*r.From)) {
		return false
	}
	if end := r.EndExclusive(); end != nil && !instant.Before(*end) {
		return false
	}
	return true
}

// EndExclusive returns the first instant after the window, or nil when open-ended.
func (r DateRange) EndExclusive() *time.Time {
	if r.To == nil {
		return nil
	}
	end := StartOfDay(*r.To).AddDate(0, 0, 1)
	return &end
}

// StartOfDay truncates to midnight UTC.
func StartOfDay(instant time.Time) time.Time {
	utc := instant.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

// TechnicianCount is one technician's number of resolved tickets.
type TechnicianCount struct {
	TechnicianID   string
	TechnicianName string
	Count          int
}

// TicketStats holds raw grouped counts over a window; the dashboard orders them.
type TicketStats struct {
	Total         int
	ByStatus      map[TicketStatus]int
	BySector      map[string]int
	ByProblemType map[ProblemType]int
	ByDay         map[string]int
	ResolvedBy    map[string]TechnicianCount
}

// NewTicketStats returns stats with initialised maps.
func NewTicketStats() *TicketStats {
	return &TicketStats{
		ByStatus:      make(map[TicketStatus]int),
		BySector:      make(map[string]int),
		ByProblemType: make(map[ProblemType]int),
		ByDay:         make(map[string]int),
		ResolvedBy:    make(map[string]TechnicianCount),
	}
}

// Add folds one ticket into the counts.
func (s *TicketStats) Add(ticket *Ticket) {
	s.AddGroup(StatsGroup{
		Status:       ticket.Status,
		Sector:       ticket.DestinationSector,
		ProblemType:  ticket.ProblemType,
		Day:          ticket.CreatedAt.UTC().Format(DayLayout),
		AssigneeID:   ticket.AssigneeID,
		AssigneeName: ticket.AssigneeName,
	}, 1)
}

// StatsGroup is one combination of the grouped dimensions.
type StatsGroup struct {
	Status       TicketStatus
	Sector       string
	ProblemType  ProblemType
	Day          string
	AssigneeID   *string
	AssigneeName *string
}

// AddGroup folds count tickets sharing the same dimensions into the counts.
// Only RESOLVED tickets feed the technician ranking.
func (s *TicketStats) AddGroup(group StatsGroup, count int) {
	if count <= 0 {
		return
	}
	s.Total += count
	s.ByStatus[group.Status] += count
	s.BySector[group.Sector] += count
	s.ByProblemType[group.ProblemType] += count
	s.ByDay[group.Day] += count
	if group.Status != TicketStatusResolved || group.AssigneeID == nil {
		return
	}
	entry := s.ResolvedBy[*group.AssigneeID]
	entry.TechnicianID = *group.AssigneeID
	if group.AssigneeName != nil {
		entry.TechnicianName = *group.AssigneeName
	}
	entry.Count += count
	s.ResolvedBy[*group.AssigneeID] = entry
}
