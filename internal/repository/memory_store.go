package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spec-kit/chamado-service/internal/domain"
	apperrors "github.com/spec-kit/chamado-service/pkg/util/errorutil"
)

// memoryRecord holds one ticket and its history behind the ticket's own lock,
// so writes to different tickets do not contend.
type memoryRecord struct {
	mu      sync.Mutex
	ticket  domain.Ticket
	history []domain.HistoryEntry
}

// MemoryStore keeps tickets in process memory. It satisfies TicketRepository,
// HistoryRepository, StatsRepository and Sequencer with the same semantics as
// the postgres implementations.
type MemoryStore struct {
	mu            sync.RWMutex
	records       map[int64]*memoryRecord
	protocols     map[string]int64
	lastTicketID  int64
	lastHistoryID atomic.Int64

	counterMu sync.Mutex
	counters  map[string]int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:   make(map[int64]*memoryRecord),
		protocols: make(map[string]int64),
		counters:  make(map[string]int64),
	}
}

var (
	_ TicketRepository  = (*MemoryStore)(nil)
	_ HistoryRepository = (*MemoryStore)(nil)
	_ StatsRepository   = (*MemoryStore)(nil)
	_ Sequencer         = (*MemoryStore)(nil)
)

func (s *MemoryStore) Create(_ context.Context, ticket *domain.Ticket) error {
	if err := ticket.CheckInvariants(); err != nil {
		return apperrors.NewInternalError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.protocols[ticket.Protocol]; taken {
		return apperrors.NewInternalError(fmt.Errorf("duplicate protocol %s", ticket.Protocol))
	}
	s.lastTicketID++
	ticket.ID = s.lastTicketID
	s.protocols[ticket.Protocol] = ticket.ID
	ticket.Version = 1
	s.records[ticket.ID] = &memoryRecord{ticket: *ticket.Clone()}
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	record, err := s.record(id)
	if err != nil {
		return nil, err
	}
	record.mu.Lock()
	defer record.mu.Unlock()
	return record.ticket.Clone(), nil
}

func (s *MemoryStore) Claim(_ context.Context, id int64, technicianID, technicianName string, at time.Time) (*domain.Ticket, error) {
	record, err := s.record(id)
	if err != nil {
		return nil, err
	}
	record.mu.Lock()
	defer record.mu.Unlock()

	ticket := record.ticket.Clone()
	if err := ticket.Claim(technicianID, technicianName, at); err != nil {
		return nil, err
	}
	if err := s.commitLocked(record, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *MemoryStore) Mutate(_ context.Context, id int64, mutate MutationFunc) (*domain.Ticket, error) {
	record, err := s.record(id)
	if err != nil {
		return nil, err
	}
	record.mu.Lock()
	defer record.mu.Unlock()

	ticket := record.ticket.Clone()
	entry, err := mutate(ticket)
	if err != nil {
		return nil, err
	}
	if err := s.commitLocked(record, ticket); err != nil {
		return nil, err
	}
	if entry != nil {
		entry.TicketID = ticket.ID
		s.appendLocked(record, entry)
	}
	return ticket, nil
}

func (s *MemoryStore) Find(_ context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	matched := make([]domain.Ticket, 0)
	for _, ticket := range s.snapshot() {
		if filter.Matches(ticket) {
			matched = append(matched, *ticket)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return filter.Less(&matched[i], &matched[j])
	})

	total := len(matched)
	start := filter.Offset
	if start < 0 || start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && filter.Limit < end-start {
		end = start + filter.Limit
	}
	return matched[start:end], total, nil
}

func (s *MemoryStore) Append(_ context.Context, entry *domain.HistoryEntry) error {
	record, err := s.record(entry.TicketID)
	if err != nil {
		return err
	}
	record.mu.Lock()
	defer record.mu.Unlock()
	s.appendLocked(record, entry)
	return nil
}

func (s *MemoryStore) ListByTicket(_ context.Context, ticketID int64) ([]domain.HistoryEntry, error) {
	record, err := s.record(ticketID)
	if err != nil {
		return nil, err
	}
	record.mu.Lock()
	defer record.mu.Unlock()
	entries := make([]domain.HistoryEntry, len(record.history))
	copy(entries, record.history)
	return entries, nil
}

func (s *MemoryStore) Stats(_ context.Context, window domain.DateRange) (*domain.TicketStats, error) {
	stats := domain.NewTicketStats()
	for _, ticket := range s.snapshot() {
		if window.Contains(ticket.CreatedAt) {
			stats.Add(ticket)
		}
	}
	return stats, nil
}

func (s *MemoryStore) Next(_ context.Context, scope string) (int64, error) {
	s.counterMu.Lock()
	defer s.counterMu.Unlock()
	s.counters[scope]++
	return s.counters[scope], nil
}

func (s *MemoryStore) record(id int64) (*memoryRecord, error) {
	s.mu.RLock()
	record, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	return record, nil
}

// snapshot copies every ticket, each under its own lock.
func (s *MemoryStore) snapshot() []*domain.Ticket {
	s.mu.RLock()
	records := make([]*memoryRecord, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}
	s.mu.RUnlock()

	tickets := make([]*domain.Ticket, 0, len(records))
	for _, record := range records {
		record.mu.Lock()
		tickets = append(tickets, record.ticket.Clone())
		record.mu.Unlock()
	}
	return tickets
}

func (s *MemoryStore) commitLocked(record *memoryRecord, ticket *domain.Ticket) error {
	if err := ticket.CheckInvariants(); err != nil {
		return apperrors.NewInternalError(err)
	}
	ticket.Version = record.ticket.Version + 1
	record.ticket = *ticket.Clone()
	return nil
}

func (s *MemoryStore) appendLocked(record *memoryRecord, entry *domain.HistoryEntry) {
	if n := len(record.history); n > 0 {
		if last := record.history[n-1].AuthoredAt; entry.AuthoredAt.Before(last) {
			entry.AuthoredAt = last
		}
	}
	entry.Seq = len(record.history) + 1
	entry.ID = s.lastHistoryID.Add(1)
	record.history = append(record.history, *entry)
}
