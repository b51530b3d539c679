package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/chamado-service/internal/domain"
	"github.com/spec-kit/chamado-service/internal/events"
	"github.com/spec-kit/chamado-service/internal/observability"
	"github.com/spec-kit/chamado-service/internal/repository"
	"github.com/spec-kit/chamado-service/internal/service"
)

var (
	requester = domain.Caller{ID: "E100", Name: "Ana Lima", Role: domain.RoleCommon}
	otherUser = domain.Caller{ID: "E200", Name: "Bruno Reis", Role: domain.RoleCommon}
	techOne   = domain.Caller{ID: "T1", Name: "Carla Tech", Role: domain.RoleTechnician}
	techTwo   = domain.Caller{ID: "T2", Name: "Diego Tech", Role: domain.RoleTechnician}
	admin     = domain.Caller{ID: "A1", Name: "Eva Admin", Role: domain.RoleAdmin}
)

// steppingClock advances one minute per reading.
type steppingClock struct {
	mu      sync.Mutex
	current time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(time.Minute)
	return c.current
}

type fixture struct {
	store       *repository.MemoryStore
	tickets     *service.TicketService
	assignments *service.AssignmentService
	dashboard   *service.DashboardService
	metrics     *observability.Metrics
	clock       *steppingClock
	published   *recordedEvents
}

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]events.EventType, 0, len(r.events))
	for _, event := range r.events {
		types = append(types, event.Type)
	}
	return types
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := repository.NewMemoryStore()
	clock := &steppingClock{current: time.Date(2026, 4, 6, 8, 0, 0, 0, time.UTC)}
	dispatcher := events.NewInMemoryDispatcher(nil)
	recorded := &recordedEvents{}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketClaimed,
		events.EventTicketStarted,
		events.EventTicketResolved,
		events.EventTicketReopened,
		events.EventTicketFollowUpAdded,
	} {
		dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			recorded.mu.Lock()
			defer recorded.mu.Unlock()
			recorded.events = append(recorded.events, event)
			return nil
		})
	}
	metrics := observability.NewMetrics()

	return &fixture{
		store: store,
		tickets: service.NewTicketService(service.TicketDependencies{
			TicketRepo:  store,
			HistoryRepo: store,
			Sequencer:   store,
			Dispatcher:  dispatcher,
			Clock:       clock.Now,
		}),
		assignments: service.NewAssignmentService(service.AssignmentDependencies{
			TicketRepo: store,
			Dispatcher: dispatcher,
			Metrics:    metrics,
			Clock:      clock.Now,
		}),
		dashboard: service.NewDashboardService(store),
		metrics:   metrics,
		clock:     clock,
		published: recorded,
	}
}

func validInput() service.TicketCreateInput {
	return service.TicketCreateInput{
		Secretariat:       "SEMED",
		OriginSector:      "Protocolo",
		DestinationSector: "TI",
		ProblemType:       "HARDWARE",
		OpeningReason:     "Printer does not turn on",
	}
}

func (f *fixture) create(t *testing.T, caller domain.Caller, mutate func(*service.TicketCreateInput)) *domain.Ticket {
	t.Helper()
	input := validInput()
	if mutate != nil {
		mutate(&input)
	}
	ticket, err := f.tickets.Create(context.Background(), caller, input)
	require.NoError(t, err)
	return ticket
}

// resolve drives a fresh ticket through claim, start and resolve.
func (f *fixture) resolve(t *testing.T, caller, technician domain.Caller, mutate func(*service.TicketCreateInput)) *domain.Ticket {
	t.Helper()
	ctx := context.Background()
	ticket := f.create(t, caller, mutate)
	_, err := f.assignments.Claim(ctx, technician, ticket.ID, "")
	require.NoError(t, err)
	_, err = f.tickets.Start(ctx, technician, ticket.ID)
	require.NoError(t, err)
	resolved, err := f.tickets.Resolve(ctx, technician, ticket.ID, service.ResolveInput{Reason: "fixed", ProblemType: "HARDWARE"})
	require.NoError(t, err)
	return resolved
}
