package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/chamado-service/internal/domain"
	apperrors "github.com/spec-kit/chamado-service/pkg/util/errorutil"
)

var (
	testTime   = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	technician = domain.Caller{ID: "T100", Name: "Ana Tech", Role: domain.RoleTechnician}
	admin      = domain.Caller{ID: "A1", Name: "Root", Role: domain.RoleAdmin}
)

func TestNextStatus(t *testing.T) {
	t.Parallel()

	allowed := map[domain.TicketStatus]map[domain.TransitionAction]domain.TicketStatus{
		domain.TicketStatusOpen:       {domain.ActionClaim: domain.TicketStatusAssigned},
		domain.TicketStatusReopened:   {domain.ActionClaim: domain.TicketStatusAssigned},
		domain.TicketStatusAssigned:   {domain.ActionStart: domain.TicketStatusInProgress},
		domain.TicketStatusInProgress: {domain.ActionResolve: domain.TicketStatusResolved},
		domain.TicketStatusResolved:   {domain.ActionReopen: domain.TicketStatusReopened},
	}
	actions := []domain.TransitionAction{domain.ActionClaim, domain.ActionStart, domain.ActionResolve, domain.ActionReopen}

	for _, from := range domain.TicketStatuses {
		for _, action := range actions {
			next, err := domain.NextStatus(from, action)
			want, ok := allowed[from][action]
			if ok {
				require.NoError(t, err, "%s --%s--> should be allowed", from, action)
				assert.Equal(t, want, next)
				continue
			}
			require.Error(t, err, "%s --%s--> should be rejected", from, action)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
		}
	}
}

func openTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:                1,
		Protocol:          "20260314-0001",
		RequesterID:       "R1",
		RequesterName:     "Requester",
		DestinationSector: "TI",
		ProblemType:       domain.ProblemTypeHardware,
		OpeningReason:     "printer down",
		Status:            domain.TicketStatusOpen,
		CreatedAt:         testTime,
		LastTransitionAt:  testTime,
	}
}

func TestTicketFullLifecycleKeepsInvariants(t *testing.T) {
	t.Parallel()

	ticket := openTicket()
	require.NoError(t, ticket.CheckInvariants())

	require.NoError(t, ticket.Claim(technician.ID, technician.Name, testTime.Add(time.Minute)))
	assert.Equal(t, domain.TicketStatusAssigned, ticket.Status)
	require.NotNil(t, ticket.AssigneeID)
	assert.Equal(t, technician.ID, *ticket.AssigneeID)
	require.NoError(t, ticket.CheckInvariants())

	require.NoError(t, ticket.Start(technician.ID, testTime.Add(2*time.Minute)))
	assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
	require.NoError(t, ticket.CheckInvariants())

	entry, err := ticket.Resolve(technician, "cable replaced", domain.ProblemTypeNetwork, testTime.Add(3*time.Minute))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, domain.HistoryKindResolution, entry.Kind)
	assert.Equal(t, "cable replaced", entry.Body)
	assert.Equal(t, domain.ProblemTypeNetwork, ticket.ProblemType, "resolution re-classifies the problem")
	require.NoError(t, ticket.CheckInvariants())

	note, err := ticket.Reopen(admin, "", testTime.Add(4*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, note, "blank note produces no history entry")
	assert.Equal(t, domain.TicketStatusReopened, ticket.Status)
	assert.Nil(t, ticket.AssigneeID)
	assert.Nil(t, ticket.AssigneeName)
	require.NotNil(t, ticket.ResolutionReason, "resolution reason survives reopening")
	assert.Equal(t, "cable replaced", *ticket.ResolutionReason)
	assert.Equal(t, testTime.Add(4*time.Minute), ticket.LastTransitionAt)
	require.NoError(t, ticket.CheckInvariants())

	require.NoError(t, ticket.Claim("T200", "Bruno", testTime.Add(5*time.Minute)))
	assert.Equal(t, "T200", *ticket.AssigneeID)
}

func TestClaimOnHeldTicketReportsAlreadyClaimed(t *testing.T) {
	t.Parallel()

	for _, status := range []domain.TicketStatus{domain.TicketStatusAssigned, domain.TicketStatusInProgress} {
		ticket := openTicket()
		require.NoError(t, ticket.Claim(technician.ID, technician.Name, testTime))
		ticket.Status = status
		before := *ticket

		err := ticket.Claim("T200", "Bruno", testTime.Add(time.Minute))
		assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyClaimed), "status %s", status)
		assert.Equal(t, before, *ticket, "failed claim must not change the ticket")
	}
}

func TestClaimResolvedTicketIsInvalidTransition(t *testing.T) {
	t.Parallel()

	ticket := openTicket()
	reason := "done"
	ticket.Status = domain.TicketStatusResolved
	ticket.AssigneeID = &technician.ID
	ticket.ResolutionReason = &reason

	err := ticket.Claim("T200", "Bruno", testTime)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
}

func TestIllegalTransitionsLeaveTicketUnchanged(t *testing.T) {
	t.Parallel()

	t.Run("resolve open ticket", func(t *testing.T) {
		t.Parallel()

		ticket := openTicket()
		before := *ticket
		_, err := ticket.Resolve(technician, "fixed", domain.ProblemTypeSoftware, testTime)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
		assert.Equal(t, before, *ticket)
	})

	t.Run("start resolved ticket", func(t *testing.T) {
		t.Parallel()

		ticket := openTicket()
		require.NoError(t, ticket.Claim(technician.ID, technician.Name, testTime))
		require.NoError(t, ticket.Start(technician.ID, testTime))
		_, err := ticket.Resolve(technician, "fixed", domain.ProblemTypeSoftware, testTime)
		require.NoError(t, err)
		before := ticket.Clone()

		err = ticket.Start(technician.ID, testTime.Add(time.Hour))
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
		assert.Equal(t, *before, *ticket)
	})
}

func TestAssigneeOnlyTransitions(t *testing.T) {
	t.Parallel()

	ticket := openTicket()
	require.NoError(t, ticket.Claim(technician.ID, technician.Name, testTime))

	err := ticket.Start("intruder", testTime)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	assert.Equal(t, domain.TicketStatusAssigned, ticket.Status)

	require.NoError(t, ticket.Start(technician.ID, testTime))
	_, err = ticket.Resolve(admin, "fixed", domain.ProblemTypeSoftware, testTime)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized), "admins cannot resolve someone else's work")
	assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
}

func TestResolveValidatesInput(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		reason      string
		problemType domain.ProblemType
	}{
		{name: "blank reason", reason: "   ", problemType: domain.ProblemTypeSoftware},
		{name: "reason too long", reason: string(make([]rune, 256)), problemType: domain.ProblemTypeSoftware},
		{name: "unknown problem type", reason: "fixed", problemType: "PLUMBING"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			ticket := openTicket()
			require.NoError(t, ticket.Claim(technician.ID, technician.Name, testTime))
			require.NoError(t, ticket.Start(technician.ID, testTime))

			_, err := ticket.Resolve(technician, testCase.reason, testCase.problemType, testTime)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
			assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
		})
	}
}

func TestReopenRequiresAdmin(t *testing.T) {
	t.Parallel()

	ticket := openTicket()
	reason := "done"
	ticket.Status = domain.TicketStatusResolved
	ticket.AssigneeID = &technician.ID
	ticket.ResolutionReason = &reason

	_, err := ticket.Reopen(technician, "again", testTime)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	assert.Equal(t, domain.TicketStatusResolved, ticket.Status)

	entry, err := ticket.Reopen(admin, "user still without network", testTime)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, domain.HistoryKindReopenNote, entry.Kind)
	assert.Equal(t, admin.ID, entry.AuthorID)
}

func TestCheckInvariantsDetectsViolations(t *testing.T) {
	t.Parallel()

	ticket := openTicket()
	ticket.AssigneeID = &technician.ID
	assert.Error(t, ticket.CheckInvariants(), "open ticket with assignee")

	ticket = openTicket()
	ticket.Status = domain.TicketStatusInProgress
	assert.Error(t, ticket.CheckInvariants(), "in-progress ticket without assignee")
}
