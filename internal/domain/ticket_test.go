package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/chamado-service/internal/domain"
)

func TestParseTicketStatus(t *testing.T) {
	t.Parallel()

	status, err := domain.ParseTicketStatus(" in_progress ")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, status)

	_, err = domain.ParseTicketStatus("CLOSED")
	assert.Error(t, err)
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	testCases := map[string]domain.Role{
		"ADMIN":      domain.RoleAdmin,
		"technician": domain.RoleTechnician,
		"COMUM":      domain.RoleCommon,
		"":           domain.RoleCommon,
	}
	for raw, want := range testCases {
		got, err := domain.ParseRole(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := domain.ParseRole("ROOT")
	assert.Error(t, err)
}

func TestStatusQueueMembership(t *testing.T) {
	t.Parallel()

	for _, status := range domain.TicketStatuses {
		assert.NotEqual(t, status.Claimable(), status.HoldsAssignment(),
			"%s must be either claimable or assignment-holding", status)
	}
}

func TestDateRangeContainsWholeDays(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 5, 1, 15, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)
	window := domain.DateRange{From: &from, To: &to}

	assert.True(t, window.Contains(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)), "from is truncated to the start of day")
	assert.True(t, window.Contains(time.Date(2026, 5, 3, 23, 59, 59, 0, time.UTC)), "to covers the whole day")
	assert.False(t, window.Contains(time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)))
	assert.False(t, window.Contains(time.Date(2026, 4, 30, 23, 59, 0, 0, time.UTC)))
	assert.True(t, domain.DateRange{}.Contains(time.Now()))
}

func TestCloneDoesNotShareFields(t *testing.T) {
	t.Parallel()

	assignee := "T1"
	ticket := &domain.Ticket{ID: 1, Status: domain.TicketStatusAssigned, AssigneeID: &assignee}
	clone := ticket.Clone()
	*clone.AssigneeID = "T2"

	assert.Equal(t, "T1", *ticket.AssigneeID)
}
