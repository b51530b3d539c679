package repository

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/chamado-service/internal/domain"
)

func ptr[T any](value T) *T {
	return &value
}

func TestWhereClause(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	type testCase struct {
		filter    TicketFilter
		wantWhere string
		wantArgs  []any
	}
	testCases := map[string]testCase{
		"empty": {
			filter:    TicketFilter{},
			wantWhere: "1=1",
			wantArgs:  []any{},
		},
		"statuses and sector": {
			filter: TicketFilter{
				Statuses: []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusReopened},
				Sector:   ptr("TI"),
			},
			wantWhere: "1=1 AND status IN ($1,$2) AND (origin_sector=$3 OR destination_sector=$3)",
			wantArgs:  []any{"OPEN", "REOPENED", "TI"},
		},
		"requester and dates": {
			filter: TicketFilter{
				Requester:     ptr("Ana_B"),
				CreatedFrom:   &from,
				CreatedBefore: &before,
			},
			wantWhere: "1=1 AND (requester_id=$1 OR LOWER(requester_name) LIKE $2) AND created_at >= $3 AND created_at < $4",
			wantArgs:  []any{"Ana_B", `%ana\_b%`, from, before},
		},
		"views": {
			filter: TicketFilter{
				Secretariat: ptr("SEMED"),
				AssigneeID:  ptr("T1"),
				RequesterID: ptr("E1"),
			},
			wantWhere: "1=1 AND secretariat=$1 AND assignee_id=$2 AND requester_id=$3",
			wantArgs:  []any{"SEMED", "T1", "E1"},
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			where, args := testCase.filter.whereClause()
			assert.Equal(t, testCase.wantWhere, where)
			if diff := cmp.Diff(testCase.wantArgs, args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatchesAgreesWithSQLSemantics(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	assignee := "T1"
	ticket := &domain.Ticket{
		RequesterID:       "E42",
		RequesterName:     "Maria Souza",
		Secretariat:       "SEMED",
		OriginSector:      "Protocolo",
		DestinationSector: "TI",
		Status:            domain.TicketStatusAssigned,
		AssigneeID:        &assignee,
		CreatedAt:         created,
	}

	testCases := map[string]struct {
		filter TicketFilter
		want   bool
	}{
		"no predicates":               {TicketFilter{}, true},
		"status hit":                  {TicketFilter{Statuses: []domain.TicketStatus{domain.TicketStatusAssigned}}, true},
		"status miss":                 {TicketFilter{Statuses: []domain.TicketStatus{domain.TicketStatusOpen}}, false},
		"origin sector":               {TicketFilter{Sector: ptr("Protocolo")}, true},
		"destination sector":          {TicketFilter{Sector: ptr("TI")}, true},
		"sector is case sensitive":    {TicketFilter{Sector: ptr("ti")}, false},
		"requester exact id":          {TicketFilter{Requester: ptr("E42")}, true},
		"requester name part":         {TicketFilter{Requester: ptr("souza")}, true},
		"requester miss":              {TicketFilter{Requester: ptr("E4")}, false},
		"assignee":                    {TicketFilter{AssigneeID: ptr("T1")}, true},
		"other assignee":              {TicketFilter{AssigneeID: ptr("T2")}, false},
		"created window":              {TicketFilter{CreatedFrom: ptr(created), CreatedBefore: ptr(created.Add(time.Second))}, true},
		"created before is exclusive": {TicketFilter{CreatedBefore: ptr(created)}, false},
		"and-combined":                {TicketFilter{Secretariat: ptr("SEMED"), RequesterID: ptr("E1")}, false},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, testCase.want, testCase.filter.Matches(ticket))
		})
	}
}
