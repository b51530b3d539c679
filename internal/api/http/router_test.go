package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/chamado-service/internal/api/dto"
	httptransport "github.com/spec-kit/chamado-service/internal/api/http"
	"github.com/spec-kit/chamado-service/internal/api/http/handlers"
	"github.com/spec-kit/chamado-service/internal/auth"
	"github.com/spec-kit/chamado-service/internal/domain"
	"github.com/spec-kit/chamado-service/internal/events"
	"github.com/spec-kit/chamado-service/internal/observability"
	"github.com/spec-kit/chamado-service/internal/persistence"
	"github.com/spec-kit/chamado-service/internal/repository"
	"github.com/spec-kit/chamado-service/internal/service"
)

var (
	requester = domain.Caller{ID: "E100", Name: "Ana Lima", Role: domain.RoleCommon}
	techOne   = domain.Caller{ID: "T1", Name: "Carla Tech", Role: domain.RoleTechnician}
	techTwo   = domain.Caller{ID: "T2", Name: "Diego Tech", Role: domain.RoleTechnician}
	admin     = domain.Caller{ID: "A1", Name: "Eva Admin", Role: domain.RoleAdmin}
)

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := repository.NewMemoryStore()
	dispatcher := events.NewInMemoryDispatcher(nil)
	metrics := observability.NewMetrics()
	clock := func() time.Time { return time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC) }
	tokens := auth.NewTokenManager("test-secret", 5)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  store,
		HistoryRepo: store,
		Sequencer:   store,
		Dispatcher:  dispatcher,
		Clock:       clock,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo: store,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Clock:      clock,
	})

	app := httptransport.NewApp("chamado-service-test", zap.NewNop(), metrics, httptransport.MiddlewareConfig{
		Timeout:          5 * time.Second,
		CORSAllowOrigins: "*",
	}, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("chamado-service", "test", &persistence.Postgres{}, &persistence.Redis{}, metrics),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Assignments:    handlers.NewAssignmentsHandler(assignmentService),
		Dashboard:      handlers.NewDashboardHandler(service.NewDashboardService(store)),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})
	return &testServer{app: app, tokens: tokens}
}

func (s *testServer) token(t *testing.T, caller domain.Caller) string {
	t.Helper()
	token, _, err := s.tokens.GenerateToken(caller)
	require.NoError(t, err)
	return token
}

// do sends a request as caller (zero Caller means anonymous) and decodes the
// JSON response into out when out is non-nil.
func (s *testServer) do(t *testing.T, caller domain.Caller, method, path string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if caller.ID != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token(t, caller))
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func createBody() dto.CreateTicketRequest {
	return dto.CreateTicketRequest{
		Secretariat:       "SEA",
		OriginSector:      "Protocolo",
		DestinationSector: "TI",
		ProblemType:       "HARDWARE",
		OpeningReason:     "Printer does not turn on",
	}
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	var created dto.TicketResponse
	require.Equal(t, http.StatusCreated, srv.do(t, requester, http.MethodPost, "/api/tickets", createBody(), &created))
	assert.Equal(t, "20260406-0001", created.Protocol)
	assert.Equal(t, domain.TicketStatusOpen, created.Status)
	assert.Equal(t, "Ana Lima", created.RequesterName)

	var queue dto.TicketPageResponse
	require.Equal(t, http.StatusOK, srv.do(t, techOne, http.MethodGet, "/api/tickets/queue", nil, &queue))
	require.Len(t, queue.Content, 1)
	assert.Equal(t, created.ID, queue.Content[0].ID)

	ticketPath := "/api/tickets/" + itoa(created.ID)

	var claimed dto.TicketResponse
	require.Equal(t, http.StatusOK, srv.do(t, techOne, http.MethodPost, ticketPath+"/claim", nil, &claimed))
	assert.Equal(t, domain.TicketStatusAssigned, claimed.Status)
	require.NotNil(t, claimed.AssigneeID)
	assert.Equal(t, "T1", *claimed.AssigneeID)

	var lost errorEnvelope
	assert.Equal(t, http.StatusConflict, srv.do(t, techTwo, http.MethodPost, ticketPath+"/claim", nil, &lost))
	assert.Equal(t, "ALREADY_CLAIMED", lost.Error.Code)

	var wrongAssignee errorEnvelope
	assert.Equal(t, http.StatusForbidden, srv.do(t, techTwo, http.MethodPost, ticketPath+"/start", nil, &wrongAssignee))
	assert.Equal(t, "UNAUTHORIZED", wrongAssignee.Error.Code)

	require.Equal(t, http.StatusOK, srv.do(t, techOne, http.MethodPost, ticketPath+"/start", nil, nil))

	var resolved dto.TicketResponse
	require.Equal(t, http.StatusOK, srv.do(t, techOne, http.MethodPost, ticketPath+"/resolve",
		dto.ResolveRequest{ResolutionReason: "Replaced the power supply", ProblemType: "HARDWARE"}, &resolved))
	assert.Equal(t, domain.TicketStatusResolved, resolved.Status)

	var again errorEnvelope
	assert.Equal(t, http.StatusConflict, srv.do(t, techOne, http.MethodPost, ticketPath+"/start", nil, &again))
	assert.Equal(t, "INVALID_TRANSITION", again.Error.Code)

	var follow dto.HistoryEntryResponse
	require.Equal(t, http.StatusCreated, srv.do(t, requester, http.MethodPost, ticketPath+"/follow-ups",
		dto.FollowUpRequest{Body: "Still smells burnt"}, &follow))
	assert.Equal(t, domain.HistoryKindFollowUp, follow.Kind)

	var notAdmin errorEnvelope
	assert.Equal(t, http.StatusForbidden, srv.do(t, techOne, http.MethodPost, ticketPath+"/reopen", nil, &notAdmin))

	var reopened dto.TicketResponse
	require.Equal(t, http.StatusOK, srv.do(t, admin, http.MethodPost, ticketPath+"/reopen",
		dto.ReopenRequest{Note: "User reports the same fault"}, &reopened))
	assert.Equal(t, domain.TicketStatusReopened, reopened.Status)
	assert.Nil(t, reopened.AssigneeID)

	var history dto.TicketHistoryResponse
	require.Equal(t, http.StatusOK, srv.do(t, requester, http.MethodGet, ticketPath+"/history", nil, &history))
	kinds := make([]domain.HistoryEntryKind, 0, len(history.FollowUps))
	for i, entry := range history.FollowUps {
		assert.Equal(t, i+1, entry.Seq)
		kinds = append(kinds, entry.Kind)
	}
	wantKinds := []domain.HistoryEntryKind{domain.HistoryKindResolution, domain.HistoryKindFollowUp, domain.HistoryKindReopenNote}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Errorf("history kinds mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, domain.TicketStatusReopened, history.Status)
}

func TestAuthenticationAndRoles(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	tests := []struct {
		name       string
		caller     domain.Caller
		method     string
		path       string
		wantStatus int
		wantCode   string
	}{
		{name: "anonymous", method: http.MethodGet, path: "/api/tickets/mine", wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHENTICATED"},
		{name: "common lists all", caller: requester, method: http.MethodGet, path: "/api/tickets", wantStatus: http.StatusForbidden, wantCode: "UNAUTHORIZED"},
		{name: "common reads queue", caller: requester, method: http.MethodGet, path: "/api/tickets/queue", wantStatus: http.StatusForbidden, wantCode: "UNAUTHORIZED"},
		{name: "common reads dashboard", caller: requester, method: http.MethodGet, path: "/api/dashboard", wantStatus: http.StatusForbidden, wantCode: "UNAUTHORIZED"},
		{name: "missing ticket", caller: techOne, method: http.MethodGet, path: "/api/tickets/999", wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "malformed id", caller: techOne, method: http.MethodGet, path: "/api/tickets/abc", wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_FAILED"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var envelope errorEnvelope
			assert.Equal(t, tc.wantStatus, srv.do(t, tc.caller, tc.method, tc.path, nil, &envelope))
			assert.Equal(t, tc.wantCode, envelope.Error.Code)
		})
	}
}

func TestListFiltersAndStrictQuery(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	for _, sector := range []string{"TI", "TI", "Redes"} {
		body := createBody()
		body.DestinationSector = sector
		require.Equal(t, http.StatusCreated, srv.do(t, requester, http.MethodPost, "/api/tickets", body, nil))
	}

	tests := []struct {
		name      string
		query     string
		wantTotal int
		wantPages int
	}{
		{name: "no filter", query: "", wantTotal: 3, wantPages: 1},
		{name: "sector", query: "?sector=TI", wantTotal: 2, wantPages: 1},
		{name: "client alias", query: "?setor=Redes", wantTotal: 1, wantPages: 1},
		{name: "blank filter ignored", query: "?status=&setor=", wantTotal: 3, wantPages: 1},
		{name: "status", query: "?status=RESOLVED", wantTotal: 0, wantPages: 0},
		{name: "paged", query: "?page=1&size=2", wantTotal: 3, wantPages: 2},
		{name: "day window", query: "?createdFrom=2026-04-06&createdTo=2026-04-06", wantTotal: 3, wantPages: 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var page dto.TicketPageResponse
			require.Equal(t, http.StatusOK, srv.do(t, admin, http.MethodGet, "/api/tickets"+tc.query, nil, &page))
			assert.Equal(t, tc.wantTotal, page.TotalElements)
			assert.Equal(t, tc.wantPages, page.TotalPages)
		})
	}

	rejected := []string{"?priority=HIGH", "?page=-1", "?size=abc", "?status=CLOSED", "?createdFrom=06/04/2026", "?createdFrom=2026-04-07&createdTo=2026-04-06"}
	for _, query := range rejected {
		var envelope errorEnvelope
		assert.Equal(t, http.StatusBadRequest, srv.do(t, admin, http.MethodGet, "/api/tickets"+query, nil, &envelope), query)
		assert.Equal(t, "VALIDATION_FAILED", envelope.Error.Code, query)
	}

	var mine dto.TicketPageResponse
	require.Equal(t, http.StatusOK, srv.do(t, requester, http.MethodGet, "/api/tickets/mine?size=2", nil, &mine))
	assert.Equal(t, 3, mine.TotalElements)
	assert.Len(t, mine.Content, 2)
}

func TestDashboardOverHTTP(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	var created dto.TicketResponse
	require.Equal(t, http.StatusCreated, srv.do(t, requester, http.MethodPost, "/api/tickets", createBody(), &created))
	ticketPath := "/api/tickets/" + itoa(created.ID)
	require.Equal(t, http.StatusOK, srv.do(t, techOne, http.MethodPost, ticketPath+"/claim", nil, nil))
	require.Equal(t, http.StatusOK, srv.do(t, techOne, http.MethodPost, ticketPath+"/start", nil, nil))
	require.Equal(t, http.StatusOK, srv.do(t, techOne, http.MethodPost, ticketPath+"/resolve",
		dto.ResolveRequest{ResolutionReason: "Done", ProblemType: "SOFTWARE"}, nil))
	require.Equal(t, http.StatusCreated, srv.do(t, requester, http.MethodPost, "/api/tickets", createBody(), nil))

	var dashboard dto.DashboardResponse
	require.Equal(t, http.StatusOK, srv.do(t, admin, http.MethodGet, "/api/dashboard?from=2026-04-01&to=2026-04-30", nil, &dashboard))
	assert.Equal(t, 2, dashboard.Total)
	assert.Equal(t, 1, dashboard.TotalAbertos)
	assert.Equal(t, 1, dashboard.TotalFinalizados)
	assert.Equal(t, []dto.TechnicianQuantity{{TecnicoID: "T1", Tecnico: "Carla Tech", Quantidade: 1}}, dashboard.RankingTecnicos)
	assert.Equal(t, []dto.DayQuantity{{Data: "06/04/2026", Quantidade: 2}}, dashboard.ChamadosPorData)

	var envelope errorEnvelope
	assert.Equal(t, http.StatusBadRequest, srv.do(t, admin, http.MethodGet, "/api/dashboard?from=2026-04-30&to=2026-04-01", nil, &envelope))
	assert.Equal(t, http.StatusBadRequest, srv.do(t, admin, http.MethodGet, "/api/dashboard?month=4", nil, &envelope))
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	var ready map[string]any
	require.Equal(t, http.StatusOK, srv.do(t, domain.Caller{}, http.MethodGet, "/health/ready", nil, &ready))
	assert.Equal(t, map[string]any{"postgres": "disabled", "redis": "disabled"}, ready["dependencies"])

	require.Equal(t, http.StatusCreated, srv.do(t, requester, http.MethodPost, "/api/tickets", createBody(), nil))

	var snapshot observability.MetricsSnapshot
	require.Equal(t, http.StatusOK, srv.do(t, domain.Caller{}, http.MethodGet, "/metrics", nil, &snapshot))
	assert.Equal(t, int64(1), snapshot.Requests["/api/tickets|POST|201"])
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	var envelope errorEnvelope
	assert.Equal(t, http.StatusNotFound, srv.do(t, domain.Caller{}, http.MethodGet, "/nowhere", nil, &envelope))
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}
