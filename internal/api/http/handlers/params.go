package handlers

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/chamado-service/internal/auth"
	"github.com/spec-kit/chamado-service/internal/domain"
	"github.com/spec-kit/chamado-service/internal/service"
	apperrors "github.com/spec-kit/chamado-service/pkg/util/errorutil"
)

var (
	pageParams = []string{"page", "size"}

	// filterAliases maps accepted query keys, including the names the web
	// client sends, to TicketQuery fields.
	filterAliases = map[string]string{
		"status":      "status",
		"secretariat": "secretariat",
		"secretaria":  "secretariat",
		"sector":      "sector",
		"setor":       "sector",
		"assigneeId":  "assigneeId",
		"atribuidoA":  "assigneeId",
		"requester":   "requester",
		"usuario":     "requester",
		"createdFrom": "createdFrom",
		"createdTo":   "createdTo",
	}
)

func callerFrom(c *fiber.Ctx) (domain.Caller, error) {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return domain.Caller{}, apperrors.NewUnauthenticated("caller identity required")
	}
	return caller, nil
}

func ticketIDParam(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", map[string]any{"id": raw})
	}
	return id, nil
}

// queryValues collects the query string and rejects keys outside allowed.
func queryValues(c *fiber.Ctx, allowed ...string) (map[string]string, error) {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, key := range allowed {
		allowedSet[key] = struct{}{}
	}

	values := make(map[string]string)
	var unknown []string
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		if _, ok := allowedSet[k]; !ok {
			unknown = append(unknown, k)
			return
		}
		values[k] = strings.TrimSpace(string(value))
	})
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, apperrors.NewValidationError("unrecognized query parameters", map[string]any{"parameters": unknown})
	}
	return values, nil
}

func parsePage(values map[string]string) (service.PageRequest, error) {
	var page service.PageRequest
	var err error
	if page.Page, err = parseNonNegative(values, "page"); err != nil {
		return page, err
	}
	if page.Size, err = parseNonNegative(values, "size"); err != nil {
		return page, err
	}
	return page, nil
}

func parseNonNegative(values map[string]string, key string) (int, error) {
	raw := values[key]
	if raw == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return 0, apperrors.NewValidationError("invalid "+key, map[string]any{key: raw})
	}
	return parsed, nil
}

func parseDay(values map[string]string, key string) (*time.Time, error) {
	raw := values[key]
	if raw == "" {
		return nil, nil
	}
	day, err := time.Parse(domain.DayLayout, raw)
	if err != nil {
		return nil, apperrors.NewValidationError("dates must use YYYY-MM-DD", map[string]any{key: raw})
	}
	return &day, nil
}

func pageQuery(c *fiber.Ctx) (service.PageRequest, error) {
	values, err := queryValues(c, pageParams...)
	if err != nil {
		return service.PageRequest{}, err
	}
	return parsePage(values)
}

func filterQuery(c *fiber.Ctx) (service.TicketQuery, service.PageRequest, error) {
	allowed := append([]string{}, pageParams...)
	for key := range filterAliases {
		allowed = append(allowed, key)
	}
	values, err := queryValues(c, allowed...)
	if err != nil {
		return service.TicketQuery{}, service.PageRequest{}, err
	}

	fields := make(map[string]string, len(values))
	for key, value := range values {
		field, ok := filterAliases[key]
		if !ok || value == "" {
			continue
		}
		// the canonical key wins over an alias
		if _, taken := fields[field]; taken && key != field {
			continue
		}
		fields[field] = value
	}

	var query service.TicketQuery
	if raw := fields["status"]; raw != "" {
		status, err := domain.ParseTicketStatus(raw)
		if err != nil {
			return query, service.PageRequest{}, apperrors.NewValidationError("invalid status", map[string]any{"status": raw})
		}
		query.Status = &status
	}
	query.Secretariat = fields["secretariat"]
	query.Sector = fields["sector"]
	query.AssigneeID = fields["assigneeId"]
	query.Requester = fields["requester"]
	if query.CreatedFrom, err = parseDay(fields, "createdFrom"); err != nil {
		return query, service.PageRequest{}, err
	}
	if query.CreatedTo, err = parseDay(fields, "createdTo"); err != nil {
		return query, service.PageRequest{}, err
	}

	page, err := parsePage(values)
	return query, page, err
}

// bodyParser decodes an optional JSON body; an empty body leaves out untouched.
func bodyParser(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}
