package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/chamado-service/internal/domain"
	"github.com/spec-kit/chamado-service/internal/events"
	apperrors "github.com/spec-kit/chamado-service/pkg/util/errorutil"
)

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, event)
}

func requireCaller(caller domain.Caller) error {
	if strings.TrimSpace(caller.ID) == "" {
		return apperrors.NewUnauthenticated("caller identity required")
	}
	return nil
}

func requireStaff(caller domain.Caller) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if !caller.IsStaff() {
		return apperrors.NewUnauthorized("technician or administrator role required")
	}
	return nil
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// clockOrDefault truncates to microseconds, the precision postgres keeps, so
// both stores return identical timestamps.
func clockOrDefault(clock func() time.Time) func() time.Time {
	if clock != nil {
		return clock
	}
	return func() time.Time {
		return time.Now().UTC().Truncate(time.Microsecond)
	}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
