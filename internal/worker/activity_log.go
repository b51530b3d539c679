package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/chamado-service/internal/events"
)

var activityEvents = []events.EventType{
	events.EventTicketCreated,
	events.EventTicketClaimed,
	events.EventTicketStarted,
	events.EventTicketResolved,
	events.EventTicketReopened,
	events.EventTicketFollowUpAdded,
}

// StartActivityLog writes one structured log line per ticket event.
func StartActivityLog(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil || logger == nil {
		return
	}
	named := logger.Named("activity")
	handler := func(_ context.Context, event events.Event) error {
		named.Info(string(event.Type),
			zap.String("event_id", event.ID),
			zap.Int64("ticket_id", event.TicketID),
			zap.String("protocol", event.Protocol),
			zap.String("actor_id", event.Actor.ID),
			zap.String("actor_role", string(event.Actor.Role)),
			zap.Any("payload", event.Payload))
		return nil
	}
	for _, eventType := range activityEvents {
		dispatcher.Subscribe(eventType, handler)
	}
}
