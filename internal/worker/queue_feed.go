package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/chamado-service/internal/domain"
	"github.com/spec-kit/chamado-service/internal/events"
)

// QueueChangedType is the message type pushed to queue watchers.
const QueueChangedType = "queue_changed"

// QueueMessage tells connected technicians that the claimable set changed.
type QueueMessage struct {
	Type     string              `json:"type"`
	Event    events.EventType    `json:"event"`
	TicketID int64               `json:"ticketId"`
	Protocol string              `json:"protocol"`
	Status   domain.TicketStatus `json:"status,omitempty"`
	At       time.Time           `json:"at"`
}

// Broadcaster delivers a message to local websocket clients.
type Broadcaster interface {
	Broadcast(message []byte)
}

// QueueFeed turns queue-affecting events into live messages. With a redis
// client every instance publishes on a shared channel and relays what it
// receives to its own hub; without one, messages go straight to the hub.
type QueueFeed struct {
	dispatcher events.Dispatcher
	hub        Broadcaster
	client     *redis.Client
	channel    string
	logger     *zap.Logger
}

// NewQueueFeed wires the feed. client may be nil.
func NewQueueFeed(dispatcher events.Dispatcher, hub Broadcaster, client *redis.Client, channel string, logger *zap.Logger) *QueueFeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueFeed{
		dispatcher: dispatcher,
		hub:        hub,
		client:     client,
		channel:    channel,
		logger:     logger,
	}
}

// Start subscribes to the dispatcher and, when redis is configured, runs the
// relay until ctx is cancelled.
func (f *QueueFeed) Start(ctx context.Context) {
	if f == nil || f.dispatcher == nil || f.hub == nil {
		return
	}
	for _, eventType := range events.QueueEvents {
		f.dispatcher.Subscribe(eventType, f.handle)
	}
	if f.client != nil {
		go f.relay(ctx)
	}
}

func (f *QueueFeed) handle(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(queueMessage(event))
	if err != nil {
		return err
	}
	if f.client == nil {
		f.hub.Broadcast(payload)
		return nil
	}
	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		f.logger.Warn("queue feed publish failed; delivering locally", zap.Error(err))
		f.hub.Broadcast(payload)
	}
	return nil
}

func (f *QueueFeed) relay(ctx context.Context) {
	sub := f.client.Subscribe(ctx, f.channel)
	defer sub.Close()

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			f.hub.Broadcast([]byte(msg.Payload))
		}
	}
}

func queueMessage(event events.Event) QueueMessage {
	message := QueueMessage{
		Type:     QueueChangedType,
		Event:    event.Type,
		TicketID: event.TicketID,
		Protocol: event.Protocol,
		At:       event.Timestamp,
	}
	switch payload := event.Payload.(type) {
	case events.TicketTransitionPayload:
		message.Status = payload.NewStatus
	case events.TicketCreatedPayload:
		message.Status = domain.TicketStatusOpen
	}
	return message
}
