package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"propintel-console/internal/pkg/logger"
	"propintel-console/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// EventDelivery pushes serialized events to connected browsers. Implemented by the websocket hub.
type EventDelivery interface {
	Broadcast(data []byte)
}

// EventMirror forwards events to an external bus. Implemented by the NATS publisher.
type EventMirror interface {
	Publish(ctx context.Context, event events.Event) error
}

type IEventService interface {
	// Notify queues an event without blocking.
	Notify(event events.Event)
	// Consume starts delivering queued events until ctx is done.
	Consume(ctx context.Context) error
}

// Envelope is the wire form of a console event.
type Envelope struct {
	ID        string                 `json:"id"`
	Seq       uint64                 `json:"seq"`
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

type eventService struct {
	pubSub   *gochannel.GoChannel
	topic    string
	delivery EventDelivery
	mirror   EventMirror
	logger   logger.ILogger

	seq atomic.Uint64

	mu   sync.Mutex
	last map[string]uint64
}

func NewEventService(pubSub *gochannel.GoChannel, topic string, delivery EventDelivery, mirror EventMirror, log logger.ILogger) IEventService {
	return &eventService{
		pubSub:   pubSub,
		topic:    topic,
		delivery: delivery,
		mirror:   mirror,
		logger:   log,
		last:     map[string]uint64{},
	}
}

func (s *eventService) Notify(event events.Event) {
	env := Envelope{
		ID:        uuid.NewString(),
		Seq:       s.seq.Add(1),
		Type:      event.EventType(),
		Data:      event.Payload(),
		Timestamp: event.Timestamp(),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		s.logger.Error("EventService", "Failed to marshal event", map[string]interface{}{"type": env.Type, "error": err})
		return
	}

	msg := message.NewMessage(env.ID, payload)
	msg.Metadata.Set("type", env.Type)
	if err := s.pubSub.Publish(s.topic, msg); err != nil {
		s.logger.Warn("EventService", "Failed to publish event", map[string]interface{}{"type": env.Type, "error": err})
	}
}

func (s *eventService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()
	return nil
}

func (s *eventService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var env Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		s.logger.Error("EventService", "Dropping malformed event", map[string]interface{}{"uuid": msg.UUID, "error": err})
		return
	}

	// The in-process channel does not preserve order; snapshots older than the last one sent are stale.
	if !s.advance(streamKey(env), env.Seq) {
		s.logger.Debug("EventService", "Dropping stale event", map[string]interface{}{"type": env.Type, "seq": env.Seq})
		return
	}

	if s.delivery != nil {
		s.delivery.Broadcast(msg.Payload)
	}
	if s.mirror != nil {
		event := events.BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.Timestamp}
		if err := s.mirror.Publish(ctx, event); err != nil {
			s.logger.Warn("EventService", "Failed to mirror event", map[string]interface{}{"type": env.Type, "error": err})
		}
	}
}

func (s *eventService) advance(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.last[key] {
		return false
	}
	s.last[key] = seq
	return true
}

// streamKey groups events that replace one another. Job snapshots are per kind.
func streamKey(env Envelope) string {
	switch env.Type {
	case events.JobUpdated:
		if job, ok := env.Data["job"].(map[string]interface{}); ok {
			return fmt.Sprintf("%s:%v", env.Type, job["kind"])
		}
	case events.SelectionPreview:
		return fmt.Sprintf("%s:%v", env.Type, env.Data["kind"])
	}
	return env.Type
}
