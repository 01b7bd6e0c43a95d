package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/grouplab-go-api/internal/observability"
)

const submissionStreamBufferSize = 16

const (
	// EventSubmitted is broadcast when a group's submission is accepted.
	EventSubmitted = "submitted"
	// EventWithdrawn is broadcast when a group's submission is withdrawn.
	EventWithdrawn = "withdrawn"
)

const (
	// EventGroupCreated is published when a student opens a new group.
	EventGroupCreated = "group_created"
	// EventGroupJoined is published when a student joins a group.
	EventGroupJoined = "group_joined"
	// EventGroupLeft is published when a student leaves a group.
	EventGroupLeft = "group_left"
)

// SubmissionEvent is one lifecycle change on a deliverable's submissions,
// streamed to connected clients watching that deliverable.
type SubmissionEvent struct {
	Event            string    `json:"event"`
	DeliverableID    uint      `json:"deliverable_id"`
	GroupID          uint      `json:"group_id"`
	ValidationStatus string    `json:"validation_status,omitempty"`
	IsLate           bool      `json:"is_late"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// GroupEvent is one membership change on a project's groups. Group events
// are fanned out to the message brokers only; there is no websocket stream
// for them.
type GroupEvent struct {
	Event      string    `json:"event"`
	ProjectID  uint      `json:"project_id"`
	GroupID    uint      `json:"group_id"`
	StudentID  uint      `json:"student_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RealtimeService fans submission lifecycle events out to stream
// subscribers, bridging instances through Redis and NATS, and publishes
// group membership events to the same brokers.
type RealtimeService interface {
	Broadcast(ctx context.Context, event SubmissionEvent)
	PublishGroupEvent(ctx context.Context, event GroupEvent)
	Subscribe(deliverableID uint) (<-chan SubmissionEvent, func())
	Start(ctx context.Context)
}

type realtimeService struct {
	redis        *redis.Client
	redisStream  string
	groupStream  string
	nats         *nats.Conn
	natsSubject  string
	groupSubject string
	logger       zerolog.Logger
	broker       *submissionBroker
	nodeID       string
}

type submissionEnvelope struct {
	Source string          `json:"source"`
	Event  SubmissionEvent `json:"event"`
	SentAt time.Time       `json:"sent_at"`
}

type submissionBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan SubmissionEvent]struct{}
}

// NewRealtimeService constructs the submission event stream. Redis and NATS
// are both optional; with neither, events only reach local subscribers.
func NewRealtimeService(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) RealtimeService {
	stream := ""
	groupStream := ""
	subject := ""
	groupSubject := ""
	if channelBase != "" {
		stream = channelBase + ":submissions"
		groupStream = channelBase + ":groups"
		base := strings.ReplaceAll(channelBase, ":", ".")
		subject = base + ".submissions"
		groupSubject = base + ".groups"
	}

	return &realtimeService{
		redis:        redisClient,
		redisStream:  stream,
		groupStream:  groupStream,
		nats:         natsConn,
		natsSubject:  subject,
		groupSubject: groupSubject,
		logger:       logger.With().Str("component", "realtime_service").Logger(),
		broker: &submissionBroker{
			subscribers: make(map[uint]map[chan SubmissionEvent]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *realtimeService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *realtimeService) Broadcast(ctx context.Context, event SubmissionEvent) {
	observability.SubmissionEventsTotal().WithLabelValues(event.Event).Inc()
	s.broker.broadcast(event.DeliverableID, event)

	if err := s.publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish submission event to broker")
	}
}

func (s *realtimeService) PublishGroupEvent(ctx context.Context, event GroupEvent) {
	observability.GroupEventsTotal().WithLabelValues(event.Event).Inc()

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode group event")
		return
	}

	if s.redis != nil && s.groupStream != "" {
		if err := s.redis.Publish(ctx, s.groupStream, payload).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish group event to redis")
		}
	}

	if s.nats != nil && s.groupSubject != "" {
		if err := s.nats.Publish(s.groupSubject, payload); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish group event to nats")
		}
	}
}

func (s *realtimeService) Subscribe(deliverableID uint) (<-chan SubmissionEvent, func()) {
	channel := make(chan SubmissionEvent, submissionStreamBufferSize)

	s.broker.subscribe(deliverableID, channel)
	observability.RealtimeClientsActive().Inc()

	cleanup := func() {
		s.broker.unsubscribe(deliverableID, channel)
		observability.RealtimeClientsActive().Dec()
	}

	return channel, cleanup
}

func (s *realtimeService) publish(ctx context.Context, event SubmissionEvent) error {
	envelope := submissionEnvelope{
		Source: s.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *realtimeService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("submission event redis subscription closed")
			return
		}
		s.handleEnvelope([]byte(msg.Payload))
	}
}

func (s *realtimeService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "grouplab-submissions", func(msg *nats.Msg) {
		s.handleEnvelope(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats submissions subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain submission nats subscription")
		}
	}()
}

func (s *realtimeService) handleEnvelope(payload []byte) {
	var envelope submissionEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid submission event payload")
		return
	}

	if envelope.Source == s.nodeID {
		return
	}

	observability.SubmissionEventsTotal().WithLabelValues(envelope.Event.Event).Inc()
	s.broker.broadcast(envelope.Event.DeliverableID, envelope.Event)
}

func (b *submissionBroker) subscribe(deliverableID uint, ch chan SubmissionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[deliverableID]; !exists {
		b.subscribers[deliverableID] = make(map[chan SubmissionEvent]struct{})
	}
	b.subscribers[deliverableID][ch] = struct{}{}
}

func (b *submissionBroker) unsubscribe(deliverableID uint, ch chan SubmissionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[deliverableID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, deliverableID)
		}
	}
}

func (b *submissionBroker) broadcast(deliverableID uint, event SubmissionEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subscribers := b.subscribers[deliverableID]
	for ch := range subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
