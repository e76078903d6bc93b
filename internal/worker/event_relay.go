package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"resort/internal/config"
	"resort/internal/events"
	"resort/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const deadLetterKey = "resort:events:deadletter"

// ErrQueueFull is returned by Handle when the relay cannot accept more events.
var ErrQueueFull = errors.New("event relay queue is full")

// MessageWriter is the part of *kafka.Writer the relay uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter builds a synchronous writer; the relay provides its own
// buffering and retries.
func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

// EventRelay forwards committed domain events to Kafka. Delivery is best
// effort: events that exhaust their retries go to a Redis dead-letter list
// when Redis is configured, and are logged otherwise.
type EventRelay struct {
	writer      MessageWriter
	redis       *redis.Client
	retryPolicy RetryPolicy
	queue       chan *events.Event
	logger      *zerolog.Logger
}

func NewEventRelay(writer MessageWriter, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *EventRelay {
	return &EventRelay{
		writer:      writer,
		redis:       redisClient,
		retryPolicy: retry.withDefaults(0),
		queue:       make(chan *events.Event, 256),
		logger:      logger,
	}
}

// Handle is an events.EventHandler. It never blocks the publisher.
func (r *EventRelay) Handle(event *events.Event) error {
	select {
	case r.queue <- event:
		return nil
	default:
		metrics.IncRelay("dropped")
		r.logger.Warn().Str("event_id", event.ID).Str("event_type", event.Type).Msg("event relay queue full, event dropped")
		return ErrQueueFull
	}
}

// Start delivers queued events until ctx is done, then flushes what is left
// with a single attempt each and closes the writer.
func (r *EventRelay) Start(ctx context.Context) {
	r.logger.Info().Msg("event relay started")
	defer r.logger.Info().Msg("event relay stopped")

	for {
		select {
		case <-ctx.Done():
			r.flush()
			return
		case event := <-r.queue:
			r.deliver(ctx, event)
		}
	}
}

func (r *EventRelay) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		select {
		case event := <-r.queue:
			if err := r.write(ctx, event); err != nil {
				r.giveUp(ctx, event, err)
			}
		default:
			if err := r.writer.Close(); err != nil {
				r.logger.Error().Err(err).Msg("close kafka writer")
			}
			return
		}
	}
}

func (r *EventRelay) deliver(ctx context.Context, event *events.Event) {
	for attempt := 1; ; attempt++ {
		err := r.write(ctx, event)
		if err == nil {
			return
		}
		if attempt >= r.retryPolicy.MaxRetries {
			r.giveUp(ctx, event, err)
			return
		}

		delay := r.retryPolicy.NextDelay(attempt)
		r.logger.Warn().Err(err).
			Str("event_id", event.ID).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Msg("event relay write failed")
		if wait(ctx, delay) != nil {
			r.giveUp(ctx, event, err)
			return
		}
	}
}

func (r *EventRelay) write(ctx context.Context, event *events.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = r.writer.WriteMessages(ctx, kafka.Message{
		Key:   events.PartitionKey(event),
		Value: value,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err == nil {
		metrics.IncRelay("ok")
	}
	return err
}

// giveUp records an undeliverable event. The dead-letter push outlives a
// cancelled ctx so events given up during shutdown are kept.
func (r *EventRelay) giveUp(ctx context.Context, event *events.Event, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	metrics.IncRelay("failed")
	r.logger.Error().Err(cause).Str("event_id", event.ID).Str("event_type", event.Type).Msg("event not delivered")

	if r.redis == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.Error().Err(err).Str("event_id", event.ID).Msg("encode deadletter")
		return
	}
	if err := r.redis.LPush(ctx, deadLetterKey, data).Err(); err != nil {
		r.logger.Error().Err(err).Str("event_id", event.ID).Msg("deadletter push")
	}
}
