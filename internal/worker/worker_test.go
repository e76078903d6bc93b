package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"resort/internal/events"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu       sync.Mutex
	failures int
	calls    int
	messages []kafka.Message
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.failures > 0 {
		w.failures--
		return errors.New("broker unavailable")
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWriter) snapshot() (int, []kafka.Message, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls, append([]kafka.Message(nil), w.messages...), w.closed
}

func quietLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func fastRetry(max int) RetryPolicy {
	return RetryPolicy{MaxRetries: max, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func testEvent(t *testing.T) *events.Event {
	t.Helper()
	event, err := events.NewJSONEvent(events.EventOrderCreated, events.OrderEventPayload{OrderID: 7, Status: "PENDING"})
	require.NoError(t, err)
	return &event
}

func TestRetryPolicyNextDelay(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffFactor: 2}
	assert.Equal(t, time.Second, p.NextDelay(0))
	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
	assert.Equal(t, 4*time.Second, p.NextDelay(3))
	assert.Equal(t, 5*time.Second, p.NextDelay(4))
	assert.Equal(t, 5*time.Second, p.NextDelay(200))

	d := DefaultRetryPolicy(3)
	assert.Equal(t, 3, d.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, d.NextDelay(1))
	assert.Equal(t, 5, DefaultRetryPolicy(0).MaxRetries)
}

func TestEventRelayDeliversWithRetry(t *testing.T) {
	writer := &fakeWriter{failures: 2}
	relay := NewEventRelay(writer, nil, fastRetry(5), quietLogger())

	event := testEvent(t)
	require.NoError(t, relay.Handle(event))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, msgs, _ := writer.snapshot()
		return len(msgs) == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done

	calls, msgs, closed := writer.snapshot()
	assert.Equal(t, 3, calls)
	assert.True(t, closed)
	assert.Equal(t, []byte("order:7"), msgs[0].Key)

	var got events.Event
	require.NoError(t, json.Unmarshal(msgs[0].Value, &got))
	assert.Equal(t, event.ID, got.ID)
}

func TestEventRelayKeysByAggregate(t *testing.T) {
	writer := &fakeWriter{}
	relay := NewEventRelay(writer, nil, fastRetry(1), quietLogger())

	publish := func(eventType string, payload any) {
		event, err := events.NewJSONEvent(eventType, payload)
		require.NoError(t, err)
		require.NoError(t, relay.write(context.Background(), &event))
	}
	publish(events.EventOrderCreated, events.OrderEventPayload{OrderID: 11, Status: "PENDING"})
	publish(events.EventOrderCancelled, events.OrderEventPayload{OrderID: 11, Status: "CANCELLED"})
	publish(events.EventBookingCreated, events.BookingEventPayload{BookingID: 4, Status: "PENDING"})

	_, msgs, _ := writer.snapshot()
	require.Len(t, msgs, 3)
	assert.Equal(t, []byte("order:11"), msgs[0].Key)
	assert.Equal(t, msgs[0].Key, msgs[1].Key)
	assert.Equal(t, []byte("booking:4"), msgs[2].Key)

	balancer := &kafka.Hash{}
	partitions := []int{0, 1, 2}
	assert.Equal(t,
		balancer.Balance(msgs[0], partitions...),
		balancer.Balance(msgs[1], partitions...),
		"create and cancel of one order share a partition")
}

func TestEventRelayDeadLetter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	writer := &fakeWriter{failures: 100}
	relay := NewEventRelay(writer, client, fastRetry(3), quietLogger())

	event := testEvent(t)
	relay.deliver(context.Background(), event)

	calls, _, _ := writer.snapshot()
	assert.Equal(t, 3, calls)

	items, err := client.LRange(context.Background(), deadLetterKey, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Contains(t, items[0], event.ID)
}

func TestEventRelayDeadLetterAfterCancel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	relay := NewEventRelay(&fakeWriter{failures: 100}, client, fastRetry(1), quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	relay.deliver(ctx, testEvent(t))

	items, err := client.LLen(context.Background(), deadLetterKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), items)
}

func TestEventRelayQueueFull(t *testing.T) {
	relay := NewEventRelay(&fakeWriter{}, nil, fastRetry(1), quietLogger())
	relay.queue = make(chan *events.Event, 1)

	require.NoError(t, relay.Handle(testEvent(t)))
	assert.ErrorIs(t, relay.Handle(testEvent(t)), ErrQueueFull)
}

func TestEventRelayFlushesOnStop(t *testing.T) {
	writer := &fakeWriter{}
	relay := NewEventRelay(writer, nil, fastRetry(1), quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		require.NoError(t, relay.Handle(testEvent(t)))
	}
	relay.Start(ctx)

	_, msgs, closed := writer.snapshot()
	assert.True(t, closed)
	assert.Len(t, msgs, 3)
}

func TestEventRelaySubscribedToBus(t *testing.T) {
	writer := &fakeWriter{}
	relay := NewEventRelay(writer, nil, fastRetry(1), quietLogger())

	bus := events.NewEventBus()
	bus.SubscribeAll(relay.Handle)
	require.NoError(t, bus.PublishJSON(events.EventBookingCreated, events.BookingEventPayload{BookingID: 1}))

	select {
	case event := <-relay.queue:
		assert.Equal(t, events.EventBookingCreated, event.Type)
	default:
		t.Fatal("event was not queued")
	}
}
