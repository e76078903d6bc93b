package events

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated         = "order_created"
	EventOrderCancelled       = "order_cancelled"
	EventOrderStatusChanged   = "order_status_changed"
	EventOrderDeleted         = "order_deleted"
	EventBookingCreated       = "booking_created"
	EventBookingCancelled     = "booking_cancelled"
	EventBookingStatusChanged = "booking_status_changed"
	EventBookingDeleted       = "booking_deleted"
)

// OrderEventPayload is the order snapshot sent to consumers.
type OrderEventPayload struct {
	OrderID    int64           `json:"order_id"`
	UserID     int64           `json:"user_id"`
	Status     string          `json:"status"`
	PrevStatus string          `json:"prev_status,omitempty"`
	TotalPrice decimal.Decimal `json:"total_price"`
	TotalItems int             `json:"total_items"`
	ChangedBy  int64           `json:"changed_by,omitempty"`
}

// BookingEventPayload is the booking snapshot sent to consumers.
type BookingEventPayload struct {
	BookingID  int64           `json:"booking_id"`
	UserID     int64           `json:"user_id"`
	RoomID     int64           `json:"room_id"`
	RoomName   string          `json:"room_name"`
	Status     string          `json:"status"`
	PrevStatus string          `json:"prev_status,omitempty"`
	CheckIn    string          `json:"check_in"`
	CheckOut   string          `json:"check_out"`
	TotalPrice decimal.Decimal `json:"total_price"`
	ChangedBy  int64           `json:"changed_by,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	wildcard    []EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler that receives every event.
func (b *EventBus) SubscribeAll(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcard = append(b.wildcard, handler)
}

// Publish notifies subscribers of the event type. Every handler runs and the
// first handler error is returned.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.wildcard...)
	b.mu.RUnlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	var first error
	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	return b.Publish(&event)
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{ID: uuid.NewString(), Type: eventType, Payload: raw, CreatedAt: time.Now().UTC()}, nil
}

// PartitionKey keys an event by the order or booking it belongs to, so every
// event of one aggregate lands on the same partition in publish order.
// Events without an aggregate id fall back to their type.
func PartitionKey(event *Event) []byte {
	var ids struct {
		OrderID   int64 `json:"order_id"`
		BookingID int64 `json:"booking_id"`
	}
	if err := json.Unmarshal(event.Payload, &ids); err == nil {
		switch {
		case ids.OrderID > 0:
			return []byte("order:" + strconv.FormatInt(ids.OrderID, 10))
		case ids.BookingID > 0:
			return []byte("booking:" + strconv.FormatInt(ids.BookingID, 10))
		}
	}
	return []byte(event.Type)
}
