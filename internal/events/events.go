package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const TypeOrderPlaced = "OrderPlaced"

// Event is the envelope every published message uses.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// OrderPlaced is emitted after an order and its stock reservation are both
// committed. Downstream consumers (the notifier) must not assume more than
// at-least-once delivery.
type OrderPlaced struct {
	OrderID       int64             `json:"order_id"`
	OrderNumber   string            `json:"order_number"`
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	TotalAmount   int64             `json:"total_amount"`
	Items         []OrderPlacedItem `json:"items"`
}

type OrderPlacedItem struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

// New wraps a payload in an envelope.
func New(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now(),
		Data:       data,
	}, nil
}

// Publisher delivers events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, key string, event Event) error
}
