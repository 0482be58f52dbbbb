package order

import (
	"context"
	"errors"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")
	ErrOrderClosed   = errors.New("order is in a terminal status")
)

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Order is created once by checkout and is immutable afterwards except for
// Status, which admins move along pending → confirmed → processing → shipped
// → delivered, with cancelled reachable from any non-terminal state.
type Order struct {
	ID              int64     `json:"id"`
	OrderNumber     string    `json:"order_number"`
	Status          Status    `json:"status"`
	TotalAmount     int64     `json:"total_amount"`
	CustomerName    string    `json:"customer_name"`
	CustomerEmail   string    `json:"customer_email"`
	CustomerPhone   string    `json:"customer_phone"`
	ShippingAddress string    `json:"shipping_address"`
	BillingAddress  string    `json:"billing_address,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	UserID          *int64    `json:"user_id"` // nil means guest order
	IdempotencyKey  string    `json:"-"`
	Items           []Item    `json:"items,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// CanTransitionTo reports whether an admin may move the order to target.
// Any enumerated status is accepted while the order is open; delivered and
// cancelled are terminal.
func (o *Order) CanTransitionTo(target Status) bool {
	return target.Valid() && !o.Status.Terminal()
}

// Item is a point-in-time copy of the purchased product. Name, SKU and
// images are denormalized so the order stays readable after the product is
// renamed or deleted.
type Item struct {
	ID          int64    `json:"id"`
	OrderID     int64    `json:"order_id"`
	ProductID   int64    `json:"product_id"`
	ProductName string   `json:"product_name"`
	SKU         string   `json:"sku"`
	Images      []string `json:"images,omitempty"`
	Quantity    int      `json:"quantity"`
	UnitPrice   int64    `json:"unit_price"`
	Total       int64    `json:"total"`
}

// ListFilter narrows and pages a user's order listing.
type ListFilter struct {
	Status Status
	Page   int
	Limit  int
}

// Repository is the append-only home of orders after checkout creates them.
type Repository interface {
	// Create persists the order and all of its items atomically and
	// returns the new order id. Either everything exists afterwards or
	// nothing does.
	Create(ctx context.Context, o *Order, items []Item) (int64, error)

	FindByID(ctx context.Context, id int64) (*Order, error)

	// FindByUser returns the user's orders newest-first with items embedded.
	FindByUser(ctx context.Context, userID int64, filter ListFilter) ([]*Order, error)

	// FindByNumberAndEmail looks up a guest order. The email must match the
	// order's contact email, so order numbers alone cannot be enumerated.
	FindByNumberAndEmail(ctx context.Context, orderNumber, email string) (*Order, error)

	// FindByIdempotencyKey returns the order created under a checkout
	// idempotency key, or ErrOrderNotFound.
	FindByIdempotencyKey(ctx context.Context, key string) (*Order, error)

	// UpdateStatus sets the order status. Terminal orders return
	// ErrOrderClosed.
	UpdateStatus(ctx context.Context, id int64, status Status) error
}
