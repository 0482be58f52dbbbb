package cart

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrProductUnavailable = errors.New("product is unavailable")

	// ErrAnonymousOwner is returned by stores that only persist carts for
	// authenticated shoppers.
	ErrAnonymousOwner = errors.New("store does not hold anonymous carts")
)

// Owner identifies who a cart belongs to: an authenticated user or an
// anonymous browser session. Cart logic is written once against Owner; only
// the persistence backing differs.
type Owner struct {
	userID    int64
	sessionID string
}

func Authenticated(userID int64) Owner {
	return Owner{userID: userID}
}

func Anonymous(sessionID string) Owner {
	return Owner{sessionID: sessionID}
}

func (o Owner) IsAuthenticated() bool { return o.userID > 0 }

// UserID returns the owning user id, valid only when IsAuthenticated.
func (o Owner) UserID() int64 { return o.userID }

// Key returns an opaque identity usable as a map or cache key.
func (o Owner) Key() string {
	if o.IsAuthenticated() {
		return fmt.Sprintf("user:%d", o.userID)
	}
	return "session:" + o.sessionID
}

// Item is a pending-purchase line. PriceSnapshot is the effective price at
// add-time; checkout always re-reads live prices and never trusts it.
type Item struct {
	ProductID     int64 `json:"product_id"`
	Quantity      int   `json:"quantity"`
	PriceSnapshot int64 `json:"price_snapshot"`
}

// Summary totals a cart against live catalog prices. Shipping is free in this
// design, so Total always equals Subtotal.
type Summary struct {
	ItemCount int   `json:"item_count"`
	Subtotal  int64 `json:"subtotal"`
	Shipping  int64 `json:"shipping"`
	Total     int64 `json:"total"`
}

// Store holds cart line items per owner. One line per product per cart:
// adding an already-present product increments its quantity.
type Store interface {
	// Add puts quantity units of a product in the cart, incrementing any
	// existing line. It verifies the product exists and is active but does
	// not check stock; stock is re-checked at checkout.
	Add(ctx context.Context, owner Owner, productID int64, quantity int) error

	// SetQuantity replaces a line's quantity. Zero removes the line and is
	// a no-op when the line does not exist.
	SetQuantity(ctx context.Context, owner Owner, productID int64, quantity int) error

	// Remove deletes a line. Absence is not an error.
	Remove(ctx context.Context, owner Owner, productID int64) error

	// Clear deletes every line for the owner.
	Clear(ctx context.Context, owner Owner) error

	// Items returns the owner's lines.
	Items(ctx context.Context, owner Owner) ([]Item, error)

	// Summarize totals the cart using live effective prices.
	Summarize(ctx context.Context, owner Owner) (*Summary, error)
}
