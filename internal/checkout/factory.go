package checkout

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/lib/pq"

	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/events"
	"github.com/example/storefront/internal/inventory"
	"github.com/example/storefront/internal/order"
)

// Line is one requested order line. Price is whatever the client last saw;
// it is informational only and never used for totals.
type Line struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	Price     int64 `json:"price"`
}

// PlaceRequest carries a cart snapshot plus fulfillment and contact details.
// A nil UserID means a guest order.
type PlaceRequest struct {
	Items           []Line `json:"items"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	ShippingAddress string `json:"shipping_address"`
	BillingAddress  string `json:"billing_address,omitempty"`
	Notes           string `json:"notes,omitempty"`
	UserID          *int64 `json:"user_id"`
	IdempotencyKey  string `json:"-"`
}

// Factory turns a cart snapshot into a persisted order with stock correctly
// decremented exactly once. Every failure before the repository write leaves
// no side effects; a write failure after reservation is compensated by
// releasing the reservation.
type Factory struct {
	catalog   catalog.Catalog
	ledger    inventory.Ledger
	orders    order.Repository
	publisher events.Publisher // optional
}

func NewFactory(c catalog.Catalog, l inventory.Ledger, r order.Repository, p events.Publisher) *Factory {
	return &Factory{catalog: c, ledger: l, orders: r, publisher: p}
}

// Place validates the request, reserves stock for every line in one atomic
// batch, and persists the order. Errors are *ValidationError,
// *ProductUnavailableError, *inventory.InsufficientStockError or
// *PersistenceError.
func (f *Factory) Place(ctx context.Context, req PlaceRequest) (*order.Order, error) {
	if len(req.Items) == 0 {
		return nil, &ValidationError{Reason: "order must contain at least one item"}
	}
	if verr := validateContact(req); verr != nil {
		return nil, verr
	}
	for _, line := range req.Items {
		if line.Quantity < 1 {
			return nil, &ValidationError{Reason: "item quantity must be at least 1"}
		}
	}

	// A replayed checkout attempt returns the order it already created
	// instead of decrementing stock a second time.
	if req.IdempotencyKey != "" {
		prev, err := f.orders.FindByIdempotencyKey(ctx, req.IdempotencyKey)
		if err == nil {
			return prev, nil
		}
		if !errors.Is(err, order.ErrOrderNotFound) {
			return nil, &PersistenceError{Err: err}
		}
	}

	// Re-fetch every product live; client-supplied price and availability
	// are never trusted.
	ids := make([]int64, 0, len(req.Items))
	for _, line := range req.Items {
		ids = append(ids, line.ProductID)
	}
	products, err := f.catalog.Products(ctx, ids)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}

	var unavailable []int64
	for _, line := range req.Items {
		p, ok := products[line.ProductID]
		if !ok || !p.Available() {
			unavailable = append(unavailable, line.ProductID)
		}
	}
	if len(unavailable) > 0 {
		return nil, &ProductUnavailableError{ProductIDs: unavailable}
	}

	// Duplicate lines for the same product collapse into one reservation
	// entry and one order item.
	reservation := inventory.Reservation{}
	for _, line := range req.Items {
		reservation[line.ProductID] += line.Quantity
	}

	var items []order.Item
	var total int64
	seen := make(map[int64]bool, len(reservation))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		quantity := reservation[id]

		p := products[id]
		unit := p.EffectivePrice()
		items = append(items, order.Item{
			ProductID:   id,
			ProductName: p.Name,
			SKU:         p.SKU,
			Images:      p.Images,
			Quantity:    quantity,
			UnitPrice:   unit,
			Total:       unit * int64(quantity),
		})
		total += unit * int64(quantity)
	}

	// Single all-or-nothing reservation across every line. This is the only
	// point where concurrent checkouts of the same product serialize.
	if err := f.ledger.Reserve(ctx, reservation); err != nil {
		return nil, err
	}

	o := &order.Order{
		OrderNumber:     newOrderNumber(),
		Status:          order.StatusPending,
		TotalAmount:     total,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Notes:           req.Notes,
		UserID:          req.UserID,
		IdempotencyKey:  req.IdempotencyKey,
		CreatedAt:       time.Now(),
	}

	orderID, err := f.orders.Create(ctx, o, items)
	if err != nil && isOrderNumberConflict(err) {
		o.OrderNumber = newOrderNumber()
		orderID, err = f.orders.Create(ctx, o, items)
	}
	if err != nil {
		f.compensate(reservation)
		return nil, &PersistenceError{Err: err}
	}

	o.ID = orderID
	for i := range items {
		items[i].OrderID = orderID
	}
	o.Items = items

	f.publishPlaced(ctx, o)
	return o, nil
}

// compensate releases a reservation after a failed order write. It runs on
// its own context so a caller disconnect cannot skip the release.
func (f *Factory) compensate(reservation inventory.Reservation) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := f.ledger.Release(ctx, reservation); err != nil {
		log.Printf("[Checkout] Failed to release reservation %v: %v", reservation, err)
	}
}

func (f *Factory) publishPlaced(ctx context.Context, o *order.Order) {
	if f.publisher == nil {
		return
	}

	payload := events.OrderPlaced{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		TotalAmount:   o.TotalAmount,
	}
	for _, item := range o.Items {
		payload.Items = append(payload.Items, events.OrderPlacedItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	event, err := events.New(events.TypeOrderPlaced, payload)
	if err != nil {
		log.Printf("[Checkout] Failed to build OrderPlaced event: %v", err)
		return
	}
	// Best effort: the order is already committed.
	if err := f.publisher.Publish(ctx, o.OrderNumber, event); err != nil {
		log.Printf("[Checkout] Failed to publish OrderPlaced for %s: %v", o.OrderNumber, err)
	}
}

func isOrderNumberConflict(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "orders_order_number_key"
}
