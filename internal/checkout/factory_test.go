package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/events"
	"github.com/example/storefront/internal/inventory"
	"github.com/example/storefront/internal/order"
)

// memOrderRepo is an in-memory order.Repository for factory tests.
type memOrderRepo struct {
	mu          sync.Mutex
	nextID      int64
	orders      map[int64]*order.Order
	createCalls int
	failCreate  error
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[int64]*order.Order)}
}

func (r *memOrderRepo) Create(ctx context.Context, o *order.Order, items []order.Item) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.failCreate != nil {
		return 0, r.failCreate
	}
	r.nextID++
	stored := *o
	stored.ID = r.nextID
	stored.Items = append([]order.Item(nil), items...)
	r.orders[stored.ID] = &stored
	return stored.ID, nil
}

func (r *memOrderRepo) FindByID(ctx context.Context, id int64) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

func (r *memOrderRepo) FindByUser(ctx context.Context, userID int64, f order.ListFilter) ([]*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*order.Order
	for _, o := range r.orders {
		if o.UserID != nil && *o.UserID == userID {
			result = append(result, o)
		}
	}
	return result, nil
}

func (r *memOrderRepo) FindByNumberAndEmail(ctx context.Context, number, email string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.OrderNumber == number && strings.EqualFold(o.CustomerEmail, email) {
			return o, nil
		}
	}
	return nil, order.ErrOrderNotFound
}

func (r *memOrderRepo) FindByIdempotencyKey(ctx context.Context, key string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.IdempotencyKey == key {
			return o, nil
		}
	}
	return nil, order.ErrOrderNotFound
}

func (r *memOrderRepo) UpdateStatus(ctx context.Context, id int64, status order.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	if o.Status.Terminal() {
		return order.ErrOrderClosed
	}
	o.Status = status
	return nil
}

// capturePublisher records published events.
type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(ctx context.Context, key string, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func newTestFactory() (*Factory, *catalog.MemoryCatalog, *inventory.MemoryLedger, *memOrderRepo, *capturePublisher) {
	cat := catalog.NewMemoryCatalog()
	ledger := inventory.NewMemoryLedger()
	repo := newMemOrderRepo()
	pub := &capturePublisher{}
	return NewFactory(cat, ledger, repo, pub), cat, ledger, repo, pub
}

func addProduct(cat *catalog.MemoryCatalog, ledger *inventory.MemoryLedger, p catalog.Product, stock int) {
	p.StockQuantity = stock
	if p.Status == "" {
		p.Status = catalog.StatusActive
	}
	cat.Put(&p)
	ledger.SetStock(p.ID, stock)
}

func intPtr(v int64) *int64 { return &v }

func validRequest() PlaceRequest {
	return PlaceRequest{
		Items:           []Line{{ProductID: 7, Quantity: 2, Price: 100}},
		CustomerName:    "Ada Lovelace",
		CustomerEmail:   "ada@example.com",
		CustomerPhone:   "+1 555-867-5309",
		ShippingAddress: "1 Analytical Way",
	}
}

// ============================================
// Validation Tests
// ============================================

func TestFactory_Place_EmptyItems(t *testing.T) {
	factory, _, ledger, repo, _ := newTestFactory()

	req := validRequest()
	req.Items = nil
	placed, err := factory.Place(context.Background(), req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Nil(t, placed)
	assert.Equal(t, 0, repo.createCalls)
	_ = ledger // nothing was ever registered, nothing to check
}

func TestFactory_Place_MissingContactFields(t *testing.T) {
	factory, cat, ledger, _, _ := newTestFactory()
	addProduct(cat, ledger, catalog.Product{ID: 7, Name: "Lamp", Price: 100}, 5)

	req := validRequest()
	req.CustomerName = ""
	req.CustomerPhone = ""
	placed, err := factory.Place(context.Background(), req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Nil(t, placed)
	assert.ElementsMatch(t, []string{"customer_name", "customer_phone"}, verr.Fields)
	assert.Equal(t, 5, ledger.Stock(7), "validation failures must not touch stock")
}

func TestFactory_Place_InvalidEmail(t *testing.T) {
	factory, cat, ledger, repo, _ := newTestFactory()
	addProduct(cat, ledger, catalog.Product{ID: 7, Name: "Lamp", Price: 100}, 5)

	req := validRequest()
	req.CustomerEmail = "not-an-email"
	placed, err := factory.Place(context.Background(), req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Nil(t, placed)
	assert.Empty(t, verr.Fields, "a malformed email is not a missing field")
	assert.Equal(t, 5, ledger.Stock(7))
	assert.Equal(t, 0, repo.createCalls)
}

func TestFactory_Place_InvalidPhone(t *testing.T) {
	factory, cat, ledger, _, _ := newTestFactory()
	addProduct(cat, ledger, catalog.Product{ID: 7, Name: "Lamp", Price: 100}, 5)

	req := validRequest()
	req.CustomerPhone = "abc"
	_, err := factory.Place(context.Background(), req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestFactory_Place_NonPositiveQuantity(t *testing.T) {
	factory, cat, ledger, _, _ := newTestFactory()
	addProduct(cat, ledger, catalog.Product{ID: 7, Name: "Lamp", Price: 100}, 5)

	req := validRequest()
	req.Items = []Line{{ProductID: 7, Quantity: 0}}
	_, err := factory.Place(context.Background(), req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 5, ledger.Stock(7))
}

// ============================================
// Availability Tests
// ============================================

func TestFactory_Place_UnknownProduct(t *testing.T) {
	factory, cat, ledger, repo, _ := newTestFactory()
	addProduct(cat, ledger, catalog.Product{ID: 7, Name: "Lamp", Price: 100}, 5)

	req := validRequest()
	req.Items = append(req.Items, Line{ProductID: 999, Quantity: 1})
	placed, err := factory.Place(context.Background(), req)

	var uerr *ProductUnavailableError
	require.ErrorAs(t, err, &uerr)
	assert.Nil(t, placed)
	assert.Equal(t, []int64{999}, uerr.ProductIDs)
	assert.Equal(t, 5, ledger.Stock(7))
	assert.Equal(t, 0, repo.createCalls)
}

func TestFactory_Place_InactiveProduct(t *testing.T) {
	factory, cat, ledger, _, _ := newTestFactory()
	addProduct(cat, ledger, catalog.Product{ID: 7, Name: "Lamp", Price: 100, Status: catalog.StatusInactive}, 5)

	_, err := factory.Place(context.Background(), validRequest())

	var uerr *ProductUnavailableError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, []int64{7}, uerr.ProductIDs)
}

// ============================================
// Stock Tests
// ============================================

func TestFactory_Place_InsufficientStock(t *testing.T) {
	factory, cat, ledger, repo, _ := newTestFactory()
	addProduct(cat, ledger, catalog.Product{ID: 7, Name: "Lamp", Price: 100}, 1)

	placed, err := factory.Place(context.Background(), validRequest()) // wants 2

	var stockErr *inventory.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Nil(t, placed)
	require.Len(t, stockErr.Shortages, 1)
	assert.Equal(t, int64(7), stockErr.Shortages[0].ProductID)
	assert.Equal(t, 2, stockErr.Shortages[0].Requested)
	assert.Equal(t, 1, stockErr.Shortages[0].Available)

	assert.Equal(t, 1, ledger.Stock(7), "failed reservation must not change stock")
	assert.Equal(t, 0, repo.createCalls)
}

// ============================================
// Success Tests
// ============================================

func TestFactory_Place_LivePriceWins(t *testing.T) {
	// Cart says price 100, but the live sale price is 90: the order totals
	// 180 and stock drops from 5 to 3.
	factory, cat, ledger, repo, pub := newTestFactory()
	addProduct(cat, ledger, catalog.Product{ID: 7, Name: "Lamp", SKU: "LMP-7", Price: 100, SalePrice: intPtr(90)}, 5)

	placed, err := factory.Place(context.Background(), validRequest())

	require.NoError(t, err)
	require.NotNil(t, placed)
	assert.Equal(t, int64(180), placed.TotalAmount)
	require.Len(t, placed.Items, 1)
	assert.Equal(t, int64(90), placed.Items[0].UnitPrice)
	assert.Equal(t, int64(180), placed.Items[0].Total)
	assert.Equal(t, "Lamp", placed.Items[0].ProductName)
	assert.Equal(t, "LMP-7", placed.Items[0].SKU)
	assert.Equal(t, order.StatusPending, placed.Status)
	assert.True(t, strings.HasPrefix(placed.OrderNumber, "ORD-"))
	assert.Len(t, placed.OrderNumber, len("ORD-")+12)
	assert.Nil(t, placed.UserID, "no user id means a guest order")

	assert.Equal(t, 3, ledger.Stock(7))
	assert.Equal(t, 1, repo.createCalls)
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypeOrderPlaced, pub.events[0].Type)
}

func TestFactory_Place_TotalsMatchItems(t *testing.T) {
	factory, cat, ledger, _, _ := newTestFactory()
	addProduct(cat, ledger, catalog.Product{ID: 1, Name: "Mug", Price: 500}, 10)
	addProduct(cat, ledger, catalog.Product{ID: 2, Name: "Shirt", Price: 2000, SalePrice: intPtr(1500)}, 10)

	req := validRequest()
	req.Items = []Line{
		{ProductID: 1, Quantity: 3, Price: 1},
		{ProductID: 2, Quantity: 2, Price: 1},
	}
	req.UserID = intPtr(42)
	placed, err := factory.Place(context.Background(), req)

	require.NoError(t, err)
	var sum int64
	for _, item := range placed.Items {
		assert.Equal(t, item.UnitPrice*int64(item.Quantity), item.Total)
		sum += item.Total
	}
	assert.Equal(t, sum, placed.TotalAmount)
	assert.Equal(t, int64(4500), placed.TotalAmount)
	require.NotNil(t, placed.UserID)
	assert.Equal(t, int64(42), *placed.UserID)
}

func TestFactory_Place_DuplicateLinesCollapse(t *testing.T) {
	factory, cat, ledger, _, _ := newTestFactory()
	addProduct(cat, ledger, catalog.Product{ID: 1, Name: "Mug", Price: 500}, 10)

	req := validRequest()
	req.Items = []Line{
		{ProductID: 1, Quantity: 1},
		{ProductID: 1, Quantity: 2},
	}
	placed, err := factory.Place(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, placed.Items, 1)
	assert.Equal(t, 3, placed.Items[0].Quantity)
	assert.Equal(t, 7, ledger.Stock(1))
}

// ============================================
// Compensation Tests
// ============================================

func TestFactory_Place_PersistFailureReleasesStock(t *testing.T) {
	factory, cat, ledger, repo, pub := newTestFactory()
	addProduct(cat, ledger, catalog.Product{ID: 7, Name: "Lamp", Price: 100}, 5)
	repo.failCreate = errors.New("connection reset")

	placed, err := factory.Place(context.Background(), validRequest())

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Nil(t, placed)
	assert.Equal(t, 5, ledger.Stock(7), "reservation must be released after a failed write")
	assert.Empty(t, pub.events)
}

// ============================================
// Idempotency Tests
// ============================================

func TestFactory_Place_IdempotencyKeyReplay(t *testing.T) {
	factory, cat, ledger, repo, _ := newTestFactory()
	addProduct(cat, ledger, catalog.Product{ID: 7, Name: "Lamp", Price: 100}, 5)

	req := validRequest()
	req.IdempotencyKey = "attempt-1"

	first, err := factory.Place(context.Background(), req)
	require.NoError(t, err)

	second, err := factory.Place(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.OrderNumber, second.OrderNumber)
	assert.Equal(t, 1, repo.createCalls, "replay must not create a second order")
	assert.Equal(t, 3, ledger.Stock(7), "replay must not decrement stock twice")
}

// ============================================
// Order Number Tests
// ============================================

func TestNewOrderNumber_Format(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		n := newOrderNumber()
		assert.True(t, strings.HasPrefix(n, "ORD-"))
		assert.Len(t, n, len("ORD-")+12)
		assert.Equal(t, strings.ToUpper(n), n)
		assert.False(t, seen[n], "order numbers should not repeat")
		seen[n] = true
	}
}
