package cart

import (
	"context"
	"sort"
	"sync"

	"github.com/example/storefront/internal/catalog"
)

// SessionStore keeps carts in memory keyed by owner identity. It backs
// anonymous sessions when a deployment wants server-held guest carts, and it
// is the Store used in tests.
type SessionStore struct {
	catalog catalog.Catalog

	mu    sync.RWMutex
	carts map[string]map[int64]Item // owner key -> productID -> item
}

func NewSessionStore(c catalog.Catalog) *SessionStore {
	return &SessionStore{
		catalog: c,
		carts:   make(map[string]map[int64]Item),
	}
}

func (s *SessionStore) Add(ctx context.Context, owner Owner, productID int64, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	p, err := s.catalog.Product(ctx, productID)
	if err != nil || !p.Available() {
		return ErrProductUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[owner.Key()]
	if items == nil {
		items = make(map[int64]Item)
		s.carts[owner.Key()] = items
	}

	if existing, ok := items[productID]; ok {
		existing.Quantity += quantity
		items[productID] = existing
		return nil
	}
	items[productID] = Item{
		ProductID:     productID,
		Quantity:      quantity,
		PriceSnapshot: p.EffectivePrice(),
	}
	return nil
}

func (s *SessionStore) SetQuantity(ctx context.Context, owner Owner, productID int64, quantity int) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.Remove(ctx, owner, productID)
	}

	s.mu.Lock()
	if items, ok := s.carts[owner.Key()]; ok {
		if existing, ok := items[productID]; ok {
			existing.Quantity = quantity
			items[productID] = existing
			s.mu.Unlock()
			return nil
		}
	}
	s.mu.Unlock()

	// No existing line; treat as a fresh add so availability is checked.
	return s.Add(ctx, owner, productID, quantity)
}

func (s *SessionStore) Remove(ctx context.Context, owner Owner, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if items, ok := s.carts[owner.Key()]; ok {
		delete(items, productID)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context, owner Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, owner.Key())
	return nil
}

func (s *SessionStore) Items(ctx context.Context, owner Owner) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]Item, 0, len(s.carts[owner.Key()]))
	for _, item := range s.carts[owner.Key()] {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items, nil
}

func (s *SessionStore) Summarize(ctx context.Context, owner Owner) (*Summary, error) {
	items, err := s.Items(ctx, owner)
	if err != nil {
		return nil, err
	}
	return summarize(ctx, s.catalog, items)
}

// summarize totals lines against live catalog prices, not stale snapshots.
// Lines whose product has disappeared are left out of the totals.
func summarize(ctx context.Context, c catalog.Catalog, items []Item) (*Summary, error) {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := c.Products(ctx, ids)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok {
			continue
		}
		summary.ItemCount += item.Quantity
		summary.Subtotal += p.EffectivePrice() * int64(item.Quantity)
	}
	summary.Total = summary.Subtotal + summary.Shipping
	return summary, nil
}
