package inventory

import (
	"context"
	"sync"
)

// MemoryLedger keeps stock counts under a single mutex so the check and
// decrement of a batch are indivisible. Used in tests and dev mode.
type MemoryLedger struct {
	mu    sync.Mutex
	stock map[int64]int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{stock: make(map[int64]int)}
}

// SetStock sets the available quantity for a product.
func (l *MemoryLedger) SetStock(productID int64, quantity int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stock[productID] = quantity
}

// Stock returns the available quantity for a product.
func (l *MemoryLedger) Stock(productID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stock[productID]
}

func (l *MemoryLedger) Reserve(ctx context.Context, r Reservation) error {
	if err := validate(r); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var shortages []Shortage
	for _, id := range sortedIDs(r) {
		if available := l.stock[id]; available < r[id] {
			shortages = append(shortages, Shortage{ProductID: id, Requested: r[id], Available: available})
		}
	}
	if len(shortages) > 0 {
		return &InsufficientStockError{Shortages: shortages}
	}

	for id, quantity := range r {
		l.stock[id] -= quantity
	}
	return nil
}

func (l *MemoryLedger) Release(ctx context.Context, r Reservation) error {
	if err := validate(r); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for id, quantity := range r {
		l.stock[id] += quantity
	}
	return nil
}
