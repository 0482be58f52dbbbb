package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrInvalidQuantity = errors.New("reservation quantity must be positive")

// Reservation maps product ids to the number of units to reserve.
type Reservation map[int64]int

// Shortage describes one product that could not cover a reservation.
type Shortage struct {
	ProductID int64 `json:"product_id"`
	Requested int   `json:"requested"`
	Available int   `json:"available"`
}

// InsufficientStockError lists every short product in a failed reservation,
// so callers can report exactly what was missing.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = fmt.Sprintf("product %d (requested %d, available %d)", s.ProductID, s.Requested, s.Available)
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

// Ledger is the authority on per-product available stock. Reserve is the only
// serialization point for concurrent checkouts of the same product.
type Ledger interface {
	// Reserve atomically checks and decrements stock for every entry.
	// All-or-nothing: if any product is short, no stock changes and the
	// returned error is an *InsufficientStockError naming every shortage.
	Reserve(ctx context.Context, r Reservation) error

	// Release adds reserved quantities back. It exists to compensate a
	// failed step downstream of a successful Reserve.
	Release(ctx context.Context, r Reservation) error
}

// sortedIDs returns the reservation's product ids in ascending order, so
// concurrent batches touch rows in the same order and cannot deadlock.
func sortedIDs(r Reservation) []int64 {
	ids := make([]int64, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func validate(r Reservation) error {
	if len(r) == 0 {
		return errors.New("empty reservation")
	}
	for _, quantity := range r {
		if quantity < 1 {
			return ErrInvalidQuantity
		}
	}
	return nil
}
