package catalog

import (
	"context"
	"sync"
)

// MemoryCatalog is an in-memory Catalog used in tests and dev mode.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[int64]*Product
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{products: make(map[int64]*Product)}
}

// Put stores or replaces a product.
func (c *MemoryCatalog) Put(p *Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *p
	c.products[p.ID] = &cp
}

func (c *MemoryCatalog) Product(ctx context.Context, id int64) (*Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (c *MemoryCatalog) Products(ctx context.Context, ids []int64) (map[int64]*Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make(map[int64]*Product, len(ids))
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			cp := *p
			result[id] = &cp
		}
	}
	return result, nil
}
