package catalog

import (
	"context"
	"errors"
	"time"
)

var ErrProductNotFound = errors.New("product not found")

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDraft    Status = "draft"
)

// Product is the catalog's view of a sellable item. Prices are in minor
// currency units.
type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku"`
	Description   string    `json:"description"`
	Price         int64     `json:"price"`
	SalePrice     *int64    `json:"sale_price,omitempty"`
	StockQuantity int       `json:"stock_quantity"`
	Status        Status    `json:"status"`
	Images        []string  `json:"images,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// EffectivePrice is the sale price when one is set, otherwise the list price.
func (p *Product) EffectivePrice() int64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// Available reports whether the product can be sold right now.
func (p *Product) Available() bool {
	return p.Status == StatusActive
}

// Catalog is a read-only source of product data.
type Catalog interface {
	// Product returns the product with the given id, or ErrProductNotFound.
	Product(ctx context.Context, id int64) (*Product, error)

	// Products returns the products for the given ids, keyed by id.
	// Missing ids are simply absent from the result.
	Products(ctx context.Context, ids []int64) (map[int64]*Product, error)
}
