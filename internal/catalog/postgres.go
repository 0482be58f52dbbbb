package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"

	"github.com/lib/pq"
)

// PostgresCatalog reads products from the products table.
type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

const productColumns = `id, name, sku, description, price, sale_price, stock_quantity, status, images, created_at`

func (c *PostgresCatalog) Product(ctx context.Context, id int64) (*Product, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products WHERE id = $1
	`, id)

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (c *PostgresCatalog) Products(ctx context.Context, ids []int64) (map[int64]*Product, error) {
	if len(ids) == 0 {
		return map[int64]*Product{}, nil
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[int64]*Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			log.Printf("[Catalog] Error scanning product: %v", err)
			continue
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var p Product
	var salePrice sql.NullInt64
	var imagesJSON []byte

	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Description, &p.Price,
		&salePrice, &p.StockQuantity, &p.Status, &imagesJSON, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	if salePrice.Valid {
		p.SalePrice = &salePrice.Int64
	}
	if len(imagesJSON) > 0 {
		// Images are stored as a JSON-encoded array.
		if err := json.Unmarshal(imagesJSON, &p.Images); err != nil {
			log.Printf("[Catalog] Bad images payload for product %d: %v", p.ID, err)
		}
	}
	return &p, nil
}
