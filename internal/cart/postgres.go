package cart

import (
	"context"
	"database/sql"

	"github.com/example/storefront/internal/catalog"
)

// PostgresStore persists carts for authenticated shoppers, one row per
// (user, product). Anonymous carts live client-side and never reach it.
type PostgresStore struct {
	db      *sql.DB
	catalog catalog.Catalog
}

func NewPostgresStore(db *sql.DB, c catalog.Catalog) *PostgresStore {
	return &PostgresStore{db: db, catalog: c}
}

func (s *PostgresStore) Add(ctx context.Context, owner Owner, productID int64, quantity int) error {
	if !owner.IsAuthenticated() {
		return ErrAnonymousOwner
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	p, err := s.catalog.Product(ctx, productID)
	if err != nil || !p.Available() {
		return ErrProductUnavailable
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity, price_snapshot, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id, product_id) DO UPDATE SET
			quantity = cart_items.quantity + EXCLUDED.quantity,
			updated_at = now()
	`, owner.UserID(), productID, quantity, p.EffectivePrice())
	return err
}

func (s *PostgresStore) SetQuantity(ctx context.Context, owner Owner, productID int64, quantity int) error {
	if !owner.IsAuthenticated() {
		return ErrAnonymousOwner
	}
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.Remove(ctx, owner, productID)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $1, updated_at = now()
		WHERE user_id = $2 AND product_id = $3
	`, quantity, owner.UserID(), productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.Add(ctx, owner, productID, quantity)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, owner Owner, productID int64) error {
	if !owner.IsAuthenticated() {
		return ErrAnonymousOwner
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2
	`, owner.UserID(), productID)
	return err
}

func (s *PostgresStore) Clear(ctx context.Context, owner Owner) error {
	if !owner.IsAuthenticated() {
		return ErrAnonymousOwner
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE user_id = $1
	`, owner.UserID())
	return err
}

func (s *PostgresStore) Items(ctx context.Context, owner Owner) ([]Item, error) {
	if !owner.IsAuthenticated() {
		return nil, ErrAnonymousOwner
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, quantity, price_snapshot
		FROM cart_items WHERE user_id = $1
		ORDER BY product_id
	`, owner.UserID())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.PriceSnapshot); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) Summarize(ctx context.Context, owner Owner) (*Summary, error) {
	items, err := s.Items(ctx, owner)
	if err != nil {
		return nil, err
	}
	return summarize(ctx, s.catalog, items)
}
