package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
)

// PostgresRepository stores orders and order items as relational rows.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, o *Order, items []Item) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create order: %w", err)
	}
	defer tx.Rollback()

	var idempotencyKey sql.NullString
	if o.IdempotencyKey != "" {
		idempotencyKey = sql.NullString{String: o.IdempotencyKey, Valid: true}
	}

	var orderID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (order_number, status, total_amount, customer_name,
			customer_email, customer_phone, shipping_address, billing_address,
			notes, user_id, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, o.OrderNumber, o.Status, o.TotalAmount, o.CustomerName, o.CustomerEmail,
		o.CustomerPhone, o.ShippingAddress, o.BillingAddress, o.Notes, o.UserID,
		idempotencyKey, o.CreatedAt).Scan(&orderID)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	for i := range items {
		imagesJSON, _ := json.Marshal(items[i].Images)
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, sku,
				images, quantity, unit_price, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`, orderID, items[i].ProductID, items[i].ProductName, items[i].SKU,
			imagesJSON, items[i].Quantity, items[i].UnitPrice, items[i].Total).Scan(&items[i].ID)
		if err != nil {
			return 0, fmt.Errorf("insert order item: %w", err)
		}
		items[i].OrderID = orderID
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create order: %w", err)
	}
	return orderID, nil
}

const orderColumns = `id, order_number, status, total_amount, customer_name,
	customer_email, customer_phone, shipping_address, billing_address, notes,
	user_id, created_at`

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1
	`, id)
	return r.scanWithItems(ctx, row)
}

func (r *PostgresRepository) FindByNumberAndEmail(ctx context.Context, orderNumber, email string) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE order_number = $1 AND lower(customer_email) = lower($2)
	`, orderNumber, email)
	return r.scanWithItems(ctx, row)
}

func (r *PostgresRepository) FindByIdempotencyKey(ctx context.Context, key string) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE idempotency_key = $1
	`, key)
	return r.scanWithItems(ctx, row)
}

func (r *PostgresRepository) FindByUser(ctx context.Context, userID int64, filter ListFilter) ([]*Order, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1`
	args := []any{userID}
	if filter.Status != "" {
		query += ` AND status = $2`
		args = append(args, filter.Status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, o := range orders {
		items, err := r.itemsFor(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		o.Items = items
	}
	return orders, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1
		WHERE id = $2 AND status NOT IN ($3, $4)
	`, status, id, StatusDelivered, StatusCancelled)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 1 {
		return nil
	}

	// Distinguish a closed order from a missing one.
	var current Status
	err = r.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}
	return ErrOrderClosed
}

func (r *PostgresRepository) scanWithItems(ctx context.Context, row *sql.Row) (*Order, error) {
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.itemsFor(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *PostgresRepository) itemsFor(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, sku, images, quantity, unit_price, total
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var imagesJSON []byte
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.SKU, &imagesJSON, &item.Quantity, &item.UnitPrice, &item.Total)
		if err != nil {
			return nil, err
		}
		if len(imagesJSON) > 0 {
			if err := json.Unmarshal(imagesJSON, &item.Images); err != nil {
				log.Printf("[Orders] Bad images payload on item %d: %v", item.ID, err)
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	var userID sql.NullInt64
	err := row.Scan(&o.ID, &o.OrderNumber, &o.Status, &o.TotalAmount,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.ShippingAddress,
		&o.BillingAddress, &o.Notes, &userID, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		o.UserID = &userID.Int64
	}
	return &o, nil
}
