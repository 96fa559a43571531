package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"support-agent/internal/domain"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		customer_key TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_number TEXT PRIMARY KEY,
		customer_key TEXT NOT NULL REFERENCES customers(customer_key) ON DELETE CASCADE,
		shopify_order_name TEXT NOT NULL DEFAULT '',
		order_status TEXT NOT NULL DEFAULT '',
		payment_status INTEGER NOT NULL DEFAULT 0,
		payment_method TEXT NOT NULL DEFAULT '',
		total_amount REAL NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT '',
		delivery_status TEXT NOT NULL DEFAULT '',
		merchant_name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_key)`,
	`CREATE TABLE IF NOT EXISTS refunds (
		order_number TEXT NOT NULL REFERENCES orders(order_number) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		refund_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		amount REAL NOT NULL DEFAULT 0,
		arn_number TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT '',
		refunded_at TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (order_number, position)
	)`,
}

// OpenDB opens a SQLite database at the given path and runs migrations.
// ":memory:" gives a private in-memory database.
func OpenDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("repository: creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("repository: opening database: %w", err)
	}
	// Pragmas are per connection, and every :memory: connection is its own
	// database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: enabling foreign keys: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: running migrations: %w", err)
	}
	return db, nil
}

// Migrate creates the schema. Statements are idempotent.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// SQLiteStore keeps customers and their orders in a local SQLite database.
// It backs the command line chat.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("repository: db must not be nil")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveCustomer(ctx context.Context, customerKey, name string) error {
	customerKey = strings.TrimSpace(customerKey)
	if customerKey == "" {
		return errors.New("repository: SaveCustomer: customer key is required")
	}
	query := `INSERT INTO customers (customer_key, name) VALUES (?, ?)
		ON CONFLICT(customer_key) DO UPDATE SET name = excluded.name`
	if _, err := s.db.ExecContext(ctx, query, customerKey, name); err != nil {
		return fmt.Errorf("repository: SaveCustomer: %w", err)
	}
	return nil
}

// SaveOrder inserts or replaces an order and its refunds. The customer must
// already exist.
func (s *SQLiteStore) SaveOrder(ctx context.Context, customerKey string, o domain.Order) error {
	customerKey = strings.TrimSpace(customerKey)
	if customerKey == "" {
		return errors.New("repository: SaveOrder: customer key is required")
	}
	if strings.TrimSpace(o.OrderNumber) == "" {
		return errors.New("repository: SaveOrder: order number is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("repository: SaveOrder begin: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO orders (order_number, customer_key, shopify_order_name, order_status, payment_status,
			payment_method, total_amount, currency, delivery_status, merchant_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(order_number) DO UPDATE SET
			customer_key = excluded.customer_key,
			shopify_order_name = excluded.shopify_order_name,
			order_status = excluded.order_status,
			payment_status = excluded.payment_status,
			payment_method = excluded.payment_method,
			total_amount = excluded.total_amount,
			currency = excluded.currency,
			delivery_status = excluded.delivery_status,
			merchant_name = excluded.merchant_name`
	_, err = tx.ExecContext(ctx, query,
		o.OrderNumber,
		customerKey,
		o.ShopifyOrderName,
		string(o.OrderStatus),
		o.PaymentStatus,
		o.PaymentMethod,
		o.TotalAmount,
		o.Currency,
		o.DeliveryStatus,
		o.MerchantName,
	)
	if err != nil {
		return fmt.Errorf("repository: SaveOrder %s: %w", o.OrderNumber, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM refunds WHERE order_number = ?`, o.OrderNumber); err != nil {
		return fmt.Errorf("repository: SaveOrder clear refunds: %w", err)
	}
	for i, r := range o.Refunds {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO refunds (order_number, position, refund_id, status, amount, arn_number, created_at, refunded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			o.OrderNumber, i, r.RefundID, r.Status, r.Amount, r.ARNNumber,
			formatTime(r.CreatedAt), formatTime(r.RefundedAt),
		)
		if err != nil {
			return fmt.Errorf("repository: SaveOrder refund %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("repository: SaveOrder commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetOrdersForCustomer(ctx context.Context, customerKey string) ([]domain.Order, error) {
	customerKey = strings.TrimSpace(customerKey)
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM customers WHERE customer_key = ?`, customerKey).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("repository: customer %q: %w", customerKey, domain.ErrCustomerNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("repository: GetOrdersForCustomer: %w", err)
	}
	return s.listOrders(ctx, `WHERE o.customer_key = ?`, customerKey)
}

func (s *SQLiteStore) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.listOrders(ctx, "")
}

const orderColumns = `o.order_number, o.shopify_order_name, o.order_status, o.payment_status, o.payment_method,
	o.total_amount, o.currency, o.delivery_status, o.merchant_name`

func (s *SQLiteStore) listOrders(ctx context.Context, where string, args ...any) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders o `+where+` ORDER BY o.rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: listing orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	index := make(map[string]int)
	for rows.Next() {
		var o domain.Order
		var status string
		if err := rows.Scan(&o.OrderNumber, &o.ShopifyOrderName, &status, &o.PaymentStatus, &o.PaymentMethod,
			&o.TotalAmount, &o.Currency, &o.DeliveryStatus, &o.MerchantName); err != nil {
			return nil, fmt.Errorf("repository: scanning order: %w", err)
		}
		o.OrderStatus = domain.OrderStatus(status)
		index[o.OrderNumber] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: listing orders: %w", err)
	}
	rows.Close()

	if len(orders) == 0 {
		return orders, nil
	}
	if err := s.attachRefunds(ctx, orders, index, where, args...); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *SQLiteStore) attachRefunds(ctx context.Context, orders []domain.Order, index map[string]int, where string, args ...any) error {
	query := `SELECT r.order_number, r.refund_id, r.status, r.amount, r.arn_number, r.created_at, r.refunded_at
		FROM refunds r JOIN orders o ON o.order_number = r.order_number ` + where + `
		ORDER BY r.order_number, r.position`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("repository: listing refunds: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderNumber, created, refunded string
		var r domain.Refund
		if err := rows.Scan(&orderNumber, &r.RefundID, &r.Status, &r.Amount, &r.ARNNumber, &created, &refunded); err != nil {
			return fmt.Errorf("repository: scanning refund: %w", err)
		}
		if r.CreatedAt, err = parseTime(created); err != nil {
			return fmt.Errorf("repository: refund %s created_at: %w", r.RefundID, err)
		}
		if r.RefundedAt, err = parseTime(refunded); err != nil {
			return fmt.Errorf("repository: refund %s refunded_at: %w", r.RefundID, err)
		}
		i, ok := index[orderNumber]
		if !ok {
			continue
		}
		orders[i].Refunds = append(orders[i].Refunds, r)
	}
	return rows.Err()
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
