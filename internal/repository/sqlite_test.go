package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"support-agent/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s, err := NewSQLiteStore(db)
	require.NoError(t, err)
	return s
}

func TestNewSQLiteStore_RequiresDB(t *testing.T) {
	_, err := NewSQLiteStore(nil)
	require.Error(t, err)
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCustomer(ctx, "9876543210", "Rahul Sharma"))
	want := sampleOrder()
	require.NoError(t, s.SaveOrder(ctx, "9876543210", want))

	orders, err := s.GetOrdersForCustomer(ctx, "9876543210")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	got := orders[0]
	require.Equal(t, want.OrderNumber, got.OrderNumber)
	require.Equal(t, want.ShopifyOrderName, got.ShopifyOrderName)
	require.Equal(t, want.OrderStatus, got.OrderStatus)
	require.True(t, got.PaymentStatus)
	require.Equal(t, want.TotalAmount, got.TotalAmount)
	require.Equal(t, want.MerchantName, got.MerchantName)
	require.Len(t, got.Refunds, 1)
	require.Equal(t, want.Refunds[0].ARNNumber, got.Refunds[0].ARNNumber)
	require.True(t, want.Refunds[0].RefundedAt.Equal(got.Refunds[0].RefundedAt))
}

func TestSQLiteStore_SaveOrderReplacesRefunds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveCustomer(ctx, "1", ""))

	o := sampleOrder()
	o.Refunds = append(o.Refunds, domain.Refund{RefundID: "R2", Status: domain.RefundInitiated})
	require.NoError(t, s.SaveOrder(ctx, "1", o))

	o.Refunds = o.Refunds[1:]
	o.OrderStatus = domain.OrderConfirmed
	require.NoError(t, s.SaveOrder(ctx, "1", o))

	orders, err := s.GetOrdersForCustomer(ctx, "1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, domain.OrderConfirmed, orders[0].OrderStatus)
	require.Len(t, orders[0].Refunds, 1)
	require.Equal(t, "R2", orders[0].Refunds[0].RefundID)
	require.True(t, orders[0].Refunds[0].CreatedAt.IsZero())
}

func TestSQLiteStore_RefundOrderIsPreserved(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveCustomer(ctx, "1", ""))

	o := domain.Order{OrderNumber: "K1", Refunds: []domain.Refund{{RefundID: "newest"}, {RefundID: "older"}, {RefundID: "oldest"}}}
	require.NoError(t, s.SaveOrder(ctx, "1", o))

	orders, err := s.GetOrdersForCustomer(ctx, "1")
	require.NoError(t, err)
	latest, ok := orders[0].LatestRefund()
	require.True(t, ok)
	require.Equal(t, "newest", latest.RefundID)
	require.Equal(t, "oldest", orders[0].Refunds[2].RefundID)
}

func TestSQLiteStore_CustomerLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetOrdersForCustomer(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)

	require.NoError(t, s.SaveCustomer(ctx, "empty", ""))
	orders, err := s.GetOrdersForCustomer(ctx, "empty")
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestSQLiteStore_SaveOrderRequiresCustomer(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveOrder(context.Background(), "ghost", sampleOrder())
	require.Error(t, err)

	require.Error(t, s.SaveOrder(context.Background(), "", sampleOrder()))
	require.Error(t, s.SaveOrder(context.Background(), "ghost", domain.Order{}))
	require.Error(t, s.SaveCustomer(context.Background(), " ", "x"))
}

func TestSQLiteStore_SeedDemoAndListAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f, err := DemoFixture()
	require.NoError(t, err)

	n, err := Seed(ctx, s, f)
	require.NoError(t, err)
	require.Equal(t, 13, n)

	all, err := s.ListAllOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 13)

	mine, err := s.GetOrdersForCustomer(ctx, "9871454433")
	require.NoError(t, err)
	require.Len(t, mine, 6)
	require.Equal(t, "KWIK04XY78ZW1234567", mine[0].OrderNumber)

	// Seeding twice is an upsert.
	_, err = Seed(ctx, s, f)
	require.NoError(t, err)
	all, err = s.ListAllOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 13)
}

func TestOpenDB_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "orders.db")
	db, err := OpenDB(path)
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	require.Equal(t, "wal", mode)

	require.NoError(t, Migrate(db))
	require.NoError(t, db.QueryRow("SELECT name FROM sqlite_master WHERE name = 'refunds'").Scan(new(string)))
}
