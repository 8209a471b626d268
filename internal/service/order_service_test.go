package service

import (
	"context"
	"path/filepath"
	"testing"

	"cafe-pos/internal/models"
	"cafe-pos/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "pos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedItem(t *testing.T, s *store.Store, name string, price int64) int64 {
	t.Helper()
	ctx := context.Background()
	catalog := NewCatalogService(s)
	catID, err := catalog.CreateCategory(ctx, &CreateCategoryRequest{Name: "Menu"})
	if err != nil {
		// Category already exists across calls in one test.
		cats, lerr := catalog.ListCategories(ctx)
		require.NoError(t, lerr)
		catID = cats[0].ID
	}
	id, err := catalog.CreateItem(ctx, &CreateItemRequest{Name: name, PriceCents: price, CategoryID: catID})
	require.NoError(t, err)
	return id
}

func TestCreateOrderAggregatesCartLines(t *testing.T) {
	s := newTestStore(t)
	svc := NewOrderService(s)
	ctx := context.Background()
	latte := seedItem(t, s, "Latte", 450)

	// Duplicate lines merge, non-positive quantities are dropped.
	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{
		Lines: []CartLine{
			{ItemID: latte, Qty: 1},
			{ItemID: latte, Qty: 2},
			{ItemID: latte, Qty: 0},
			{ItemID: latte, Qty: -5},
		},
		PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)

	_, lines, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(3), lines[0].Qty)
	assert.Equal(t, int64(3*450), order.TotalCents)
}

func TestCreateOrderRejectsEmptyCart(t *testing.T) {
	s := newTestStore(t)
	svc := NewOrderService(s)
	ctx := context.Background()
	latte := seedItem(t, s, "Latte", 450)

	_, err := svc.CreateOrder(ctx, &CreateOrderRequest{
		Lines:         nil,
		PaymentMethod: models.PaymentCash,
	})
	assert.ErrorIs(t, err, models.ErrEmptyCart)

	// All-zero/negative quantities count as empty.
	_, err = svc.CreateOrder(ctx, &CreateOrderRequest{
		Lines:         []CartLine{{ItemID: latte, Qty: 0}, {ItemID: latte, Qty: -1}},
		PaymentMethod: models.PaymentCash,
	})
	assert.ErrorIs(t, err, models.ErrEmptyCart)
}

func TestCreateOrderRejectsUnknownItemsOnly(t *testing.T) {
	s := newTestStore(t)
	svc := NewOrderService(s)
	ctx := context.Background()
	seedItem(t, s, "Latte", 450)

	_, err := svc.CreateOrder(ctx, &CreateOrderRequest{
		Lines:         []CartLine{{ItemID: 999, Qty: 1}},
		PaymentMethod: models.PaymentCash,
	})
	assert.ErrorIs(t, err, models.ErrNoValidItems)
}

func TestCreateOrderValidatesPayment(t *testing.T) {
	s := newTestStore(t)
	svc := NewOrderService(s)
	ctx := context.Background()
	latte := seedItem(t, s, "Latte", 450)

	_, err := svc.CreateOrder(ctx, &CreateOrderRequest{
		Lines:         []CartLine{{ItemID: latte, Qty: 1}},
		PaymentMethod: "barter",
	})
	assert.ErrorIs(t, err, models.ErrInvalidPaymentMethod)

	var ve *models.ValidationError
	_, err = svc.CreateOrder(ctx, &CreateOrderRequest{
		Lines:         []CartLine{{ItemID: latte, Qty: 1}},
		PaymentMethod: models.PaymentCash,
		PaidCents:     -100,
	})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Reason, "tendered")
}

func TestDailyReportValidatesDate(t *testing.T) {
	s := newTestStore(t)
	svc := NewOrderService(s)

	var ve *models.ValidationError
	_, err := svc.DailyReport(context.Background(), "27/08/2026")
	require.ErrorAs(t, err, &ve)

	report, err := svc.DailyReport(context.Background(), "2026-08-27")
	require.NoError(t, err)
	assert.Zero(t, report.OrderCount)
}

func TestSearchOrdersRequiresQuery(t *testing.T) {
	s := newTestStore(t)
	svc := NewOrderService(s)

	var ve *models.ValidationError
	_, err := svc.SearchOrders(context.Background(), "", 10)
	require.ErrorAs(t, err, &ve)
}
