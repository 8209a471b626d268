package store

import (
	"context"
	"testing"

	"cafe-pos/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedCatalog sets up two categories and three items and returns the
// item ids keyed by name.
func seedCatalog(t *testing.T, s *Store) map[string]int64 {
	t.Helper()
	ctx := context.Background()

	coffee, err := s.CreateCategory(ctx, "Coffee", 1)
	require.NoError(t, err)
	snacks, err := s.CreateCategory(ctx, "Snacks", 2)
	require.NoError(t, err)

	ids := make(map[string]int64)
	for _, it := range []struct {
		name  string
		price int64
		cat   int64
	}{
		{"Espresso", 300, coffee},
		{"Latte", 450, coffee},
		{"Croissant", 300, snacks},
	} {
		id, err := s.CreateItem(ctx, it.name, it.price, it.cat, true, 0)
		require.NoError(t, err)
		ids[it.name] = id
	}
	return ids
}

func TestCreateOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedCatalog(t, s)
	require.NoError(t, s.SetSetting(ctx, SettingTaxRatePercent, "5"))

	order, err := s.CreateOrder(ctx, map[int64]int64{
		ids["Espresso"]:  2,
		ids["Croissant"]: 1,
	}, models.PaymentCash, 1000, "no sugar")
	require.NoError(t, err)

	// subtotal 900, tax 45, total 945.
	assert.Equal(t, int64(900+45), order.TotalCents)
	assert.Equal(t, int64(45), order.TaxCents)
	assert.Equal(t, int64(1000), order.PaidCents)
	assert.Equal(t, int64(1001), order.Number)

	fetched, lines, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Number, fetched.Number)
	assert.Equal(t, "no sugar", fetched.Note)
	require.Len(t, lines, 2)

	byName := make(map[string]models.OrderLine)
	for _, l := range lines {
		byName[l.Name] = l
	}
	assert.Equal(t, int64(2), byName["Espresso"].Qty)
	assert.Equal(t, int64(300), byName["Espresso"].UnitPriceCents)
	assert.Equal(t, "Coffee", byName["Espresso"].CategoryName)
	assert.Equal(t, "Snacks", byName["Croissant"].CategoryName)

	byNumber, _, err := s.GetOrderByNumber(ctx, order.Number)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byNumber.ID)
}

func TestCreateOrderEmptyAndInvalidCarts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedCatalog(t, s)

	_, err := s.CreateOrder(ctx, map[int64]int64{}, models.PaymentCash, 0, "")
	assert.ErrorIs(t, err, models.ErrEmptyCart)

	// Only unknown item ids: rejected, and the sequence must not move.
	_, err = s.CreateOrder(ctx, map[int64]int64{999: 1}, models.PaymentCash, 0, "")
	assert.ErrorIs(t, err, models.ErrNoValidItems)

	seq, err := s.GetSetting(ctx, SettingOrderSeq)
	require.NoError(t, err)
	assert.Equal(t, "1000", seq)
}

func TestOrderNumbersStrictlyIncreasing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedCatalog(t, s)

	var numbers []int64
	for i := 0; i < 5; i++ {
		order, err := s.CreateOrder(ctx, map[int64]int64{ids["Latte"]: 1}, models.PaymentCard, 0, "")
		require.NoError(t, err)
		numbers = append(numbers, order.Number)

		// Interleave a failing attempt; it rolls back completely.
		_, err = s.CreateOrder(ctx, map[int64]int64{999: 1}, models.PaymentCard, 0, "")
		require.Error(t, err)
	}

	for i := 1; i < len(numbers); i++ {
		assert.Greater(t, numbers[i], numbers[i-1])
	}
	assert.Equal(t, int64(1001), numbers[0])
	assert.Equal(t, int64(1005), numbers[len(numbers)-1])
}

// A sequence value that no longer parses must abort the order instead
// of silently restarting from the floor and reissuing numbers.
func TestCreateOrderRejectsCorruptSequence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedCatalog(t, s)
	require.NoError(t, s.SetSetting(ctx, SettingOrderSeq, "not-a-number"))

	_, err := s.CreateOrder(ctx, map[int64]int64{ids["Latte"]: 1}, models.PaymentCash, 0, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order sequence")

	orders, err := s.RecentOrders(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrderRejectsCorruptTaxRate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedCatalog(t, s)
	require.NoError(t, s.SetSetting(ctx, SettingTaxRatePercent, "five percent"))

	_, err := s.CreateOrder(ctx, map[int64]int64{ids["Latte"]: 1}, models.PaymentCash, 0, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tax rate")

	// The rolled-back attempt did not advance the sequence.
	seq, err := s.GetSetting(ctx, SettingOrderSeq)
	require.NoError(t, err)
	assert.Equal(t, "1000", seq)
}

// Timestamps are stored in UTC so that date() bucketing in the report
// queries agrees with the order's CreatedAt calendar day.
func TestOrderTimestampStoredUTC(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedCatalog(t, s)

	order, err := s.CreateOrder(ctx, map[int64]int64{ids["Latte"]: 1}, models.PaymentCash, 0, "")
	require.NoError(t, err)

	var bucket string
	require.NoError(t, s.DB().Get(&bucket,
		"SELECT date(created_at) FROM orders WHERE id = ?", order.ID))
	assert.Equal(t, order.CreatedAt.Format("2006-01-02"), bucket)

	report, err := s.DailyReport(ctx, bucket)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.OrderCount)
}

func TestCreateOrderSkipsUnknownItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedCatalog(t, s)

	// A stale cart mixing a deleted item with a live one still posts
	// the live line.
	order, err := s.CreateOrder(ctx, map[int64]int64{
		ids["Latte"]: 1,
		999:          3,
	}, models.PaymentCash, 0, "")
	require.NoError(t, err)

	_, lines, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Latte", lines[0].Name)
	assert.Equal(t, int64(450), order.TotalCents)
}

func TestOrderLinesAreImmutableSnapshots(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedCatalog(t, s)

	order, err := s.CreateOrder(ctx, map[int64]int64{ids["Latte"]: 1}, models.PaymentCash, 0, "")
	require.NoError(t, err)

	// Raising the price afterwards must not touch the recorded line.
	updated, err := s.UpdateItem(ctx, ids["Latte"], ItemUpdate{PriceCents: ptr(int64(999))})
	require.NoError(t, err)
	require.True(t, updated)

	fetched, lines, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(450), lines[0].UnitPriceCents)
	assert.Equal(t, int64(450), fetched.TotalCents)
}

func TestGetOrderNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.GetOrder(ctx, 42)
	assert.ErrorIs(t, err, models.ErrOrderNotFound)

	_, _, err = s.GetOrderByNumber(ctx, 4242)
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestRecentSearchAndReports(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ids := seedCatalog(t, s)

	first, err := s.CreateOrder(ctx, map[int64]int64{ids["Espresso"]: 1}, models.PaymentCash, 0, "extra hot")
	require.NoError(t, err)
	second, err := s.CreateOrder(ctx, map[int64]int64{ids["Latte"]: 2}, models.PaymentCard, 0, "")
	require.NoError(t, err)

	recent, err := s.RecentOrders(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, second.ID, recent[0].ID) // newest first

	// Search by note substring.
	found, err := s.SearchOrders(ctx, "extra", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, first.ID, found[0].ID)

	// Search by captured item name.
	found, err = s.SearchOrders(ctx, "Latte", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, second.ID, found[0].ID)

	// Search by order number.
	found, err = s.SearchOrders(ctx, "1001", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, first.ID, found[0].ID)

	top, err := s.TopItems(ctx, 7, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Latte", top[0].Name)
	assert.Equal(t, int64(2), top[0].TotalQty)
	assert.Equal(t, int64(900), top[0].TotalCents)

	report, err := s.DailyReport(ctx, second.CreatedAt.UTC().Format("2006-01-02"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.OrderCount)
	assert.Equal(t, first.TotalCents+second.TotalCents, report.GrossCents)

	empty, err := s.DailyReport(ctx, "1999-01-01")
	require.NoError(t, err)
	assert.Zero(t, empty.OrderCount)
	assert.Zero(t, empty.GrossCents)
}
