package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"cafe-pos/internal/models"

	"github.com/jmoiron/sqlx"
)

// TaxCents computes the tax on a subtotal at ratePercent. Ties round to
// the nearest even cent (banker's rounding): 1050 at 5% is 52, not 53.
func TaxCents(subtotalCents int64, ratePercent float64) int64 {
	return int64(math.RoundToEven(float64(subtotalCents) * ratePercent / 100.0))
}

// resolvedItem is a cart item looked up inside the order transaction.
type resolvedItem struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	PriceCents   int64  `db:"price_cents"`
	CategoryName string `db:"category_name"`
}

// CreateOrder posts one order for the given item quantities. Everything
// runs in a single transaction: item resolution, tax computation,
// advancing the order-number sequence, and inserting the order with its
// line snapshots. A failure at any step leaves the ledger and the
// sequence untouched.
//
// Quantities referencing unknown items are skipped; if none resolve the
// order is rejected with ErrNoValidItems.
func (s *Store) CreateOrder(ctx context.Context, quantities map[int64]int64, paymentMethod string, paidCents int64, note string) (*models.Order, error) {
	if len(quantities) == 0 {
		return nil, models.ErrEmptyCart
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]int64, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	query, args, err := sqlx.In(`
		SELECT i.id, i.name, i.price_cents, c.name AS category_name
		FROM items i JOIN categories c ON i.category_id = c.id
		WHERE i.id IN (?)
		ORDER BY i.id`, ids)
	if err != nil {
		return nil, err
	}
	var resolved []resolvedItem
	if err := tx.SelectContext(ctx, &resolved, tx.Rebind(query), args...); err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return nil, models.ErrNoValidItems
	}

	var subtotal int64
	for _, r := range resolved {
		subtotal += r.PriceCents * quantities[r.ID]
	}
	rate, err := taxRateTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	tax := TaxCents(subtotal, rate)
	total := subtotal + tax

	number, err := nextOrderNumber(ctx, tx)
	if err != nil {
		return nil, err
	}
	// Stored in UTC: date()/datetime() in the report queries normalize
	// offsets to UTC, so the stored zone must match the bucketing zone.
	createdAt := time.Now().UTC()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders(number, created_at, total_cents, tax_cents, paid_cents, payment_method, note)
		VALUES(?, ?, ?, ?, ?, ?, ?)`,
		number, createdAt, total, tax, paidCents, paymentMethod, note)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	for _, r := range resolved {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items(order_id, item_id, name, unit_price_cents, qty, category_name)
			VALUES(?, ?, ?, ?, ?, ?)`,
			orderID, r.ID, r.Name, r.PriceCents, quantities[r.ID], r.CategoryName)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	return &models.Order{
		ID:            orderID,
		Number:        number,
		CreatedAt:     createdAt,
		TotalCents:    total,
		TaxCents:      tax,
		PaidCents:     paidCents,
		PaymentMethod: paymentMethod,
		Note:          note,
	}, nil
}

// nextOrderNumber advances the persisted sequence and returns the new
// value. It must run inside the order's transaction so a rolled-back
// order does not consume a number; the counter is never cached in
// process memory. A missing row behaves as the floor, but an
// unparseable value aborts the order: falling back to the floor could
// reissue numbers already on printed receipts.
func nextOrderNumber(ctx context.Context, tx *sqlx.Tx) (int64, error) {
	current := int64(defaultOrderSeqFloor)
	var raw string
	err := tx.GetContext(ctx, &raw, "SELECT value FROM settings WHERE key = ?", SettingOrderSeq)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	if err == nil {
		current, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("order sequence setting is corrupt (%q): %w", raw, err)
		}
	}
	next := current + 1
	_, err = tx.ExecContext(ctx,
		"INSERT INTO settings(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		SettingOrderSeq, strconv.FormatInt(next, 10))
	if err != nil {
		return 0, err
	}
	return next, nil
}

func taxRateTx(ctx context.Context, tx *sqlx.Tx) (float64, error) {
	var raw string
	err := tx.GetContext(ctx, &raw, "SELECT value FROM settings WHERE key = ?", SettingTaxRatePercent)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("tax rate setting is corrupt (%q): %w", raw, err)
	}
	return rate, nil
}

// GetOrder fetches an order and its lines by internal id.
func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, []models.OrderLine, error) {
	return s.getOrderBy(ctx, "id", id)
}

// GetOrderByNumber fetches an order and its lines by public number.
func (s *Store) GetOrderByNumber(ctx context.Context, number int64) (*models.Order, []models.OrderLine, error) {
	return s.getOrderBy(ctx, "number", number)
}

func (s *Store) getOrderBy(ctx context.Context, column string, value int64) (*models.Order, []models.OrderLine, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		fmt.Sprintf("SELECT * FROM orders WHERE %s = ?", column), value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	var lines []models.OrderLine
	err = s.db.SelectContext(ctx, &lines,
		"SELECT * FROM order_items WHERE order_id = ? ORDER BY id", order.ID)
	if err != nil {
		return nil, nil, err
	}
	return &order, lines, nil
}

const maxQueryLimit = 200

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > maxQueryLimit {
		return maxQueryLimit
	}
	return limit
}

// RecentOrders returns the most recently posted orders, newest first.
func (s *Store) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders ORDER BY created_at DESC, id DESC LIMIT ?",
		clampLimit(limit, 20))
	return orders, err
}

// SearchOrders matches the free-text query against the order number,
// the note, and captured item names, newest first.
func (s *Store) SearchOrders(ctx context.Context, query string, limit int) ([]models.Order, error) {
	pattern := "%" + query + "%"
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, `
		SELECT DISTINCT o.*
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		WHERE CAST(o.number AS TEXT) LIKE ? OR o.note LIKE ? OR oi.name LIKE ?
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT ?`,
		pattern, pattern, pattern, clampLimit(limit, 20))
	return orders, err
}

// TopItems ranks items by quantity sold inside the trailing day window.
// The window boundary is evaluated in UTC, matching the stored
// timestamps.
func (s *Store) TopItems(ctx context.Context, days, limit int) ([]models.ItemPopularity, error) {
	if days <= 0 {
		days = 7
	}
	var rows []models.ItemPopularity
	err := s.db.SelectContext(ctx, &rows, `
		SELECT oi.item_id, oi.name,
			SUM(oi.qty) AS total_qty,
			SUM(oi.qty * oi.unit_price_cents) AS total_cents
		FROM order_items oi
		JOIN orders o ON oi.order_id = o.id
		WHERE datetime(o.created_at) >= datetime('now', ?)
		GROUP BY oi.item_id, oi.name
		ORDER BY total_qty DESC, oi.name
		LIMIT ?`,
		fmt.Sprintf("-%d days", days), clampLimit(limit, 10))
	return rows, err
}

// DailyReport aggregates order count, gross and tax for one UTC
// calendar day (date formatted as 2006-01-02).
func (s *Store) DailyReport(ctx context.Context, date string) (*models.DailyReport, error) {
	var report models.DailyReport
	err := s.db.GetContext(ctx, &report, `
		SELECT COUNT(*) AS order_count,
			COALESCE(SUM(total_cents), 0) AS gross_cents,
			COALESCE(SUM(tax_cents), 0) AS tax_cents
		FROM orders
		WHERE date(created_at) = ?`, date)
	if err != nil {
		return nil, err
	}
	report.Date = date
	return &report, nil
}
