package service

import (
	"context"
	"errors"
	"time"

	"cafe-pos/internal/models"
	"cafe-pos/internal/store"
	"cafe-pos/internal/util"

	"go.uber.org/zap"
)

// OrderService handles order business logic.
type OrderService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(st *store.Store) *OrderService {
	return &OrderService{
		store:  st,
		logger: util.GetLogger(),
	}
}

// CartLine is one {item, quantity} pair from a client cart.
type CartLine struct {
	ItemID int64 `json:"item_id" binding:"required"`
	Qty    int64 `json:"qty"`
}

// CreateOrderRequest represents a request to post an order.
type CreateOrderRequest struct {
	Lines         []CartLine `json:"lines" binding:"required"`
	PaymentMethod string     `json:"payment_method" binding:"required"`
	PaidCents     int64      `json:"paid_cents"`
	Note          string     `json:"note"`
}

// CreateOrder validates and posts an order from a cart. Duplicate lines
// are merged, non-positive quantities dropped, and lines referencing
// deleted items skipped (stale client carts are tolerated). The
// resulting write is atomic: the order, its line snapshots, and the
// sequence advance commit together or not at all.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	start := time.Now()

	if !models.ValidPaymentMethod(req.PaymentMethod) {
		util.OrdersFailedTotal.WithLabelValues("invalid_payment_method").Inc()
		return nil, models.ErrInvalidPaymentMethod
	}
	if req.PaidCents < 0 {
		util.OrdersFailedTotal.WithLabelValues("invalid_tendered").Inc()
		return nil, models.Validationf("tendered amount cannot be negative")
	}

	quantities := make(map[int64]int64)
	for _, line := range req.Lines {
		if line.Qty <= 0 {
			continue
		}
		quantities[line.ItemID] += line.Qty
	}
	if len(quantities) == 0 {
		util.OrdersFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, models.ErrEmptyCart
	}

	order, err := s.store.CreateOrder(ctx, quantities, req.PaymentMethod, req.PaidCents, req.Note)
	if err != nil {
		reason := "db_error"
		if errors.Is(err, models.ErrNoValidItems) {
			reason = "no_valid_items"
		}
		util.OrdersFailedTotal.WithLabelValues(reason).Inc()
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	util.OrderCreateLatency.Observe(time.Since(start).Seconds())
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("number", order.Number),
		zap.Int64("total_cents", order.TotalCents))
	return order, nil
}

// GetOrder retrieves an order with its lines by internal id.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Order, []models.OrderLine, error) {
	return s.store.GetOrder(ctx, id)
}

// GetOrderByNumber retrieves an order with its lines by public number.
func (s *OrderService) GetOrderByNumber(ctx context.Context, number int64) (*models.Order, []models.OrderLine, error) {
	return s.store.GetOrderByNumber(ctx, number)
}

// RecentOrders returns the latest posted orders.
func (s *OrderService) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	return s.store.RecentOrders(ctx, limit)
}

// SearchOrders matches query against order numbers, notes and captured
// item names.
func (s *OrderService) SearchOrders(ctx context.Context, query string, limit int) ([]models.Order, error) {
	if query == "" {
		return nil, models.Validationf("search query cannot be blank")
	}
	return s.store.SearchOrders(ctx, query, limit)
}

// TopItems ranks items sold inside the trailing day window.
func (s *OrderService) TopItems(ctx context.Context, days, limit int) ([]models.ItemPopularity, error) {
	return s.store.TopItems(ctx, days, limit)
}

// DailyReport aggregates one calendar day of orders.
func (s *OrderService) DailyReport(ctx context.Context, date string) (*models.DailyReport, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, models.Validationf("date must be formatted as 2006-01-02")
	}
	return s.store.DailyReport(ctx, date)
}
