package service

import (
	"context"
	"fmt"

	"cafe-pos/internal/models"
	"cafe-pos/internal/store"
	"cafe-pos/internal/util"

	"go.uber.org/zap"
)

// CatalogService handles catalog business logic. Every successful
// mutation is followed by a renumbering pass, so identifiers stay dense
// and display-ordered.
type CatalogService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(st *store.Store) *CatalogService {
	return &CatalogService{
		store:  st,
		logger: util.GetLogger(),
	}
}

// CreateCategoryRequest represents a request to create a category.
type CreateCategoryRequest struct {
	Name      string `json:"name" binding:"required"`
	SortOrder int64  `json:"sort_order"`
}

// CreateItemRequest represents a request to create an item.
type CreateItemRequest struct {
	Name       string `json:"name" binding:"required"`
	PriceCents int64  `json:"price_cents"`
	CategoryID int64  `json:"category_id" binding:"required"`
	Available  *bool  `json:"available"`
	SortOrder  int64  `json:"sort_order"`
}

// UpdateItemRequest is a partial item update; absent fields are kept.
type UpdateItemRequest struct {
	Name       *string `json:"name"`
	PriceCents *int64  `json:"price_cents"`
	CategoryID *int64  `json:"category_id"`
	Available  *bool   `json:"available"`
	SortOrder  *int64  `json:"sort_order"`
}

// CreateCategory creates a category and compacts identifiers.
func (s *CatalogService) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (int64, error) {
	id, err := s.store.CreateCategory(ctx, req.Name, req.SortOrder)
	if err != nil {
		return 0, err
	}
	util.CatalogMutationsTotal.WithLabelValues("create_category").Inc()
	s.logger.Info("Category created", zap.Int64("category_id", id), zap.String("name", req.Name))
	return id, s.Renumber(ctx)
}

// DeleteCategory deletes an empty category and compacts identifiers.
// models.ErrCategoryHasItems is returned when the category still owns
// items; the catalog is left unchanged in that case.
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.store.DeleteCategory(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}
	util.CatalogMutationsTotal.WithLabelValues("delete_category").Inc()
	s.logger.Info("Category deleted", zap.Int64("category_id", id))
	return true, s.Renumber(ctx)
}

// CreateItem creates an item and compacts identifiers.
func (s *CatalogService) CreateItem(ctx context.Context, req *CreateItemRequest) (int64, error) {
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	id, err := s.store.CreateItem(ctx, req.Name, req.PriceCents, req.CategoryID, available, req.SortOrder)
	if err != nil {
		return 0, err
	}
	util.CatalogMutationsTotal.WithLabelValues("create_item").Inc()
	s.logger.Info("Item created", zap.Int64("item_id", id), zap.String("name", req.Name))
	return id, s.Renumber(ctx)
}

// UpdateItem applies a partial update and compacts identifiers.
func (s *CatalogService) UpdateItem(ctx context.Context, id int64, req *UpdateItemRequest) (bool, error) {
	updated, err := s.store.UpdateItem(ctx, id, store.ItemUpdate{
		Name:       req.Name,
		PriceCents: req.PriceCents,
		CategoryID: req.CategoryID,
		Available:  req.Available,
		SortOrder:  req.SortOrder,
	})
	if err != nil || !updated {
		return updated, err
	}
	util.CatalogMutationsTotal.WithLabelValues("update_item").Inc()
	s.logger.Info("Item updated", zap.Int64("item_id", id))
	return true, s.Renumber(ctx)
}

// DeleteItem deletes an item and compacts identifiers.
func (s *CatalogService) DeleteItem(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.store.DeleteItem(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}
	util.CatalogMutationsTotal.WithLabelValues("delete_item").Inc()
	s.logger.Info("Item deleted", zap.Int64("item_id", id))
	return true, s.Renumber(ctx)
}

// Renumber runs an on-demand compaction pass.
func (s *CatalogService) Renumber(ctx context.Context) error {
	result, err := s.store.Renumber(ctx)
	if err != nil {
		return fmt.Errorf("renumbering failed: %w", err)
	}
	util.RenumberPassesTotal.Inc()
	util.RenumberedRowsTotal.WithLabelValues("categories").Add(float64(result.Categories))
	util.RenumberedRowsTotal.WithLabelValues("items").Add(float64(result.Items))
	if result.Categories > 0 || result.Items > 0 {
		s.logger.Info("Renumbered catalog identifiers",
			zap.Int("categories", result.Categories),
			zap.Int("items", result.Items))
	}
	return nil
}

// ListCategories returns all categories with item counts.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.CategoryWithCount, error) {
	return s.store.ListCategories(ctx)
}

// ListItems returns items in menu order; availableOnly hides disabled
// items for customer-facing views.
func (s *CatalogService) ListItems(ctx context.Context, availableOnly bool) ([]models.ItemWithCategory, error) {
	return s.store.ListItems(ctx, availableOnly)
}

// Menu returns the grouped customer-facing menu.
func (s *CatalogService) Menu(ctx context.Context) ([]models.MenuGroup, error) {
	return s.store.MenuGrouped(ctx)
}
