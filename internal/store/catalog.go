package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cafe-pos/internal/models"
)

// ItemUpdate is a partial update; nil fields are left untouched.
type ItemUpdate struct {
	Name       *string
	PriceCents *int64
	CategoryID *int64
	Available  *bool
	SortOrder  *int64
}

// CreateCategory validates and inserts a category. A non-positive
// sortOrder gets the next free slot (current max + 1).
func (s *Store) CreateCategory(ctx context.Context, name string, sortOrder int64) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, models.Validationf("category name cannot be blank")
	}
	exists, err := s.categoryNameTaken(ctx, name, 0)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, models.Validationf("category %q already exists", name)
	}
	if sortOrder <= 0 {
		if sortOrder, err = s.nextCategorySort(ctx); err != nil {
			return 0, err
		}
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO categories(name, sort_order) VALUES(?, ?)", name, sortOrder)
	if err != nil {
		return 0, fmt.Errorf("failed to insert category: %w", err)
	}
	return res.LastInsertId()
}

// DeleteCategory removes an empty category. A category that still owns
// items is refused with ErrCategoryHasItems; deletion never cascades.
func (s *Store) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM items WHERE category_id = ?", id)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, models.ErrCategoryHasItems
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CreateItem validates and inserts an item. The owning category must
// exist and the trimmed name must be unique within it, case-insensitively.
func (s *Store) CreateItem(ctx context.Context, name string, priceCents, categoryID int64, available bool, sortOrder int64) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, models.Validationf("item name cannot be blank")
	}
	if priceCents < 0 {
		return 0, models.Validationf("item price cannot be negative")
	}
	catName, err := s.categoryName(ctx, categoryID)
	if err != nil {
		return 0, err
	}
	if catName == "" {
		return 0, models.Validationf("category #%d does not exist", categoryID)
	}
	taken, err := s.itemNameTaken(ctx, name, categoryID, 0)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, models.Validationf("item %q already exists in category %q", name, catName)
	}
	if sortOrder <= 0 {
		if sortOrder, err = s.nextItemSort(ctx, categoryID); err != nil {
			return 0, err
		}
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO items(name, price_cents, category_id, available, sort_order) VALUES(?, ?, ?, ?, ?)",
		name, priceCents, categoryID, boolToInt(available), sortOrder)
	if err != nil {
		return 0, fmt.Errorf("failed to insert item: %w", err)
	}
	return res.LastInsertId()
}

// UpdateItem applies a partial update. When the name or owning category
// changes, uniqueness is re-checked against the resulting category,
// excluding the row being updated. Returns false when the item does not
// exist or the update carries no fields.
func (s *Store) UpdateItem(ctx context.Context, id int64, upd ItemUpdate) (bool, error) {
	if upd.Name != nil || upd.CategoryID != nil {
		var current models.Item
		err := s.db.GetContext(ctx, &current,
			"SELECT id, name, price_cents, category_id, available, sort_order FROM items WHERE id = ?", id)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, err
		}

		newName := current.Name
		if upd.Name != nil {
			newName = strings.TrimSpace(*upd.Name)
		}
		newCat := current.CategoryID
		if upd.CategoryID != nil {
			newCat = *upd.CategoryID
		}
		if newName == "" {
			return false, models.Validationf("item name cannot be blank")
		}
		catName, err := s.categoryName(ctx, newCat)
		if err != nil {
			return false, err
		}
		if catName == "" {
			return false, models.Validationf("category #%d does not exist", newCat)
		}
		taken, err := s.itemNameTaken(ctx, newName, newCat, id)
		if err != nil {
			return false, err
		}
		if taken {
			return false, models.Validationf("item %q already exists in category %q", newName, catName)
		}
	}
	if upd.PriceCents != nil && *upd.PriceCents < 0 {
		return false, models.Validationf("item price cannot be negative")
	}

	var fields []string
	var params []any
	if upd.Name != nil {
		fields = append(fields, "name = ?")
		params = append(params, strings.TrimSpace(*upd.Name))
	}
	if upd.PriceCents != nil {
		fields = append(fields, "price_cents = ?")
		params = append(params, *upd.PriceCents)
	}
	if upd.CategoryID != nil {
		fields = append(fields, "category_id = ?")
		params = append(params, *upd.CategoryID)
	}
	if upd.Available != nil {
		fields = append(fields, "available = ?")
		params = append(params, boolToInt(*upd.Available))
	}
	if upd.SortOrder != nil {
		fields = append(fields, "sort_order = ?")
		params = append(params, *upd.SortOrder)
	}
	if len(fields) == 0 {
		return false, nil
	}
	params = append(params, id)

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE items SET %s WHERE id = ?", strings.Join(fields, ", ")), params...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteItem removes an item unconditionally. Historical order lines
// keep their snapshot and dangling item_id.
func (s *Store) DeleteItem(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListCategories returns all categories with their item counts, in
// display order.
func (s *Store) ListCategories(ctx context.Context) ([]models.CategoryWithCount, error) {
	var cats []models.CategoryWithCount
	err := s.db.SelectContext(ctx, &cats, `
		SELECT c.id, c.name, c.sort_order,
			(SELECT COUNT(*) FROM items i WHERE i.category_id = c.id) AS item_count
		FROM categories c
		ORDER BY c.sort_order, c.name`)
	return cats, err
}

// ListItems returns items joined with their category name, ordered by
// (category sort, item sort, item name). availableOnly hides items
// flagged unavailable, for the customer-facing menu.
func (s *Store) ListItems(ctx context.Context, availableOnly bool) ([]models.ItemWithCategory, error) {
	query := `
		SELECT i.id, i.name, i.price_cents, i.category_id, i.available, i.sort_order,
			c.name AS category_name
		FROM items i JOIN categories c ON i.category_id = c.id`
	if availableOnly {
		query += " WHERE i.available = 1"
	}
	query += " ORDER BY c.sort_order, i.sort_order, i.name"

	var items []models.ItemWithCategory
	err := s.db.SelectContext(ctx, &items, query)
	return items, err
}

// MenuGrouped returns available items grouped per category, preserving
// display order. Categories with no available items appear empty.
func (s *Store) MenuGrouped(ctx context.Context) ([]models.MenuGroup, error) {
	cats, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.ListItems(ctx, true)
	if err != nil {
		return nil, err
	}

	groups := make([]models.MenuGroup, 0, len(cats))
	index := make(map[string]int, len(cats))
	for _, c := range cats {
		index[c.Name] = len(groups)
		groups = append(groups, models.MenuGroup{Category: c.Name, Items: []models.ItemWithCategory{}})
	}
	for _, it := range items {
		i := index[it.CategoryName]
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups, nil
}

func (s *Store) categoryName(ctx context.Context, id int64) (string, error) {
	var name string
	err := s.db.GetContext(ctx, &name, "SELECT name FROM categories WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

// categoryNameTaken checks case-insensitive category name uniqueness,
// optionally excluding one row (for updates).
func (s *Store) categoryNameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var one int
	err := s.db.GetContext(ctx, &one,
		"SELECT 1 FROM categories WHERE lower(name) = lower(?) AND id <> ? LIMIT 1", name, excludeID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) itemNameTaken(ctx context.Context, name string, categoryID, excludeID int64) (bool, error) {
	var one int
	err := s.db.GetContext(ctx, &one,
		"SELECT 1 FROM items WHERE category_id = ? AND lower(name) = lower(?) AND id <> ? LIMIT 1",
		categoryID, name, excludeID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) nextCategorySort(ctx context.Context) (int64, error) {
	var max int64
	err := s.db.GetContext(ctx, &max, "SELECT COALESCE(MAX(sort_order), 0) FROM categories")
	return max + 1, err
}

func (s *Store) nextItemSort(ctx context.Context, categoryID int64) (int64, error) {
	var max int64
	err := s.db.GetContext(ctx, &max,
		"SELECT COALESCE(MAX(sort_order), 0) FROM items WHERE category_id = ?", categoryID)
	return max + 1, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
