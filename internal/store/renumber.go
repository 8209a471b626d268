package store

import (
	"context"
	"fmt"
	"strings"

	"cafe-pos/internal/models"

	"github.com/jmoiron/sqlx"
)

// RenumberResult reports how many rows received a new identifier.
type RenumberResult struct {
	Categories int `json:"categories"`
	Items      int `json:"items"`
}

// Renumber reassigns category and item identifiers to a dense 1..N
// range in display order and rewrites every reference to them
// (items.category_id, order_items.item_id). Both passes run in one
// transaction: a failure at any point leaves the pre-renumbering state.
//
// Renumbering is done by materializing a fresh table under the new
// identifiers and swapping it in, never by renumbering rows in place,
// so two rows exchanging identifiers cannot collide on the primary key.
// Running the pass twice in a row is a no-op the second time.
func (s *Store) Renumber(ctx context.Context) (RenumberResult, error) {
	var result RenumberResult

	// Rebuilding a referenced table (DROP + RENAME swap) increments
	// SQLite's foreign-key violation counter even when the swapped-in
	// table satisfies every reference again, so COMMIT would fail under
	// enforcement. PRAGMA foreign_keys is a no-op inside a transaction;
	// the pool is pinned to one connection, so the statement below hits
	// the same connection the transaction will run on. Integrity is
	// verified explicitly before commit via foreign_key_check.
	if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return result, err
	}
	defer s.db.Exec("PRAGMA foreign_keys = ON")

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if result.Categories, err = renumberCategories(ctx, tx); err != nil {
		return RenumberResult{}, err
	}
	if result.Items, err = renumberItems(ctx, tx); err != nil {
		return RenumberResult{}, err
	}

	if err := checkForeignKeys(ctx, tx); err != nil {
		return RenumberResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return RenumberResult{}, fmt.Errorf("failed to commit renumbering: %w", err)
	}
	return result, nil
}

// checkForeignKeys fails when any row violates a declared foreign key.
func checkForeignKeys(ctx context.Context, tx *sqlx.Tx) error {
	rows, err := tx.QueryContext(ctx, "PRAGMA foreign_key_check")
	if err != nil {
		return err
	}
	defer rows.Close()
	if rows.Next() {
		return fmt.Errorf("renumbering broke referential integrity")
	}
	return rows.Err()
}

// renumberCategories assigns ids 1..N in (sort_order, name, id) order
// and repoints items.category_id. Returns the number of categories
// whose id changed; zero means the assignment was already dense and
// nothing was rewritten.
func renumberCategories(ctx context.Context, tx *sqlx.Tx) (int, error) {
	var cats []models.Category
	err := tx.SelectContext(ctx, &cats,
		"SELECT id, name, sort_order FROM categories ORDER BY sort_order, name, id")
	if err != nil {
		return 0, err
	}

	remapped := changedIDs(len(cats), func(i int) int64 { return cats[i].ID })
	if len(remapped) == 0 {
		return 0, nil
	}

	_, err = tx.ExecContext(ctx,
		"CREATE TABLE categories_new (id INTEGER PRIMARY KEY, name TEXT NOT NULL, sort_order INTEGER NOT NULL DEFAULT 0)")
	if err != nil {
		return 0, err
	}
	for i, c := range cats {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO categories_new(id, name, sort_order) VALUES(?, ?, ?)",
			int64(i+1), c.Name, c.SortOrder)
		if err != nil {
			return 0, err
		}
	}

	if err := remapColumn(ctx, tx, "items", "category_id", remapped); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE categories"); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, "ALTER TABLE categories_new RENAME TO categories"); err != nil {
		return 0, err
	}
	return len(remapped), nil
}

// renumberItems assigns ids 1..N in full catalog-display order, across
// category boundaries, and repoints order_items.item_id. Must run after
// the category pass so the join sees the new category ids.
func renumberItems(ctx context.Context, tx *sqlx.Tx) (int, error) {
	var items []models.Item
	err := tx.SelectContext(ctx, &items, `
		SELECT i.id, i.name, i.price_cents, i.category_id, i.available, i.sort_order
		FROM items i
		JOIN categories c ON i.category_id = c.id
		ORDER BY c.sort_order, c.name, i.sort_order, i.name, i.id`)
	if err != nil {
		return 0, err
	}

	remapped := changedIDs(len(items), func(i int) int64 { return items[i].ID })
	if len(remapped) == 0 {
		return 0, nil
	}

	_, err = tx.ExecContext(ctx, `
		CREATE TABLE items_new (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			price_cents INTEGER NOT NULL,
			category_id INTEGER NOT NULL,
			available INTEGER NOT NULL DEFAULT 1,
			sort_order INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY(category_id) REFERENCES categories(id)
		)`)
	if err != nil {
		return 0, err
	}
	for i, it := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO items_new(id, name, price_cents, category_id, available, sort_order)
			VALUES(?, ?, ?, ?, ?, ?)`,
			int64(i+1), it.Name, it.PriceCents, it.CategoryID, boolToInt(it.Available), it.SortOrder)
		if err != nil {
			return 0, err
		}
	}

	// Order lines keep their captured name/price/category-name; the
	// item reference is the one historical field that moves with the
	// item's new identifier.
	if err := remapColumn(ctx, tx, "order_items", "item_id", remapped); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE items"); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, "ALTER TABLE items_new RENAME TO items"); err != nil {
		return 0, err
	}
	return len(remapped), nil
}

// idPair is one old -> new identifier assignment.
type idPair struct {
	from, to int64
}

// changedIDs maps row positions (1-based) to new ids and returns only
// the assignments that actually change an identifier.
func changedIDs(n int, oldID func(int) int64) []idPair {
	var pairs []idPair
	for i := 0; i < n; i++ {
		if old, newID := oldID(i), int64(i+1); old != newID {
			pairs = append(pairs, idPair{from: old, to: newID})
		}
	}
	return pairs
}

// remapColumn rewrites every changed reference in one statement:
//
//	UPDATE t SET col = CASE col WHEN old1 THEN new1 ... END
//	WHERE col IN (old1, ...)
//
// A single pass over the old values cannot double-apply the mapping the
// way sequential per-id UPDATEs can when two ids swap.
func remapColumn(ctx context.Context, tx *sqlx.Tx, table, column string, pairs []idPair) error {
	if len(pairs) == 0 {
		return nil
	}
	var sb strings.Builder
	args := make([]any, 0, len(pairs)*3)
	fmt.Fprintf(&sb, "UPDATE %s SET %s = CASE %s", table, column, column)
	for _, p := range pairs {
		sb.WriteString(" WHEN ? THEN ?")
		args = append(args, p.from, p.to)
	}
	fmt.Fprintf(&sb, " END WHERE %s IN (", column)
	for i, p := range pairs {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("?")
		args = append(args, p.from)
	}
	sb.WriteString(")")
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}
