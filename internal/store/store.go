package store

import (
	"context"
	"fmt"

	"cafe-pos/internal/util"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Store owns the embedded SQLite database: catalog, ledger, settings,
// and the renumbering pass.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS items (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	price_cents INTEGER NOT NULL,
	category_id INTEGER NOT NULL,
	available INTEGER NOT NULL DEFAULT 1,
	sort_order INTEGER NOT NULL DEFAULT 0,
	FOREIGN KEY(category_id) REFERENCES categories(id)
);

CREATE TABLE IF NOT EXISTS orders (
	id INTEGER PRIMARY KEY,
	number INTEGER NOT NULL UNIQUE,
	created_at TIMESTAMP NOT NULL,
	total_cents INTEGER NOT NULL,
	tax_cents INTEGER NOT NULL,
	paid_cents INTEGER NOT NULL DEFAULT 0,
	payment_method TEXT NOT NULL,
	note TEXT DEFAULT ''
);

CREATE TABLE IF NOT EXISTS order_items (
	id INTEGER PRIMARY KEY,
	order_id INTEGER NOT NULL,
	item_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	unit_price_cents INTEGER NOT NULL,
	qty INTEGER NOT NULL,
	category_name TEXT NOT NULL,
	FOREIGN KEY(order_id) REFERENCES orders(id)
);
`

// order_items.item_id deliberately has no foreign key: an item may be
// deleted after it was sold, and its lines keep their snapshot.

// Settings keys and seeded defaults.
const (
	SettingCafeName       = "cafe_name"
	SettingTaxRatePercent = "tax_rate_percent"
	SettingAdminPIN       = "admin_pin"
	SettingOrderSeq       = "order_seq"

	defaultOrderSeqFloor = 1000
)

// Open creates or opens the SQLite database at path, applies pragmas,
// the schema, default settings and the best-effort unique indexes.
// Idempotent - safe to call against an existing database.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; keep the pool at one connection
	// so concurrent callers queue instead of hitting SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, logger: util.GetLogger()}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	if err := s.ensureDefaultSettings(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed default settings: %w", err)
	}

	s.EnsureUniqueIndexes(context.Background())

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database handle. Tests use it for direct
// setup; prefer Store methods elsewhere.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// EnsureUniqueIndexes creates the case-insensitive name indexes if they
// do not exist. Creation can fail when a pre-existing database already
// holds duplicate names; that is logged and tolerated, because the
// application-level uniqueness checks stay authoritative either way.
func (s *Store) EnsureUniqueIndexes(ctx context.Context) {
	indexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_categories_name_nocase ON categories(lower(name))",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_items_cat_name_nocase ON items(category_id, lower(name))",
	}
	for _, stmt := range indexes {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			s.logger.Warn("unique index unavailable, relying on application checks",
				zap.String("stmt", stmt), zap.Error(err))
		}
	}
}

func (s *Store) ensureDefaultSettings(ctx context.Context) error {
	defaults := map[string]string{
		SettingCafeName:       "Crispino Cafe",
		SettingTaxRatePercent: "0",
		SettingAdminPIN:       "1234",
		SettingOrderSeq:       fmt.Sprintf("%d", defaultOrderSeqFloor),
	}
	for key, value := range defaults {
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO settings(key, value) VALUES(?, ?) ON CONFLICT(key) DO NOTHING",
			key, value)
		if err != nil {
			return err
		}
	}
	return nil
}

// SeedDemoMenu inserts a small starter menu when the catalog is empty.
func (s *Store) SeedDemoMenu(ctx context.Context) error {
	var count int64
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM items"); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	categories := []struct {
		name string
		sort int64
	}{
		{"Coffee", 1},
		{"Tea", 2},
		{"Snacks", 3},
	}
	catIDs := make(map[string]int64, len(categories))
	for _, c := range categories {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO categories(name, sort_order) VALUES(?, ?)", c.name, c.sort)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		catIDs[c.name] = id
	}

	items := []struct {
		name     string
		price    int64
		category string
		sort     int64
	}{
		{"Espresso", 300, "Coffee", 1},
		{"Americano", 350, "Coffee", 2},
		{"Latte", 450, "Coffee", 3},
		{"Cappuccino", 450, "Coffee", 4},
		{"Black Tea", 250, "Tea", 1},
		{"Green Tea", 300, "Tea", 2},
		{"Chai", 350, "Tea", 3},
		{"Blueberry Muffin", 275, "Snacks", 1},
		{"Croissant", 300, "Snacks", 2},
		{"Chocolate Chip Cookie", 200, "Snacks", 3},
	}
	for _, it := range items {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO items(name, price_cents, category_id, available, sort_order) VALUES(?, ?, ?, 1, ?)",
			it.name, it.price, catIDs[it.category], it.sort)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Info("Seeded demo menu", zap.Int("categories", len(categories)), zap.Int("items", len(items)))
	return nil
}
