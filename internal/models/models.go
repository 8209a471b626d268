package models

import "time"

// Category groups menu items. IDs are kept dense (1..N) by the
// renumbering pass, so they are safe to show to staff as "category #".
type Category struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	SortOrder int64  `db:"sort_order" json:"sort_order"`
}

// CategoryWithCount is a category plus how many items it currently owns.
type CategoryWithCount struct {
	Category
	ItemCount int64 `db:"item_count" json:"item_count"`
}

// Item is a sellable menu entry. Prices are integer minor units (cents).
type Item struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	PriceCents int64  `db:"price_cents" json:"price_cents"`
	CategoryID int64  `db:"category_id" json:"category_id"`
	Available  bool   `db:"available" json:"available"`
	SortOrder  int64  `db:"sort_order" json:"sort_order"`
}

// ItemWithCategory joins an item with its owning category's name.
type ItemWithCategory struct {
	Item
	CategoryName string `db:"category_name" json:"category_name"`
}

// MenuGroup is one category's slice of the customer-facing menu.
type MenuGroup struct {
	Category string             `json:"category"`
	Items    []ItemWithCategory `json:"items"`
}

// Order is an immutable, posted order. Number comes from the persisted
// sequence and is the human-facing identifier; ID is the stable row id.
type Order struct {
	ID            int64     `db:"id" json:"id"`
	Number        int64     `db:"number" json:"number"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	TotalCents    int64     `db:"total_cents" json:"total_cents"`
	TaxCents      int64     `db:"tax_cents" json:"tax_cents"`
	PaidCents     int64     `db:"paid_cents" json:"paid_cents"`
	PaymentMethod string    `db:"payment_method" json:"payment_method"`
	Note          string    `db:"note" json:"note"`
}

// OrderLine captures one item at order time. Name, unit price and
// category name are historical snapshots and are never rewritten;
// ItemID is the one field the renumbering pass may update so the line
// keeps pointing at the same logical item after compaction.
type OrderLine struct {
	ID             int64  `db:"id" json:"id"`
	OrderID        int64  `db:"order_id" json:"order_id"`
	ItemID         int64  `db:"item_id" json:"item_id"`
	Name           string `db:"name" json:"name"`
	UnitPriceCents int64  `db:"unit_price_cents" json:"unit_price_cents"`
	Qty            int64  `db:"qty" json:"qty"`
	CategoryName   string `db:"category_name" json:"category_name"`
}

// ItemPopularity is one row of the top-items report.
type ItemPopularity struct {
	ItemID     int64  `db:"item_id" json:"item_id"`
	Name       string `db:"name" json:"name"`
	TotalQty   int64  `db:"total_qty" json:"total_qty"`
	TotalCents int64  `db:"total_cents" json:"total_cents"`
}

// DailyReport aggregates one day's posted orders.
type DailyReport struct {
	Date       string `db:"-" json:"date"`
	OrderCount int64  `db:"order_count" json:"order_count"`
	GrossCents int64  `db:"gross_cents" json:"gross_cents"`
	TaxCents   int64  `db:"tax_cents" json:"tax_cents"`
}

// Payment methods
const (
	PaymentCash  = "cash"
	PaymentCard  = "card"
	PaymentOther = "other"
)

// ValidPaymentMethod reports whether m is one of the accepted methods.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentOther:
		return true
	}
	return false
}
