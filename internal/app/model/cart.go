package model

import "time"

// CartLine is one row of a user's cart. At most one line exists per
// (user, product, size) triple; the gateway enforces this with an
// upsert-on-conflict rule over that key. Size uses the empty string for
// "no size selected" so the conflict key stays well-defined.
type CartLine struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id,omitempty"`
	UserID    string    `gorm:"type:text;not null;uniqueIndex:idx_cart_line_key" json:"user_id"`
	ProductID string    `gorm:"type:text;not null;uniqueIndex:idx_cart_line_key" json:"product_id"`
	Size      string    `gorm:"not null;default:'';uniqueIndex:idx_cart_line_key" json:"size"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at,omitzero"`

	// Denormalized product snapshot, loaded via embed/preload
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (CartLine) TableName() string {
	return "cart_items"
}

// UnitPrice returns the per-item price of the line, preferring the discount
// price. Zero when no product snapshot is attached.
func (l CartLine) UnitPrice() float64 {
	if l.Product == nil {
		return 0
	}
	return l.Product.EffectivePrice()
}
