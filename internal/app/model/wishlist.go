package model

import "time"

// WishlistLine is one row of a user's wishlist, unique per (user, product).
type WishlistLine struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id,omitempty"`
	UserID    string    `gorm:"type:text;not null;uniqueIndex:idx_wishlist_line_key" json:"user_id"`
	ProductID string    `gorm:"type:text;not null;uniqueIndex:idx_wishlist_line_key" json:"product_id"`
	CreatedAt time.Time `json:"created_at,omitzero"`

	// Denormalized product snapshot, loaded via embed/preload
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (WishlistLine) TableName() string {
	return "wishlist"
}
