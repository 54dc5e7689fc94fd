package model

import "time"

type Product struct {
	ID            string    `gorm:"type:text;primaryKey" json:"id,omitempty"`
	Title         string    `gorm:"not null" json:"title"`
	Description   *string   `json:"description,omitempty"`
	CategoryID    *string   `gorm:"type:text;index" json:"category_id,omitempty"`
	Sizes         []string  `gorm:"serializer:json" json:"sizes"`
	Condition     string    `json:"condition"`
	Price         float64   `gorm:"not null" json:"price"`
	DiscountPrice *float64  `json:"discount_price,omitempty"`
	StockCount    int       `json:"stock_count"`
	Images        []string  `gorm:"serializer:json" json:"images"`
	IsFeatured    bool      `json:"is_featured"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at,omitzero"`

	// Loaded via embed/preload
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// EffectivePrice returns the discount price when one is set.
func (p Product) EffectivePrice() float64 {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}
