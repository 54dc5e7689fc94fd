package model

import "time"

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"

	ShippingStatusProcessing = "processing"
	ShippingStatusShipped    = "shipped"
	ShippingStatusDelivered  = "delivered"
	ShippingStatusCancelled  = "cancelled"
)

// OrderItem is a cart line frozen into an order document at checkout time.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size,omitempty"`
	Image     string  `json:"image,omitempty"`
}

type Order struct {
	ID              string      `gorm:"type:text;primaryKey" json:"id,omitempty"`
	UserID          string      `gorm:"type:text;not null;index" json:"user_id"`
	TotalAmount     float64     `gorm:"not null" json:"total_amount"`
	PaymentStatus   string      `gorm:"not null;default:'pending'" json:"payment_status"`
	ShippingStatus  string      `gorm:"not null;default:'processing'" json:"shipping_status"`
	ShippingAddress Address     `gorm:"serializer:json" json:"shipping_address"`
	Items           []OrderItem `gorm:"serializer:json;column:order_items" json:"order_items"`
	CreatedAt       time.Time   `json:"created_at,omitzero"`
}

func (Order) TableName() string {
	return "orders"
}
