package model

import "time"

const (
	AddressTypeHome  = "home"
	AddressTypeWork  = "work"
	AddressTypeOther = "other"
)

type Address struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id,omitempty"`
	UserID    string    `gorm:"type:text;not null;index" json:"user_id"`
	Name      string    `gorm:"not null" json:"name"`
	Phone     string    `gorm:"not null" json:"phone"`
	Street    string    `gorm:"not null" json:"street"`
	City      string    `gorm:"not null" json:"city"`
	State     string    `gorm:"not null" json:"state"`
	Pincode   string    `gorm:"not null" json:"pincode"`
	Type      string    `gorm:"not null;default:'home'" json:"type"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

func (Address) TableName() string {
	return "addresses"
}
