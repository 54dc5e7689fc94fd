package model

import "time"

type Review struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id,omitempty"`
	UserID    string    `gorm:"type:text;not null;index" json:"user_id"`
	ProductID string    `gorm:"type:text;not null;index" json:"product_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

func (Review) TableName() string {
	return "reviews"
}
