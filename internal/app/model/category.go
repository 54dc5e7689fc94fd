package model

import "time"

type Category struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id,omitempty"`
	Name      string    `gorm:"not null" json:"name"`
	ImageURL  *string   `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

func (Category) TableName() string {
	return "categories"
}
