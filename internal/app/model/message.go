package model

import "time"

// Message is a contact-form submission; the one anonymous write the schema
// accepts.
type Message struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id,omitempty"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"not null" json:"email"`
	Message   string    `gorm:"not null" json:"message"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

func (Message) TableName() string {
	return "messages"
}
