package model

import "time"

// Profile is the storefront-side record mirroring an authenticated user.
// Created lazily on first sign-in.
type Profile struct {
	ID          string    `gorm:"type:text;primaryKey" json:"id,omitempty"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone,omitempty"`
	DateOfBirth *string   `json:"date_of_birth,omitempty"`
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

func (Profile) TableName() string {
	return "profiles"
}
