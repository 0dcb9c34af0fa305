package models

import (
	"time"
)

// User represents an authenticated account.
type User struct {
	BaseModel
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	Email        string        `gorm:"uniqueIndex" json:"email"`
	Phone        string        `json:"phone"`
	DisplayName  string        `json:"display_name"`
	PasswordHash string        `json:"-"`
	IsAdmin      bool          `json:"is_admin"`
	Addresses    []UserAddress `json:"addresses,omitempty"`
	Favorites    []Favorite    `json:"favorites,omitempty"`
	Orders       []Order       `gorm:"foreignKey:UserID" json:"orders,omitempty"`
}

// PasswordResetToken tracks one-time password reset tokens.
type PasswordResetToken struct {
	BaseModel
	Email     string     `gorm:"index" json:"email"`
	Token     string     `gorm:"uniqueIndex" json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
}
