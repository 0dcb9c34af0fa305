package models

import (
	"github.com/google/uuid"
)

// Customer is the checkout-side identity record. It is resolved or created
// from the personal data supplied at checkout and is independent of the
// authentication account; when a match is possible the two are linked.
type Customer struct {
	BaseModel
	DocumentNumber string     `gorm:"index" json:"document_number"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `gorm:"index" json:"email"`
	Phone          string     `json:"phone"`
	Country        string     `json:"country"`
	UserID         *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Orders         []Order    `gorm:"foreignKey:CustomerID" json:"orders,omitempty"`
}

type UserAddress struct {
	BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Label       string    `json:"label"`
	AddressLine string    `json:"address_line"`
	District    string    `json:"district"`
	City        string    `json:"city"`
	Province    string    `json:"province"`
	PostalCode  string    `json:"postal_code"`
	Reference   string    `json:"reference"`
	IsDefault   bool      `json:"is_default"`
}

// Favorite marks a product saved by a user.
type Favorite struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_favorite_user_product" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_favorite_user_product" json:"product_id"`
	Product   *Product  `json:"product,omitempty"`
}
