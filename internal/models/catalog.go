package models

import "github.com/google/uuid"

type Category struct {
	BaseModel
	Name         string    `json:"name"`
	Slug         string    `gorm:"uniqueIndex" json:"slug"`
	Description  string    `json:"description"`
	Image        string    `json:"image"`
	ProductCount int       `json:"product_count"`
	Products     []Product `json:"products,omitempty"`
}

type Brand struct {
	BaseModel
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Country      string     `json:"country"`
	Image        string     `json:"image"`
	ProductCount int        `json:"product_count"`
	CategoryID   *uuid.UUID `gorm:"type:uuid" json:"category_id"`
	Category     *Category  `json:"category,omitempty"`
	Products     []Product  `json:"products,omitempty"`
}
