package models

import (
	"github.com/google/uuid"
)

type Product struct {
	BaseModel
	Slug            string           `gorm:"uniqueIndex" json:"slug"`
	SKU             string           `json:"sku"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	BasePrice       float64          `json:"base_price"`
	Currency        string           `json:"currency"`
	Stock           int              `json:"stock"`
	HasVariants     bool             `json:"has_variants"`
	HeroImage       string           `json:"hero_image"`
	IsActive        bool             `json:"is_active"`
	BrandID         *uuid.UUID       `gorm:"type:uuid" json:"brand_id"`
	Brand           *Brand           `json:"brand,omitempty"`
	CategoryID      *uuid.UUID       `gorm:"type:uuid" json:"category_id"`
	Category        *Category        `json:"category,omitempty"`
	Variants        []ProductVariant `json:"variants,omitempty"`
}

// ProductVariant holds its own price and stock. When a product has variants,
// stock lives on the variant rows and the product-level quantity is unused.
type ProductVariant struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	SKU       string    `json:"sku"`
	Label     string    `json:"label"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency"`
	Stock     int       `json:"stock"`
	IsActive  bool      `json:"is_active"`
}
