package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/wayra/internal/models"
	"github.com/example/wayra/internal/utils"
)

// ProductHandler manages product and variant endpoints.
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

// ListProducts returns active products with optional filters.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	query := h.db.Preload("Variants").Preload("Brand").Preload("Category").
		Where("is_active = ?", true)

	if categoryID := c.Query("category_id"); categoryID != "" {
		id, err := uuid.Parse(categoryID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid category id")
		}
		query = query.Where("category_id = ?", id)
	}
	if brandID := c.Query("brand_id"); brandID != "" {
		id, err := uuid.Parse(brandID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid brand id")
		}
		query = query.Where("brand_id = ?", id)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	pagination := utils.ParsePagination(c)

	var total int64
	if err := query.Model(&models.Product{}).Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Order("name asc").
		Offset(pagination.Offset).Limit(pagination.Limit).
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"products": products,
		"total":    total,
		"page":     pagination.Page,
		"limit":    pagination.Limit,
	})
}

// GetProduct returns one product by ID or slug.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	param := c.Params("id")

	query := h.db.Preload("Variants").Preload("Brand").Preload("Category")

	var product models.Product
	var err error
	if id, parseErr := uuid.Parse(param); parseErr == nil {
		err = query.First(&product, "id = ?", id).Error
	} else {
		err = query.First(&product, "slug = ?", param).Error
	}
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

type productRequest struct {
	Slug        string   `json:"slug"`
	SKU         string   `json:"sku"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	BasePrice   *float64 `json:"base_price"`
	Currency    string   `json:"currency"`
	Stock       *int     `json:"stock"`
	HasVariants *bool    `json:"has_variants"`
	HeroImage   string   `json:"hero_image"`
	IsActive    *bool    `json:"is_active"`
	BrandID     string   `json:"brand_id"`
	CategoryID  string   `json:"category_id"`
}

// CreateProduct adds a new product.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.Slug == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name and slug are required")
	}
	if req.BasePrice == nil || *req.BasePrice < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "base_price must be non-negative")
	}

	product := models.Product{
		Slug:        req.Slug,
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		BasePrice:   *req.BasePrice,
		Currency:    req.Currency,
		HeroImage:   req.HeroImage,
		IsActive:    true,
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "stock must be non-negative")
		}
		product.Stock = *req.Stock
	}
	if req.HasVariants != nil {
		product.HasVariants = *req.HasVariants
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.BrandID != "" {
		id, err := uuid.Parse(req.BrandID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid brand id")
		}
		product.BrandID = &id
	}
	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid category id")
		}
		product.CategoryID = &id
	}

	if err := h.db.Create(&product).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

// UpdateProduct edits an existing product.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	updates := map[string]interface{}{}
	if req.Slug != "" {
		updates["slug"] = req.Slug
	}
	if req.SKU != "" {
		updates["sku"] = req.SKU
	}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.BasePrice != nil {
		if *req.BasePrice < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "base_price must be non-negative")
		}
		updates["base_price"] = *req.BasePrice
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "stock must be non-negative")
		}
		updates["stock"] = *req.Stock
	}
	if req.HasVariants != nil {
		updates["has_variants"] = *req.HasVariants
	}
	if req.HeroImage != "" {
		updates["hero_image"] = req.HeroImage
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		if err := h.db.Model(&product).Updates(updates).Error; err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true})
}

// DeleteProduct deactivates a product rather than removing rows that orders
// may still reference.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	result := h.db.Model(&models.Product{}).Where("id = ?", productID).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "product not found")
	}

	return c.JSON(fiber.Map{"success": true})
}

type variantRequest struct {
	SKU      string   `json:"sku"`
	Label    string   `json:"label"`
	Price    *float64 `json:"price"`
	Currency string   `json:"currency"`
	Stock    *int     `json:"stock"`
	IsActive *bool    `json:"is_active"`
}

// CreateVariant adds a variant to a product.
func (h *ProductHandler) CreateVariant(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var req variantRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Label == "" {
		return fiber.NewError(fiber.StatusBadRequest, "label is required")
	}
	if req.Price == nil || *req.Price < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price must be non-negative")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	variant := models.ProductVariant{
		ProductID: productID,
		SKU:       req.SKU,
		Label:     req.Label,
		Price:     *req.Price,
		Currency:  req.Currency,
		IsActive:  true,
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "stock must be non-negative")
		}
		variant.Stock = *req.Stock
	}
	if req.IsActive != nil {
		variant.IsActive = *req.IsActive
	}

	return h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&variant).Error; err != nil {
			return err
		}
		if !product.HasVariants {
			if err := tx.Model(&product).Update("has_variants", true).Error; err != nil {
				return err
			}
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"variant": variant,
		})
	})
}

// UpdateVariant edits a variant.
func (h *ProductHandler) UpdateVariant(c *fiber.Ctx) error {
	variantID, err := uuid.Parse(c.Params("variantId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid variant id")
	}

	var req variantRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var variant models.ProductVariant
	if err := h.db.First(&variant, "id = ?", variantID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "variant not found")
		}
		return err
	}

	updates := map[string]interface{}{}
	if req.SKU != "" {
		updates["sku"] = req.SKU
	}
	if req.Label != "" {
		updates["label"] = req.Label
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "price must be non-negative")
		}
		updates["price"] = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "stock must be non-negative")
		}
		updates["stock"] = *req.Stock
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		if err := h.db.Model(&variant).Updates(updates).Error; err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true})
}
