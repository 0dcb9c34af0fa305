package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/wayra/internal/middleware"
	"github.com/example/wayra/internal/models"
)

// ProfileHandler manages the authenticated user's profile, addresses and
// favorites.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// GetProfile returns the authenticated user.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.Preload("Addresses").First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

type updateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// UpdateProfile changes the editable profile fields.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.FirstName != "" {
		updates["first_name"] = req.FirstName
	}
	if req.LastName != "" {
		updates["last_name"] = req.LastName
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.FirstName != "" || req.LastName != "" {
		var user models.User
		if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		first := user.FirstName
		last := user.LastName
		if req.FirstName != "" {
			first = req.FirstName
		}
		if req.LastName != "" {
			last = req.LastName
		}
		updates["display_name"] = first + " " + last
	}

	if len(updates) > 0 {
		if err := h.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true})
}

type addressRequest struct {
	Label       string `json:"label"`
	AddressLine string `json:"address_line"`
	District    string `json:"district"`
	City        string `json:"city"`
	Province    string `json:"province"`
	PostalCode  string `json:"postal_code"`
	Reference   string `json:"reference"`
	IsDefault   bool   `json:"is_default"`
}

// ListAddresses returns the user's saved addresses.
func (h *ProfileHandler) ListAddresses(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var addresses []models.UserAddress
	if err := h.db.Where("user_id = ?", userID).Order("created_at asc").Find(&addresses).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"addresses": addresses,
	})
}

// CreateAddress saves a new address for the user.
func (h *ProfileHandler) CreateAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req addressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.AddressLine == "" {
		return fiber.NewError(fiber.StatusBadRequest, "address_line is required")
	}

	address := models.UserAddress{
		UserID:      userID,
		Label:       req.Label,
		AddressLine: req.AddressLine,
		District:    req.District,
		City:        req.City,
		Province:    req.Province,
		PostalCode:  req.PostalCode,
		Reference:   req.Reference,
		IsDefault:   req.IsDefault,
	}

	return h.db.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault {
			if err := tx.Model(&models.UserAddress{}).
				Where("user_id = ?", userID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(&address).Error; err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"address": address,
		})
	})
}

// UpdateAddress edits one of the user's addresses.
func (h *ProfileHandler) UpdateAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	addressID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid address id")
	}

	var req addressRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var address models.UserAddress
	if err := h.db.First(&address, "id = ? AND user_id = ?", addressID, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "address not found")
		}
		return err
	}

	return h.db.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault && !address.IsDefault {
			if err := tx.Model(&models.UserAddress{}).
				Where("user_id = ?", userID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&address).Updates(map[string]interface{}{
			"label":        req.Label,
			"address_line": req.AddressLine,
			"district":     req.District,
			"city":         req.City,
			"province":     req.Province,
			"postal_code":  req.PostalCode,
			"reference":    req.Reference,
			"is_default":   req.IsDefault,
		}).Error; err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	})
}

// DeleteAddress removes one of the user's addresses.
func (h *ProfileHandler) DeleteAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	addressID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid address id")
	}

	result := h.db.Where("id = ? AND user_id = ?", addressID, userID).Delete(&models.UserAddress{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "address not found")
	}

	return c.JSON(fiber.Map{"success": true})
}

// ListFavorites returns the user's saved products.
func (h *ProfileHandler) ListFavorites(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var favorites []models.Favorite
	if err := h.db.Preload("Product").Where("user_id = ?", userID).Find(&favorites).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"favorites": favorites,
	})
}

type favoriteRequest struct {
	ProductID string `json:"product_id"`
}

// AddFavorite saves a product; re-adding an existing favorite is a no-op.
func (h *ProfileHandler) AddFavorite(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req favoriteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	var existing models.Favorite
	if err := h.db.Where("user_id = ? AND product_id = ?", userID, productID).First(&existing).Error; err == nil {
		return c.JSON(fiber.Map{"success": true})
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	favorite := models.Favorite{UserID: userID, ProductID: productID}
	if err := h.db.Create(&favorite).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}

// RemoveFavorite unsaves a product.
func (h *ProfileHandler) RemoveFavorite(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	productID, err := uuid.Parse(c.Params("productId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	result := h.db.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.Favorite{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "favorite not found")
	}

	return c.JSON(fiber.Map{"success": true})
}
