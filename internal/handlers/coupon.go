package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/wayra/internal/models"
	"github.com/example/wayra/internal/utils"
)

// CouponHandler manages back-office coupon configuration.
type CouponHandler struct {
	db *gorm.DB
}

// NewCouponHandler constructs CouponHandler.
func NewCouponHandler(db *gorm.DB) *CouponHandler {
	return &CouponHandler{db: db}
}

// ListCoupons returns all coupons.
func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	pagination := utils.ParsePagination(c)

	var coupons []models.Coupon
	if err := h.db.Order("created_at desc").
		Offset(pagination.Offset).Limit(pagination.Limit).
		Find(&coupons).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"coupons": coupons,
	})
}

type couponRequest struct {
	Code        string     `json:"code"`
	Type        string     `json:"type"`
	Value       *float64   `json:"value"`
	MinSpend    *float64   `json:"min_spend"`
	MaxDiscount *float64   `json:"max_discount"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	UsageCap    *int       `json:"usage_cap"`
	IsActive    *bool      `json:"is_active"`
}

// CreateCoupon adds a coupon.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var req couponRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}
	if req.Type != models.CouponTypePercentage && req.Type != models.CouponTypeFixed {
		return fiber.NewError(fiber.StatusBadRequest, "type must be percentage or fixed")
	}
	if req.Value == nil || *req.Value <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "value must be positive")
	}
	if req.Type == models.CouponTypePercentage && *req.Value > 100 {
		return fiber.NewError(fiber.StatusBadRequest, "percentage value cannot exceed 100")
	}
	if req.StartsAt == nil || req.EndsAt == nil {
		return fiber.NewError(fiber.StatusBadRequest, "starts_at and ends_at are required")
	}
	if !req.EndsAt.After(*req.StartsAt) {
		return fiber.NewError(fiber.StatusBadRequest, "ends_at must be after starts_at")
	}

	coupon := models.Coupon{
		Code:     req.Code,
		Type:     req.Type,
		Value:    *req.Value,
		StartsAt: *req.StartsAt,
		EndsAt:   *req.EndsAt,
		IsActive: true,
	}
	if req.MinSpend != nil {
		coupon.MinSpend = *req.MinSpend
	}
	if req.MaxDiscount != nil {
		coupon.MaxDiscount = *req.MaxDiscount
	}
	if req.UsageCap != nil {
		coupon.UsageCap = *req.UsageCap
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}

	if err := h.db.Create(&coupon).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"coupon":  coupon,
	})
}

// UpdateCoupon edits a coupon. The usage counter itself is never editable.
func (h *CouponHandler) UpdateCoupon(c *fiber.Ctx) error {
	couponID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid coupon id")
	}

	var req couponRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var coupon models.Coupon
	if err := h.db.First(&coupon, "id = ?", couponID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "coupon not found")
		}
		return err
	}

	updates := map[string]interface{}{}
	if req.Value != nil {
		if *req.Value <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "value must be positive")
		}
		updates["value"] = *req.Value
	}
	if req.MinSpend != nil {
		updates["min_spend"] = *req.MinSpend
	}
	if req.MaxDiscount != nil {
		updates["max_discount"] = *req.MaxDiscount
	}
	if req.StartsAt != nil {
		updates["starts_at"] = *req.StartsAt
	}
	if req.EndsAt != nil {
		updates["ends_at"] = *req.EndsAt
	}
	if req.UsageCap != nil {
		updates["usage_cap"] = *req.UsageCap
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		if err := h.db.Model(&coupon).Updates(updates).Error; err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true})
}

// DeleteCoupon deactivates a coupon; redemption history stays intact.
func (h *CouponHandler) DeleteCoupon(c *fiber.Ctx) error {
	couponID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid coupon id")
	}

	result := h.db.Model(&models.Coupon{}).Where("id = ?", couponID).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "coupon not found")
	}

	return c.JSON(fiber.Map{"success": true})
}
