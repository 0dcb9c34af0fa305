package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/example/wayra/internal/models"
)

// PaymentMethodHandler manages back-office payment method configuration.
type PaymentMethodHandler struct {
	db *gorm.DB
}

// NewPaymentMethodHandler constructs PaymentMethodHandler.
func NewPaymentMethodHandler(db *gorm.DB) *PaymentMethodHandler {
	return &PaymentMethodHandler{db: db}
}

// ListMethods returns all configured methods, active or not.
func (h *PaymentMethodHandler) ListMethods(c *fiber.Ctx) error {
	var methods []models.PaymentMethod
	if err := h.db.Order("name asc").Find(&methods).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"methods": methods,
	})
}

type paymentMethodRequest struct {
	Code            string   `json:"code"`
	Name            string   `json:"name"`
	FeePercent      *float64 `json:"fee_percent"`
	FeeFixed        *float64 `json:"fee_fixed"`
	MinAmount       *float64 `json:"min_amount"`
	MaxAmount       *float64 `json:"max_amount"`
	Countries       []string `json:"countries"`
	Currencies      []string `json:"currencies"`
	RequiresGateway *bool    `json:"requires_gateway"`
	IsActive        *bool    `json:"is_active"`
}

// CreateMethod adds a payment method.
func (h *PaymentMethodHandler) CreateMethod(c *fiber.Ctx) error {
	var req paymentMethodRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Code == "" || req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code and name are required")
	}

	method := models.PaymentMethod{
		Code:       req.Code,
		Name:       req.Name,
		Countries:  pq.StringArray(req.Countries),
		Currencies: pq.StringArray(req.Currencies),
		IsActive:   true,
	}
	if req.FeePercent != nil {
		method.FeePercent = *req.FeePercent
	}
	if req.FeeFixed != nil {
		method.FeeFixed = *req.FeeFixed
	}
	if req.MinAmount != nil {
		method.MinAmount = *req.MinAmount
	}
	if req.MaxAmount != nil {
		method.MaxAmount = *req.MaxAmount
	}
	if req.RequiresGateway != nil {
		method.RequiresGateway = *req.RequiresGateway
	}
	if req.IsActive != nil {
		method.IsActive = *req.IsActive
	}

	if err := h.db.Create(&method).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"method":  method,
	})
}

// UpdateMethod edits a payment method.
func (h *PaymentMethodHandler) UpdateMethod(c *fiber.Ctx) error {
	methodID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid method id")
	}

	var req paymentMethodRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var method models.PaymentMethod
	if err := h.db.First(&method, "id = ?", methodID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "payment method not found")
		}
		return err
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.FeePercent != nil {
		updates["fee_percent"] = *req.FeePercent
	}
	if req.FeeFixed != nil {
		updates["fee_fixed"] = *req.FeeFixed
	}
	if req.MinAmount != nil {
		updates["min_amount"] = *req.MinAmount
	}
	if req.MaxAmount != nil {
		updates["max_amount"] = *req.MaxAmount
	}
	if req.Countries != nil {
		updates["countries"] = pq.StringArray(req.Countries)
	}
	if req.Currencies != nil {
		updates["currencies"] = pq.StringArray(req.Currencies)
	}
	if req.RequiresGateway != nil {
		updates["requires_gateway"] = *req.RequiresGateway
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		if err := h.db.Model(&method).Updates(updates).Error; err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true})
}

// DeleteMethod deactivates a payment method. Orders keep referencing it.
func (h *PaymentMethodHandler) DeleteMethod(c *fiber.Ctx) error {
	methodID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid method id")
	}

	result := h.db.Model(&models.PaymentMethod{}).Where("id = ?", methodID).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "payment method not found")
	}

	return c.JSON(fiber.Map{"success": true})
}
