package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/wayra/internal/config"
	"github.com/example/wayra/internal/middleware"
	"github.com/example/wayra/internal/models"
	"github.com/example/wayra/internal/services"
)

// CheckoutHandler manages the checkout flow: eligible payment methods,
// pricing preview and order submission.
type CheckoutHandler struct {
	db       *gorm.DB
	cfg      *config.Config
	checkout *services.CheckoutService
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(db *gorm.DB, cfg *config.Config, checkout *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{db: db, cfg: cfg, checkout: checkout}
}

// ListPaymentMethods returns active methods. When a total is supplied, each
// method carries its eligibility for that amount.
func (h *CheckoutHandler) ListPaymentMethods(c *fiber.Ctx) error {
	var methods []models.PaymentMethod
	if err := h.db.Where("is_active = ?", true).Order("name asc").Find(&methods).Error; err != nil {
		return err
	}

	country := c.Query("country", h.cfg.DefaultCountry)
	currency := c.Query("currency", h.cfg.DefaultCurrency)

	totalParam := c.Query("total")
	if totalParam == "" {
		return c.JSON(fiber.Map{
			"success": true,
			"methods": methods,
		})
	}

	total, err := strconv.ParseFloat(totalParam, 64)
	if err != nil || total < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid total")
	}

	type methodEligibility struct {
		models.PaymentMethod
		Eligible bool   `json:"eligible"`
		Reason   string `json:"reason,omitempty"`
	}

	result := make([]methodEligibility, 0, len(methods))
	for _, method := range methods {
		entry := methodEligibility{PaymentMethod: method, Eligible: true}
		if err := services.ValidatePaymentMethod(method, decimal.NewFromFloat(total), country, currency); err != nil {
			entry.Eligible = false
			entry.Reason = err.Error()
		}
		result = append(result, entry)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"methods": result,
	})
}

type validateMethodRequest struct {
	Code     string  `json:"code"`
	Total    float64 `json:"total"`
	Country  string  `json:"country"`
	Currency string  `json:"currency"`
}

// ValidateMethod checks one payment method against a total.
func (h *CheckoutHandler) ValidateMethod(c *fiber.Ctx) error {
	var req validateMethodRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "code is required")
	}

	var method models.PaymentMethod
	if err := h.db.Where("code = ?", req.Code).First(&method).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "payment method not found")
		}
		return err
	}

	country := req.Country
	if country == "" {
		country = h.cfg.DefaultCountry
	}
	currency := req.Currency
	if currency == "" {
		currency = h.cfg.DefaultCurrency
	}

	if err := services.ValidatePaymentMethod(method, decimal.NewFromFloat(req.Total), country, currency); err != nil {
		return err
	}

	commission := services.MethodCommission(method, decimal.NewFromFloat(req.Total))
	commissionValue, _ := commission.Float64()

	return c.JSON(fiber.Map{
		"success":    true,
		"eligible":   true,
		"commission": commissionValue,
	})
}

type checkoutRequest struct {
	Items             []services.CheckoutItemInput `json:"items"`
	PaymentMethodCode string                       `json:"payment_method_code"`
	PaymentType       string                       `json:"payment_type"`
	InstallmentCount  int                          `json:"installment_count"`
	CouponCode        string                       `json:"coupon_code"`
	Currency          string                       `json:"currency"`
	SalesChannel      string                       `json:"sales_channel"`
	Personal          services.PersonalDataInput   `json:"personal"`
	Shipping          services.ShippingInput       `json:"shipping"`
	Notes             string                       `json:"notes"`
}

func (h *CheckoutHandler) buildInput(c *fiber.Ctx, req checkoutRequest) services.CheckoutInput {
	input := services.CheckoutInput{
		Items:             req.Items,
		PaymentMethodCode: req.PaymentMethodCode,
		PaymentType:       req.PaymentType,
		InstallmentCount:  req.InstallmentCount,
		CouponCode:        req.CouponCode,
		Currency:          req.Currency,
		SalesChannel:      req.SalesChannel,
		Personal:          req.Personal,
		Shipping:          req.Shipping,
		Notes:             req.Notes,
	}
	if userID, ok := middleware.GetCurrentUserID(c); ok {
		input.UserID = &userID
	}
	return input
}

// Preview prices the cart without creating anything.
func (h *CheckoutHandler) Preview(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Items) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "items are required")
	}

	preview, err := h.checkout.Preview(c.Context(), h.buildInput(c, req))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"preview": preview,
	})
}

// Submit places the order.
func (h *CheckoutHandler) Submit(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.checkout.Submit(c.Context(), h.buildInput(c, req))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"order":   result.Order,
		"payment": result.Payment,
	})
}
