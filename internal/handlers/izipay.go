package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/wayra/internal/apperr"
	"github.com/example/wayra/internal/models"
	"github.com/example/wayra/internal/services"
)

// IzipayHandler manages the gateway integration endpoints: form-token
// creation, the browser return callback and the server-to-server IPN.
type IzipayHandler struct {
	db       *gorm.DB
	izipay   *services.IzipayService
	payments *services.PaymentService
}

// NewIzipayHandler constructs IzipayHandler.
func NewIzipayHandler(db *gorm.DB, izipay *services.IzipayService, payments *services.PaymentService) *IzipayHandler {
	return &IzipayHandler{db: db, izipay: izipay, payments: payments}
}

type formTokenRequest struct {
	OrderID string `json:"order_id"`
}

// CreateFormToken issues a payment-session token for a pending order. The
// order can be referenced by UUID or by order number.
func (h *IzipayHandler) CreateFormToken(c *fiber.Ctx) error {
	var req formTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.OrderID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "order_id is required")
	}

	var order models.Order
	var err error
	if id, parseErr := uuid.Parse(req.OrderID); parseErr == nil {
		err = h.db.First(&order, "id = ?", id).Error
	} else {
		err = h.db.First(&order, "order_number = ?", req.OrderID).Error
	}
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	result, err := h.izipay.CreateFormToken(c.Context(), &order)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"form_token": result.FormToken,
		"public_key": result.PublicKey,
	})
}

// Return handles the browser redirect after payment. The answer is signed
// with the API password on this path.
func (h *IzipayHandler) Return(c *fiber.Ctx) error {
	krAnswer := c.FormValue("kr-answer")
	krHash := c.FormValue("kr-hash")
	krHashKey := c.FormValue("kr-hash-key", "password")

	if krAnswer == "" || krHash == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing gateway answer")
	}

	result, err := h.izipay.HandleAnswer(krAnswer, krHash, krHashKey)
	if err != nil {
		return err
	}

	order, err := h.payments.ApplyGatewayResult(c.Context(), *result, "gateway:return")
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":      result.Success,
		"order_number": order.OrderNumber,
		"status":       order.Status,
	})
}

// IPN handles the server-to-server notification. The gateway expects a plain
// text body: "OK! OrderStatus is {status}" on success, and bare 404/500
// codes on failure. Never JSON on this endpoint.
func (h *IzipayHandler) IPN(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)

	krAnswer := c.FormValue("kr-answer")
	krHash := c.FormValue("kr-hash")
	krHashKey := c.FormValue("kr-hash-key", "sha256_hmac")

	if krAnswer == "" || krHash == "" {
		log.Println("[Izipay] IPN missing kr-answer or kr-hash")
		return c.Status(fiber.StatusInternalServerError).SendString("KO: missing answer")
	}

	result, err := h.izipay.HandleAnswer(krAnswer, krHash, krHashKey)
	if err != nil {
		log.Printf("[Izipay] IPN rejected: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("KO: invalid answer")
	}

	order, err := h.payments.ApplyGatewayResult(c.Context(), *result, "gateway:ipn")
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			log.Printf("[Izipay] IPN for unknown order %s", result.OrderID)
			return c.Status(fiber.StatusNotFound).SendString("KO: order not found")
		}
		log.Printf("[Izipay] IPN processing failed for order %s: %v", result.OrderID, err)
		return c.Status(fiber.StatusInternalServerError).SendString("KO: processing failed")
	}

	return c.SendString("OK! OrderStatus is " + order.Status)
}
