package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/wayra/internal/middleware"
	"github.com/example/wayra/internal/models"
	"github.com/example/wayra/internal/services"
	"github.com/example/wayra/internal/utils"
)

// OrderHandler manages order endpoints for customers and the back office.
type OrderHandler struct {
	db       *gorm.DB
	orders   *services.OrderService
	payments *services.PaymentService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, orders *services.OrderService, payments *services.PaymentService) *OrderHandler {
	return &OrderHandler{db: db, orders: orders, payments: payments}
}

// ListMyOrders returns the authenticated user's orders.
func (h *OrderHandler) ListMyOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pagination := utils.ParsePagination(c)

	query := h.db.Where("user_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	if err := query.Preload("Items").Preload("Payments").
		Order("placed_at desc").
		Offset(pagination.Offset).Limit(pagination.Limit).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"orders":  orders,
	})
}

// GetMyOrder returns one of the authenticated user's orders.
func (h *OrderHandler) GetMyOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var order models.Order
	if err := h.db.Preload("Items").Preload("Payments").Preload("Installments").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at asc")
		}).
		First(&order, "id = ? AND user_id = ?", orderID, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"order":   order,
	})
}

// CancelMyOrder lets a customer cancel their own order while the transition
// table still allows it.
func (h *OrderHandler) CancelMyOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var order models.Order
	if err := h.db.First(&order, "id = ? AND user_id = ?", orderID, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	updated, err := h.orders.Transition(c.Context(), order.ID, models.OrderStatusCancelled, services.TransitionInput{
		Actor: "customer:" + userID.String(),
		Note:  "cancelled by the customer",
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"order":   updated,
	})
}

// ListOrders returns all orders for the back office, with filters.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	pagination := utils.ParsePagination(c)

	query := h.db.Model(&models.Order{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if channel := c.Query("sales_channel"); channel != "" {
		query = query.Where("sales_channel = ?", channel)
	}
	if from := c.Query("from"); from != "" {
		day, err := time.Parse("2006-01-02", from)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid from date")
		}
		query = query.Where("placed_at >= ?", day)
	}
	if to := c.Query("to"); to != "" {
		day, err := time.Parse("2006-01-02", to)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid to date")
		}
		query = query.Where("placed_at < ?", day.AddDate(0, 0, 1))
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("order_number ILIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").Preload("Payments").Preload("PaymentMethod").
		Order("placed_at desc").
		Offset(pagination.Offset).Limit(pagination.Limit).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"orders":  orders,
		"total":   total,
		"page":    pagination.Page,
		"limit":   pagination.Limit,
	})
}

// GetOrder returns one order with its full history for the back office.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var order models.Order
	if err := h.db.Preload("Items").Preload("Payments").Preload("Installments").
		Preload("PaymentMethod").Preload("Customer").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at asc")
		}).
		First(&order, "id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success":             true,
		"order":               order,
		"allowed_transitions": services.AllowedTransitions(order.Status),
	})
}

type updateStatusRequest struct {
	Status       string     `json:"status"`
	Note         string     `json:"note"`
	TrackingCode string     `json:"tracking_code"`
	DeliveredAt  *time.Time `json:"delivered_at"`
}

// UpdateStatus moves an order through its lifecycle.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	userID, _ := middleware.GetCurrentUserID(c)

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Status == "" {
		return fiber.NewError(fiber.StatusBadRequest, "status is required")
	}

	order, err := h.orders.Transition(c.Context(), orderID, req.Status, services.TransitionInput{
		Actor:        "admin:" + userID.String(),
		Note:         req.Note,
		TrackingCode: req.TrackingCode,
		DeliveredAt:  req.DeliveredAt,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"order":   order,
	})
}

type orderItemRequest struct {
	ProductID        string `json:"product_id"`
	ProductVariantID string `json:"product_variant_id"`
	Quantity         int    `json:"quantity"`
}

// AddItem appends a line item to a still-mutable order.
func (h *OrderHandler) AddItem(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var req orderItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	input := services.ItemInput{Quantity: req.Quantity}
	if req.ProductID != "" {
		id, err := uuid.Parse(req.ProductID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}
		input.ProductID = &id
	}
	if req.ProductVariantID != "" {
		id, err := uuid.Parse(req.ProductVariantID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid variant id")
		}
		input.ProductVariantID = &id
	}

	order, err := h.orders.AddItem(c.Context(), orderID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"order":   order,
	})
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem changes a line item's quantity.
func (h *OrderHandler) UpdateItem(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}
	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid item id")
	}

	var req updateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.UpdateItemQuantity(c.Context(), orderID, itemID, req.Quantity)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"order":   order,
	})
}

// RemoveItem deletes a line item.
func (h *OrderHandler) RemoveItem(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}
	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid item id")
	}

	order, err := h.orders.RemoveItem(c.Context(), orderID, itemID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"order":   order,
	})
}

// DeleteOrder soft-deletes a pending order.
func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	if err := h.orders.SoftDelete(c.Context(), orderID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

type markPaidRequest struct {
	AuthorizationCode string `json:"authorization_code"`
	TransactionUUID   string `json:"transaction_uuid"`
}

// MarkPaymentPaid settles a payment manually, e.g. after a bank transfer is
// confirmed.
func (h *OrderHandler) MarkPaymentPaid(c *fiber.Ctx) error {
	userID, _ := middleware.GetCurrentUserID(c)

	paymentID, err := uuid.Parse(c.Params("paymentId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payment id")
	}

	var req markPaidRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payment, err := h.payments.MarkPaid(c.Context(), paymentID, req.AuthorizationCode, req.TransactionUUID, "admin:"+userID.String())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"payment": payment,
	})
}

type markFailedRequest struct {
	Reason string `json:"reason"`
}

// MarkPaymentFailed fails a pending payment.
func (h *OrderHandler) MarkPaymentFailed(c *fiber.Ctx) error {
	paymentID, err := uuid.Parse(c.Params("paymentId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payment id")
	}

	var req markFailedRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payment, err := h.payments.MarkFailed(c.Context(), paymentID, req.Reason)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"payment": payment,
	})
}
