package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/wayra/internal/apperr"
	"github.com/example/wayra/internal/models"
	"github.com/example/wayra/internal/pricing"
)

// orderTransitions is the full transition table. Missing target sets mean
// the state is terminal.
var orderTransitions = map[string][]string{
	models.OrderStatusPending:   {models.OrderStatusApproved, models.OrderStatusRejected, models.OrderStatusCancelled},
	models.OrderStatusApproved:  {models.OrderStatusInProcess, models.OrderStatusCancelled},
	models.OrderStatusInProcess: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:   {models.OrderStatusDelivered, models.OrderStatusReturned},
	models.OrderStatusDelivered: {models.OrderStatusReturned},
	models.OrderStatusRejected:  {},
	models.OrderStatusCancelled: {},
	models.OrderStatusReturned:  {},
}

// AllowedTransitions returns the valid targets from a given state.
func AllowedTransitions(status string) []string {
	targets := make([]string, len(orderTransitions[status]))
	copy(targets, orderTransitions[status])
	sort.Strings(targets)
	return targets
}

// CanTransition reports whether from → to appears in the transition table.
func CanTransition(from, to string) bool {
	for _, target := range orderTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

func invalidTransition(order *models.Order, target string) error {
	allowed := AllowedTransitions(order.Status)
	if len(allowed) == 0 {
		return apperr.InvalidTransitionf("order %s is %s, which is terminal", order.OrderNumber, order.Status)
	}
	return apperr.InvalidTransitionf("cannot move order %s from %s to %s; allowed targets: %s",
		order.OrderNumber, order.Status, target, strings.Join(allowed, ", "))
}

// OrderService owns order state transitions, line-item mutations and total
// recalculation.
type OrderService struct {
	db       *gorm.DB
	notifier *NotificationService
}

// NewOrderService constructs OrderService.
func NewOrderService(db *gorm.DB, notifier *NotificationService) *OrderService {
	return &OrderService{db: db, notifier: notifier}
}

// TransitionInput carries the actor and transition-specific fields.
type TransitionInput struct {
	Actor        string
	Note         string
	TrackingCode string
	DeliveredAt  *time.Time
}

// Transition moves an order to the target state inside one transaction,
// recording a history entry and applying the transition's side effects.
func (s *OrderService) Transition(ctx context.Context, orderID uuid.UUID, target string, in TransitionInput) (*models.Order, error) {
	var order models.Order
	var previous string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("order %s not found", orderID)
			}
			return err
		}
		previous = order.Status
		return s.applyTransition(tx, &order, target, in)
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil && order.Status != previous {
		go s.notifier.NotifyOrderStatus(&order, previous)
	}

	return &order, nil
}

// applyTransition mutates an already-locked order. Callers must hold a row
// lock on the order within tx.
func (s *OrderService) applyTransition(tx *gorm.DB, order *models.Order, target string, in TransitionInput) error {
	if order.Status == target {
		// Re-applying the current state is a no-op so gateway callbacks
		// arriving twice do not fail.
		return nil
	}
	if !CanTransition(order.Status, target) {
		return invalidTransition(order, target)
	}

	now := time.Now()
	updates := map[string]any{"status": target, "updated_at": now}

	switch target {
	case models.OrderStatusShipped:
		trackingCode := in.TrackingCode
		if trackingCode == "" {
			trackingCode = order.TrackingCode
		}
		if trackingCode == "" {
			return apperr.Validationf("a tracking code is required to ship order %s", order.OrderNumber)
		}
		updates["tracking_code"] = trackingCode
		order.TrackingCode = trackingCode
	case models.OrderStatusDelivered:
		deliveredAt := in.DeliveredAt
		if deliveredAt == nil {
			deliveredAt = &now
		}
		updates["delivered_at"] = deliveredAt
		order.DeliveredAt = deliveredAt
	}

	if restoresStock(target) {
		if err := s.restoreStock(tx, order.ID); err != nil {
			return err
		}
		updates["courier_name"] = ""
		order.CourierName = ""
	}

	history := models.OrderStatusHistory{
		OrderID:        order.ID,
		PreviousStatus: order.Status,
		NewStatus:      target,
		Actor:          in.Actor,
		Note:           in.Note,
		OccurredAt:     now,
	}
	if err := tx.Create(&history).Error; err != nil {
		return err
	}

	if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
		return err
	}

	order.Status = target
	return nil
}

// restoresStock reports whether entering the target state returns the
// order's line items to the ledger.
func restoresStock(target string) bool {
	return target == models.OrderStatusCancelled || target == models.OrderStatusReturned
}

// restoreStock returns every line item's quantity to the ledger.
func (s *OrderService) restoreStock(tx *gorm.DB, orderID uuid.UUID) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}
	for _, item := range items {
		if err := incrementStock(tx, item.ProductID, item.ProductVariantID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Recalculate recomputes the order totals from its line items and persists
// them. Credit orders also get their interest and installment amount
// recomputed at the fixed annual rate.
func (s *OrderService) Recalculate(tx *gorm.DB, order *models.Order) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return err
	}

	lines := make([]pricing.LineTotals, 0, len(items))
	for _, item := range items {
		lines = append(lines, pricing.LineTotals{
			Subtotal: decimal.NewFromFloat(item.Subtotal),
			Discount: decimal.NewFromFloat(item.Discount),
			Tax:      decimal.NewFromFloat(item.Tax),
		})
	}

	couponDiscount := decimal.Zero
	if order.CouponCode != "" {
		var redemption models.CouponRedemption
		if err := tx.Joins("JOIN coupons ON coupons.id = coupon_redemptions.coupon_id").
			Where("coupon_redemptions.order_number = ? AND coupons.code = ?", order.OrderNumber, order.CouponCode).
			First(&redemption).Error; err == nil {
			couponDiscount = decimal.NewFromFloat(redemption.Amount)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	totals := pricing.CalculateOrder(lines,
		couponDiscount,
		decimal.NewFromFloat(order.ManualDiscount),
		decimal.NewFromFloat(order.ShippingCost))

	order.Subtotal, _ = totals.Subtotal.Float64()
	order.Discount, _ = totals.Discount.Float64()
	order.Tax, _ = totals.Tax.Float64()
	order.ShippingCost, _ = totals.ShippingCost.Float64()
	order.Total, _ = totals.Total.Float64()

	updates := map[string]any{
		"subtotal":      order.Subtotal,
		"discount":      order.Discount,
		"tax":           order.Tax,
		"shipping_cost": order.ShippingCost,
		"total":         order.Total,
	}

	if order.PaymentType == models.PaymentTypeCredit && order.InstallmentCount > 0 {
		plan, err := pricing.BuildInstallmentPlan(totals.Total, order.InstallmentCount, order.PlacedAt)
		if err != nil {
			return err
		}
		order.InterestTotal, _ = plan.InterestTotal.Float64()
		order.InstallmentAmount, _ = plan.InstallmentAmount.Float64()
		updates["interest_total"] = order.InterestTotal
		updates["installment_amount"] = order.InstallmentAmount
	}

	return tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error
}

// ItemInput adds or updates a line on an existing order.
type ItemInput struct {
	ProductID        *uuid.UUID
	ProductVariantID *uuid.UUID
	Quantity         int
}

// AddItem appends a line item to an order still open for mutation,
// decrementing stock and recalculating totals.
func (s *OrderService) AddItem(ctx context.Context, orderID uuid.UUID, in ItemInput) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockMutableOrder(tx, orderID, &order); err != nil {
			return err
		}

		if in.Quantity <= 0 {
			return apperr.Validationf("quantity must be positive")
		}
		if (in.ProductID == nil) == (in.ProductVariantID == nil) {
			return apperr.Validationf("an item must reference exactly one of product or variant")
		}

		name, unitPrice, err := resolveItemTarget(tx, in.ProductID, in.ProductVariantID)
		if err != nil {
			return err
		}

		if err := decrementStock(tx, in.ProductID, in.ProductVariantID, in.Quantity, name.Name); err != nil {
			return err
		}

		line := pricing.CalculateLine(in.Quantity, unitPrice, decimal.Zero)
		item := models.OrderItem{
			OrderID:          order.ID,
			ProductID:        in.ProductID,
			ProductVariantID: in.ProductVariantID,
			ProductName:      name.Name,
			VariantLabel:     name.VariantLabel,
			Quantity:         in.Quantity,
			UnitPrice:        mustFloat(unitPrice),
			Subtotal:         mustFloat(line.Subtotal),
			Discount:         mustFloat(line.Discount),
			Tax:              mustFloat(line.Tax),
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}

		return s.Recalculate(tx, &order)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateItemQuantity changes a line's quantity, re-deltaing stock by the
// difference and recalculating totals.
func (s *OrderService) UpdateItemQuantity(ctx context.Context, orderID, itemID uuid.UUID, quantity int) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockMutableOrder(tx, orderID, &order); err != nil {
			return err
		}

		if quantity <= 0 {
			return apperr.Validationf("quantity must be positive")
		}

		var item models.OrderItem
		if err := tx.First(&item, "id = ? AND order_id = ?", itemID, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("order item %s not found", itemID)
			}
			return err
		}

		delta := quantity - item.Quantity
		if delta > 0 {
			if err := decrementStock(tx, item.ProductID, item.ProductVariantID, delta, item.ProductName); err != nil {
				return err
			}
		} else if delta < 0 {
			if err := incrementStock(tx, item.ProductID, item.ProductVariantID, -delta); err != nil {
				return err
			}
		}

		line := pricing.CalculateLine(quantity, decimal.NewFromFloat(item.UnitPrice), decimal.NewFromFloat(item.Discount))
		if err := tx.Model(&models.OrderItem{}).Where("id = ?", item.ID).Updates(map[string]any{
			"quantity": quantity,
			"subtotal": mustFloat(line.Subtotal),
			"discount": mustFloat(line.Discount),
			"tax":      mustFloat(line.Tax),
		}).Error; err != nil {
			return err
		}

		return s.Recalculate(tx, &order)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// RemoveItem deletes a line item, restoring its stock. The last remaining
// item of an order cannot be removed.
func (s *OrderService) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockMutableOrder(tx, orderID, &order); err != nil {
			return err
		}

		var item models.OrderItem
		if err := tx.First(&item, "id = ? AND order_id = ?", itemID, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("order item %s not found", itemID)
			}
			return err
		}

		var remaining int64
		if err := tx.Model(&models.OrderItem{}).Where("order_id = ?", orderID).Count(&remaining).Error; err != nil {
			return err
		}
		if remaining <= 1 {
			return apperr.Validationf("cannot remove the last item of order %s", order.OrderNumber)
		}

		if err := incrementStock(tx, item.ProductID, item.ProductVariantID, item.Quantity); err != nil {
			return err
		}
		if err := tx.Delete(&item).Error; err != nil {
			return err
		}

		return s.Recalculate(tx, &order)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SoftDelete removes a pending order, returning its stock to the ledger.
func (s *OrderService) SoftDelete(ctx context.Context, orderID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("order %s not found", orderID)
			}
			return err
		}
		if order.Status != models.OrderStatusPending {
			return apperr.InvalidTransitionf("only pending orders can be deleted; order %s is %s", order.OrderNumber, order.Status)
		}
		if err := s.restoreStock(tx, order.ID); err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
}

// lockMutableOrder loads an order FOR UPDATE and rejects mutation outside
// pending or approved.
func lockMutableOrder(tx *gorm.DB, orderID uuid.UUID, order *models.Order) error {
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("order %s not found", orderID)
		}
		return err
	}
	if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusApproved {
		return apperr.InvalidTransitionf("order %s is %s and no longer accepts item changes", order.OrderNumber, order.Status)
	}
	return nil
}

// itemTarget names the product or variant a line references.
type itemTarget struct {
	Name         string
	VariantLabel string
}

func resolveItemTarget(tx *gorm.DB, productID, variantID *uuid.UUID) (itemTarget, decimal.Decimal, error) {
	if variantID != nil {
		var variant models.ProductVariant
		if err := tx.First(&variant, "id = ?", *variantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return itemTarget{}, decimal.Zero, apperr.NotFoundf("product variant %s not found", *variantID)
			}
			return itemTarget{}, decimal.Zero, err
		}
		if !variant.IsActive {
			return itemTarget{}, decimal.Zero, apperr.Validationf("product variant %s is not available", variant.Label)
		}
		var product models.Product
		if err := tx.First(&product, "id = ?", variant.ProductID).Error; err != nil {
			return itemTarget{}, decimal.Zero, err
		}
		name := fmt.Sprintf("%s (%s)", product.Name, variant.Label)
		return itemTarget{Name: name, VariantLabel: variant.Label}, decimal.NewFromFloat(variant.Price), nil
	}

	var product models.Product
	if err := tx.First(&product, "id = ?", *productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return itemTarget{}, decimal.Zero, apperr.NotFoundf("product %s not found", *productID)
		}
		return itemTarget{}, decimal.Zero, err
	}
	if !product.IsActive {
		return itemTarget{}, decimal.Zero, apperr.Validationf("product %s is not available", product.Name)
	}
	return itemTarget{Name: product.Name}, decimal.NewFromFloat(product.BasePrice), nil
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
