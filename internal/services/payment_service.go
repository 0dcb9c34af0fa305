package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/wayra/internal/apperr"
	"github.com/example/wayra/internal/models"
)

// PaymentService reconciles payment attempts against their orders.
type PaymentService struct {
	db       *gorm.DB
	orders   *OrderService
	notifier *NotificationService
}

// NewPaymentService constructs PaymentService.
func NewPaymentService(db *gorm.DB, orders *OrderService, notifier *NotificationService) *PaymentService {
	return &PaymentService{db: db, orders: orders, notifier: notifier}
}

// MarkPaid settles a payment. Marking an already-paid payment again is a
// no-op so duplicate gateway notifications converge on the same state. When
// the paid sum covers the order total and the order is still pending, the
// order is approved exactly once.
func (s *PaymentService) MarkPaid(ctx context.Context, paymentID uuid.UUID, authCode, transactionUUID, actor string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&payment, "id = ?", paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("payment %s not found", paymentID)
			}
			return err
		}

		switch payment.Status {
		case models.PaymentStatusPaid:
			return nil
		case models.PaymentStatusFailed:
			return apperr.InvalidTransitionf("payment %s already failed; a new attempt requires a new payment", payment.Reference)
		}

		now := time.Now()
		updates := map[string]any{
			"status":  models.PaymentStatusPaid,
			"paid_at": now,
		}
		if authCode != "" {
			updates["authorization_code"] = authCode
		}
		if transactionUUID != "" {
			updates["transaction_uuid"] = transactionUUID
		}
		if err := tx.Model(&models.Payment{}).Where("id = ?", payment.ID).Updates(updates).Error; err != nil {
			return err
		}
		payment.Status = models.PaymentStatusPaid
		payment.PaidAt = &now

		if payment.InstallmentID != nil {
			if err := tx.Model(&models.CreditInstallment{}).
				Where("id = ?", *payment.InstallmentID).
				Update("status", models.InstallmentStatusPaid).Error; err != nil {
				return err
			}
		}

		return s.settleOrder(tx, payment.OrderID, actor)
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil && payment.Status == models.PaymentStatusPaid {
		go s.notifier.NotifyPaymentCaptured(&payment)
	}

	return &payment, nil
}

// MarkFailed fails a pending payment. Failing an already-failed payment is
// a no-op; a paid payment cannot fail.
func (s *PaymentService) MarkFailed(ctx context.Context, paymentID uuid.UUID, reason string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&payment, "id = ?", paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("payment %s not found", paymentID)
			}
			return err
		}

		switch payment.Status {
		case models.PaymentStatusFailed:
			return nil
		case models.PaymentStatusPaid:
			return apperr.InvalidTransitionf("payment %s is paid; use a refund flow instead of cancellation", payment.Reference)
		}

		now := time.Now()
		if err := tx.Model(&models.Payment{}).Where("id = ?", payment.ID).Updates(map[string]any{
			"status":         models.PaymentStatusFailed,
			"failed_at":      now,
			"failure_reason": reason,
		}).Error; err != nil {
			return err
		}
		payment.Status = models.PaymentStatusFailed
		payment.FailedAt = &now
		payment.FailureReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// settleOrder approves the order once the paid sum covers its total.
// Callers must run it inside a transaction.
func (s *PaymentService) settleOrder(tx *gorm.DB, orderID uuid.UUID, actor string) error {
	var order models.Order
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", orderID).Error; err != nil {
		return err
	}

	var paidSum float64
	if err := tx.Model(&models.Payment{}).
		Where("order_id = ? AND status = ?", orderID, models.PaymentStatusPaid).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&paidSum).Error; err != nil {
		return err
	}

	if order.Status != models.OrderStatusPending || !paymentsCoverTotal(paidSum, order.Total) {
		return nil
	}

	return s.orders.applyTransition(tx, &order, models.OrderStatusApproved, TransitionInput{
		Actor: actor,
		Note:  "paid payments cover the order total",
	})
}

// paymentsCoverTotal compares the paid sum against the order total with a
// half-cent tolerance, absorbing float drift from summed installments.
func paymentsCoverTotal(paidSum, total float64) bool {
	return paidSum+0.005 >= total
}

// approvableFromGateway reports whether a successful gateway answer may still
// move the order. Orders the back office has already advanced past approval
// stay untouched; a late duplicate notification is a no-op, not an error.
func approvableFromGateway(status string) bool {
	return status == models.OrderStatusPending || status == models.OrderStatusApproved
}

// ApplyGatewayResult reconciles a verified gateway answer against the order
// and its payment. The operation is idempotent: re-applying a terminal
// result leaves everything unchanged.
func (s *PaymentService) ApplyGatewayResult(ctx context.Context, r GatewayResult, actor string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.findGatewayOrder(tx, r, &order); err != nil {
			return err
		}

		var payment models.Payment
		hasPayment := true
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_id = ? AND status = ?", order.ID, models.PaymentStatusPending).
			Order("created_at asc").
			First(&payment).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			hasPayment = false
		}

		if r.Success {
			if hasPayment {
				now := time.Now()
				if err := tx.Model(&models.Payment{}).Where("id = ?", payment.ID).Updates(map[string]any{
					"status":           models.PaymentStatusPaid,
					"paid_at":          now,
					"transaction_uuid": r.TransactionUUID,
				}).Error; err != nil {
					return err
				}
				if payment.InstallmentID != nil {
					if err := tx.Model(&models.CreditInstallment{}).
						Where("id = ?", *payment.InstallmentID).
						Update("status", models.InstallmentStatusPaid).Error; err != nil {
						return err
					}
				}
			}
			if !approvableFromGateway(order.Status) {
				// The back office already moved the order on; a retried
				// notification must not fail the gateway.
				return nil
			}
			// Already-approved orders fall through applyTransition's same-state
			// no-op path.
			return s.orders.applyTransition(tx, &order, models.OrderStatusApproved, TransitionInput{
				Actor: actor,
				Note:  "gateway reported status " + r.OrderStatus,
			})
		}

		if hasPayment {
			now := time.Now()
			if err := tx.Model(&models.Payment{}).Where("id = ?", payment.ID).Updates(map[string]any{
				"status":         models.PaymentStatusFailed,
				"failed_at":      now,
				"failure_reason": "gateway reported status " + r.OrderStatus,
			}).Error; err != nil {
				return err
			}
		}

		if order.Status == models.OrderStatusCancelled {
			return nil
		}
		return s.orders.applyTransition(tx, &order, models.OrderStatusCancelled, TransitionInput{
			Actor: actor,
			Note:  "gateway reported status " + r.OrderStatus,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Payment] gateway result applied to order %s: status=%s success=%t",
		order.OrderNumber, r.OrderStatus, r.Success)
	return &order, nil
}

func (s *PaymentService) findGatewayOrder(tx *gorm.DB, r GatewayResult, order *models.Order) error {
	if r.OrderID != "" {
		if id, err := uuid.Parse(r.OrderID); err == nil {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(order, "id = ?", id).Error; err == nil {
				return nil
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(order, "order_number = ?", r.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("order %s not found", r.OrderID)
			}
			return err
		}
		return nil
	}
	return apperr.Validationf("gateway answer does not identify an order")
}
