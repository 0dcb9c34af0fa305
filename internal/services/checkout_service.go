package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/wayra/internal/apperr"
	"github.com/example/wayra/internal/config"
	"github.com/example/wayra/internal/models"
	"github.com/example/wayra/internal/pricing"
)

// CheckoutService orchestrates order submission: stock validation, pricing,
// payment-method eligibility, customer resolution and persistence, all
// inside one transaction.
type CheckoutService struct {
	db       *gorm.DB
	cfg      *config.Config
	orders   *OrderService
	notifier *NotificationService
}

// NewCheckoutService constructs CheckoutService.
func NewCheckoutService(db *gorm.DB, cfg *config.Config, orders *OrderService, notifier *NotificationService) *CheckoutService {
	return &CheckoutService{db: db, cfg: cfg, orders: orders, notifier: notifier}
}

// CheckoutItemInput is one cart entry. Exactly one of ProductID or
// ProductVariantID must be set.
type CheckoutItemInput struct {
	ProductID        string `json:"product_id"`
	ProductVariantID string `json:"product_variant_id"`
	Quantity         int    `json:"quantity"`
}

// PersonalDataInput is the checkout identity payload, snapshotted onto the
// order and used to resolve the customer record.
type PersonalDataInput struct {
	DocumentNumber string `json:"document_number"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
}

// ShippingInput is the shipping snapshot captured at checkout time.
type ShippingInput struct {
	AddressLine  string  `json:"address_line"`
	District     string  `json:"district"`
	City         string  `json:"city"`
	Province     string  `json:"province"`
	PostalCode   string  `json:"postal_code"`
	Reference    string  `json:"reference"`
	Country      string  `json:"country"`
	DeliveryType string  `json:"delivery_type"`
	Cost         float64 `json:"cost"`
}

// CheckoutInput is the full submit payload.
type CheckoutInput struct {
	Items             []CheckoutItemInput
	PaymentMethodCode string
	PaymentType       string
	InstallmentCount  int
	CouponCode        string
	Currency          string
	SalesChannel      string
	Personal          PersonalDataInput
	Shipping          ShippingInput
	UserID            *uuid.UUID
	Notes             string
}

// CheckoutPreview is the non-persisting pricing result.
type CheckoutPreview struct {
	Subtotal          float64 `json:"subtotal"`
	Discount          float64 `json:"discount"`
	CouponDiscount    float64 `json:"coupon_discount"`
	Tax               float64 `json:"tax"`
	ShippingCost      float64 `json:"shipping_cost"`
	Total             float64 `json:"total"`
	Currency          string  `json:"currency"`
	InterestTotal     float64 `json:"interest_total"`
	InstallmentAmount float64 `json:"installment_amount"`
}

// CheckoutResult is the persisted outcome of a submit.
type CheckoutResult struct {
	Order   *models.Order
	Payment *models.Payment
}

// checkoutLine is a cart entry resolved against the catalog.
type checkoutLine struct {
	ProductID        *uuid.UUID
	ProductVariantID *uuid.UUID
	Name             string
	VariantLabel     string
	Quantity         int
	UnitPrice        decimal.Decimal
	Totals           pricing.LineTotals
}

// Preview validates stock and computes pricing without persisting anything.
func (s *CheckoutService) Preview(ctx context.Context, in CheckoutInput) (*CheckoutPreview, error) {
	in = s.applyDefaults(in)

	var preview CheckoutPreview
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines, err := s.resolveLines(tx, in.Items)
		if err != nil {
			return err
		}

		totals, couponDiscount, err := s.computeTotals(tx, lines, in)
		if err != nil {
			return err
		}

		preview = CheckoutPreview{
			Subtotal:       mustFloat(totals.Subtotal),
			Discount:       mustFloat(totals.Discount),
			CouponDiscount: mustFloat(couponDiscount),
			Tax:            mustFloat(totals.Tax),
			ShippingCost:   mustFloat(totals.ShippingCost),
			Total:          mustFloat(totals.Total),
			Currency:       in.Currency,
		}

		if in.PaymentType == models.PaymentTypeCredit {
			plan, err := pricing.BuildInstallmentPlan(totals.Total, in.InstallmentCount, time.Now())
			if err != nil {
				return err
			}
			preview.InterestTotal = mustFloat(plan.InterestTotal)
			preview.InstallmentAmount = mustFloat(plan.InstallmentAmount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &preview, nil
}

// Submit creates the order, its payment and all side effects atomically.
// Any failure rolls back stock decrements, the coupon counter and the order
// itself.
func (s *CheckoutService) Submit(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	in = s.applyDefaults(in)

	if len(in.Items) == 0 {
		return nil, apperr.Validationf("the cart is empty")
	}
	if in.PaymentMethodCode == "" {
		return nil, apperr.Validationf("a payment method is required")
	}
	if in.PaymentType == models.PaymentTypeCredit && in.InstallmentCount < 1 {
		return nil, apperr.Validationf("credit orders require an installment count")
	}

	// Customer resolution is deliberately outside the transaction: a failure
	// here is logged and the order completes without a linked customer.
	customerID := s.resolveCustomer(ctx, in.Personal, in.UserID)

	now := time.Now()
	result := &CheckoutResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines, err := s.resolveLines(tx, in.Items)
		if err != nil {
			return err
		}

		totals, couponDiscount, err := s.computeTotals(tx, lines, in)
		if err != nil {
			return err
		}

		method, err := s.loadPaymentMethod(tx, in.PaymentMethodCode)
		if err != nil {
			return err
		}
		if err := ValidatePaymentMethod(*method, totals.Total, in.Shipping.Country, in.Currency); err != nil {
			return err
		}

		orderNumber, err := nextOrderNumber(tx, now)
		if err != nil {
			return err
		}

		customerSnapshot, _ := json.Marshal(in.Personal)
		shippingSnapshot, _ := json.Marshal(in.Shipping)

		order := models.Order{
			OrderNumber:      orderNumber,
			Status:           models.OrderStatusPending,
			PlacedAt:         now,
			UserID:           in.UserID,
			CustomerID:       customerID,
			Subtotal:         mustFloat(totals.Subtotal),
			Discount:         mustFloat(totals.Discount),
			Tax:              mustFloat(totals.Tax),
			ShippingCost:     mustFloat(totals.ShippingCost),
			Total:            mustFloat(totals.Total),
			Currency:         in.Currency,
			PaymentType:      in.PaymentType,
			PaymentMethodID:  &method.ID,
			DeliveryType:     in.Shipping.DeliveryType,
			CustomerSnapshot: datatypes.JSON(customerSnapshot),
			ShippingSnapshot: datatypes.JSON(shippingSnapshot),
			CouponCode:       in.CouponCode,
			SalesChannel:     in.SalesChannel,
			Notes:            in.Notes,
		}

		for _, line := range lines {
			order.Items = append(order.Items, models.OrderItem{
				ProductID:        line.ProductID,
				ProductVariantID: line.ProductVariantID,
				ProductName:      line.Name,
				VariantLabel:     line.VariantLabel,
				Quantity:         line.Quantity,
				UnitPrice:        mustFloat(line.UnitPrice),
				Subtotal:         mustFloat(line.Totals.Subtotal),
				Discount:         mustFloat(line.Totals.Discount),
				Tax:              mustFloat(line.Totals.Tax),
			})
		}

		paymentAmount := totals.Total
		if in.PaymentType == models.PaymentTypeCredit {
			plan, err := pricing.BuildInstallmentPlan(totals.Total, in.InstallmentCount, now)
			if err != nil {
				return err
			}
			order.InstallmentCount = in.InstallmentCount
			order.InterestTotal = mustFloat(plan.InterestTotal)
			order.InstallmentAmount = mustFloat(plan.InstallmentAmount)
			for _, due := range plan.Schedule {
				order.Installments = append(order.Installments, models.CreditInstallment{
					Number:  due.Number,
					DueDate: due.DueDate,
					Amount:  mustFloat(due.Amount),
					Status:  models.InstallmentStatusPending,
				})
			}
			paymentAmount = plan.InstallmentAmount
		}

		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for _, line := range lines {
			if err := decrementStock(tx, line.ProductID, line.ProductVariantID, line.Quantity, line.Name); err != nil {
				return err
			}
		}

		if in.CouponCode != "" {
			if err := s.redeemCoupon(tx, in.CouponCode, orderNumber, couponDiscount); err != nil {
				return err
			}
		}

		reference, err := PaymentReference(method.Code, now)
		if err != nil {
			return err
		}

		payment := models.Payment{
			OrderID:    order.ID,
			Amount:     mustFloat(paymentAmount),
			Commission: mustFloat(MethodCommission(*method, paymentAmount)),
			Currency:   in.Currency,
			Reference:  reference,
			Status:     models.PaymentStatusPending,
		}
		if in.PaymentType == models.PaymentTypeCredit && len(order.Installments) > 0 {
			payment.InstallmentID = &order.Installments[0].ID
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		order.PaymentMethod = method
		result.Order = &order
		result.Payment = &payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		go s.notifier.NotifyNewOrder(result.Order)
	}

	return result, nil
}

func (s *CheckoutService) applyDefaults(in CheckoutInput) CheckoutInput {
	if in.Currency == "" {
		in.Currency = s.cfg.DefaultCurrency
	}
	if in.Shipping.Country == "" {
		in.Shipping.Country = s.cfg.DefaultCountry
	}
	if in.PaymentType == "" {
		in.PaymentType = models.PaymentTypeSingle
	}
	if in.SalesChannel == "" {
		in.SalesChannel = "web"
	}
	return in
}

// resolveLines validates every cart entry against the catalog and current
// stock, failing fast on the first insufficient item.
func (s *CheckoutService) resolveLines(tx *gorm.DB, items []CheckoutItemInput) ([]checkoutLine, error) {
	lines := make([]checkoutLine, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, apperr.Validationf("item quantity must be positive")
		}
		if (item.ProductID == "") == (item.ProductVariantID == "") {
			return nil, apperr.Validationf("an item must reference exactly one of product or variant")
		}

		var productID, variantID *uuid.UUID
		if item.ProductID != "" {
			id, err := uuid.Parse(item.ProductID)
			if err != nil {
				return nil, apperr.Validationf("invalid product id %q", item.ProductID)
			}
			productID = &id
		} else {
			id, err := uuid.Parse(item.ProductVariantID)
			if err != nil {
				return nil, apperr.Validationf("invalid variant id %q", item.ProductVariantID)
			}
			variantID = &id
		}

		target, unitPrice, err := resolveItemTarget(tx, productID, variantID)
		if err != nil {
			return nil, err
		}

		available, err := availableStock(tx, productID, variantID)
		if err != nil {
			return nil, err
		}
		if available < item.Quantity {
			return nil, apperr.InsufficientStockf("insufficient stock for %s: requested %d, available %d",
				target.Name, item.Quantity, available)
		}

		lines = append(lines, checkoutLine{
			ProductID:        productID,
			ProductVariantID: variantID,
			Name:             target.Name,
			VariantLabel:     target.VariantLabel,
			Quantity:         item.Quantity,
			UnitPrice:        unitPrice,
			Totals:           pricing.CalculateLine(item.Quantity, unitPrice, decimal.Zero),
		})
	}
	return lines, nil
}

// computeTotals prices the resolved lines and evaluates the coupon, if any.
func (s *CheckoutService) computeTotals(tx *gorm.DB, lines []checkoutLine, in CheckoutInput) (pricing.OrderTotals, decimal.Decimal, error) {
	lineTotals := make([]pricing.LineTotals, 0, len(lines))
	subtotal := decimal.Zero
	for _, line := range lines {
		lineTotals = append(lineTotals, line.Totals)
		subtotal = subtotal.Add(line.Totals.Subtotal)
	}

	couponDiscount := decimal.Zero
	if in.CouponCode != "" {
		var coupon models.Coupon
		if err := tx.Where("code = ?", in.CouponCode).First(&coupon).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pricing.OrderTotals{}, decimal.Zero, apperr.NotFoundf("coupon %s not found", in.CouponCode)
			}
			return pricing.OrderTotals{}, decimal.Zero, err
		}

		discount, err := pricing.EvaluateCoupon(pricing.CouponTerms{
			Code:        coupon.Code,
			Type:        coupon.Type,
			Value:       decimal.NewFromFloat(coupon.Value),
			MinSpend:    decimal.NewFromFloat(coupon.MinSpend),
			MaxDiscount: decimal.NewFromFloat(coupon.MaxDiscount),
			StartsAt:    coupon.StartsAt,
			EndsAt:      coupon.EndsAt,
			UsageCap:    coupon.UsageCap,
			UsageCount:  coupon.UsageCount,
			Active:      coupon.IsActive,
		}, subtotal, time.Now())
		if err != nil {
			return pricing.OrderTotals{}, decimal.Zero, err
		}
		couponDiscount = discount
	}

	totals := pricing.CalculateOrder(lineTotals, couponDiscount, decimal.Zero, decimal.NewFromFloat(in.Shipping.Cost))
	return totals, couponDiscount, nil
}

func (s *CheckoutService) loadPaymentMethod(tx *gorm.DB, code string) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := tx.Where("code = ?", code).First(&method).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("payment method %s not found", code)
		}
		return nil, err
	}
	return &method, nil
}

// redeemCoupon records the redemption and bumps the usage counter. The
// counter update carries its own cap guard so concurrent redemptions cannot
// push past the cap, and the redemption row's unique index makes a repeat
// application for the same order a no-op.
func (s *CheckoutService) redeemCoupon(tx *gorm.DB, code, orderNumber string, amount decimal.Decimal) error {
	var coupon models.Coupon
	if err := tx.Where("code = ?", code).First(&coupon).Error; err != nil {
		return err
	}

	redemption := models.CouponRedemption{
		CouponID:    coupon.ID,
		OrderNumber: orderNumber,
		Amount:      mustFloat(amount),
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&redemption)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}

	update := tx.Model(&models.Coupon{}).
		Where("id = ? AND (usage_cap = 0 OR usage_count < usage_cap)", coupon.ID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return apperr.Validationf("coupon %s has reached its usage limit", code)
	}
	return nil
}

// resolveCustomer finds or creates the customer record for the checkout
// identity, matching by document number, then linked user, then email.
// Failures are logged and swallowed.
func (s *CheckoutService) resolveCustomer(ctx context.Context, p PersonalDataInput, userID *uuid.UUID) *uuid.UUID {
	id, err := s.upsertCustomer(ctx, p, userID)
	if err != nil {
		log.Printf("[Checkout] customer resolution failed: %v", err)
		return nil
	}
	return id
}

func (s *CheckoutService) upsertCustomer(ctx context.Context, p PersonalDataInput, userID *uuid.UUID) (*uuid.UUID, error) {
	db := s.db.WithContext(ctx)

	var customer models.Customer
	found := false

	if p.DocumentNumber != "" {
		err := db.Where("document_number = ?", p.DocumentNumber).First(&customer).Error
		if err == nil {
			found = true
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if !found && userID != nil {
		err := db.Where("user_id = ?", *userID).First(&customer).Error
		if err == nil {
			found = true
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if !found && p.Email != "" {
		err := db.Where("email = ?", p.Email).First(&customer).Error
		if err == nil {
			found = true
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if found {
		updates := map[string]any{}
		if customer.DocumentNumber == "" && p.DocumentNumber != "" {
			updates["document_number"] = p.DocumentNumber
		}
		if customer.Email == "" && p.Email != "" {
			updates["email"] = p.Email
		}
		if customer.Phone == "" && p.Phone != "" {
			updates["phone"] = p.Phone
		}
		if customer.UserID == nil && userID != nil {
			updates["user_id"] = *userID
		}
		if len(updates) > 0 {
			if err := db.Model(&models.Customer{}).Where("id = ?", customer.ID).Updates(updates).Error; err != nil {
				return nil, err
			}
		}
		return &customer.ID, nil
	}

	customer = models.Customer{
		DocumentNumber: p.DocumentNumber,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Email:          p.Email,
		Phone:          p.Phone,
		Country:        s.cfg.DefaultCountry,
		UserID:         userID,
	}
	if err := db.Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer.ID, nil
}

// nextOrderNumber allocates the next daily sequence value atomically. The
// per-day counter row plus the unique index on order_number make generation
// safe under concurrent checkouts.
func nextOrderNumber(tx *gorm.DB, now time.Time) (string, error) {
	day := now.Format("20060102")
	var value int
	err := tx.Raw(`INSERT INTO daily_sequences (day, value) VALUES (?, 1)
		ON CONFLICT (day) DO UPDATE SET value = daily_sequences.value + 1
		RETURNING value`, day).Scan(&value).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PED-%s-%04d", day, value), nil
}

var referencePrefixes = map[string]string{
	"yape":     "YAPE-",
	"plin":     "PLIN-",
	"transfer": "TRANS-",
	"card":     "CARD-",
	"cash":     "CASH-",
	"paypal":   "PAYPAL-",
}

// PaymentReference builds a method-prefixed reference with a random 6-digit
// suffix, e.g. YAPE-20250115-042317.
func PaymentReference(methodCode string, now time.Time) (string, error) {
	prefix, ok := referencePrefixes[methodCode]
	if !ok {
		prefix = "PAY-"
	}
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s-%06d", prefix, now.Format("20060102"), n.Int64()), nil
}

// ValidatePaymentMethod checks eligibility of a method for the computed
// total. Each failure carries its own user-facing message.
func ValidatePaymentMethod(m models.PaymentMethod, total decimal.Decimal, country, currency string) error {
	if !m.IsActive {
		return apperr.MethodIneligiblef("payment method %s is not active", m.Name)
	}
	if m.MinAmount > 0 && total.LessThan(decimal.NewFromFloat(m.MinAmount)) {
		return apperr.MethodIneligiblef("order total %s is below the %s minimum of %.2f",
			total.StringFixed(2), m.Name, m.MinAmount)
	}
	if m.MaxAmount > 0 && total.GreaterThan(decimal.NewFromFloat(m.MaxAmount)) {
		return apperr.MethodIneligiblef("order total %s exceeds the %s maximum of %.2f",
			total.StringFixed(2), m.Name, m.MaxAmount)
	}
	if len(m.Countries) > 0 && !containsString(m.Countries, country) {
		return apperr.MethodIneligiblef("payment method %s is not available in %s", m.Name, country)
	}
	if len(m.Currencies) > 0 && !containsString(m.Currencies, currency) {
		return apperr.MethodIneligiblef("payment method %s does not support %s", m.Name, currency)
	}
	return nil
}

// MethodCommission computes the fee for a payment amount from the method's
// fee rule.
func MethodCommission(m models.PaymentMethod, amount decimal.Decimal) decimal.Decimal {
	percent := decimal.NewFromFloat(m.FeePercent).Div(decimal.NewFromInt(100))
	return pricing.Round2(amount.Mul(percent).Add(decimal.NewFromFloat(m.FeeFixed)))
}

func containsString(values []string, needle string) bool {
	for _, v := range values {
		if v == needle {
			return true
		}
	}
	return false
}
