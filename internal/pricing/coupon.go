package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/wayra/internal/apperr"
)

// CouponTerms is the subset of a coupon row the evaluator needs.
type CouponTerms struct {
	Code        string
	Type        string
	Value       decimal.Decimal
	MinSpend    decimal.Decimal
	MaxDiscount decimal.Decimal
	StartsAt    time.Time
	EndsAt      time.Time
	UsageCap    int
	UsageCount  int
	Active      bool
}

// EvaluateCoupon validates the coupon against its activity window, usage cap
// and minimum spend, then computes the discount amount for the subtotal.
func EvaluateCoupon(terms CouponTerms, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if !terms.Active {
		return decimal.Zero, apperr.Validationf("coupon %s is not active", terms.Code)
	}
	if now.Before(terms.StartsAt) || now.After(terms.EndsAt) {
		return decimal.Zero, apperr.Validationf("coupon %s is outside its validity window", terms.Code)
	}
	if terms.UsageCap > 0 && terms.UsageCount >= terms.UsageCap {
		return decimal.Zero, apperr.Validationf("coupon %s has reached its usage limit", terms.Code)
	}
	if terms.MinSpend.IsPositive() && subtotal.LessThan(terms.MinSpend) {
		return decimal.Zero, apperr.Validationf("order subtotal is below the coupon minimum spend of %s", terms.MinSpend.StringFixed(2))
	}

	switch terms.Type {
	case "percentage":
		discount := Round2(subtotal.Mul(terms.Value).Div(hundred))
		if terms.MaxDiscount.IsPositive() && discount.GreaterThan(terms.MaxDiscount) {
			discount = Round2(terms.MaxDiscount)
		}
		return discount, nil
	case "fixed":
		discount := Round2(terms.Value)
		if discount.GreaterThan(subtotal) {
			discount = subtotal
		}
		return discount, nil
	default:
		return decimal.Zero, apperr.Validationf("unknown coupon type %q", terms.Type)
	}
}
