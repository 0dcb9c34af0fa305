package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTerms() CouponTerms {
	now := time.Now()
	return CouponTerms{
		Code:     "VERANO10",
		Type:     "percentage",
		Value:    d("10"),
		StartsAt: now.Add(-time.Hour),
		EndsAt:   now.Add(time.Hour),
		Active:   true,
	}
}

func TestEvaluateCouponPercentage(t *testing.T) {
	discount, err := EvaluateCoupon(validTerms(), d("200"), time.Now())
	require.NoError(t, err)
	assert.True(t, discount.Equal(d("20")), "discount = %s", discount)
}

func TestEvaluateCouponPercentageCap(t *testing.T) {
	terms := validTerms()
	terms.MaxDiscount = d("15")

	discount, err := EvaluateCoupon(terms, d("200"), time.Now())
	require.NoError(t, err)
	assert.True(t, discount.Equal(d("15")), "discount = %s", discount)
}

func TestEvaluateCouponFixedClampedToSubtotal(t *testing.T) {
	terms := validTerms()
	terms.Type = "fixed"
	terms.Value = d("50")

	discount, err := EvaluateCoupon(terms, d("30"), time.Now())
	require.NoError(t, err)
	assert.True(t, discount.Equal(d("30")), "discount = %s", discount)
}

func TestEvaluateCouponInactive(t *testing.T) {
	terms := validTerms()
	terms.Active = false

	_, err := EvaluateCoupon(terms, d("200"), time.Now())
	assert.ErrorContains(t, err, "not active")
}

func TestEvaluateCouponOutsideWindow(t *testing.T) {
	terms := validTerms()

	_, err := EvaluateCoupon(terms, d("200"), terms.EndsAt.Add(time.Minute))
	assert.ErrorContains(t, err, "validity window")

	_, err = EvaluateCoupon(terms, d("200"), terms.StartsAt.Add(-time.Minute))
	assert.ErrorContains(t, err, "validity window")
}

func TestEvaluateCouponUsageCap(t *testing.T) {
	terms := validTerms()
	terms.UsageCap = 5
	terms.UsageCount = 5

	_, err := EvaluateCoupon(terms, d("200"), time.Now())
	assert.ErrorContains(t, err, "usage limit")
}

func TestEvaluateCouponMinSpend(t *testing.T) {
	terms := validTerms()
	terms.MinSpend = d("100")

	_, err := EvaluateCoupon(terms, d("99.99"), time.Now())
	assert.ErrorContains(t, err, "minimum spend")

	discount, err := EvaluateCoupon(terms, d("100"), time.Now())
	assert.NoError(t, err)
	assert.True(t, discount.Equal(d("10")))
}

func TestEvaluateCouponUnknownType(t *testing.T) {
	terms := validTerms()
	terms.Type = "bogo"

	_, err := EvaluateCoupon(terms, d("200"), time.Now())
	assert.ErrorContains(t, err, "unknown coupon type")
}
