package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestCalculateLine(t *testing.T) {
	line := CalculateLine(2, d("100"), decimal.Zero)

	assert.True(t, line.Subtotal.Equal(d("200")), "subtotal = %s", line.Subtotal)
	assert.True(t, line.Discount.IsZero())
	assert.True(t, line.Tax.Equal(d("36")), "tax = %s", line.Tax)
}

func TestCalculateLineDiscountReducesTaxBase(t *testing.T) {
	line := CalculateLine(1, d("100"), d("20"))

	assert.True(t, line.Subtotal.Equal(d("100")))
	assert.True(t, line.Discount.Equal(d("20")))
	// 18% of 80
	assert.True(t, line.Tax.Equal(d("14.40")), "tax = %s", line.Tax)
}

func TestCalculateLineClampsDiscount(t *testing.T) {
	over := CalculateLine(1, d("50"), d("80"))
	assert.True(t, over.Discount.Equal(d("50")))
	assert.True(t, over.Tax.IsZero())

	negative := CalculateLine(1, d("50"), d("-10"))
	assert.True(t, negative.Discount.IsZero())
}

func TestCalculateOrderInvariant(t *testing.T) {
	lines := []LineTotals{
		CalculateLine(2, d("100"), decimal.Zero),
		CalculateLine(1, d("49.90"), decimal.Zero),
	}

	totals := CalculateOrder(lines, d("10"), d("5"), d("15"))

	assert.True(t, totals.Subtotal.Equal(d("249.90")), "subtotal = %s", totals.Subtotal)
	assert.True(t, totals.Discount.Equal(d("15")), "discount = %s", totals.Discount)

	expected := totals.Subtotal.Sub(totals.Discount).Add(totals.Tax).Add(totals.ShippingCost)
	assert.True(t, totals.Total.Equal(expected), "total %s != invariant %s", totals.Total, expected)
}

func TestCalculateOrderPlainScenario(t *testing.T) {
	lines := []LineTotals{CalculateLine(2, d("100"), decimal.Zero)}
	totals := CalculateOrder(lines, decimal.Zero, decimal.Zero, decimal.Zero)

	assert.True(t, totals.Subtotal.Equal(d("200")))
	assert.True(t, totals.Tax.Equal(d("36")))
	assert.True(t, totals.Total.Equal(d("236")), "total = %s", totals.Total)
}
