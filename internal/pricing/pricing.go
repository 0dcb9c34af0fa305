package pricing

import (
	"github.com/shopspring/decimal"
)

// TaxRatePercent is the IGV rate applied uniformly to every line.
const TaxRatePercent = 18

// CreditAnnualRatePercent is the fixed annual interest rate for credit orders.
const CreditAnnualRatePercent = 8

var (
	hundred = decimal.NewFromInt(100)
	taxRate = decimal.NewFromInt(TaxRatePercent).Div(hundred)
)

// LineTotals holds the computed amounts for a single order line.
type LineTotals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
}

// OrderTotals holds the computed amounts for a whole order. The invariant
// Total = Subtotal - Discount + Tax + ShippingCost holds by construction.
type OrderTotals struct {
	Subtotal     decimal.Decimal
	Discount     decimal.Decimal
	Tax          decimal.Decimal
	ShippingCost decimal.Decimal
	Total        decimal.Decimal
}

// Round2 rounds a monetary amount to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// CalculateLine computes subtotal, discount and tax for one line. The
// discount is clamped to the line subtotal so a line never nets negative.
func CalculateLine(quantity int, unitPrice, discount decimal.Decimal) LineTotals {
	subtotal := Round2(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))

	discount = Round2(discount)
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	tax := Round2(subtotal.Sub(discount).Mul(taxRate))

	return LineTotals{Subtotal: subtotal, Discount: discount, Tax: tax}
}

// CalculateOrder aggregates line totals with order-level discounts and
// shipping into the final order amounts.
func CalculateOrder(lines []LineTotals, couponDiscount, manualDiscount, shipping decimal.Decimal) OrderTotals {
	subtotal := decimal.Zero
	discount := decimal.Zero
	tax := decimal.Zero

	for _, line := range lines {
		subtotal = subtotal.Add(line.Subtotal)
		discount = discount.Add(line.Discount)
		tax = tax.Add(line.Tax)
	}

	discount = discount.Add(Round2(couponDiscount)).Add(Round2(manualDiscount))
	shipping = Round2(shipping)

	total := subtotal.Sub(discount).Add(tax).Add(shipping)

	return OrderTotals{
		Subtotal:     subtotal,
		Discount:     discount,
		Tax:          tax,
		ShippingCost: shipping,
		Total:        total,
	}
}
