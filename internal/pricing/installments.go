package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/wayra/internal/apperr"
)

// Installment is one scheduled partial payment of a credit order.
type Installment struct {
	Number  int
	DueDate time.Time
	Amount  decimal.Decimal
}

// InstallmentPlan is the full credit schedule for an order total.
type InstallmentPlan struct {
	InterestTotal     decimal.Decimal
	InstallmentAmount decimal.Decimal
	Schedule          []Installment
}

// BuildInstallmentPlan computes interest at the fixed annual rate and splits
// the financed amount over monthly due dates starting one month after from.
// The last installment absorbs the rounding remainder so the schedule sums
// exactly to total plus interest.
func BuildInstallmentPlan(total decimal.Decimal, count int, from time.Time) (*InstallmentPlan, error) {
	if count < 1 {
		return nil, apperr.Validationf("installment count must be at least 1, got %d", count)
	}
	if !total.IsPositive() {
		return nil, apperr.Validationf("cannot build an installment plan for a non-positive total")
	}

	months := decimal.NewFromInt(int64(count))
	rate := decimal.NewFromInt(CreditAnnualRatePercent).Div(hundred)

	interest := Round2(total.Mul(rate).Mul(months).Div(decimal.NewFromInt(12)))
	financed := total.Add(interest)
	perInstallment := Round2(financed.Div(months))

	schedule := make([]Installment, 0, count)
	remaining := financed
	for i := 1; i <= count; i++ {
		amount := perInstallment
		if i == count {
			amount = remaining
		}
		schedule = append(schedule, Installment{
			Number:  i,
			DueDate: from.AddDate(0, i, 0),
			Amount:  amount,
		})
		remaining = remaining.Sub(amount)
	}

	return &InstallmentPlan{
		InterestTotal:     interest,
		InstallmentAmount: perInstallment,
		Schedule:          schedule,
	}, nil
}
