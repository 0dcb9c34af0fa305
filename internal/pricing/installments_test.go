package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInstallmentPlanEvenSplit(t *testing.T) {
	from := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	plan, err := BuildInstallmentPlan(d("1000"), 12, from)
	require.NoError(t, err)

	// 1000 * 8% * 12 / 12
	assert.True(t, plan.InterestTotal.Equal(d("80")), "interest = %s", plan.InterestTotal)
	assert.True(t, plan.InstallmentAmount.Equal(d("90")), "per installment = %s", plan.InstallmentAmount)
	require.Len(t, plan.Schedule, 12)

	assert.Equal(t, from.AddDate(0, 1, 0), plan.Schedule[0].DueDate)
	assert.Equal(t, from.AddDate(0, 12, 0), plan.Schedule[11].DueDate)
}

func TestBuildInstallmentPlanLastAbsorbsRemainder(t *testing.T) {
	from := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	plan, err := BuildInstallmentPlan(d("100"), 7, from)
	require.NoError(t, err)

	// 100 * 8% * 7 / 12 = 4.67 rounded
	assert.True(t, plan.InterestTotal.Equal(d("4.67")), "interest = %s", plan.InterestTotal)

	sum := decimal.Zero
	for _, installment := range plan.Schedule {
		sum = sum.Add(installment.Amount)
	}
	financed := d("104.67")
	assert.True(t, sum.Equal(financed), "schedule sums to %s, want %s", sum, financed)

	last := plan.Schedule[len(plan.Schedule)-1].Amount
	assert.False(t, last.Equal(plan.InstallmentAmount), "last installment should carry the remainder")
}

func TestBuildInstallmentPlanRejectsBadInput(t *testing.T) {
	_, err := BuildInstallmentPlan(d("100"), 0, time.Now())
	assert.ErrorContains(t, err, "installment count")

	_, err = BuildInstallmentPlan(decimal.Zero, 3, time.Now())
	assert.ErrorContains(t, err, "non-positive total")
}
