package services

import (
	"regexp"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wayra/internal/models"
)

func TestPaymentReferenceFormat(t *testing.T) {
	at := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

	cases := map[string]string{
		"yape":     `^YAPE-20250115-\d{6}$`,
		"plin":     `^PLIN-20250115-\d{6}$`,
		"transfer": `^TRANS-20250115-\d{6}$`,
		"card":     `^CARD-20250115-\d{6}$`,
		"cash":     `^CASH-20250115-\d{6}$`,
		"paypal":   `^PAYPAL-20250115-\d{6}$`,
		"mystery":  `^PAY-20250115-\d{6}$`,
	}

	for code, pattern := range cases {
		ref, err := PaymentReference(code, at)
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(pattern), ref, "method %s", code)
	}
}

func eligibleMethod() models.PaymentMethod {
	return models.PaymentMethod{
		Code:       "yape",
		Name:       "Yape",
		MinAmount:  10,
		MaxAmount:  2000,
		Countries:  pq.StringArray{"PE"},
		Currencies: pq.StringArray{"PEN"},
		IsActive:   true,
	}
}

func TestValidatePaymentMethod(t *testing.T) {
	method := eligibleMethod()

	assert.NoError(t, ValidatePaymentMethod(method, decimal.NewFromInt(100), "PE", "PEN"))
}

func TestValidatePaymentMethodInactive(t *testing.T) {
	method := eligibleMethod()
	method.IsActive = false

	err := ValidatePaymentMethod(method, decimal.NewFromInt(100), "PE", "PEN")
	assert.ErrorContains(t, err, "not active")
}

func TestValidatePaymentMethodAmountBounds(t *testing.T) {
	method := eligibleMethod()

	err := ValidatePaymentMethod(method, decimal.NewFromInt(5), "PE", "PEN")
	assert.ErrorContains(t, err, "below")

	err = ValidatePaymentMethod(method, decimal.NewFromInt(5000), "PE", "PEN")
	assert.ErrorContains(t, err, "exceeds")
}

func TestValidatePaymentMethodCountryCurrency(t *testing.T) {
	method := eligibleMethod()

	err := ValidatePaymentMethod(method, decimal.NewFromInt(100), "CL", "PEN")
	assert.ErrorContains(t, err, "not available in CL")

	err = ValidatePaymentMethod(method, decimal.NewFromInt(100), "PE", "USD")
	assert.ErrorContains(t, err, "does not support USD")
}

func TestValidatePaymentMethodEmptyListsAllowAll(t *testing.T) {
	method := eligibleMethod()
	method.Countries = nil
	method.Currencies = nil
	method.MinAmount = 0
	method.MaxAmount = 0

	assert.NoError(t, ValidatePaymentMethod(method, decimal.NewFromInt(1), "CL", "USD"))
}

func TestMethodCommission(t *testing.T) {
	method := models.PaymentMethod{FeePercent: 2.5, FeeFixed: 1}

	commission := MethodCommission(method, decimal.NewFromInt(200))
	assert.True(t, commission.Equal(decimal.NewFromInt(6)), "commission = %s", commission)
}

func TestMethodCommissionRounds(t *testing.T) {
	method := models.PaymentMethod{FeePercent: 3.33}

	commission := MethodCommission(method, decimal.RequireFromString("99.99"))
	assert.True(t, commission.Equal(decimal.RequireFromString("3.33")), "commission = %s", commission)
}
