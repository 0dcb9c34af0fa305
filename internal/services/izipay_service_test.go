package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wayra/internal/config"
)

func sign(payload, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

const paidAnswer = `{"orderStatus":"PAID","orderDetails":{"orderId":"PED-20250115-0001","orderTotalAmount":23600,"orderCurrency":"PEN"},"transactions":[{"uuid":"f1d9b2c4"}]}`

func TestVerifyAnswerHash(t *testing.T) {
	key := "hmac-test-key"

	assert.NoError(t, verifyAnswerHash(paidAnswer, sign(paidAnswer, key), key))
	assert.Error(t, verifyAnswerHash(paidAnswer, sign(paidAnswer, "other-key"), key))
	assert.Error(t, verifyAnswerHash(paidAnswer+" ", sign(paidAnswer, key), key))
}

func TestVerifyAnswerHashUppercase(t *testing.T) {
	key := "hmac-test-key"
	upper := sign(paidAnswer, key)
	for i := range upper {
		if upper[i] >= 'a' && upper[i] <= 'f' {
			upper = upper[:i] + string(upper[i]-32) + upper[i+1:]
		}
	}
	assert.NoError(t, verifyAnswerHash(paidAnswer, upper, key))
}

func TestVerifyAnswerKeySelection(t *testing.T) {
	svc := NewIzipayService(&config.Config{
		IzipayPassword: "return-password",
		IzipayHMACKey:  "ipn-key",
		GatewayTimeout: 10 * time.Second,
	})

	assert.NoError(t, svc.VerifyAnswer(paidAnswer, sign(paidAnswer, "return-password"), "password"))
	assert.NoError(t, svc.VerifyAnswer(paidAnswer, sign(paidAnswer, "ipn-key"), "sha256_hmac"))

	assert.Error(t, svc.VerifyAnswer(paidAnswer, sign(paidAnswer, "ipn-key"), "password"))
	assert.Error(t, svc.VerifyAnswer(paidAnswer, sign(paidAnswer, "return-password"), "sha256_hmac"))
}

func TestParseAnswerPaid(t *testing.T) {
	result, err := ParseAnswer(paidAnswer)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "PED-20250115-0001", result.OrderID)
	assert.Equal(t, "PAID", result.OrderStatus)
	assert.Equal(t, "f1d9b2c4", result.TransactionUUID)
	assert.Equal(t, 236.0, result.Amount)
	assert.Equal(t, "PEN", result.Currency)
}

func TestParseAnswerUnpaid(t *testing.T) {
	answer := `{"orderStatus":"UNPAID","orderDetails":{"orderId":"PED-20250115-0002","orderTotalAmount":5000,"orderCurrency":"PEN"}}`

	result, err := ParseAnswer(answer)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "UNPAID", result.OrderStatus)
	assert.Empty(t, result.TransactionUUID)
}

func TestParseAnswerRejectsBadPayloads(t *testing.T) {
	_, err := ParseAnswer(`not json`)
	assert.ErrorContains(t, err, "malformed gateway answer")

	_, err = ParseAnswer(`{"orderStatus":"PAID","orderDetails":{}}`)
	assert.ErrorContains(t, err, "does not identify an order")
}
