package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/wayra/internal/models"
)

func TestPaymentsCoverTotal(t *testing.T) {
	assert.True(t, paymentsCoverTotal(236, 236))
	assert.True(t, paymentsCoverTotal(236.01, 236))
	assert.False(t, paymentsCoverTotal(118, 236))
	assert.False(t, paymentsCoverTotal(235.99, 236))

	// Three installments of 78.67 sum to 236.00999... in float arithmetic;
	// the half-cent tolerance still settles the 236.01 total.
	sum := 78.67 + 78.67 + 78.67
	assert.True(t, paymentsCoverTotal(sum, 236.01), "sum = %v", sum)
}

func TestApprovableFromGateway(t *testing.T) {
	assert.True(t, approvableFromGateway(models.OrderStatusPending))
	assert.True(t, approvableFromGateway(models.OrderStatusApproved))

	for _, status := range []string{
		models.OrderStatusInProcess,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
		models.OrderStatusRejected,
		models.OrderStatusCancelled,
		models.OrderStatusReturned,
	} {
		assert.False(t, approvableFromGateway(status), "status %s", status)
	}
}
