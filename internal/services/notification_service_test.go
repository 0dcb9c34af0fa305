package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/wayra/internal/models"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "S/ 1,234.50", FormatPrice(1234.5, "PEN"))
	assert.Equal(t, "S/ 0.99", FormatPrice(0.99, ""))
	assert.Equal(t, "S/ 1,000,000.00", FormatPrice(1000000, "PEN"))
	assert.Equal(t, "USD 25.00", FormatPrice(25, "USD"))
}

func TestFormatPriceCarriesRoundedCents(t *testing.T) {
	assert.Equal(t, "S/ 2.00", FormatPrice(1.999, "PEN"))
	assert.Equal(t, "S/ 1,000.00", FormatPrice(999.999, "PEN"))
	assert.Equal(t, "S/ -2.00", FormatPrice(-1.999, "PEN"))
	assert.Equal(t, "S/ -0.50", FormatPrice(-0.5, "PEN"))
}

func TestNotifyOrderStatusSafeWhenUnconfigured(t *testing.T) {
	var nilSvc *NotificationService
	assert.NotPanics(t, func() {
		nilSvc.NotifyOrderStatus(&models.Order{}, models.OrderStatusPending)
	})

	svc := NewNotificationService("", "")
	assert.NotPanics(t, func() {
		svc.NotifyOrderStatus(nil, models.OrderStatusPending)
		svc.NotifyOrderStatus(&models.Order{}, models.OrderStatusPending)
	})
}
