package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/wayra/internal/models"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{models.OrderStatusPending, models.OrderStatusApproved, true},
		{models.OrderStatusPending, models.OrderStatusRejected, true},
		{models.OrderStatusPending, models.OrderStatusCancelled, true},
		{models.OrderStatusPending, models.OrderStatusShipped, false},
		{models.OrderStatusPending, models.OrderStatusDelivered, false},
		{models.OrderStatusApproved, models.OrderStatusInProcess, true},
		{models.OrderStatusApproved, models.OrderStatusCancelled, true},
		{models.OrderStatusApproved, models.OrderStatusRejected, false},
		{models.OrderStatusInProcess, models.OrderStatusShipped, true},
		{models.OrderStatusInProcess, models.OrderStatusCancelled, true},
		{models.OrderStatusInProcess, models.OrderStatusDelivered, false},
		{models.OrderStatusShipped, models.OrderStatusDelivered, true},
		{models.OrderStatusShipped, models.OrderStatusReturned, true},
		{models.OrderStatusShipped, models.OrderStatusCancelled, false},
		{models.OrderStatusDelivered, models.OrderStatusReturned, true},
		{models.OrderStatusDelivered, models.OrderStatusShipped, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatesHaveNoTargets(t *testing.T) {
	for _, status := range []string{
		models.OrderStatusRejected,
		models.OrderStatusCancelled,
		models.OrderStatusReturned,
	} {
		assert.Empty(t, AllowedTransitions(status), "%s should be terminal", status)
	}
}

func TestAllowedTransitionsSorted(t *testing.T) {
	targets := AllowedTransitions(models.OrderStatusPending)
	assert.Equal(t, []string{
		models.OrderStatusApproved,
		models.OrderStatusCancelled,
		models.OrderStatusRejected,
	}, targets)
}

func TestAllowedTransitionsUnknownStatus(t *testing.T) {
	assert.Empty(t, AllowedTransitions("archived"))
	assert.False(t, CanTransition("archived", models.OrderStatusPending))
}

func TestRestoresStock(t *testing.T) {
	assert.True(t, restoresStock(models.OrderStatusCancelled))
	assert.True(t, restoresStock(models.OrderStatusReturned))

	for _, status := range []string{
		models.OrderStatusPending,
		models.OrderStatusApproved,
		models.OrderStatusInProcess,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
		models.OrderStatusRejected,
	} {
		assert.False(t, restoresStock(status), "status %s", status)
	}
}
