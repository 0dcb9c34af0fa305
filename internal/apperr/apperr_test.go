package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err    *Error
		status int
	}{
		{Validationf("bad input"), fiber.StatusUnprocessableEntity},
		{InsufficientStockf("no stock"), fiber.StatusUnprocessableEntity},
		{InvalidTransitionf("no path"), fiber.StatusUnprocessableEntity},
		{MethodIneligiblef("not eligible"), fiber.StatusUnprocessableEntity},
		{NotFoundf("missing"), fiber.StatusNotFound},
		{Gateway("down", nil), fiber.StatusBadGateway},
		{Internal("boom", nil), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.HTTPStatus(), tc.err.Message)
	}
}

func TestIsKind(t *testing.T) {
	err := NotFoundf("order missing")

	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindValidation))
	assert.False(t, IsKind(errors.New("plain"), KindNotFound))

	wrapped := fmt.Errorf("context: %w", err)
	assert.True(t, IsKind(wrapped, KindNotFound))
}

func TestErrorStringIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Gateway("payment gateway request failed", cause)

	assert.Contains(t, err.Error(), "payment gateway request failed")
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)
}
