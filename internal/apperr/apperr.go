package apperr

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies business errors so handlers can map them to HTTP codes
// without inspecting message strings.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindInsufficientStock
	KindInvalidTransition
	KindMethodIneligible
	KindGateway
	KindInternal
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps an error kind to its response status.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindInsufficientStock, KindInvalidTransition, KindMethodIneligible:
		return fiber.StatusUnprocessableEntity
	case KindNotFound:
		return fiber.StatusNotFound
	case KindGateway:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InsufficientStockf(format string, args ...any) *Error {
	return &Error{Kind: KindInsufficientStock, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransitionf(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func MethodIneligiblef(format string, args ...any) *Error {
	return &Error{Kind: KindMethodIneligible, Message: fmt.Sprintf(format, args...)}
}

func Gateway(msg string, err error) *Error {
	return &Error{Kind: KindGateway, Message: msg, Err: err}
}

func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// IsKind reports whether err is an application error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// FiberErrorHandler renders application and fiber errors as the standard
// JSON envelope. Internal errors are logged with full context and surfaced
// with a sanitized message.
func FiberErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		if appErr.Kind == KindInternal {
			log.Printf("[Error] %s %s: %v", c.Method(), c.Path(), appErr)
			return c.Status(appErr.HTTPStatus()).JSON(fiber.Map{
				"success": false,
				"error":   "internal server error",
			})
		}
		return c.Status(appErr.HTTPStatus()).JSON(fiber.Map{
			"success": false,
			"error":   appErr.Message,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"success": false,
			"error":   fiberErr.Message,
		})
	}

	log.Printf("[Error] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "internal server error",
	})
}
