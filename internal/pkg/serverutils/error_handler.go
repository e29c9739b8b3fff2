package serverutils

import (
	"errors"

	"document-hub-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error to the HTTP status it is reported with.
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}

	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperror.KindPayloadTooLarge:
		return fiber.StatusRequestEntityTooLarge
	case apperror.KindBackend:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders err as an ErrorResponse. It is used both as the Fiber
// app's ErrorHandler and by ErrorHandlerMiddleware.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := StatusFor(err)

	resp := ErrorResponse(code, apperror.Message(err))
	var fiberErr *fiber.Error
	if !errors.As(err, &fiberErr) {
		resp.ErrorKind = string(apperror.KindOf(err))
	}
	if code == fiber.StatusInternalServerError && resp.ErrorKind == string(apperror.KindInternal) {
		resp.Message = "Internal server error"
	}

	return ctx.Status(code).JSON(resp)
}

func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return ErrorHandler(ctx, err)
	}
}
