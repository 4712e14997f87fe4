package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"notebook-widget-be/pkg/apperror"
)

// ErrorHandlerMiddleware maps service errors to HTTP statuses. Upstream error
// bodies stay in the logs; the client only sees a generic message per class.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var verr *ValidationError
		if errors.As(err, &verr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(fiber.StatusBadRequest, verr.Error()))
		}

		var nfe *apperror.NotFoundError
		if errors.As(err, &nfe) {
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(fiber.StatusNotFound, nfe.Error()))
		}

		if apperror.IsConfiguration(err) {
			return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, "service is not configured"))
		}

		if apperror.IsUpstream(err) {
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(fiber.StatusBadGateway, "upstream request failed"))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, "internal server error"))
	}
}
