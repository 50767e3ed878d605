package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Envois-api/internal/application/dto"
	"github.com/jhoicas/Envois-api/internal/domain"
)

// writeError traduce errores de dominio a códigos HTTP y dto.ErrorResponse.
// Los errores no reconocidos se registran y se devuelven como 500 sin detalle interno.
func writeError(c *fiber.Ctx, err error) error {
	if ve, ok := domain.AsValidation(err); ok {
		code := "VALIDATION"
		if errors.Is(err, domain.ErrInsufficientStock) {
			code = "INSUFFICIENT_STOCK"
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: ve.Message, Field: ve.Field})
	}

	var fe *fiber.Error
	switch {
	case errors.Is(err, domain.ErrMalformedUpload):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MALFORMED_UPLOAD", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "ya existe un registro con ese nombre"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.As(err, &fe):
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message})
	}

	logger(c).Error().Err(err).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno del servidor"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// ErrorHandler manejador global de Fiber: mismo formato para errores no capturados por los handlers.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if c.Locals(localLogger) == nil {
			c.Locals(localLogger, log)
		}
		return writeError(c, err)
	}
}
