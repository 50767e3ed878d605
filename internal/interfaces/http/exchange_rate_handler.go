package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Envois-api/internal/application/dto"
	"github.com/jhoicas/Envois-api/internal/application/usecase"
)

// ExchangeRateHandler maneja las tasas de cambio CFA por EUR.
type ExchangeRateHandler struct {
	uc *usecase.ExchangeRateUseCase
}

// NewExchangeRateHandler construye el handler.
func NewExchangeRateHandler(uc *usecase.ExchangeRateUseCase) *ExchangeRateHandler {
	return &ExchangeRateHandler{uc: uc}
}

// Create godoc
// @Summary      Declarar tasa de cambio
// @Tags         exchange-rates
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ExchangeRateRequest  true  "rate, effective_date (por defecto hoy)"
// @Success      201   {object}  dto.ExchangeRateResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/exchange-rates [post]
func (h *ExchangeRateHandler) Create(c *fiber.Ctx) error {
	var in dto.ExchangeRateRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar tasas, la vigente primero
// @Tags         exchange-rates
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ExchangeRateResponse
// @Router       /api/exchange-rates [get]
func (h *ExchangeRateHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Current godoc
// @Summary      Tasa vigente
// @Description  rate es null si no se ha declarado ninguna.
// @Tags         exchange-rates
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CurrentRateResponse
// @Router       /api/exchange-rates/current [get]
func (h *ExchangeRateHandler) Current(c *fiber.Ctx) error {
	out, err := h.uc.Current(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener tasa
// @Tags         exchange-rates
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la tasa"
// @Success      200  {object}  dto.ExchangeRateResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/exchange-rates/{id} [get]
func (h *ExchangeRateHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Corregir tasa
// @Tags         exchange-rates
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la tasa"
// @Param        body  body  dto.ExchangeRateRequest  true  "rate, effective_date"
// @Success      200   {object}  dto.ExchangeRateResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/exchange-rates/{id} [put]
func (h *ExchangeRateHandler) Update(c *fiber.Ctx) error {
	var in dto.ExchangeRateRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar tasa
// @Tags         exchange-rates
// @Security     Bearer
// @Param        id   path  string  true  "ID de la tasa"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/exchange-rates/{id} [delete]
func (h *ExchangeRateHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
