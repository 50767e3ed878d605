package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Envois-api/internal/application/dto"
	"github.com/jhoicas/Envois-api/internal/application/usecase"
)

// ShipmentHandler maneja las peticiones HTTP para envíos. Lectura para cualquier usuario,
// escritura solo admin.
type ShipmentHandler struct {
	uc *usecase.ShipmentUseCase
}

// NewShipmentHandler construye el handler.
func NewShipmentHandler(uc *usecase.ShipmentUseCase) *ShipmentHandler {
	return &ShipmentHandler{uc: uc}
}

// Create godoc
// @Summary      Crear envío
// @Tags         shipments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ShipmentRequest  true  "Datos del envío"
// @Success      201   {object}  dto.ShipmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/envois [post]
func (h *ShipmentHandler) Create(c *fiber.Ctx) error {
	var in dto.ShipmentRequest
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
// @Summary      Listar envíos
// @Tags         shipments
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ShipmentResponse
// @Router       /api/envois [get]
func (h *ShipmentHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener envío por ID
// @Tags         shipments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del envío"
// @Success      200  {object}  dto.ShipmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/envois/{id} [get]
func (h *ShipmentHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar envío
// @Tags         shipments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del envío"
// @Param        body  body  dto.ShipmentRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.ShipmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/envois/{id} [patch]
func (h *ShipmentHandler) Update(c *fiber.Ctx) error {
	var in dto.ShipmentRequest
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
// @Summary      Eliminar envío con sus productos, transacciones y deudas
// @Tags         shipments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del envío"
// @Success      200  {object}  dto.CascadeCounts
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/envois/{id} [delete]
func (h *ShipmentHandler) Delete(c *fiber.Ctx) error {
	out, err := h.uc.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
