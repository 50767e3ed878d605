package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Envois-api/internal/application/dto"
	"github.com/jhoicas/Envois-api/internal/application/ledger"
)

// DebtHandler maneja las deudas de clientes del envío de trabajo.
type DebtHandler struct {
	svc *ledger.DebtService
}

// NewDebtHandler construye el handler.
func NewDebtHandler(svc *ledger.DebtService) *DebtHandler {
	return &DebtHandler{svc: svc}
}

// Create godoc
// @Summary      Registrar deuda
// @Description  Crea la deuda y su transacción vinculada (préstamo, o venta si ya está pagada).
// @Tags         debts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        envoi_id  query  string  true  "ID del envío"
// @Param        body  body  dto.DebtRequest  true  "product_id, client, quantity, fechas"
// @Success      201   {object}  dto.DebtResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/debts [post]
func (h *DebtHandler) Create(c *fiber.Ctx) error {
	var in dto.DebtRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.Create(c.UserContext(), GetShipmentID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar deudas del envío
// @Tags         debts
// @Security     Bearer
// @Produce      json
// @Param        envoi_id    query  string  true   "ID del envío"
// @Param        product_id  query  string  false  "Filtrar por producto"
// @Param        status      query  string  false  "open|returned|overdue"
// @Success      200  {array}  dto.DebtResponse
// @Router       /api/debts [get]
func (h *DebtHandler) List(c *fiber.Ctx) error {
	out, err := h.svc.List(c.UserContext(), GetShipmentID(c), c.Query("product_id"), c.Query("status"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener deuda
// @Tags         debts
// @Security     Bearer
// @Produce      json
// @Param        envoi_id  query  string  true  "ID del envío"
// @Param        id   path  string  true  "ID de la deuda"
// @Success      200  {object}  dto.DebtResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/debts/{id} [get]
func (h *DebtHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.svc.Get(c.UserContext(), GetShipmentID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Modificar deuda
// @Description  Producto y cantidad no cambian. Con actual_return_date la deuda pasa a pagada.
// @Tags         debts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        envoi_id  query  string  true  "ID del envío"
// @Param        id    path  string  true  "ID de la deuda"
// @Param        body  body  dto.DebtRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.DebtResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/debts/{id} [patch]
func (h *DebtHandler) Update(c *fiber.Ctx) error {
	var in dto.DebtRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.Update(c.UserContext(), GetShipmentID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar deuda y su transacción vinculada
// @Tags         debts
// @Security     Bearer
// @Param        envoi_id  query  string  true  "ID del envío"
// @Param        id   path  string  true  "ID de la deuda"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/debts/{id} [delete]
func (h *DebtHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.UserContext(), GetShipmentID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
