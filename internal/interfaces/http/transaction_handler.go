package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Envois-api/internal/application/dto"
	"github.com/jhoicas/Envois-api/internal/application/ledger"
)

// TransactionHandler maneja compras y ventas del envío de trabajo.
type TransactionHandler struct {
	svc *ledger.TransactionService
}

// NewTransactionHandler construye el handler.
func NewTransactionHandler(svc *ledger.TransactionService) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

// Create godoc
// @Summary      Registrar compra o venta
// @Description  Los préstamos y devoluciones se registran desde las deudas.
// @Tags         transactions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        envoi_id  query  string  true  "ID del envío"
// @Param        body  body  dto.TransactionRequest  true  "product_id, type (purchase|sale), quantity, precios"
// @Success      201   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/transactions [post]
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	var in dto.TransactionRequest
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
// @Summary      Listar transacciones del envío
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        envoi_id    query  string  true   "ID del envío"
// @Param        product_id  query  string  false  "Filtrar por producto"
// @Param        type        query  string  false  "purchase|sale|loan|return"
// @Success      200  {array}  dto.TransactionResponse
// @Router       /api/transactions [get]
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	out, err := h.svc.List(c.UserContext(), GetShipmentID(c), c.Query("product_id"), c.Query("type"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener transacción
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        envoi_id  query  string  true  "ID del envío"
// @Param        id   path  string  true  "ID de la transacción"
// @Success      200  {object}  dto.TransactionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id} [get]
func (h *TransactionHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.svc.Get(c.UserContext(), GetShipmentID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Modificar transacción
// @Description  Producto y tipo no cambian; una venta no puede dejar el stock en negativo.
// @Tags         transactions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        envoi_id  query  string  true  "ID del envío"
// @Param        id    path  string  true  "ID de la transacción"
// @Param        body  body  dto.TransactionRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/transactions/{id} [patch]
func (h *TransactionHandler) Update(c *fiber.Ctx) error {
	var in dto.TransactionRequest
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
// @Summary      Eliminar transacción
// @Tags         transactions
// @Security     Bearer
// @Param        envoi_id  query  string  true  "ID del envío"
// @Param        id   path  string  true  "ID de la transacción"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.UserContext(), GetShipmentID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
