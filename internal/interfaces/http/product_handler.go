package http

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Envois-api/internal/application/dto"
	"github.com/jhoicas/Envois-api/internal/application/usecase"
	"github.com/jhoicas/Envois-api/internal/domain"
)

// ProductHandler maneja las peticiones HTTP para productos del envío de trabajo.
type ProductHandler struct {
	uc       *usecase.ProductUseCase
	maxImage int
}

// NewProductHandler construye el handler; maxImage limita el tamaño de una imagen subida.
func NewProductHandler(uc *usecase.ProductUseCase, maxImage int) *ProductHandler {
	return &ProductHandler{uc: uc, maxImage: maxImage}
}

// Create godoc
// @Summary      Crear producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        envoi_id  query  string  true  "ID del envío"
// @Param        body  body  dto.ProductRequest  true  "Datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.ProductRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetShipmentID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        envoi_id  query  string  true  "ID del envío"
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), GetShipmentID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar productos del envío con su stock
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        envoi_id  query  string  true  "ID del envío"
// @Success      200  {array}  dto.ProductResponse
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetShipmentID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        envoi_id  query  string  true  "ID del envío"
// @Param        id    path  string  true  "ID del producto"
// @Param        body  body  dto.ProductRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/products/{id} [patch]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var in dto.ProductRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), GetShipmentID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SetImage godoc
// @Summary      Subir o reemplazar la imagen del producto
// @Tags         products
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        envoi_id  query  string  true  "ID del envío"
// @Param        id     path      string  true  "ID del producto"
// @Param        image  formData  file    true  "PNG, JPEG, GIF o WEBP"
// @Success      200    {object}  dto.ProductResponse
// @Failure      400    {object}  dto.ErrorResponse
// @Failure      404    {object}  dto.ErrorResponse
// @Router       /api/products/{id}/image [put]
func (h *ProductHandler) SetImage(c *fiber.Ctx) error {
	data, err := formFile(c, "image", h.maxImage)
	if err != nil {
		return writeError(c, err)
	}
	if data == nil {
		return writeError(c, domain.Invalid("image", "requerido"))
	}
	out, err := h.uc.SetImage(c.UserContext(), GetShipmentID(c), c.Params("id"), data)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar producto con sus transacciones y deudas
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        envoi_id  query  string  true  "ID del envío"
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.CascadeCounts
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	out, err := h.uc.Delete(c.UserContext(), GetShipmentID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Purge godoc
// @Summary      Eliminar todos los productos del envío (admin)
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        envoi_id  query  string  true  "ID del envío"
// @Success      200  {object}  dto.CascadeCounts
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/products/purge [delete]
func (h *ProductHandler) Purge(c *fiber.Ctx) error {
	out, err := h.uc.Purge(c.UserContext(), GetShipmentID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// formFile lee un archivo multipart; nil si el campo no viene. Más de limit bytes es un error
// de validación sobre field.
func formFile(c *fiber.Ctx, field string, limit int) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	if limit > 0 && fh.Size > int64(limit) {
		return nil, domain.Invalid(field, "archivo demasiado grande")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, domain.Malformed("no se pudo leer %s: %v", field, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.Malformed("no se pudo leer %s: %v", field, err)
	}
	return data, nil
}
