package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Envois-api/internal/application/importer"
	"github.com/jhoicas/Envois-api/internal/domain"
)

// ImportHandler carga masiva de productos desde xlsx.
type ImportHandler struct {
	svc      *importer.Service
	maxBytes int
}

// NewImportHandler construye el handler; maxBytes limita cada archivo subido.
func NewImportHandler(svc *importer.Service, maxBytes int) *ImportHandler {
	return &ImportHandler{svc: svc, maxBytes: maxBytes}
}

// Import godoc
// @Summary      Importar productos desde una hoja xlsx
// @Description  Cada fila es una unidad atómica: las filas con error se reportan y las demás se confirman.
// @Description  Las imágenes se toman de la hoja o de un zip opcional referenciado por nombre de archivo.
// @Tags         import
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        envoi_id  query     string  true   "ID del envío"
// @Param        file      formData  file    true   "Hoja xlsx"
// @Param        images    formData  file    false  "Zip de imágenes"
// @Param        mode      formData  string  false  "append (por defecto) | upsert"
// @Success      200  {object}  importer.Report
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/import [post]
func (h *ImportHandler) Import(c *fiber.Ctx) error {
	wb, err := formFile(c, "file", h.maxBytes)
	if err != nil {
		return writeError(c, err)
	}
	if wb == nil {
		return writeError(c, domain.Invalid("file", "requerido"))
	}
	images, err := formFile(c, "images", h.maxBytes)
	if err != nil {
		return writeError(c, err)
	}
	mode := c.FormValue("mode")
	if mode == "" {
		mode = c.Query("mode")
	}
	rep, err := h.svc.Import(c.UserContext(), importer.Request{
		ShipmentID: GetShipmentID(c),
		Mode:       mode,
		Workbook:   wb,
		Images:     images,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rep)
}
