package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Envois-api/internal/application/usecase"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
)

// StockHandler lectura de stocks y auditoría, y resincronización manual.
type StockHandler struct {
	stocks *usecase.StockUseCase
	audits *usecase.AuditUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(stocks *usecase.StockUseCase, audits *usecase.AuditUseCase) *StockHandler {
	return &StockHandler{stocks: stocks, audits: audits}
}

// List godoc
// @Summary      Stocks del envío
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        envoi_id  query  string  true   "ID del envío"
// @Param        after_id  query  string  false  "Cursor: product_id del último elemento"
// @Param        limit     query  int     false  "Tamaño de página"  default(200)
// @Success      200  {object}  dto.ListResponse[dto.StockResponse]
// @Router       /api/stocks [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	out, err := h.stocks.List(c.UserContext(), GetShipmentID(c), pageFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Recompute godoc
// @Summary      Recalcular todos los stocks del envío (admin)
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        envoi_id  query  string  true  "ID del envío"
// @Success      200  {object}  map[string]int
// @Router       /api/stocks/recompute [post]
func (h *StockHandler) Recompute(c *fiber.Ctx) error {
	n, err := h.stocks.RecomputeAll(c.UserContext(), GetShipmentID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"recomputed": n})
}

// Audit godoc
// @Summary      Bitácora de auditoría
// @Description  Con after_id pagina por id ascendente; sin él devuelve los más recientes primero.
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        envoi_id  query  string  false  "Filtrar por envío"
// @Param        after_id  query  string  false  "Cursor"
// @Param        limit     query  int     false  "Tamaño de página"  default(200)
// @Success      200  {object}  dto.ListResponse[dto.AuditEventResponse]
// @Router       /api/audit-events [get]
func (h *StockHandler) Audit(c *fiber.Ctx) error {
	shipmentID := c.Query(QueryShipmentID)
	if shipmentID == "" {
		shipmentID = c.Get(HeaderShipmentID)
	}
	out, err := h.audits.List(c.UserContext(), shipmentID, pageFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// pageFromQuery lee after_id y limit; el límite se acota en repository.Page.Normalize.
func pageFromQuery(c *fiber.Ctx) repository.Page {
	return repository.Page{AfterID: c.Query("after_id"), Limit: c.QueryInt("limit", 0)}.Normalize()
}
