package http

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Envois-api/internal/application/report"
	"github.com/jhoicas/Envois-api/internal/domain"
)

// ReportHandler informes de stock y mensuales, y sus exportaciones.
type ReportHandler struct {
	svc *report.Service
}

// NewReportHandler construye el handler.
func NewReportHandler(svc *report.Service) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Stock godoc
// @Summary      Informe de stock por producto en EUR y CFA
// @Description  Los totales desconocidos (sin precio o sin tasa) se devuelven como null, nunca como 0.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        envoi_id             query  string  true   "ID del envío"
// @Param        low_stock_threshold  query  int     false  "Umbral de stock bajo"  default(5)
// @Success      200  {object}  report.StockReport
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/stock [get]
func (h *ReportHandler) Stock(c *fiber.Ctx) error {
	threshold, err := queryInt(c, "low_stock_threshold", -1)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.svc.Stock(c.UserContext(), GetShipmentID(c), threshold)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Monthly godoc
// @Summary      Informe mensual: compras, ventas, margen bruto y deudas
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        envoi_id  query  string  true   "ID del envío"
// @Param        year      query  int     false  "Filtrar por año"
// @Success      200  {object}  report.MonthlyReport
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/monthly [get]
func (h *ReportHandler) Monthly(c *fiber.Ctx) error {
	year, err := queryInt(c, "year", 0)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.svc.Monthly(c.UserContext(), GetShipmentID(c), year)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Export godoc
// @Summary      Exportar un informe
// @Description  kind: transactions, stock o monthly. format: csv (por defecto), xlsx o pdf (solo stock).
// @Tags         reports
// @Security     Bearer
// @Produce      octet-stream
// @Param        envoi_id             query  string  true   "ID del envío"
// @Param        kind                 path   string  true   "transactions|stock|monthly"
// @Param        format               query  string  false  "csv|xlsx|pdf"
// @Param        year                 query  int     false  "Solo monthly"
// @Param        low_stock_threshold  query  int     false  "Solo stock"
// @Success      200  {file}    file
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/exports/{kind} [get]
func (h *ReportHandler) Export(c *fiber.Ctx) error {
	kind, err := report.ParseKind(c.Params("kind"))
	if err != nil {
		return writeError(c, err)
	}
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		return writeError(c, err)
	}
	year, err := queryInt(c, "year", 0)
	if err != nil {
		return writeError(c, err)
	}
	threshold, err := queryInt(c, "low_stock_threshold", -1)
	if err != nil {
		return writeError(c, err)
	}
	file, err := h.svc.Export(c.UserContext(), GetShipmentID(c), kind, format, report.ExportOptions{
		Year: year, LowStockThreshold: threshold,
	})
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	return c.Send(file.Data)
}

// queryInt entero opcional; un valor no numérico o negativo es un error de validación.
func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.Invalid(key, "debe ser un entero positivo")
	}
	return n, nil
}
