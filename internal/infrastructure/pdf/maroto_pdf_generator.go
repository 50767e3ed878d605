// Package pdf genera la versión imprimible de los informes tabulares.
//
// Layout de la página A4 apaisada:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + envío      │  Fecha de generación         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CABECERA: una columna por encabezado, fondo azul           │
//	│  FILAS: una por registro, importes con separador de miles   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAL                                                      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Envois-api/internal/application/report"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorStripe  = &props.Color{Red: 240, Green: 244, Blue: 248}
)

// ── Renderer ──────────────────────────────────────────────────────────────────

// TableRenderer implementa report.Renderer usando Maroto v2.
type TableRenderer struct {
	author string
	now    func() time.Time
}

// NewTableRenderer construye el renderer; author aparece en los metadatos del PDF.
func NewTableRenderer(author string, now func() time.Time) *TableRenderer {
	if now == nil {
		now = time.Now
	}
	return &TableRenderer{author: author, now: now}
}

// Render dibuja la tabla completa en una rejilla con una columna por encabezado.
func (g *TableRenderer) Render(t *report.Table) ([]byte, error) {
	if len(t.Headers) == 0 {
		return nil, fmt.Errorf("pdf: tabla sin columnas")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithMaxGridSize(len(t.Headers)).
		WithLeftMargin(8).WithRightMargin(8).
		WithTopMargin(8).WithBottomMargin(8).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 6}).
		WithTitle(t.Title, true).
		WithAuthor(g.author, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(t, len(t.Headers), g.now()))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow(t.Headers))
	for i, r := range t.Rows {
		m.AddRows(tableDetailRow(r, len(t.Headers), i%2 == 1, false))
	}
	if t.Totals != nil {
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
		m.AddRows(tableDetailRow(t.Totals, len(t.Headers), false, true))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título y envío (izq), fecha de generación (der).
func headerRow(t *report.Table, grid int, at time.Time) core.Row {
	left := grid * 2 / 3
	return row.New(14).Add(
		col.New(left).Add(
			text.New(t.Title, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Envoi : "+nonEmpty(t.Subtitle, "—"), props.Text{
				Size: 9, Top: 8, Color: colorGray,
			}),
		),
		col.New(grid-left).Add(
			text.New("Généré le "+at.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla con fondo azul.
func tableHeaderRow(headers []string) core.Row {
	cols := make([]core.Col, 0, len(headers))
	for _, h := range headers {
		cols = append(cols, col.New(1).Add(text.New(h, props.Text{
			Style: fontstyle.Bold, Size: 6, Align: align.Center,
			Color: colorWhite, Top: 1, Left: 0.5, Right: 0.5,
		})))
	}
	return row.New(10).Add(cols...).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// tableDetailRow: una fila de datos; los números van alineados a la derecha.
func tableDetailRow(cells []any, width int, striped, bold bool) core.Row {
	cols := make([]core.Col, 0, width)
	for i := 0; i < width; i++ {
		var v any
		if i < len(cells) {
			v = cells[i]
		}
		p := props.Text{Size: 6, Align: align.Left, Top: 1, Left: 0.5, Right: 0.5}
		if numeric(v) {
			p.Align = align.Right
		}
		if bold {
			p.Style = fontstyle.Bold
			p.Color = colorPrimary
		}
		cols = append(cols, col.New(1).Add(text.New(formatCell(v), p)))
	}
	r := row.New(6).Add(cols...)
	if striped {
		r = r.WithStyle(&props.Cell{BackgroundColor: colorStripe})
	}
	return r
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func numeric(v any) bool {
	switch v.(type) {
	case int, decimal.Decimal, decimal.NullDecimal:
		return true
	}
	return false
}

// formatCell texto de la celda; los importes llevan separador de miles.
// Ej: 1234567.5 → "1 234 567,50"
func formatCell(v any) string {
	s := report.CellText(v)
	switch v.(type) {
	case decimal.Decimal, decimal.NullDecimal:
		return formatMoney(s)
	}
	return s
}

// formatMoney inserta espacios de miles en un importe con coma decimal.
func formatMoney(s string) string {
	if s == "" {
		return s
	}
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ",")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, c)
	}
	out := sign + string(buf)
	if hasFrac {
		out += "," + frac
	}
	return out
}
