// Package xlsx escribe los informes tabulares como libros de Excel.
package xlsx

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Envois-api/internal/application/report"
)

const (
	minColWidth = 10
	maxColWidth = 45
)

// Renderer implementa report.Renderer: cabecera en negrita, primera fila fija,
// autofiltro y anchos de columna según el contenido.
type Renderer struct{}

// NewRenderer construye el renderer.
func NewRenderer() *Renderer { return &Renderer{} }

func (Renderer) Render(t *report.Table) ([]byte, error) {
	if len(t.Headers) == 0 {
		return nil, fmt.Errorf("xlsx: tabla sin columnas")
	}
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("xlsx: nombrar hoja: %w", err)
	}

	widths := make([]int, len(t.Headers))
	measure := func(i int, s string) {
		if i < len(widths) {
			widths[i] = max(widths[i], utf8.RuneCountInString(s))
		}
	}

	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
		measure(i, h)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("xlsx: cabecera: %w", err)
	}

	records := t.Records()
	for n, rec := range records {
		if rec == nil {
			continue
		}
		values := make([]any, len(rec))
		for i, v := range rec {
			values[i] = report.CellValue(v)
			measure(i, report.CellText(v))
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("xlsx: fila %d: %w", n+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(t.Headers))
	if err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
		return nil, fmt.Errorf("xlsx: estilo cabecera: %w", err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("xlsx: fijar cabecera: %w", err)
	}
	if err := f.AutoFilter(sheet, fmt.Sprintf("A1:%s%d", lastCol, len(records)+1), nil); err != nil {
		return nil, fmt.Errorf("xlsx: autofiltro: %w", err)
	}
	for i, w := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, name, name, float64(ColumnWidth(w))); err != nil {
			return nil, fmt.Errorf("xlsx: ancho de columna: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: escribir libro: %w", err)
	}
	return buf.Bytes(), nil
}

// ColumnWidth ancho de columna para un contenido de n caracteres, entre 10 y 45.
func ColumnWidth(n int) int {
	return min(max(n+2, minColWidth), maxColWidth)
}
