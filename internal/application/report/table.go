package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Envois-api/internal/domain"
)

// Format formato de exportación.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat vacío equivale a csv.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	}
	return "", domain.Invalid("format", fmt.Sprintf("formato desconocido %q (valores: csv|xlsx|pdf)", s))
}

// ContentType tipo MIME de la descarga.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// TimeLayout formato de fecha y hora en las exportaciones.
const TimeLayout = "2006-01-02 15:04:05"

// Table exportación tabular independiente del formato. Las celdas son string, int,
// decimal.Decimal, decimal.NullDecimal, time.Time o nil.
type Table struct {
	Title    string
	Subtitle string
	Sheet    string
	Headers  []string
	Rows     [][]any
	// Totals se escribe tras una fila vacía; nil si la tabla no lleva totales.
	Totals []any
}

// Records filas de datos en orden de escritura, incluida la fila vacía antes de los totales.
func (t *Table) Records() [][]any {
	if t.Totals == nil {
		return t.Rows
	}
	out := make([][]any, 0, len(t.Rows)+2)
	out = append(out, t.Rows...)
	return append(out, nil, t.Totals)
}

// CellText representación textual de una celda: decimales con 2 cifras y coma decimal,
// desconocidos como celda vacía.
func CellText(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case int:
		return strconv.Itoa(c)
	case decimal.Decimal:
		return strings.Replace(c.StringFixed(2), ".", ",", 1)
	case decimal.NullDecimal:
		if !c.Valid {
			return ""
		}
		return CellText(c.Decimal)
	case time.Time:
		return c.Format(TimeLayout)
	}
	return fmt.Sprint(v)
}

// CellValue valor tipado para hojas de cálculo: los decimales pasan a float64 y los
// desconocidos a nil.
func CellValue(v any) any {
	switch c := v.(type) {
	case decimal.Decimal:
		return c.Round(2).InexactFloat64()
	case decimal.NullDecimal:
		if !c.Valid {
			return nil
		}
		return c.Decimal.Round(2).InexactFloat64()
	case time.Time:
		return c.Format(TimeLayout)
	}
	return v
}

const utf8BOM = "\ufeff"

// CSV renderer con separador ';', coma decimal, fin de línea CRLF y BOM UTF-8.
type CSV struct{}

func (CSV) Render(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	w.UseCRLF = true
	if err := w.Write(t.Headers); err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	for _, row := range t.Records() {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = CellText(v)
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	return buf.Bytes(), nil
}
