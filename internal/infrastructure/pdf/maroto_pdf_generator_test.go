package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Envois-api/internal/application/report"
)

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"5,00":         "5,00",
		"1234,50":      "1 234,50",
		"-65000,00":    "-65 000,00",
		"1234567":      "1 234 567",
		"100000000,10": "100 000 000,10",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(in), in)
	}
	assert.Equal(t, "", formatCell(decimal.NullDecimal{}))
	assert.Equal(t, "12", formatCell(12))
}

func TestTableRenderer_GeneraPDF(t *testing.T) {
	g := NewTableRenderer("Envois", func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) })
	out, err := g.Render(&report.Table{
		Title:    "Stock",
		Subtitle: "Envoi mars",
		Headers:  []string{"Produit", "Stock restant", "Valeur stock (CFA)"},
		Rows: [][]any{
			{"Pagne wax", 5, decimal.NewNullDecimal(decimal.NewFromInt(32500))},
			{"Sac", 0, decimal.NullDecimal{}},
		},
		Totals: []any{"TOTAL", 5, decimal.NullDecimal{}},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = g.Render(&report.Table{Title: "Vacía"})
	assert.Error(t, err)
}
