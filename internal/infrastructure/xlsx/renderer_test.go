package xlsx

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Envois-api/internal/application/report"
)

func TestColumnWidth(t *testing.T) {
	assert.Equal(t, 10, ColumnWidth(0))
	assert.Equal(t, 10, ColumnWidth(8))
	assert.Equal(t, 22, ColumnWidth(20))
	assert.Equal(t, 45, ColumnWidth(200))
}

func TestRenderer_HojaConFormato(t *testing.T) {
	out, err := NewRenderer().Render(&report.Table{
		Sheet:   "Stock",
		Headers: []string{"Produit", "Valeur stock (CFA)"},
		Rows: [][]any{
			{"Pagne wax imprimé grand format édition spéciale marché", decimal.NewNullDecimal(decimal.RequireFromString("32500.456"))},
			{"Sac", decimal.NullDecimal{}},
		},
		Totals: []any{"TOTAL", decimal.NullDecimal{}},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "Stock", f.GetSheetName(0))
	rows, err := f.GetRows("Stock")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Produit", "Valeur stock (CFA)"}, rows[0])
	assert.Equal(t, "32500.46", rows[1][1])
	assert.Empty(t, rows[3])
	assert.Equal(t, "TOTAL", rows[4][0])

	w, err := f.GetColWidth("Stock", "A")
	require.NoError(t, err)
	assert.Equal(t, float64(maxColWidth), w)
	w, err = f.GetColWidth("Stock", "B")
	require.NoError(t, err)
	assert.Equal(t, float64(20), w)

	panes, err := f.GetPanes("Stock")
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)

	style, err := f.GetCellStyle("Stock", "A1")
	require.NoError(t, err)
	st, err := f.GetStyle(style)
	require.NoError(t, err)
	require.NotNil(t, st.Font)
	assert.True(t, st.Font.Bold)
}
