package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellText(t *testing.T) {
	assert.Equal(t, "1234,50", CellText(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "0,01", CellText(decimal.RequireFromString("0.005")))
	assert.Equal(t, "", CellText(decimal.NullDecimal{}))
	assert.Equal(t, "-3,00", CellText(decimal.NewNullDecimal(decimal.NewFromInt(-3))))
	assert.Equal(t, "7", CellText(7))
	assert.Equal(t, "", CellText(nil))
	assert.Equal(t, "2026-03-10 12:00:00", CellText(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)))
}

func TestCellValue(t *testing.T) {
	assert.Nil(t, CellValue(decimal.NullDecimal{}))
	assert.Equal(t, 12.35, CellValue(decimal.RequireFromString("12.345")))
	assert.Equal(t, "Pagne", CellValue("Pagne"))
}

func TestCSV_SeparadorYComillas(t *testing.T) {
	tbl := &Table{
		Headers: []string{"Produit", "Prix"},
		Rows:    [][]any{{"Pagne; long", decimal.RequireFromString("2.5")}, {"Sac", decimal.NullDecimal{}}},
		Totals:  []any{"TOTAL", decimal.NullDecimal{}},
	}
	out, err := CSV{}.Render(tbl)
	require.NoError(t, err)
	assert.Equal(t, "\ufeffProduit;Prix\r\n\"Pagne; long\";2,50\r\nSac;\r\n\r\nTOTAL;\r\n", string(out))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("ods")
	assert.Error(t, err)

	_, err = ParseKind("inventaire")
	assert.Error(t, err)
}
