package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/Envois-api/internal/domain"
)

// Kind informe exportable.
type Kind string

const (
	KindTransactions Kind = "transactions"
	KindStock        Kind = "stock"
	KindMonthly      Kind = "monthly"
)

// ParseKind valida el nombre del informe.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindTransactions, KindStock, KindMonthly:
		return k, nil
	}
	return "", domain.Invalid("kind", fmt.Sprintf("informe desconocido %q", s))
}

// ExportOptions parámetros opcionales de los informes.
type ExportOptions struct {
	Year              int // solo monthly; 0 sin filtro
	LowStockThreshold int // solo stock; < 0 usa el configurado
}

// File documento generado listo para descargar.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

var (
	transactionHeaders = []string{
		"Date", "Produit", "Type", "Quantité",
		"Prix unitaire (€)", "Prix unitaire (CFA)", "Taux EUR->CFA",
		"Total (€)", "Total (CFA)", "Client/Fournisseur", "Notes",
	}
	stockHeaders = []string{
		"Produit", "Caractéristiques", "PAU (€)", "PAU (CFA)", "PVU (CFA)", "PVU (€)",
		"Quantité achetée", "Valeur achetée (€)", "Valeur achetée (CFA)",
		"Quantité vendue", "Valeur vendue (€)", "Valeur vendue (CFA)",
		"Stock restant", "Valeur stock (€)", "Valeur stock (CFA)",
		"Dettes clients (qté en cours)", "Valeur dettes (€)", "Valeur dettes (CFA)",
	}
	monthlyHeaders = []string{
		"Mois", "Achats (qté)", "Achats (€)", "Achats (CFA)",
		"Ventes (qté)", "Ventes (€)", "Ventes (CFA)", "Marge brute (CFA)",
		"Dettes créées (qté)", "Dettes soldées (qté)",
	}
)

// Export genera el informe kind del envío en el formato pedido. PDF solo existe para stock.
func (s *Service) Export(ctx context.Context, shipmentID string, kind Kind, format Format, opts ExportOptions) (*File, error) {
	r, ok := s.renderers[format]
	if !ok || (format == FormatPDF && kind != KindStock) {
		return nil, domain.Invalid("format", fmt.Sprintf("formato %s no disponible para %s", format, kind))
	}
	sh, err := s.repos.Shipments.GetByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, fmt.Errorf("envío %s: %w", shipmentID, domain.ErrNotFound)
	}

	var t *Table
	name := string(kind)
	switch kind {
	case KindTransactions:
		t, err = s.TransactionsTable(ctx, shipmentID)
	case KindStock:
		t, err = s.StockTable(ctx, shipmentID, opts.LowStockThreshold)
	case KindMonthly:
		t, err = s.MonthlyTable(ctx, shipmentID, opts.Year)
		if opts.Year != 0 {
			name = fmt.Sprintf("monthly_%d", opts.Year)
		}
	default:
		return nil, domain.Invalid("kind", fmt.Sprintf("informe desconocido %q", kind))
	}
	if err != nil {
		return nil, err
	}
	t.Subtitle = sh.Name
	data, err := r.Render(t)
	if err != nil {
		return nil, fmt.Errorf("exportar %s en %s: %w", kind, format, err)
	}
	s.log.Debug().Str("shipment_id", shipmentID).Str("kind", string(kind)).Str("format", string(format)).
		Int("rows", len(t.Rows)).Msg("informe exportado")
	return &File{Name: name + "." + string(format), ContentType: format.ContentType(), Data: data}, nil
}

// TransactionsTable compras y ventas del envío, de la más reciente a la más antigua, con los
// mismos totales que la API.
func (s *Service) TransactionsTable(ctx context.Context, shipmentID string) (*Table, error) {
	h, err := s.load(ctx, shipmentID, false)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(h.products))
	for _, p := range h.products {
		names[p.ID] = p.Name
	}
	loc := s.clock.Location()
	t := &Table{Title: "Transactions", Sheet: "Transactions", Headers: transactionHeaders}
	for _, tx := range h.txs {
		if !tx.Type.Public() {
			continue
		}
		eur, okEUR := lineEUR(tx.Quantity, tx.UnitPriceEUR, tx.UnitPriceCFA, tx.ExchangeRate, h.rate)
		cfa, okCFA := lineCFA(tx.Quantity, tx.UnitPriceEUR, tx.UnitPriceCFA, tx.ExchangeRate, h.rate)
		var totalEUR, totalCFA amount
		totalEUR.add(eur, okEUR)
		totalCFA.add(cfa, okCFA)
		t.Rows = append(t.Rows, []any{
			tx.OccurredAt.In(loc),
			names[tx.ProductID],
			tx.Type.Label(),
			tx.Quantity,
			tx.UnitPriceEUR,
			tx.UnitPriceCFA,
			tx.ExchangeRate,
			totalEUR.value(),
			totalCFA.value(),
			tx.Counterparty,
			tx.Notes,
		})
	}
	return t, nil
}

// StockTable una fila por producto y la fila TOTAL del informe de stock.
func (s *Service) StockTable(ctx context.Context, shipmentID string, threshold int) (*Table, error) {
	rep, err := s.Stock(ctx, shipmentID, threshold)
	if err != nil {
		return nil, err
	}
	t := &Table{Title: "Stock", Sheet: "Stock", Headers: stockHeaders}
	for _, it := range rep.Items {
		row := []any{
			it.Name, it.Characteristics,
			it.PurchasePriceEUR, it.PurchasePriceCFA, it.SalePriceCFA, it.SalePriceEUR,
		}
		t.Rows = append(t.Rows, append(row, stockCells(it.StockFigures)...))
	}
	t.Totals = append([]any{"TOTAL", nil, nil, nil, nil, nil}, stockCells(rep.Totals)...)
	return t, nil
}

func stockCells(f StockFigures) []any {
	return []any{
		f.QuantityPurchased, f.PurchasedValueEUR, f.PurchasedValueCFA,
		f.QuantitySold, f.SoldValueEUR, f.SoldValueCFA,
		f.QuantityRemaining, f.StockValueEUR, f.StockValueCFA,
		f.QuantityLoaned, f.DebtValueEUR, f.DebtValueCFA,
	}
}

// MonthlyTable un mes por fila y la fila TOTAL, solo si hay meses.
func (s *Service) MonthlyTable(ctx context.Context, shipmentID string, year int) (*Table, error) {
	rep, err := s.Monthly(ctx, shipmentID, year)
	if err != nil {
		return nil, err
	}
	t := &Table{Title: "Monthly", Sheet: "Monthly", Headers: monthlyHeaders}
	for _, m := range rep.Months {
		t.Rows = append(t.Rows, append([]any{m.Month}, monthCells(m.MonthFigures)...))
	}
	if len(rep.Months) > 0 {
		t.Totals = append([]any{"TOTAL"}, monthCells(rep.Totals)...)
	}
	return t, nil
}

func monthCells(f MonthFigures) []any {
	return []any{
		f.PurchaseQuantity, f.PurchaseEUR, f.PurchaseCFA,
		f.SaleQuantity, f.SaleEUR, f.SaleCFA, f.GrossMarginCFA,
		f.DebtsCreated, f.DebtsSettled,
	}
}
