// Package report agrega el historial de un envío en informes de stock y mensuales y los
// exporta a CSV, XLSX o PDF.
package report

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Envois-api/internal/application/ledger"
	"github.com/jhoicas/Envois-api/internal/application/ports"
	"github.com/jhoicas/Envois-api/internal/domain"
	"github.com/jhoicas/Envois-api/internal/domain/entity"
	money "github.com/jhoicas/Envois-api/internal/domain/ledger"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
)

// DefaultLowStockThreshold umbral de stock bajo si no se indica otro.
const DefaultLowStockThreshold = 5

// Renderer convierte una tabla en un documento binario (XLSX, PDF).
type Renderer interface {
	Render(t *Table) ([]byte, error)
}

// Service informes y exportaciones. Solo lee: no abre unidades atómicas.
type Service struct {
	repos     repository.Repos
	files     ports.FileStore
	clock     ledger.Clock
	log       zerolog.Logger
	renderers map[Format]Renderer
	threshold int
}

// NewService construye el servicio. xlsx o pdf nil deshabilitan ese formato.
func NewService(
	repos repository.Repos,
	files ports.FileStore,
	clock ledger.Clock,
	log zerolog.Logger,
	xlsx, pdf Renderer,
	lowStockThreshold int,
) *Service {
	if lowStockThreshold < 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	r := map[Format]Renderer{FormatCSV: CSV{}}
	if xlsx != nil {
		r[FormatXLSX] = xlsx
	}
	if pdf != nil {
		r[FormatPDF] = pdf
	}
	return &Service{repos: repos, files: files, clock: clock, log: log, renderers: r, threshold: lowStockThreshold}
}

// history filas de un envío cargadas una vez por informe.
type history struct {
	rate     decimal.NullDecimal
	products []*entity.Product
	stocks   map[string]*entity.Stock
	txs      []*entity.Transaction
	txByID   map[string]*entity.Transaction
	debts    []*entity.Debt
}

func (s *Service) load(ctx context.Context, shipmentID string, withStocks bool) (*history, error) {
	sh, err := s.repos.Shipments.GetByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, fmt.Errorf("envío %s: %w", shipmentID, domain.ErrNotFound)
	}
	h := &history{stocks: map[string]*entity.Stock{}, txByID: map[string]*entity.Transaction{}}
	if h.rate, err = ledger.CurrentRate(ctx, s.repos.Rates); err != nil {
		return nil, err
	}
	if h.products, err = s.repos.Products.ListByShipment(ctx, shipmentID); err != nil {
		return nil, fmt.Errorf("listar productos: %w", err)
	}
	if h.txs, err = s.repos.Transactions.List(ctx, repository.TransactionFilter{ShipmentID: shipmentID}); err != nil {
		return nil, fmt.Errorf("listar transacciones: %w", err)
	}
	for _, t := range h.txs {
		h.txByID[t.ID] = t
	}
	if h.debts, err = s.repos.Debts.List(ctx, repository.DebtFilter{ShipmentID: shipmentID}); err != nil {
		return nil, fmt.Errorf("listar deudas: %w", err)
	}
	if !withStocks {
		return h, nil
	}
	page := repository.Page{Limit: repository.MaxPageSize}
	for {
		batch, err := s.repos.Stocks.ListByShipment(ctx, shipmentID, page)
		if err != nil {
			return nil, fmt.Errorf("listar stock: %w", err)
		}
		for _, st := range batch {
			h.stocks[st.ProductID] = st
		}
		if len(batch) < page.Limit {
			break
		}
		page.AfterID = batch[len(batch)-1].ProductID
	}
	return h, nil
}

// amount suma monetaria que deja de estar disponible en cuanto un sumando es desconocido.
type amount struct {
	sum     decimal.Decimal
	unknown bool
}

func (a *amount) add(v decimal.Decimal, ok bool) {
	if !ok {
		a.unknown = true
		return
	}
	a.sum = a.sum.Add(v)
}

func (a *amount) merge(o amount) {
	a.add(o.sum, !o.unknown)
}

// value nulo si algún sumando era desconocido; si no, redondeado a 2 decimales.
func (a amount) value() decimal.NullDecimal {
	if a.unknown {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(money.Round2(a.sum))
}

func sub(a, b decimal.NullDecimal) decimal.NullDecimal {
	if !a.Valid || !b.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(money.Round2(a.Decimal.Sub(b.Decimal)))
}

func round(d decimal.NullDecimal) decimal.NullDecimal {
	if !d.Valid {
		return d
	}
	return decimal.NewNullDecimal(money.Round2(d.Decimal))
}

// lineEUR y lineCFA totales de una línea con la tasa registrada o la vigente.
func lineEUR(qty int, eur, cfa, recorded, current decimal.NullDecimal) (decimal.Decimal, bool) {
	return money.LineTotalEUR(qty, eur, cfa, money.CoalesceRate(recorded, current))
}

func lineCFA(qty int, eur, cfa, recorded, current decimal.NullDecimal) (decimal.Decimal, bool) {
	return money.LineTotalCFA(qty, eur, cfa, money.CoalesceRate(recorded, current))
}
