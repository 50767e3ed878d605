package report

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Envois-api/internal/domain/entity"
)

// MonthFigures compras, ventas y deudas de un mes (o del total).
type MonthFigures struct {
	PurchaseQuantity int                 `json:"purchase_quantity"`
	PurchaseEUR      decimal.NullDecimal `json:"purchase_total_eur"`
	PurchaseCFA      decimal.NullDecimal `json:"purchase_total_cfa"`
	SaleQuantity     int                 `json:"sale_quantity"`
	SaleEUR          decimal.NullDecimal `json:"sale_total_eur"`
	SaleCFA          decimal.NullDecimal `json:"sale_total_cfa"`
	GrossMarginCFA   decimal.NullDecimal `json:"gross_margin_cfa"`
	DebtsCreated     int                 `json:"debts_created"`
	DebtsSettled     int                 `json:"debts_settled"`
}

// MonthRow un mes con formato YYYY-MM.
type MonthRow struct {
	Month string `json:"month"`
	MonthFigures
}

// MonthlyReport informe mensual de un envío; Year 0 sin filtro.
type MonthlyReport struct {
	Year   int          `json:"year,omitempty"`
	Months []MonthRow   `json:"months"`
	Totals MonthFigures `json:"totals"`
}

type month struct {
	purchases, sales         int
	purchaseEUR, purchaseCFA amount
	saleEUR, saleCFA         amount
	created, settled         int
}

func (m *month) merge(o *month) {
	m.purchases += o.purchases
	m.sales += o.sales
	m.purchaseEUR.merge(o.purchaseEUR)
	m.purchaseCFA.merge(o.purchaseCFA)
	m.saleEUR.merge(o.saleEUR)
	m.saleCFA.merge(o.saleCFA)
	m.created += o.created
	m.settled += o.settled
}

func (m *month) out() MonthFigures {
	f := MonthFigures{
		PurchaseQuantity: m.purchases,
		PurchaseEUR:      m.purchaseEUR.value(),
		PurchaseCFA:      m.purchaseCFA.value(),
		SaleQuantity:     m.sales,
		SaleEUR:          m.saleEUR.value(),
		SaleCFA:          m.saleCFA.value(),
		DebtsCreated:     m.created,
		DebtsSettled:     m.settled,
	}
	f.GrossMarginCFA = sub(f.SaleCFA, f.PurchaseCFA)
	return f
}

// Monthly agrupa compras y ventas por mes de la transacción en la zona horaria del servicio,
// junto con las deudas creadas (fecha de préstamo) y saldadas (fecha de devolución).
// year 0 incluye todos los años.
func (s *Service) Monthly(ctx context.Context, shipmentID string, year int) (*MonthlyReport, error) {
	h, err := s.load(ctx, shipmentID, false)
	if err != nil {
		return nil, err
	}
	loc := s.clock.Location()
	buckets := map[string]*month{}
	bucket := func(t time.Time) *month {
		t = t.In(loc)
		if year != 0 && t.Year() != year {
			return nil
		}
		key := t.Format("2006-01")
		m, ok := buckets[key]
		if !ok {
			m = &month{}
			buckets[key] = m
		}
		return m
	}

	for _, t := range h.txs {
		if t.Type != entity.TransactionPurchase && t.Type != entity.TransactionSale {
			continue
		}
		m := bucket(t.OccurredAt)
		if m == nil {
			continue
		}
		eur, ok1 := lineEUR(t.Quantity, t.UnitPriceEUR, t.UnitPriceCFA, t.ExchangeRate, h.rate)
		cfa, ok2 := lineCFA(t.Quantity, t.UnitPriceEUR, t.UnitPriceCFA, t.ExchangeRate, h.rate)
		if t.Type == entity.TransactionPurchase {
			m.purchases += t.Quantity
			m.purchaseEUR.add(eur, ok1)
			m.purchaseCFA.add(cfa, ok2)
			continue
		}
		m.sales += t.Quantity
		m.saleEUR.add(eur, ok1)
		m.saleCFA.add(cfa, ok2)
	}
	for _, d := range h.debts {
		if m := bucket(dateIn(d.LoanDate, loc)); m != nil {
			m.created++
		}
		if d.ActualReturnDate != nil {
			if m := bucket(dateIn(*d.ActualReturnDate, loc)); m != nil {
				m.settled++
			}
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rep := &MonthlyReport{Year: year, Months: make([]MonthRow, 0, len(keys))}
	var totals month
	for _, k := range keys {
		m := buckets[k]
		totals.merge(m)
		rep.Months = append(rep.Months, MonthRow{Month: k, MonthFigures: m.out()})
	}
	rep.Totals = totals.out()
	return rep, nil
}

// dateIn las fechas de calendario se guardan a medianoche UTC; se reinterpretan en loc
// para que el día no se desplace de mes.
func dateIn(d time.Time, loc *time.Location) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 12, 0, 0, 0, loc)
}
