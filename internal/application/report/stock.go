package report

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Envois-api/internal/domain/entity"
	money "github.com/jhoicas/Envois-api/internal/domain/ledger"
)

// StockFigures cantidades y valores de un producto o del total del envío.
// Un valor null significa que falta información para calcularlo, nunca cero.
type StockFigures struct {
	QuantityPurchased int                 `json:"quantity_purchased"`
	PurchasedValueEUR decimal.NullDecimal `json:"purchased_value_eur"`
	PurchasedValueCFA decimal.NullDecimal `json:"purchased_value_cfa"`
	QuantitySold      int                 `json:"quantity_sold"`
	SoldValueEUR      decimal.NullDecimal `json:"sold_value_eur"`
	SoldValueCFA      decimal.NullDecimal `json:"sold_value_cfa"`
	QuantityRemaining int                 `json:"quantity_remaining"`
	StockValueEUR     decimal.NullDecimal `json:"stock_value_eur"`
	StockValueCFA     decimal.NullDecimal `json:"stock_value_cfa"`
	QuantityLoaned    int                 `json:"quantity_loaned"`
	DebtValueEUR      decimal.NullDecimal `json:"debt_value_eur"`
	DebtValueCFA      decimal.NullDecimal `json:"debt_value_cfa"`
}

// StockItem fila del informe por producto.
type StockItem struct {
	ProductID        string              `json:"product_id"`
	Name             string              `json:"name"`
	Characteristics  string              `json:"characteristics"`
	Category         string              `json:"category"`
	Image            string              `json:"image"`
	ImageURL         string              `json:"image_url"`
	PurchasePriceEUR decimal.NullDecimal `json:"purchase_price_eur"`
	PurchasePriceCFA decimal.NullDecimal `json:"purchase_price_cfa"`
	SalePriceCFA     decimal.NullDecimal `json:"sale_price_cfa"`
	SalePriceEUR     decimal.NullDecimal `json:"sale_price_eur"`
	StockFigures
	IsLowStock bool `json:"is_low_stock"`
}

// StockReport informe de stock valorizado de un envío.
type StockReport struct {
	ExchangeRate      decimal.NullDecimal `json:"exchange_rate"`
	LowStockThreshold int                 `json:"low_stock_threshold"`
	Items             []StockItem         `json:"items"`
	Totals            StockFigures        `json:"totals"`
}

// figures acumuladores de un producto antes de redondear.
type figures struct {
	purchased, sold, remaining, loaned int
	purchasedEUR, purchasedCFA         amount
	soldEUR, soldCFA                   amount
	stockEUR, stockCFA                 amount
	debtEUR, debtCFA                   amount
}

func (f *figures) merge(o *figures) {
	f.purchased += o.purchased
	f.sold += o.sold
	f.remaining += o.remaining
	f.loaned += o.loaned
	f.purchasedEUR.merge(o.purchasedEUR)
	f.purchasedCFA.merge(o.purchasedCFA)
	f.soldEUR.merge(o.soldEUR)
	f.soldCFA.merge(o.soldCFA)
	f.stockEUR.merge(o.stockEUR)
	f.stockCFA.merge(o.stockCFA)
	f.debtEUR.merge(o.debtEUR)
	f.debtCFA.merge(o.debtCFA)
}

func (f *figures) out() StockFigures {
	return StockFigures{
		QuantityPurchased: f.purchased,
		PurchasedValueEUR: f.purchasedEUR.value(),
		PurchasedValueCFA: f.purchasedCFA.value(),
		QuantitySold:      f.sold,
		SoldValueEUR:      f.soldEUR.value(),
		SoldValueCFA:      f.soldCFA.value(),
		QuantityRemaining: f.remaining,
		StockValueEUR:     f.stockEUR.value(),
		StockValueCFA:     f.stockCFA.value(),
		QuantityLoaned:    f.loaned,
		DebtValueEUR:      f.debtEUR.value(),
		DebtValueCFA:      f.debtCFA.value(),
	}
}

// Stock valoriza cada producto del envío. Compras y ventas usan el precio de cada
// transacción (las compras sin precio toman el precio de compra del producto); la conversión
// usa la tasa registrada en la fila o, si falta, la vigente. El stock restante se valora al
// precio de compra del producto y las deudas abiertas al precio de su transacción vinculada.
// threshold < 0 usa el umbral configurado.
func (s *Service) Stock(ctx context.Context, shipmentID string, threshold int) (*StockReport, error) {
	if threshold < 0 {
		threshold = s.threshold
	}
	h, err := s.load(ctx, shipmentID, true)
	if err != nil {
		return nil, err
	}

	perProduct := make(map[string]*figures, len(h.products))
	lastSale := map[string]*entity.Transaction{}
	for _, p := range h.products {
		perProduct[p.ID] = &figures{}
	}
	// h.txs viene de la más reciente a la más antigua.
	byProduct := make(map[string]*entity.Product, len(h.products))
	for _, p := range h.products {
		byProduct[p.ID] = p
	}
	for _, t := range h.txs {
		f, ok := perProduct[t.ProductID]
		if !ok || t.Quantity <= 0 {
			continue
		}
		switch t.Type {
		case entity.TransactionPurchase:
			eur := t.UnitPriceEUR
			if !eur.Valid && !t.UnitPriceCFA.Valid {
				eur = byProduct[t.ProductID].PurchasePriceEUR
			}
			f.purchasedEUR.add(lineEUR(t.Quantity, eur, t.UnitPriceCFA, t.ExchangeRate, h.rate))
			f.purchasedCFA.add(lineCFA(t.Quantity, eur, t.UnitPriceCFA, t.ExchangeRate, h.rate))
		case entity.TransactionSale:
			f.soldEUR.add(lineEUR(t.Quantity, t.UnitPriceEUR, t.UnitPriceCFA, t.ExchangeRate, h.rate))
			f.soldCFA.add(lineCFA(t.Quantity, t.UnitPriceEUR, t.UnitPriceCFA, t.ExchangeRate, h.rate))
			if _, seen := lastSale[t.ProductID]; !seen && (t.UnitPriceCFA.Valid || t.UnitPriceEUR.Valid) {
				lastSale[t.ProductID] = t
			}
		}
	}
	for _, d := range h.debts {
		f, ok := perProduct[d.ProductID]
		if !ok || d.Paid() || d.Quantity <= 0 {
			continue
		}
		eur, cfa, rate := decimal.NullDecimal{}, byProduct[d.ProductID].SalePriceCFA, decimal.NullDecimal{}
		if linked, ok := h.txByID[d.LoanTransactionID]; ok {
			eur, cfa, rate = linked.UnitPriceEUR, linked.UnitPriceCFA, linked.ExchangeRate
		}
		f.debtEUR.add(lineEUR(d.Quantity, eur, cfa, rate, h.rate))
		f.debtCFA.add(lineCFA(d.Quantity, eur, cfa, rate, h.rate))
	}

	rep := &StockReport{
		ExchangeRate:      h.rate,
		LowStockThreshold: threshold,
		Items:             make([]StockItem, 0, len(h.products)),
	}
	var totals figures
	for _, p := range h.products {
		f := perProduct[p.ID]
		if st := h.stocks[p.ID]; st != nil {
			f.purchased, f.sold, f.remaining, f.loaned = st.Initial, st.Sold, st.Remaining, st.Loaned
		}
		f.stockEUR.add(stockValue(f.remaining, p.PurchasePriceEUR, h.rate, false))
		f.stockCFA.add(stockValue(f.remaining, p.PurchasePriceEUR, h.rate, true))
		totals.merge(f)

		item := StockItem{
			ProductID:        p.ID,
			Name:             p.Name,
			Characteristics:  p.Characteristics,
			Category:         p.Category,
			ImageURL:         p.ImageURL,
			PurchasePriceEUR: round(p.PurchasePriceEUR),
			StockFigures:     f.out(),
			IsLowStock:       f.remaining <= threshold,
		}
		if p.Image != "" && s.files != nil {
			item.Image = s.files.URL(p.Image)
		}
		if p.PurchasePriceEUR.Valid && h.rate.Valid {
			item.PurchasePriceCFA = decimal.NewNullDecimal(money.ToCFA(p.PurchasePriceEUR.Decimal, h.rate.Decimal))
		}
		item.SalePriceCFA, item.SalePriceEUR = salePrices(p, lastSale[p.ID], h.rate)
		rep.Items = append(rep.Items, item)
	}
	rep.Totals = totals.out()
	return rep, nil
}

// stockValue restante × precio de compra EUR; con convert se pasa a CFA y sin tasa es desconocido.
// Sin restante vale cero aunque falte el precio.
func stockValue(remaining int, eur, rate decimal.NullDecimal, convert bool) (decimal.Decimal, bool) {
	if remaining == 0 {
		return decimal.Zero, true
	}
	if !eur.Valid {
		return decimal.Zero, false
	}
	v := eur.Decimal.Mul(decimal.NewFromInt(int64(remaining)))
	if !convert {
		return v, true
	}
	if !rate.Valid {
		return decimal.Zero, false
	}
	return v.Mul(rate.Decimal), true
}

// salePrices precio de venta por defecto del producto o, si falta, el de la última venta con precio.
func salePrices(p *entity.Product, last *entity.Transaction, current decimal.NullDecimal) (cfa, eur decimal.NullDecimal) {
	cfa = p.SalePriceCFA
	if !cfa.Valid && last != nil {
		switch {
		case last.UnitPriceCFA.Valid:
			cfa = last.UnitPriceCFA
		case last.UnitPriceEUR.Valid:
			if rate := money.CoalesceRate(last.ExchangeRate, current); rate.Valid {
				cfa = decimal.NewNullDecimal(money.ToCFA(last.UnitPriceEUR.Decimal, rate.Decimal))
			}
		}
	}
	switch {
	case cfa.Valid && current.Valid:
		if v, ok := money.ToEUR(cfa.Decimal, current.Decimal); ok {
			eur = decimal.NewNullDecimal(v)
		}
	case last != nil && last.UnitPriceEUR.Valid:
		eur = last.UnitPriceEUR
	}
	return round(cfa), round(eur)
}
