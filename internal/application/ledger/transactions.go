package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Envois-api/internal/application/audit"
	"github.com/jhoicas/Envois-api/internal/application/dto"
	"github.com/jhoicas/Envois-api/internal/domain"
	"github.com/jhoicas/Envois-api/internal/domain/entity"
	money "github.com/jhoicas/Envois-api/internal/domain/ledger"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
	"github.com/jhoicas/Envois-api/pkg/metrics"
)

const msgUseDebts = "los préstamos y devoluciones se registran desde las deudas"

// TransactionService reglas de escritura de compras y ventas.
type TransactionService struct {
	tx      TxRunner
	repos   repository.Repos
	stock   *Recomputer
	audit   audit.Recorder
	metrics *metrics.Metrics
	clock   Clock
}

// NewTransactionService construye el servicio.
func NewTransactionService(
	tx TxRunner,
	repos repository.Repos,
	stock *Recomputer,
	rec audit.Recorder,
	m *metrics.Metrics,
	clock Clock,
) *TransactionService {
	return &TransactionService{tx: tx, repos: repos, stock: stock, audit: rec, metrics: m, clock: clock}
}

// Create registra una compra o venta en el envío.
func (s *TransactionService) Create(ctx context.Context, shipmentID string, in dto.TransactionRequest) (*dto.TransactionResponse, error) {
	typ, err := parseWritableType(in.Type)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	t := &entity.Transaction{ID: entity.NewID(), Type: typ, OccurredAt: now, CreatedAt: now}
	applyTransactionRequest(t, in)

	var product *entity.Product
	err = s.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		p, err := LockProduct(ctx, r, shipmentID, in.ProductID, "product_id")
		if err != nil {
			return err
		}
		product = p
		t.ProductID = p.ID
		return s.Apply(ctx, r, p, t, false)
	})
	s.metrics.MutationApplied("transaction", "create", err)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Entry{
		Action:     entity.AuditCreate,
		Entity:     "transaction",
		ObjectID:   t.ID,
		ObjectRepr: describeTransaction(t, product),
		Message:    "Transacción creada",
		ShipmentID: shipmentID,
	})
	return s.toResponse(ctx, t, product, decimal.NullDecimal{}), nil
}

// Update modifica una transacción existente. Producto y tipo son inmutables.
func (s *TransactionService) Update(ctx context.Context, shipmentID, id string, in dto.TransactionRequest) (*dto.TransactionResponse, error) {
	var (
		next    entity.Transaction
		product *entity.Product
	)
	err := s.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		cur, err := r.Transactions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return domain.ErrNotFound
		}
		p, err := lockOwned(ctx, r, shipmentID, cur.ProductID)
		if err != nil {
			return err
		}
		product = p
		if in.ProductID != "" && in.ProductID != cur.ProductID {
			return domain.Invalid("product_id", "no se puede cambiar el producto de una transacción")
		}
		if in.Type != "" {
			typ, err := entity.ParseTransactionType(in.Type)
			if err != nil || typ != cur.Type {
				return domain.Invalid("type", "no se puede cambiar el tipo de una transacción")
			}
		}
		if !cur.Type.Public() {
			return domain.Invalid("type", msgUseDebts)
		}
		next = *cur
		applyTransactionRequest(&next, in)
		return s.Apply(ctx, r, p, &next, true)
	})
	s.metrics.MutationApplied("transaction", "update", err)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Entry{
		Action:     entity.AuditUpdate,
		Entity:     "transaction",
		ObjectID:   next.ID,
		ObjectRepr: describeTransaction(&next, product),
		Message:    "Transacción modificada",
		ShipmentID: shipmentID,
	})
	return s.toResponse(ctx, &next, product, decimal.NullDecimal{}), nil
}

// Delete elimina la transacción y recalcula el stock del producto.
func (s *TransactionService) Delete(ctx context.Context, shipmentID, id string) error {
	var (
		t       *entity.Transaction
		product *entity.Product
	)
	err := s.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		cur, err := r.Transactions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return domain.ErrNotFound
		}
		p, err := lockOwned(ctx, r, shipmentID, cur.ProductID)
		if err != nil {
			return err
		}
		t, product = cur, p
		if err := r.Transactions.Delete(ctx, id); err != nil {
			return err
		}
		return s.stock.AfterWrite(ctx, r, p.ID)
	})
	s.metrics.MutationApplied("transaction", "delete", err)
	if err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		Action:     entity.AuditDelete,
		Entity:     "transaction",
		ObjectID:   t.ID,
		ObjectRepr: describeTransaction(t, product),
		Message:    "Transacción eliminada",
		ShipmentID: shipmentID,
	})
	return nil
}

// Apply valida t contra el historial del producto, resuelve precios y la persiste.
// Debe llamarse dentro de una unidad atómica con el producto ya bloqueado.
func (s *TransactionService) Apply(ctx context.Context, r repository.Repos, product *entity.Product, t *entity.Transaction, update bool) error {
	if !t.Type.Public() {
		return domain.Invalid("type", msgUseDebts)
	}
	if t.Quantity <= 0 {
		return domain.Invalid("quantity", "debe ser un entero mayor que 0")
	}
	for field, v := range map[string]decimal.NullDecimal{
		"unit_price_eur": t.UnitPriceEUR,
		"unit_price_cfa": t.UnitPriceCFA,
		"exchange_rate":  t.ExchangeRate,
	} {
		if v.Valid && v.Decimal.IsNegative() {
			return domain.Invalid(field, "no puede ser negativo")
		}
	}

	exclude := ""
	if update {
		exclude = t.ID
	}
	purchased, err := r.Transactions.SumQuantity(ctx, product.ID, entity.TransactionPurchase, exclude)
	if err != nil {
		return err
	}
	sold, err := r.Transactions.SumQuantity(ctx, product.ID, entity.TransactionSale, exclude)
	if err != nil {
		return err
	}
	loaned, err := r.Debts.SumOpenQuantity(ctx, product.ID, "")
	if err != nil {
		return err
	}
	// Las compras nunca se limitan por cantidad.
	if t.Type == entity.TransactionSale && money.Available(purchased, sold+t.Quantity, loaned) < 0 {
		available := money.Remaining(purchased, sold, loaned)
		return domain.Insufficient("quantity",
			fmt.Sprintf("stock insuficiente: disponible %d, solicitado %d", available, t.Quantity))
	}

	if err := s.resolvePrices(ctx, r, product, t); err != nil {
		return err
	}
	if update {
		err = r.Transactions.Update(ctx, t)
	} else {
		err = r.Transactions.Create(ctx, t)
	}
	if err != nil {
		return err
	}
	return s.stock.AfterWrite(ctx, r, product.ID)
}

// resolvePrices deriva el precio CFA desde el EUR con la tasa indicada o la vigente,
// y aplica el precio por defecto del producto a las ventas sin precio.
func (s *TransactionService) resolvePrices(ctx context.Context, r repository.Repos, product *entity.Product, t *entity.Transaction) error {
	if t.UnitPriceEUR.Valid && !t.UnitPriceCFA.Valid {
		rate := t.ExchangeRate
		if !rate.Valid || !rate.Decimal.IsPositive() {
			cur, err := CurrentRate(ctx, r.Rates)
			if err != nil {
				return err
			}
			rate = cur
		}
		if rate.Valid {
			applied := money.Round2(rate.Decimal)
			t.ExchangeRate = decimal.NewNullDecimal(applied)
			t.UnitPriceCFA = decimal.NewNullDecimal(money.ToCFA(t.UnitPriceEUR.Decimal, applied))
		}
	}
	if t.Type == entity.TransactionSale && !t.UnitPriceCFA.Valid {
		if !product.HasSalePrice() {
			return domain.Invalid("unit_price_cfa", "precio de venta requerido: el producto no tiene precio por defecto")
		}
		t.UnitPriceCFA = product.SalePriceCFA
	}
	return nil
}

// Get devuelve una transacción del envío.
func (s *TransactionService) Get(ctx context.Context, shipmentID, id string) (*dto.TransactionResponse, error) {
	t, err := s.repos.Transactions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	p, err := s.repos.Products.GetByID(ctx, t.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.ShipmentID != shipmentID {
		return nil, domain.ErrNotFound
	}
	return s.toResponse(ctx, t, p, decimal.NullDecimal{}), nil
}

// List transacciones del envío, de la más reciente a la más antigua.
func (s *TransactionService) List(ctx context.Context, shipmentID, productID, typ string) ([]dto.TransactionResponse, error) {
	f := repository.TransactionFilter{ShipmentID: shipmentID, ProductID: productID}
	if typ != "" {
		tt, err := entity.ParseTransactionType(typ)
		if err != nil {
			return nil, domain.Invalid("type", err.Error())
		}
		f.Types = []entity.TransactionType{tt}
	}
	list, err := s.repos.Transactions.List(ctx, f)
	if err != nil {
		return nil, err
	}
	products, err := s.repos.Products.ListByShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	rate, err := CurrentRate(ctx, s.repos.Rates)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TransactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, *s.toResponse(ctx, t, byID[t.ProductID], rate))
	}
	return out, nil
}

// toResponse calcula totales con la tasa registrada o, si falta, con current (se consulta si no viene).
func (s *TransactionService) toResponse(ctx context.Context, t *entity.Transaction, p *entity.Product, current decimal.NullDecimal) *dto.TransactionResponse {
	if !current.Valid && !t.ExchangeRate.Valid {
		current, _ = CurrentRate(ctx, s.repos.Rates)
	}
	rate := money.CoalesceRate(t.ExchangeRate, current)
	out := &dto.TransactionResponse{
		ID:           t.ID,
		ProductID:    t.ProductID,
		Type:         t.Type.String(),
		Quantity:     t.Quantity,
		UnitPriceEUR: t.UnitPriceEUR,
		UnitPriceCFA: t.UnitPriceCFA,
		ExchangeRate: t.ExchangeRate,
		OccurredAt:   t.OccurredAt,
		Counterparty: t.Counterparty,
		Notes:        t.Notes,
		CreatedAt:    t.CreatedAt,
	}
	if p != nil {
		out.ProductName = p.Name
	}
	if v, ok := money.LineTotalEUR(t.Quantity, t.UnitPriceEUR, t.UnitPriceCFA, rate); ok {
		out.TotalEUR = decimal.NewNullDecimal(money.Round2(v))
	}
	if v, ok := money.LineTotalCFA(t.Quantity, t.UnitPriceEUR, t.UnitPriceCFA, rate); ok {
		out.TotalCFA = decimal.NewNullDecimal(money.Round2(v))
	}
	return out
}

func parseWritableType(s string) (entity.TransactionType, error) {
	if s == "" {
		return 0, domain.Invalid("type", "requerido")
	}
	typ, err := entity.ParseTransactionType(s)
	if err != nil {
		return 0, domain.Invalid("type", err.Error())
	}
	if !typ.Public() {
		return 0, domain.Invalid("type", msgUseDebts)
	}
	return typ, nil
}

// applyTransactionRequest copia los campos presentes. Un nuevo precio EUR sin precio CFA
// borra el CFA (y la tasa, si tampoco viene) para que se vuelva a derivar.
func applyTransactionRequest(t *entity.Transaction, in dto.TransactionRequest) {
	if in.Quantity != nil {
		t.Quantity = *in.Quantity
	}
	if in.UnitPriceEUR != nil {
		t.UnitPriceEUR = decimal.NewNullDecimal(money.Round2(*in.UnitPriceEUR))
		if in.UnitPriceCFA == nil {
			t.UnitPriceCFA = decimal.NullDecimal{}
			if in.ExchangeRate == nil {
				t.ExchangeRate = decimal.NullDecimal{}
			}
		}
	}
	if in.UnitPriceCFA != nil {
		t.UnitPriceCFA = decimal.NewNullDecimal(money.Round2(*in.UnitPriceCFA))
	}
	if in.ExchangeRate != nil {
		t.ExchangeRate = decimal.NewNullDecimal(money.Round2(*in.ExchangeRate))
	}
	if in.OccurredAt != nil {
		t.OccurredAt = *in.OccurredAt
	}
	if in.Counterparty != nil {
		t.Counterparty = *in.Counterparty
	}
	if in.Notes != nil {
		t.Notes = *in.Notes
	}
}

func describeTransaction(t *entity.Transaction, p *entity.Product) string {
	name := t.ProductID
	if p != nil {
		name = p.Name
	}
	return fmt.Sprintf("%s %d x %s", t.Type.Label(), t.Quantity, name)
}

// ignoreNotFound trata un borrado de fila ya inexistente como éxito.
func ignoreNotFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}
