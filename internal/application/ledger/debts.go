package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Envois-api/internal/application/audit"
	"github.com/jhoicas/Envois-api/internal/application/dto"
	"github.com/jhoicas/Envois-api/internal/domain"
	"github.com/jhoicas/Envois-api/internal/domain/entity"
	money "github.com/jhoicas/Envois-api/internal/domain/ledger"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
	"github.com/jhoicas/Envois-api/pkg/metrics"
)

// DebtService reglas de escritura de deudas y de su transacción vinculada.
type DebtService struct {
	tx      TxRunner
	repos   repository.Repos
	stock   *Recomputer
	audit   audit.Recorder
	metrics *metrics.Metrics
	clock   Clock
}

// NewDebtService construye el servicio.
func NewDebtService(
	tx TxRunner,
	repos repository.Repos,
	stock *Recomputer,
	rec audit.Recorder,
	m *metrics.Metrics,
	clock Clock,
) *DebtService {
	return &DebtService{tx: tx, repos: repos, stock: stock, audit: rec, metrics: m, clock: clock}
}

// Create registra una deuda y su única transacción vinculada (loan si no está pagada, sale si ya lo está).
func (s *DebtService) Create(ctx context.Context, shipmentID string, in dto.DebtRequest) (*dto.DebtResponse, error) {
	client := strings.TrimSpace(in.Client)
	if client == "" {
		return nil, domain.Invalid("client", "requerido")
	}
	if in.Quantity == nil || *in.Quantity <= 0 {
		return nil, domain.Invalid("quantity", "debe ser un entero mayor que 0")
	}
	now := s.clock.Now()
	d := &entity.Debt{
		ID:                 entity.NewID(),
		Client:             client,
		Quantity:           *in.Quantity,
		LoanDate:           s.clock.Today(),
		ExpectedReturnDate: in.ExpectedReturnDate.TimePtr(),
		ActualReturnDate:   in.ActualReturnDate.TimePtr(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if in.LoanDate != nil {
		d.LoanDate = in.LoanDate.Time
	}
	if in.Notes != nil {
		d.Notes = *in.Notes
	}

	var (
		product *entity.Product
		linked  *entity.Transaction
	)
	err := s.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		p, err := LockProduct(ctx, r, shipmentID, in.ProductID, "product_id")
		if err != nil {
			return err
		}
		product = p
		d.ProductID = p.ID

		price, err := resolveDebtPrice(in.UnitPriceCFA, decimal.NullDecimal{}, p)
		if err != nil {
			return err
		}
		st, err := s.stock.Recompute(ctx, r, p.ID)
		if err != nil {
			return err
		}
		if st.Remaining < d.Quantity {
			return domain.Insufficient("quantity",
				fmt.Sprintf("stock insuficiente: disponible %d, solicitado %d", st.Remaining, d.Quantity))
		}

		d.RefreshStatus(s.clock.Today())
		if err := r.Debts.Create(ctx, d); err != nil {
			return err
		}
		linked = &entity.Transaction{ID: entity.NewID(), ProductID: p.ID, CreatedAt: now}
		s.syncLinked(linked, d, price)
		if err := r.Transactions.Create(ctx, linked); err != nil {
			return err
		}
		d.LoanTransactionID = linked.ID
		if err := r.Debts.Update(ctx, d); err != nil {
			return err
		}
		return s.stock.AfterWrite(ctx, r, p.ID)
	})
	s.metrics.MutationApplied("debt", "create", err)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Entry{
		Action:     entity.AuditCreate,
		Entity:     "dette",
		ObjectID:   d.ID,
		ObjectRepr: describeDebt(d, product),
		Message:    "Deuda creada",
		ShipmentID: shipmentID,
	})
	return s.toResponse(d, product, linked), nil
}

// Update modifica una deuda. Producto y cantidad son inmutables; las fechas ausentes se conservan
// y un null explícito las borra.
func (s *DebtService) Update(ctx context.Context, shipmentID, id string, in dto.DebtRequest) (*dto.DebtResponse, error) {
	var (
		d       *entity.Debt
		product *entity.Product
		linked  *entity.Transaction
	)
	err := s.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		cur, err := r.Debts.GetByID(ctx, id)
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
		d, product = cur, p
		if in.ProductID != "" && in.ProductID != d.ProductID {
			return domain.Invalid("product_id", "no se puede cambiar el producto de una deuda")
		}
		if in.Quantity != nil && *in.Quantity != d.Quantity {
			return domain.Invalid("quantity", "no se puede cambiar la cantidad de una deuda")
		}

		if c := strings.TrimSpace(in.Client); c != "" {
			d.Client = c
		}
		if in.LoanDate != nil {
			d.LoanDate = in.LoanDate.Time
		}
		if in.ExpectedReturnDate.Set {
			d.ExpectedReturnDate = in.ExpectedReturnDate.TimePtr()
		}
		if in.ActualReturnDate.Set {
			d.ActualReturnDate = in.ActualReturnDate.TimePtr()
		}
		if in.Notes != nil {
			d.Notes = *in.Notes
		}
		d.RefreshStatus(s.clock.Today())
		d.UpdatedAt = s.clock.Now()

		// Limpieza del campo heredado de devolución.
		if legacy := d.ReturnTransactionID; legacy != "" {
			d.ReturnTransactionID = ""
			if err := r.Debts.Update(ctx, d); err != nil {
				return err
			}
			if err := ignoreNotFound(r.Transactions.Delete(ctx, legacy)); err != nil {
				return err
			}
		}

		if d.LoanTransactionID != "" {
			if linked, err = r.Transactions.GetByID(ctx, d.LoanTransactionID); err != nil {
				return err
			}
		}
		if linked == nil {
			price, err := resolveDebtPrice(in.UnitPriceCFA, decimal.NullDecimal{}, p)
			if err != nil {
				return err
			}
			linked = &entity.Transaction{ID: entity.NewID(), ProductID: p.ID, CreatedAt: s.clock.Now()}
			s.syncLinked(linked, d, price)
			if err := r.Transactions.Create(ctx, linked); err != nil {
				return err
			}
			d.LoanTransactionID = linked.ID
		} else {
			price, err := resolveDebtPrice(in.UnitPriceCFA, linked.UnitPriceCFA, p)
			if err != nil {
				return err
			}
			s.syncLinked(linked, d, price)
			if err := r.Transactions.Update(ctx, linked); err != nil {
				return err
			}
		}
		if err := r.Debts.Update(ctx, d); err != nil {
			return err
		}
		return s.stock.AfterWrite(ctx, r, p.ID)
	})
	s.metrics.MutationApplied("debt", "update", err)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Entry{
		Action:     entity.AuditUpdate,
		Entity:     "dette",
		ObjectID:   d.ID,
		ObjectRepr: describeDebt(d, product),
		Message:    "Deuda modificada",
		ShipmentID: shipmentID,
	})
	return s.toResponse(d, product, linked), nil
}

// Delete desvincula las transacciones, borra la deuda y después las transacciones huérfanas.
func (s *DebtService) Delete(ctx context.Context, shipmentID, id string) error {
	var (
		d       *entity.Debt
		product *entity.Product
	)
	err := s.tx.Run(ctx, func(ctx context.Context, r repository.Repos) error {
		cur, err := r.Debts.GetByID(ctx, id)
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
		d, product = cur, p

		orphans := []string{d.LoanTransactionID, d.ReturnTransactionID}
		d.LoanTransactionID, d.ReturnTransactionID = "", ""
		if err := r.Debts.Update(ctx, d); err != nil {
			return err
		}
		if err := r.Debts.Delete(ctx, d.ID); err != nil {
			return err
		}
		for _, txID := range orphans {
			if txID == "" {
				continue
			}
			if err := ignoreNotFound(r.Transactions.Delete(ctx, txID)); err != nil {
				return err
			}
		}
		return s.stock.AfterWrite(ctx, r, p.ID)
	})
	s.metrics.MutationApplied("debt", "delete", err)
	if err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		Action:     entity.AuditDelete,
		Entity:     "dette",
		ObjectID:   d.ID,
		ObjectRepr: describeDebt(d, product),
		Message:    "Deuda eliminada",
		ShipmentID: shipmentID,
	})
	return nil
}

// Get devuelve una deuda del envío.
func (s *DebtService) Get(ctx context.Context, shipmentID, id string) (*dto.DebtResponse, error) {
	d, err := s.repos.Debts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.ErrNotFound
	}
	p, err := s.repos.Products.GetByID(ctx, d.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.ShipmentID != shipmentID {
		return nil, domain.ErrNotFound
	}
	linked, err := s.linked(ctx, d)
	if err != nil {
		return nil, err
	}
	return s.toResponse(d, p, linked), nil
}

// List deudas del envío; status filtra por estado derivado a la fecha de hoy.
func (s *DebtService) List(ctx context.Context, shipmentID, productID, status string) ([]dto.DebtResponse, error) {
	debts, err := s.repos.Debts.List(ctx, repository.DebtFilter{ShipmentID: shipmentID, ProductID: productID})
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
	out := make([]dto.DebtResponse, 0, len(debts))
	for _, d := range debts {
		linked, err := s.linked(ctx, d)
		if err != nil {
			return nil, err
		}
		resp := s.toResponse(d, byID[d.ProductID], linked)
		if status != "" && resp.Status != status {
			continue
		}
		out = append(out, *resp)
	}
	return out, nil
}

func (s *DebtService) linked(ctx context.Context, d *entity.Debt) (*entity.Transaction, error) {
	if d.LoanTransactionID == "" {
		return nil, nil
	}
	return s.repos.Transactions.GetByID(ctx, d.LoanTransactionID)
}

// syncLinked refleja la deuda en su transacción: tipo según pago, cantidad, cliente y fecha.
// Las deudas solo llevan precio en CFA: el precio EUR y la tasa siempre se borran.
func (s *DebtService) syncLinked(t *entity.Transaction, d *entity.Debt, priceCFA decimal.Decimal) {
	date := d.LoanDate
	t.Type = entity.TransactionLoan
	if d.Paid() {
		t.Type = entity.TransactionSale
		date = *d.ActualReturnDate
	}
	t.Quantity = d.Quantity
	t.Counterparty = d.Client
	t.OccurredAt = s.clock.Midnight(date)
	t.UnitPriceEUR = decimal.NullDecimal{}
	t.ExchangeRate = decimal.NullDecimal{}
	t.UnitPriceCFA = decimal.NewNullDecimal(priceCFA)
	t.Notes = debtNote(d)
}

func (s *DebtService) toResponse(d *entity.Debt, p *entity.Product, linked *entity.Transaction) *dto.DebtResponse {
	out := &dto.DebtResponse{
		ID:                 d.ID,
		ProductID:          d.ProductID,
		Client:             d.Client,
		Quantity:           d.Quantity,
		LoanDate:           dto.NewDate(d.LoanDate),
		ExpectedReturnDate: dto.DatePtr(d.ExpectedReturnDate),
		ActualReturnDate:   dto.DatePtr(d.ActualReturnDate),
		Status:             string(entity.DeriveDebtStatus(d.ExpectedReturnDate, d.ActualReturnDate, s.clock.Today())),
		LoanTransactionID:  d.LoanTransactionID,
		Notes:              d.Notes,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
	if p != nil {
		out.ProductName = p.Name
	}
	if linked != nil && linked.UnitPriceCFA.Valid {
		out.UnitPriceCFA = linked.UnitPriceCFA
		out.TotalCFA = decimal.NewNullDecimal(money.Round2(linked.UnitPriceCFA.Decimal.Mul(decimal.NewFromInt(int64(d.Quantity)))))
	}
	return out
}

// resolveDebtPrice: precio explícito, si no el de la transacción vinculada, si no el del producto.
func resolveDebtPrice(override *decimal.Decimal, existing decimal.NullDecimal, p *entity.Product) (decimal.Decimal, error) {
	if override != nil {
		if !override.IsPositive() {
			return decimal.Zero, domain.Invalid("unit_price_cfa", "debe ser mayor que 0")
		}
		return money.Round2(*override), nil
	}
	if existing.Valid && existing.Decimal.IsPositive() {
		return existing.Decimal, nil
	}
	if p.HasSalePrice() {
		return p.SalePriceCFA.Decimal, nil
	}
	return decimal.Zero, domain.Invalid("unit_price_cfa", "precio de venta requerido: el producto no tiene precio por defecto")
}

func debtNote(d *entity.Debt) string {
	state := "non payée"
	if d.Paid() {
		state = "payée"
	}
	return fmt.Sprintf("Dette #%s (%s)", d.ID, state)
}

func describeDebt(d *entity.Debt, p *entity.Product) string {
	name := d.ProductID
	if p != nil {
		name = p.Name
	}
	return fmt.Sprintf("%s - %s x%d (%s)", d.Client, name, d.Quantity, d.LoanDate.Format(time.DateOnly))
}
