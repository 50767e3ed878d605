package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo implementación de TransactionRepository sobre PostgreSQL (usable con pool o tx).
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

var transactionCols = []string{
	"t.id", "t.product_id", "t.type", "t.quantity", "t.unit_price_eur", "t.unit_price_cfa",
	"t.exchange_rate", "t.occurred_at", "t.counterparty", "t.notes", "t.created_at",
}

type transactionRow struct {
	ID           string                 `db:"id"`
	ProductID    string                 `db:"product_id"`
	Type         entity.TransactionType `db:"type"`
	Quantity     int                    `db:"quantity"`
	UnitPriceEUR decimal.NullDecimal    `db:"unit_price_eur"`
	UnitPriceCFA decimal.NullDecimal    `db:"unit_price_cfa"`
	ExchangeRate decimal.NullDecimal    `db:"exchange_rate"`
	OccurredAt   time.Time              `db:"occurred_at"`
	Counterparty string                 `db:"counterparty"`
	Notes        string                 `db:"notes"`
	CreatedAt    time.Time              `db:"created_at"`
}

func (r transactionRow) entity() *entity.Transaction {
	return &entity.Transaction{
		ID:           r.ID,
		ProductID:    r.ProductID,
		Type:         r.Type,
		Quantity:     r.Quantity,
		UnitPriceEUR: r.UnitPriceEUR,
		UnitPriceCFA: r.UnitPriceCFA,
		ExchangeRate: r.ExchangeRate,
		OccurredAt:   r.OccurredAt,
		Counterparty: r.Counterparty,
		Notes:        r.Notes,
		CreatedAt:    r.CreatedAt,
	}
}

func (r *TransactionRepo) Create(ctx context.Context, t *entity.Transaction) error {
	_, err := execSQL(ctx, r.q, "insert transaction", psql.Insert("transactions").
		Columns("id", "product_id", "type", "quantity", "unit_price_eur", "unit_price_cfa",
			"exchange_rate", "occurred_at", "counterparty", "notes", "created_at").
		Values(t.ID, t.ProductID, t.Type, t.Quantity, t.UnitPriceEUR, t.UnitPriceCFA,
			t.ExchangeRate, t.OccurredAt, t.Counterparty, t.Notes, t.CreatedAt))
	return err
}

func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	var row transactionRow
	found, err := getOne(ctx, r.q, "get transaction", &row,
		psql.Select(transactionCols...).From("transactions t").Where(squirrel.Eq{"t.id": id}))
	if err != nil || !found {
		return nil, err
	}
	return row.entity(), nil
}

// Update reescribe los campos mutables; producto y tipo se cambian solo vía ReassignProduct o deudas.
func (r *TransactionRepo) Update(ctx context.Context, t *entity.Transaction) error {
	return execOne(ctx, r.q, "update transaction", psql.Update("transactions").
		Set("type", t.Type).
		Set("quantity", t.Quantity).
		Set("unit_price_eur", t.UnitPriceEUR).
		Set("unit_price_cfa", t.UnitPriceCFA).
		Set("exchange_rate", t.ExchangeRate).
		Set("occurred_at", t.OccurredAt).
		Set("counterparty", t.Counterparty).
		Set("notes", t.Notes).
		Where(squirrel.Eq{"id": t.ID}))
}

// Delete: las referencias de deudas pasan a NULL (ON DELETE SET NULL).
func (r *TransactionRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.q, "delete transaction", psql.Delete("transactions").Where(squirrel.Eq{"id": id}))
}

func (r *TransactionRepo) SumQuantity(ctx context.Context, productID string, typ entity.TransactionType, excludeID string) (int, error) {
	q := psql.Select("COALESCE(SUM(quantity), 0)").From("transactions").
		Where(squirrel.Eq{"product_id": productID, "type": typ.String()})
	if excludeID != "" {
		q = q.Where(squirrel.NotEq{"id": excludeID})
	}
	return countSQL(ctx, r.q, "sum transactions", q)
}

func (r *TransactionRepo) List(ctx context.Context, f repository.TransactionFilter) ([]*entity.Transaction, error) {
	q := psql.Select(transactionCols...).From("transactions t").OrderBy("t.occurred_at DESC", "t.id DESC")
	if f.ShipmentID != "" {
		q = q.Join("products p ON p.id = t.product_id").Where(squirrel.Eq{"p.shipment_id": f.ShipmentID})
	}
	if f.ProductID != "" {
		q = q.Where(squirrel.Eq{"t.product_id": f.ProductID})
	}
	if len(f.Types) > 0 {
		names := make([]string, 0, len(f.Types))
		for _, t := range f.Types {
			names = append(names, t.String())
		}
		q = q.Where(squirrel.Eq{"t.type": names})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"t.occurred_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.Lt{"t.occurred_at": *f.To})
	}
	var rows []transactionRow
	if err := selectAll(ctx, r.q, "list transactions", &rows, q); err != nil {
		return nil, err
	}
	out := make([]*entity.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entity())
	}
	return out, nil
}

func (r *TransactionRepo) ReassignProduct(ctx context.Context, from []string, to string) (int, error) {
	if len(from) == 0 {
		return 0, nil
	}
	n, err := execSQL(ctx, r.q, "reassign transactions", psql.Update("transactions").
		Set("product_id", to).
		Where(squirrel.Eq{"product_id": from}))
	return int(n), err
}

func (r *TransactionRepo) DeleteByProducts(ctx context.Context, productIDs []string) (int, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	n, err := execSQL(ctx, r.q, "delete transactions", psql.Delete("transactions").
		Where(squirrel.Eq{"product_id": productIDs}))
	return int(n), err
}

func (r *TransactionRepo) CountByProducts(ctx context.Context, productIDs []string) (int, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	return countSQL(ctx, r.q, "count transactions",
		psql.Select("COUNT(*)").From("transactions").Where(squirrel.Eq{"product_id": productIDs}))
}
