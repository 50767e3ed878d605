package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
)

var _ repository.DebtRepository = (*DebtRepo)(nil)

// DebtRepo implementación de DebtRepository sobre PostgreSQL (usable con pool o tx).
type DebtRepo struct {
	q Querier
}

// NewDebtRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDebtRepository(q Querier) *DebtRepo {
	return &DebtRepo{q: q}
}

var debtCols = []string{
	"d.id", "d.product_id", "d.client", "d.quantity", "d.loan_date", "d.expected_return_date",
	"d.actual_return_date", "d.status", "d.loan_transaction_id", "d.return_transaction_id",
	"d.notes", "d.created_at", "d.updated_at",
}

type debtRow struct {
	ID                  string            `db:"id"`
	ProductID           string            `db:"product_id"`
	Client              string            `db:"client"`
	Quantity            int               `db:"quantity"`
	LoanDate            time.Time         `db:"loan_date"`
	ExpectedReturnDate  *time.Time        `db:"expected_return_date"`
	ActualReturnDate    *time.Time        `db:"actual_return_date"`
	Status              entity.DebtStatus `db:"status"`
	LoanTransactionID   *string           `db:"loan_transaction_id"`
	ReturnTransactionID *string           `db:"return_transaction_id"`
	Notes               string            `db:"notes"`
	CreatedAt           time.Time         `db:"created_at"`
	UpdatedAt           time.Time         `db:"updated_at"`
}

func (r debtRow) entity() *entity.Debt {
	return &entity.Debt{
		ID:                  r.ID,
		ProductID:           r.ProductID,
		Client:              r.Client,
		Quantity:            r.Quantity,
		LoanDate:            r.LoanDate,
		ExpectedReturnDate:  r.ExpectedReturnDate,
		ActualReturnDate:    r.ActualReturnDate,
		Status:              r.Status,
		LoanTransactionID:   derefString(r.LoanTransactionID),
		ReturnTransactionID: derefString(r.ReturnTransactionID),
		Notes:               r.Notes,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func (r *DebtRepo) Create(ctx context.Context, d *entity.Debt) error {
	_, err := execSQL(ctx, r.q, "insert debt", psql.Insert("debts").
		Columns("id", "product_id", "client", "quantity", "loan_date", "expected_return_date",
			"actual_return_date", "status", "loan_transaction_id", "return_transaction_id",
			"notes", "created_at", "updated_at").
		Values(d.ID, d.ProductID, d.Client, d.Quantity, d.LoanDate, d.ExpectedReturnDate,
			d.ActualReturnDate, string(d.Status), nullString(d.LoanTransactionID), nullString(d.ReturnTransactionID),
			d.Notes, d.CreatedAt, d.UpdatedAt))
	return err
}

func (r *DebtRepo) GetByID(ctx context.Context, id string) (*entity.Debt, error) {
	var row debtRow
	found, err := getOne(ctx, r.q, "get debt", &row,
		psql.Select(debtCols...).From("debts d").Where(squirrel.Eq{"d.id": id}))
	if err != nil || !found {
		return nil, err
	}
	return row.entity(), nil
}

func (r *DebtRepo) Update(ctx context.Context, d *entity.Debt) error {
	return execOne(ctx, r.q, "update debt", psql.Update("debts").
		Set("client", d.Client).
		Set("loan_date", d.LoanDate).
		Set("expected_return_date", d.ExpectedReturnDate).
		Set("actual_return_date", d.ActualReturnDate).
		Set("status", string(d.Status)).
		Set("loan_transaction_id", nullString(d.LoanTransactionID)).
		Set("return_transaction_id", nullString(d.ReturnTransactionID)).
		Set("notes", d.Notes).
		Set("updated_at", d.UpdatedAt).
		Where(squirrel.Eq{"id": d.ID}))
}

func (r *DebtRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.q, "delete debt", psql.Delete("debts").Where(squirrel.Eq{"id": id}))
}

func (r *DebtRepo) SumOpenQuantity(ctx context.Context, productID, excludeID string) (int, error) {
	q := psql.Select("COALESCE(SUM(quantity), 0)").From("debts").
		Where(squirrel.Eq{"product_id": productID, "actual_return_date": nil})
	if excludeID != "" {
		q = q.Where(squirrel.NotEq{"id": excludeID})
	}
	return countSQL(ctx, r.q, "sum open debts", q)
}

func (r *DebtRepo) List(ctx context.Context, f repository.DebtFilter) ([]*entity.Debt, error) {
	q := psql.Select(debtCols...).From("debts d").OrderBy("d.loan_date DESC", "d.id DESC")
	if f.ShipmentID != "" {
		q = q.Join("products p ON p.id = d.product_id").Where(squirrel.Eq{"p.shipment_id": f.ShipmentID})
	}
	if f.ProductID != "" {
		q = q.Where(squirrel.Eq{"d.product_id": f.ProductID})
	}
	if f.OpenOnly {
		q = q.Where(squirrel.Eq{"d.actual_return_date": nil})
	}
	var rows []debtRow
	if err := selectAll(ctx, r.q, "list debts", &rows, q); err != nil {
		return nil, err
	}
	out := make([]*entity.Debt, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entity())
	}
	return out, nil
}

func (r *DebtRepo) ReassignProduct(ctx context.Context, from []string, to string) (int, error) {
	if len(from) == 0 {
		return 0, nil
	}
	n, err := execSQL(ctx, r.q, "reassign debts", psql.Update("debts").
		Set("product_id", to).
		Where(squirrel.Eq{"product_id": from}))
	return int(n), err
}

func (r *DebtRepo) DeleteByProducts(ctx context.Context, productIDs []string) (int, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	n, err := execSQL(ctx, r.q, "delete debts", psql.Delete("debts").Where(squirrel.Eq{"product_id": productIDs}))
	return int(n), err
}

func (r *DebtRepo) CountByProducts(ctx context.Context, productIDs []string) (int, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	return countSQL(ctx, r.q, "count debts",
		psql.Select("COUNT(*)").From("debts").Where(squirrel.Eq{"product_id": productIDs}))
}
