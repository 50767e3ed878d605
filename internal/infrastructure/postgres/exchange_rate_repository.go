package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
)

var _ repository.ExchangeRateRepository = (*ExchangeRateRepo)(nil)

// ExchangeRateRepo tasas EUR→CFA sobre PostgreSQL.
type ExchangeRateRepo struct {
	q Querier
}

// NewExchangeRateRepository construye el adaptador. Pasar pool o tx (Querier).
func NewExchangeRateRepository(q Querier) *ExchangeRateRepo {
	return &ExchangeRateRepo{q: q}
}

var rateCols = []string{"id", "rate", "effective_date", "created_by", "created_at"}

type rateRow struct {
	ID            string          `db:"id"`
	Rate          decimal.Decimal `db:"rate"`
	EffectiveDate time.Time       `db:"effective_date"`
	CreatedBy     string          `db:"created_by"`
	CreatedAt     time.Time       `db:"created_at"`
}

func (r rateRow) entity() *entity.ExchangeRate {
	return &entity.ExchangeRate{
		ID:            r.ID,
		Rate:          r.Rate,
		EffectiveDate: r.EffectiveDate,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt,
	}
}

func (r *ExchangeRateRepo) Create(ctx context.Context, er *entity.ExchangeRate) error {
	_, err := execSQL(ctx, r.q, "insert exchange rate", psql.Insert("exchange_rates").
		Columns(rateCols...).
		Values(er.ID, er.Rate, er.EffectiveDate, er.CreatedBy, er.CreatedAt))
	return err
}

func (r *ExchangeRateRepo) GetByID(ctx context.Context, id string) (*entity.ExchangeRate, error) {
	return r.get(ctx, "get exchange rate", psql.Select(rateCols...).From("exchange_rates").Where(squirrel.Eq{"id": id}))
}

func (r *ExchangeRateRepo) Update(ctx context.Context, er *entity.ExchangeRate) error {
	return execOne(ctx, r.q, "update exchange rate", psql.Update("exchange_rates").
		Set("rate", er.Rate).
		Set("effective_date", er.EffectiveDate).
		Where(squirrel.Eq{"id": er.ID}))
}

func (r *ExchangeRateRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.q, "delete exchange rate", psql.Delete("exchange_rates").Where(squirrel.Eq{"id": id}))
}

func (r *ExchangeRateRepo) List(ctx context.Context) ([]*entity.ExchangeRate, error) {
	var rows []rateRow
	if err := selectAll(ctx, r.q, "list exchange rates", &rows,
		psql.Select(rateCols...).From("exchange_rates").OrderBy("effective_date DESC", "id DESC")); err != nil {
		return nil, err
	}
	out := make([]*entity.ExchangeRate, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entity())
	}
	return out, nil
}

func (r *ExchangeRateRepo) Current(ctx context.Context) (*entity.ExchangeRate, error) {
	return r.get(ctx, "current exchange rate", psql.Select(rateCols...).From("exchange_rates").
		OrderBy("effective_date DESC", "id DESC").
		Limit(1))
}

func (r *ExchangeRateRepo) get(ctx context.Context, op string, b squirrel.SelectBuilder) (*entity.ExchangeRate, error) {
	var row rateRow
	found, err := getOne(ctx, r.q, op, &row, b)
	if err != nil || !found {
		return nil, err
	}
	return row.entity(), nil
}
