package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

var stockCols = []string{
	"product_id", "quantity_initial", "quantity_sold", "quantity_loaned", "quantity_remaining", "updated_at",
}

type stockRow struct {
	ProductID string    `db:"product_id"`
	Initial   int       `db:"quantity_initial"`
	Sold      int       `db:"quantity_sold"`
	Loaned    int       `db:"quantity_loaned"`
	Remaining int       `db:"quantity_remaining"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r stockRow) entity() *entity.Stock {
	return &entity.Stock{
		ProductID: r.ProductID,
		Initial:   r.Initial,
		Sold:      r.Sold,
		Loaned:    r.Loaned,
		Remaining: r.Remaining,
		UpdatedAt: r.UpdatedAt,
	}
}

// Get devuelve la foto del producto o nil si aún no existe.
func (r *StockRepo) Get(ctx context.Context, productID string) (*entity.Stock, error) {
	var row stockRow
	found, err := getOne(ctx, r.q, "get stock", &row,
		psql.Select(stockCols...).From("stocks").Where(squirrel.Eq{"product_id": productID}))
	if err != nil || !found {
		return nil, err
	}
	return row.entity(), nil
}

// Upsert inserta o actualiza la foto del producto.
func (r *StockRepo) Upsert(ctx context.Context, s *entity.Stock) error {
	_, err := execSQL(ctx, r.q, "upsert stock", psql.Insert("stocks").
		Columns(stockCols...).
		Values(s.ProductID, s.Initial, s.Sold, s.Loaned, s.Remaining, s.UpdatedAt).
		Suffix(`ON CONFLICT (product_id) DO UPDATE SET
			quantity_initial = EXCLUDED.quantity_initial,
			quantity_sold = EXCLUDED.quantity_sold,
			quantity_loaned = EXCLUDED.quantity_loaned,
			quantity_remaining = EXCLUDED.quantity_remaining,
			updated_at = EXCLUDED.updated_at`))
	return err
}

func (r *StockRepo) ListByShipment(ctx context.Context, shipmentID string, page repository.Page) ([]*entity.Stock, error) {
	page = page.Normalize()
	q := psql.Select("s.product_id", "s.quantity_initial", "s.quantity_sold", "s.quantity_loaned",
		"s.quantity_remaining", "s.updated_at").
		From("stocks s").
		Join("products p ON p.id = s.product_id").
		Where(squirrel.Eq{"p.shipment_id": shipmentID}).
		OrderBy("s.product_id").
		Limit(uint64(page.Limit))
	if page.AfterID != "" {
		q = q.Where(squirrel.Gt{"s.product_id": page.AfterID})
	}
	var rows []stockRow
	if err := selectAll(ctx, r.q, "list stocks", &rows, q); err != nil {
		return nil, err
	}
	out := make([]*entity.Stock, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entity())
	}
	return out, nil
}
