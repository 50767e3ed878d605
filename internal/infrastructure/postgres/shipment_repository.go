package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
)

var _ repository.ShipmentRepository = (*ShipmentRepo)(nil)

// ShipmentRepo implementación del puerto ShipmentRepository sobre PostgreSQL (usable con pool o tx).
type ShipmentRepo struct {
	q Querier
}

// NewShipmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewShipmentRepository(q Querier) *ShipmentRepo {
	return &ShipmentRepo{q: q}
}

var shipmentCols = []string{"id", "name", "start_date", "end_date", "notes", "archived", "created_at"}

type shipmentRow struct {
	ID        string     `db:"id"`
	Name      string     `db:"name"`
	StartDate time.Time  `db:"start_date"`
	EndDate   *time.Time `db:"end_date"`
	Notes     string     `db:"notes"`
	Archived  bool       `db:"archived"`
	CreatedAt time.Time  `db:"created_at"`
}

func (r shipmentRow) entity() *entity.Shipment {
	return &entity.Shipment{
		ID:        r.ID,
		Name:      r.Name,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Notes:     r.Notes,
		Archived:  r.Archived,
		CreatedAt: r.CreatedAt,
	}
}

func (r *ShipmentRepo) Create(ctx context.Context, s *entity.Shipment) error {
	_, err := execSQL(ctx, r.q, "insert shipment", psql.Insert("shipments").
		Columns(shipmentCols...).
		Values(s.ID, s.Name, s.StartDate, s.EndDate, s.Notes, s.Archived, s.CreatedAt))
	return err
}

func (r *ShipmentRepo) GetByID(ctx context.Context, id string) (*entity.Shipment, error) {
	var row shipmentRow
	found, err := getOne(ctx, r.q, "get shipment", &row,
		psql.Select(shipmentCols...).From("shipments").Where(squirrel.Eq{"id": id}))
	if err != nil || !found {
		return nil, err
	}
	return row.entity(), nil
}

func (r *ShipmentRepo) Update(ctx context.Context, s *entity.Shipment) error {
	return execOne(ctx, r.q, "update shipment", psql.Update("shipments").
		Set("name", s.Name).
		Set("start_date", s.StartDate).
		Set("end_date", s.EndDate).
		Set("notes", s.Notes).
		Set("archived", s.Archived).
		Where(squirrel.Eq{"id": s.ID}))
}

// Delete: productos y stocks caen por ON DELETE CASCADE.
func (r *ShipmentRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.q, "delete shipment", psql.Delete("shipments").Where(squirrel.Eq{"id": id}))
}

func (r *ShipmentRepo) List(ctx context.Context) ([]*entity.Shipment, error) {
	var rows []shipmentRow
	if err := selectAll(ctx, r.q, "list shipments", &rows,
		psql.Select(shipmentCols...).From("shipments").OrderBy("start_date DESC", "name")); err != nil {
		return nil, err
	}
	out := make([]*entity.Shipment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entity())
	}
	return out, nil
}
