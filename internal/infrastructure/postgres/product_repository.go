package postgres

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

var productCols = []string{
	"id", "shipment_id", "name", "characteristics", "category",
	"purchase_price_eur", "sale_price_cfa", "image", "image_url", "created_at", "updated_at",
}

type productRow struct {
	ID               string              `db:"id"`
	ShipmentID       string              `db:"shipment_id"`
	Name             string              `db:"name"`
	Characteristics  string              `db:"characteristics"`
	Category         string              `db:"category"`
	PurchasePriceEUR decimal.NullDecimal `db:"purchase_price_eur"`
	SalePriceCFA     decimal.NullDecimal `db:"sale_price_cfa"`
	Image            string              `db:"image"`
	ImageURL         string              `db:"image_url"`
	CreatedAt        time.Time           `db:"created_at"`
	UpdatedAt        time.Time           `db:"updated_at"`
}

func (r productRow) entity() *entity.Product {
	return &entity.Product{
		ID:               r.ID,
		ShipmentID:       r.ShipmentID,
		Name:             r.Name,
		Characteristics:  r.Characteristics,
		Category:         r.Category,
		PurchasePriceEUR: r.PurchasePriceEUR,
		SalePriceCFA:     r.SalePriceCFA,
		Image:            r.Image,
		ImageURL:         r.ImageURL,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func productList(rows []productRow) []*entity.Product {
	out := make([]*entity.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.entity())
	}
	return out
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	_, err := execSQL(ctx, r.q, "insert product", psql.Insert("products").
		Columns(productCols...).
		Values(p.ID, p.ShipmentID, p.Name, p.Characteristics, p.Category,
			p.PurchasePriceEUR, p.SalePriceCFA, p.Image, p.ImageURL, p.CreatedAt, p.UpdatedAt))
	return err
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.get(ctx, "get product", psql.Select(productCols...).From("products").Where(squirrel.Eq{"id": id}))
}

// GetForUpdate obtiene el producto y bloquea la fila (SELECT FOR UPDATE).
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.get(ctx, "get product for update",
		psql.Select(productCols...).From("products").Where(squirrel.Eq{"id": id}).Suffix("FOR UPDATE"))
}

func (r *ProductRepo) get(ctx context.Context, op string, b squirrel.SelectBuilder) (*entity.Product, error) {
	var row productRow
	found, err := getOne(ctx, r.q, op, &row, b)
	if err != nil || !found {
		return nil, err
	}
	return row.entity(), nil
}

// Update actualiza un producto existente. El envío no cambia.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	return execOne(ctx, r.q, "update product", psql.Update("products").
		Set("name", p.Name).
		Set("characteristics", p.Characteristics).
		Set("category", p.Category).
		Set("purchase_price_eur", p.PurchasePriceEUR).
		Set("sale_price_cfa", p.SalePriceCFA).
		Set("image", p.Image).
		Set("image_url", p.ImageURL).
		Set("updated_at", p.UpdatedAt).
		Where(squirrel.Eq{"id": p.ID}))
}

// Delete elimina un producto por ID; el stock cae en cascada.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.q, "delete product", psql.Delete("products").Where(squirrel.Eq{"id": id}))
}

func (r *ProductRepo) DeleteMany(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := execSQL(ctx, r.q, "delete products", psql.Delete("products").Where(squirrel.Eq{"id": ids}))
	return int(n), err
}

func (r *ProductRepo) ListByShipment(ctx context.Context, shipmentID string) ([]*entity.Product, error) {
	var rows []productRow
	if err := selectAll(ctx, r.q, "list products", &rows, psql.Select(productCols...).From("products").
		Where(squirrel.Eq{"shipment_id": shipmentID}).
		OrderBy("name", "id")); err != nil {
		return nil, err
	}
	return productList(rows), nil
}

func (r *ProductRepo) ListByShipmentAndName(ctx context.Context, shipmentID, name string) ([]*entity.Product, error) {
	var rows []productRow
	if err := selectAll(ctx, r.q, "list products by name", &rows, psql.Select(productCols...).From("products").
		Where(squirrel.Eq{"shipment_id": shipmentID, "name": name}).
		OrderBy("id")); err != nil {
		return nil, err
	}
	return productList(rows), nil
}

func (r *ProductRepo) IDsByShipment(ctx context.Context, shipmentID string) ([]string, error) {
	var ids []string
	if err := selectAll(ctx, r.q, "list product ids", &ids, psql.Select("id").From("products").
		Where(squirrel.Eq{"shipment_id": shipmentID}).
		OrderBy("id")); err != nil {
		return nil, err
	}
	return ids, nil
}
