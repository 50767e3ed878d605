package repository

import (
	"context"

	"github.com/jhoicas/Envois-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID devuelve nil, nil si no existe.
type ProductRepository interface {
	Create(ctx context.Context, p *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	Update(ctx context.Context, p *entity.Product) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int, error)
	// ListByShipment ordena por nombre e id.
	ListByShipment(ctx context.Context, shipmentID string) ([]*entity.Product, error)
	// ListByShipmentAndName coincidencia exacta de nombre, ordenado por id ascendente.
	ListByShipmentAndName(ctx context.Context, shipmentID, name string) ([]*entity.Product, error)
	IDsByShipment(ctx context.Context, shipmentID string) ([]string, error)
}
