package repository

import (
	"context"

	"github.com/jhoicas/Envois-api/internal/domain/entity"
)

// ShipmentRepository puerto de persistencia para envíos.
type ShipmentRepository interface {
	Create(ctx context.Context, s *entity.Shipment) error
	GetByID(ctx context.Context, id string) (*entity.Shipment, error)
	Update(ctx context.Context, s *entity.Shipment) error
	// Delete elimina el envío; productos y stocks caen en cascada.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*entity.Shipment, error)
}
