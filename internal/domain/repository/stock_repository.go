package repository

import (
	"context"

	"github.com/jhoicas/Envois-api/internal/domain/entity"
)

// StockRepository puerto para la foto derivada de stock (una fila por producto).
type StockRepository interface {
	Get(ctx context.Context, productID string) (*entity.Stock, error)
	// Upsert crea la fila si no existe.
	Upsert(ctx context.Context, s *entity.Stock) error
	// ListByShipment pagina por product_id ascendente.
	ListByShipment(ctx context.Context, shipmentID string, page Page) ([]*entity.Stock, error)
}
