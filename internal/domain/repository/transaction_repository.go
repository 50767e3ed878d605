package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Envois-api/internal/domain/entity"
)

// TransactionFilter filtros de listado; los campos vacíos no filtran.
type TransactionFilter struct {
	ShipmentID string
	ProductID  string
	Types      []entity.TransactionType
	From       *time.Time
	To         *time.Time
}

// TransactionRepository puerto de persistencia de transacciones.
type TransactionRepository interface {
	Create(ctx context.Context, t *entity.Transaction) error
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)
	Update(ctx context.Context, t *entity.Transaction) error
	Delete(ctx context.Context, id string) error
	// SumQuantity suma las cantidades de un tipo para el producto, excluyendo excludeID si no está vacío.
	SumQuantity(ctx context.Context, productID string, typ entity.TransactionType, excludeID string) (int, error)
	// List ordena por fecha descendente e id descendente.
	List(ctx context.Context, f TransactionFilter) ([]*entity.Transaction, error)
	ReassignProduct(ctx context.Context, fromProductIDs []string, toProductID string) (int, error)
	DeleteByProducts(ctx context.Context, productIDs []string) (int, error)
	CountByProducts(ctx context.Context, productIDs []string) (int, error)
}
