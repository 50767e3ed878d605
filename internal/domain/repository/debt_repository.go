package repository

import (
	"context"

	"github.com/jhoicas/Envois-api/internal/domain/entity"
)

// DebtFilter filtros de listado de deudas.
type DebtFilter struct {
	ShipmentID string
	ProductID  string
	OpenOnly   bool
}

// DebtRepository puerto de persistencia de deudas.
type DebtRepository interface {
	Create(ctx context.Context, d *entity.Debt) error
	GetByID(ctx context.Context, id string) (*entity.Debt, error)
	Update(ctx context.Context, d *entity.Debt) error
	Delete(ctx context.Context, id string) error
	// SumOpenQuantity suma las cantidades de deudas sin fecha real de retorno.
	SumOpenQuantity(ctx context.Context, productID, excludeID string) (int, error)
	// List ordena por fecha de préstamo descendente e id descendente.
	List(ctx context.Context, f DebtFilter) ([]*entity.Debt, error)
	ReassignProduct(ctx context.Context, fromProductIDs []string, toProductID string) (int, error)
	DeleteByProducts(ctx context.Context, productIDs []string) (int, error)
	CountByProducts(ctx context.Context, productIDs []string) (int, error)
}
