package repository

import (
	"context"

	"github.com/jhoicas/Envois-api/internal/domain/entity"
)

// ExchangeRateRepository puerto de persistencia de tasas de cambio.
type ExchangeRateRepository interface {
	Create(ctx context.Context, r *entity.ExchangeRate) error
	GetByID(ctx context.Context, id string) (*entity.ExchangeRate, error)
	Update(ctx context.Context, r *entity.ExchangeRate) error
	Delete(ctx context.Context, id string) error
	// List ordena por (fecha efectiva, id) descendente.
	List(ctx context.Context) ([]*entity.ExchangeRate, error)
	// Current devuelve la tasa más reciente por (fecha efectiva, id), o nil si no hay ninguna.
	Current(ctx context.Context) (*entity.ExchangeRate, error)
}
