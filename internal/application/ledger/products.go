package ledger

import (
	"context"
	"fmt"

	"github.com/jhoicas/Envois-api/internal/domain"
	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
)

// LockProduct bloquea el producto y verifica que pertenezca al envío.
// Un id vacío o de otro envío es un error de validación sobre field; un id inexistente es ErrNotFound.
func LockProduct(ctx context.Context, r repository.Repos, shipmentID, productID, field string) (*entity.Product, error) {
	if productID == "" {
		return nil, domain.Invalid(field, "requerido")
	}
	p, err := r.Products.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("bloquear producto: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	if shipmentID != "" && p.ShipmentID != shipmentID {
		return nil, domain.Invalid(field, "el producto no pertenece al envío seleccionado")
	}
	return p, nil
}

// lockOwned bloquea el producto dueño de una fila existente; si es de otro envío la fila no existe para el llamador.
func lockOwned(ctx context.Context, r repository.Repos, shipmentID, productID string) (*entity.Product, error) {
	p, err := r.Products.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("bloquear producto: %w", err)
	}
	if p == nil || (shipmentID != "" && p.ShipmentID != shipmentID) {
		return nil, domain.ErrNotFound
	}
	return p, nil
}
