package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Envois-api/internal/domain/entity"
	money "github.com/jhoicas/Envois-api/internal/domain/ledger"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
	"github.com/jhoicas/Envois-api/pkg/metrics"
)

// Recomputer deriva la foto de stock desde el historial completo del producto.
type Recomputer struct {
	clock   Clock
	metrics *metrics.Metrics
}

// NewRecomputer construye el motor de recálculo.
func NewRecomputer(clock Clock, m *metrics.Metrics) *Recomputer {
	return &Recomputer{clock: clock, metrics: m}
}

// Recompute suma compras, ventas y deudas abiertas y persiste la foto, creándola si falta.
// Siempre se ejecuta, aunque el contexto suprima los recálculos posteriores a escritura.
// Si las cantidades no cambiaron devuelve la foto existente sin reescribirla.
func (rc *Recomputer) Recompute(ctx context.Context, r repository.Repos, productID string) (*entity.Stock, error) {
	start := time.Now()
	purchased, err := r.Transactions.SumQuantity(ctx, productID, entity.TransactionPurchase, "")
	if err != nil {
		return nil, fmt.Errorf("sumar compras: %w", err)
	}
	sold, err := r.Transactions.SumQuantity(ctx, productID, entity.TransactionSale, "")
	if err != nil {
		return nil, fmt.Errorf("sumar ventas: %w", err)
	}
	loaned, err := r.Debts.SumOpenQuantity(ctx, productID, "")
	if err != nil {
		return nil, fmt.Errorf("sumar deudas abiertas: %w", err)
	}

	next := &entity.Stock{
		ProductID: productID,
		Initial:   purchased,
		Sold:      sold,
		Loaned:    loaned,
		Remaining: money.Remaining(purchased, sold, loaned),
		UpdatedAt: rc.clock.Now(),
	}
	cur, err := r.Stocks.Get(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("leer stock: %w", err)
	}
	if cur != nil && cur.SameQuantities(next) {
		return cur, nil
	}
	if err := r.Stocks.Upsert(ctx, next); err != nil {
		return nil, fmt.Errorf("guardar stock: %w", err)
	}
	rc.metrics.StockRecomputed(time.Since(start))
	return next, nil
}

// AfterWrite hook explícito tras escribir transacciones o deudas. No hace nada si el
// contexto suprime los recálculos; ignora ids vacíos y repetidos.
func (rc *Recomputer) AfterWrite(ctx context.Context, r repository.Repos, productIDs ...string) error {
	if RecomputeSuppressed(ctx) {
		return nil
	}
	_, err := rc.RecomputeMany(ctx, r, productIDs)
	return err
}

// RecomputeMany recalcula cada producto una sola vez.
func (rc *Recomputer) RecomputeMany(ctx context.Context, r repository.Repos, productIDs []string) (int, error) {
	seen := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, err := rc.Recompute(ctx, r, id); err != nil {
			return len(seen) - 1, err
		}
	}
	return len(seen), nil
}
