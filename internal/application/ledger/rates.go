package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Envois-api/internal/domain/repository"
)

// CurrentRate devuelve la tasa EUR→CFA vigente. Valid=false si no hay ninguna declarada;
// el llamador decide qué hacer, nunca se asume 1.
func CurrentRate(ctx context.Context, rates repository.ExchangeRateRepository) (decimal.NullDecimal, error) {
	cur, err := rates.Current(ctx)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("tasa vigente: %w", err)
	}
	if cur == nil || !cur.Rate.IsPositive() {
		return decimal.NullDecimal{}, nil
	}
	return decimal.NewNullDecimal(cur.Rate), nil
}
