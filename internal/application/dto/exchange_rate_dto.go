package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRateRequest alta/edición de tasa (CFA por EUR).
type ExchangeRateRequest struct {
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate *Date           `json:"effective_date"`
}

// ExchangeRateResponse salida de una tasa.
type ExchangeRateResponse struct {
	ID            string          `json:"id"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate Date            `json:"effective_date"`
	CreatedBy     string          `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CurrentRateResponse tasa vigente; Rate es null si no hay ninguna declarada.
type CurrentRateResponse struct {
	Rate decimal.NullDecimal `json:"rate"`
}
