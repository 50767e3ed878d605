package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate tasa CFA por EUR declarada por un usuario.
type ExchangeRate struct {
	ID            string
	Rate          decimal.Decimal
	EffectiveDate time.Time
	CreatedBy     string // puede estar vacío (usuario eliminado)
	CreatedAt     time.Time
}
