package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRequest alta/edición de transacción (solo compra o venta).
// En edición los campos nil conservan el valor actual.
type TransactionRequest struct {
	ProductID    string           `json:"product_id"`
	Type         string           `json:"type"`
	Quantity     *int             `json:"quantity"`
	UnitPriceEUR *decimal.Decimal `json:"unit_price_eur"`
	UnitPriceCFA *decimal.Decimal `json:"unit_price_cfa"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate"`
	OccurredAt   *time.Time       `json:"occurred_at"`
	Counterparty *string          `json:"counterparty"`
	Notes        *string          `json:"notes"`
}

// TransactionResponse salida de una transacción con totales en ambas monedas.
type TransactionResponse struct {
	ID           string              `json:"id"`
	ProductID    string              `json:"product_id"`
	ProductName  string              `json:"product_name"`
	Type         string              `json:"type"`
	Quantity     int                 `json:"quantity"`
	UnitPriceEUR decimal.NullDecimal `json:"unit_price_eur"`
	UnitPriceCFA decimal.NullDecimal `json:"unit_price_cfa"`
	ExchangeRate decimal.NullDecimal `json:"exchange_rate"`
	TotalEUR     decimal.NullDecimal `json:"total_eur"`
	TotalCFA     decimal.NullDecimal `json:"total_cfa"`
	OccurredAt   time.Time           `json:"occurred_at"`
	Counterparty string              `json:"counterparty"`
	Notes        string              `json:"notes"`
	CreatedAt    time.Time           `json:"created_at"`
}
