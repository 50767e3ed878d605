package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebtRequest alta/edición de deuda. En edición solo cambian las fechas enviadas (null borra);
// product_id y quantity, si vienen, deben coincidir con los actuales.
type DebtRequest struct {
	ProductID          string           `json:"product_id"`
	Client             string           `json:"client"`
	Quantity           *int             `json:"quantity"`
	LoanDate           *Date            `json:"loan_date"`
	ExpectedReturnDate OptionalDate     `json:"expected_return_date"`
	ActualReturnDate   OptionalDate     `json:"actual_return_date"`
	UnitPriceCFA       *decimal.Decimal `json:"unit_price_cfa"`
	Notes              *string          `json:"notes"`
}

// DebtResponse salida de una deuda.
type DebtResponse struct {
	ID                 string              `json:"id"`
	ProductID          string              `json:"product_id"`
	ProductName        string              `json:"product_name"`
	Client             string              `json:"client"`
	Quantity           int                 `json:"quantity"`
	LoanDate           Date                `json:"loan_date"`
	ExpectedReturnDate *Date               `json:"expected_return_date"`
	ActualReturnDate   *Date               `json:"actual_return_date"`
	Status             string              `json:"status"`
	LoanTransactionID  string              `json:"loan_transaction_id,omitempty"`
	UnitPriceCFA       decimal.NullDecimal `json:"unit_price_cfa"`
	TotalCFA           decimal.NullDecimal `json:"total_cfa"`
	Notes              string              `json:"notes"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}
