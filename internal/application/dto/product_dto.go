package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductRequest alta/edición de producto; en edición los campos nil no cambian.
type ProductRequest struct {
	Name             *string          `json:"name"`
	Characteristics  *string          `json:"characteristics"`
	Category         *string          `json:"category"`
	PurchasePriceEUR *decimal.Decimal `json:"purchase_price_eur"`
	SalePriceCFA     *decimal.Decimal `json:"sale_price_cfa"`
	ImageURL         *string          `json:"image_url"`
}

// ProductResponse salida de un producto con su stock derivado.
type ProductResponse struct {
	ID               string              `json:"id"`
	ShipmentID       string              `json:"shipment_id"`
	Name             string              `json:"name"`
	Characteristics  string              `json:"characteristics"`
	Category         string              `json:"category"`
	PurchasePriceEUR decimal.NullDecimal `json:"purchase_price_eur"`
	SalePriceCFA     decimal.NullDecimal `json:"sale_price_cfa"`
	Image            string              `json:"image"`
	ImageURL         string              `json:"image_url"`
	Stock            *StockResponse      `json:"stock,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// StockResponse foto derivada de stock.
type StockResponse struct {
	ProductID         string    `json:"product_id"`
	ProductName       string    `json:"product_name,omitempty"`
	QuantityInitial   int       `json:"quantity_initial"`
	QuantitySold      int       `json:"quantity_sold"`
	QuantityLoaned    int       `json:"quantity_loaned"`
	QuantityRemaining int       `json:"quantity_remaining"`
	UpdatedAt         time.Time `json:"updated_at"`
}
