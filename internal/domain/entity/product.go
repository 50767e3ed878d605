package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un artículo vendible dentro de un envío.
// PurchasePriceEUR se expresa en la moneda de origen; SalePriceCFA en la moneda local.
type Product struct {
	ID               string
	ShipmentID       string
	Name             string
	Characteristics  string
	Category         string
	PurchasePriceEUR decimal.NullDecimal
	SalePriceCFA     decimal.NullDecimal
	Image            string // localizador en el almacén de archivos
	ImageURL         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasSalePrice indica si el precio de venta por defecto es utilizable.
func (p *Product) HasSalePrice() bool {
	return p.SalePriceCFA.Valid && p.SalePriceCFA.Decimal.IsPositive()
}
