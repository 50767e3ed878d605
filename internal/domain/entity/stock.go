package entity

import "time"

// Stock es la foto derivada de un producto; nunca se modifica de forma incremental.
type Stock struct {
	ProductID string
	Initial   int // suma de compras
	Sold      int // suma de ventas
	Loaned    int // suma de deudas abiertas
	Remaining int // max(Initial - Sold - Loaned, 0)
	UpdatedAt time.Time
}

// SameQuantities compara las cantidades ignorando la fecha de actualización.
func (s *Stock) SameQuantities(o *Stock) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Initial == o.Initial && s.Sold == o.Sold && s.Loaned == o.Loaned && s.Remaining == o.Remaining
}
