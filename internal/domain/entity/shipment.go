package entity

import "time"

// Shipment (envoi) agrupa los productos recibidos en un mismo lote.
type Shipment struct {
	ID        string
	Name      string // único
	StartDate time.Time
	EndDate   *time.Time
	Notes     string
	Archived  bool
	CreatedAt time.Time
}
