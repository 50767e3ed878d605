package dto

import "time"

// ShipmentRequest alta/edición de envío; en edición los campos nil no cambian.
type ShipmentRequest struct {
	Name      *string `json:"name"`
	StartDate *Date   `json:"start_date"`
	EndDate   *Date   `json:"end_date"`
	Notes     *string `json:"notes"`
	Archived  *bool   `json:"archived"`
}

// ShipmentResponse salida de un envío.
type ShipmentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate Date      `json:"start_date"`
	EndDate   *Date     `json:"end_date"`
	Notes     string    `json:"notes"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
}

// CascadeCounts filas eliminadas en cascada (borrado de envío, producto o purga).
type CascadeCounts struct {
	DeletedProducts     int `json:"deleted_products"`
	DeletedTransactions int `json:"deleted_transactions"`
	DeletedDebts        int `json:"deleted_debts"`
}

// Metadata convierte los contadores a metadatos de auditoría.
func (c CascadeCounts) Metadata() map[string]any {
	return map[string]any{
		"deleted_products":     c.DeletedProducts,
		"deleted_transactions": c.DeletedTransactions,
		"deleted_debts":        c.DeletedDebts,
	}
}
