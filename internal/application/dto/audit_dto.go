package dto

import "time"

// AuditEventResponse salida de un evento de auditoría.
type AuditEventResponse struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	UserID     string         `json:"user_id,omitempty"`
	Username   string         `json:"username"`
	ShipmentID string         `json:"shipment_id,omitempty"`
	Entity     string         `json:"entity"`
	ObjectID   string         `json:"object_id"`
	ObjectRepr string         `json:"object_repr"`
	Message    string         `json:"message"`
	Path       string         `json:"path"`
	Method     string         `json:"method"`
	IPAddress  string         `json:"ip_address"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
}
