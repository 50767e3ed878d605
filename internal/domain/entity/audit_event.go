package entity

import "time"

// AuditAction acción registrada en la bitácora.
type AuditAction string

const (
	AuditLogin  AuditAction = "login"
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
	AuditImport AuditAction = "import"
	AuditPurge  AuditAction = "purge"
)

// AuditEvent registro inmutable de una acción.
type AuditEvent struct {
	ID         string
	Action     AuditAction
	UserID     string
	Username   string
	ShipmentID string
	Entity     string
	ObjectID   string
	ObjectRepr string
	Message    string
	Path       string
	Method     string
	IPAddress  string
	Metadata   map[string]any
	CreatedAt  time.Time
}
