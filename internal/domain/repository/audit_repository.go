package repository

import (
	"context"

	"github.com/jhoicas/Envois-api/internal/domain/entity"
)

// AuditFilter con AfterID ordena por id ascendente; sin él, del más reciente al más antiguo.
type AuditFilter struct {
	ShipmentID string
	Page
}

// AuditRepository bitácora append-only.
type AuditRepository interface {
	Create(ctx context.Context, e *entity.AuditEvent) error
	List(ctx context.Context, f AuditFilter) ([]*entity.AuditEvent, error)
}
