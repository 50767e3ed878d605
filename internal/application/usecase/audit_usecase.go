package usecase

import (
	"context"

	"github.com/jhoicas/Envois-api/internal/application/dto"
	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
)

// AuditUseCase lectura de la bitácora.
type AuditUseCase struct {
	repo repository.AuditRepository
}

// NewAuditUseCase construye el caso de uso.
func NewAuditUseCase(repo repository.AuditRepository) *AuditUseCase {
	return &AuditUseCase{repo: repo}
}

// List con after_id pagina por id ascendente; sin él devuelve los más recientes primero.
func (uc *AuditUseCase) List(ctx context.Context, shipmentID string, page repository.Page) (*dto.ListResponse[dto.AuditEventResponse], error) {
	page = page.Normalize()
	events, err := uc.repo.List(ctx, repository.AuditFilter{ShipmentID: shipmentID, Page: page})
	if err != nil {
		return nil, err
	}
	out := &dto.ListResponse[dto.AuditEventResponse]{Items: make([]dto.AuditEventResponse, 0, len(events))}
	for _, e := range events {
		out.Items = append(out.Items, toAuditResponse(e))
	}
	if page.AfterID != "" && len(events) == page.Limit {
		out.NextAfterID = events[len(events)-1].ID
	}
	return out, nil
}

func toAuditResponse(e *entity.AuditEvent) dto.AuditEventResponse {
	md := e.Metadata
	if md == nil {
		md = map[string]any{}
	}
	return dto.AuditEventResponse{
		ID:         e.ID,
		Action:     string(e.Action),
		UserID:     e.UserID,
		Username:   e.Username,
		ShipmentID: e.ShipmentID,
		Entity:     e.Entity,
		ObjectID:   e.ObjectID,
		ObjectRepr: e.ObjectRepr,
		Message:    e.Message,
		Path:       e.Path,
		Method:     e.Method,
		IPAddress:  e.IPAddress,
		Metadata:   md,
		CreatedAt:  e.CreatedAt,
	}
}
