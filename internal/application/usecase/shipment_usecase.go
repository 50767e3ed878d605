package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Envois-api/internal/application/audit"
	"github.com/jhoicas/Envois-api/internal/application/dto"
	"github.com/jhoicas/Envois-api/internal/application/ledger"
	"github.com/jhoicas/Envois-api/internal/application/ports"
	"github.com/jhoicas/Envois-api/internal/domain"
	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
	"github.com/jhoicas/Envois-api/pkg/metrics"
)

const entityShipment = "envoi"

// ShipmentUseCase casos de uso CRUD para envíos.
type ShipmentUseCase struct {
	tx      ledger.TxRunner
	repos   repository.Repos
	files   ports.FileStore
	audit   audit.Recorder
	metrics *metrics.Metrics
	log     zerolog.Logger
	clock   ledger.Clock
}

// NewShipmentUseCase construye el caso de uso.
func NewShipmentUseCase(
	tx ledger.TxRunner,
	repos repository.Repos,
	files ports.FileStore,
	rec audit.Recorder,
	m *metrics.Metrics,
	log zerolog.Logger,
	clock ledger.Clock,
) *ShipmentUseCase {
	return &ShipmentUseCase{tx: tx, repos: repos, files: files, audit: rec, metrics: m, log: log, clock: clock}
}

// Create crea un envío. El nombre es único (domain.ErrDuplicate).
func (uc *ShipmentUseCase) Create(ctx context.Context, in dto.ShipmentRequest) (*dto.ShipmentResponse, error) {
	sh := &entity.Shipment{ID: entity.NewID(), StartDate: uc.clock.Today(), CreatedAt: uc.clock.Now()}
	if in.Name == nil {
		return nil, domain.Invalid("name", "requerido")
	}
	if err := applyShipmentRequest(sh, in); err != nil {
		return nil, err
	}
	err := uc.repos.Shipments.Create(ctx, sh)
	uc.metrics.MutationApplied("shipment", "create", err)
	if err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, audit.Entry{
		Action: entity.AuditCreate, Entity: entityShipment,
		ObjectID: sh.ID, ObjectRepr: sh.Name, Message: "Envío creado", ShipmentID: sh.ID,
	})
	return toShipmentResponse(sh), nil
}

// GetByID obtiene un envío; ErrNotFound si no existe.
func (uc *ShipmentUseCase) GetByID(ctx context.Context, id string) (*dto.ShipmentResponse, error) {
	sh, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toShipmentResponse(sh), nil
}

// Update modifica los campos enviados.
func (uc *ShipmentUseCase) Update(ctx context.Context, id string, in dto.ShipmentRequest) (*dto.ShipmentResponse, error) {
	sh, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyShipmentRequest(sh, in); err != nil {
		return nil, err
	}
	err = uc.repos.Shipments.Update(ctx, sh)
	uc.metrics.MutationApplied("shipment", "update", err)
	if err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, audit.Entry{
		Action: entity.AuditUpdate, Entity: entityShipment,
		ObjectID: sh.ID, ObjectRepr: sh.Name, Message: "Envío modificado", ShipmentID: sh.ID,
	})
	return toShipmentResponse(sh), nil
}

// List devuelve todos los envíos, los más recientes primero.
func (uc *ShipmentUseCase) List(ctx context.Context) ([]dto.ShipmentResponse, error) {
	list, err := uc.repos.Shipments.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ShipmentResponse, 0, len(list))
	for _, sh := range list {
		items = append(items, *toShipmentResponse(sh))
	}
	return items, nil
}

// Delete elimina el envío con sus productos. Deudas y transacciones se borran antes de forma
// explícita, sin recálculos: los stocks desaparecen con sus productos.
func (uc *ShipmentUseCase) Delete(ctx context.Context, id string) (*dto.CascadeCounts, error) {
	sh, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	products, err := uc.repos.Products.ListByShipment(ctx, id)
	if err != nil {
		return nil, err
	}
	counts := &dto.CascadeCounts{}
	err = uc.tx.Run(ledger.WithRecomputeSuppressed(ctx), func(ctx context.Context, r repository.Repos) error {
		ids, err := r.Products.IDsByShipment(ctx, id)
		if err != nil {
			return err
		}
		if err := deleteProducts(ctx, r, ids, counts); err != nil {
			return err
		}
		return r.Shipments.Delete(ctx, id)
	})
	uc.metrics.MutationApplied("shipment", "delete", err)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		removeImage(ctx, uc.files, uc.log, p.Image)
	}
	uc.audit.Record(ctx, audit.Entry{
		Action: entity.AuditDelete, Entity: entityShipment,
		ObjectID: sh.ID, ObjectRepr: sh.Name, Message: "Envío eliminado",
		Metadata: counts.Metadata(),
	})
	return counts, nil
}

func (uc *ShipmentUseCase) get(ctx context.Context, id string) (*entity.Shipment, error) {
	sh, err := uc.repos.Shipments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, fmt.Errorf("envío %s: %w", id, domain.ErrNotFound)
	}
	return sh, nil
}

func applyShipmentRequest(sh *entity.Shipment, in dto.ShipmentRequest) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return domain.Invalid("name", "requerido")
		}
		sh.Name = name
	}
	if in.StartDate != nil {
		sh.StartDate = in.StartDate.Time
	}
	if in.EndDate != nil {
		sh.EndDate = in.EndDate.TimePtr()
	}
	if in.Notes != nil {
		sh.Notes = *in.Notes
	}
	if in.Archived != nil {
		sh.Archived = *in.Archived
	}
	if sh.EndDate != nil && sh.EndDate.Before(sh.StartDate) {
		return domain.Invalid("end_date", "la fecha de fin no puede ser anterior a la de inicio")
	}
	return nil
}

func toShipmentResponse(sh *entity.Shipment) *dto.ShipmentResponse {
	if sh == nil {
		return nil
	}
	return &dto.ShipmentResponse{
		ID:        sh.ID,
		Name:      sh.Name,
		StartDate: dto.NewDate(sh.StartDate),
		EndDate:   dto.DatePtr(sh.EndDate),
		Notes:     sh.Notes,
		Archived:  sh.Archived,
		CreatedAt: sh.CreatedAt,
	}
}

// removeImage borra un archivo tras confirmar la escritura; los fallos solo se registran.
func removeImage(ctx context.Context, files ports.FileStore, log zerolog.Logger, locator string) {
	if locator == "" || files == nil {
		return
	}
	if err := files.Delete(context.WithoutCancel(ctx), locator); err != nil {
		log.Warn().Err(err).Str("locator", locator).Msg("no se pudo borrar la imagen")
	}
}
