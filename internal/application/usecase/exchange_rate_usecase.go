package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/Envois-api/internal/application/audit"
	"github.com/jhoicas/Envois-api/internal/application/dto"
	"github.com/jhoicas/Envois-api/internal/application/ledger"
	"github.com/jhoicas/Envois-api/internal/domain"
	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
	"github.com/jhoicas/Envois-api/pkg/metrics"
)

const entityRate = "taux_change"

// ExchangeRateUseCase aplica reglas de negocio para tasas de cambio (CFA por EUR).
// Las tasas nuevas solo afectan a escrituras posteriores; nada se reconvierte.
type ExchangeRateUseCase struct {
	repo    repository.ExchangeRateRepository
	audit   audit.Recorder
	metrics *metrics.Metrics
	clock   ledger.Clock
}

// NewExchangeRateUseCase construye el caso de uso con el puerto de persistencia.
func NewExchangeRateUseCase(repo repository.ExchangeRateRepository, rec audit.Recorder, m *metrics.Metrics, clock ledger.Clock) *ExchangeRateUseCase {
	return &ExchangeRateUseCase{repo: repo, audit: rec, metrics: m, clock: clock}
}

// Create declara una tasa. Sin fecha efectiva se usa hoy; el creador es el usuario autenticado.
func (uc *ExchangeRateUseCase) Create(ctx context.Context, in dto.ExchangeRateRequest) (*dto.ExchangeRateResponse, error) {
	er := &entity.ExchangeRate{
		ID:            entity.NewID(),
		EffectiveDate: uc.clock.Today(),
		CreatedBy:     audit.ActorFrom(ctx).UserID,
		CreatedAt:     uc.clock.Now(),
	}
	if err := applyRateRequest(er, in); err != nil {
		return nil, err
	}
	err := uc.repo.Create(ctx, er)
	uc.metrics.MutationApplied("exchange_rate", "create", err)
	if err != nil {
		return nil, err
	}
	uc.record(ctx, entity.AuditCreate, er, "Tasa de cambio declarada")
	return toRateResponse(er), nil
}

// GetByID obtiene una tasa por ID.
func (uc *ExchangeRateUseCase) GetByID(ctx context.Context, id string) (*dto.ExchangeRateResponse, error) {
	er, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toRateResponse(er), nil
}

// Update corrige valor o fecha de una tasa.
func (uc *ExchangeRateUseCase) Update(ctx context.Context, id string, in dto.ExchangeRateRequest) (*dto.ExchangeRateResponse, error) {
	er, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyRateRequest(er, in); err != nil {
		return nil, err
	}
	err = uc.repo.Update(ctx, er)
	uc.metrics.MutationApplied("exchange_rate", "update", err)
	if err != nil {
		return nil, err
	}
	uc.record(ctx, entity.AuditUpdate, er, "Tasa de cambio modificada")
	return toRateResponse(er), nil
}

// Delete elimina una tasa; las transacciones conservan la tasa que registraron.
func (uc *ExchangeRateUseCase) Delete(ctx context.Context, id string) error {
	er, err := uc.get(ctx, id)
	if err != nil {
		return err
	}
	err = uc.repo.Delete(ctx, id)
	uc.metrics.MutationApplied("exchange_rate", "delete", err)
	if err != nil {
		return err
	}
	uc.record(ctx, entity.AuditDelete, er, "Tasa de cambio eliminada")
	return nil
}

// List todas las tasas, la vigente primero.
func (uc *ExchangeRateUseCase) List(ctx context.Context) ([]dto.ExchangeRateResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ExchangeRateResponse, 0, len(list))
	for _, er := range list {
		items = append(items, *toRateResponse(er))
	}
	return items, nil
}

// Current tasa vigente o null.
func (uc *ExchangeRateUseCase) Current(ctx context.Context) (*dto.CurrentRateResponse, error) {
	rate, err := ledger.CurrentRate(ctx, uc.repo)
	if err != nil {
		return nil, err
	}
	return &dto.CurrentRateResponse{Rate: rate}, nil
}

func (uc *ExchangeRateUseCase) get(ctx context.Context, id string) (*entity.ExchangeRate, error) {
	er, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if er == nil {
		return nil, fmt.Errorf("tasa %s: %w", id, domain.ErrNotFound)
	}
	return er, nil
}

func (uc *ExchangeRateUseCase) record(ctx context.Context, action entity.AuditAction, er *entity.ExchangeRate, msg string) {
	uc.audit.Record(ctx, audit.Entry{
		Action: action, Entity: entityRate,
		ObjectID: er.ID, ObjectRepr: er.Rate.StringFixed(2) + " CFA/EUR", Message: msg,
		Metadata: map[string]any{"effective_date": er.EffectiveDate.Format("2006-01-02")},
	})
}

func applyRateRequest(er *entity.ExchangeRate, in dto.ExchangeRateRequest) error {
	if !in.Rate.IsPositive() {
		return domain.Invalid("rate", "debe ser mayor que cero")
	}
	er.Rate = in.Rate
	if in.EffectiveDate != nil {
		er.EffectiveDate = in.EffectiveDate.Time
	}
	return nil
}

func toRateResponse(er *entity.ExchangeRate) *dto.ExchangeRateResponse {
	return &dto.ExchangeRateResponse{
		ID:            er.ID,
		Rate:          er.Rate,
		EffectiveDate: dto.NewDate(er.EffectiveDate),
		CreatedBy:     er.CreatedBy,
		CreatedAt:     er.CreatedAt,
	}
}
