package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
	"github.com/jhoicas/Envois-api/pkg/metrics"
)

// Entry evento a registrar; actor y petición se leen del contexto.
type Entry struct {
	Action     entity.AuditAction
	Entity     string
	ObjectID   string
	ObjectRepr string
	Message    string
	ShipmentID string
	Metadata   map[string]any
}

// Recorder sumidero de auditoría. Record nunca falla hacia el llamador.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// Nop descarta todos los eventos.
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}

const writeTimeout = 5 * time.Second

// Sink persiste eventos en el repositorio y traga cualquier error.
type Sink struct {
	repo    repository.AuditRepository
	log     zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewSink construye el sumidero.
func NewSink(repo repository.AuditRepository, log zerolog.Logger, m *metrics.Metrics) *Sink {
	return &Sink{repo: repo, log: log, metrics: m, now: time.Now}
}

// Record guarda el evento. Fallos y panics se registran en el log y se descartan.
func (s *Sink) Record(ctx context.Context, e Entry) {
	defer func() {
		if r := recover(); r != nil {
			s.drop(e, fmt.Errorf("panic: %v", r))
		}
	}()

	actor := ActorFrom(ctx)
	req := RequestFrom(ctx)
	ev := &entity.AuditEvent{
		ID:         entity.NewID(),
		Action:     e.Action,
		UserID:     actor.UserID,
		Username:   actor.Username,
		ShipmentID: e.ShipmentID,
		Entity:     e.Entity,
		ObjectID:   e.ObjectID,
		ObjectRepr: truncate(e.ObjectRepr, 255),
		Message:    e.Message,
		Path:       truncate(req.Path, 255),
		Method:     truncate(req.Method, 16),
		IPAddress:  req.IP,
		Metadata:   e.Metadata,
		CreatedAt:  s.now(),
	}
	if ev.Metadata == nil {
		ev.Metadata = map[string]any{}
	}

	// La operación de negocio ya se confirmó: el evento no depende de la cancelación del request.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := s.repo.Create(wctx, ev); err != nil {
		s.drop(e, err)
	}
}

func (s *Sink) drop(e Entry, err error) {
	s.metrics.AuditDropped()
	s.log.Warn().Err(err).
		Str("action", string(e.Action)).
		Str("entity", e.Entity).
		Str("object_id", e.ObjectID).
		Msg("evento de auditoría descartado")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
