package audit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Envois-api/internal/application/audit"
	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
)

type fakeAuditRepo struct {
	events []*entity.AuditEvent
	err    error
	panic  bool
}

func (f *fakeAuditRepo) Create(_ context.Context, e *entity.AuditEvent) error {
	if f.panic {
		panic("boom")
	}
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

func (f *fakeAuditRepo) List(context.Context, repository.AuditFilter) ([]*entity.AuditEvent, error) {
	return f.events, nil
}

func TestSink_TomaActorYPeticionDelContexto(t *testing.T) {
	repo := &fakeAuditRepo{}
	sink := audit.NewSink(repo, zerolog.Nop(), nil)

	ctx := audit.WithActor(context.Background(), audit.Actor{UserID: "u1", Username: "ana"})
	ctx = audit.WithRequest(ctx, audit.Request{Path: "/api/debts", Method: "POST", IP: "10.0.0.1"})
	sink.Record(ctx, audit.Entry{Action: entity.AuditCreate, Entity: "dette", ObjectID: "d1"})

	require.Len(t, repo.events, 1)
	ev := repo.events[0]
	assert.Equal(t, "ana", ev.Username)
	assert.Equal(t, "10.0.0.1", ev.IPAddress)
	assert.Equal(t, "POST", ev.Method)
	assert.NotNil(t, ev.Metadata)
	assert.NotEmpty(t, ev.ID)
}

func TestSink_ErrorNoLlegaAlLlamador(t *testing.T) {
	sink := audit.NewSink(&fakeAuditRepo{err: errors.New("db caída")}, zerolog.Nop(), nil)
	assert.NotPanics(t, func() {
		sink.Record(context.Background(), audit.Entry{Action: entity.AuditDelete})
	})
}

func TestSink_PanicNoLlegaAlLlamador(t *testing.T) {
	sink := audit.NewSink(&fakeAuditRepo{panic: true}, zerolog.Nop(), nil)
	assert.NotPanics(t, func() {
		sink.Record(context.Background(), audit.Entry{Action: entity.AuditDelete})
	})
}

func TestSink_ContextoCanceladoIgualGuarda(t *testing.T) {
	repo := &fakeAuditRepo{}
	sink := audit.NewSink(repo, zerolog.Nop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink.Record(ctx, audit.Entry{Action: entity.AuditLogin, Entity: "auth"})
	assert.Len(t, repo.events, 1)
}
