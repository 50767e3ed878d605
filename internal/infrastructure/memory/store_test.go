package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Envois-api/internal/domain/entity"
	"github.com/jhoicas/Envois-api/internal/domain/repository"
	"github.com/jhoicas/Envois-api/internal/infrastructure/memory"
)

// Un rollback deshace las tablas del libro pero conserva la auditoría escrita mientras tanto.
func TestTxRunner_RollbackConservaAuditoria(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	boom := errors.New("fallo")

	err := memory.NewTxRunner(store).Run(ctx, func(ctx context.Context, r repository.Repos) error {
		require.NoError(t, r.Shipments.Create(ctx, &entity.Shipment{ID: entity.NewID(), Name: "Envoi mars", StartDate: time.Now()}))
		require.NoError(t, store.Audit().Create(ctx, &entity.AuditEvent{
			ID: entity.NewID(), Action: entity.AuditLogin, Entity: "auth", Username: "awa",
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	list, err := store.Repos().Shipments.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	events, err := store.Audit().List(ctx, repository.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "awa", events[0].Username)
}

func TestTxRunner_PanicDeshaceYDevuelveError(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	err := memory.NewTxRunner(store).Run(ctx, func(ctx context.Context, r repository.Repos) error {
		require.NoError(t, r.Shipments.Create(ctx, &entity.Shipment{ID: entity.NewID(), Name: "Avril", StartDate: time.Now()}))
		panic("inesperado")
	})
	require.Error(t, err)

	list, err := store.Repos().Shipments.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
