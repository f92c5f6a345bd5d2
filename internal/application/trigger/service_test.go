package trigger

import (
	"context"
	"testing"

	"github.com/ecommerce/etl/internal/domain/pipeline"
	"github.com/ecommerce/etl/internal/infrastructure/storage"
	"github.com/ecommerce/etl/internal/infrastructure/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedAllInputs(t *testing.T, store *storage.MemoryObjectStorage) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, pipeline.ProductsKey, []byte("id,category\n"), "text/csv"))
	require.NoError(t, store.Put(ctx, pipeline.OrdersPrefix+"batch_1.csv", nil, "text/csv"))
	require.NoError(t, store.Put(ctx, pipeline.OrderItemsPrefix+"batch_1.csv", nil, "text/csv"))
}

func TestHandleUploadEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("triggers when all inputs are present", func(t *testing.T) {
		store := storage.NewMemoryObjectStorage()
		seedAllInputs(t, store)
		starter := workflow.NewStubStarter()

		svc := NewService(store, starter, zap.NewNop())
		status, err := svc.HandleUploadEvent(ctx)
		require.NoError(t, err)

		assert.Equal(t, StateTriggered, status.State)
		assert.Equal(t, "run-1", status.RunID)
		assert.Equal(t, 1, starter.Starts())

		exists, err := store.Exists(ctx, pipeline.SentinelKey)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("waits without touching the sentinel when inputs are incomplete", func(t *testing.T) {
		store := storage.NewMemoryObjectStorage()
		require.NoError(t, store.Put(ctx, pipeline.ProductsKey, nil, "text/csv"))
		starter := workflow.NewStubStarter()

		svc := NewService(store, starter, zap.NewNop())
		status, err := svc.HandleUploadEvent(ctx)
		require.NoError(t, err)

		assert.Equal(t, StateWaiting, status.State)
		require.NotNil(t, status.Readiness)
		assert.True(t, status.Readiness.HasProducts)
		assert.False(t, status.Readiness.HasOrders)
		assert.False(t, status.Readiness.HasOrderItems)
		assert.Equal(t, 0, starter.Starts())

		exists, err := store.Exists(ctx, pipeline.SentinelKey)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("a second event reports already triggered and starts nothing", func(t *testing.T) {
		store := storage.NewMemoryObjectStorage()
		seedAllInputs(t, store)
		starter := workflow.NewStubStarter()
		svc := NewService(store, starter, zap.NewNop())

		_, err := svc.HandleUploadEvent(ctx)
		require.NoError(t, err)

		status, err := svc.HandleUploadEvent(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateAlreadyTriggered, status.State)
		assert.Empty(t, status.RunID)
		assert.Equal(t, 1, starter.Starts())
	})

	t.Run("losing the sentinel race reports already triggered", func(t *testing.T) {
		store := storage.NewMemoryObjectStorage()
		seedAllInputs(t, store)
		starter := workflow.NewStubStarter()
		svc := NewService(store, starter, zap.NewNop())

		// Another process wrote the sentinel between our existence check and
		// the conditional put. Simulate by intercepting the store.
		racing := &racingStore{MemoryObjectStorage: store}
		svcRacing := NewService(racing, starter, zap.NewNop())

		status, err := svcRacing.HandleUploadEvent(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateAlreadyTriggered, status.State)
		assert.Equal(t, 0, starter.Starts())

		// The sentinel belongs to the winner; a follow-up event short-circuits.
		status, err = svc.HandleUploadEvent(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateAlreadyTriggered, status.State)
	})

	t.Run("workflow start failure surfaces as an error", func(t *testing.T) {
		store := storage.NewMemoryObjectStorage()
		seedAllInputs(t, store)
		starter := workflow.NewStubStarter()
		starter.Err = assert.AnError

		svc := NewService(store, starter, zap.NewNop())
		_, err := svc.HandleUploadEvent(ctx)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

// racingStore writes the sentinel behind the caller's back right before the
// conditional put, forcing the conflict path.
type racingStore struct {
	*storage.MemoryObjectStorage
}

func (r *racingStore) PutIfAbsent(ctx context.Context, key string, data []byte, contentType string) error {
	if key == pipeline.SentinelKey {
		if err := r.MemoryObjectStorage.Put(ctx, key, []byte("winner"), contentType); err != nil {
			return err
		}
	}
	return r.MemoryObjectStorage.PutIfAbsent(ctx, key, data, contentType)
}
