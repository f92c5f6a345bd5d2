package readiness

import (
	"context"
	"testing"

	"github.com/ecommerce/etl/internal/domain/pipeline"
	"github.com/ecommerce/etl/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("reports everything present", func(t *testing.T) {
		store := storage.NewMemoryObjectStorage()
		require.NoError(t, store.Put(ctx, pipeline.ProductsKey, []byte("id,category\n"), "text/csv"))
		require.NoError(t, store.Put(ctx, pipeline.OrdersPrefix+"batch_1.csv", nil, "text/csv"))
		require.NoError(t, store.Put(ctx, pipeline.OrderItemsPrefix+"batch_1.csv", nil, "text/csv"))

		c := NewChecker(store)
		r, err := c.Check(ctx)
		require.NoError(t, err)
		assert.True(t, r.AllPresent())
	})

	t.Run("reports the per-input breakdown", func(t *testing.T) {
		store := storage.NewMemoryObjectStorage()
		require.NoError(t, store.Put(ctx, pipeline.OrdersPrefix+"batch_1.csv", nil, "text/csv"))

		c := NewChecker(store)
		r, err := c.Check(ctx)
		require.NoError(t, err)
		assert.False(t, r.HasProducts)
		assert.True(t, r.HasOrders)
		assert.False(t, r.HasOrderItems)
	})

	t.Run("a products object under a different key does not count", func(t *testing.T) {
		store := storage.NewMemoryObjectStorage()
		require.NoError(t, store.Put(ctx, "raw-data/products_v2.csv", nil, "text/csv"))

		c := NewChecker(store)
		r, err := c.Check(ctx)
		require.NoError(t, err)
		assert.False(t, r.HasProducts)
	})
}

func TestRequire(t *testing.T) {
	ctx := context.Background()

	t.Run("passes when all inputs exist", func(t *testing.T) {
		store := storage.NewMemoryObjectStorage()
		require.NoError(t, store.Put(ctx, pipeline.ProductsKey, nil, "text/csv"))
		require.NoError(t, store.Put(ctx, pipeline.OrdersPrefix+"a.csv", nil, "text/csv"))
		require.NoError(t, store.Put(ctx, pipeline.OrderItemsPrefix+"a.csv", nil, "text/csv"))

		assert.NoError(t, NewChecker(store).Require(ctx))
	})

	t.Run("fails with a MissingInputsError naming the absent inputs", func(t *testing.T) {
		store := storage.NewMemoryObjectStorage()
		require.NoError(t, store.Put(ctx, pipeline.ProductsKey, nil, "text/csv"))

		err := NewChecker(store).Require(ctx)
		require.Error(t, err)

		var missing *pipeline.MissingInputsError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{"orders/", "order_items/"}, missing.Missing)
	})
}
