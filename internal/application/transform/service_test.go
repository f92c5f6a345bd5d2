package transform

import (
	"context"
	"testing"
	"time"

	"github.com/ecommerce/etl/internal/application/dataset"
	"github.com/ecommerce/etl/internal/domain/pipeline"
	"github.com/ecommerce/etl/internal/infrastructure/kpisink"
	"github.com/ecommerce/etl/internal/infrastructure/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	validatedProducts = "id,category\np1,Garden\np2,Toys\n"
	validatedOrders   = "order_id,user_id,created_at,returned_at,order_date,return_date\n" +
		"o1,u1,2024-01-05T10:00:00Z,2024-01-08T09:00:00Z,2024-01-05,2024-01-08\n" +
		"o2,u1,2024-01-05T11:00:00Z,,2024-01-05,\n"
	validatedItems = "id,order_id,product_id,sale_price\n" +
		"i1,o1,p1,25.00\n" +
		"i2,o2,p1,15.00\n"
)

var testClock = func() time.Time {
	return time.Date(2024, time.January, 9, 13, 45, 10, 0, time.UTC)
}

const testTimestamp = "2024-01-09-T-13:45:10"

func seedValidated(t *testing.T, store *storage.MemoryObjectStorage) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, pipeline.ValidatedProductsKey, []byte(validatedProducts), "text/csv"))
	require.NoError(t, store.Put(ctx, pipeline.ValidatedOrdersKey, []byte(validatedOrders), "text/csv"))
	require.NoError(t, store.Put(ctx, pipeline.ValidatedOrderItemsKey, []byte(validatedItems), "text/csv"))
}

func seedRaw(t *testing.T, store *storage.MemoryObjectStorage) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, pipeline.ProductsKey, []byte(validatedProducts), "text/csv"))
	require.NoError(t, store.Put(ctx, pipeline.OrdersPrefix+"batch_1.csv", []byte("raw orders"), "text/csv"))
	require.NoError(t, store.Put(ctx, pipeline.OrderItemsPrefix+"batch_1.csv", []byte("raw items"), "text/csv"))
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("writes KPIs to the sink", func(t *testing.T) {
		store := storage.NewMemoryObjectStorage()
		seedValidated(t, store)
		seedRaw(t, store)
		sink := kpisink.NewMemoryWriter()

		svc := NewService(store, sink, zap.NewNop(), WithNow(testClock))
		require.NoError(t, svc.Run(ctx))

		cat, ok := sink.Category["Garden|2024-01-05"]
		require.True(t, ok)
		assert.True(t, cat.DailyRevenue.Equal(decimal.RequireFromString("40.00")), "got %s", cat.DailyRevenue)
		assert.True(t, cat.AvgOrderValue.Equal(decimal.RequireFromString("20.00")), "got %s", cat.AvgOrderValue)
		assert.True(t, cat.AvgReturnRate.Equal(decimal.RequireFromString("50.00")), "got %s", cat.AvgReturnRate)

		ord, ok := sink.Order["2024-01-05"]
		require.True(t, ok)
		assert.Equal(t, 2, ord.TotalOrders)
		assert.Equal(t, 2, ord.TotalItemsSold)
		assert.Equal(t, 1, ord.UniqueCustomers)
		assert.True(t, ord.TotalRevenue.Equal(decimal.RequireFromString("40.00")), "got %s", ord.TotalRevenue)
	})

	t.Run("writes the processed snapshot under the run timestamp", func(t *testing.T) {
		store := storage.NewMemoryObjectStorage()
		seedValidated(t, store)
		seedRaw(t, store)

		svc := NewService(store, kpisink.NewMemoryWriter(), zap.NewNop(), WithNow(testClock))
		require.NoError(t, svc.Run(ctx))

		catData, err := store.Get(ctx, pipeline.ProcessedKey(testTimestamp, pipeline.CategoryKPIFile))
		require.NoError(t, err)
		catKPIs, err := dataset.ParseCategoryKPIs(catData)
		require.NoError(t, err)
		require.Len(t, catKPIs, 1)
		assert.Equal(t, "Garden", catKPIs[0].Category)

		orderData, err := store.Get(ctx, pipeline.ProcessedKey(testTimestamp, pipeline.OrderKPIFile))
		require.NoError(t, err)
		orderKPIs, err := dataset.ParseOrderKPIs(orderData)
		require.NoError(t, err)
		require.Len(t, orderKPIs, 1)
		assert.Equal(t, 2, orderKPIs[0].TotalOrders)
	})

	t.Run("archives raw inputs and deletes the originals", func(t *testing.T) {
		store := storage.NewMemoryObjectStorage()
		seedValidated(t, store)
		seedRaw(t, store)

		svc := NewService(store, kpisink.NewMemoryWriter(), zap.NewNop(), WithNow(testClock))
		require.NoError(t, svc.Run(ctx))

		archived, err := store.Get(ctx, "archive/"+testTimestamp+"/orders/batch_1.csv")
		require.NoError(t, err)
		assert.Equal(t, []byte("raw orders"), archived)

		_, err = store.Get(ctx, pipeline.OrdersPrefix+"batch_1.csv")
		assert.ErrorIs(t, err, storage.ErrObjectNotFound)
		_, err = store.Get(ctx, pipeline.ProductsKey)
		assert.ErrorIs(t, err, storage.ErrObjectNotFound)

		exists, err := store.Exists(ctx, "archive/"+testTimestamp+"/products.csv")
		require.NoError(t, err)
		assert.True(t, exists)

		// The pending-archive manifest is cleared on completion.
		exists, err = store.Exists(ctx, pipeline.ArchiveManifestKey)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("archives only CSV objects", func(t *testing.T) {
		store := storage.NewMemoryObjectStorage()
		seedValidated(t, store)
		seedRaw(t, store)
		require.NoError(t, store.Put(ctx, pipeline.OrdersPrefix+"notes.txt", []byte("keep"), "text/plain"))

		svc := NewService(store, kpisink.NewMemoryWriter(), zap.NewNop(), WithNow(testClock))
		require.NoError(t, svc.Run(ctx))

		exists, err := store.Exists(ctx, pipeline.OrdersPrefix+"notes.txt")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("resumes a pending archive manifest instead of recomputing", func(t *testing.T) {
		store := storage.NewMemoryObjectStorage()
		seedValidated(t, store)
		seedRaw(t, store)

		// A previous interrupted run left its plan behind, with one pair
		// already copied but not yet deleted.
		manifest := `[{"Source":"raw-data/orders/batch_1.csv",` +
			`"Destination":"archive/2024-01-08-T-09:00:00/orders/batch_1.csv"}]`
		require.NoError(t, store.Put(ctx, pipeline.ArchiveManifestKey, []byte(manifest), "application/json"))
		require.NoError(t, store.Put(ctx, "archive/2024-01-08-T-09:00:00/orders/batch_1.csv", []byte("raw orders"), "text/csv"))

		svc := NewService(store, kpisink.NewMemoryWriter(), zap.NewNop(), WithNow(testClock))
		require.NoError(t, svc.Run(ctx))

		// The pending plan was executed: source deleted, no duplicate copy
		// under this run's timestamp.
		_, err := store.Get(ctx, pipeline.OrdersPrefix+"batch_1.csv")
		assert.ErrorIs(t, err, storage.ErrObjectNotFound)
		exists, err := store.Exists(ctx, "archive/"+testTimestamp+"/orders/batch_1.csv")
		require.NoError(t, err)
		assert.False(t, exists)

		// This run's other raw inputs are untouched by the resumed plan.
		exists, err = store.Exists(ctx, pipeline.ProductsKey)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = store.Exists(ctx, pipeline.ArchiveManifestKey)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("sink rows written before a failure stay written", func(t *testing.T) {
		store := storage.NewMemoryObjectStorage()
		seedValidated(t, store)
		seedRaw(t, store)
		sink := kpisink.NewMemoryWriter()
		sink.FailOrder = assert.AnError

		svc := NewService(store, sink, zap.NewNop(), WithNow(testClock))
		err := svc.Run(ctx)
		require.Error(t, err)

		assert.Len(t, sink.Category, 1)
		// Nothing later ran: no snapshot, no archival.
		exists, err := store.Exists(ctx, pipeline.ProcessedKey(testTimestamp, pipeline.CategoryKPIFile))
		require.NoError(t, err)
		assert.False(t, exists)
		exists, err = store.Exists(ctx, pipeline.ProductsKey)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("fails when validated inputs are missing", func(t *testing.T) {
		store := storage.NewMemoryObjectStorage()
		seedRaw(t, store)

		svc := NewService(store, kpisink.NewMemoryWriter(), zap.NewNop(), WithNow(testClock))
		err := svc.Run(ctx)
		assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	})
}
