// Package transform implements the second pipeline stage: it computes the
// KPI tables from the validated data, persists them to the key-value sink and
// the processed snapshot area, and archives the raw inputs.
package transform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ecommerce/etl/internal/application/dataset"
	"github.com/ecommerce/etl/internal/domain/analytics"
	"github.com/ecommerce/etl/internal/domain/pipeline"
	"github.com/ecommerce/etl/internal/infrastructure/kpisink"
	"github.com/ecommerce/etl/internal/infrastructure/storage"
	"go.uber.org/zap"
)

const csvContentType = "text/csv"

// Service runs the transformation stage against injected dependencies.
type Service struct {
	store  storage.ObjectStorage
	sink   kpisink.Writer
	logger *zap.Logger
	now    func() time.Time
}

// Option is a functional option for configuring the Service
type Option func(*Service)

// WithNow overrides the clock used for the run timestamp.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a transformation Service.
func NewService(store storage.ObjectStorage, sink kpisink.Writer, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		sink:   sink,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the whole stage. The raw listing and the run timestamp are
// captured once, up front: the archive plan must reflect what this run
// consumed, and the processed snapshot and archive segment share the
// timestamp.
func (s *Service) Run(ctx context.Context) error {
	timestamp := pipeline.RunTimestamp(s.now())

	rawKeys, err := s.listRawInputs(ctx)
	if err != nil {
		return err
	}

	s.logger.Info("Loading validated data")
	products, orders, items, err := s.loadValidated(ctx)
	if err != nil {
		return err
	}

	s.logger.Info("Computing KPIs",
		zap.Int("products", len(products)),
		zap.Int("orders", len(orders)),
		zap.Int("order_items", len(items)),
	)
	categoryKPIs, orderKPIs := analytics.ComputeKPIs(products, orders, items)

	s.logger.Info("Writing KPIs to key-value sink",
		zap.Int("category_rows", len(categoryKPIs)),
		zap.Int("order_rows", len(orderKPIs)),
	)
	if err := s.sink.WriteCategoryKPIs(ctx, categoryKPIs); err != nil {
		return err
	}
	if err := s.sink.WriteOrderKPIs(ctx, orderKPIs); err != nil {
		return err
	}

	s.logger.Info("Writing processed snapshot", zap.String("timestamp", timestamp))
	if err := s.writeSnapshot(ctx, timestamp, categoryKPIs, orderKPIs); err != nil {
		return err
	}

	plan, err := s.loadOrCreatePlan(ctx, timestamp, rawKeys)
	if err != nil {
		return err
	}
	s.logger.Info("Archiving raw inputs", zap.Int("files", len(plan)))
	if err := s.archive(ctx, plan); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, pipeline.ArchiveManifestKey); err != nil {
		return err
	}

	s.logger.Info("Transformation completed successfully")
	return nil
}

// loadOrCreatePlan returns the pending archive plan left behind by an
// interrupted run, or builds a fresh one from the raw listing and persists it
// before any copy happens.
func (s *Service) loadOrCreatePlan(ctx context.Context, timestamp string, rawKeys []string) ([]pipeline.ArchivePair, error) {
	data, err := s.store.Get(ctx, pipeline.ArchiveManifestKey)
	if err == nil {
		var plan []pipeline.ArchivePair
		if err := json.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("failed to decode archive manifest: %w", err)
		}
		s.logger.Info("Resuming pending archive plan", zap.Int("files", len(plan)))
		return plan, nil
	}
	if !errors.Is(err, storage.ErrObjectNotFound) {
		return nil, err
	}

	plan := pipeline.NewArchivePlan(timestamp, rawKeys)
	data, err = json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("failed to encode archive manifest: %w", err)
	}
	if err := s.store.Put(ctx, pipeline.ArchiveManifestKey, data, "application/json"); err != nil {
		return nil, err
	}
	return plan, nil
}

// listRawInputs returns the raw objects this run consumes: the products file
// plus every CSV object under the two raw prefixes.
func (s *Service) listRawInputs(ctx context.Context) ([]string, error) {
	var keys []string
	hasProducts, err := s.store.Exists(ctx, pipeline.ProductsKey)
	if err != nil {
		return nil, err
	}
	if hasProducts {
		keys = append(keys, pipeline.ProductsKey)
	}
	for _, prefix := range []string{pipeline.OrdersPrefix, pipeline.OrderItemsPrefix} {
		listed, err := s.store.List(ctx, prefix)
		if err != nil {
			return nil, err
		}
		for _, key := range listed {
			if pipeline.IsCSV(key) {
				keys = append(keys, key)
			}
		}
	}
	return keys, nil
}

func (s *Service) loadValidated(ctx context.Context) ([]analytics.Product, []analytics.Order, []analytics.OrderItem, error) {
	productsData, err := s.store.Get(ctx, pipeline.ValidatedProductsKey)
	if err != nil {
		return nil, nil, nil, err
	}
	products, err := dataset.ParseProducts(productsData)
	if err != nil {
		return nil, nil, nil, err
	}

	ordersData, err := s.store.Get(ctx, pipeline.ValidatedOrdersKey)
	if err != nil {
		return nil, nil, nil, err
	}
	orders, err := dataset.ParseOrders(ordersData)
	if err != nil {
		return nil, nil, nil, err
	}

	itemsData, err := s.store.Get(ctx, pipeline.ValidatedOrderItemsKey)
	if err != nil {
		return nil, nil, nil, err
	}
	items, err := dataset.ParseOrderItems(itemsData)
	if err != nil {
		return nil, nil, nil, err
	}

	return products, orders, items, nil
}

func (s *Service) writeSnapshot(ctx context.Context, timestamp string, categoryKPIs []analytics.CategoryKPI, orderKPIs []analytics.OrderKPI) error {
	categoryCSV, err := dataset.EncodeCategoryKPIs(categoryKPIs)
	if err != nil {
		return err
	}
	orderCSV, err := dataset.EncodeOrderKPIs(orderKPIs)
	if err != nil {
		return err
	}

	categoryKey := pipeline.ProcessedKey(timestamp, pipeline.CategoryKPIFile)
	if err := s.store.Put(ctx, categoryKey, categoryCSV, csvContentType); err != nil {
		return err
	}
	orderKey := pipeline.ProcessedKey(timestamp, pipeline.OrderKPIFile)
	return s.store.Put(ctx, orderKey, orderCSV, csvContentType)
}

// archive copies each raw input to its archive destination and deletes the
// original. A pair whose destination already exists was copied by an earlier,
// interrupted run; only the delete is repeated, so a rerun resumes cleanly.
func (s *Service) archive(ctx context.Context, plan []pipeline.ArchivePair) error {
	for _, pair := range plan {
		archived, err := s.store.Exists(ctx, pair.Destination)
		if err != nil {
			return err
		}
		if !archived {
			if err := s.store.Copy(ctx, pair.Source, pair.Destination); err != nil {
				return err
			}
		}
		if err := s.store.Delete(ctx, pair.Source); err != nil {
			return err
		}
		s.logger.Info("Archived raw input",
			zap.String("source", pair.Source),
			zap.String("destination", pair.Destination),
		)
	}
	return nil
}
