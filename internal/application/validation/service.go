// Package validation implements the first pipeline stage: it checks that all
// raw inputs are present, cleans them and writes the validated CSVs.
package validation

import (
	"context"
	"fmt"

	"github.com/ecommerce/etl/internal/application/dataset"
	"github.com/ecommerce/etl/internal/application/readiness"
	"github.com/ecommerce/etl/internal/domain/analytics"
	"github.com/ecommerce/etl/internal/domain/pipeline"
	"github.com/ecommerce/etl/internal/infrastructure/storage"
	"go.uber.org/zap"
)

const csvContentType = "text/csv"

// Service runs the validation stage against an injected blob store.
type Service struct {
	store   storage.ObjectStorage
	checker *readiness.Checker
	logger  *zap.Logger
}

// NewService creates a validation Service.
func NewService(store storage.ObjectStorage, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		checker: readiness.NewChecker(store),
		logger:  logger,
	}
}

// Run executes the whole stage: readiness check, load, clean, persist. A
// missing required input aborts before anything is written.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("Checking for required files")
	if err := s.checker.Require(ctx); err != nil {
		return err
	}
	s.logger.Info("All input files exist")

	products, orders, items, err := s.LoadRaw(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("Validating data",
		zap.Int("products", len(products)),
		zap.Int("orders", len(orders)),
		zap.Int("order_items", len(items)),
	)

	products, orders, items, err = analytics.Clean(products, orders, items)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	s.logger.Info("Validation complete",
		zap.Int("orders", len(orders)),
		zap.Int("order_items", len(items)),
	)

	if err := s.saveValidated(ctx, products, orders, items); err != nil {
		return err
	}
	s.logger.Info("Validated data saved")
	return nil
}

// LoadRaw reads the products file and concatenates every CSV object found
// under the orders and order-items prefixes, in listing order.
func (s *Service) LoadRaw(ctx context.Context) ([]analytics.Product, []analytics.Order, []analytics.OrderItem, error) {
	productsData, err := s.store.Get(ctx, pipeline.ProductsKey)
	if err != nil {
		return nil, nil, nil, err
	}
	products, err := dataset.ParseProducts(productsData)
	if err != nil {
		return nil, nil, nil, err
	}

	var orders []analytics.Order
	if err := s.eachPrefixCSV(ctx, pipeline.OrdersPrefix, func(data []byte) error {
		batch, err := dataset.ParseOrders(data)
		if err != nil {
			return err
		}
		orders = append(orders, batch...)
		return nil
	}); err != nil {
		return nil, nil, nil, err
	}

	var items []analytics.OrderItem
	if err := s.eachPrefixCSV(ctx, pipeline.OrderItemsPrefix, func(data []byte) error {
		batch, err := dataset.ParseOrderItems(data)
		if err != nil {
			return err
		}
		items = append(items, batch...)
		return nil
	}); err != nil {
		return nil, nil, nil, err
	}

	return products, orders, items, nil
}

func (s *Service) eachPrefixCSV(ctx context.Context, prefix string, fn func(data []byte) error) error {
	keys, err := s.store.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if !pipeline.IsCSV(key) {
			continue
		}
		data, err := s.store.Get(ctx, key)
		if err != nil {
			return err
		}
		if err := fn(data); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func (s *Service) saveValidated(ctx context.Context, products []analytics.Product, orders []analytics.Order, items []analytics.OrderItem) error {
	productsCSV, err := dataset.EncodeProducts(products)
	if err != nil {
		return err
	}
	ordersCSV, err := dataset.EncodeOrders(orders)
	if err != nil {
		return err
	}
	itemsCSV, err := dataset.EncodeOrderItems(items)
	if err != nil {
		return err
	}

	// Written only after every encode succeeded, so a failure cannot leave a
	// half-written validated set behind.
	if err := s.store.Put(ctx, pipeline.ValidatedProductsKey, productsCSV, csvContentType); err != nil {
		return err
	}
	if err := s.store.Put(ctx, pipeline.ValidatedOrdersKey, ordersCSV, csvContentType); err != nil {
		return err
	}
	return s.store.Put(ctx, pipeline.ValidatedOrderItemsKey, itemsCSV, csvContentType)
}
