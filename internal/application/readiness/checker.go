// Package readiness implements the required-inputs check shared by the
// trigger and the validation stage. Both must agree on what "present" means:
// the products file must exist exactly, and each raw prefix counts only if
// listing it yields at least one object.
package readiness

import (
	"context"
	"fmt"

	"github.com/ecommerce/etl/internal/domain/pipeline"
	"github.com/ecommerce/etl/internal/infrastructure/storage"
)

// Checker evaluates the readiness conditions against a blob store.
type Checker struct {
	store storage.ObjectStorage
}

// NewChecker creates a Checker.
func NewChecker(store storage.ObjectStorage) *Checker {
	return &Checker{store: store}
}

// Check reports the per-input readiness breakdown.
func (c *Checker) Check(ctx context.Context) (pipeline.Readiness, error) {
	var r pipeline.Readiness

	hasProducts, err := c.store.Exists(ctx, pipeline.ProductsKey)
	if err != nil {
		return r, fmt.Errorf("failed to check products file: %w", err)
	}
	r.HasProducts = hasProducts

	r.HasOrders, err = c.prefixHasObjects(ctx, pipeline.OrdersPrefix)
	if err != nil {
		return r, err
	}
	r.HasOrderItems, err = c.prefixHasObjects(ctx, pipeline.OrderItemsPrefix)
	if err != nil {
		return r, err
	}
	return r, nil
}

// Require returns a MissingInputsError when any required input is absent.
func (c *Checker) Require(ctx context.Context) error {
	r, err := c.Check(ctx)
	if err != nil {
		return err
	}
	if !r.AllPresent() {
		return &pipeline.MissingInputsError{Missing: r.Missing()}
	}
	return nil
}

func (c *Checker) prefixHasObjects(ctx context.Context, prefix string) (bool, error) {
	keys, err := c.store.List(ctx, prefix)
	if err != nil {
		return false, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	return len(keys) > 0, nil
}
