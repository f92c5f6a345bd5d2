// Package kpisink persists computed KPI rows to a key-value store. Writes
// are blind per-row overwrites; there is no batching and no transaction
// across rows, so rows written before a failure stay written.
package kpisink

import (
	"context"

	"github.com/ecommerce/etl/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

// Writer is the key-value sink surface the transformation stage depends on.
// One record per CategoryKPI row keyed by (category, order_date), one per
// OrderKPI row keyed by order_date. Numeric fields are persisted as exact
// decimal strings, never binary floats.
type Writer interface {
	WriteCategoryKPIs(ctx context.Context, kpis []analytics.CategoryKPI) error
	WriteOrderKPIs(ctx context.Context, kpis []analytics.OrderKPI) error
}

// sinkRate rounds an already-scaled return percentage to 2 decimal places for
// storage. The CSV snapshot keeps the unrounded scaled value; the key-value
// rows get this extra rounding, matching the upstream data contract.
func sinkRate(rate decimal.Decimal) decimal.Decimal {
	return rate.RoundBank(2)
}
