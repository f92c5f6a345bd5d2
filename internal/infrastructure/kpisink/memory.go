package kpisink

import (
	"context"
	"sync"

	"github.com/ecommerce/etl/internal/domain/analytics"
)

// Ensure MemoryWriter implements Writer
var _ Writer = (*MemoryWriter)(nil)

// MemoryWriter is an in-memory Writer for tests. Rows are stored by their
// key, last writer wins, matching the real sinks' overwrite behavior. The
// sink-level rate rounding is applied so tests observe stored values.
type MemoryWriter struct {
	mu       sync.Mutex
	Category map[string]analytics.CategoryKPI // keyed "category|order_date"
	Order    map[string]analytics.OrderKPI    // keyed "order_date"

	// FailCategory / FailOrder make the corresponding write return the error.
	FailCategory error
	FailOrder    error
}

// NewMemoryWriter creates an empty in-memory writer.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{
		Category: make(map[string]analytics.CategoryKPI),
		Order:    make(map[string]analytics.OrderKPI),
	}
}

// WriteCategoryKPIs stores one row per category KPI.
func (w *MemoryWriter) WriteCategoryKPIs(ctx context.Context, kpis []analytics.CategoryKPI) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.FailCategory != nil {
		return w.FailCategory
	}
	for _, k := range kpis {
		k.AvgReturnRate = sinkRate(k.AvgReturnRate)
		w.Category[k.Category+"|"+k.OrderDate.String()] = k
	}
	return nil
}

// WriteOrderKPIs stores one row per order KPI.
func (w *MemoryWriter) WriteOrderKPIs(ctx context.Context, kpis []analytics.OrderKPI) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.FailOrder != nil {
		return w.FailOrder
	}
	for _, k := range kpis {
		k.ReturnRate = sinkRate(k.ReturnRate)
		w.Order[k.OrderDate.String()] = k
	}
	return nil
}
