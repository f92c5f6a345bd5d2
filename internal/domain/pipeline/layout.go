// Package pipeline defines the bucket layout shared by every stage of the
// ETL pipeline, plus the readiness and archival bookkeeping types.
package pipeline

import (
	"strings"
	"time"
)

// Bucket layout. All paths are relative to a single bucket.
const (
	RawPrefix       = "raw-data/"
	ValidatedPrefix = "validated/"
	ProcessedPrefix = "processed/"
	ArchivePrefix   = "archive/"

	ProductsKey      = RawPrefix + "products.csv"
	OrdersPrefix     = RawPrefix + "orders/"
	OrderItemsPrefix = RawPrefix + "order_items/"

	ValidatedProductsKey   = ValidatedPrefix + "products.csv"
	ValidatedOrdersKey     = ValidatedPrefix + "orders.csv"
	ValidatedOrderItemsKey = ValidatedPrefix + "order_items.csv"

	CategoryKPIFile = "category_kpi.csv"
	OrderKPIFile    = "order_kpi.csv"

	// SentinelKey marks that the pipeline has been started for the current
	// batch. Its presence is the whole signal; the body is irrelevant.
	SentinelKey = "status/execution_started.txt"

	// ArchiveManifestKey holds the pending archive plan. It is written
	// before the first copy and removed after the last delete, so a rerun
	// after a partial archive replays the same plan instead of recomputing
	// the raw listing.
	ArchiveManifestKey = "status/archive_manifest.json"
)

// timestampLayout is the path segment format used for processed snapshots and
// archive runs, e.g. "2024-01-05-T-13:45:10".
const timestampLayout = "2006-01-02-T-15:04:05"

// RunTimestamp formats a run time as the shared path segment for that run's
// processed snapshot and archive destination.
func RunTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ProcessedKey returns the snapshot key for a KPI file in the given run.
func ProcessedKey(timestamp, filename string) string {
	return ProcessedPrefix + timestamp + "/" + filename
}

// ArchiveKey maps a raw object key to its archive destination, preserving the
// path relative to the raw-data prefix.
func ArchiveKey(timestamp, rawKey string) string {
	relative := strings.TrimPrefix(rawKey, RawPrefix)
	return ArchivePrefix + timestamp + "/" + relative
}

// IsCSV reports whether a key names a CSV object. Only CSV objects under the
// raw prefixes are read and archived.
func IsCSV(key string) bool {
	return strings.HasSuffix(key, ".csv")
}
