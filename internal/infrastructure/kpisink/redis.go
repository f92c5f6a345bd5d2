package kpisink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ecommerce/etl/internal/domain/analytics"
	infraconfig "github.com/ecommerce/etl/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// Ensure RedisWriter implements Writer
var _ Writer = (*RedisWriter)(nil)

// RedisWriter writes KPI rows to two Redis hashes, one field per row. Each
// field holds a JSON document with decimal values as strings, keeping the
// exact-decimal storage contract.
type RedisWriter struct {
	client        *redis.Client
	categoryTable string
	orderTable    string
}

// categoryKPIRecord is the stored form of one category KPI row.
type categoryKPIRecord struct {
	Category      string `json:"category"`
	OrderDate     string `json:"order_date"`
	DailyRevenue  string `json:"daily_revenue"`
	AvgOrderValue string `json:"avg_order_value"`
	AvgReturnRate string `json:"avg_return_rate"`
}

// orderKPIRecord is the stored form of one order KPI row.
type orderKPIRecord struct {
	OrderDate       string `json:"order_date"`
	TotalOrders     int    `json:"total_orders"`
	TotalRevenue    string `json:"total_revenue"`
	TotalItemsSold  int    `json:"total_items_sold"`
	ReturnRate      string `json:"return_rate"`
	UniqueCustomers int    `json:"unique_customers"`
}

// NewRedisWriter creates a Redis-backed KPI writer and verifies the
// connection.
func NewRedisWriter(redisCfg *infraconfig.RedisConfig, sinkCfg *infraconfig.SinkConfig) (*RedisWriter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr(),
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisWriter{
		client:        client,
		categoryTable: sinkCfg.CategoryTable,
		orderTable:    sinkCfg.OrderTable,
	}, nil
}

// NewRedisWriterWithClient creates a writer with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisWriterWithClient(client *redis.Client, categoryTable, orderTable string) *RedisWriter {
	return &RedisWriter{
		client:        client,
		categoryTable: categoryTable,
		orderTable:    orderTable,
	}
}

// WriteCategoryKPIs writes one hash field per category KPI row, keyed by
// (category, order_date).
func (w *RedisWriter) WriteCategoryKPIs(ctx context.Context, kpis []analytics.CategoryKPI) error {
	for _, k := range kpis {
		record := categoryKPIRecord{
			Category:      k.Category,
			OrderDate:     k.OrderDate.String(),
			DailyRevenue:  k.DailyRevenue.String(),
			AvgOrderValue: k.AvgOrderValue.String(),
			AvgReturnRate: sinkRate(k.AvgReturnRate).String(),
		}
		payload, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to encode category KPI: %w", err)
		}
		field := k.Category + "|" + k.OrderDate.String()
		if err := w.client.HSet(ctx, w.categoryTable, field, payload).Err(); err != nil {
			return fmt.Errorf("failed to write category KPI (%s, %s): %w", k.Category, k.OrderDate, err)
		}
	}
	return nil
}

// WriteOrderKPIs writes one hash field per order KPI row, keyed by order_date.
func (w *RedisWriter) WriteOrderKPIs(ctx context.Context, kpis []analytics.OrderKPI) error {
	for _, k := range kpis {
		record := orderKPIRecord{
			OrderDate:       k.OrderDate.String(),
			TotalOrders:     k.TotalOrders,
			TotalRevenue:    k.TotalRevenue.String(),
			TotalItemsSold:  k.TotalItemsSold,
			ReturnRate:      sinkRate(k.ReturnRate).String(),
			UniqueCustomers: k.UniqueCustomers,
		}
		payload, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to encode order KPI: %w", err)
		}
		if err := w.client.HSet(ctx, w.orderTable, k.OrderDate.String(), payload).Err(); err != nil {
			return fmt.Errorf("failed to write order KPI (%s): %w", k.OrderDate, err)
		}
	}
	return nil
}

// Close closes the Redis client.
func (w *RedisWriter) Close() error {
	return w.client.Close()
}
