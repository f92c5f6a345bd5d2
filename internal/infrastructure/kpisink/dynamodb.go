package kpisink

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ecommerce/etl/internal/domain/analytics"
	infraconfig "github.com/ecommerce/etl/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Ensure DynamoDBWriter implements Writer
var _ Writer = (*DynamoDBWriter)(nil)

// DynamoDBWriter writes KPI rows to two DynamoDB tables, one PutItem per row.
// Numeric attributes are built from decimal strings directly so the stored
// values never pass through a binary float.
type DynamoDBWriter struct {
	client        *dynamodb.Client
	categoryTable string
	orderTable    string
	logger        *zap.Logger
}

// DynamoDBWriterOption is a functional option for configuring DynamoDBWriter
type DynamoDBWriterOption func(*DynamoDBWriter)

// WithDynamoDBLogger sets a custom logger for DynamoDBWriter
func WithDynamoDBLogger(logger *zap.Logger) DynamoDBWriterOption {
	return func(w *DynamoDBWriter) {
		w.logger = logger
	}
}

// NewDynamoDBWriter creates a writer from configuration.
func NewDynamoDBWriter(storageCfg *infraconfig.StorageConfig, sinkCfg *infraconfig.SinkConfig, opts ...DynamoDBWriterOption) (*DynamoDBWriter, error) {
	if sinkCfg == nil || sinkCfg.CategoryTable == "" || sinkCfg.OrderTable == "" {
		return nil, errors.New("sink table names are required")
	}

	region := storageCfg.Region
	if region == "" {
		region = "eu-west-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			storageCfg.AccessKey,
			storageCfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	w := &DynamoDBWriter{
		client:        dynamodb.NewFromConfig(awsCfg),
		categoryTable: sinkCfg.CategoryTable,
		orderTable:    sinkCfg.OrderTable,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// WriteCategoryKPIs writes one item per category KPI row.
func (w *DynamoDBWriter) WriteCategoryKPIs(ctx context.Context, kpis []analytics.CategoryKPI) error {
	for _, k := range kpis {
		item := map[string]types.AttributeValue{
			"category":        &types.AttributeValueMemberS{Value: k.Category},
			"order_date":      &types.AttributeValueMemberS{Value: k.OrderDate.String()},
			"daily_revenue":   &types.AttributeValueMemberN{Value: k.DailyRevenue.String()},
			"avg_order_value": &types.AttributeValueMemberN{Value: k.AvgOrderValue.String()},
			"avg_return_rate": &types.AttributeValueMemberN{Value: sinkRate(k.AvgReturnRate).String()},
		}
		_, err := w.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(w.categoryTable),
			Item:      item,
		})
		if err != nil {
			return fmt.Errorf("failed to write category KPI (%s, %s): %w", k.Category, k.OrderDate, err)
		}
	}
	w.logger.Info("Saved category KPIs", zap.Int("rows", len(kpis)), zap.String("table", w.categoryTable))
	return nil
}

// WriteOrderKPIs writes one item per order KPI row.
func (w *DynamoDBWriter) WriteOrderKPIs(ctx context.Context, kpis []analytics.OrderKPI) error {
	for _, k := range kpis {
		item := map[string]types.AttributeValue{
			"order_date":       &types.AttributeValueMemberS{Value: k.OrderDate.String()},
			"total_orders":     &types.AttributeValueMemberN{Value: strconv.Itoa(k.TotalOrders)},
			"total_revenue":    &types.AttributeValueMemberN{Value: k.TotalRevenue.String()},
			"total_items_sold": &types.AttributeValueMemberN{Value: strconv.Itoa(k.TotalItemsSold)},
			"return_rate":      &types.AttributeValueMemberN{Value: sinkRate(k.ReturnRate).String()},
			"unique_customers": &types.AttributeValueMemberN{Value: strconv.Itoa(k.UniqueCustomers)},
		}
		_, err := w.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(w.orderTable),
			Item:      item,
		})
		if err != nil {
			return fmt.Errorf("failed to write order KPI (%s): %w", k.OrderDate, err)
		}
	}
	w.logger.Info("Saved order KPIs", zap.Int("rows", len(kpis)), zap.String("table", w.orderTable))
	return nil
}
