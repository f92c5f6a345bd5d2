// Package dataset converts between the pipeline's typed record sets and
// their CSV file forms.
package dataset

import (
	"fmt"
	"strconv"

	"github.com/ecommerce/etl/internal/domain/analytics"
	"github.com/ecommerce/etl/internal/infrastructure/csvio"
	"github.com/shopspring/decimal"
)

// Column names shared by the raw and validated files.
const (
	colProductID       = "id"
	colProductCategory = "category"

	colOrderID    = "order_id"
	colUserID     = "user_id"
	colCreatedAt  = "created_at"
	colReturnedAt = "returned_at"
	colOrderDate  = "order_date"
	colReturnDate = "return_date"

	colItemID    = "id"
	colItemOrder = "order_id"
	colItemProd  = "product_id"
	colSalePrice = "sale_price"
)

// ParseProducts decodes a products CSV.
func ParseProducts(data []byte) ([]analytics.Product, error) {
	rows, err := readRows(data, "products")
	if err != nil {
		return nil, err
	}
	products := make([]analytics.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, analytics.Product{
			ID:       row.Get(colProductID),
			Category: row.Get(colProductCategory),
		})
	}
	return products, nil
}

// ParseOrders decodes an orders CSV, raw or validated. The derived date
// columns are picked up when present; raw files simply do not have them yet.
func ParseOrders(data []byte) ([]analytics.Order, error) {
	rows, err := readRows(data, "orders")
	if err != nil {
		return nil, err
	}
	orders := make([]analytics.Order, 0, len(rows))
	for _, row := range rows {
		o := analytics.Order{
			OrderID:    row.Get(colOrderID),
			UserID:     row.Get(colUserID),
			CreatedAt:  row.Get(colCreatedAt),
			ReturnedAt: row.Get(colReturnedAt),
		}
		if s := row.Get(colOrderDate); s != "" {
			d, err := analytics.ParseDate(s)
			if err != nil {
				return nil, fmt.Errorf("orders row %d: %w", row.LineNumber, err)
			}
			o.OrderDate = d
		}
		if s := row.Get(colReturnDate); s != "" {
			d, err := analytics.ParseDate(s)
			if err != nil {
				return nil, fmt.Errorf("orders row %d: %w", row.LineNumber, err)
			}
			o.ReturnDate = &d
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// ParseOrderItems decodes an order-items CSV. An empty sale_price parses to
// the zero decimal, which cleaning removes; a malformed non-empty value is an
// error.
func ParseOrderItems(data []byte) ([]analytics.OrderItem, error) {
	rows, err := readRows(data, "order items")
	if err != nil {
		return nil, err
	}
	items := make([]analytics.OrderItem, 0, len(rows))
	for _, row := range rows {
		item := analytics.OrderItem{
			ID:        row.Get(colItemID),
			OrderID:   row.Get(colItemOrder),
			ProductID: row.Get(colItemProd),
		}
		if s := row.Get(colSalePrice); s != "" {
			price, err := decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("order items row %d: invalid sale_price %q", row.LineNumber, s)
			}
			item.SalePrice = price
		}
		items = append(items, item)
	}
	return items, nil
}

func readRows(data []byte, name string) ([]*csvio.Row, error) {
	r, err := csvio.NewReaderFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s CSV: %w", name, err)
	}
	rows, err := r.ReadAllRows()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s CSV: %w", name, err)
	}
	return rows, nil
}

// EncodeProducts renders products as CSV.
func EncodeProducts(products []analytics.Product) ([]byte, error) {
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{p.ID, p.Category})
	}
	return csvio.WriteAll([]string{colProductID, colProductCategory}, rows)
}

// EncodeOrders renders cleaned orders as CSV, including the derived date
// columns. An unset return date is an empty field.
func EncodeOrders(orders []analytics.Order) ([]byte, error) {
	header := []string{colOrderID, colUserID, colCreatedAt, colReturnedAt, colOrderDate, colReturnDate}
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		returnDate := ""
		if o.ReturnDate != nil {
			returnDate = o.ReturnDate.String()
		}
		rows = append(rows, []string{
			o.OrderID, o.UserID, o.CreatedAt, o.ReturnedAt,
			o.OrderDate.String(), returnDate,
		})
	}
	return csvio.WriteAll(header, rows)
}

// EncodeOrderItems renders cleaned order items as CSV.
func EncodeOrderItems(items []analytics.OrderItem) ([]byte, error) {
	header := []string{colItemID, colItemOrder, colItemProd, colSalePrice}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{it.ID, it.OrderID, it.ProductID, it.SalePrice.String()})
	}
	return csvio.WriteAll(header, rows)
}

// EncodeCategoryKPIs renders the category KPI table as CSV.
func EncodeCategoryKPIs(kpis []analytics.CategoryKPI) ([]byte, error) {
	header := []string{"category", "order_date", "daily_revenue", "avg_order_value", "avg_return_rate"}
	rows := make([][]string, 0, len(kpis))
	for _, k := range kpis {
		rows = append(rows, []string{
			k.Category,
			k.OrderDate.String(),
			k.DailyRevenue.StringFixed(2),
			k.AvgOrderValue.StringFixed(2),
			k.AvgReturnRate.StringFixed(2),
		})
	}
	return csvio.WriteAll(header, rows)
}

// EncodeOrderKPIs renders the order KPI table as CSV.
func EncodeOrderKPIs(kpis []analytics.OrderKPI) ([]byte, error) {
	header := []string{"order_date", "total_orders", "total_revenue", "total_items_sold", "return_rate", "unique_customers"}
	rows := make([][]string, 0, len(kpis))
	for _, k := range kpis {
		rows = append(rows, []string{
			k.OrderDate.String(),
			strconv.Itoa(k.TotalOrders),
			k.TotalRevenue.StringFixed(2),
			strconv.Itoa(k.TotalItemsSold),
			k.ReturnRate.StringFixed(2),
			strconv.Itoa(k.UniqueCustomers),
		})
	}
	return csvio.WriteAll(header, rows)
}

// ParseCategoryKPIs decodes a category KPI snapshot, the inverse of
// EncodeCategoryKPIs.
func ParseCategoryKPIs(data []byte) ([]analytics.CategoryKPI, error) {
	rows, err := readRows(data, "category KPI")
	if err != nil {
		return nil, err
	}
	kpis := make([]analytics.CategoryKPI, 0, len(rows))
	for _, row := range rows {
		date, err := analytics.ParseDate(row.Get("order_date"))
		if err != nil {
			return nil, fmt.Errorf("category KPI row %d: %w", row.LineNumber, err)
		}
		revenue, err := parseDecimal(row, "daily_revenue")
		if err != nil {
			return nil, err
		}
		aov, err := parseDecimal(row, "avg_order_value")
		if err != nil {
			return nil, err
		}
		rate, err := parseDecimal(row, "avg_return_rate")
		if err != nil {
			return nil, err
		}
		kpis = append(kpis, analytics.CategoryKPI{
			Category:      row.Get("category"),
			OrderDate:     date,
			DailyRevenue:  revenue,
			AvgOrderValue: aov,
			AvgReturnRate: rate,
		})
	}
	return kpis, nil
}

// ParseOrderKPIs decodes an order KPI snapshot, the inverse of EncodeOrderKPIs.
func ParseOrderKPIs(data []byte) ([]analytics.OrderKPI, error) {
	rows, err := readRows(data, "order KPI")
	if err != nil {
		return nil, err
	}
	kpis := make([]analytics.OrderKPI, 0, len(rows))
	for _, row := range rows {
		date, err := analytics.ParseDate(row.Get("order_date"))
		if err != nil {
			return nil, fmt.Errorf("order KPI row %d: %w", row.LineNumber, err)
		}
		revenue, err := parseDecimal(row, "total_revenue")
		if err != nil {
			return nil, err
		}
		rate, err := parseDecimal(row, "return_rate")
		if err != nil {
			return nil, err
		}
		totalOrders, err := parseInt(row, "total_orders")
		if err != nil {
			return nil, err
		}
		itemsSold, err := parseInt(row, "total_items_sold")
		if err != nil {
			return nil, err
		}
		customers, err := parseInt(row, "unique_customers")
		if err != nil {
			return nil, err
		}
		kpis = append(kpis, analytics.OrderKPI{
			OrderDate:       date,
			TotalOrders:     totalOrders,
			TotalRevenue:    revenue,
			TotalItemsSold:  itemsSold,
			ReturnRate:      rate,
			UniqueCustomers: customers,
		})
	}
	return kpis, nil
}

func parseDecimal(row *csvio.Row, column string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(row.Get(column))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("row %d: invalid %s %q", row.LineNumber, column, row.Get(column))
	}
	return d, nil
}

func parseInt(row *csvio.Row, column string) (int, error) {
	n, err := strconv.Atoi(row.Get(column))
	if err != nil {
		return 0, fmt.Errorf("row %d: invalid %s %q", row.LineNumber, column, row.Get(column))
	}
	return n, nil
}
