// Package analytics holds the typed record sets flowing through the pipeline
// and the cleaning and KPI computations performed on them. Everything here is
// pure: reading and writing the records is the caller's concern.
package analytics

import "github.com/shopspring/decimal"

// Product is one row of the product catalog export. Category is a free-text
// label; products are joined to order items by ID.
type Product struct {
	ID       string
	Category string
}

// Order is one row of an orders export.
//
// OrderDate and ReturnDate are derived during cleaning from CreatedAt and
// ReturnedAt. ReturnDate is nil when ReturnedAt is absent or unparseable;
// that is not an error. UserID here is the authoritative customer identifier
// for every downstream computation.
type Order struct {
	OrderID    string
	UserID     string
	CreatedAt  string
	ReturnedAt string
	OrderDate  Date
	ReturnDate *Date
}

// Returned reports whether the order was returned. Presence of a returned_at
// value is the signal, whether or not it parses to a date.
func (o Order) Returned() bool {
	return o.ReturnedAt != ""
}

// OrderItem is one row of an order-items export. A missing sale_price parses
// to the zero decimal and is removed by cleaning along with every other
// non-positive price.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	SalePrice decimal.Decimal
}

// CategoryKPI is one derived row per (category, order date). Category is empty
// for items whose product ID had no match in the catalog; those rows form
// their own bucket.
type CategoryKPI struct {
	Category      string
	OrderDate     Date
	DailyRevenue  decimal.Decimal
	AvgOrderValue decimal.Decimal
	AvgReturnRate decimal.Decimal
}

// OrderKPI is one derived row per order date.
type OrderKPI struct {
	OrderDate       Date
	TotalOrders     int
	TotalRevenue    decimal.Decimal
	TotalItemsSold  int
	ReturnRate      decimal.Decimal
	UniqueCustomers int
}
