package analytics

import (
	"sort"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// joinedRow is one order item matched to its order, with the product category
// attached. UserID is copied from the order side only; the item side carries
// no customer identifier, so there is nothing to disambiguate.
type joinedRow struct {
	itemID    string
	orderID   string
	userID    string
	orderDate Date
	salePrice decimal.Decimal
	category  string
	returned  bool
}

type categoryKey struct {
	category string
	date     Date
}

// ComputeKPIs joins the three validated record sets and aggregates them into
// the category-level and order-level KPI tables.
//
// Items without a matching order are dropped by the join; validation already
// removed them, but the join enforces it regardless. Items whose product ID
// is not in the catalog fall into the empty-string category bucket.
//
// Revenue figures are rounded half-to-even to 2 decimal places. Return-rate
// ratios are rounded to 4 decimal places first and then scaled by 100; the
// ordering is deliberate and changes the persisted value (1/3 becomes 33.33,
// not 33.3333).
func ComputeKPIs(products []Product, orders []Order, items []OrderItem) ([]CategoryKPI, []OrderKPI) {
	// Product ID to category lookup, last write wins for duplicate IDs.
	categoryByProduct := make(map[string]string, len(products))
	for _, p := range products {
		categoryByProduct[p.ID] = p.Category
	}

	ordersByID := make(map[string]Order, len(orders))
	for _, o := range orders {
		ordersByID[o.OrderID] = o
	}

	rows := make([]joinedRow, 0, len(items))
	for _, it := range items {
		o, ok := ordersByID[it.OrderID]
		if !ok {
			continue
		}
		rows = append(rows, joinedRow{
			itemID:    it.ID,
			orderID:   it.OrderID,
			userID:    o.UserID,
			orderDate: o.OrderDate,
			salePrice: it.SalePrice,
			category:  categoryByProduct[it.ProductID],
			returned:  o.Returned(),
		})
	}

	return aggregateByCategory(rows), aggregateByDate(rows)
}

func aggregateByCategory(rows []joinedRow) []CategoryKPI {
	type group struct {
		revenue     decimal.Decimal
		orderIDs    map[string]struct{}
		returnCount int64
	}
	groups := make(map[categoryKey]*group)
	for _, r := range rows {
		key := categoryKey{category: r.category, date: r.orderDate}
		g, ok := groups[key]
		if !ok {
			g = &group{orderIDs: make(map[string]struct{})}
			groups[key] = g
		}
		g.revenue = g.revenue.Add(r.salePrice)
		g.orderIDs[r.orderID] = struct{}{}
		if r.returned {
			g.returnCount++
		}
	}

	kpis := make([]CategoryKPI, 0, len(groups))
	for key, g := range groups {
		orderCount := decimal.NewFromInt(int64(len(g.orderIDs)))
		kpis = append(kpis, CategoryKPI{
			Category:      key.category,
			OrderDate:     key.date,
			DailyRevenue:  g.revenue.RoundBank(2),
			AvgOrderValue: g.revenue.Div(orderCount).RoundBank(2),
			AvgReturnRate: decimal.NewFromInt(g.returnCount).Div(orderCount).RoundBank(4).Mul(oneHundred),
		})
	}

	sort.Slice(kpis, func(i, j int) bool {
		if kpis[i].Category != kpis[j].Category {
			return kpis[i].Category < kpis[j].Category
		}
		return kpis[i].OrderDate.Before(kpis[j].OrderDate)
	})
	return kpis
}

func aggregateByDate(rows []joinedRow) []OrderKPI {
	type group struct {
		revenue       decimal.Decimal
		orderIDs      map[string]struct{}
		userIDs       map[string]struct{}
		itemCount     int64
		returnedCount int64
	}
	groups := make(map[Date]*group)
	for _, r := range rows {
		g, ok := groups[r.orderDate]
		if !ok {
			g = &group{
				orderIDs: make(map[string]struct{}),
				userIDs:  make(map[string]struct{}),
			}
			groups[r.orderDate] = g
		}
		g.revenue = g.revenue.Add(r.salePrice)
		g.orderIDs[r.orderID] = struct{}{}
		g.userIDs[r.userID] = struct{}{}
		g.itemCount++
		if r.returned {
			g.returnedCount++
		}
	}

	kpis := make([]OrderKPI, 0, len(groups))
	for date, g := range groups {
		// Row-level mean: returned item rows over all item rows for the day.
		rate := decimal.NewFromInt(g.returnedCount).
			Div(decimal.NewFromInt(g.itemCount)).
			RoundBank(4).
			Mul(oneHundred)
		kpis = append(kpis, OrderKPI{
			OrderDate:       date,
			TotalOrders:     len(g.orderIDs),
			TotalRevenue:    g.revenue.RoundBank(2),
			TotalItemsSold:  int(g.itemCount),
			ReturnRate:      rate,
			UniqueCustomers: len(g.userIDs),
		})
	}

	sort.Slice(kpis, func(i, j int) bool {
		return kpis[i].OrderDate.Before(kpis[j].OrderDate)
	})
	return kpis
}
