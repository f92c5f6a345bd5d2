package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func jan(day int) Date {
	return NewDate(2024, time.January, day)
}

func TestComputeKPIs(t *testing.T) {
	t.Run("aggregates one category one day", func(t *testing.T) {
		products := []Product{{ID: "p1", Category: "A"}}
		orders := []Order{
			{OrderID: "o1", UserID: "u1", OrderDate: jan(1), ReturnedAt: "2024-01-03"},
			{OrderID: "o2", UserID: "u1", OrderDate: jan(1)},
		}
		items := []OrderItem{
			{ID: "i1", OrderID: "o1", ProductID: "p1", SalePrice: price("25.00")},
			{ID: "i2", OrderID: "o2", ProductID: "p1", SalePrice: price("15.00")},
		}

		catKPIs, orderKPIs := ComputeKPIs(products, orders, items)

		require.Len(t, catKPIs, 1)
		assert.Equal(t, "A", catKPIs[0].Category)
		assert.Equal(t, jan(1), catKPIs[0].OrderDate)
		assertDecimal(t, "40.00", catKPIs[0].DailyRevenue)
		assertDecimal(t, "20.00", catKPIs[0].AvgOrderValue)
		assertDecimal(t, "50", catKPIs[0].AvgReturnRate)

		require.Len(t, orderKPIs, 1)
		assert.Equal(t, jan(1), orderKPIs[0].OrderDate)
		assert.Equal(t, 2, orderKPIs[0].TotalOrders)
		assertDecimal(t, "40.00", orderKPIs[0].TotalRevenue)
		assert.Equal(t, 2, orderKPIs[0].TotalItemsSold)
		assertDecimal(t, "50", orderKPIs[0].ReturnRate)
		assert.Equal(t, 1, orderKPIs[0].UniqueCustomers)
	})

	t.Run("return ratio is rounded to four places before scaling", func(t *testing.T) {
		products := []Product{{ID: "p1", Category: "A"}}
		orders := []Order{
			{OrderID: "o1", UserID: "u1", OrderDate: jan(1), ReturnedAt: "2024-01-02"},
			{OrderID: "o2", UserID: "u2", OrderDate: jan(1)},
			{OrderID: "o3", UserID: "u3", OrderDate: jan(1)},
		}
		items := []OrderItem{
			{ID: "i1", OrderID: "o1", ProductID: "p1", SalePrice: price("10")},
			{ID: "i2", OrderID: "o2", ProductID: "p1", SalePrice: price("10")},
			{ID: "i3", OrderID: "o3", ProductID: "p1", SalePrice: price("10")},
		}

		catKPIs, orderKPIs := ComputeKPIs(products, orders, items)

		require.Len(t, catKPIs, 1)
		assertDecimal(t, "33.33", catKPIs[0].AvgReturnRate)
		require.Len(t, orderKPIs, 1)
		assertDecimal(t, "33.33", orderKPIs[0].ReturnRate)
	})

	t.Run("average order value divides unrounded revenue by distinct orders", func(t *testing.T) {
		products := []Product{{ID: "p1", Category: "A"}}
		orders := []Order{
			{OrderID: "o1", UserID: "u1", OrderDate: jan(1)},
			{OrderID: "o2", UserID: "u2", OrderDate: jan(1)},
		}
		// Two items share o1; the order still counts once.
		items := []OrderItem{
			{ID: "i1", OrderID: "o1", ProductID: "p1", SalePrice: price("10.005")},
			{ID: "i2", OrderID: "o1", ProductID: "p1", SalePrice: price("10.005")},
			{ID: "i3", OrderID: "o2", ProductID: "p1", SalePrice: price("9.99")},
		}

		catKPIs, _ := ComputeKPIs(products, orders, items)

		require.Len(t, catKPIs, 1)
		// 30.00 / 2 = 15.00, not round(30.00)/2 of some intermediate.
		assertDecimal(t, "30.00", catKPIs[0].DailyRevenue)
		assertDecimal(t, "15.00", catKPIs[0].AvgOrderValue)
	})

	t.Run("items without a catalog match fall into the empty category bucket", func(t *testing.T) {
		products := []Product{{ID: "p1", Category: "A"}}
		orders := []Order{{OrderID: "o1", UserID: "u1", OrderDate: jan(1)}}
		items := []OrderItem{
			{ID: "i1", OrderID: "o1", ProductID: "p1", SalePrice: price("10")},
			{ID: "i2", OrderID: "o1", ProductID: "p9", SalePrice: price("5")},
		}

		catKPIs, _ := ComputeKPIs(products, orders, items)

		require.Len(t, catKPIs, 2)
		assert.Equal(t, "", catKPIs[0].Category)
		assertDecimal(t, "5.00", catKPIs[0].DailyRevenue)
		assert.Equal(t, "A", catKPIs[1].Category)
		assertDecimal(t, "10.00", catKPIs[1].DailyRevenue)
	})

	t.Run("items without a matching order are ignored", func(t *testing.T) {
		products := []Product{{ID: "p1", Category: "A"}}
		orders := []Order{{OrderID: "o1", UserID: "u1", OrderDate: jan(1)}}
		items := []OrderItem{
			{ID: "i1", OrderID: "o1", ProductID: "p1", SalePrice: price("10")},
			{ID: "i2", OrderID: "o9", ProductID: "p1", SalePrice: price("99")},
		}

		catKPIs, orderKPIs := ComputeKPIs(products, orders, items)

		require.Len(t, catKPIs, 1)
		assertDecimal(t, "10.00", catKPIs[0].DailyRevenue)
		require.Len(t, orderKPIs, 1)
		assert.Equal(t, 1, orderKPIs[0].TotalItemsSold)
	})

	t.Run("duplicate product IDs resolve to the last category", func(t *testing.T) {
		products := []Product{
			{ID: "p1", Category: "A"},
			{ID: "p1", Category: "B"},
		}
		orders := []Order{{OrderID: "o1", UserID: "u1", OrderDate: jan(1)}}
		items := []OrderItem{{ID: "i1", OrderID: "o1", ProductID: "p1", SalePrice: price("10")}}

		catKPIs, _ := ComputeKPIs(products, orders, items)

		require.Len(t, catKPIs, 1)
		assert.Equal(t, "B", catKPIs[0].Category)
	})

	t.Run("output is sorted by category then date, and by date", func(t *testing.T) {
		products := []Product{
			{ID: "p1", Category: "B"},
			{ID: "p2", Category: "A"},
		}
		orders := []Order{
			{OrderID: "o1", UserID: "u1", OrderDate: jan(2)},
			{OrderID: "o2", UserID: "u2", OrderDate: jan(1)},
		}
		items := []OrderItem{
			{ID: "i1", OrderID: "o1", ProductID: "p1", SalePrice: price("10")},
			{ID: "i2", OrderID: "o2", ProductID: "p1", SalePrice: price("10")},
			{ID: "i3", OrderID: "o2", ProductID: "p2", SalePrice: price("10")},
		}

		catKPIs, orderKPIs := ComputeKPIs(products, orders, items)

		require.Len(t, catKPIs, 3)
		assert.Equal(t, "A", catKPIs[0].Category)
		assert.Equal(t, jan(1), catKPIs[0].OrderDate)
		assert.Equal(t, "B", catKPIs[1].Category)
		assert.Equal(t, jan(1), catKPIs[1].OrderDate)
		assert.Equal(t, "B", catKPIs[2].Category)
		assert.Equal(t, jan(2), catKPIs[2].OrderDate)

		require.Len(t, orderKPIs, 2)
		assert.Equal(t, jan(1), orderKPIs[0].OrderDate)
		assert.Equal(t, jan(2), orderKPIs[1].OrderDate)
	})

	t.Run("empty inputs produce empty outputs", func(t *testing.T) {
		catKPIs, orderKPIs := ComputeKPIs(nil, nil, nil)
		assert.Empty(t, catKPIs)
		assert.Empty(t, orderKPIs)
	})
}
