package analytics

import "fmt"

// Clean applies the validation rules to a raw batch and returns the surviving
// rows. The order of operations matters: orders are cleaned first so that the
// referential filter on order items sees only surviving orders.
//
// Rules:
//   - drop orders missing order_id, user_id or created_at
//   - drop order items missing id, product_id or a positive sale_price
//   - drop order items whose order_id has no surviving order
//   - derive order_date and return_date; an unparseable created_at is an
//     error, an unparseable or absent returned_at leaves return_date unset
//
// Products pass through untouched.
func Clean(products []Product, orders []Order, items []OrderItem) ([]Product, []Order, []OrderItem, error) {
	cleanOrders := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.OrderID == "" || o.UserID == "" || o.CreatedAt == "" {
			continue
		}
		orderDate, err := ParseTimestampDate(o.CreatedAt)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("order %s: %w", o.OrderID, err)
		}
		o.OrderDate = orderDate
		if o.ReturnedAt != "" {
			if d, err := ParseTimestampDate(o.ReturnedAt); err == nil {
				o.ReturnDate = &d
			}
		}
		cleanOrders = append(cleanOrders, o)
	}

	validOrderIDs := make(map[string]struct{}, len(cleanOrders))
	for _, o := range cleanOrders {
		validOrderIDs[o.OrderID] = struct{}{}
	}

	cleanItems := make([]OrderItem, 0, len(items))
	for _, it := range items {
		if it.ID == "" || it.ProductID == "" {
			continue
		}
		if !it.SalePrice.IsPositive() {
			continue
		}
		if _, ok := validOrderIDs[it.OrderID]; !ok {
			continue
		}
		cleanItems = append(cleanItems, it)
	}

	return products, cleanOrders, cleanItems, nil
}
