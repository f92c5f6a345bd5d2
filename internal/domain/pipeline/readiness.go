package pipeline

import (
	"fmt"
	"strings"
)

// Readiness is the per-input breakdown of the required-files check. The
// products file must exist exactly; the two prefixes each count as present
// only if listing them yields at least one object.
type Readiness struct {
	HasProducts   bool `json:"has_products"`
	HasOrders     bool `json:"has_orders"`
	HasOrderItems bool `json:"has_order_items"`
}

// AllPresent reports whether every required input is available.
func (r Readiness) AllPresent() bool {
	return r.HasProducts && r.HasOrders && r.HasOrderItems
}

// Missing returns the names of the absent inputs, in a fixed order.
func (r Readiness) Missing() []string {
	var missing []string
	if !r.HasProducts {
		missing = append(missing, "products.csv")
	}
	if !r.HasOrders {
		missing = append(missing, "orders/")
	}
	if !r.HasOrderItems {
		missing = append(missing, "order_items/")
	}
	return missing
}

// MissingInputsError reports which required raw inputs were absent at check
// time. Stages fail with it before writing any output.
type MissingInputsError struct {
	Missing []string
}

func (e *MissingInputsError) Error() string {
	return fmt.Sprintf("required files not found: %s", strings.Join(e.Missing, ", "))
}
