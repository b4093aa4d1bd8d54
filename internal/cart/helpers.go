package cart

import (
	"fmt"
	"sort"

	"github.com/five82/ecoshop/internal/form"
	"github.com/five82/ecoshop/internal/validation"
)

const (
	taxRate           = 0.16
	freeShippingAbove = 50.0
	shippingFee       = 5.99
)

// Summary is the order summary shown next to the cart.
type Summary struct {
	Subtotal             float64 `json:"subtotal" yaml:"subtotal"`
	TotalItems           int     `json:"total_items" yaml:"total_items"`
	TotalCarbonFootprint float64 `json:"total_carbon_footprint" yaml:"total_carbon_footprint"`
	Tax                  float64 `json:"tax" yaml:"tax"`
	Shipping             float64 `json:"shipping" yaml:"shipping"`
	Total                float64 `json:"total" yaml:"total"`
}

// Summarize computes the order summary for a snapshot. Remote totals win
// over locally computed ones when present.
func Summarize(snap *Snapshot) Summary {
	if snap == nil || len(snap.Items) == 0 {
		return Summary{}
	}

	var sum Summary
	for _, item := range snap.Items {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		price, carbon := item.Price, 0.0
		if item.Product != nil {
			if item.Product.Price > 0 {
				price = item.Product.Price
			}
			carbon = item.Product.CarbonFootprint
		}
		sum.Subtotal += price * float64(qty)
		sum.TotalItems += qty
		sum.TotalCarbonFootprint += carbon * float64(qty)
	}
	if snap.TotalPrice > 0 {
		sum.Subtotal = snap.TotalPrice
	}
	if snap.TotalItems > 0 {
		sum.TotalItems = snap.TotalItems
	}
	if snap.TotalCarbonFootprint > 0 {
		sum.TotalCarbonFootprint = snap.TotalCarbonFootprint
	}

	sum.Tax = sum.Subtotal * taxRate
	if sum.Subtotal <= freeShippingAbove {
		sum.Shipping = shippingFee
	}
	sum.Total = sum.Subtotal + sum.Tax + sum.Shipping
	return sum
}

// ValidateForCheckout lists the problems that block checking out snap.
func ValidateForCheckout(snap *Snapshot) []string {
	if snap == nil || len(snap.Items) == 0 {
		return []string{"Cart is empty"}
	}
	var problems []string
	for i, item := range snap.Items {
		if item.Product == nil {
			problems = append(problems, fmt.Sprintf("Item %d: Product information missing", i+1))
		}
		if item.Quantity < 1 {
			name := "Unknown"
			if item.Product != nil && item.Product.Name != "" {
				name = item.Product.Name
			}
			problems = append(problems, fmt.Sprintf("Item %q: Invalid quantity", name))
		}
	}
	return problems
}

func addressProblems(errs map[validation.AddressField]string) []string {
	out := make([]string, 0, len(errs))
	for name, msg := range errs {
		if name == form.General[validation.AddressField]() {
			continue
		}
		out = append(out, msg)
	}
	sort.Strings(out)
	if msg := errs[form.General[validation.AddressField]()]; msg != "" {
		out = append(out, msg)
	}
	return out
}

// IsEmpty reports whether the current cart has no lines.
func (s *Synchronizer) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.Cart.Value == nil || len(s.state.Cart.Value.Items) == 0
}

// ItemByProductID returns the line holding productID.
func (s *Synchronizer) ItemByProductID(productID int64) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.Cart.Value == nil {
		return Item{}, false
	}
	for _, item := range s.state.Cart.Value.Items {
		if item.ProductID == productID || (item.Product != nil && item.Product.ID == productID) {
			return item, true
		}
	}
	return Item{}, false
}

// CarbonFootprintByItem returns a line's total carbon, or 0 if absent.
func (s *Synchronizer) CarbonFootprintByItem(itemID int64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.Cart.Value == nil {
		return 0
	}
	for _, item := range s.state.Cart.Value.Items {
		if item.ID == itemID {
			return item.TotalCarbon
		}
	}
	return 0
}

// DetailedItemCount sums line quantities.
func (s *Synchronizer) DetailedItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, item := range s.state.Items() {
		n += item.Quantity
	}
	return n
}

// Summary returns the order summary of the current cart.
func (s *Synchronizer) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Summarize(s.state.Cart.Value)
}

// Validate lists the problems that would block a checkout right now.
func (s *Synchronizer) Validate() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ValidateForCheckout(s.state.Cart.Value)
}
