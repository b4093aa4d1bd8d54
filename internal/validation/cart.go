package validation

import "fmt"

// MaxCartQuantity is the largest quantity a single cart line may hold.
const MaxCartQuantity = 99

// ProductID validates a product identifier.
func ProductID(id int64) string {
	if id < 1 {
		return "Product ID must be greater than 0"
	}
	return ""
}

// CartItemID validates a cart line identifier.
func CartItemID(id int64) string {
	if id < 1 {
		return "Cart item ID must be greater than 0"
	}
	return ""
}

// Quantity validates an absolute line quantity in [1, MaxCartQuantity].
func Quantity(qty int) string {
	switch {
	case qty < 1:
		return "Quantity must be at least 1"
	case qty > MaxCartQuantity:
		return fmt.Sprintf("Cannot add more than %d of the same product", MaxCartQuantity)
	}
	return ""
}

// QuantityDelta validates a signed change to a line quantity.
func QuantityDelta(delta int) string {
	switch {
	case delta == 0:
		return "Quantity delta cannot be 0"
	case delta > MaxCartQuantity || delta < -MaxCartQuantity:
		return fmt.Sprintf("Quantity change cannot exceed %d", MaxCartQuantity)
	}
	return ""
}

// ApplyDelta validates a delta and the absolute quantity it produces.
func ApplyDelta(current, delta int) (int, string) {
	if msg := QuantityDelta(delta); msg != "" {
		return current, msg
	}
	next := current + delta
	if msg := Quantity(next); msg != "" {
		return current, msg
	}
	return next, ""
}
