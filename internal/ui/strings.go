package ui

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// formatPrice renders an amount as dollars with thousands separators.
func formatPrice(amount float64) string {
	return printer.Sprintf("$%.2f", amount)
}

// formatCarbon renders a carbon footprint in kilograms of CO2 equivalent.
func formatCarbon(kg float64) string {
	return printer.Sprintf("%.2f kg CO₂e", kg)
}

// truncate shortens a string to the given limit, adding ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// padRight pads a string with spaces to the given width.
func padRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(r))
}

// signed renders a pending quantity change as "+2" or "-1".
func signed(n int) string {
	if n > 0 {
		return printer.Sprintf("+%d", n)
	}
	return printer.Sprintf("%d", n)
}

// maxInt returns the larger of two integers.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ternary returns a if cond is true, otherwise b.
func ternary(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
