package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which brand and stock
	// columns are hidden.
	LayoutCompactWidth = 100

	// LayoutSummaryWidth is the minimum width to show the order summary
	// beside the cart instead of below it.
	LayoutSummaryWidth = 120
)

// Display limits.
const (
	// MaxToasts is the number of notifications shown at once.
	MaxToasts = 3

	// ProductPageSize is the number of products requested per page.
	ProductPageSize = 20
)

// Timing constants.
const (
	// StepWindow is the minimum time between quantity updates sent for one
	// cart line. Key presses inside the window are folded into one update.
	StepWindow = 350 * time.Millisecond

	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second
)
