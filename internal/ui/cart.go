package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/time/rate"

	"github.com/five82/ecoshop/internal/cart"
	"github.com/five82/ecoshop/internal/pages"
	"github.com/five82/ecoshop/internal/validation"
)

// stepper folds rapid quantity key presses into one update per cart line.
// Each line gets its own limiter; presses the limiter refuses accumulate
// until the window flushes them.
type stepper struct {
	window    time.Duration
	limiters  map[int64]*rate.Limiter
	pending   map[int64]int
	scheduled map[int64]bool
}

func newStepper(window time.Duration) *stepper {
	return &stepper{
		window:    window,
		limiters:  make(map[int64]*rate.Limiter),
		pending:   make(map[int64]int),
		scheduled: make(map[int64]bool),
	}
}

// Add records delta for itemID and reports whether an update may be sent now.
func (s *stepper) Add(itemID int64, delta int) bool {
	s.pending[itemID] += delta
	l, ok := s.limiters[itemID]
	if !ok {
		l = rate.NewLimiter(rate.Every(s.window), 1)
		s.limiters[itemID] = l
	}
	return l.Allow()
}

// Schedule reports whether a flush needs scheduling for itemID.
func (s *stepper) Schedule(itemID int64) bool {
	if s.scheduled[itemID] {
		return false
	}
	s.scheduled[itemID] = true
	return true
}

// Take returns and clears the accumulated delta for itemID.
func (s *stepper) Take(itemID int64) int {
	delta := s.pending[itemID]
	delete(s.pending, itemID)
	delete(s.scheduled, itemID)
	return delta
}

// Pending returns the accumulated, unsent delta for itemID.
func (s *stepper) Pending(itemID int64) int {
	return s.pending[itemID]
}

// handleCartKey processes keyboard input for the cart view.
func (m Model) handleCartKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.cartState.Items()

	switch {
	case key.Matches(msg, m.keys.Refresh):
		cartPage := m.cartPage
		return m, m.cartCmd(cartPage.Refresh)

	case key.Matches(msg, m.keys.ClearCart):
		if len(items) == 0 {
			return m, nil
		}
		cartPage := m.cartPage
		m.modal = newConfirmModal("Clear cart", "Remove every item from your cart?", m.cartCmd(cartPage.Clear))
		return m, nil

	case key.Matches(msg, m.keys.Checkout):
		return m.openCheckout()
	}

	if len(items) == 0 {
		return m, nil
	}
	item := items[clampRow(m.cartRow, len(items))]

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cartRow < len(items)-1 {
			m.cartRow++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cartRow > 0 {
			m.cartRow--
		}
	case key.Matches(msg, m.keys.Top):
		m.cartRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cartRow = len(items) - 1
	case key.Matches(msg, m.keys.Increment):
		return m, m.step(item.ID, 1)
	case key.Matches(msg, m.keys.Decrement):
		return m, m.step(item.ID, -1)
	case key.Matches(msg, m.keys.Remove):
		cartPage, id := m.cartPage, item.ID
		return m, m.cartCmd(func(ctx context.Context) error {
			return cartPage.Remove(ctx, id)
		})
	}
	return m, nil
}

// step sends a quantity change now if the line's limiter allows it, and
// otherwise schedules one flush for the end of the window.
func (m Model) step(itemID int64, delta int) tea.Cmd {
	if m.steps.Add(itemID, delta) {
		return m.stepCmd(itemID, m.steps.Take(itemID))
	}
	if m.steps.Schedule(itemID) {
		return tea.Tick(m.steps.window, func(time.Time) tea.Msg {
			return flushStepMsg{itemID: itemID}
		})
	}
	return nil
}

func (m Model) stepCmd(itemID int64, delta int) tea.Cmd {
	cartPage := m.cartPage
	return m.cartCmd(func(ctx context.Context) error {
		return cartPage.Step(ctx, itemID, delta)
	})
}

// openCheckout builds a fresh checkout page, prefilled from the profile.
func (m Model) openCheckout() (tea.Model, tea.Cmd) {
	if problems := m.cart.Validate(); len(problems) > 0 {
		m.deps.Notify.Warning(problems[0])
		return m, nil
	}
	m.checkout = pages.NewCheckout(m.deps)
	m.checkoutForm = newCheckoutForm(m.checkout)
	m.lastOrder = nil
	m.currentView = ViewCheckout
	return m, nil
}

func newCheckoutForm(page *pages.Checkout) *formView[validation.AddressField] {
	return newFormView("Shipping address", page.Form, []fieldSpec[validation.AddressField]{
		{name: validation.AddressStreet, label: "Street"},
		{name: validation.AddressCity, label: "City"},
		{name: validation.AddressState, label: "State"},
		{name: validation.AddressPostalCode, label: "Postal code"},
		{name: validation.AddressCountry, label: "Country"},
		{name: validation.AddressPhone, label: "Phone"},
		{name: validation.AddressEmail, label: "Email"},
		{name: validation.AddressAdditionalInfo, label: "Notes", optional: true},
	})
}

// renderCart renders the cart lines and the order summary.
func (m Model) renderCart() string {
	styles := m.theme.Styles()
	st := m.cartState

	var b strings.Builder
	if m.lastOrder != nil {
		b.WriteString(styles.SuccessText.Render(orderLine(*m.lastOrder)))
		b.WriteString("\n\n")
	}
	if st.Err != nil {
		b.WriteString(styles.DangerText.Render(pages.Message(st.Err)))
		b.WriteString("\n\n")
	}

	items := st.Items()
	if len(items) == 0 {
		switch {
		case st.Loading:
			b.WriteString(m.spinner.View() + " Loading cart...")
		default:
			b.WriteString(styles.MutedText.Render("Your cart is empty. Press 1 to browse products."))
		}
		return b.String()
	}

	lines := m.renderCartLines(items, styles)
	summary := renderSummary(cart.Summarize(st.Cart.Value), styles)
	if m.width >= LayoutSummaryWidth {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, lines, "    ", summary))
	} else {
		b.WriteString(lines)
		b.WriteString("\n\n")
		b.WriteString(summary)
	}
	return b.String()
}

func (m Model) renderCartLines(items []cart.Item, styles Styles) string {
	nameWidth := maxInt(minInt(m.width, LayoutSummaryWidth)-44, 14)
	var b strings.Builder
	for i, item := range items {
		qty := fmt.Sprintf("× %d", item.Quantity)
		if pending := m.steps.Pending(item.ID); pending != 0 {
			qty += " (" + signed(pending) + ")"
		}
		line := " " + strings.Join([]string{
			padRight(truncate(item.Name, nameWidth), nameWidth),
			padRight(qty, 10),
			padRight(formatPrice(lineTotal(item)), 11),
		}, " ") + " "
		if i == m.cartRow {
			line = styles.Selected.Render(line)
		} else {
			line = styles.Text.Render(line)
		}
		b.WriteString(line + " " + styles.BadgeStyle(item.EcoBadge).Render(item.EcoBadge))
		if i < len(items)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func lineTotal(item cart.Item) float64 {
	if item.TotalPrice > 0 {
		return item.TotalPrice
	}
	return item.Price * float64(item.Quantity)
}

func renderSummary(sum cart.Summary, styles Styles) string {
	row := func(label, value string) string {
		return styles.MutedText.Render(padRight(label, 18)) + styles.Text.Render(value)
	}
	shipping := formatPrice(sum.Shipping)
	if sum.Shipping == 0 {
		shipping = "Free"
	}
	rows := []string{
		styles.AccentText.Bold(true).Render("Order summary"),
		row(fmt.Sprintf("Items (%d)", sum.TotalItems), formatPrice(sum.Subtotal)),
		row("Tax", formatPrice(sum.Tax)),
		row("Shipping", shipping),
		styles.Text.Bold(true).Render(padRight("Total", 18) + formatPrice(sum.Total)),
		row("Carbon footprint", formatCarbon(sum.TotalCarbonFootprint)),
	}
	return strings.Join(rows, "\n")
}

func orderLine(conf cart.Confirmation) string {
	if conf.OrderNumber == "" {
		return "Order placed."
	}
	line := fmt.Sprintf("Order %s placed · %s", conf.OrderNumber, formatPrice(conf.TotalAmount))
	if conf.Status != "" {
		line += " · " + conf.Status
	}
	return line
}

// renderCheckout renders the address form beside the summary.
func (m Model) renderCheckout() string {
	styles := m.theme.Styles()
	if m.checkoutForm == nil {
		return styles.MutedText.Render("Nothing to check out.")
	}
	form := m.checkoutForm.View(styles, minInt(m.width, 80))
	summary := renderSummary(cart.Summarize(m.cartState.Cart.Value), styles)
	if m.width >= LayoutSummaryWidth {
		return lipgloss.JoinHorizontal(lipgloss.Top, form, "    ", summary)
	}
	return form + "\n" + summary
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
