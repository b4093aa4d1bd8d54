package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/ecoshop/internal/cart"
	"github.com/five82/ecoshop/internal/session"
)

// renderHeader renders the status line: logo, user, cart and sync state.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{
		bg.Render("🌿 ecoshop", styles.Logo),
		bg.Render(m.userLabel(), styles.Text),
		bg.Render(m.cartLabel(), styles.AccentText),
	}
	if status, style := m.syncStatus(styles); status != "" {
		parts = append(parts, bg.Render(status, style))
	}
	left := bg.Join(parts, "  │  ")

	right := bg.Render(m.theme.Name, styles.FaintText)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		return bg.FillLine(bg.Space()+left, m.width)
	}
	return bg.FillLine(bg.Space()+left+bg.Spaces(gap)+right, m.width)
}

func (m Model) userLabel() string {
	if m.session == nil {
		return "guest"
	}
	user, ok := m.session.User()
	if !ok {
		if m.session.IsAuthenticated() {
			return "signed in"
		}
		return "guest"
	}
	label := user.DisplayName()
	if user.Role() == session.RoleBrandManager {
		label += " (brand manager)"
	}
	return label
}

// cartLabel shows the item count and where it came from: "~" marks a count
// that is still awaiting confirmation.
func (m Model) cartLabel() string {
	count := m.cartState.Count
	label := fmt.Sprintf("cart %d", count.Value)
	if count.Source == cart.SourceProvisional {
		label = fmt.Sprintf("cart ~%d", count.Value)
	}
	return label
}

func (m Model) syncStatus(styles Styles) (string, lipgloss.Style) {
	st := m.cartState
	switch {
	case st.Merging:
		return m.spinner.View() + " merging carts", styles.InfoText
	case st.IsOffline():
		return "offline", styles.DangerText
	case st.Cart.Source == cart.SourceFallback:
		return "saved copy", styles.WarningText
	case st.Loading || m.loading:
		return m.spinner.View() + " syncing", styles.MutedText
	}
	return "", styles.Text
}

// renderCommandBar renders the key hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.SurfaceAlt)

	var bindings []key.Binding
	switch m.currentView {
	case ViewProducts:
		bindings = []key.Binding{m.keys.Search, m.keys.Open, m.keys.AddToCart, m.keys.CycleSort, m.keys.CycleImpact, m.keys.NextPage, m.keys.PrevPage}
	case ViewDetail:
		bindings = []key.Binding{m.keys.AddToCart, m.keys.Escape}
	case ViewCart:
		bindings = []key.Binding{m.keys.Increment, m.keys.Decrement, m.keys.Remove, m.keys.ClearCart, m.keys.Checkout, m.keys.Refresh}
	case ViewAccount:
		if m.session != nil && m.session.IsAuthenticated() {
			bindings = []key.Binding{m.keys.ChangePassword, m.keys.Logout}
		} else {
			bindings = []key.Binding{m.keys.Login, m.keys.Register}
		}
	default:
		bindings = []key.Binding{m.keys.NextField, m.keys.Submit, m.keys.Escape}
	}
	if !m.inForm() {
		bindings = append(bindings, m.keys.Tab, m.keys.Help, m.keys.Quit)
	}

	segments := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		segments = append(segments, bg.Render(h.Key, styles.AccentText)+bg.Space()+bg.Render(strings.ToLower(h.Desc), styles.MutedText))
	}
	return bg.FillLine(bg.Space()+bg.Join(segments, "  "), m.width)
}
