package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/ecoshop/internal/pages"
	"github.com/five82/ecoshop/internal/session"
	"github.com/five82/ecoshop/internal/storefront"
)

// orderings are the sort orders the catalogue cycles through.
var orderings = []struct {
	value string
	label string
}{
	{"", "Featured"},
	{"price", "Price ↑"},
	{"-price", "Price ↓"},
	{"name", "Name"},
	{"carbon_footprint", "Lowest carbon"},
}

// impactFilters are the eco badge filters the catalogue cycles through.
var impactFilters = []string{"", "low", "medium", "high"}

func nextOrdering(current string) string {
	for i, o := range orderings {
		if o.value == current {
			return orderings[(i+1)%len(orderings)].value
		}
	}
	return orderings[0].value
}

func orderingLabel(value string) string {
	for _, o := range orderings {
		if o.value == value {
			return o.label
		}
	}
	return value
}

func nextImpact(current string) string {
	for i, f := range impactFilters {
		if f == current {
			return impactFilters[(i+1)%len(impactFilters)]
		}
	}
	return impactFilters[0]
}

// handleProductsKey processes keyboard input for the product list.
func (m Model) handleProductsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.products.Results)

	switch {
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(m.filter.Search)
		m.search.CursorEnd()
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Refresh):
		return m.reloadProducts()

	case key.Matches(msg, m.keys.CycleSort):
		m.filter.Ordering = nextOrdering(m.filter.Ordering)
		m.filter.Page = 0
		m.prefs.Ordering = m.filter.Ordering
		m.savePrefs()
		return m.reloadProducts()

	case key.Matches(msg, m.keys.CycleImpact):
		m.filter.EcoBadge = nextImpact(m.filter.EcoBadge)
		m.filter.Page = 0
		m.prefs.EcoBadge = m.filter.EcoBadge
		m.savePrefs()
		return m.reloadProducts()

	case key.Matches(msg, m.keys.MyProducts):
		m.filter.MyProducts = !m.filter.MyProducts
		m.filter.Page = 0
		return m.reloadProducts()

	case key.Matches(msg, m.keys.NextPage):
		if m.products.Next == "" {
			return m, nil
		}
		m.filter.Page = maxInt(m.filter.Page, 1) + 1
		return m.reloadProducts()

	case key.Matches(msg, m.keys.PrevPage):
		if m.filter.Page <= 1 {
			return m, nil
		}
		m.filter.Page--
		return m.reloadProducts()
	}

	if count == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < count-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = count - 1
	case key.Matches(msg, m.keys.Open):
		p := m.products.Results[m.selectedRow]
		m.detail = &p
		m.currentView = ViewDetail
		m.updateDetailViewport()
		return m, m.loadProductCmd(p.Slug)
	case key.Matches(msg, m.keys.AddToCart):
		return m, m.addCmd(m.products.Results[m.selectedRow])
	}
	return m, nil
}

// handleSearchKey edits the search box. enter applies, esc cancels.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		m.filter.Search = strings.TrimSpace(m.search.Value())
		m.filter.Page = 0
		m.selectedRow = 0
		return m.reloadProducts()
	case "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// handleDetailKey processes keyboard input for the product detail view.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.AddToCart) && m.detail != nil {
		return m, m.addCmd(*m.detail)
	}
	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m Model) reloadProducts() (tea.Model, tea.Cmd) {
	m.loading = true
	return m, m.loadProductsCmd()
}

func (m Model) loadProductsCmd() tea.Cmd {
	ctx, catalog, filter := m.ctx, m.catalog, m.filter
	return func() tea.Msg {
		page, err := catalog.List(ctx, filter)
		return productsMsg{page: page, err: err}
	}
}

func (m Model) loadProductCmd(slug string) tea.Cmd {
	if slug == "" {
		return nil
	}
	ctx, catalog := m.ctx, m.catalog
	return func() tea.Msg {
		product, err := catalog.Get(ctx, slug)
		return productMsg{product: product, err: err}
	}
}

func (m Model) addCmd(p storefront.Product) tea.Cmd {
	cartPage := m.cartPage
	return m.cartCmd(func(ctx context.Context) error {
		return cartPage.Add(ctx, p, 1)
	})
}

// renderProducts renders the filter line and the product list.
func (m Model) renderProducts() string {
	styles := m.theme.Styles()
	var b strings.Builder

	if m.searching {
		b.WriteString(m.search.View())
	} else {
		b.WriteString(styles.MutedText.Render(m.filterSummary()))
	}
	b.WriteString("\n\n")

	if m.loadErr != nil && len(m.products.Results) == 0 {
		b.WriteString(styles.DangerText.Render("Could not load products: " + pages.Message(m.loadErr)))
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("Press r to retry."))
		return b.String()
	}
	if len(m.products.Results) == 0 {
		if m.loading {
			b.WriteString(m.spinner.View() + " Loading products...")
		} else {
			b.WriteString(styles.MutedText.Render("No products match."))
		}
		return b.String()
	}

	compact := m.width < LayoutCompactWidth
	nameWidth := maxInt(m.width-50, 16)
	if compact {
		nameWidth = maxInt(m.width-30, 12)
	}

	rows := m.contentHeight() - 3
	start := 0
	if rows > 0 && m.selectedRow >= rows {
		start = m.selectedRow - rows + 1
	}
	for i := start; i < len(m.products.Results); i++ {
		if rows > 0 && i-start >= rows {
			break
		}
		b.WriteString(m.productRow(m.products.Results[i], i == m.selectedRow, nameWidth, compact, styles))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) productRow(p storefront.Product, selected bool, nameWidth int, compact bool, styles Styles) string {
	cols := []string{
		padRight(truncate(p.Name, nameWidth), nameWidth),
		padRight(formatPrice(p.Price.Float()), 10),
	}
	if !compact {
		cols = append(cols,
			padRight(truncate(p.BrandName, 16), 16),
			padRight(stockLabel(p.Stock), 12),
		)
	}
	line := " " + strings.Join(cols, " ") + " "
	if selected {
		line = styles.Selected.Render(line)
	} else {
		line = styles.Text.Render(line)
	}
	return line + " " + styles.BadgeStyle(p.Badge()).Render(p.Badge())
}

func stockLabel(stock int) string {
	switch {
	case stock <= 0:
		return "out of stock"
	case stock < 5:
		return fmt.Sprintf("%d left", stock)
	default:
		return "in stock"
	}
}

func (m Model) filterSummary() string {
	parts := []string{"Sort: " + orderingLabel(m.filter.Ordering)}
	if m.filter.EcoBadge != "" {
		parts = append(parts, "Impact: "+m.filter.EcoBadge)
	}
	if m.filter.Search != "" {
		parts = append(parts, fmt.Sprintf("Search: %q", m.filter.Search))
	}
	if m.filter.MyProducts {
		parts = append(parts, "My products")
	}
	page := maxInt(m.filter.Page, 1)
	parts = append(parts, fmt.Sprintf("Page %d", page))
	if m.products.Count > 0 {
		parts = append(parts, fmt.Sprintf("%d products", m.products.Count))
	}
	return strings.Join(parts, " · ")
}

// renderDetail renders the selected product.
func (m Model) renderDetail() string {
	if m.detail == nil {
		return m.theme.Styles().MutedText.Render("No product selected.")
	}
	return m.detailViewport.View()
}

func (m *Model) updateDetailViewport() {
	if !m.ready || m.detail == nil {
		return
	}
	m.detailViewport.SetContent(renderMarkdown(productMarkdown(*m.detail, m.canManage()), m.width-4))
	m.detailViewport.GotoTop()
}

func (m Model) canManage() bool {
	return m.session != nil && m.session.HasRole(session.RoleBrandManager)
}

// productMarkdown describes a product for the detail view.
func productMarkdown(p storefront.Product, manager bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Name)
	if p.BrandName != "" || p.CategoryName != "" {
		fmt.Fprintf(&b, "**%s**", strings.TrimSpace(p.BrandName))
		if p.CategoryName != "" {
			fmt.Fprintf(&b, " · %s", p.CategoryName)
		}
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Price | %s |\n", formatPrice(p.Price.Float()))
	fmt.Fprintf(&b, "| Availability | %s |\n", stockLabel(p.Stock))
	fmt.Fprintf(&b, "| Eco impact | %s |\n", p.Badge())
	fmt.Fprintf(&b, "| Carbon footprint | %s |\n", formatCarbon(p.CarbonFootprint.Float()))
	if p.OriginCountry != "" {
		fmt.Fprintf(&b, "| Origin | %s |\n", p.OriginCountry)
	}
	fmt.Fprintf(&b, "| Recyclable packaging | %s |\n", ternary(p.RecyclablePackaging, "yes", "no"))
	if manager {
		fmt.Fprintf(&b, "| Units in stock | %d |\n", p.Stock)
	}
	if desc := strings.TrimSpace(p.Description); desc != "" {
		b.WriteString("\n")
		b.WriteString(desc)
		b.WriteString("\n")
	}
	if p.ImageURL != "" {
		fmt.Fprintf(&b, "\n[Image](%s)\n", p.ImageURL)
	}
	return b.String()
}

// renderMarkdown renders markdown for the terminal, falling back to the raw
// text when glamour cannot.
func renderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(maxInt(width, 20)),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return lipgloss.NewStyle().PaddingLeft(1).Render(strings.TrimRight(out, "\n"))
}
