package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/ecoshop/internal/cart"
	"github.com/five82/ecoshop/internal/kvstore"
	"github.com/five82/ecoshop/internal/notify"
	"github.com/five82/ecoshop/internal/pages"
	"github.com/five82/ecoshop/internal/prefs"
	"github.com/five82/ecoshop/internal/session"
	"github.com/five82/ecoshop/internal/storefront"
)

type fakeCart struct {
	mu      sync.Mutex
	items   []cart.Item
	updates map[int64]int
	cleared bool
}

func (f *fakeCart) GetCart(context.Context) (*cart.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := &cart.Snapshot{ID: 1}
	for _, item := range f.items {
		if q, ok := f.updates[item.ID]; ok {
			item.Quantity = q
		}
		snap.Items = append(snap.Items, item)
	}
	if f.cleared {
		snap.Items = nil
	}
	return snap, nil
}

func (f *fakeCart) AddItem(context.Context, int64, int) error { return nil }

func (f *fakeCart) UpdateItem(_ context.Context, itemID int64, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates[itemID] = quantity
	return nil
}

func (f *fakeCart) RemoveItem(context.Context, int64) error { return nil }

func (f *fakeCart) ClearCart(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = true
	return nil
}

func (f *fakeCart) Checkout(context.Context, map[string]string) (cart.Confirmation, error) {
	return cart.Confirmation{}, errors.New("not used")
}

func (f *fakeCart) MergeCarts(context.Context) error { return nil }

type fakeCatalog struct{}

func (fakeCatalog) List(context.Context, storefront.ProductFilter) (storefront.ProductPage, error) {
	return storefront.ProductPage{Count: 1, Results: []storefront.Product{bottle()}}, nil
}

func (fakeCatalog) Get(context.Context, string) (storefront.Product, error) {
	return bottle(), nil
}

func bottle() storefront.Product {
	return storefront.Product{
		ID:                  7,
		Name:                "Steel Bottle",
		Slug:                "steel-bottle",
		Price:               24.5,
		Stock:               12,
		BrandName:           "Verde",
		CarbonFootprint:     1.25,
		EcoBadge:            "🌿 low Impact",
		RecyclablePackaging: true,
		Description:         "Keeps drinks cold for a day.",
	}
}

type fixture struct {
	model  Model
	remote *fakeCart
	center *notify.Center
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := kvstore.NewMemory()

	sess, err := session.Open(ctx, nil, store, nil)
	require.NoError(t, err)

	remote := &fakeCart{
		items: []cart.Item{{
			ID:        70,
			ProductID: 7,
			Name:      "Steel Bottle",
			Price:     24.5,
			Quantity:  2,
			EcoBadge:  "🌿 low Impact",
			Product:   &cart.ProductRef{ID: 7, Name: "Steel Bottle", Price: 24.5},
		}},
		updates: make(map[int64]int),
	}
	synchronizer := cart.NewSynchronizer(remote, store)
	require.NoError(t, synchronizer.Refresh(ctx))

	center := notify.NewCenter(5, time.Minute)
	m := New(Options{
		Context:   ctx,
		Deps:      pages.Deps{Session: sess, Cart: synchronizer, Catalog: fakeCatalog{}, Notify: center},
		Session:   sess,
		Cart:      synchronizer,
		Center:    center,
		Products:  storefront.ProductPage{Count: 1, Results: []storefront.Product{bottle()}},
		PrefsPath: t.TempDir() + "/prefs.toml",
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 130, Height: 40})
	return fixture{model: updated.(Model), remote: remote, center: center}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var updated tea.Model
		updated, cmd = m.Update(msg)
		m = updated.(Model)
	}
	return m, cmd
}

func TestViewRendersHeaderAndProducts(t *testing.T) {
	f := newFixture(t)
	out := f.model.View()
	assert.Contains(t, out, "ecoshop")
	assert.Contains(t, out, "guest")
	assert.Contains(t, out, "cart 2")
	assert.Contains(t, out, "Steel Bottle")
	assert.Contains(t, out, "$24.50")
}

func TestTabCyclesMainViews(t *testing.T) {
	f := newFixture(t)
	m, _ := press(t, f.model, "tab")
	assert.Equal(t, ViewCart, m.currentView)
	m, _ = press(t, m, "tab")
	assert.Equal(t, ViewAccount, m.currentView)
	m, _ = press(t, m, "tab")
	assert.Equal(t, ViewProducts, m.currentView)

	assert.Equal(t, ViewAccount, cycleView(ViewProducts, -1))
	assert.Equal(t, ViewAccount, cycleView(ViewCheckout, 1))
}

func TestIncrementSendsStepThenFoldsRepeats(t *testing.T) {
	f := newFixture(t)
	m, _ := press(t, f.model, "2")
	require.Equal(t, ViewCart, m.currentView)

	m, cmd := press(t, m, "+")
	require.NotNil(t, cmd)
	updated, _ := m.Update(cmd())
	m = updated.(Model)
	assert.Equal(t, 3, f.remote.updates[70])
	assert.Equal(t, 3, m.cartState.Items()[0].Quantity)

	// Inside the window the press is held back and a flush is scheduled.
	m, cmd = press(t, m, "+")
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, m.steps.Pending(70))
	assert.Equal(t, 3, f.remote.updates[70])

	updated, cmd = m.Update(flushStepMsg{itemID: 70})
	m = updated.(Model)
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, 4, f.remote.updates[70])
	assert.Equal(t, 0, m.steps.Pending(70))
}

func TestClearCartNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	m, _ := press(t, f.model, "2", "C")
	require.NotNil(t, m.modal)
	assert.Contains(t, m.View(), "Clear cart")

	m, cmd := press(t, m, "n")
	assert.Nil(t, m.modal)
	assert.Nil(t, cmd)
	assert.False(t, f.remote.cleared)

	m, _ = press(t, m, "C")
	m, cmd = press(t, m, "y")
	require.NotNil(t, cmd)
	updated, _ := m.Update(cmd())
	m = updated.(Model)
	assert.True(t, f.remote.cleared)
	assert.Empty(t, m.cartState.Items())
}

func TestForcedLogoutShowsLogin(t *testing.T) {
	f := newFixture(t)
	updated, _ := f.model.Update(loggedOutMsg{forced: true})
	assert.Equal(t, ViewLogin, updated.(Model).currentView)

	updated, _ = f.model.Update(loggedOutMsg{forced: false})
	assert.Equal(t, ViewProducts, updated.(Model).currentView)
}

func TestLoginFormValidatesBeforeSubmitting(t *testing.T) {
	f := newFixture(t)
	m, _ := press(t, f.model, "3", "l")
	require.Equal(t, ViewLogin, m.currentView)

	// Typing "q" goes to the input rather than quitting.
	m, _ = press(t, m, "q")
	assert.Equal(t, "q", m.login.Form.Value("username"))
	assert.Empty(t, m.login.Form.VisibleError("username"))

	m, _ = press(t, m, "tab")
	assert.NotEmpty(t, m.login.Form.VisibleError("username"))

	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)
	msg := cmd()
	done, ok := msg.(loginDoneMsg)
	require.True(t, ok)
	assert.ErrorIs(t, done.err, pages.ErrInvalidForm)

	updated, _ := m.Update(msg)
	assert.Equal(t, ViewLogin, updated.(Model).currentView)

	m, _ = press(t, updated.(Model), "esc")
	assert.Equal(t, ViewAccount, m.currentView)
}

func TestThemeCyclePersists(t *testing.T) {
	f := newFixture(t)
	m, _ := press(t, f.model, "T")
	assert.Equal(t, "Kanagawa", m.theme.Name)
	assert.Equal(t, "Kanagawa", prefs.Load(m.prefsPath).Theme)
}

func TestSortCyclesAndReloads(t *testing.T) {
	f := newFixture(t)
	m, cmd := press(t, f.model, "s")
	require.NotNil(t, cmd)
	assert.Equal(t, "price", m.filter.Ordering)
	assert.True(t, m.loading)
	assert.Equal(t, "price", prefs.Load(m.prefsPath).Ordering)

	updated, _ := m.Update(cmd())
	m = updated.(Model)
	assert.False(t, m.loading)
	assert.Len(t, m.products.Results, 1)
}

func TestMyProductsRequiresBrandManager(t *testing.T) {
	f := newFixture(t)
	m, cmd := press(t, f.model, "m")
	require.NotNil(t, cmd)
	updated, _ := m.Update(cmd())
	m = updated.(Model)
	assert.ErrorIs(t, m.loadErr, pages.ErrForbidden)

	active := f.center.Active()
	require.NotEmpty(t, active)
	assert.Equal(t, pages.ErrForbidden.Error(), active[len(active)-1].Message)
}

func TestProductMarkdown(t *testing.T) {
	md := productMarkdown(bottle(), false)
	assert.True(t, strings.HasPrefix(md, "# Steel Bottle"))
	assert.Contains(t, md, "| Price | $24.50 |")
	assert.Contains(t, md, "| Carbon footprint | 1.25 kg CO₂e |")
	assert.Contains(t, md, "| Recyclable packaging | yes |")
	assert.NotContains(t, md, "Units in stock")
	assert.Contains(t, productMarkdown(bottle(), true), "| Units in stock | 12 |")
}

func TestStepper(t *testing.T) {
	s := newStepper(time.Hour)
	assert.True(t, s.Add(1, 1))
	assert.Equal(t, 1, s.Take(1))

	assert.False(t, s.Add(1, 1))
	assert.False(t, s.Add(1, -1))
	assert.False(t, s.Add(1, 1))
	assert.Equal(t, 1, s.Pending(1))
	assert.True(t, s.Schedule(1))
	assert.False(t, s.Schedule(1))
	assert.Equal(t, 1, s.Take(1))
	assert.True(t, s.Schedule(1))

	// Lines are limited independently.
	assert.True(t, s.Add(2, -1))
}

func TestStockLabel(t *testing.T) {
	assert.Equal(t, "out of stock", stockLabel(0))
	assert.Equal(t, "3 left", stockLabel(3))
	assert.Equal(t, "in stock", stockLabel(20))
}

func TestOrderingCycle(t *testing.T) {
	seen := map[string]bool{}
	o := ""
	for range orderings {
		seen[o] = true
		o = nextOrdering(o)
	}
	assert.Equal(t, "", o)
	assert.Len(t, seen, len(orderings))
	assert.Equal(t, "low", nextImpact(""))
	assert.Equal(t, "", nextImpact("high"))
}
