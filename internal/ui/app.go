package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/ecoshop/internal/cart"
	"github.com/five82/ecoshop/internal/notify"
	"github.com/five82/ecoshop/internal/pages"
	"github.com/five82/ecoshop/internal/prefs"
	"github.com/five82/ecoshop/internal/session"
	"github.com/five82/ecoshop/internal/storefront"
	"github.com/five82/ecoshop/internal/validation"
)

// View represents the current active view.
type View int

const (
	ViewProducts View = iota
	ViewDetail
	ViewCart
	ViewCheckout
	ViewAccount
	ViewLogin
	ViewRegister
	ViewPassword
)

// tabViews is the order tab cycles through.
var tabViews = []View{ViewProducts, ViewCart, ViewAccount}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Deps      pages.Deps
	Session   *session.Session
	Cart      *cart.Synchronizer
	Center    *notify.Center
	LoggedOut <-chan bool
	Products  storefront.ProductPage
	LoadErr   error
	Filter    storefront.ProductFilter
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
	Logger    *zap.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	deps      pages.Deps
	session   *session.Session
	cart      *cart.Synchronizer
	center    *notify.Center
	loggedOut <-chan bool
	logger    *zap.Logger
	prefs     prefs.Prefs
	prefsPath string
	pollTick  time.Duration

	// Page handlers
	cartPage *pages.Cart
	catalog  *pages.Products
	login    *pages.Login
	register *pages.Register
	password *pages.ChangePassword
	checkout *pages.Checkout

	// UI state
	theme       Theme
	keys        keyMap
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	modal       Modal
	spinner     spinner.Model

	// Catalogue state
	products       storefront.ProductPage
	loadErr        error
	filter         storefront.ProductFilter
	loading        bool
	selectedRow    int
	searching      bool
	search         textinput.Model
	detail         *storefront.Product
	detailViewport viewport.Model

	// Cart state
	cartState cart.State
	cartRow   int
	steps     *stepper
	lastOrder *cart.Confirmation

	// Forms
	loginForm    *formView[validation.LoginField]
	registerForm *formView[validation.AccountField]
	passwordForm *formView[validation.PasswordField]
	checkoutForm *formView[validation.AddressField]

	toasts []notify.Notification
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	center := opts.Center
	if center == nil {
		center = notify.NewCenter(MaxToasts, 0)
	}

	deps := opts.Deps
	if deps.Session == nil {
		deps.Session = opts.Session
	}
	if deps.Cart == nil {
		deps.Cart = opts.Cart
	}
	if deps.Notify == nil {
		deps.Notify = center
	}
	if deps.Logger == nil {
		deps.Logger = logger
	}

	search := textinput.New()
	search.Placeholder = "Search products"
	search.Prompt = "/ "
	search.CharLimit = 100

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	filter := opts.Filter
	if filter.Limit == 0 {
		filter.Limit = ProductPageSize
	}

	m := Model{
		ctx:         ctx,
		deps:        deps,
		session:     deps.Session,
		cart:        deps.Cart,
		center:      center,
		loggedOut:   opts.LoggedOut,
		logger:      logger,
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		cartPage:    pages.NewCart(deps),
		catalog:     pages.NewProducts(deps),
		login:       pages.NewLogin(deps),
		register:    pages.NewRegister(deps),
		password:    pages.NewChangePassword(deps),
		theme:       GetTheme(opts.Prefs.Theme),
		keys:        DefaultKeyMap(),
		currentView: ViewProducts,
		spinner:     sp,
		products:    opts.Products,
		loadErr:     opts.LoadErr,
		filter:      filter,
		search:      search,
		steps:       newStepper(StepWindow),
	}
	m.loginForm = newLoginForm(m.login)
	m.registerForm = newRegisterForm(m.register)
	m.passwordForm = newPasswordForm(m.password)
	if m.cart != nil {
		m.cartState = m.cart.State()
	}
	if opts.LoadErr != nil {
		m.deps.Notify.Error(pages.Message(opts.LoadErr))
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.pollTick),
		m.spinner.Tick,
		waitForToast(m.ctx, m.center),
		waitForLogout(m.ctx, m.loggedOut),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.detailViewport = viewport.New(msg.Width, m.contentHeight())
		}
		m.ready = true
		m.detailViewport.Width = msg.Width
		m.detailViewport.Height = m.contentHeight()
		m.updateDetailViewport()
		return m, nil

	case tickMsg:
		m.syncCart()
		m.toasts = m.center.Active()
		return m, tickCmd(m.pollTick)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case toastMsg:
		m.toasts = m.center.Active()
		return m, waitForToast(m.ctx, m.center)

	case loggedOutMsg:
		return m.handleLoggedOut(msg)

	case productsMsg:
		m.loading = false
		m.loadErr = msg.err
		if msg.err == nil {
			m.products = msg.page
			m.selectedRow = clampRow(m.selectedRow, len(m.products.Results))
		}
		return m, nil

	case productMsg:
		if msg.err == nil {
			p := msg.product
			m.detail = &p
			m.updateDetailViewport()
		}
		return m, nil

	case cartDoneMsg:
		m.syncCart()
		m.toasts = m.center.Active()
		return m, nil

	case flushStepMsg:
		if delta := m.steps.Take(msg.itemID); delta != 0 {
			return m, m.stepCmd(msg.itemID, delta)
		}
		return m, nil

	case loginDoneMsg:
		m.loginForm.sync()
		if msg.err == nil {
			m.currentView = ViewAccount
		}
		m.syncCart()
		return m, nil

	case registerDoneMsg:
		m.registerForm.sync()
		if msg.err == nil {
			m.currentView = ternaryView(msg.signedIn, ViewAccount, ViewLogin)
		}
		return m, nil

	case passwordDoneMsg:
		m.passwordForm.sync()
		if msg.err == nil {
			m.currentView = ViewAccount
		}
		return m, nil

	case checkoutDoneMsg:
		m.syncCart()
		if msg.err == nil {
			conf := msg.confirmation
			m.lastOrder = &conf
			m.currentView = ViewCart
			m.checkout = nil
			m.checkoutForm = nil
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		modal, cmd, closeModal := m.modal.Update(msg, m.keys)
		if closeModal {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Text entry owns the keyboard until esc.
	if m.searching {
		return m.handleSearchKey(msg)
	}
	if m.inForm() {
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		m.currentView = cycleView(m.currentView, 1)
		return m, nil

	case key.Matches(msg, m.keys.ShiftTab):
		m.currentView = cycleView(m.currentView, -1)
		return m, nil

	case key.Matches(msg, m.keys.ViewProducts):
		m.currentView = ViewProducts
		return m, nil

	case key.Matches(msg, m.keys.ViewCart):
		m.currentView = ViewCart
		return m, nil

	case key.Matches(msg, m.keys.ViewAccount):
		m.currentView = ViewAccount
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		if m.currentView == ViewDetail {
			m.currentView = ViewProducts
		}
		return m, nil
	}

	switch m.currentView {
	case ViewProducts:
		return m.handleProductsKey(msg)
	case ViewDetail:
		return m.handleDetailKey(msg)
	case ViewCart:
		return m.handleCartKey(msg)
	case ViewAccount:
		return m.handleAccountKey(msg)
	}

	return m, nil
}

func (m Model) inForm() bool {
	switch m.currentView {
	case ViewLogin, ViewRegister, ViewPassword, ViewCheckout:
		return true
	}
	return false
}

// handleFormKey routes keys to the active form. esc leaves the form.
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Escape) {
		if m.currentView == ViewCheckout {
			m.currentView = ViewCart
		} else {
			m.currentView = ViewAccount
		}
		return m, nil
	}

	var (
		submit bool
		cmd    tea.Cmd
		send   func() tea.Cmd
	)
	switch m.currentView {
	case ViewLogin:
		submit, cmd = m.loginForm.Update(msg, m.keys)
		send = m.submitLogin
	case ViewRegister:
		submit, cmd = m.registerForm.Update(msg, m.keys)
		send = m.submitRegister
	case ViewPassword:
		submit, cmd = m.passwordForm.Update(msg, m.keys)
		send = m.submitPassword
	case ViewCheckout:
		if m.checkoutForm == nil {
			return m, nil
		}
		submit, cmd = m.checkoutForm.Update(msg, m.keys)
		send = m.submitCheckout
	}
	if submit && send != nil {
		return m, send()
	}
	return m, cmd
}

// handleLoggedOut reacts to a logout. A forced logout (rejected token) sends
// the user to the login form.
func (m Model) handleLoggedOut(msg loggedOutMsg) (tea.Model, tea.Cmd) {
	m.syncCart()
	m.lastOrder = nil
	m.checkout = nil
	m.checkoutForm = nil
	if msg.forced {
		m.login.Form.ResetForm()
		m.loginForm.sync()
		m.loginForm.setFocus(0)
		m.currentView = ViewLogin
		m.logger.Info("session expired, showing login")
	}
	return m, waitForLogout(m.ctx, m.loggedOut)
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.prefs.Theme = m.theme.Name
	m.savePrefs()
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save preferences", zap.Error(err))
	}
}

func (m *Model) syncCart() {
	if m.cart == nil {
		return
	}
	m.cartState = m.cart.State()
	m.cartRow = clampRow(m.cartRow, len(m.cartState.Items()))
}

func (m Model) contentHeight() int {
	// header, command bar, toasts
	return maxInt(m.height-2-MaxToasts, 1)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	// Header line 1: logo + status
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: command bar
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	content := lipgloss.NewStyle().
		Width(m.width).
		Height(m.contentHeight()).
		MaxHeight(m.contentHeight()).
		Render(m.renderContent())
	b.WriteString(content)
	b.WriteString("\n")

	b.WriteString(m.renderToasts())

	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewProducts:
		return m.renderProducts()
	case ViewDetail:
		return m.renderDetail()
	case ViewCart:
		return m.renderCart()
	case ViewCheckout:
		return m.renderCheckout()
	case ViewAccount:
		return m.renderAccount()
	case ViewLogin:
		return m.loginForm.View(m.theme.Styles(), m.width)
	case ViewRegister:
		return m.registerForm.View(m.theme.Styles(), m.width)
	case ViewPassword:
		return m.passwordForm.View(m.theme.Styles(), m.width)
	default:
		return ""
	}
}

func cycleView(current View, delta int) View {
	idx := 0
	switch current {
	case ViewCart, ViewCheckout:
		idx = 1
	case ViewAccount, ViewLogin, ViewRegister, ViewPassword:
		idx = 2
	}
	n := len(tabViews)
	return tabViews[((idx+delta)%n+n)%n]
}

func clampRow(row, count int) int {
	if count == 0 || row < 0 {
		return 0
	}
	if row >= count {
		return count - 1
	}
	return row
}

func ternaryView(cond bool, a, b View) View {
	if cond {
		return a
	}
	return b
}

// Messages

type tickMsg time.Time

type toastMsg struct{}

type loggedOutMsg struct{ forced bool }

type productsMsg struct {
	page storefront.ProductPage
	err  error
}

type productMsg struct {
	product storefront.Product
	err     error
}

type cartDoneMsg struct{ err error }

type flushStepMsg struct{ itemID int64 }

type loginDoneMsg struct {
	user session.User
	err  error
}

type registerDoneMsg struct {
	signedIn bool
	err      error
}

type passwordDoneMsg struct{ err error }

type checkoutDoneMsg struct {
	confirmation cart.Confirmation
	err          error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForToast(ctx context.Context, center *notify.Center) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-center.Changed():
			return toastMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func waitForLogout(ctx context.Context, ch <-chan bool) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case forced := <-ch:
			return loggedOutMsg{forced: forced}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m Model) submitLogin() tea.Cmd {
	ctx, login := m.ctx, m.login
	return func() tea.Msg {
		user, err := login.Submit(ctx)
		return loginDoneMsg{user: user, err: err}
	}
}

func (m Model) submitRegister() tea.Cmd {
	ctx, register := m.ctx, m.register
	return func() tea.Msg {
		signedIn, err := register.Submit(ctx)
		return registerDoneMsg{signedIn: signedIn, err: err}
	}
}

func (m Model) submitPassword() tea.Cmd {
	ctx, password := m.ctx, m.password
	return func() tea.Msg {
		return passwordDoneMsg{err: password.Submit(ctx)}
	}
}

func (m Model) submitCheckout() tea.Cmd {
	ctx, checkout := m.ctx, m.checkout
	if checkout == nil {
		return nil
	}
	return func() tea.Msg {
		conf, err := checkout.Submit(ctx)
		return checkoutDoneMsg{confirmation: conf, err: err}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	ctx, deps := m.ctx, m.deps
	return func() tea.Msg {
		pages.Logout(ctx, deps)
		return cartDoneMsg{}
	}
}

// cartCmd runs a cart page action and reports completion.
func (m Model) cartCmd(action func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return cartDoneMsg{err: action(ctx)}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
