package pages

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/ecoshop/internal/cart"
	"github.com/five82/ecoshop/internal/form"
	"github.com/five82/ecoshop/internal/kvstore"
	"github.com/five82/ecoshop/internal/notify"
	"github.com/five82/ecoshop/internal/session"
	"github.com/five82/ecoshop/internal/storefront"
	"github.com/five82/ecoshop/internal/validation"
)

type note struct {
	level notify.Level
	msg   string
}

type recorder struct {
	mu    sync.Mutex
	notes []note
}

func (r *recorder) add(level notify.Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{level, msg})
}

func (r *recorder) Success(msg string) { r.add(notify.LevelSuccess, msg) }
func (r *recorder) Error(msg string)   { r.add(notify.LevelError, msg) }
func (r *recorder) Warning(msg string) { r.add(notify.LevelWarning, msg) }
func (r *recorder) Info(msg string)    { r.add(notify.LevelInfo, msg) }

func (r *recorder) only(t *testing.T) note {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.notes, 1, "notifications: %v", r.notes)
	return r.notes[0]
}

type fakeAuth struct {
	loginErr    error
	passwordErr error
	user        session.User
	logins      int
}

func (f *fakeAuth) Login(_ context.Context, username, _ string) (session.LoginResult, error) {
	f.logins++
	if f.loginErr != nil {
		return session.LoginResult{}, f.loginErr
	}
	u := f.user
	u.Username = username
	return session.LoginResult{Token: "tok-" + username, User: u}, nil
}

func (f *fakeAuth) Logout(context.Context) error { return nil }

func (f *fakeAuth) Profile(context.Context) (session.User, error) { return f.user, nil }

func (f *fakeAuth) ChangePassword(context.Context, string, string) error { return f.passwordErr }

// shop is a tiny cart service keyed by product id.
type shop struct {
	mu      sync.Mutex
	lines   map[int64]int
	prices  map[int64]float64
	errs    map[string]error
	merges  int
	orders  int
	address map[string]string
}

func newShop() *shop {
	return &shop{
		lines:  map[int64]int{},
		prices: map[int64]float64{1: 10, 2: 4.5},
		errs:   map[string]error{},
	}
}

func (s *shop) err(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs[op]
}

func (s *shop) GetCart(context.Context) (*cart.Snapshot, error) {
	if err := s.err("get"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := &cart.Snapshot{ID: 1}
	for _, id := range []int64{1, 2} {
		qty, ok := s.lines[id]
		if !ok {
			continue
		}
		name := fmt.Sprintf("Product %d", id)
		snap.Items = append(snap.Items, cart.Item{
			ID: id * 10, ProductID: id, Name: name,
			Price: s.prices[id], Quantity: qty, TotalPrice: s.prices[id] * float64(qty),
			Product: &cart.ProductRef{ID: id, Name: name, Price: s.prices[id]},
		})
		snap.TotalItems += qty
		snap.TotalPrice += s.prices[id] * float64(qty)
	}
	return snap, nil
}

func (s *shop) AddItem(_ context.Context, productID int64, quantity int) error {
	if err := s.err("add"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[productID] += quantity
	return nil
}

func (s *shop) UpdateItem(_ context.Context, itemID int64, quantity int) error {
	if err := s.err("update"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines[itemID/10] = quantity
	return nil
}

func (s *shop) RemoveItem(_ context.Context, itemID int64) error {
	if err := s.err("remove"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lines, itemID/10)
	return nil
}

func (s *shop) ClearCart(context.Context) error {
	if err := s.err("clear"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = map[int64]int{}
	return nil
}

func (s *shop) Checkout(_ context.Context, address map[string]string) (cart.Confirmation, error) {
	if err := s.err("checkout"); err != nil {
		return cart.Confirmation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders++
	s.address = address
	s.lines = map[int64]int{}
	return cart.Confirmation{OrderID: 9, OrderNumber: "ECO-0009", TotalAmount: 24.5}, nil
}

func (s *shop) MergeCarts(context.Context) error {
	s.mu.Lock()
	s.merges++
	s.mu.Unlock()
	return s.err("merge")
}

type fixture struct {
	deps  Deps
	auth  *fakeAuth
	shop  *shop
	store *kvstore.Memory
	notes *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		auth:  &fakeAuth{user: session.User{ID: 3, FirstName: "Ana", LastName: "López", Email: "ana@example.com"}},
		shop:  newShop(),
		store: kvstore.NewMemory(),
		notes: &recorder{},
	}
	sess, err := session.Open(ctx, f.auth, f.store, nil)
	require.NoError(t, err)
	f.deps = Deps{
		Session: sess,
		Cart:    cart.NewSynchronizer(f.shop, f.store),
		Notify:  f.notes,
	}
	return f
}

func (f *fixture) signIn(t *testing.T) {
	t.Helper()
	_, err := f.deps.Session.Login(context.Background(), "ana", "secret1")
	require.NoError(t, err)
}

func TestLoginInvalidFormDoesNotCallRemote(t *testing.T) {
	f := newFixture(t)
	page := NewLogin(f.deps)
	page.Form.UpdateField(validation.LoginUsername, "ab")

	_, err := page.Submit(context.Background())
	require.ErrorIs(t, err, ErrInvalidForm)
	assert.Zero(t, f.auth.logins)
	assert.Empty(t, f.notes.notes)
	assert.Equal(t, "Password is required", page.Form.VisibleError(validation.LoginPassword))
}

func TestLoginSuccessMergesCart(t *testing.T) {
	f := newFixture(t)
	page := NewLogin(f.deps)
	page.Form.UpdateFields(map[validation.LoginField]string{
		validation.LoginUsername: "ana_l",
		validation.LoginPassword: "secret1",
	})

	user, err := page.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ana_l", user.Username)
	assert.True(t, f.deps.Session.IsAuthenticated())
	assert.Equal(t, 1, f.shop.merges)
	assert.Equal(t, note{notify.LevelSuccess, "Welcome back, Ana López!"}, f.notes.only(t))
	assert.Empty(t, page.Form.Value(validation.LoginPassword))
	assert.False(t, page.Form.Submitting())
}

func TestLoginFailureNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	f.auth.loginErr = &storefront.APIError{Status: 400, Message: "Invalid credentials"}
	page := NewLogin(f.deps)
	page.Form.UpdateFields(map[validation.LoginField]string{
		validation.LoginUsername: "ana",
		validation.LoginPassword: "wrongpw",
	})

	_, err := page.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, note{notify.LevelError, "Invalid credentials"}, f.notes.only(t))
	assert.Equal(t, "Invalid credentials", page.Form.VisibleError(form.General[validation.LoginField]()))
	assert.False(t, page.Form.Submitting())
	assert.False(t, f.deps.Session.IsAuthenticated())
}

type fakeRegistrar struct {
	res session.LoginResult
	err error
	got map[validation.AccountField]string
}

func (r *fakeRegistrar) Register(_ context.Context, values map[validation.AccountField]string) (session.LoginResult, error) {
	r.got = values
	return r.res, r.err
}

func fillAccount(f *form.Form[validation.AccountField, string]) {
	f.UpdateFields(map[validation.AccountField]string{
		validation.AccountUsername:        "maria.lopez",
		validation.AccountEmail:           "maria@example.com",
		validation.AccountPassword:        "secret1",
		validation.AccountPasswordConfirm: "secret1",
		validation.AccountFirstName:       "María",
		validation.AccountLastName:        "López",
	})
}

func TestRegisterAdoptsReturnedToken(t *testing.T) {
	f := newFixture(t)
	reg := &fakeRegistrar{res: session.LoginResult{Token: "new-token", User: session.User{Username: "maria.lopez", FirstName: "María"}}}
	f.deps.Registrar = reg
	page := NewRegister(f.deps)
	fillAccount(page.Form)

	signedIn, err := page.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, signedIn)
	assert.Equal(t, "maria.lopez", reg.got[validation.AccountUsername])
	assert.Equal(t, "new-token", f.deps.Session.Token())
	assert.Equal(t, 1, f.shop.merges)
	assert.Equal(t, notify.LevelSuccess, f.notes.only(t).level)
}

func TestRegisterWithoutTokenAsksForLogin(t *testing.T) {
	f := newFixture(t)
	f.deps.Registrar = &fakeRegistrar{}
	page := NewRegister(f.deps)
	fillAccount(page.Form)

	signedIn, err := page.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, signedIn)
	assert.False(t, f.deps.Session.IsAuthenticated())
	assert.Equal(t, note{notify.LevelSuccess, "Account created. Please log in."}, f.notes.only(t))
}

func TestRegisterFieldErrorsFromAPI(t *testing.T) {
	f := newFixture(t)
	f.deps.Registrar = &fakeRegistrar{err: &storefront.APIError{
		Status:  400,
		Message: "Error 400: Bad Request",
		Fields:  map[string][]string{"username": {"A user with that username already exists."}},
	}}
	page := NewRegister(f.deps)
	fillAccount(page.Form)

	_, err := page.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "username: A user with that username already exists.", f.notes.only(t).msg)
}

func TestChangePasswordRequiresSession(t *testing.T) {
	f := newFixture(t)
	page := NewChangePassword(f.deps)
	page.Form.UpdateFields(map[validation.PasswordField]string{
		validation.PasswordCurrent: "secret1",
		validation.PasswordNew:     "secret2",
	})

	require.Error(t, page.Submit(context.Background()))
	assert.Equal(t, note{notify.LevelError, "Please log in first"}, f.notes.only(t))

	f.notes.notes = nil
	f.signIn(t)
	require.NoError(t, page.Submit(context.Background()))
	assert.Equal(t, note{notify.LevelSuccess, "Password updated successfully"}, f.notes.only(t))
}

func TestLogoutResetsCart(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	f.shop.lines[1] = 2
	require.NoError(t, f.deps.Cart.Refresh(context.Background()))

	Logout(context.Background(), f.deps)
	assert.False(t, f.deps.Session.IsAuthenticated())
	assert.Zero(t, f.deps.Cart.State().Count.Value)
	assert.Equal(t, notify.LevelInfo, f.notes.only(t).level)
}

func product(id int64, stock int) storefront.Product {
	return storefront.Product{ID: storefront.ID(id), Name: fmt.Sprintf("Product %d", id), Price: 10, Stock: stock}
}

func TestCartAddNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	page := NewCart(f.deps)

	require.NoError(t, page.Add(context.Background(), product(1, 5), 2))
	assert.Equal(t, note{notify.LevelSuccess, "Added 2 × Product 1 to cart"}, f.notes.only(t))
	assert.Equal(t, 2, f.deps.Cart.State().Count.Value)
}

func TestCartAddBeyondStock(t *testing.T) {
	f := newFixture(t)
	page := NewCart(f.deps)

	err := page.Add(context.Background(), product(1, 1), 3)
	var inputErr *cart.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, notify.LevelWarning, f.notes.only(t).level)
	assert.Empty(t, f.shop.lines)
}

func TestCartAddFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	f.shop.errs["add"] = errors.New("boom")
	page := NewCart(f.deps)

	err := page.Add(context.Background(), product(2, 0), 1)
	require.Error(t, err)
	assert.True(t, IsNotified(err))
	assert.Equal(t, note{notify.LevelError, "Something went wrong: add item: boom"}, f.notes.only(t))
	assert.Zero(t, f.deps.Cart.State().Count.Value)
}

func TestCartStep(t *testing.T) {
	f := newFixture(t)
	f.shop.lines[1] = 1
	require.NoError(t, f.deps.Cart.Refresh(context.Background()))
	page := NewCart(f.deps)

	require.NoError(t, page.Step(context.Background(), 10, 2))
	assert.Equal(t, 3, f.shop.lines[1])

	f.notes.notes = nil
	err := page.Step(context.Background(), 10, 97)
	require.Error(t, err)
	assert.Equal(t, note{notify.LevelWarning, "Cannot add more than 99 of the same product"}, f.notes.only(t))

	f.notes.notes = nil
	require.NoError(t, page.Step(context.Background(), 10, -3))
	assert.NotContains(t, f.shop.lines, int64(1))
	assert.Equal(t, note{notify.LevelSuccess, "Removed Product 1 from cart"}, f.notes.only(t))
}

func TestCartRefreshFallbackWarns(t *testing.T) {
	f := newFixture(t)
	f.shop.lines[2] = 4
	page := NewCart(f.deps)
	require.NoError(t, page.Refresh(context.Background()))
	assert.Empty(t, f.notes.notes)

	f.shop.errs["get"] = errors.New("connection refused")
	require.Error(t, page.Refresh(context.Background()))
	assert.Equal(t, notify.LevelWarning, f.notes.only(t).level)
	assert.Equal(t, 4, f.deps.Cart.State().Count.Value)
}

func TestCartClearFailure(t *testing.T) {
	f := newFixture(t)
	f.shop.errs["clear"] = storefront.ErrUnauthorized
	page := NewCart(f.deps)

	require.Error(t, page.Clear(context.Background()))
	assert.Equal(t, note{notify.LevelError, "Session expired. Please log in again."}, f.notes.only(t))
}

func validShipping() map[validation.AddressField]string {
	return map[validation.AddressField]string{
		validation.AddressStreet:     "Av. Reforma 100",
		validation.AddressCity:       "CDMX",
		validation.AddressState:      "CDMX",
		validation.AddressPostalCode: "06600",
		validation.AddressCountry:    "MX",
	}
}

func TestCheckoutPrefillsFromUser(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	page := NewCheckout(f.deps)
	assert.Equal(t, "ana@example.com", page.Form.Value(validation.AddressEmail))
}

func TestCheckoutInvalidAddress(t *testing.T) {
	f := newFixture(t)
	page := NewCheckout(f.deps)

	_, err := page.Submit(context.Background())
	require.ErrorIs(t, err, ErrInvalidForm)
	assert.Empty(t, f.notes.notes)
	assert.Equal(t, "STREET is required", page.Form.VisibleError(validation.AddressStreet))
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	page := NewCheckout(f.deps)
	page.Form.UpdateFields(validShipping())

	_, err := page.Submit(context.Background())
	var checkoutErr *cart.CheckoutError
	require.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, notify.LevelError, f.notes.only(t).level)
	assert.Zero(t, f.shop.orders)
}

func TestCheckoutPlacesOrder(t *testing.T) {
	f := newFixture(t)
	f.shop.lines[1] = 2
	require.NoError(t, f.deps.Cart.Refresh(context.Background()))
	page := NewCheckout(f.deps)
	page.Form.UpdateFields(validShipping())

	conf, err := page.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ECO-0009", conf.OrderNumber)
	assert.Equal(t, note{notify.LevelSuccess, "Order ECO-0009 placed. Total $24.50"}, f.notes.only(t))
	assert.Equal(t, "06600", f.shop.address["postal_code"])
	assert.Zero(t, f.deps.Cart.State().Count.Value)
}

type fakeCatalog struct {
	page storefront.ProductPage
	err  error
}

func (c fakeCatalog) List(context.Context, storefront.ProductFilter) (storefront.ProductPage, error) {
	return c.page, c.err
}

func (c fakeCatalog) Get(_ context.Context, slug string) (storefront.Product, error) {
	if c.err != nil {
		return storefront.Product{}, c.err
	}
	return storefront.Product{Slug: slug}, nil
}

func TestProductsMyProductsNeedsBrandManager(t *testing.T) {
	f := newFixture(t)
	f.deps.Catalog = fakeCatalog{page: storefront.ProductPage{Count: 1}}
	page := NewProducts(f.deps)

	_, err := page.List(context.Background(), storefront.ProductFilter{MyProducts: true})
	require.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, notify.LevelError, f.notes.only(t).level)

	f.notes.notes = nil
	f.auth.user.IsBrandManager = true
	f.signIn(t)
	got, err := page.List(context.Background(), storefront.ProductFilter{MyProducts: true})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
	assert.Empty(t, f.notes.notes)
}

func TestProductsGetFailure(t *testing.T) {
	f := newFixture(t)
	f.deps.Catalog = fakeCatalog{err: &storefront.APIError{Status: 404, Message: "Not found."}}
	page := NewProducts(f.deps)

	_, err := page.Get(context.Background(), "bamboo-brush")
	require.Error(t, err)
	assert.Equal(t, note{notify.LevelError, "Not found."}, f.notes.only(t))
}

func TestMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("refresh cart: %w", storefront.ErrUnauthorized), "Session expired. Please log in again."},
		{context.DeadlineExceeded, "Request timed out. Please try again."},
		{&cart.InputError{Op: "add item", Message: "Quantity must be at least 1"}, "Quantity must be at least 1"},
		{&cart.CheckoutError{Problems: []string{"Cart is empty"}}, "Cart is empty"},
		{&storefront.APIError{Status: 500, Message: "Error 500: Internal Server Error"}, "Error 500: Internal Server Error"},
		{&storefront.APIError{Status: 400, Message: "x", Fields: map[string][]string{
			"non_field_errors": {"Out of stock."},
			"quantity":         {"Too many."},
		}}, "Out of stock.; quantity: Too many."},
		{fmt.Errorf("clear cart: execute request: %w", &url.Error{
			Op:  "Delete",
			URL: "http://127.0.0.1:1/api/cart/clear/",
			Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
		}), "Cannot reach the storefront. Check your connection."},
		{&NotifiedError{Err: storefront.ErrUnauthorized}, "Session expired. Please log in again."},
		{errors.New("disk full"), "Something went wrong: disk full"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Message(tc.err), "error %v", tc.err)
	}
}

func TestNotifiedWrapsOnce(t *testing.T) {
	assert.NoError(t, notified(nil))
	assert.False(t, IsNotified(errors.New("plain")))

	err := notified(notified(ErrForbidden))
	require.ErrorIs(t, err, ErrForbidden)
	assert.True(t, IsNotified(err))

	var n *NotifiedError
	require.ErrorAs(t, err, &n)
	assert.Same(t, ErrForbidden, n.Err)
	assert.Equal(t, ErrForbidden.Error(), err.Error())
}
