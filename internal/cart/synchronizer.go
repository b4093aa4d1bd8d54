package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/five82/ecoshop/internal/kvstore"
	"github.com/five82/ecoshop/internal/validation"
)

// State is a point-in-time copy of the synchronizer.
type State struct {
	Cart                Tagged[*Snapshot]
	Count               Tagged[int]
	Loading             bool
	Merging             bool
	Err                 error
	LastSync            time.Time
	ConsecutiveFailures int
}

// IsOffline returns true when the cart service has failed several refreshes
// in a row.
func (s State) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Items returns the current lines, or nil when there is no cart.
func (s State) Items() []Item {
	if s.Cart.Value == nil {
		return nil
	}
	return s.Cart.Value.Items
}

// Synchronizer owns the session's cart. Every cart write goes through it.
type Synchronizer struct {
	remote Remote
	store  kvstore.Store
	logger *zap.Logger
	now    func() time.Time

	mu    sync.RWMutex
	state State
}

// Option customises a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Synchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSynchronizer builds a synchronizer in the loading state. Call Refresh
// to load the cart.
func NewSynchronizer(remote Remote, store kvstore.Store, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		remote: remote,
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Loading = true
	return s
}

// State returns a copy of the current state.
func (s *Synchronizer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Cart.Value = s.state.Cart.Value.Clone()
	return st
}

// Refresh fetches the authoritative cart and persists it as the fallback
// copy. On failure the error is recorded and the fallback copy, if any, is
// loaded in its place.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Err = nil
	s.mu.Unlock()

	snap, err := s.remote.GetCart(ctx)
	if err != nil {
		fallback := s.loadFallback(ctx)

		s.mu.Lock()
		s.state.Loading = false
		s.state.Err = err
		s.state.ConsecutiveFailures++
		if fallback != nil {
			s.state.Cart = Tagged[*Snapshot]{Value: fallback, Source: SourceFallback}
			s.state.Count = Tagged[int]{Value: fallback.ItemCount(), Source: SourceFallback}
		}
		s.mu.Unlock()

		s.logger.Warn("cart refresh failed", zap.Error(err), zap.Bool("fallback", fallback != nil))
		return fmt.Errorf("refresh cart: %w", err)
	}

	if snap == nil {
		snap = &Snapshot{}
	}
	now := s.now()

	s.mu.Lock()
	s.state.Loading = false
	s.state.Cart = Tagged[*Snapshot]{Value: snap.Clone(), Source: SourceConfirmed}
	s.state.Count = Tagged[int]{Value: snap.ItemCount(), Source: SourceConfirmed}
	s.state.LastSync = now
	s.state.ConsecutiveFailures = 0
	s.mu.Unlock()

	s.saveFallback(ctx, snap, now)
	return nil
}

// AddItem bumps the item count provisionally, adds the product remotely and
// then refreshes. The provisional count is always replaced by the refresh.
func (s *Synchronizer) AddItem(ctx context.Context, productID int64, quantity int) error {
	if err := s.checkInput("add item", validation.ProductID(productID), validation.Quantity(quantity)); err != nil {
		return err
	}

	s.mu.Lock()
	s.state.Err = nil
	s.state.Count = Tagged[int]{Value: s.state.Count.Value + quantity, Source: SourceProvisional}
	s.mu.Unlock()

	if err := s.remote.AddItem(ctx, productID, quantity); err != nil {
		s.mu.Lock()
		s.state.Count = Tagged[int]{Value: s.state.Cart.Value.ItemCount(), Source: s.state.Cart.Source}
		s.mu.Unlock()
		return s.fail("add item", err)
	}

	s.refreshAfter(ctx, "add item")
	return nil
}

// AddItemOptimistic adds quantity of product, merging into the existing line
// for that product when there is one so the cart never holds two lines for
// the same product.
func (s *Synchronizer) AddItemOptimistic(ctx context.Context, product ProductRef, quantity int) error {
	if err := s.checkInput("add item", validation.ProductID(product.ID), validation.Quantity(quantity)); err != nil {
		return err
	}

	existing, ok := s.ItemByProductID(product.ID)
	if !ok {
		return s.AddItem(ctx, product.ID, quantity)
	}

	next := existing.Quantity + quantity
	if err := s.checkInput("update item", validation.Quantity(next)); err != nil {
		return err
	}
	return s.UpdateItem(ctx, existing.ID, next)
}

// UpdateItem sets an absolute quantity on a line and refreshes.
func (s *Synchronizer) UpdateItem(ctx context.Context, itemID int64, quantity int) error {
	if err := s.checkInput("update item", validation.CartItemID(itemID), validation.Quantity(quantity)); err != nil {
		return err
	}
	s.clearErr()

	if err := s.remote.UpdateItem(ctx, itemID, quantity); err != nil {
		return s.fail("update item", err)
	}
	s.refreshAfter(ctx, "update item")
	return nil
}

// RemoveItem removes a line and refreshes.
func (s *Synchronizer) RemoveItem(ctx context.Context, itemID int64) error {
	if err := s.checkInput("remove item", validation.CartItemID(itemID)); err != nil {
		return err
	}
	s.clearErr()

	if err := s.remote.RemoveItem(ctx, itemID); err != nil {
		return s.fail("remove item", err)
	}
	s.refreshAfter(ctx, "remove item")
	return nil
}

// Clear empties the cart locally and drops the fallback copy before asking
// the remote service to clear. The local result is not rolled back on
// failure.
func (s *Synchronizer) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.state.Err = nil
	s.state.Cart = Tagged[*Snapshot]{Value: nil, Source: SourceProvisional}
	s.state.Count = Tagged[int]{Value: 0, Source: SourceProvisional}
	s.mu.Unlock()

	s.clearFallback(ctx)

	if err := s.remote.ClearCart(ctx); err != nil {
		return s.fail("clear cart", err)
	}

	s.mu.Lock()
	if s.state.Cart.Source == SourceProvisional {
		s.state.Cart.Source = SourceConfirmed
		s.state.Count.Source = SourceConfirmed
	}
	s.mu.Unlock()
	return nil
}

// Checkout validates the cart and the shipping address locally, then places
// the order. Local problems are returned as a *CheckoutError without calling
// the remote service. On success the cart and its fallback copy are cleared.
func (s *Synchronizer) Checkout(ctx context.Context, address map[validation.AddressField]string) (Confirmation, error) {
	s.clearErr()

	problems := s.Validate()
	if len(problems) == 0 {
		if res := validation.AddressFormRule(address); !res.Valid {
			problems = append(problems, addressProblems(res.Errors)...)
		}
	}
	if len(problems) > 0 {
		err := &CheckoutError{Problems: problems}
		s.recordErr(err)
		return Confirmation{}, err
	}

	conf, err := s.remote.Checkout(ctx, validation.CleanAddress(address))
	if err != nil {
		return Confirmation{}, s.fail("checkout", err)
	}

	s.mu.Lock()
	s.state.Cart = Tagged[*Snapshot]{Value: nil, Source: SourceConfirmed}
	s.state.Count = Tagged[int]{Value: 0, Source: SourceConfirmed}
	s.mu.Unlock()
	s.clearFallback(ctx)

	s.logger.Info("order placed", zap.String("order_number", conf.OrderNumber), zap.Float64("total", conf.TotalAmount))
	return conf, nil
}

// MergeCarts folds the guest cart into the signed-in user's cart, holding the
// Merging flag until the follow-up refresh completes.
func (s *Synchronizer) MergeCarts(ctx context.Context) error {
	s.mu.Lock()
	s.state.Merging = true
	s.state.Err = nil
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state.Merging = false
		s.mu.Unlock()
	}()

	if err := s.remote.MergeCarts(ctx); err != nil {
		return s.fail("merge carts", err)
	}
	s.refreshAfter(ctx, "merge carts")
	return nil
}

// Reset drops all cart state and the fallback copy, e.g. on logout.
func (s *Synchronizer) Reset(ctx context.Context) {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
	s.clearFallback(ctx)
}

func (s *Synchronizer) refreshAfter(ctx context.Context, op string) {
	// The refresh failure is already recorded in state.
	if err := s.Refresh(ctx); err != nil {
		s.logger.Debug("refresh after mutation failed", zap.String("op", op), zap.Error(err))
	}
}

func (s *Synchronizer) checkInput(op string, msgs ...string) error {
	for _, msg := range msgs {
		if msg != "" {
			err := &InputError{Op: op, Message: msg}
			s.recordErr(err)
			return err
		}
	}
	return nil
}

func (s *Synchronizer) fail(op string, err error) error {
	s.recordErr(err)
	s.logger.Warn("cart operation failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Synchronizer) recordErr(err error) {
	s.mu.Lock()
	s.state.Err = err
	s.mu.Unlock()
}

func (s *Synchronizer) clearErr() {
	s.recordErr(nil)
}

func (s *Synchronizer) loadFallback(ctx context.Context) *Snapshot {
	if s.store == nil {
		return nil
	}
	raw, err := s.store.Get(ctx, kvstore.KeyCartData)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			s.logger.Warn("load cart fallback", zap.Error(err))
		}
		return nil
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		s.logger.Warn("decode cart fallback", zap.Error(err))
		return nil
	}
	return &snap
}

func (s *Synchronizer) saveFallback(ctx context.Context, snap *Snapshot, at time.Time) {
	if s.store == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.Warn("encode cart fallback", zap.Error(err))
		return
	}
	if err := s.store.Set(ctx, kvstore.KeyCartData, string(data)); err != nil {
		s.logger.Warn("save cart fallback", zap.Error(err))
		return
	}
	if err := s.store.Set(ctx, kvstore.KeyCartLastSync, at.UTC().Format(time.RFC3339)); err != nil {
		s.logger.Warn("save cart sync time", zap.Error(err))
	}
}

func (s *Synchronizer) clearFallback(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := kvstore.RemoveAll(ctx, s.store, kvstore.KeyCartData, kvstore.KeyCartLastSync); err != nil {
		s.logger.Warn("clear cart fallback", zap.Error(err))
	}
}
