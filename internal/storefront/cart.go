package storefront

import (
	"context"
	"fmt"
	"net/http"

	"github.com/five82/ecoshop/internal/cart"
	"github.com/five82/ecoshop/internal/media"
)

// CartService is the remote cart.
type CartService struct {
	client     *Client
	images     media.Resolver
	sessionKey func(ctx context.Context) (string, error)
}

// Ensure CartService implements cart.Remote at compile time.
var _ cart.Remote = (*CartService)(nil)

// NewCartService builds the cart service. sessionKey supplies the guest key
// sent when merging carts; it may be nil.
func NewCartService(c *Client, images media.Resolver, sessionKey func(ctx context.Context) (string, error)) *CartService {
	return &CartService{client: c, images: images, sessionKey: sessionKey}
}

// GetCart fetches the current cart.
func (s *CartService) GetCart(ctx context.Context) (*cart.Snapshot, error) {
	var payload cartWire
	if err := s.client.getData(ctx, http.MethodGet, "/cart/", nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.snapshot(s.images), nil
}

// AddItem adds quantity of a product.
func (s *CartService) AddItem(ctx context.Context, productID int64, quantity int) error {
	body := map[string]any{"product_id": productID, "quantity": quantity}
	return s.client.do(ctx, http.MethodPost, "/cart/add_item/", body, nil)
}

// UpdateItem sets a line's absolute quantity.
func (s *CartService) UpdateItem(ctx context.Context, itemID int64, quantity int) error {
	body := map[string]any{"quantity": quantity}
	return s.client.do(ctx, http.MethodPut, fmt.Sprintf("/cart/items/%d/", itemID), body, nil)
}

// RemoveItem deletes a line.
func (s *CartService) RemoveItem(ctx context.Context, itemID int64) error {
	return s.client.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/items/%d/", itemID), nil, nil)
}

// ClearCart deletes every line.
func (s *CartService) ClearCart(ctx context.Context) error {
	return s.client.do(ctx, http.MethodDelete, "/cart/clear/", nil, nil)
}

// Checkout places an order for the current cart.
func (s *CartService) Checkout(ctx context.Context, shippingAddress map[string]string) (cart.Confirmation, error) {
	body := map[string]any{"shipping_address": shippingAddress}
	var payload checkoutWire
	if err := s.client.do(ctx, http.MethodPost, "/cart/checkout/", body, &payload); err != nil {
		return cart.Confirmation{}, err
	}
	return payload.confirmation(), nil
}

// MergeCarts folds the guest cart into the signed-in user's cart.
func (s *CartService) MergeCarts(ctx context.Context) error {
	body := map[string]any{}
	if s.sessionKey != nil {
		key, err := s.sessionKey(ctx)
		if err != nil {
			return fmt.Errorf("session key: %w", err)
		}
		body["session_key"] = key
	}
	return s.client.do(ctx, http.MethodPost, "/cart/merge/", body, nil)
}
