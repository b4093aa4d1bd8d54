package pages

import (
	"context"
	"fmt"

	"github.com/five82/ecoshop/internal/cart"
	"github.com/five82/ecoshop/internal/form"
	"github.com/five82/ecoshop/internal/storefront"
	"github.com/five82/ecoshop/internal/validation"
)

// Cart holds the cart page's actions. Each action emits exactly one
// notification.
type Cart struct {
	deps Deps
}

// NewCart builds the cart page.
func NewCart(deps Deps) *Cart {
	return &Cart{deps: deps.withDefaults()}
}

// Refresh reloads the cart. Success is silent; a failure that fell back to
// the saved copy is a warning rather than an error.
func (c *Cart) Refresh(ctx context.Context) error {
	err := c.deps.Cart.Refresh(ctx)
	if err == nil {
		return nil
	}
	if c.deps.Cart.State().Cart.Source == cart.SourceFallback {
		c.deps.Notify.Warning("Storefront unreachable, showing your saved cart")
		return notified(err)
	}
	c.deps.Notify.Error(Message(err))
	return notified(err)
}

// Add puts quantity of product in the cart, merging with an existing line.
func (c *Cart) Add(ctx context.Context, product storefront.Product, quantity int) error {
	if product.Stock > 0 && quantity > product.Stock {
		err := &cart.InputError{Op: "add item", Message: fmt.Sprintf("Only %d of %s left in stock", product.Stock, product.Name)}
		c.deps.Notify.Warning(err.Message)
		return notified(err)
	}
	if err := c.deps.Cart.AddItemOptimistic(ctx, product.Ref(), quantity); err != nil {
		c.deps.Notify.Error(Message(err))
		return notified(err)
	}
	c.deps.Notify.Success(fmt.Sprintf("Added %d × %s to cart", quantity, product.Name))
	return nil
}

// SetQuantity sets an absolute quantity on a line.
func (c *Cart) SetQuantity(ctx context.Context, itemID int64, quantity int) error {
	if err := c.deps.Cart.UpdateItem(ctx, itemID, quantity); err != nil {
		c.deps.Notify.Error(Message(err))
		return notified(err)
	}
	c.deps.Notify.Success("Quantity updated")
	return nil
}

// Step changes a line's quantity by delta. Stepping below one removes the
// line.
func (c *Cart) Step(ctx context.Context, itemID int64, delta int) error {
	item, ok := c.item(itemID)
	if !ok {
		err := &cart.InputError{Op: "update item", Message: "Item is no longer in your cart"}
		c.deps.Notify.Warning(err.Message)
		return notified(err)
	}
	if item.Quantity+delta < 1 && delta < 0 {
		return c.Remove(ctx, itemID)
	}
	next, msg := validation.ApplyDelta(item.Quantity, delta)
	if msg != "" {
		err := &cart.InputError{Op: "update item", Message: msg}
		c.deps.Notify.Warning(msg)
		return notified(err)
	}
	return c.SetQuantity(ctx, itemID, next)
}

// Remove deletes a line.
func (c *Cart) Remove(ctx context.Context, itemID int64) error {
	name := "item"
	if item, ok := c.item(itemID); ok {
		name = item.Name
	}
	if err := c.deps.Cart.RemoveItem(ctx, itemID); err != nil {
		c.deps.Notify.Error(Message(err))
		return notified(err)
	}
	c.deps.Notify.Success(fmt.Sprintf("Removed %s from cart", name))
	return nil
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) error {
	if err := c.deps.Cart.Clear(ctx); err != nil {
		c.deps.Notify.Error(Message(err))
		return notified(err)
	}
	c.deps.Notify.Success("Cart cleared")
	return nil
}

func (c *Cart) item(itemID int64) (cart.Item, bool) {
	for _, item := range c.deps.Cart.State().Items() {
		if item.ID == itemID {
			return item, true
		}
	}
	return cart.Item{}, false
}

// Checkout is the checkout page: a shipping address form over the cart.
type Checkout struct {
	Form *form.Form[validation.AddressField, string]
	deps Deps
}

// NewCheckout builds the checkout page, prefilling contact details from the
// signed-in user.
func NewCheckout(deps Deps) *Checkout {
	deps = deps.withDefaults()
	initial := emptyValues(validation.AddressFields)
	if deps.Session != nil {
		if u, ok := deps.Session.User(); ok {
			initial[validation.AddressEmail] = u.Email
			initial[validation.AddressPhone] = u.Phone
		}
	}
	return &Checkout{
		Form: form.New(initial, form.Config[validation.AddressField, string]{
			ValidateField: validation.AddressFieldRule,
			ValidateForm:  validation.AddressFormRule,
		}),
		deps: deps,
	}
}

// Submit places the order.
func (p *Checkout) Submit(ctx context.Context) (cart.Confirmation, error) {
	var conf cart.Confirmation
	err := submit(p.Form, p.deps.Notify, func() error {
		var err error
		conf, err = p.deps.Cart.Checkout(ctx, p.Form.Values())
		return err
	})
	if err != nil {
		return cart.Confirmation{}, err
	}

	msg := fmt.Sprintf("Order %s placed. Total $%.2f", conf.OrderNumber, conf.TotalAmount)
	if conf.Message != "" {
		msg = conf.Message
	}
	p.deps.Notify.Success(msg)
	p.Form.ResetForm()
	return conf, nil
}
