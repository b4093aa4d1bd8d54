package pages

import (
	"context"
	"errors"

	"github.com/five82/ecoshop/internal/session"
	"github.com/five82/ecoshop/internal/storefront"
)

// ErrForbidden is returned when the signed-in role may not use a view.
var ErrForbidden = errors.New("Only brand managers can manage products")

// Products is the catalogue page.
type Products struct {
	deps Deps
}

// NewProducts builds the catalogue page.
func NewProducts(deps Deps) *Products {
	return &Products{deps: deps.withDefaults()}
}

// List loads one page of products. A MyProducts filter is only allowed for
// brand managers.
func (p *Products) List(ctx context.Context, filter storefront.ProductFilter) (storefront.ProductPage, error) {
	if filter.MyProducts && !p.deps.Session.HasRole(session.RoleBrandManager) {
		p.deps.Notify.Error(ErrForbidden.Error())
		return storefront.ProductPage{}, notified(ErrForbidden)
	}
	page, err := p.deps.Catalog.List(ctx, filter)
	if err != nil {
		p.deps.Notify.Error(Message(err))
		return storefront.ProductPage{}, notified(err)
	}
	return page, nil
}

// Get loads one product.
func (p *Products) Get(ctx context.Context, slug string) (storefront.Product, error) {
	product, err := p.deps.Catalog.Get(ctx, slug)
	if err != nil {
		p.deps.Notify.Error(Message(err))
		return storefront.Product{}, notified(err)
	}
	return product, nil
}
