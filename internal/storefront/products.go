package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/five82/ecoshop/internal/media"
)

// ProductFilter configures /products/ requests. Zero values are omitted.
type ProductFilter struct {
	Category   string
	Brand      string
	MinPrice   float64
	MaxPrice   float64
	EcoBadge   string
	Search     string
	Ordering   string
	Page       int
	Limit      int
	MyProducts bool
}

func (f ProductFilter) values() url.Values {
	values := url.Values{}
	set := func(key, value string) {
		if v := strings.TrimSpace(value); v != "" {
			values.Set(key, v)
		}
	}
	set("category", f.Category)
	set("brand", f.Brand)
	if f.MinPrice > 0 {
		values.Set("min_price", strconv.FormatFloat(f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice > 0 {
		values.Set("max_price", strconv.FormatFloat(f.MaxPrice, 'f', -1, 64))
	}
	set("eco_badge", f.EcoBadge)
	set("search", f.Search)
	set("ordering", f.Ordering)
	if f.Page > 0 {
		values.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		values.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.MyProducts {
		values.Set("my_products", "true")
	}
	return values
}

// ProductService reads the catalogue.
type ProductService struct {
	client *Client
	images media.Resolver
}

// NewProductService builds the product service.
func NewProductService(c *Client, images media.Resolver) *ProductService {
	return &ProductService{client: c, images: images}
}

// List fetches one page of products. Both paginated and plain-array
// responses are accepted.
func (s *ProductService) List(ctx context.Context, filter ProductFilter) (ProductPage, error) {
	var raw json.RawMessage
	if err := s.client.getData(ctx, http.MethodGet, "/products/", filter.values(), nil, &raw); err != nil {
		return ProductPage{}, err
	}

	var page ProductPage
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &page.Results); err != nil {
			return ProductPage{}, fmt.Errorf("decode products: %w", err)
		}
		page.Count = len(page.Results)
	} else if err := json.Unmarshal(raw, &page); err != nil {
		return ProductPage{}, fmt.Errorf("decode products: %w", err)
	}

	for i := range page.Results {
		if page.Results[i].ImageURL != "" {
			page.Results[i].ImageURL = s.images.URL(page.Results[i].ImageURL, imageOptions)
		}
	}
	return page, nil
}

// Get fetches one product by slug.
func (s *ProductService) Get(ctx context.Context, slug string) (Product, error) {
	slug = strings.Trim(strings.TrimSpace(slug), "/")
	if slug == "" {
		return Product{}, fmt.Errorf("product slug required")
	}
	var p Product
	if err := s.client.getData(ctx, http.MethodGet, "/products/"+url.PathEscape(slug)+"/", nil, nil, &p); err != nil {
		return Product{}, err
	}
	if p.ImageURL != "" {
		p.ImageURL = s.images.URL(p.ImageURL, media.Options{Width: 600})
	}
	return p, nil
}
