package storefront

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/five82/ecoshop/internal/cart"
	"github.com/five82/ecoshop/internal/media"
)

const djangoTimestampLayout = "2006-01-02 15:04:05"

// Decimal decodes Django DecimalField values, which arrive as JSON strings
// ("12.50") or numbers depending on the serializer.
type Decimal float64

// UnmarshalJSON accepts strings, numbers and null.
func (d *Decimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*d = 0
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*d = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("decimal %s: %w", b, err)
	}
	*d = Decimal(f)
	return nil
}

// Float returns the value as float64.
func (d Decimal) Float() float64 {
	return float64(d)
}

// ID decodes ids that may arrive as numbers or numeric strings.
type ID int64

// UnmarshalJSON accepts strings, numbers and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	var d Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*id = ID(int64(d))
	return nil
}

// cartWire mirrors GET /cart/.
type cartWire struct {
	ID                   ID             `json:"id"`
	User                 ID             `json:"user"`
	TotalItems           int            `json:"total_items"`
	TotalPrice           Decimal        `json:"total_price"`
	TotalCarbonFootprint Decimal        `json:"total_carbon_footprint"`
	CreatedAt            string         `json:"created_at"`
	UpdatedAt            string         `json:"updated_at"`
	Items                []cartItemWire `json:"items"`
}

type cartItemWire struct {
	ID          ID           `json:"id"`
	Product     *productWire `json:"product"`
	Quantity    int          `json:"quantity"`
	AddedAt     string       `json:"added_at"`
	TotalPrice  Decimal      `json:"total_price"`
	TotalCarbon Decimal      `json:"total_carbon"`
}

type productWire struct {
	ID              ID      `json:"id"`
	Name            string  `json:"name"`
	Price           Decimal `json:"price"`
	CarbonFootprint Decimal `json:"carbon_footprint"`
	ImageURL        string  `json:"image_url"`
	BrandName       string  `json:"brand_name"`
	EcoBadge        string  `json:"eco_badge"`
}

// checkoutWire mirrors POST /cart/checkout/.
type checkoutWire struct {
	Message string `json:"message"`
	Data    struct {
		OrderID              ID      `json:"order_id"`
		OrderNumber          string  `json:"order_number"`
		TotalAmount          Decimal `json:"total_amount"`
		TotalCarbonFootprint Decimal `json:"total_carbon_footprint"`
		Status               string  `json:"status"`
	} `json:"data"`
}

func (w checkoutWire) confirmation() cart.Confirmation {
	return cart.Confirmation{
		OrderID:              int64(w.Data.OrderID),
		OrderNumber:          w.Data.OrderNumber,
		TotalAmount:          w.Data.TotalAmount.Float(),
		TotalCarbonFootprint: w.Data.TotalCarbonFootprint.Float(),
		Status:               w.Data.Status,
		Message:              w.Message,
	}
}

var imageOptions = media.Options{Width: 300, Height: 300}

func (w cartWire) snapshot(images media.Resolver) *cart.Snapshot {
	snap := &cart.Snapshot{
		ID:                   int64(w.ID),
		UserID:               int64(w.User),
		TotalItems:           w.TotalItems,
		TotalPrice:           w.TotalPrice.Float(),
		TotalCarbonFootprint: w.TotalCarbonFootprint.Float(),
		CreatedAt:            parseTime(w.CreatedAt),
		UpdatedAt:            parseTime(w.UpdatedAt),
		Items:                make([]cart.Item, 0, len(w.Items)),
	}
	for _, iw := range w.Items {
		item := cart.Item{
			ID:          int64(iw.ID),
			Quantity:    iw.Quantity,
			AddedAt:     parseTime(iw.AddedAt),
			TotalPrice:  iw.TotalPrice.Float(),
			TotalCarbon: iw.TotalCarbon.Float(),
			EcoBadge:    cart.DefaultEcoBadge,
		}
		if p := iw.Product; p != nil {
			var imageURL string
			if p.ImageURL != "" {
				imageURL = images.URL(p.ImageURL, imageOptions)
			}
			item.ProductID = int64(p.ID)
			item.Name = p.Name
			item.Price = p.Price.Float()
			item.ImageURL = imageURL
			if p.EcoBadge != "" {
				item.EcoBadge = p.EcoBadge
			}
			item.Product = &cart.ProductRef{
				ID:              int64(p.ID),
				Name:            p.Name,
				Price:           p.Price.Float(),
				CarbonFootprint: p.CarbonFootprint.Float(),
				ImageURL:        imageURL,
				BrandName:       p.BrandName,
				EcoBadge:        p.EcoBadge,
			}
		}
		snap.Items = append(snap.Items, item)
	}
	return snap
}

// Product is a catalogue entry.
type Product struct {
	ID                  ID      `json:"id" yaml:"id"`
	Name                string  `json:"name" yaml:"name"`
	Slug                string  `json:"slug" yaml:"slug"`
	Description         string  `json:"description" yaml:"description"`
	Price               Decimal `json:"price" yaml:"price"`
	Stock               int     `json:"stock" yaml:"stock"`
	BrandName           string  `json:"brand_name" yaml:"brand_name"`
	CategoryName        string  `json:"category_name" yaml:"category_name"`
	CarbonFootprint     Decimal `json:"carbon_footprint" yaml:"carbon_footprint"`
	EcoBadge            string  `json:"eco_badge" yaml:"eco_badge"`
	ImageURL            string  `json:"image_url" yaml:"image_url"`
	OriginCountry       string  `json:"origin_country" yaml:"origin_country"`
	RecyclablePackaging bool    `json:"recyclable_packaging" yaml:"recyclable_packaging"`
}

// Badge returns the eco badge or the default one.
func (p Product) Badge() string {
	if p.EcoBadge == "" {
		return cart.DefaultEcoBadge
	}
	return p.EcoBadge
}

// Ref converts the product to the reference stored on cart lines.
func (p Product) Ref() cart.ProductRef {
	return cart.ProductRef{
		ID:              int64(p.ID),
		Name:            p.Name,
		Price:           p.Price.Float(),
		CarbonFootprint: p.CarbonFootprint.Float(),
		ImageURL:        p.ImageURL,
		BrandName:       p.BrandName,
		EcoBadge:        p.EcoBadge,
	}
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Count    int       `json:"count" yaml:"count"`
	Next     string    `json:"next,omitempty" yaml:"next,omitempty"`
	Previous string    `json:"previous,omitempty" yaml:"previous,omitempty"`
	Results  []Product `json:"results" yaml:"results"`
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(djangoTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
