package cart

import (
	"context"
	"time"
)

// DefaultEcoBadge is shown for products the backend has not rated.
const DefaultEcoBadge = "🌿 medium Impact"

// ProductRef is the product a cart line points at.
type ProductRef struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	CarbonFootprint float64 `json:"carbon_footprint"`
	ImageURL        string  `json:"image_url,omitempty"`
	BrandName       string  `json:"brand_name,omitempty"`
	EcoBadge        string  `json:"eco_badge,omitempty"`
}

// Item is one cart line.
type Item struct {
	ID          int64       `json:"id"`
	ProductID   int64       `json:"product_id"`
	Name        string      `json:"name"`
	Price       float64     `json:"price"`
	EcoBadge    string      `json:"eco_badge"`
	Quantity    int         `json:"quantity"`
	ImageURL    string      `json:"image_url,omitempty"`
	AddedAt     time.Time   `json:"added_at"`
	TotalPrice  float64     `json:"total_price"`
	TotalCarbon float64     `json:"total_carbon"`
	Product     *ProductRef `json:"product,omitempty"`
}

// Snapshot is a full cart as reported by the remote service.
type Snapshot struct {
	ID                   int64     `json:"id"`
	UserID               int64     `json:"user_id,omitempty"`
	Items                []Item    `json:"items"`
	TotalItems           int       `json:"total_items"`
	TotalPrice           float64   `json:"total_price"`
	TotalCarbonFootprint float64   `json:"total_carbon_footprint"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// ItemCount prefers the remote total and falls back to summing quantities.
func (s *Snapshot) ItemCount() int {
	if s == nil {
		return 0
	}
	if s.TotalItems > 0 {
		return s.TotalItems
	}
	n := 0
	for _, item := range s.Items {
		if item.Quantity > 0 {
			n += item.Quantity
		} else {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	dup := *s
	if s.Items != nil {
		dup.Items = make([]Item, len(s.Items))
		for i, item := range s.Items {
			if item.Product != nil {
				p := *item.Product
				item.Product = &p
			}
			dup.Items[i] = item
		}
	}
	return &dup
}

// Confirmation is the formatted result of a successful checkout.
type Confirmation struct {
	OrderID              int64   `json:"order_id" yaml:"order_id"`
	OrderNumber          string  `json:"order_number" yaml:"order_number"`
	TotalAmount          float64 `json:"total_amount" yaml:"total_amount"`
	TotalCarbonFootprint float64 `json:"total_carbon_footprint" yaml:"total_carbon_footprint"`
	Status               string  `json:"status" yaml:"status"`
	Message              string  `json:"message" yaml:"message"`
}

// Remote is the cart service the synchronizer reconciles against.
type Remote interface {
	GetCart(ctx context.Context) (*Snapshot, error)
	AddItem(ctx context.Context, productID int64, quantity int) error
	UpdateItem(ctx context.Context, itemID int64, quantity int) error
	RemoveItem(ctx context.Context, itemID int64) error
	ClearCart(ctx context.Context) error
	Checkout(ctx context.Context, shippingAddress map[string]string) (Confirmation, error)
	MergeCarts(ctx context.Context) error
}

// Source tags where a piece of cart state came from.
type Source int

const (
	// SourceNone means nothing has been loaded yet.
	SourceNone Source = iota
	// SourceConfirmed values came from a successful remote response.
	SourceConfirmed
	// SourceProvisional values are local guesses awaiting confirmation.
	SourceProvisional
	// SourceFallback values were loaded from the persisted fallback copy.
	SourceFallback
)

func (s Source) String() string {
	switch s {
	case SourceConfirmed:
		return "confirmed"
	case SourceProvisional:
		return "provisional"
	case SourceFallback:
		return "fallback"
	default:
		return "none"
	}
}

// Tagged pairs a value with its source.
type Tagged[T any] struct {
	Value  T
	Source Source
}

// Confirmed reports whether the value is remote truth.
func (t Tagged[T]) Confirmed() bool {
	return t.Source == SourceConfirmed
}
