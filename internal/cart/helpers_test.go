package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	snap := &Snapshot{Items: []Item{
		{ID: 1, Quantity: 2, Product: &ProductRef{ID: 10, Price: 5, CarbonFootprint: 0.5}},
		{ID: 2, Quantity: 1, Price: 10},
	}}
	sum := Summarize(snap)
	assert.InDelta(t, 20.0, sum.Subtotal, 1e-9)
	assert.Equal(t, 3, sum.TotalItems)
	assert.InDelta(t, 1.0, sum.TotalCarbonFootprint, 1e-9)
	assert.InDelta(t, 3.2, sum.Tax, 1e-9)
	assert.InDelta(t, 5.99, sum.Shipping, 1e-9)
	assert.InDelta(t, 29.19, sum.Total, 1e-9)
}

func TestSummarizeFreeShippingAndRemoteTotals(t *testing.T) {
	snap := &Snapshot{
		TotalPrice: 60,
		TotalItems: 4,
		Items:      []Item{{ID: 1, Quantity: 4, Price: 15}},
	}
	sum := Summarize(snap)
	assert.InDelta(t, 60.0, sum.Subtotal, 1e-9)
	assert.Equal(t, 4, sum.TotalItems)
	assert.Zero(t, sum.Shipping)

	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestValidateForCheckout(t *testing.T) {
	assert.Equal(t, []string{"Cart is empty"}, ValidateForCheckout(nil))
	assert.Equal(t, []string{"Cart is empty"}, ValidateForCheckout(&Snapshot{}))

	snap := &Snapshot{Items: []Item{
		{ID: 1, Quantity: 0},
		{ID: 2, Quantity: 0, Product: &ProductRef{ID: 3, Name: "Soap"}},
		{ID: 3, Quantity: 1, Product: &ProductRef{ID: 4, Name: "Brush"}},
	}}
	assert.Equal(t, []string{
		"Item 1: Product information missing",
		`Item "Unknown": Invalid quantity`,
		`Item "Soap": Invalid quantity`,
	}, ValidateForCheckout(snap))
}

func TestSnapshotItemCount(t *testing.T) {
	var nilSnap *Snapshot
	assert.Zero(t, nilSnap.ItemCount())
	assert.Equal(t, 3, (&Snapshot{Items: []Item{{Quantity: 2}, {Quantity: 0}}}).ItemCount())
	assert.Equal(t, 9, (&Snapshot{TotalItems: 9}).ItemCount())
}

func TestSourceString(t *testing.T) {
	assert.Equal(t, "confirmed", SourceConfirmed.String())
	assert.Equal(t, "provisional", SourceProvisional.String())
	assert.Equal(t, "fallback", SourceFallback.String())
	assert.Equal(t, "none", SourceNone.String())
}
