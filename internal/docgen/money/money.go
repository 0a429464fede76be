// Package money computes document totals. All canonical amounts are in
// the base currency; foreign-currency figures are display views only.
package money

import (
	"errors"
	"fmt"
	"math"
)

// DefaultTaxRate is the VAT rate applied when configuration does not
// override it.
const DefaultTaxRate = 0.16

var ErrValidation = errors.New("validation")

// LineItem is a single priced row of a document. Immutable once the
// document snapshot is taken.
type LineItem struct {
	ID          string
	Name        string
	Description string
	Quantity    float64
	UnitPrice   float64
	// WeightKg drives the freight surcharge; zero for services and
	// other weightless goods.
	WeightKg float64
}

// Validate rejects quantities and prices that have no monetary
// interpretation. Negative values are errors, never clamped.
func (li LineItem) Validate() error {
	if li.Name == "" {
		return fmt.Errorf("%w: line item name required", ErrValidation)
	}
	if li.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %v", ErrValidation, li.Quantity)
	}
	if li.UnitPrice < 0 {
		return fmt.Errorf("%w: unit price must not be negative, got %v", ErrValidation, li.UnitPrice)
	}
	if li.WeightKg < 0 {
		return fmt.Errorf("%w: weight must not be negative, got %v", ErrValidation, li.WeightKg)
	}
	return nil
}

// Total returns unitPrice * quantity, unrounded.
func (li LineItem) Total() float64 {
	return li.UnitPrice * li.Quantity
}

// Totals is the derived money breakdown of a document, in base
// currency. Values are unrounded; round only when displaying.
type Totals struct {
	Subtotal      float64
	TaxAmount     float64
	FreightAmount float64
	GrandTotal    float64
}

// Calculator applies the tax rule. Freight is computed and supplied by
// the caller (it only applies to weighted goods) and is not taxed:
// grandTotal = subtotal + subtotal*rate + freight.
type Calculator struct {
	TaxRate float64
}

func NewCalculator(taxRate float64) (Calculator, error) {
	if taxRate < 0 {
		return Calculator{}, fmt.Errorf("%w: tax rate must not be negative", ErrValidation)
	}
	return Calculator{TaxRate: taxRate}, nil
}

// Totals validates every item and sums unrounded line totals before any
// rounding, so per-line rounding error never compounds.
func (c Calculator) Totals(items []LineItem, freight float64) (Totals, error) {
	if freight < 0 {
		return Totals{}, fmt.Errorf("%w: freight must not be negative", ErrValidation)
	}
	var subtotal float64
	for i, li := range items {
		if err := li.Validate(); err != nil {
			return Totals{}, fmt.Errorf("line %d: %w", i+1, err)
		}
		subtotal += li.Total()
	}
	tax := subtotal * c.TaxRate
	return Totals{
		Subtotal:      subtotal,
		TaxAmount:     tax,
		FreightAmount: freight,
		GrandTotal:    subtotal + tax + freight,
	}, nil
}

// FreightFor computes the weight-based surcharge: ratePerKg times the
// shipped weight of all items. Weightless items contribute nothing.
func FreightFor(items []LineItem, ratePerKg float64) float64 {
	if ratePerKg <= 0 {
		return 0
	}
	var kg float64
	for _, li := range items {
		kg += li.WeightKg * li.Quantity
	}
	return ratePerKg * kg
}

// Round2 rounds to 2 decimal places, half up. Applied only to displayed
// figures, never to intermediate sums.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
