package money

import "fmt"

// Currency conversion. The rate is expressed as base units per one
// foreign unit, so display = base / rate and base = foreign * rate.
// Every displayed figure is derived from its BASE amount independently;
// in particular the converted grand total divides the final base grand
// total rather than summing converted components, so a single rounding
// rule applies uniformly.

// ToDisplay converts a base-currency amount to the display currency,
// rounded half up to 2 decimal places.
func ToDisplay(base, rate float64) (float64, error) {
	if rate <= 0 {
		return 0, fmt.Errorf("%w: currency rate must be positive, got %v", ErrValidation, rate)
	}
	return Round2(base / rate), nil
}

// ToBase converts a user-entered foreign amount back to base currency,
// with the same rounding rule so the two directions stay consistent.
func ToBase(display, rate float64) (float64, error) {
	if rate <= 0 {
		return 0, fmt.Errorf("%w: currency rate must be positive, got %v", ErrValidation, rate)
	}
	return Round2(display * rate), nil
}

// Convert returns the display-currency view of the totals. Each
// component converts from its own base amount.
func (t Totals) Convert(rate float64) (Totals, error) {
	sub, err := ToDisplay(t.Subtotal, rate)
	if err != nil {
		return Totals{}, err
	}
	tax, _ := ToDisplay(t.TaxAmount, rate)
	freight, _ := ToDisplay(t.FreightAmount, rate)
	grand, _ := ToDisplay(t.GrandTotal, rate)
	return Totals{Subtotal: sub, TaxAmount: tax, FreightAmount: freight, GrandTotal: grand}, nil
}
