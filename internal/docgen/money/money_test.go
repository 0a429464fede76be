package money

import (
	"errors"
	"math"
	"testing"
)

func TestTotalsScenario(t *testing.T) {
	// 2x100 + 1x50 + 5x20 at 16% VAT, no freight.
	items := []LineItem{
		{Name: "A", Quantity: 2, UnitPrice: 100},
		{Name: "B", Quantity: 1, UnitPrice: 50},
		{Name: "C", Quantity: 5, UnitPrice: 20},
	}
	calc := Calculator{TaxRate: 0.16}
	got, err := calc.Totals(items, 0)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if got.Subtotal != 350 {
		t.Fatalf("subtotal = %v, want 350", got.Subtotal)
	}
	if math.Abs(got.TaxAmount-56) > 1e-9 {
		t.Fatalf("tax = %v, want 56", got.TaxAmount)
	}
	if math.Abs(got.GrandTotal-406) > 1e-9 {
		t.Fatalf("grand total = %v, want 406", got.GrandTotal)
	}
}

func TestSubtotalAdditivity(t *testing.T) {
	items := []LineItem{
		{Name: "A", Quantity: 3.5, UnitPrice: 19.99},
		{Name: "B", Quantity: 0.25, UnitPrice: 1033.10},
		{Name: "C", Quantity: 7, UnitPrice: 0.07},
	}
	var want float64
	for _, li := range items {
		want += li.UnitPrice * li.Quantity
	}
	calc := Calculator{TaxRate: DefaultTaxRate}
	got, err := calc.Totals(items, 0)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if math.Abs(got.Subtotal-want) > 1e-6 {
		t.Fatalf("subtotal = %v, want %v", got.Subtotal, want)
	}
}

func TestFreightUntaxed(t *testing.T) {
	items := []LineItem{{Name: "A", Quantity: 1, UnitPrice: 100}}
	calc := Calculator{TaxRate: 0.16}
	got, err := calc.Totals(items, 40)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	// VAT applies to goods only; freight is added after tax.
	if math.Abs(got.TaxAmount-16) > 1e-9 {
		t.Fatalf("tax = %v, want 16", got.TaxAmount)
	}
	if math.Abs(got.GrandTotal-156) > 1e-9 {
		t.Fatalf("grand total = %v, want 156", got.GrandTotal)
	}
}

func TestNegativeInputsRejected(t *testing.T) {
	calc := Calculator{TaxRate: 0.16}
	cases := [][]LineItem{
		{{Name: "A", Quantity: -1, UnitPrice: 10}},
		{{Name: "A", Quantity: 1, UnitPrice: -10}},
		{{Name: "A", Quantity: 0, UnitPrice: 10}},
		{{Name: "", Quantity: 1, UnitPrice: 10}},
		{{Name: "A", Quantity: 1, UnitPrice: 10, WeightKg: -2}},
	}
	for i, items := range cases {
		if _, err := calc.Totals(items, 0); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	if _, err := calc.Totals(nil, -5); !errors.Is(err, ErrValidation) {
		t.Fatal("negative freight accepted")
	}
}

func TestFreightFor(t *testing.T) {
	items := []LineItem{
		{Name: "A", Quantity: 2, UnitPrice: 10, WeightKg: 1.5}, // 3 kg
		{Name: "B", Quantity: 1, UnitPrice: 10},                // weightless
		{Name: "C", Quantity: 4, UnitPrice: 10, WeightKg: 0.25}, // 1 kg
	}
	if got := FreightFor(items, 50); math.Abs(got-200) > 1e-9 {
		t.Fatalf("freight = %v, want 200", got)
	}
	if got := FreightFor(items, 0); got != 0 {
		t.Fatalf("zero rate freight = %v", got)
	}
}

func TestConversionRoundTrip(t *testing.T) {
	const rate = 129.53 // KES per USD
	amounts := []float64{0, 0.01, 1, 99.99, 350, 12345.67}
	for _, base := range amounts {
		display, err := ToDisplay(base, rate)
		if err != nil {
			t.Fatalf("ToDisplay(%v): %v", base, err)
		}
		back, err := ToBase(display, rate)
		if err != nil {
			t.Fatalf("ToBase(%v): %v", display, err)
		}
		// Lossless up to the unavoidable 2dp rounding in each direction.
		if math.Abs(back-base) > rate/100+0.01 {
			t.Fatalf("round trip %v -> %v -> %v", base, display, back)
		}
	}
}

func TestConvertUsesBaseGrandTotal(t *testing.T) {
	totals := Totals{Subtotal: 100.555, TaxAmount: 16.0888, FreightAmount: 3.333, GrandTotal: 119.9768}
	conv, err := totals.Convert(3)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	want := Round2(totals.GrandTotal / 3)
	if conv.GrandTotal != want {
		t.Fatalf("converted grand = %v, want %v (derived from base grand, not component sum)", conv.GrandTotal, want)
	}
}

func TestConvertRejectsBadRate(t *testing.T) {
	if _, err := (Totals{}).Convert(0); !errors.Is(err, ErrValidation) {
		t.Fatal("zero rate accepted")
	}
	if _, err := ToBase(10, -1); !errors.Is(err, ErrValidation) {
		t.Fatal("negative rate accepted")
	}
}

func TestRound2HalfUp(t *testing.T) {
	// Halves chosen to be exactly representable in binary.
	cases := map[float64]float64{
		0.125: 0.13,
		0.875: 0.88,
		1.004: 1.0,
		56.0:  56.0,
		0.0:   0.0,
	}
	for in, want := range cases {
		if got := Round2(in); math.Abs(got-want) > 1e-9 {
			t.Fatalf("Round2(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestFormat(t *testing.T) {
	if got := Format(1234567.5); got != "1,234,567.50" {
		t.Fatalf("Format = %q", got)
	}
	if got := FormatWithCode("KES", 1250); got != "KES 1,250.00" {
		t.Fatalf("FormatWithCode = %q", got)
	}
}
