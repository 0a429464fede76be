package layout

import (
	"strings"
	"testing"
)

// charMeasurer wraps at a fixed number of characters per line, enough
// fidelity for sizing tests without a real font.
type charMeasurer struct {
	perLine int
}

func (m charMeasurer) MeasureText(s string, _ float64) []string {
	if s == "" {
		return nil
	}
	var lines []string
	for len(s) > m.perLine {
		lines = append(lines, s[:m.perLine])
		s = s[m.perLine:]
	}
	return append(lines, s)
}

func newTestSizer() *Sizer {
	// lineHeight 5, header strip 8, bottom padding 2.
	return NewSizer(charMeasurer{perLine: 40}, 5, 8, 2)
}

func TestMeasureTextBlock(t *testing.T) {
	s := newTestSizer()
	if got := s.MeasureTextBlock("", 100); got != 0 {
		t.Fatalf("empty text = %d lines", got)
	}
	if got := s.MeasureTextBlock("short", 100); got != 1 {
		t.Fatalf("short text = %d lines", got)
	}
	long := strings.Repeat("x", 100) // 40+40+20
	if got := s.MeasureTextBlock(long, 100); got != 3 {
		t.Fatalf("long text = %d lines", got)
	}
}

func TestMeasureBoxSkipsEmptyFields(t *testing.T) {
	s := newTestSizer()
	full := []Field{
		{Label: "Name", Value: "Wanjiku Traders"},
		{Label: "Phone", Value: "+254 700 000000"},
		{Label: "Address", Value: "P.O. Box 123, Nairobi"},
		{Label: "KRA PIN", Value: "A012345678Z"},
	}
	partial := []Field{
		{Label: "Name", Value: "Wanjiku Traders"},
		{Label: "Phone", Value: "+254 700 000000"},
		{Label: "Address", Value: ""},
		{Label: "KRA PIN", Value: ""},
	}

	hFull := s.MeasureBox(full, 200)
	hPartial := s.MeasureBox(partial, 200)

	// Two optional single-line fields emptied: exactly two line heights
	// shorter, never blank rows.
	if want := hFull - 2*s.LineHeight(); hPartial != want {
		t.Fatalf("partial box height = %v, want %v", hPartial, want)
	}
}

func TestMeasureBoxSingleFieldDelta(t *testing.T) {
	s := newTestSizer()
	with := []Field{{Label: "A", Value: "x"}, {Label: "B", Value: "y"}}
	without := []Field{{Label: "A", Value: "x"}, {Label: "B", Value: ""}}
	if got := s.MeasureBox(with, 200) - s.MeasureBox(without, 200); got != s.LineHeight() {
		t.Fatalf("delta = %v, want one line height %v", got, s.LineHeight())
	}
}

func TestMeasureBoxEmpty(t *testing.T) {
	s := newTestSizer()
	// Header strip + padding only.
	if got := s.MeasureBox(nil, 200); got != 10 {
		t.Fatalf("empty box height = %v", got)
	}
}

func TestFieldLinesWrapsLongValues(t *testing.T) {
	s := newTestSizer()
	fields := []Field{{Label: "Address", Value: strings.Repeat("a", 60)}}
	lines := s.FieldLines(fields, 200)
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Address: ") {
		t.Fatalf("label missing: %q", lines[0])
	}
}

func TestPairHeight(t *testing.T) {
	if PairHeight(30, 45) != 45 || PairHeight(45, 30) != 45 || PairHeight(7, 7) != 7 {
		t.Fatal("PairHeight must return the max")
	}
}
