package layout

// TextMeasurer wraps text to a width using the rendering backend's
// metrics and returns the resulting lines. Pure for a fixed font/size.
type TextMeasurer interface {
	MeasureText(s string, maxWidth float64) []string
}

// Field is one labelled row of a box, e.g. {"KRA PIN", "A012345678Z"}.
type Field struct {
	Label string
	Value string
}

// Box is an ephemeral bordered, titled region of the printed page.
// Height is computed from content, never chosen.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Title  string
}

// Sizer computes required box heights before drawing. Measurement is
// kept strictly separate from drawing so sibling boxes can be
// reconciled to a shared height first.
type Sizer struct {
	measurer    TextMeasurer
	lineHeight  float64
	headerStrip float64
	bottomPad   float64
}

func NewSizer(m TextMeasurer, lineHeight, headerStrip, bottomPad float64) *Sizer {
	return &Sizer{measurer: m, lineHeight: lineHeight, headerStrip: headerStrip, bottomPad: bottomPad}
}

// LineHeight returns the configured per-line height.
func (s *Sizer) LineHeight() float64 { return s.lineHeight }

// HeaderStrip returns the height of a box title strip.
func (s *Sizer) HeaderStrip() float64 { return s.headerStrip }

// MeasureTextBlock returns how many lines text occupies when wrapped to
// maxWidth. Empty text occupies zero lines.
func (s *Sizer) MeasureTextBlock(text string, maxWidth float64) int {
	if text == "" {
		return 0
	}
	return len(s.measurer.MeasureText(text, maxWidth))
}

// FieldLines returns the wrapped lines for each populated field.
// Fields with an empty value are skipped entirely, not rendered as
// blank rows; that is what keeps boxes compact when optional data is
// missing.
func (s *Sizer) FieldLines(fields []Field, maxWidth float64) []string {
	var lines []string
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		text := f.Value
		if f.Label != "" {
			text = f.Label + ": " + f.Value
		}
		lines = append(lines, s.measurer.MeasureText(text, maxWidth)...)
	}
	return lines
}

// MeasureBox computes the drawn height of a box from its populated
// fields: title strip + wrapped content lines + bottom padding.
func (s *Sizer) MeasureBox(fields []Field, maxWidth float64) float64 {
	n := len(s.FieldLines(fields, maxWidth))
	return s.headerStrip + float64(n)*s.lineHeight + s.bottomPad
}

// PairHeight reconciles two sibling boxes that must align: both draw at
// the taller of the two measured heights.
func PairHeight(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
