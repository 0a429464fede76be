package compose

// TextOptions controls how a string is drawn. Zero values mean the
// backend's body font, left-aligned.
type TextOptions struct {
	Size  float64
	Style string // "B", "I" or "" per typesetting conventions
	Align string // "L" (default), "C", "R"
	// Width is the cell width used to resolve "C"/"R" alignment.
	Width float64
}

// RectOptions controls rectangle rendering.
type RectOptions struct {
	Fill bool
}

// Table is the item table handed to the backend. The backend owns row
// wrapping and page breaks while drawing it; the composer re-syncs its
// cursor from the returned end position.
type Table struct {
	Header []string
	Rows   [][]string
	Widths []float64
	Aligns []string
}

// Backend is the typesetting contract. Implementations rasterize;
// the composer only decides where things go and what they say.
// Pages are zero-indexed everywhere in this package.
type Backend interface {
	AddPage()
	SetPage(n int)
	PageCount() int
	DrawText(s string, x, y float64, opts TextOptions)
	DrawRect(x, y, w, h float64, opts RectOptions)
	DrawImage(img []byte, x, y, w, h float64) error
	MeasureText(s string, maxWidth float64) []string
	DrawTable(t Table, x, y float64) (endPage int, endY float64, err error)
}
