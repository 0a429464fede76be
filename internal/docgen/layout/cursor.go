// Package layout tracks vertical position on a paginated document and
// pre-measures variable-content boxes before anything is drawn.
package layout

// Cursor tracks the current vertical drawing position for the active
// page. Pages are zero-indexed; the cursor starts at the top margin of
// page 0.
type Cursor struct {
	y          float64
	page       int
	pageHeight float64
	margin     float64
}

func NewCursor(pageHeight, margin float64) *Cursor {
	return &Cursor{y: margin, pageHeight: pageHeight, margin: margin}
}

// Y returns the current vertical position.
func (c *Cursor) Y() float64 { return c.y }

// Page returns the zero-based index of the active page.
func (c *Cursor) Page() int { return c.page }

// PageCount returns the number of pages the cursor has visited.
func (c *Cursor) PageCount() int { return c.page + 1 }

// Advance moves the cursor down by the height just consumed.
func (c *Cursor) Advance(h float64) { c.y += h }

// EnsureSpace is the sole page-break trigger. If the required height
// does not fit above the bottom margin it starts a new page, resets the
// cursor to the top margin and reports true. Every section that might
// overflow must call this before drawing.
func (c *Cursor) EnsureSpace(required float64) bool {
	if c.y+required > c.pageHeight-c.margin {
		c.page++
		c.Reset()
		return true
	}
	return false
}

// Reset returns the cursor to the top margin of the current page.
func (c *Cursor) Reset() { c.y = c.margin }

// SyncAfterTable re-aligns the cursor with the typesetting backend
// after it has drawn a table whose growth (and page breaks) are only
// known at render time.
func (c *Cursor) SyncAfterTable(page int, y float64) {
	if page > c.page {
		c.page = page
	}
	c.y = y
}
