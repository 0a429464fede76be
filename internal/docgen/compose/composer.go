package compose

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hesabu-biz/hesabu/internal/docgen/docnum"
	"github.com/hesabu-biz/hesabu/internal/docgen/layout"
	"github.com/hesabu-biz/hesabu/internal/docgen/money"
)

const dateLayout = "02 Jan 2006"

// Composer drives the layout cursor section by section across the
// whole document and delegates rasterization to the backend.
//
// Composition is two distinct phases: the content pass lays out every
// section and yields the page count, then a second pass stamps
// "Page i of N" on each page (N is unknown until content layout
// completes).
type Composer struct {
	backend Backend
	cfg     Config
	sizer   *layout.Sizer
	logger  *slog.Logger
}

func New(backend Backend, cfg Config, logger *slog.Logger) *Composer {
	cfg = cfg.withDefaults()
	return &Composer{
		backend: backend,
		cfg:     cfg,
		sizer:   layout.NewSizer(backend, cfg.LineHeight, cfg.HeaderStrip, cfg.BoxPadding),
		logger:  logger,
	}
}

// Compose lays out the full document against the backend and returns
// the total page count. Decorative asset failures are logged and the
// asset omitted; a backend failure while drawing aborts composition.
func (c *Composer) Compose(ctx context.Context, doc Document) (int, error) {
	if err := Validate(doc); err != nil {
		return 0, err
	}

	freight := money.FreightFor(doc.Items, doc.FreightRate)
	totals, err := money.Calculator{TaxRate: doc.TaxRate}.Totals(doc.Items, freight)
	if err != nil {
		return 0, err
	}

	// The logo must resolve (or resolve to "no image") before the
	// header is measured and drawn.
	logo := c.loadLogo(ctx)

	cur := layout.NewCursor(c.cfg.PageHeight, c.cfg.Margin)
	c.backend.AddPage()

	c.drawHeader(cur, logo)
	c.drawTitleBar(cur, doc)
	c.drawDetailBoxes(cur, doc)
	if err := c.drawItemTable(cur, doc); err != nil {
		return 0, fmt.Errorf("compose: item table: %w", err)
	}
	c.drawSummaryBoxes(cur, doc, totals)
	c.drawCustomSections(cur, doc)
	c.drawFooter(cur, doc)

	pages := c.backend.PageCount()
	c.stampPageNumbers(pages)
	return pages, nil
}

// ensure is the composer-side wrapper around the cursor's sole
// page-break trigger: when the cursor starts a new page, the backend
// must grow by one page too.
func (c *Composer) ensure(cur *layout.Cursor, required float64) bool {
	if cur.EnsureSpace(required) {
		c.backend.AddPage()
		return true
	}
	return false
}

func (c *Composer) loadLogo(ctx context.Context) []byte {
	if c.cfg.Logo == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.LogoTimeout)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := c.cfg.Logo.Load(ctx)
		ch <- result{data, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			c.warn("logo unavailable, composing without it", r.err)
			return nil
		}
		return r.data
	case <-ctx.Done():
		c.warn("logo load timed out, composing without it", ctx.Err())
		return nil
	}
}

func (c *Composer) warn(msg string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, slog.Any("error", err))
	}
}

func (c *Composer) drawHeader(cur *layout.Cursor, logo []byte) {
	lh := c.cfg.LineHeight
	company := c.cfg.Company

	lines := c.sizer.FieldLines([]layout.Field{
		{Value: company.Address},
		{Label: "Tel", Value: company.Phone},
		{Label: "Email", Value: company.Email},
		{Label: "PIN", Value: company.KRAPin},
	}, c.cfg.contentWidth()/2)

	const logoSize = 24.0
	height := lh*1.6 + float64(len(lines))*lh
	if logo != nil && logoSize > height {
		height = logoSize
	}
	c.ensure(cur, height+lh)

	x, y := c.cfg.Margin, cur.Y()
	c.backend.DrawText(company.Name, x, y+lh, TextOptions{Size: 15, Style: "B"})
	for i, line := range lines {
		c.backend.DrawText(line, x, y+lh*1.6+float64(i+1)*lh, TextOptions{})
	}

	if logo != nil {
		lx := c.cfg.PageWidth - c.cfg.Margin - logoSize
		if err := c.backend.DrawImage(logo, lx, y, logoSize, logoSize); err != nil {
			// Decorative only: log and move on, the numbers matter more.
			c.warn("draw logo failed, omitted", err)
		}
	}

	cur.Advance(height + lh)
}

func (c *Composer) drawTitleBar(cur *layout.Cursor, doc Document) {
	barHeight := c.cfg.LineHeight * 2
	c.ensure(cur, barHeight+c.cfg.LineHeight)

	x, y := c.cfg.Margin, cur.Y()
	w := c.cfg.contentWidth()
	c.backend.DrawRect(x, y, w, barHeight, RectOptions{Fill: true})

	number := doc.Number
	if number == "" {
		number = "DRAFT"
	}
	textY := y + barHeight/2 + c.cfg.LineHeight*0.35
	c.backend.DrawText(doc.Type.Title(), x+c.cfg.BoxPadding, textY, TextOptions{Size: 12, Style: "B"})
	c.backend.DrawText(number, x, textY, TextOptions{Size: 12, Style: "B", Align: "R", Width: w - c.cfg.BoxPadding})

	cur.Advance(barHeight + c.cfg.LineHeight)
}

func (c *Composer) drawDetailBoxes(cur *layout.Cursor, doc Document) {
	const gutter = 6.0
	boxWidth := (c.cfg.contentWidth() - gutter) / 2
	innerWidth := boxWidth - 2*c.cfg.BoxPadding

	billFields := []layout.Field{
		{Value: doc.Customer.Name},
		{Label: "Phone", Value: doc.Customer.Phone},
		{Label: "Email", Value: doc.Customer.Email},
		{Label: "Address", Value: doc.Customer.Address},
		{Label: "KRA PIN", Value: doc.Customer.KRAPin},
	}
	detailFields := c.detailFields(doc)

	// Both siblings must be measured before either is drawn so they
	// share the taller height and stay aligned.
	billH := c.sizer.MeasureBox(billFields, innerWidth)
	detailH := c.sizer.MeasureBox(detailFields, innerWidth)
	shared := layout.PairHeight(billH, detailH)

	c.ensure(cur, shared+c.cfg.LineHeight)

	x, y := c.cfg.Margin, cur.Y()
	c.drawBox(x, y, boxWidth, shared, "Bill To", billFields)
	title := "Invoice Details"
	switch doc.Type {
	case docnum.TypeQuotation:
		title = "Quotation Details"
	case docnum.TypeProforma:
		title = "Proforma Details"
	}
	c.drawBox(x+boxWidth+gutter, y, boxWidth, shared, title, detailFields)

	cur.Advance(shared + c.cfg.LineHeight)
}

func (c *Composer) detailFields(doc Document) []layout.Field {
	number := doc.Number
	if number == "" {
		number = "DRAFT"
	}
	fields := []layout.Field{
		{Label: "Number", Value: number},
		{Label: "Date", Value: doc.IssuedDate.Format(dateLayout)},
	}
	if doc.Type == docnum.TypeQuotation {
		if doc.ValidUntil != nil {
			fields = append(fields, layout.Field{Label: "Valid Until", Value: doc.ValidUntil.Format(dateLayout)})
		}
	} else if doc.DueDate != nil {
		fields = append(fields, layout.Field{Label: "Due Date", Value: doc.DueDate.Format(dateLayout)})
	}
	if doc.CurrencyCode != "" && doc.CurrencyCode != c.cfg.BaseCurrency {
		fields = append(fields, layout.Field{
			Label: "Exchange Rate",
			Value: fmt.Sprintf("1 %s = %s %s", doc.CurrencyCode, money.Format(doc.CurrencyRate), c.cfg.BaseCurrency),
		})
	}
	return fields
}

// drawBox renders a bordered box with a filled title strip and the
// populated field lines. Measurement already happened; height is given.
func (c *Composer) drawBox(x, y, w, h float64, title string, fields []layout.Field) {
	pad := c.cfg.BoxPadding
	lh := c.cfg.LineHeight

	c.backend.DrawRect(x, y, w, h, RectOptions{})
	c.backend.DrawRect(x, y, w, c.cfg.HeaderStrip, RectOptions{Fill: true})
	c.backend.DrawText(title, x+pad, y+c.cfg.HeaderStrip-lh*0.45, TextOptions{Style: "B"})

	lines := c.sizer.FieldLines(fields, w-2*pad)
	for i, line := range lines {
		c.backend.DrawText(line, x+pad, y+c.cfg.HeaderStrip+float64(i+1)*lh-lh*0.25, TextOptions{})
	}
}

func (c *Composer) drawItemTable(cur *layout.Cursor, doc Document) error {
	// Make sure at least the header row and one item fit before the
	// backend takes over.
	c.ensure(cur, c.cfg.LineHeight*4)

	rows := make([][]string, 0, len(doc.Items))
	for i, li := range doc.Items {
		name := li.Name
		if li.Description != "" {
			name += " - " + li.Description
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			name,
			trimQty(li.Quantity),
			money.Format(li.UnitPrice),
			money.Format(li.Total()),
		})
	}
	w := c.cfg.contentWidth()
	table := Table{
		Header: []string{"#", "Item", "Qty", "Unit Price", "Amount"},
		Rows:   rows,
		Widths: []float64{w * 0.06, w * 0.46, w * 0.12, w * 0.18, w * 0.18},
		Aligns: []string{"C", "L", "R", "R", "R"},
	}

	endPage, endY, err := c.backend.DrawTable(table, c.cfg.Margin, cur.Y())
	if err != nil {
		return err
	}
	// The table's growth is only known after the backend drew it.
	cur.SyncAfterTable(endPage, endY)
	cur.Advance(c.cfg.LineHeight)
	return nil
}

func trimQty(q float64) string {
	s := fmt.Sprintf("%.3f", q)
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}

func (c *Composer) drawSummaryBoxes(cur *layout.Cursor, doc Document, totals money.Totals) {
	const gutter = 6.0
	boxWidth := (c.cfg.contentWidth() - gutter) / 2
	innerWidth := boxWidth - 2*c.cfg.BoxPadding

	summaryFields := []layout.Field{
		{Label: "Subtotal", Value: money.FormatWithCode(c.cfg.BaseCurrency, totals.Subtotal)},
		{Label: fmt.Sprintf("VAT (%.0f%%)", doc.TaxRate*100), Value: money.FormatWithCode(c.cfg.BaseCurrency, totals.TaxAmount)},
	}
	if totals.FreightAmount > 0 {
		summaryFields = append(summaryFields, layout.Field{
			Label: "Freight", Value: money.FormatWithCode(c.cfg.BaseCurrency, totals.FreightAmount),
		})
	}
	summaryFields = append(summaryFields, layout.Field{
		Label: "TOTAL", Value: money.FormatWithCode(c.cfg.BaseCurrency, totals.GrandTotal),
	})
	if doc.CurrencyCode != "" && doc.CurrencyCode != c.cfg.BaseCurrency {
		if conv, err := totals.Convert(doc.CurrencyRate); err == nil {
			summaryFields = append(summaryFields, layout.Field{
				Label: fmt.Sprintf("Total (%s)", doc.CurrencyCode),
				Value: money.FormatWithCode(doc.CurrencyCode, conv.GrandTotal),
			})
		}
	}

	paymentFields := c.cfg.PaymentFields

	summaryH := c.sizer.MeasureBox(summaryFields, innerWidth)
	paymentH := c.sizer.MeasureBox(paymentFields, innerWidth)
	shared := layout.PairHeight(summaryH, paymentH)

	c.ensure(cur, shared+c.cfg.LineHeight)

	x, y := c.cfg.Margin, cur.Y()
	c.drawBox(x, y, boxWidth, shared, "Payment Details", paymentFields)
	c.drawBox(x+boxWidth+gutter, y, boxWidth, shared, "Summary", summaryFields)

	cur.Advance(shared + c.cfg.LineHeight)
}

func (c *Composer) drawCustomSections(cur *layout.Cursor, doc Document) {
	if doc.ClientResponsibilities != "" {
		c.drawTextSection(cur, "Client Responsibilities", doc.ClientResponsibilities)
	}
}

func (c *Composer) drawFooter(cur *layout.Cursor, doc Document) {
	if doc.TermsAndConditions != "" {
		c.drawTextSection(cur, "Terms & Conditions", doc.TermsAndConditions)
	}
	lh := c.cfg.LineHeight
	c.ensure(cur, lh*2)
	c.backend.DrawText("Thank you for your business.", c.cfg.Margin, cur.Y()+lh, TextOptions{Style: "I"})
	cur.Advance(lh * 2)
}

// drawTextSection writes a titled block of wrapped text. The title is
// kept with the first line; subsequent lines break pages individually
// so arbitrarily long text never overflows.
func (c *Composer) drawTextSection(cur *layout.Cursor, title, text string) {
	lh := c.cfg.LineHeight
	lines := c.backend.MeasureText(text, c.cfg.contentWidth())

	c.ensure(cur, lh*2+lh)
	c.backend.DrawText(title, c.cfg.Margin, cur.Y()+lh, TextOptions{Style: "B"})
	cur.Advance(lh * 1.4)

	for _, line := range lines {
		c.ensure(cur, lh)
		c.backend.DrawText(line, c.cfg.Margin, cur.Y()+lh*0.8, TextOptions{})
		cur.Advance(lh)
	}
	cur.Advance(lh)
}

// stampPageNumbers is the second pass: runs only after content layout
// because the total is unknown until then.
func (c *Composer) stampPageNumbers(total int) {
	for i := 0; i < total; i++ {
		c.backend.SetPage(i)
		label := fmt.Sprintf("Page %d of %d", i+1, total)
		c.backend.DrawText(label, c.cfg.Margin, c.cfg.PageHeight-c.cfg.Margin/2,
			TextOptions{Size: 8, Align: "C", Width: c.cfg.contentWidth()})
	}
}
