package compose

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hesabu-biz/hesabu/internal/docgen/docnum"
	"github.com/hesabu-biz/hesabu/internal/docgen/money"
)

type op struct {
	kind string
	page int
	s    string
	x, y float64
	w, h float64
}

// fakeBackend records drawing operations and mimics the geometry a real
// typesetting backend would apply (char-count wrapping, table rows that
// spill onto new pages).
type fakeBackend struct {
	ops        []op
	page       int
	pages      int
	perLine    int
	pageHeight float64
	margin     float64
	rowHeight  float64
	tableErr   error
	imageErr   error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{page: -1, perLine: 60, pageHeight: 297, margin: 15, rowHeight: 6}
}

func (f *fakeBackend) AddPage() {
	f.pages++
	f.page = f.pages - 1
	f.ops = append(f.ops, op{kind: "addpage", page: f.page})
}

func (f *fakeBackend) SetPage(n int) {
	f.page = n
	f.ops = append(f.ops, op{kind: "setpage", page: n})
}

func (f *fakeBackend) PageCount() int { return f.pages }

func (f *fakeBackend) DrawText(s string, x, y float64, _ TextOptions) {
	f.ops = append(f.ops, op{kind: "text", page: f.page, s: s, x: x, y: y})
}

func (f *fakeBackend) DrawRect(x, y, w, h float64, _ RectOptions) {
	f.ops = append(f.ops, op{kind: "rect", page: f.page, x: x, y: y, w: w, h: h})
}

func (f *fakeBackend) DrawImage(_ []byte, x, y, w, h float64) error {
	if f.imageErr != nil {
		return f.imageErr
	}
	f.ops = append(f.ops, op{kind: "image", page: f.page, x: x, y: y, w: w, h: h})
	return nil
}

func (f *fakeBackend) MeasureText(s string, _ float64) []string {
	if s == "" {
		return nil
	}
	var lines []string
	for len(s) > f.perLine {
		lines = append(lines, s[:f.perLine])
		s = s[f.perLine:]
	}
	return append(lines, s)
}

func (f *fakeBackend) DrawTable(t Table, _, y float64) (int, float64, error) {
	if f.tableErr != nil {
		return 0, 0, f.tableErr
	}
	for range append([][]string{t.Header}, t.Rows...) {
		if y+f.rowHeight > f.pageHeight-f.margin {
			f.AddPage()
			y = f.margin
		}
		y += f.rowHeight
	}
	f.ops = append(f.ops, op{kind: "table", page: f.page, y: y})
	return f.page, y, nil
}

func (f *fakeBackend) texts() []string {
	var out []string
	for _, o := range f.ops {
		if o.kind == "text" {
			out = append(out, o.s)
		}
	}
	return out
}

func testDoc() Document {
	due := time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)
	return Document{
		ID:     "42",
		Type:   docnum.TypeInvoice,
		Number: "INV-2025-000042",
		Customer: Customer{
			Name:    "Wanjiku Traders",
			Phone:   "+254 700 000000",
			Email:   "info@wanjikutraders.co.ke",
			Address: "P.O. Box 123, Nairobi",
			KRAPin:  "A012345678Z",
		},
		Items: []money.LineItem{
			{Name: "Cement 50kg", Quantity: 2, UnitPrice: 100, WeightKg: 50},
			{Name: "Nails", Quantity: 1, UnitPrice: 50},
			{Name: "Wire", Quantity: 5, UnitPrice: 20},
		},
		IssuedDate: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		DueDate:    &due,
		TaxRate:    0.16,
	}
}

func TestComposeSinglePage(t *testing.T) {
	backend := newFakeBackend()
	comp := New(backend, Config{Company: CompanyInfo{Name: "Hesabu Hardware Ltd"}}, nil)

	pages, err := comp.Compose(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if pages != 1 {
		t.Fatalf("pages = %d, want 1", pages)
	}

	texts := strings.Join(backend.texts(), "\n")
	for _, want := range []string{
		"Hesabu Hardware Ltd",
		"INVOICE",
		"INV-2025-000042",
		"Bill To",
		"Wanjiku Traders",
		"KRA PIN: A012345678Z",
		"Due Date: 30 Apr 2025",
		"Subtotal: KES 350.00",
		"VAT (16%): KES 56.00",
		"TOTAL: KES 406.00",
		"Page 1 of 1",
	} {
		if !strings.Contains(texts, want) {
			t.Fatalf("missing %q in drawn text:\n%s", want, texts)
		}
	}
}

func TestComposeSectionOrder(t *testing.T) {
	backend := newFakeBackend()
	comp := New(backend, Config{Company: CompanyInfo{Name: "Hesabu"}}, nil)
	doc := testDoc()
	doc.ClientResponsibilities = "Provide site access."
	doc.TermsAndConditions = "Payment due in 30 days."

	if _, err := comp.Compose(context.Background(), doc); err != nil {
		t.Fatalf("Compose: %v", err)
	}

	texts := backend.texts()
	indexOf := func(substr string) int {
		for i, s := range texts {
			if strings.Contains(s, substr) {
				return i
			}
		}
		t.Fatalf("missing %q", substr)
		return -1
	}
	order := []string{"INVOICE", "Bill To", "Summary", "Client Responsibilities", "Terms & Conditions", "Page 1 of 1"}
	last := -1
	for _, section := range order {
		i := indexOf(section)
		if i <= last {
			t.Fatalf("section %q drawn out of order", section)
		}
		last = i
	}
}

func TestComposeMultiPageStampsEveryPage(t *testing.T) {
	backend := newFakeBackend()
	comp := New(backend, Config{Company: CompanyInfo{Name: "Hesabu"}}, nil)
	doc := testDoc()
	doc.TermsAndConditions = strings.Repeat("All goods remain our property until paid in full. ", 80)

	pages, err := comp.Compose(context.Background(), doc)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if pages < 2 {
		t.Fatalf("expected overflow onto a second page, got %d", pages)
	}

	var stamps int
	for _, o := range backend.ops {
		if o.kind == "text" && strings.HasPrefix(o.s, "Page ") {
			stamps++
		}
	}
	if stamps != pages {
		t.Fatalf("stamped %d pages, want %d", stamps, pages)
	}
}

func TestSiblingBoxesShareHeight(t *testing.T) {
	backend := newFakeBackend()
	comp := New(backend, Config{Company: CompanyInfo{Name: "Hesabu"}}, nil)

	if _, err := comp.Compose(context.Background(), testDoc()); err != nil {
		t.Fatalf("Compose: %v", err)
	}

	// Box outlines drawn at the same y with different x must be equally
	// tall; that is the pair-alignment invariant. The tallest rect per
	// (y, x) is the box outline; shorter ones are title strips.
	outlines := map[float64]map[float64]float64{}
	for _, o := range backend.ops {
		if o.kind != "rect" {
			continue
		}
		if outlines[o.y] == nil {
			outlines[o.y] = map[float64]float64{}
		}
		if o.h > outlines[o.y][o.x] {
			outlines[o.y][o.x] = o.h
		}
	}
	var pairs int
	for y, byX := range outlines {
		if len(byX) < 2 {
			continue
		}
		var first float64
		for _, h := range byX {
			if first == 0 {
				first = h
			} else if h != first {
				t.Fatalf("sibling boxes at y=%v differ in height: %v vs %v", y, first, h)
			}
		}
		pairs++
	}
	if pairs == 0 {
		t.Fatal("no sibling box pairs recorded")
	}
}

func TestBillToShrinksWithoutOptionalFields(t *testing.T) {
	height := func(doc Document) float64 {
		backend := newFakeBackend()
		comp := New(backend, Config{Company: CompanyInfo{Name: "Hesabu"}}, nil)
		if _, err := comp.Compose(context.Background(), doc); err != nil {
			t.Fatalf("Compose: %v", err)
		}
		// Tallest outline at the detail-box row is the shared height.
		var billTo op
		for i, o := range backend.ops {
			if o.kind == "text" && o.s == "Bill To" {
				// Outline rect precedes the title strip and title text.
				billTo = backend.ops[i-2]
			}
		}
		if billTo.kind != "rect" {
			t.Fatal("Bill To box outline not found")
		}
		return billTo.h
	}

	full := testDoc()
	bare := testDoc()
	bare.Customer.Address = ""
	bare.Customer.KRAPin = ""

	// Two optional single-line fields removed: exactly two content
	// lines (default line height 5) shorter.
	if diff := height(full) - height(bare); diff != 10 {
		t.Fatalf("height difference = %v, want 10", diff)
	}
}

type failingAsset struct{ err error }

func (a failingAsset) Load(context.Context) ([]byte, error) { return nil, a.err }

type slowAsset struct{ delay time.Duration }

func (a slowAsset) Load(ctx context.Context) ([]byte, error) {
	select {
	case <-time.After(a.delay):
		return []byte{1}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type staticAsset []byte

func (a staticAsset) Load(context.Context) ([]byte, error) { return a, nil }

func TestLogoFailureDoesNotAbort(t *testing.T) {
	backend := newFakeBackend()
	cfg := Config{Company: CompanyInfo{Name: "Hesabu"}, Logo: failingAsset{errors.New("decode failure")}}
	comp := New(backend, cfg, nil)

	if _, err := comp.Compose(context.Background(), testDoc()); err != nil {
		t.Fatalf("asset failure must not abort composition: %v", err)
	}
	for _, o := range backend.ops {
		if o.kind == "image" {
			t.Fatal("image drawn despite load failure")
		}
	}
}

func TestLogoTimeoutFallsBackToNoImage(t *testing.T) {
	backend := newFakeBackend()
	cfg := Config{
		Company:     CompanyInfo{Name: "Hesabu"},
		Logo:        slowAsset{delay: time.Second},
		LogoTimeout: 10 * time.Millisecond,
	}
	comp := New(backend, cfg, nil)

	start := time.Now()
	if _, err := comp.Compose(context.Background(), testDoc()); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("slow asset stalled composition")
	}
}

func TestDrawImageErrorTolerated(t *testing.T) {
	backend := newFakeBackend()
	backend.imageErr = errors.New("unsupported format")
	cfg := Config{Company: CompanyInfo{Name: "Hesabu"}, Logo: staticAsset{0xff}}
	comp := New(backend, cfg, nil)

	if _, err := comp.Compose(context.Background(), testDoc()); err != nil {
		t.Fatalf("decorative draw failure must not abort: %v", err)
	}
}

func TestTableFailureAborts(t *testing.T) {
	backend := newFakeBackend()
	backend.tableErr = errors.New("out of memory")
	comp := New(backend, Config{Company: CompanyInfo{Name: "Hesabu"}}, nil)

	if _, err := comp.Compose(context.Background(), testDoc()); err == nil {
		t.Fatal("backend failure must propagate")
	}
}

func TestValidationBeforeAnyDrawing(t *testing.T) {
	backend := newFakeBackend()
	comp := New(backend, Config{Company: CompanyInfo{Name: "Hesabu"}}, nil)

	doc := testDoc()
	doc.Items = nil
	if _, err := comp.Compose(context.Background(), doc); !errors.Is(err, money.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(backend.ops) != 0 {
		t.Fatalf("drew %d ops for an invalid document", len(backend.ops))
	}
}

func TestValidateRejectsNegativeRates(t *testing.T) {
	doc := testDoc()
	doc.TaxRate = -0.16
	if err := Validate(doc); !errors.Is(err, money.ErrValidation) {
		t.Fatalf("negative tax rate: expected validation error, got %v", err)
	}

	doc = testDoc()
	doc.FreightRate = -5
	if err := Validate(doc); !errors.Is(err, money.ErrValidation) {
		t.Fatalf("negative freight rate: expected validation error, got %v", err)
	}

	backend := newFakeBackend()
	comp := New(backend, Config{Company: CompanyInfo{Name: "Hesabu"}}, nil)
	doc = testDoc()
	doc.TaxRate = -0.16
	if _, err := comp.Compose(context.Background(), doc); !errors.Is(err, money.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(backend.ops) != 0 {
		t.Fatalf("drew %d ops with a negative tax rate", len(backend.ops))
	}
}

func TestFilename(t *testing.T) {
	got := Filename("Hesabu Hardware Ltd", docnum.TypeInvoice, "42")
	if got != "Hesabu_Hardware_Ltd_invoice_42.pdf" {
		t.Fatalf("filename = %q", got)
	}
	if got := Filename("A/B:C", docnum.TypeQuotation, "x*y"); got != "ABC_quotation_xy.pdf" {
		t.Fatalf("filename = %q", got)
	}
}
