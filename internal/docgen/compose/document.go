package compose

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hesabu-biz/hesabu/internal/docgen/docnum"
	"github.com/hesabu-biz/hesabu/internal/docgen/layout"
	"github.com/hesabu-biz/hesabu/internal/docgen/money"
)

// Customer is the party the document is addressed to. Optional fields
// left empty are skipped when the Bill To box is measured and drawn.
type Customer struct {
	Name    string
	Phone   string
	Email   string
	Address string
	KRAPin  string
}

// Document is the finalized, in-memory input to composition. The
// composer never mutates it.
type Document struct {
	ID       string
	Type     docnum.DocType
	Number   string // empty for previews; rendered as DRAFT
	Customer Customer
	Items    []money.LineItem

	IssuedDate time.Time
	DueDate    *time.Time // invoices and proformas
	ValidUntil *time.Time // quotations

	TaxRate     float64
	FreightRate float64 // per kg; zero when nothing is shipped

	CurrencyCode string  // display currency; empty = base only
	CurrencyRate float64 // base units per display unit

	ClientResponsibilities string
	TermsAndConditions     string
}

// Validate is called before any side effect (in particular before a
// sequence number is consumed). A document that fails here is never
// composed.
func Validate(doc Document) error {
	if !doc.Type.Valid() {
		return fmt.Errorf("%w: unknown document type %q", money.ErrValidation, doc.Type)
	}
	if strings.TrimSpace(doc.Customer.Name) == "" {
		return fmt.Errorf("%w: customer name required", money.ErrValidation)
	}
	if len(doc.Items) == 0 {
		return fmt.Errorf("%w: document has no line items", money.ErrValidation)
	}
	for i, li := range doc.Items {
		if err := li.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	if doc.TaxRate < 0 {
		return fmt.Errorf("%w: tax rate must not be negative, got %v", money.ErrValidation, doc.TaxRate)
	}
	if doc.FreightRate < 0 {
		return fmt.Errorf("%w: freight rate must not be negative, got %v", money.ErrValidation, doc.FreightRate)
	}
	if doc.CurrencyCode != "" && doc.CurrencyRate <= 0 {
		return fmt.Errorf("%w: currency rate required for display currency %s", money.ErrValidation, doc.CurrencyCode)
	}
	return nil
}

// CompanyInfo is the issuing business, printed in the page header.
type CompanyInfo struct {
	Name    string
	Address string
	Phone   string
	Email   string
	KRAPin  string
}

// AssetLoader resolves a decorative asset (logo) before layout begins.
type AssetLoader interface {
	Load(ctx context.Context) ([]byte, error)
}

// FileAsset loads an asset from disk.
type FileAsset string

func (f FileAsset) Load(context.Context) ([]byte, error) {
	return os.ReadFile(string(f))
}

// Config holds every layout and identity default, resolved once at
// composition start rather than re-derived per section. Dimensions are
// in millimetres (A4 portrait by default).
type Config struct {
	PageWidth   float64
	PageHeight  float64
	Margin      float64
	LineHeight  float64
	HeaderStrip float64
	BoxPadding  float64

	BaseCurrency string
	Company      CompanyInfo
	// PaymentFields fill the Payment Details summary box (bank,
	// paybill, account numbers).
	PaymentFields []layout.Field

	Logo        AssetLoader
	LogoTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.PageWidth == 0 {
		c.PageWidth = 210
	}
	if c.PageHeight == 0 {
		c.PageHeight = 297
	}
	if c.Margin == 0 {
		c.Margin = 15
	}
	if c.LineHeight == 0 {
		c.LineHeight = 5
	}
	if c.HeaderStrip == 0 {
		c.HeaderStrip = 7
	}
	if c.BoxPadding == 0 {
		c.BoxPadding = 2.5
	}
	if c.BaseCurrency == "" {
		c.BaseCurrency = "KES"
	}
	if c.LogoTimeout == 0 {
		c.LogoTimeout = 2 * time.Second
	}
	return c
}

func (c Config) contentWidth() float64 {
	return c.PageWidth - 2*c.Margin
}

// Filename returns the export file name,
// "{companyName}_{documentType}_{documentID}.pdf".
func Filename(companyName string, t docnum.DocType, documentID string) string {
	clean := func(s string) string {
		s = strings.TrimSpace(s)
		s = strings.Map(func(r rune) rune {
			switch r {
			case ' ':
				return '_'
			case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
				return -1
			}
			return r
		}, s)
		return s
	}
	return fmt.Sprintf("%s_%s_%s.pdf", clean(companyName), t, clean(documentID))
}
