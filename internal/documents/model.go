// Package documents owns the invoice/quotation/proforma lifecycle:
// draft editing, finalization (number assignment, totals freeze, stock
// deduction) and PDF rendering.
package documents

import (
	"time"

	"github.com/google/uuid"

	"github.com/hesabu-biz/hesabu/internal/docgen/docnum"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusFinalized Status = "finalized"
)

// Line is one priced row. When ProductID is set the row was built from
// the catalog, but name, price and weight are copied in so later product
// edits never change an issued document.
type Line struct {
	ID          int64   `json:"id"`
	ProductID   *int64  `json:"product_id,omitempty"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	WeightKg    float64 `json:"weight_kg"`
}

// Document is a draft or finalized business document. Drafts reference
// the customer record; finalization snapshots the customer fields and
// the computed totals onto the document so the printed figures can
// never drift afterwards.
type Document struct {
	ID       int64          `json:"id"`
	PublicID uuid.UUID      `json:"public_id"`
	Type     docnum.DocType `json:"type"`
	Status   Status         `json:"status"`
	Number   *string        `json:"number,omitempty"`

	CustomerID      int64   `json:"customer_id"`
	CustomerName    *string `json:"customer_name,omitempty"`
	CustomerPhone   *string `json:"customer_phone,omitempty"`
	CustomerEmail   *string `json:"customer_email,omitempty"`
	CustomerAddress *string `json:"customer_address,omitempty"`
	CustomerKRAPin  *string `json:"customer_kra_pin,omitempty"`

	IssuedDate time.Time  `json:"issued_date"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`

	TaxRate          float64 `json:"tax_rate"`
	FreightRatePerKg float64 `json:"freight_rate_per_kg"`

	CurrencyCode *string  `json:"currency_code,omitempty"`
	CurrencyRate *float64 `json:"currency_rate,omitempty"`

	ClientResponsibilities *string `json:"client_responsibilities,omitempty"`
	TermsAndConditions     *string `json:"terms_and_conditions,omitempty"`

	Subtotal      *float64 `json:"subtotal,omitempty"`
	TaxAmount     *float64 `json:"tax_amount,omitempty"`
	FreightAmount *float64 `json:"freight_amount,omitempty"`
	GrandTotal    *float64 `json:"grand_total,omitempty"`

	Lines []Line `json:"lines"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
}

// Editable reports whether the document can still be changed.
func (d *Document) Editable() bool {
	return d.Status == StatusDraft
}

// ReferenceID is the identifier used in export filenames: the assigned
// number once finalized, the public UUID while drafting.
func (d *Document) ReferenceID() string {
	if d.Number != nil && *d.Number != "" {
		return *d.Number
	}
	return d.PublicID.String()
}
