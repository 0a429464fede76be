package documents

import "time"

// LineInput describes one requested row. Name and UnitPrice may be
// omitted when ProductID is set; the catalog values fill them in.
type LineInput struct {
	ProductID   *int64   `json:"product_id,omitempty"`
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	Quantity    float64  `json:"quantity" validate:"gt=0"`
	UnitPrice   *float64 `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	WeightKg    *float64 `json:"weight_kg,omitempty" validate:"omitempty,gte=0"`
}

type CreateDocumentRequest struct {
	Type       string     `json:"type" validate:"required,oneof=invoice quotation proforma"`
	CustomerID int64      `json:"customer_id" validate:"required,gt=0"`
	IssuedDate *time.Time `json:"issued_date,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`

	TaxRate          *float64 `json:"tax_rate,omitempty" validate:"omitempty,gte=0"`
	FreightRatePerKg *float64 `json:"freight_rate_per_kg,omitempty" validate:"omitempty,gte=0"`

	CurrencyCode *string  `json:"currency_code,omitempty" validate:"omitempty,len=3"`
	CurrencyRate *float64 `json:"currency_rate,omitempty" validate:"omitempty,gt=0"`

	ClientResponsibilities *string `json:"client_responsibilities,omitempty"`
	TermsAndConditions     *string `json:"terms_and_conditions,omitempty"`

	Lines []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// UpdateDocumentRequest patches a draft. A non-nil Lines slice replaces
// every existing line.
type UpdateDocumentRequest struct {
	CustomerID *int64     `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	IssuedDate *time.Time `json:"issued_date,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`

	TaxRate          *float64 `json:"tax_rate,omitempty" validate:"omitempty,gte=0"`
	FreightRatePerKg *float64 `json:"freight_rate_per_kg,omitempty" validate:"omitempty,gte=0"`

	CurrencyCode *string  `json:"currency_code,omitempty" validate:"omitempty,len=3"`
	CurrencyRate *float64 `json:"currency_rate,omitempty" validate:"omitempty,gt=0"`

	ClientResponsibilities *string `json:"client_responsibilities,omitempty"`
	TermsAndConditions     *string `json:"terms_and_conditions,omitempty"`

	Lines *[]LineInput `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
}

type ListDocumentsRequest struct {
	Type       *string `json:"type,omitempty" validate:"omitempty,oneof=invoice quotation proforma"`
	Status     *string `json:"status,omitempty" validate:"omitempty,oneof=draft finalized"`
	CustomerID *int64  `json:"customer_id,omitempty"`
	Limit      int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int     `json:"offset" validate:"gte=0"`
}
