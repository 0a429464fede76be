package docnum

import "context"

// Counters is the persisted sequence record: one counter per document
// type plus the year the counters belong to. Stored and written as a
// single unit.
type Counters struct {
	Invoice   int64 `json:"invoice"`
	Quotation int64 `json:"quotation"`
	Proforma  int64 `json:"proforma"`
	LastYear  int   `json:"lastYear"`
}

func (c Counters) get(t DocType) int64 {
	switch t {
	case TypeQuotation:
		return c.Quotation
	case TypeProforma:
		return c.Proforma
	default:
		return c.Invoice
	}
}

func (c *Counters) set(t DocType, v int64) {
	switch t {
	case TypeQuotation:
		c.Quotation = v
	case TypeProforma:
		c.Proforma = v
	default:
		c.Invoice = v
	}
}

// CounterStore persists the counter record. Load returns the zero
// record when nothing has been stored yet; it returns an error only
// when the record exists but cannot be read.
type CounterStore interface {
	Load(ctx context.Context) (Counters, error)
	Save(ctx context.Context, c Counters) error
}
