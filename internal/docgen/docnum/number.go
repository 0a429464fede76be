// Package docnum assigns year-scoped, per-type document numbers and
// formats them into their canonical printable form.
package docnum

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DocType identifies the kind of document being numbered.
type DocType string

const (
	TypeInvoice   DocType = "invoice"
	TypeQuotation DocType = "quotation"
	TypeProforma  DocType = "proforma"
)

var ErrBadNumber = errors.New("malformed document number")

var prefixes = map[DocType]string{
	TypeInvoice:   "INV",
	TypeQuotation: "QTN",
	TypeProforma:  "PRF",
}

var typesByPrefix = map[string]DocType{
	"INV": TypeInvoice,
	"QTN": TypeQuotation,
	"PRF": TypeProforma,
}

// Valid reports whether t is one of the known document types.
func (t DocType) Valid() bool {
	_, ok := prefixes[t]
	return ok
}

// Prefix returns the numbering prefix for the type ("INV", "QTN", "PRF").
func (t DocType) Prefix() string {
	return prefixes[t]
}

// Title returns the printable document title.
func (t DocType) Title() string {
	switch t {
	case TypeQuotation:
		return "QUOTATION"
	case TypeProforma:
		return "PROFORMA INVOICE"
	default:
		return "INVOICE"
	}
}

// DocumentNumber is the immutable identity assigned to a finalized document.
type DocumentNumber struct {
	Type     DocType
	Year     int
	Sequence int64
}

// String renders the canonical form, e.g. "INV-2025-000123".
func (n DocumentNumber) String() string {
	return Format(n.Type, n.Year, n.Sequence)
}

// Format maps (type, year, sequence) to the canonical number string.
// Total for any sequence >= 0 and any year.
func Format(t DocType, year int, seq int64) string {
	return fmt.Sprintf("%s-%04d-%06d", t.Prefix(), year, seq)
}

// Parse inverts Format. It accepts sequences wider than six digits so
// numbers issued after a counter passes 999999 still round-trip.
func Parse(s string) (DocumentNumber, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return DocumentNumber{}, fmt.Errorf("%w: %q", ErrBadNumber, s)
	}
	t, ok := typesByPrefix[parts[0]]
	if !ok {
		return DocumentNumber{}, fmt.Errorf("%w: unknown prefix %q", ErrBadNumber, parts[0])
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 4 {
		return DocumentNumber{}, fmt.Errorf("%w: bad year %q", ErrBadNumber, parts[1])
	}
	seq, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || seq < 0 || len(parts[2]) < 6 {
		return DocumentNumber{}, fmt.Errorf("%w: bad sequence %q", ErrBadNumber, parts[2])
	}
	return DocumentNumber{Type: t, Year: year, Sequence: seq}, nil
}
