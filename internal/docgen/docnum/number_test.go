package docnum

import "testing"

func TestFormat(t *testing.T) {
	cases := []struct {
		t    DocType
		year int
		seq  int64
		want string
	}{
		{TypeInvoice, 2025, 1, "INV-2025-000001"},
		{TypeInvoice, 2025, 123, "INV-2025-000123"},
		{TypeQuotation, 2024, 999999, "QTN-2024-999999"},
		{TypeProforma, 2025, 0, "PRF-2025-000000"},
	}
	for _, tc := range cases {
		if got := Format(tc.t, tc.year, tc.seq); got != tc.want {
			t.Fatalf("Format(%s,%d,%d) = %q, want %q", tc.t, tc.year, tc.seq, got, tc.want)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	types := []DocType{TypeInvoice, TypeQuotation, TypeProforma}
	seqs := []int64{0, 1, 9, 99, 1000, 54321, 123456, 999999}
	for _, ty := range types {
		for _, seq := range seqs {
			s := Format(ty, 2025, seq)
			n, err := Parse(s)
			if err != nil {
				t.Fatalf("Parse(%q): %v", s, err)
			}
			if n.Type != ty || n.Year != 2025 || n.Sequence != seq {
				t.Fatalf("Parse(%q) = %+v", s, n)
			}
			if n.String() != s {
				t.Fatalf("round trip %q -> %q", s, n.String())
			}
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"INV-2025",
		"XXX-2025-000001",
		"INV-25-000001",
		"INV-2025-12",
		"INV-2025--00001",
		"INV-2025-abcdef",
	}
	for _, s := range bad {
		if _, err := Parse(s); err == nil {
			t.Fatalf("Parse(%q) accepted malformed input", s)
		}
	}
}
