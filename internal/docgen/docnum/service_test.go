package docnum

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	c       Counters
	saved   int
	loadErr error
	saveErr error
}

func (f *fakeStore) Load(context.Context) (Counters, error) {
	if f.loadErr != nil {
		return Counters{}, f.loadErr
	}
	return f.c, nil
}

func (f *fakeStore) Save(_ context.Context, c Counters) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.c = c
	f.saved++
	return nil
}

func fixedYear(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, time.June, 15, 12, 0, 0, 0, time.UTC)
	}
}

func newTestService(store CounterStore, year int) *Service {
	svc := NewService(store, nil)
	svc.now = fixedYear(year)
	return svc
}

func TestGetNextMonotonicGapless(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, 2025)

	for i := int64(1); i <= 50; i++ {
		n, err := svc.GetNext(context.Background(), TypeInvoice)
		if err != nil {
			t.Fatalf("GetNext: %v", err)
		}
		if n.Sequence != i {
			t.Fatalf("call %d returned sequence %d", i, n.Sequence)
		}
		if n.Year != 2025 {
			t.Fatalf("unexpected year %d", n.Year)
		}
	}
	if store.c.Invoice != 50 {
		t.Fatalf("persisted counter = %d, want 50", store.c.Invoice)
	}
}

func TestCountersIndependentPerType(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, 2025)

	inv, _ := svc.GetNext(context.Background(), TypeInvoice)
	qtn, _ := svc.GetNext(context.Background(), TypeQuotation)
	prf, _ := svc.GetNext(context.Background(), TypeProforma)
	inv2, _ := svc.GetNext(context.Background(), TypeInvoice)

	if inv.String() != "INV-2025-000001" || qtn.String() != "QTN-2025-000001" || prf.String() != "PRF-2025-000001" {
		t.Fatalf("first numbers: %s / %s / %s", inv, qtn, prf)
	}
	if inv2.String() != "INV-2025-000002" {
		t.Fatalf("second invoice: %s", inv2)
	}
}

func TestYearRolloverResetsAllCounters(t *testing.T) {
	store := &fakeStore{c: Counters{Invoice: 410, Quotation: 77, Proforma: 12, LastYear: 2024}}
	svc := newTestService(store, 2025)

	n, err := svc.GetNext(context.Background(), TypeQuotation)
	if err != nil {
		t.Fatalf("GetNext: %v", err)
	}
	if n.String() != "QTN-2025-000001" {
		t.Fatalf("first quotation of new year: %s", n)
	}
	// Rollover is all-or-nothing: the other types reset too.
	if store.c.Invoice != 0 || store.c.Proforma != 0 {
		t.Fatalf("other counters not reset: %+v", store.c)
	}
	if store.c.LastYear != 2025 {
		t.Fatalf("lastYear not advanced: %d", store.c.LastYear)
	}
}

func TestPeekMatchesGet(t *testing.T) {
	store := &fakeStore{c: Counters{Invoice: 7, LastYear: 2025}}
	svc := newTestService(store, 2025)

	peeked, err := svc.PeekNext(context.Background(), TypeInvoice)
	if err != nil {
		t.Fatalf("PeekNext: %v", err)
	}
	got, err := svc.GetNext(context.Background(), TypeInvoice)
	if err != nil {
		t.Fatalf("GetNext: %v", err)
	}
	if peeked != got {
		t.Fatalf("peek %v != get %v", peeked, got)
	}
}

func TestPeekDoesNotPersist(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, 2025)

	for i := 0; i < 5; i++ {
		if _, err := svc.PeekNext(context.Background(), TypeInvoice); err != nil {
			t.Fatalf("PeekNext: %v", err)
		}
	}
	if store.saved != 0 {
		t.Fatalf("peek persisted %d times", store.saved)
	}
}

func TestCorruptStoreFailsOpen(t *testing.T) {
	store := &fakeStore{loadErr: errors.New("corrupt record")}
	svc := newTestService(store, 2025)

	n, err := svc.GetNext(context.Background(), TypeInvoice)
	if err != nil {
		t.Fatalf("GetNext should not fail on unreadable counters: %v", err)
	}
	if n.String() != "INV-2025-000001" {
		t.Fatalf("fallback number: %s", n)
	}
}

func TestSaveFailurePropagates(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("disk full")}
	svc := newTestService(store, 2025)

	if _, err := svc.GetNext(context.Background(), TypeInvoice); err == nil {
		t.Fatal("expected persist error")
	}
}

func TestUnknownTypeRejected(t *testing.T) {
	svc := newTestService(&fakeStore{}, 2025)
	if _, err := svc.GetNext(context.Background(), DocType("receipt")); err == nil {
		t.Fatal("expected error for unknown type")
	}
	if _, err := svc.PeekNext(context.Background(), DocType("receipt")); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
