package docnum

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Service hands out document numbers. Counters are read, advanced and
// written back as one unit per call; the mutex makes that atomic within
// a single process. Cross-process callers can still race on the
// underlying store, a known limitation for a single-user tool.
type Service struct {
	mu     sync.Mutex
	store  CounterStore
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store CounterStore, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

// load reads the counter record, falling back to zeroed counters when
// the record is unreadable (numbering must never block document
// creation), and applies the yearly rollover: a year change resets all
// counters before the first increment of the new year.
func (s *Service) load(ctx context.Context) Counters {
	c, err := s.store.Load(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("counter record unreadable, starting from zero", slog.Any("error", err))
		}
		c = Counters{}
	}
	if year := s.now().Year(); c.LastYear != year {
		c = Counters{LastYear: year}
	}
	return c
}

// GetNext advances the counter for t and returns the assigned number.
// The counter is permanently consumed; never call this for previews.
func (s *Service) GetNext(ctx context.Context, t DocType) (DocumentNumber, error) {
	if !t.Valid() {
		return DocumentNumber{}, fmt.Errorf("docnum: unknown document type %q", t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.load(ctx)
	next := c.get(t) + 1
	c.set(t, next)
	if err := s.store.Save(ctx, c); err != nil {
		return DocumentNumber{}, fmt.Errorf("docnum: persist counters: %w", err)
	}
	return DocumentNumber{Type: t, Year: c.LastYear, Sequence: next}, nil
}

// PeekNext returns the number GetNext would assign, without persisting
// anything. Used for "next number will be..." previews.
func (s *Service) PeekNext(ctx context.Context, t DocType) (DocumentNumber, error) {
	if !t.Valid() {
		return DocumentNumber{}, fmt.Errorf("docnum: unknown document type %q", t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.load(ctx)
	return DocumentNumber{Type: t, Year: c.LastYear, Sequence: c.get(t) + 1}, nil
}
