package docnum

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// counterRowID pins the record to a single row; the tool numbers
// documents for one company.
const counterRowID = 1

// PostgresStore keeps the counter record in a single row.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Load(ctx context.Context) (Counters, error) {
	var c Counters
	err := s.pool.QueryRow(ctx, `
		SELECT invoice_seq, quotation_seq, proforma_seq, last_year
		FROM document_counters
		WHERE id = $1
	`, counterRowID).Scan(&c.Invoice, &c.Quotation, &c.Proforma, &c.LastYear)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Counters{}, nil
		}
		return Counters{}, fmt.Errorf("docnum: load counters: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) Save(ctx context.Context, c Counters) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO document_counters (id, invoice_seq, quotation_seq, proforma_seq, last_year)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			invoice_seq = EXCLUDED.invoice_seq,
			quotation_seq = EXCLUDED.quotation_seq,
			proforma_seq = EXCLUDED.proforma_seq,
			last_year = EXCLUDED.last_year
	`, counterRowID, c.Invoice, c.Quotation, c.Proforma, c.LastYear)
	if err != nil {
		return fmt.Errorf("docnum: save counters: %w", err)
	}
	return nil
}
