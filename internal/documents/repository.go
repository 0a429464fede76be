package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hesabu-biz/hesabu/internal/inventory"
	"github.com/hesabu-biz/hesabu/internal/platform/db"
	"github.com/hesabu-biz/hesabu/internal/platform/httpx"
)

// Deduction is a stock decrement applied atomically with finalization.
type Deduction struct {
	ProductID int64
	Quantity  float64
}

type Repository interface {
	Get(ctx context.Context, id int64) (*Document, error)
	List(ctx context.Context, req ListDocumentsRequest) ([]Document, int, error)
	Create(ctx context.Context, d *Document) (int64, error)
	// UpdateDraft rewrites the header and, when replaceLines is set, all
	// lines. Finalized documents are immutable; updating one returns
	// httpx.ErrConflict.
	UpdateDraft(ctx context.Context, d *Document, replaceLines bool) error
	// Finalize stamps number, status, customer snapshot and frozen
	// totals, and applies the stock deductions, all in one transaction.
	Finalize(ctx context.Context, d *Document, deductions []Deduction) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const documentColumns = `id, public_id, type, status, number,
	customer_id, customer_name, customer_phone, customer_email, customer_address, customer_kra_pin,
	issued_date, due_date, valid_until,
	tax_rate, freight_rate_per_kg, currency_code, currency_rate,
	client_responsibilities, terms_and_conditions,
	subtotal, tax_amount, freight_amount, grand_total,
	created_at, updated_at, finalized_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(
		&d.ID, &d.PublicID, &d.Type, &d.Status, &d.Number,
		&d.CustomerID, &d.CustomerName, &d.CustomerPhone, &d.CustomerEmail, &d.CustomerAddress, &d.CustomerKRAPin,
		&d.IssuedDate, &d.DueDate, &d.ValidUntil,
		&d.TaxRate, &d.FreightRatePerKg, &d.CurrencyCode, &d.CurrencyRate,
		&d.ClientResponsibilities, &d.TermsAndConditions,
		&d.Subtotal, &d.TaxAmount, &d.FreightAmount, &d.GrandTotal,
		&d.CreatedAt, &d.UpdatedAt, &d.FinalizedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Document, error) {
	d, err := scanDocument(r.pool.QueryRow(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = $1", id))
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, name, description, quantity, unit_price, weight_kg
		FROM document_lines WHERE document_id = $1 ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load document lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.ProductID, &l.Name, &l.Description, &l.Quantity, &l.UnitPrice, &l.WeightKg); err != nil {
			return nil, err
		}
		d.Lines = append(d.Lines, l)
	}
	return d, rows.Err()
}

// List returns document headers only; fetch a single document for its
// lines.
func (r *repository) List(ctx context.Context, req ListDocumentsRequest) ([]Document, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if req.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argPos))
		args = append(args, *req.Type)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *req.CustomerID)
		argPos++
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM documents "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM documents %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		documentColumns, where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, d *Document) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO documents (
				public_id, type, status, customer_id,
				issued_date, due_date, valid_until,
				tax_rate, freight_rate_per_kg, currency_code, currency_rate,
				client_responsibilities, terms_and_conditions
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id
		`, d.PublicID, d.Type, d.Status, d.CustomerID,
			d.IssuedDate, d.DueDate, d.ValidUntil,
			d.TaxRate, d.FreightRatePerKg, d.CurrencyCode, d.CurrencyRate,
			d.ClientResponsibilities, d.TermsAndConditions,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
		return insertLines(ctx, tx, id, d.Lines)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) UpdateDraft(ctx context.Context, d *Document, replaceLines bool) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE documents SET
				customer_id = $1, issued_date = $2, due_date = $3, valid_until = $4,
				tax_rate = $5, freight_rate_per_kg = $6, currency_code = $7, currency_rate = $8,
				client_responsibilities = $9, terms_and_conditions = $10,
				updated_at = NOW()
			WHERE id = $11 AND status = 'draft'
		`, d.CustomerID, d.IssuedDate, d.DueDate, d.ValidUntil,
			d.TaxRate, d.FreightRatePerKg, d.CurrencyCode, d.CurrencyRate,
			d.ClientResponsibilities, d.TermsAndConditions, d.ID)
		if err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return draftMissingReason(ctx, tx, d.ID)
		}
		if !replaceLines {
			return nil
		}
		if _, err := tx.Exec(ctx, "DELETE FROM document_lines WHERE document_id = $1", d.ID); err != nil {
			return fmt.Errorf("clear document lines: %w", err)
		}
		return insertLines(ctx, tx, d.ID, d.Lines)
	})
}

func (r *repository) Finalize(ctx context.Context, d *Document, deductions []Deduction) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE documents SET
				status = 'finalized', number = $1,
				customer_name = $2, customer_phone = $3, customer_email = $4,
				customer_address = $5, customer_kra_pin = $6,
				subtotal = $7, tax_amount = $8, freight_amount = $9, grand_total = $10,
				finalized_at = NOW(), updated_at = NOW()
			WHERE id = $11 AND status = 'draft'
		`, d.Number,
			d.CustomerName, d.CustomerPhone, d.CustomerEmail,
			d.CustomerAddress, d.CustomerKRAPin,
			d.Subtotal, d.TaxAmount, d.FreightAmount, d.GrandTotal, d.ID)
		if err != nil {
			return fmt.Errorf("finalize document: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return draftMissingReason(ctx, tx, d.ID)
		}

		for _, ded := range deductions {
			tag, err := tx.Exec(ctx, `
				UPDATE products
				SET quantity = quantity - $1, updated_at = NOW()
				WHERE id = $2 AND quantity - $1 >= 0
			`, ded.Quantity, ded.ProductID)
			if err != nil {
				return fmt.Errorf("deduct stock: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: product %d", inventory.ErrInsufficientStock, ded.ProductID)
			}
		}
		return nil
	})
}

func insertLines(ctx context.Context, tx pgx.Tx, documentID int64, lines []Line) error {
	for _, l := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO document_lines (document_id, product_id, name, description, quantity, unit_price, weight_kg)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, documentID, l.ProductID, l.Name, l.Description, l.Quantity, l.UnitPrice, l.WeightKg)
		if err != nil {
			return fmt.Errorf("insert document line: %w", err)
		}
	}
	return nil
}

// draftMissingReason distinguishes a missing document from an already
// finalized one after a guarded draft update matched no rows.
func draftMissingReason(ctx context.Context, tx pgx.Tx, id int64) error {
	var status Status
	err := tx.QueryRow(ctx, "SELECT status FROM documents WHERE id = $1", id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return httpx.ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: document is %s and can no longer change", httpx.ErrConflict, status)
}
