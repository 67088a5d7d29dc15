package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gearbox-erp/gearbox-erp/internal/platform/db"
)

// ErrNotFound indicates a missing sales document.
var ErrNotFound = errors.New("sales: document not found")

// Repository persists quotations and sales invoices.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	GenerateNumber(ctx context.Context, docType string, date time.Time) (string, error)
	InsertQuotation(ctx context.Context, q *Quotation) error
	GetQuotation(ctx context.Context, id string) (*Quotation, error)
	InsertInvoice(ctx context.Context, inv *SalesInvoice) error
	GetInvoice(ctx context.Context, id string) (*SalesInvoice, error)
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs the sales repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if r.pool == nil {
		return fn(ctx, r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx})
	})
}

// GenerateNumber allocates the next sequence for the doc type and day,
// e.g. QTN-2509-0042.
func (r *repository) GenerateNumber(ctx context.Context, docType string, date time.Time) (string, error) {
	var seq int64
	period := date.Format("200601")
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, docType, period).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%04d", docType, date.Format("0601"), seq), nil
}

func (r *repository) InsertQuotation(ctx context.Context, q *Quotation) error {
	err := r.db.QueryRow(ctx, `INSERT INTO quotations (id, doc_number, customer_id, company, total, created_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, NOW())
RETURNING created_at`,
		q.ID, q.DocNumber, q.Customer, q.Company, q.Total).Scan(&q.CreatedAt)
	if err != nil {
		return err
	}
	for i, line := range q.Lines {
		if _, err := r.db.Exec(ctx, `INSERT INTO quotation_lines (quotation_id, item_code, qty, rate, amount, line_order)
VALUES ($1, $2, $3, $4, $5, $6)`,
			q.ID, line.ItemCode, line.Qty, line.Rate, line.Amount, i+1); err != nil {
			return fmt.Errorf("insert quotation line: %w", err)
		}
	}
	return nil
}

func (r *repository) GetQuotation(ctx context.Context, id string) (*Quotation, error) {
	var q Quotation
	err := r.db.QueryRow(ctx, `SELECT id, doc_number, customer_id, COALESCE(company, ''), total, created_at
FROM quotations WHERE id = $1`, id).
		Scan(&q.ID, &q.DocNumber, &q.Customer, &q.Company, &q.Total, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rows, err := r.db.Query(ctx, `SELECT item_code, qty, rate, amount FROM quotation_lines
WHERE quotation_id = $1 ORDER BY line_order`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line QuotationLine
		if err := rows.Scan(&line.ItemCode, &line.Qty, &line.Rate, &line.Amount); err != nil {
			return nil, err
		}
		q.Lines = append(q.Lines, line)
	}
	return &q, rows.Err()
}

func (r *repository) InsertInvoice(ctx context.Context, inv *SalesInvoice) error {
	err := r.db.QueryRow(ctx, `INSERT INTO sales_invoices
(id, doc_number, customer_id, company, posting_date, status, update_stock, job_card_ref, grand_total, created_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''), $9, NOW())
RETURNING created_at`,
		inv.ID, inv.DocNumber, inv.Customer, inv.Company, inv.PostingDate, inv.Status,
		inv.UpdateStock, inv.JobCardRef, inv.GrandTotal).Scan(&inv.CreatedAt)
	if err != nil {
		return err
	}
	for i, line := range inv.Lines {
		if _, err := r.db.Exec(ctx, `INSERT INTO sales_invoice_lines
(invoice_id, item_code, qty, rate, amount, warehouse, line_order)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`,
			inv.ID, line.ItemCode, line.Qty, line.Rate, line.Amount, line.Warehouse, i+1); err != nil {
			return fmt.Errorf("insert invoice line: %w", err)
		}
	}
	return nil
}

func (r *repository) GetInvoice(ctx context.Context, id string) (*SalesInvoice, error) {
	var inv SalesInvoice
	err := r.db.QueryRow(ctx, `SELECT id, doc_number, customer_id, COALESCE(company, ''), posting_date,
status, update_stock, COALESCE(job_card_ref, ''), grand_total, created_at
FROM sales_invoices WHERE id = $1`, id).
		Scan(&inv.ID, &inv.DocNumber, &inv.Customer, &inv.Company, &inv.PostingDate,
			&inv.Status, &inv.UpdateStock, &inv.JobCardRef, &inv.GrandTotal, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rows, err := r.db.Query(ctx, `SELECT item_code, qty, rate, amount, COALESCE(warehouse, '')
FROM sales_invoice_lines WHERE invoice_id = $1 ORDER BY line_order`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line InvoiceLine
		if err := rows.Scan(&line.ItemCode, &line.Qty, &line.Rate, &line.Amount, &line.Warehouse); err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, line)
	}
	return &inv, rows.Err()
}
