package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrBinNotFound indicates a missing balance row.
var ErrBinNotFound = errors.New("inventory: bin not found")

// Repository persists bin balances in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used by Service.
type TxRepository interface {
	GetBinForUpdate(ctx context.Context, itemCode, warehouse string) (Bin, error)
	UpsertBin(ctx context.Context, bin Bin) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil || r.pool == nil {
		return errors.New("inventory repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// GetBin returns the balance for one item/warehouse pair.
func (r *Repository) GetBin(ctx context.Context, itemCode, warehouse string) (Bin, error) {
	if r == nil || r.pool == nil {
		return Bin{}, errors.New("inventory repository not initialised")
	}
	var bin Bin
	err := r.pool.QueryRow(ctx,
		`SELECT item_code, warehouse, actual_qty, updated_at FROM bins WHERE item_code = $1 AND warehouse = $2`,
		itemCode, warehouse).
		Scan(&bin.ItemCode, &bin.Warehouse, &bin.ActualQty, &bin.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bin{ItemCode: itemCode, Warehouse: warehouse}, ErrBinNotFound
		}
		return Bin{}, err
	}
	return bin, nil
}

func (r *txRepository) GetBinForUpdate(ctx context.Context, itemCode, warehouse string) (Bin, error) {
	var bin Bin
	err := r.tx.QueryRow(ctx,
		`SELECT item_code, warehouse, actual_qty, updated_at FROM bins WHERE item_code = $1 AND warehouse = $2 FOR UPDATE`,
		itemCode, warehouse).
		Scan(&bin.ItemCode, &bin.Warehouse, &bin.ActualQty, &bin.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bin{ItemCode: itemCode, Warehouse: warehouse}, ErrBinNotFound
		}
		return Bin{}, err
	}
	return bin, nil
}

func (r *txRepository) UpsertBin(ctx context.Context, bin Bin) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO bins (item_code, warehouse, actual_qty, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (item_code, warehouse) DO UPDATE SET actual_qty = EXCLUDED.actual_qty, updated_at = NOW()`,
		bin.ItemCode, bin.Warehouse, bin.ActualQty)
	return err
}
