package inventory

import (
	"context"
	"errors"
	"fmt"
)

// ErrInsufficient indicates a deduction would drive a bin negative.
var ErrInsufficient = errors.New("inventory: insufficient stock")

// BinReader is the read side used by Service; tests swap in a fake.
type BinReader interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetBin(ctx context.Context, itemCode, warehouse string) (Bin, error)
}

// Service exposes availability lookups and all-or-nothing stock movements.
type Service struct {
	repo BinReader
}

// NewService constructs the inventory service.
func NewService(repo BinReader) *Service {
	return &Service{repo: repo}
}

// Available returns the quantity on hand, zero for a missing bin.
func (s *Service) Available(ctx context.Context, itemCode, warehouse string) (float64, error) {
	bin, err := s.repo.GetBin(ctx, itemCode, warehouse)
	if err != nil {
		if errors.Is(err, ErrBinNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return bin.ActualQty, nil
}

// Deduct applies every movement inside one transaction with bins locked
// FOR UPDATE. Any shortfall aborts the whole batch, so concurrent
// invoicing can fail but can never drive a bin negative.
func (s *Service) Deduct(ctx context.Context, movements []Movement) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, m := range movements {
			bin, err := tx.GetBinForUpdate(ctx, m.ItemCode, m.Warehouse)
			if err != nil && !errors.Is(err, ErrBinNotFound) {
				return err
			}
			if bin.ActualQty < m.Qty {
				return fmt.Errorf("%w: %s at %s has %g, need %g",
					ErrInsufficient, m.ItemCode, m.Warehouse, bin.ActualQty, m.Qty)
			}
			bin.ActualQty -= m.Qty
			if err := tx.UpsertBin(ctx, bin); err != nil {
				return err
			}
		}
		return nil
	})
}

// Receive adds the movements to their bins, creating bins as needed. Also
// used to restore stock when a downstream insert fails after deduction.
func (s *Service) Receive(ctx context.Context, movements []Movement) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, m := range movements {
			bin, err := tx.GetBinForUpdate(ctx, m.ItemCode, m.Warehouse)
			if err != nil && !errors.Is(err, ErrBinNotFound) {
				return err
			}
			bin.ActualQty += m.Qty
			if err := tx.UpsertBin(ctx, bin); err != nil {
				return err
			}
		}
		return nil
	})
}
