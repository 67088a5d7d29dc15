package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	bins map[string]Bin
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{bins: make(map[string]Bin)}
}

func binKey(itemCode, warehouse string) string {
	return itemCode + "@" + warehouse
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	shadow := make(map[string]Bin, len(r.bins))
	for k, v := range r.bins {
		shadow[k] = v
	}
	tx := &memoryTx{repo: &memoryRepo{bins: shadow}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.bins = shadow
	return nil
}

func (r *memoryRepo) GetBin(ctx context.Context, itemCode, warehouse string) (Bin, error) {
	if bin, ok := r.bins[binKey(itemCode, warehouse)]; ok {
		return bin, nil
	}
	return Bin{ItemCode: itemCode, Warehouse: warehouse}, ErrBinNotFound
}

func (tx *memoryTx) GetBinForUpdate(ctx context.Context, itemCode, warehouse string) (Bin, error) {
	return tx.repo.GetBin(ctx, itemCode, warehouse)
}

func (tx *memoryTx) UpsertBin(ctx context.Context, bin Bin) error {
	tx.repo.bins[binKey(bin.ItemCode, bin.Warehouse)] = bin
	return nil
}

func TestAvailableMissingBin(t *testing.T) {
	svc := NewService(newMemoryRepo())

	qty, err := svc.Available(context.Background(), "PART-FILTER", "Main - GM")
	require.NoError(t, err)
	require.Zero(t, qty)
}

func TestReceiveThenDeduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Receive(ctx, []Movement{
		{ItemCode: "PART-FILTER", Warehouse: "Main - GM", Qty: 10},
	}))
	qty, err := svc.Available(ctx, "PART-FILTER", "Main - GM")
	require.NoError(t, err)
	require.InDelta(t, 10.0, qty, 0.0001)

	require.NoError(t, svc.Deduct(ctx, []Movement{
		{ItemCode: "PART-FILTER", Warehouse: "Main - GM", Qty: 4},
	}))
	qty, err = svc.Available(ctx, "PART-FILTER", "Main - GM")
	require.NoError(t, err)
	require.InDelta(t, 6.0, qty, 0.0001)
}

func TestDeductShortfallAbortsBatch(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Receive(ctx, []Movement{
		{ItemCode: "PART-FILTER", Warehouse: "Main - GM", Qty: 10},
		{ItemCode: "PART-BELT", Warehouse: "Main - GM", Qty: 1},
	}))

	err := svc.Deduct(ctx, []Movement{
		{ItemCode: "PART-FILTER", Warehouse: "Main - GM", Qty: 4},
		{ItemCode: "PART-BELT", Warehouse: "Main - GM", Qty: 3},
	})
	require.ErrorIs(t, err, ErrInsufficient)

	// The first movement must roll back with the batch.
	qty, err := svc.Available(ctx, "PART-FILTER", "Main - GM")
	require.NoError(t, err)
	require.InDelta(t, 10.0, qty, 0.0001)
}

func TestDeductMissingBin(t *testing.T) {
	svc := NewService(newMemoryRepo())

	err := svc.Deduct(context.Background(), []Movement{
		{ItemCode: "PART-GHOST", Warehouse: "Main - GM", Qty: 1},
	})
	require.ErrorIs(t, err, ErrInsufficient)
}
