package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-transfer-api/internal/application/inventory"
	"github.com/jhoicas/stock-transfer-api/internal/domain"
	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
	"github.com/jhoicas/stock-transfer-api/internal/domain/repository"
	"github.com/jhoicas/stock-transfer-api/internal/infrastructure/memory"
)

var key = entity.StockItemKey{ProductID: "p1", SiteID: "s1"}

func deposit(ctx context.Context, uow inventory.UnitOfWork, qty int64) error {
	_, err := inventory.NewLedger(uow.Stock(), time.Now).Deposit(ctx, key, decimal.NewFromInt(qty))
	return err
}

func physical(t *testing.T, s *memory.Store) decimal.Decimal {
	t.Helper()
	var out decimal.Decimal
	require.NoError(t, s.Run(context.Background(), func(uow inventory.UnitOfWork) error {
		it, err := uow.Stock().Get(context.Background(), key)
		if err != nil || it == nil {
			return err
		}
		out = it.PhysicalQuantity
		return nil
	}))
	return out
}

func TestStore_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	require.NoError(t, s.Run(ctx, func(uow inventory.UnitOfWork) error { return deposit(ctx, uow, 5) }))
	assert.True(t, physical(t, s).Equal(decimal.NewFromInt(5)))

	boom := errors.New("boom")
	err := s.Run(ctx, func(uow inventory.UnitOfWork) error {
		if err := deposit(ctx, uow, 7); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.True(t, physical(t, s).Equal(decimal.NewFromInt(5)), "el rollback descarta el depósito")
}

func TestStore_PanicDiscardsChanges(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	assert.Panics(t, func() {
		_ = s.Run(ctx, func(uow inventory.UnitOfWork) error {
			_ = deposit(ctx, uow, 3)
			panic("fallo")
		})
	})
	assert.True(t, physical(t, s).IsZero())
	require.NoError(t, s.Run(ctx, func(uow inventory.UnitOfWork) error { return deposit(ctx, uow, 1) }), "el lock se libera tras el panic")
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := memory.New()
	called := false
	err := s.Run(ctx, func(inventory.UnitOfWork) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestStore_MovementsAppendOnlyAcrossRollback(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	mov := func(qty int64) *entity.StockMovement {
		return &entity.StockMovement{ID: "m", StockItemID: "si", ProductID: "p1", SiteID: "s1",
			Type: entity.MovementTypeAdjustment, Direction: entity.DirectionIn, Quantity: decimal.NewFromInt(qty)}
	}
	require.NoError(t, s.Run(ctx, func(uow inventory.UnitOfWork) error { return uow.Movements().Append(ctx, mov(1)) }))
	_ = s.Run(ctx, func(uow inventory.UnitOfWork) error {
		_ = uow.Movements().Append(ctx, mov(2))
		return errors.New("rollback")
	})
	require.NoError(t, s.Run(ctx, func(uow inventory.UnitOfWork) error { return uow.Movements().Append(ctx, mov(3)) }))

	require.NoError(t, s.Run(ctx, func(uow inventory.UnitOfWork) error {
		list, err := uow.Movements().List(ctx, repository.MovementFilter{})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.True(t, list[0].Quantity.Equal(decimal.NewFromInt(3)), "más reciente primero")
		assert.True(t, list[1].Quantity.Equal(decimal.NewFromInt(1)))
		return nil
	}))
}

func TestStore_TransferVersionConflict(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	tr, err := entity.NewStockTransfer(entity.NewTransferParams{
		ID: "t1", Number: "N1", SourceSiteID: "a", DestinationSiteID: "b",
		Lines: []entity.TransferLineInput{{ID: "l1", ProductID: "p", Quantity: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)
	require.NoError(t, s.Run(ctx, func(uow inventory.UnitOfWork) error { return uow.Transfers().Create(ctx, tr) }))

	err = s.Run(ctx, func(uow inventory.UnitOfWork) error {
		return uow.Transfers().Create(ctx, tr)
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	err = s.Run(ctx, func(uow inventory.UnitOfWork) error {
		got, err := uow.Transfers().GetForUpdate(ctx, "t1")
		require.NoError(t, err)
		got.Version = 5
		return uow.Transfers().Update(ctx, got, 4)
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = s.Run(ctx, func(uow inventory.UnitOfWork) error {
		got, err := uow.Transfers().GetForUpdate(ctx, "t1")
		require.NoError(t, err)
		got.Lines[0].Notes = "editada fuera de la tx"
		stored, err := uow.Transfers().GetByID(ctx, "t1")
		require.NoError(t, err)
		assert.Empty(t, stored.Lines[0].Notes, "las lecturas devuelven copias")
		return nil
	})
	require.NoError(t, err)
}

func TestStore_StockUpdateRequiresExistingItem(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	err := s.Run(ctx, func(uow inventory.UnitOfWork) error {
		return uow.Stock().Update(ctx, entity.NewStockItem("x", key, time.Now()))
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_RunSnapshotNeverCommits(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.Run(ctx, func(uow inventory.UnitOfWork) error { return deposit(ctx, uow, 5) }))

	var seen decimal.Decimal
	err := s.RunSnapshot(ctx, func(uow inventory.UnitOfWork) error {
		if err := deposit(ctx, uow, 3); err != nil {
			return err
		}
		it, err := uow.Stock().Get(ctx, key)
		if err != nil {
			return err
		}
		seen = it.PhysicalQuantity
		return nil
	})
	require.NoError(t, err)
	assert.True(t, seen.Equal(decimal.NewFromInt(8)), "fn ve sus propias escrituras")
	assert.True(t, physical(t, s).Equal(decimal.NewFromInt(5)), "la foto se descarta al terminar")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.RunSnapshot(cancelled, func(inventory.UnitOfWork) error { return nil }), context.Canceled)
}
