package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-transfer-api/internal/application/dto"
	"github.com/jhoicas/stock-transfer-api/internal/application/inventory"
	"github.com/jhoicas/stock-transfer-api/internal/application/usecase"
	"github.com/jhoicas/stock-transfer-api/internal/domain"
)

func (f *fixture) levels(t *testing.T, site, product string, minStock, maxStock, reorder int64) {
	t.Helper()
	_, err := f.stock.SetLevels(context.Background(), inventory.SetStockLevelsCommand{
		Key: f.key(site, product), MinStock: dec(minStock), MaxStock: dec(maxStock), ReorderPoint: dec(reorder),
	})
	require.NoError(t, err)
}

func TestSetLevels(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seed(t, f.s1, p1, 3)

	out, err := f.stock.SetLevels(ctx, inventory.SetStockLevelsCommand{Key: f.key(f.s1, p1), MinStock: dec(1), MaxStock: dec(10), ReorderPoint: dec(5)})
	require.NoError(t, err)
	assert.True(t, out.ReorderPoint.Equal(dec(5)))
	assert.True(t, out.PhysicalQuantity.Equal(dec(3)), "los niveles no tocan cantidades")
	assert.True(t, out.BelowReorderPoint)
	assert.Len(t, f.movements(t, nil), 1, "fijar niveles no genera movimiento")

	// Un saldo inexistente se crea en cero.
	out, err = f.stock.SetLevels(ctx, inventory.SetStockLevelsCommand{Key: f.key(f.s2, p1), ReorderPoint: dec(2)})
	require.NoError(t, err)
	assert.True(t, out.PhysicalQuantity.IsZero())

	cases := []struct {
		name string
		cmd  inventory.SetStockLevelsCommand
		want error
	}{
		{"negativo", inventory.SetStockLevelsCommand{Key: f.key(f.s1, p1), ReorderPoint: dec(-1)}, domain.ErrInvalidInput},
		{"reorden sobre máximo", inventory.SetStockLevelsCommand{Key: f.key(f.s1, p1), MaxStock: dec(4), ReorderPoint: dec(5)}, domain.ErrInvalidInput},
		{"mínimo sobre máximo", inventory.SetStockLevelsCommand{Key: f.key(f.s1, p1), MinStock: dec(5), MaxStock: dec(4)}, domain.ErrInvalidInput},
		{"sede inexistente", inventory.SetStockLevelsCommand{Key: f.key("nope", p1), ReorderPoint: dec(1)}, domain.ErrNotFound},
		{"sin producto", inventory.SetStockLevelsCommand{Key: f.key(f.s1, ""), ReorderPoint: dec(1)}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.stock.SetLevels(ctx, tc.cmd)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestReplenishment_SuggestsSourcesWithSurplus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s3, err := usecase.NewSiteUseCase(f.store).Create(ctx, dto.CreateSiteRequest{Code: "S3", Name: "Sede S3"})
	require.NoError(t, err)

	// Destino s2: p1 bajo reorden con máximo, p2 bajo reorden sin máximo, p3 sobre reorden.
	f.seed(t, f.s2, p1, 2)
	f.levels(t, f.s2, p1, 0, 10, 4)
	f.seed(t, f.s2, p2, 1)
	f.levels(t, f.s2, p2, 0, 0, 4)
	f.seed(t, f.s2, "p3", 9)
	f.levels(t, f.s2, "p3", 0, 0, 4)

	// Orígenes de p1: s1 con excedente 15, s3 con excedente 6 (4 reservados).
	f.seed(t, f.s1, p1, 20)
	f.levels(t, f.s1, p1, 0, 0, 5)
	f.seed(t, s3.ID, p1, 13)
	f.levels(t, s3.ID, p1, 0, 0, 3)
	_, err = f.stock.Reserve(ctx, inventory.ReserveStockCommand{Key: f.key(s3.ID, p1), Quantity: dec(4)})
	require.NoError(t, err)

	out, err := inventory.NewReplenishmentUseCase(f.store).WithClock(func() time.Time { return fixedNow }).Suggest(ctx, f.s2)
	require.NoError(t, err)
	assert.Equal(t, fixedNow, out.GeneratedAt)
	require.Len(t, out.Suggestions, 2)

	// p2 cubre 1/4 del reorden, p1 cubre 2/4: p2 va primero.
	first, second := out.Suggestions[0], out.Suggestions[1]
	assert.Equal(t, p2, first.ProductID)
	assert.Equal(t, 1, first.Priority)
	assert.True(t, first.IdealStock.Equal(dec(6)), "sin máximo se usa reorden * 1.5")
	assert.True(t, first.SuggestedQuantity.Equal(dec(5)))
	assert.Empty(t, first.Sources)
	assert.False(t, first.Coverable)

	assert.Equal(t, p1, second.ProductID)
	assert.Equal(t, 2, second.Priority)
	assert.True(t, second.IdealStock.Equal(dec(10)))
	assert.True(t, second.SuggestedQuantity.Equal(dec(8)))
	require.Len(t, second.Sources, 2)
	assert.Equal(t, f.s1, second.Sources[0].SiteID)
	assert.True(t, second.Sources[0].Surplus.Equal(dec(15)))
	assert.Equal(t, s3.ID, second.Sources[1].SiteID)
	assert.True(t, second.Sources[1].Surplus.Equal(dec(6)))
	assert.True(t, second.Coverable)
}

func TestReplenishment_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uc := inventory.NewReplenishmentUseCase(f.store)

	_, err := uc.Suggest(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.Suggest(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	out, err := uc.Suggest(ctx, f.s1)
	require.NoError(t, err)
	assert.NotNil(t, out.Suggestions)
	assert.Empty(t, out.Suggestions)
}
