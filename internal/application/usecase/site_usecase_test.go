package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-transfer-api/internal/application/dto"
	"github.com/jhoicas/stock-transfer-api/internal/application/inventory"
	"github.com/jhoicas/stock-transfer-api/internal/application/usecase"
	"github.com/jhoicas/stock-transfer-api/internal/domain"
	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
	"github.com/jhoicas/stock-transfer-api/internal/infrastructure/memory"
)

func TestSiteUseCase_CreateAndLocations(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewSiteUseCase(memory.New())

	site, err := uc.Create(ctx, dto.CreateSiteRequest{Code: " BOG ", Name: "Bogotá"})
	require.NoError(t, err)
	assert.Equal(t, "BOG", site.Code)

	_, err = uc.Create(ctx, dto.CreateSiteRequest{Code: "BOG", Name: "Otra"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, dto.CreateSiteRequest{Code: "MED"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.AddLocation(ctx, site.ID, dto.CreateLocationRequest{Code: "B-02"})
	require.NoError(t, err)
	_, err = uc.AddLocation(ctx, site.ID, dto.CreateLocationRequest{Code: "A-01"})
	require.NoError(t, err)
	_, err = uc.AddLocation(ctx, site.ID, dto.CreateLocationRequest{Code: "A-01"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	_, err = uc.AddLocation(ctx, "nope", dto.CreateLocationRequest{Code: "A-01"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := uc.GetByID(ctx, site.ID)
	require.NoError(t, err)
	require.Len(t, got.Locations, 2)
	assert.Equal(t, "A-01", got.Locations[0].Code)

	_, err = uc.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSiteUseCase_ListPaginates(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewSiteUseCase(memory.New())
	for _, code := range []string{"A", "B", "C"} {
		_, err := uc.Create(ctx, dto.CreateSiteRequest{Code: code, Name: code})
		require.NoError(t, err)
	}

	page, err := uc.List(ctx, dto.PageRequest{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "B", page.Items[0].Code)
	assert.Equal(t, 2, page.Page.Limit)
}

func TestSiteUseCase_DeleteGuards(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	uc := usecase.NewSiteUseCase(store)
	transfers := inventory.NewTransferUseCase(store, nil, nil)
	stock := inventory.NewStockUseCase(store, nil, nil)

	a, err := uc.Create(ctx, dto.CreateSiteRequest{Code: "A", Name: "A"})
	require.NoError(t, err)
	b, err := uc.Create(ctx, dto.CreateSiteRequest{Code: "B", Name: "B"})
	require.NoError(t, err)
	c, err := uc.Create(ctx, dto.CreateSiteRequest{Code: "C", Name: "C"})
	require.NoError(t, err)
	d, err := uc.Create(ctx, dto.CreateSiteRequest{Code: "D", Name: "D"})
	require.NoError(t, err)

	_, err = transfers.Create(ctx, inventory.CreateTransferCommand{
		Number: "T1", SourceSiteID: a.ID, DestinationSiteID: b.ID, CreatedBy: "u",
		Lines: []inventory.TransferLineCommand{{ProductID: "p", Quantity: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)
	_, err = transfers.Cancel(ctx, inventory.CancelTransferCommand{TransferID: mustFirstTransfer(t, transfers), CancelledBy: "u"})
	require.NoError(t, err)

	assert.ErrorIs(t, uc.Delete(ctx, b.ID), domain.ErrConflict, "incluso un traslado cancelado la referencia")

	_, err = stock.Adjust(ctx, inventory.AdjustStockCommand{
		Key: entity.StockItemKey{ProductID: "p", SiteID: c.ID}, Quantity: decimal.NewFromInt(1), Reason: "x", CreatedBy: "u",
	})
	require.NoError(t, err)
	assert.ErrorIs(t, uc.Delete(ctx, c.ID), domain.ErrConflict, "tiene saldos")

	require.NoError(t, uc.Delete(ctx, d.ID))
	assert.ErrorIs(t, uc.Delete(ctx, d.ID), domain.ErrNotFound)
}

func mustFirstTransfer(t *testing.T, uc *inventory.TransferUseCase) string {
	t.Helper()
	list, err := uc.List(context.Background(), "", "", dto.PageRequest{})
	require.NoError(t, err)
	require.NotEmpty(t, list.Items)
	return list.Items[0].ID
}
