package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-transfer-api/internal/application/dto"
	"github.com/jhoicas/stock-transfer-api/internal/application/inventory"
	"github.com/jhoicas/stock-transfer-api/internal/application/usecase"
	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
	"github.com/jhoicas/stock-transfer-api/internal/infrastructure/memory"
	"github.com/jhoicas/stock-transfer-api/pkg/logger"
)

const (
	p1       = "p1"
	p2       = "p2"
	operator = "u-operator"
)

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store     *memory.Store
	transfers *inventory.TransferUseCase
	stock     *inventory.StockUseCase
	s1, s2    string
}

func newFixture(t *testing.T, opts ...memory.Option) *fixture {
	t.Helper()
	store := memory.New(opts...)
	clock := func() time.Time { return fixedNow }
	f := &fixture{
		store:     store,
		transfers: inventory.NewTransferUseCase(store, logger.Nop(), nil).WithClock(clock),
		stock:     inventory.NewStockUseCase(store, logger.Nop(), nil).WithClock(clock),
	}
	sites := usecase.NewSiteUseCase(store)
	for _, code := range []string{"S1", "S2"} {
		out, err := sites.Create(context.Background(), dto.CreateSiteRequest{Code: code, Name: "Sede " + code})
		require.NoError(t, err)
		if f.s1 == "" {
			f.s1 = out.ID
		} else {
			f.s2 = out.ID
		}
	}
	return f
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func (f *fixture) key(site, product string) entity.StockItemKey {
	return entity.StockItemKey{ProductID: product, SiteID: site}
}

func (f *fixture) seed(t *testing.T, site, product string, qty int64) {
	t.Helper()
	_, err := f.stock.Adjust(context.Background(), inventory.AdjustStockCommand{
		Key: f.key(site, product), Quantity: dec(qty), Reason: "saldo inicial", CreatedBy: operator,
	})
	require.NoError(t, err)
}

func (f *fixture) physical(t *testing.T, site, product string) decimal.Decimal {
	t.Helper()
	it, err := f.stock.Get(context.Background(), f.key(site, product))
	require.NoError(t, err)
	return it.PhysicalQuantity
}

func (f *fixture) create(t *testing.T, number string, lines ...inventory.TransferLineCommand) string {
	t.Helper()
	id, err := f.transfers.Create(context.Background(), inventory.CreateTransferCommand{
		Number: number, SourceSiteID: f.s1, DestinationSiteID: f.s2, CreatedBy: operator, Lines: lines,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) movements(t *testing.T, filter func(*dto.MovementResponse) bool) []dto.MovementResponse {
	t.Helper()
	out, err := f.stock.Movements(context.Background(), repositoryFilter())
	require.NoError(t, err)
	var res []dto.MovementResponse
	for i := range out.Items {
		if filter == nil || filter(&out.Items[i]) {
			res = append(res, out.Items[i])
		}
	}
	return res
}

func ln(product string, qty int64) inventory.TransferLineCommand {
	return inventory.TransferLineCommand{ProductID: product, Quantity: dec(qty)}
}
