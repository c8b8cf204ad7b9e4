package entity_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-transfer-api/internal/domain"
	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newItem(physical, reserved int64) *entity.StockItem {
	it := entity.NewStockItem("si-1", entity.StockItemKey{ProductID: "p1", SiteID: "s1"}, time.Now())
	it.PhysicalQuantity = d(physical)
	it.ReservedQuantity = d(reserved)
	return it
}

func TestStockItem_Apply(t *testing.T) {
	cases := []struct {
		name              string
		physical, reserve int64
		dPhys, dRes       int64
		wantErr           error
		wantPhys, wantRes int64
	}{
		{"ingreso", 0, 0, 10, 0, nil, 10, 0},
		{"retiro hasta cero", 5, 0, -5, 0, nil, 0, 0},
		{"físico negativo", 5, 0, -6, 0, domain.ErrNegativeStock, 5, 0},
		{"reserva dentro del físico", 5, 0, 0, 5, nil, 5, 5},
		{"reserva excedida", 5, 2, 0, 4, domain.ErrOverReservation, 5, 2},
		{"liberar más de lo reservado", 5, 2, 0, -3, domain.ErrNegativeStock, 5, 2},
		{"retiro que deja reserva > físico", 5, 4, -2, 0, domain.ErrOverReservation, 5, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			it := newItem(tc.physical, tc.reserve)
			err := it.Apply(d(tc.dPhys), d(tc.dRes))
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.wantErr), err.Error())
				var se *domain.StockError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, "p1", se.ProductID)
			} else {
				require.NoError(t, err)
			}
			assert.True(t, it.PhysicalQuantity.Equal(d(tc.wantPhys)))
			assert.True(t, it.ReservedQuantity.Equal(d(tc.wantRes)))
		})
	}
}

func TestStockItem_WithdrawRespectsReservations(t *testing.T) {
	it := newItem(10, 4)

	err := it.Withdraw(d(7))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var se *domain.StockError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Available.Equal(d(6)))
	assert.True(t, se.Requested.Equal(d(7)))

	require.NoError(t, it.Withdraw(d(6)))
	assert.True(t, it.PhysicalQuantity.Equal(d(4)))
	assert.True(t, it.Available().IsZero())
}

func TestStockItem_BelowReorderPoint(t *testing.T) {
	it := newItem(10, 0)
	assert.False(t, it.BelowReorderPoint(), "sin punto de reorden configurado")

	it.ReorderPoint = d(5)
	assert.False(t, it.BelowReorderPoint())
	require.NoError(t, it.Apply(d(0), d(6)))
	assert.True(t, it.BelowReorderPoint())
}

func TestStockItemKey_String(t *testing.T) {
	k := entity.StockItemKey{ProductID: "p", SiteID: "s"}
	assert.Equal(t, "p/@s/", k.String())
	assert.NotEqual(t, k.String(), entity.StockItemKey{ProductID: "p", SiteID: "s", LocationID: "l"}.String())
}
