package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-transfer-api/internal/domain"
	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
	"github.com/jhoicas/stock-transfer-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// Ledger aplica variaciones de saldo bajo bloqueo exclusivo por StockItem.
// Toda comprobación de disponibilidad se hace dentro del mismo bloqueo que la escritura.
type Ledger struct {
	stock repository.StockItemRepository
	now   func() time.Time
}

// NewLedger construye el ledger sobre el repositorio de la transacción actual.
func NewLedger(stock repository.StockItemRepository, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{stock: stock, now: now}
}

// WithLockedStockItem bloquea el saldo de key (creándolo en cero si no existe), ejecuta fn y
// persiste el resultado. Si fn falla el saldo queda como estaba y se devuelve la foto previa.
func (l *Ledger) WithLockedStockItem(ctx context.Context, key entity.StockItemKey, fn func(item *entity.StockItem) error) (entity.StockItem, error) {
	item, err := l.stock.GetForUpdate(ctx, key)
	if err != nil {
		return entity.StockItem{}, err
	}
	before := *item
	if err := fn(item); err != nil {
		return before, err
	}
	now := l.now()
	item.LastMovementAt = &now
	item.UpdatedAt = now
	if err := l.stock.Update(ctx, item); err != nil {
		return before, err
	}
	return *item, nil
}

// Adjust aplica deltaPhysical y deltaReserved. Falla con ErrNegativeStock u ErrOverReservation
// sin modificar el saldo.
func (l *Ledger) Adjust(ctx context.Context, key entity.StockItemKey, deltaPhysical, deltaReserved decimal.Decimal) (entity.StockItem, error) {
	return l.WithLockedStockItem(ctx, key, func(item *entity.StockItem) error {
		return item.Apply(deltaPhysical, deltaReserved)
	})
}

// Withdraw descuenta qty del físico si qty <= disponible (físico - reservado); si no, ErrInsufficientStock.
func (l *Ledger) Withdraw(ctx context.Context, key entity.StockItemKey, qty decimal.Decimal) (entity.StockItem, error) {
	if !qty.IsPositive() {
		return entity.StockItem{}, domain.ErrInvalidInput
	}
	return l.WithLockedStockItem(ctx, key, func(item *entity.StockItem) error {
		return item.Withdraw(qty)
	})
}

// Deposit suma qty al físico.
func (l *Ledger) Deposit(ctx context.Context, key entity.StockItemKey, qty decimal.Decimal) (entity.StockItem, error) {
	if !qty.IsPositive() {
		return entity.StockItem{}, domain.ErrInvalidInput
	}
	return l.Adjust(ctx, key, qty, decimal.Zero)
}
