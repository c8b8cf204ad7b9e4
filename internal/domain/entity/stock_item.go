package entity

import (
	"fmt"
	"time"

	"github.com/jhoicas/stock-transfer-api/internal/domain"
	"github.com/shopspring/decimal"
)

// StockItemKey identifica un saldo: producto, variante opcional, sede y ubicación opcional.
// VariantID y LocationID vacíos significan "sin variante" y "nivel sede".
type StockItemKey struct {
	ProductID  string
	VariantID  string
	SiteID     string
	LocationID string
}

// String se usa como clave de bloqueo y en logs.
func (k StockItemKey) String() string {
	return fmt.Sprintf("%s/%s@%s/%s", k.ProductID, k.VariantID, k.SiteID, k.LocationID)
}

// QuantityScale decimales que admiten las cantidades persistidas (NUMERIC(18,4)).
const QuantityScale = 4

// FitsQuantityScale true si q no tiene más de QuantityScale decimales significativos.
// "1.5000" cabe; "0.00001" no.
func FitsQuantityScale(q decimal.Decimal) bool {
	return q.Equal(q.Truncate(QuantityScale))
}

// StockItem es el saldo actual de un producto/variante en una sede/ubicación.
// Invariantes: PhysicalQuantity >= 0 y 0 <= ReservedQuantity <= PhysicalQuantity.
// MinStock, MaxStock y ReorderPoint son informativos; el ledger no los hace cumplir.
type StockItem struct {
	ID               string
	ProductID        string
	VariantID        string
	SiteID           string
	LocationID       string
	PhysicalQuantity decimal.Decimal
	ReservedQuantity decimal.Decimal
	MinStock         decimal.Decimal
	MaxStock         decimal.Decimal
	ReorderPoint     decimal.Decimal
	LastMovementAt   *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewStockItem crea un saldo en cero para la clave (creación perezosa en el primer movimiento).
func NewStockItem(id string, key StockItemKey, now time.Time) *StockItem {
	return &StockItem{
		ID:               id,
		ProductID:        key.ProductID,
		VariantID:        key.VariantID,
		SiteID:           key.SiteID,
		LocationID:       key.LocationID,
		PhysicalQuantity: decimal.Zero,
		ReservedQuantity: decimal.Zero,
		MinStock:         decimal.Zero,
		MaxStock:         decimal.Zero,
		ReorderPoint:     decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Key devuelve la clave compuesta del saldo.
func (s *StockItem) Key() StockItemKey {
	return StockItemKey{ProductID: s.ProductID, VariantID: s.VariantID, SiteID: s.SiteID, LocationID: s.LocationID}
}

// Available = físico - reservado.
func (s *StockItem) Available() decimal.Decimal {
	return s.PhysicalQuantity.Sub(s.ReservedQuantity)
}

// BelowReorderPoint indica si el disponible cayó bajo el punto de reorden (solo si está configurado).
func (s *StockItem) BelowReorderPoint() bool {
	return s.ReorderPoint.GreaterThan(decimal.Zero) && s.Available().LessThan(s.ReorderPoint)
}

// Apply aplica los deltas si el resultado respeta los invariantes; si no, devuelve
// ErrNegativeStock u ErrOverReservation y deja el saldo sin cambios.
func (s *StockItem) Apply(deltaPhysical, deltaReserved decimal.Decimal) error {
	physical := s.PhysicalQuantity.Add(deltaPhysical)
	reserved := s.ReservedQuantity.Add(deltaReserved)
	if physical.IsNegative() {
		return s.stockError(domain.ErrNegativeStock, deltaPhysical.Neg())
	}
	if reserved.IsNegative() {
		return s.stockError(domain.ErrNegativeStock, deltaReserved.Neg())
	}
	if reserved.GreaterThan(physical) {
		return s.stockError(domain.ErrOverReservation, deltaReserved)
	}
	s.PhysicalQuantity = physical
	s.ReservedQuantity = reserved
	return nil
}

// Withdraw descuenta qty del físico exigiendo que qty <= disponible.
func (s *StockItem) Withdraw(qty decimal.Decimal) error {
	if qty.GreaterThan(s.Available()) {
		return s.stockError(domain.ErrInsufficientStock, qty)
	}
	return s.Apply(qty.Neg(), decimal.Zero)
}

func (s *StockItem) stockError(err error, requested decimal.Decimal) *domain.StockError {
	return &domain.StockError{
		Err:       err,
		ProductID: s.ProductID,
		VariantID: s.VariantID,
		SiteID:    s.SiteID,
		Location:  s.LocationID,
		Requested: requested,
		Available: s.Available(),
	}
}
