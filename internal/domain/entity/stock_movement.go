package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementTypeTransferOut = "transfer_out" // salida de la sede origen al despachar
	MovementTypeTransferIn  = "transfer_in"  // entrada en la sede destino al recibir
	MovementTypeAdjustment  = "adjustment"   // ajuste manual (saldo inicial, conteo, corrección)
)

// Dirección del movimiento respecto al saldo afectado.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Tipos de documento relacionados.
const (
	DocumentTypeTransfer   = "stock_transfer"
	DocumentTypeAdjustment = "stock_adjustment"
)

// StockMovement es un hecho inmutable: una variación de cantidad sobre un StockItem.
// Quantity es siempre positiva; el signo lo da Direction.
type StockMovement struct {
	ID                    string
	StockItemID           string
	ProductID             string
	VariantID             string
	SiteID                string
	Type                  string
	Direction             string
	Quantity              decimal.Decimal
	SourceLocationID      *string
	DestinationLocationID *string
	RelatedDocumentType   string
	RelatedDocumentID     string
	Reason                string
	CreatedBy             string
	CreatedAt             time.Time
}

// Signed devuelve la cantidad con signo (+ entrada, - salida).
func (m *StockMovement) Signed() decimal.Decimal {
	if m.Direction == DirectionOut {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// IsValidMovementType indica si t es un tipo conocido.
func IsValidMovementType(t string) bool {
	switch t {
	case MovementTypeTransferOut, MovementTypeTransferIn, MovementTypeAdjustment:
		return true
	}
	return false
}
