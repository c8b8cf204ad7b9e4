package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockKeyRequest identifica un saldo en requests.
type StockKeyRequest struct {
	SiteID     string `json:"site_id" validate:"required"`
	LocationID string `json:"location_id,omitempty"`
	ProductID  string `json:"product_id" validate:"required"`
	VariantID  string `json:"variant_id,omitempty"`
}

// AdjustStockRequest body para POST /api/stock/adjustments. Quantity con signo (≠ 0).
type AdjustStockRequest struct {
	StockKeyRequest
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason" validate:"required,max=200"`
}

// ReserveStockRequest body para POST /api/stock/reservations. Quantity positiva reserva, negativa libera.
type ReserveStockRequest struct {
	StockKeyRequest
	Quantity decimal.Decimal `json:"quantity"`
}

// SetStockLevelsRequest body para PUT /api/stock/levels.
type SetStockLevelsRequest struct {
	StockKeyRequest
	MinStock     decimal.Decimal `json:"min_stock"`
	MaxStock     decimal.Decimal `json:"max_stock"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
}

// StockItemResponse saldo de un producto en una sede/ubicación.
type StockItemResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	VariantID         string          `json:"variant_id,omitempty"`
	SiteID            string          `json:"site_id"`
	LocationID        string          `json:"location_id,omitempty"`
	PhysicalQuantity  decimal.Decimal `json:"physical_quantity"`
	ReservedQuantity  decimal.Decimal `json:"reserved_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	MinStock          decimal.Decimal `json:"min_stock"`
	MaxStock          decimal.Decimal `json:"max_stock"`
	ReorderPoint      decimal.Decimal `json:"reorder_point"`
	BelowReorderPoint bool            `json:"below_reorder_point"`
	LastMovementAt    *time.Time      `json:"last_movement_at,omitempty"`
}

// StockListResponse saldos de una sede.
type StockListResponse struct {
	Items []StockItemResponse `json:"items"`
}

// MovementResponse movimiento del log (cantidad sin signo + dirección, y su valor con signo).
type MovementResponse struct {
	ID                    string          `json:"id"`
	StockItemID           string          `json:"stock_item_id"`
	ProductID             string          `json:"product_id"`
	VariantID             string          `json:"variant_id,omitempty"`
	SiteID                string          `json:"site_id"`
	Type                  string          `json:"type"`
	Direction             string          `json:"direction"`
	Quantity              decimal.Decimal `json:"quantity"`
	SignedQuantity        decimal.Decimal `json:"signed_quantity"`
	SourceLocationID      *string         `json:"source_location_id,omitempty"`
	DestinationLocationID *string         `json:"destination_location_id,omitempty"`
	RelatedDocumentType   string          `json:"related_document_type,omitempty"`
	RelatedDocumentID     string          `json:"related_document_id,omitempty"`
	Reason                string          `json:"reason,omitempty"`
	CreatedBy             string          `json:"created_by,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}

// MovementListResponse listado paginado de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ReconciliationLine compara el saldo físico con la suma de movimientos de un StockItem.
type ReconciliationLine struct {
	StockItemID      string          `json:"stock_item_id"`
	ProductID        string          `json:"product_id"`
	VariantID        string          `json:"variant_id,omitempty"`
	LocationID       string          `json:"location_id,omitempty"`
	PhysicalQuantity decimal.Decimal `json:"physical_quantity"`
	MovementsTotal   decimal.Decimal `json:"movements_total"`
	Difference       decimal.Decimal `json:"difference"`
}

// ReconciliationResponse resultado de conciliar una sede. Balanced es true si no hay diferencias.
type ReconciliationResponse struct {
	SiteID      string               `json:"site_id"`
	ItemsCount  int                  `json:"items_count"`
	Balanced    bool                 `json:"balanced"`
	Mismatches  []ReconciliationLine `json:"mismatches"`
	GeneratedAt time.Time            `json:"generated_at"`
}
