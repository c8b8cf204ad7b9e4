package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReplenishmentSourceDTO sede con excedente disponible para cubrir una sugerencia.
type ReplenishmentSourceDTO struct {
	SiteID     string          `json:"site_id"`
	LocationID string          `json:"location_id,omitempty"`
	Available  decimal.Decimal `json:"available_quantity"`
	Surplus    decimal.Decimal `json:"surplus"` // disponible sobre su propio punto de reorden
}

// ReplenishmentSuggestionDTO saldo bajo punto de reorden con la cantidad a trasladar.
type ReplenishmentSuggestionDTO struct {
	StockItemID       string                   `json:"stock_item_id"`
	ProductID         string                   `json:"product_id"`
	VariantID         string                   `json:"variant_id,omitempty"`
	LocationID        string                   `json:"location_id,omitempty"`
	Available         decimal.Decimal          `json:"available_quantity"`
	ReorderPoint      decimal.Decimal          `json:"reorder_point"`
	IdealStock        decimal.Decimal          `json:"ideal_stock"`   // MaxStock o ReorderPoint * 1.5
	SuggestedQuantity decimal.Decimal          `json:"suggested_qty"` // IdealStock - Available
	Sources           []ReplenishmentSourceDTO `json:"sources"`
	Coverable         bool                     `json:"coverable"` // la suma de excedentes cubre la sugerencia
	Priority          int                      `json:"priority"`  // 1 = más urgente
}

// ReplenishmentResponse sugerencias de reposición de una sede.
type ReplenishmentResponse struct {
	SiteID      string                       `json:"site_id"`
	Suggestions []ReplenishmentSuggestionDTO `json:"suggestions"`
	GeneratedAt time.Time                    `json:"generated_at"`
}
