package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferLineRequest línea de un traslado en creación o edición.
type TransferLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	VariantID string          `json:"variant_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	Notes     string          `json:"notes,omitempty" validate:"max=500"`
}

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	Number                string                `json:"number" validate:"required,max=64"`
	SourceSiteID          string                `json:"source_site_id" validate:"required"`
	DestinationSiteID     string                `json:"destination_site_id" validate:"required,nefield=SourceSiteID"`
	SourceLocationID      string                `json:"source_location_id,omitempty"`
	DestinationLocationID string                `json:"destination_location_id,omitempty"`
	RequestedDate         *time.Time            `json:"requested_date,omitempty"`
	Notes                 string                `json:"notes,omitempty" validate:"max=2000"`
	Lines                 []TransferLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// UpdateTransferLinesRequest body para PUT /api/transfers/:id/lines.
type UpdateTransferLinesRequest struct {
	Lines []TransferLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ShipTransferRequest body opcional para POST /api/transfers/:id/ship.
type ShipTransferRequest struct {
	ShippedDate *time.Time `json:"shipped_date,omitempty"`
}

// ReceiveTransferRequest body opcional para POST /api/transfers/:id/receive.
// received_quantities: secuencia de línea -> cantidad recibida; las líneas omitidas
// se reciben por su cantidad pendiente.
type ReceiveTransferRequest struct {
	ReceivedDate       *time.Time              `json:"received_date,omitempty"`
	ReceivedQuantities map[int]decimal.Decimal `json:"received_quantities,omitempty"`
}

// TransferLineResponse línea con cantidades recibida y pendiente.
type TransferLineResponse struct {
	ID               string          `json:"id"`
	Sequence         int             `json:"sequence"`
	ProductID        string          `json:"product_id"`
	VariantID        string          `json:"variant_id,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	Outstanding      decimal.Decimal `json:"outstanding"`
	Notes            string          `json:"notes,omitempty"`
}

// TransferResponse vista de un traslado. display_status y receipt_progress se derivan de las líneas.
type TransferResponse struct {
	ID                    string                 `json:"id"`
	Number                string                 `json:"number"`
	SourceSiteID          string                 `json:"source_site_id"`
	DestinationSiteID     string                 `json:"destination_site_id"`
	SourceLocationID      string                 `json:"source_location_id,omitempty"`
	DestinationLocationID string                 `json:"destination_location_id,omitempty"`
	Status                string                 `json:"status"`
	DisplayStatus         string                 `json:"display_status"`
	ReceiptProgress       string                 `json:"receipt_progress"`
	RequestedDate         *time.Time             `json:"requested_date,omitempty"`
	ShippedDate           *time.Time             `json:"shipped_date,omitempty"`
	ReceivedDate          *time.Time             `json:"received_date,omitempty"`
	ShippedBy             string                 `json:"shipped_by,omitempty"`
	ReceivedBy            string                 `json:"received_by,omitempty"`
	CreatedBy             string                 `json:"created_by"`
	Notes                 string                 `json:"notes,omitempty"`
	Version               int                    `json:"version"`
	Lines                 []TransferLineResponse `json:"lines"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
}

// TransferListResponse listado paginado de traslados.
type TransferListResponse struct {
	Items []TransferResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// CommandResponse respuesta de los comandos: identificador del traslado y estado resultante.
type CommandResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	DisplayStatus string `json:"display_status,omitempty"`
}
