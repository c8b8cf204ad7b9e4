package repository

import (
	"context"

	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
)

// TransferFilter filtros para listar traslados. SiteID coincide con origen o destino.
type TransferFilter struct {
	Status string
	SiteID string
	Limit  int
	Offset int
}

// StockTransferRepository puerto de persistencia del agregado StockTransfer (con sus líneas).
type StockTransferRepository interface {
	Create(ctx context.Context, transfer *entity.StockTransfer) error
	GetByID(ctx context.Context, id string) (*entity.StockTransfer, error)
	// GetForUpdate bloquea el traslado para el resto de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error)
	GetByNumber(ctx context.Context, number string) (*entity.StockTransfer, error)
	// Update persiste cabecera y líneas si la versión coincide con expectedVersion;
	// si otro comando la cambió devuelve domain.ErrConflict.
	Update(ctx context.Context, transfer *entity.StockTransfer, expectedVersion int) error
	List(ctx context.Context, filter TransferFilter) ([]*entity.StockTransfer, error)
	// ExistsForSite indica si algún traslado (en cualquier estado) referencia la sede.
	ExistsForSite(ctx context.Context, siteID string) (bool, error)
}
