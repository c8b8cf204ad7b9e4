package repository

import (
	"context"

	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
)

// StockItemRepository define el puerto para saldos por producto/variante/sede/ubicación.
// Usado dentro de transacciones para garantizar consistencia.
type StockItemRepository interface {
	// Get lectura sin bloqueo; nil si el saldo aún no existe.
	Get(ctx context.Context, key entity.StockItemKey) (*entity.StockItem, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción, creándola en cero si no existe.
	GetForUpdate(ctx context.Context, key entity.StockItemKey) (*entity.StockItem, error)
	Update(ctx context.Context, item *entity.StockItem) error
	ListBySite(ctx context.Context, siteID, productID string) ([]*entity.StockItem, error)
	// ListByProduct saldos del producto/variante en todas las sedes.
	ListByProduct(ctx context.Context, productID, variantID string) ([]*entity.StockItem, error)
}
