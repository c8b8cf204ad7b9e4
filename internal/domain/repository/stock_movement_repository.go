package repository

import (
	"context"

	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// MovementFilter filtros para listar movimientos. Campos vacíos no filtran.
type MovementFilter struct {
	SiteID       string
	ProductID    string
	DocumentType string
	DocumentID   string
	Limit        int
	Offset       int
}

// StockMovementRepository puerto del log de movimientos (solo inserción, nunca update/delete).
type StockMovementRepository interface {
	Append(ctx context.Context, movement *entity.StockMovement) error
	List(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, error)
	// SumByStockItem suma con signo los movimientos de cada StockItem de la sede.
	SumByStockItem(ctx context.Context, siteID string) (map[string]decimal.Decimal, error)
}
