package repository

import (
	"context"

	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
)

// SiteRepository define el puerto de persistencia para sedes y sus ubicaciones (DIP).
type SiteRepository interface {
	Create(ctx context.Context, site *entity.Site) error
	GetByID(ctx context.Context, id string) (*entity.Site, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Site, error)
	// Delete devuelve domain.ErrConflict si la sede tiene saldos o movimientos.
	Delete(ctx context.Context, id string) error
	CreateLocation(ctx context.Context, location *entity.Location) error
	GetLocation(ctx context.Context, id string) (*entity.Location, error)
	ListLocations(ctx context.Context, siteID string) ([]*entity.Location, error)
}
