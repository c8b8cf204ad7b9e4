package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
	"github.com/jhoicas/stock-transfer-api/internal/domain/repository"
)

// MovementLog registro append-only de movimientos. No rechaza por reglas de negocio;
// solo falla si la persistencia falla. Las correcciones son movimientos nuevos.
type MovementLog struct {
	repo repository.StockMovementRepository
	now  func() time.Time
}

// NewMovementLog construye el log sobre el repositorio de la transacción actual.
func NewMovementLog(repo repository.StockMovementRepository, now func() time.Time) *MovementLog {
	if now == nil {
		now = time.Now
	}
	return &MovementLog{repo: repo, now: now}
}

// Append persiste el movimiento asignando ID y fecha si faltan.
func (m *MovementLog) Append(ctx context.Context, mov *entity.StockMovement) error {
	if mov.ID == "" {
		mov.ID = uuid.New().String()
	}
	if mov.CreatedAt.IsZero() {
		mov.CreatedAt = m.now()
	}
	if err := m.repo.Append(ctx, mov); err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	return nil
}

// Record arma el movimiento a partir del saldo afectado y lo agrega al log.
func (m *MovementLog) Record(ctx context.Context, item entity.StockItem, mov entity.StockMovement) (*entity.StockMovement, error) {
	mov.StockItemID = item.ID
	mov.ProductID = item.ProductID
	mov.VariantID = item.VariantID
	mov.SiteID = item.SiteID
	if err := m.Append(ctx, &mov); err != nil {
		return nil, err
	}
	return &mov, nil
}
