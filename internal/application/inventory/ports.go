package inventory

import (
	"context"

	"github.com/jhoicas/stock-transfer-api/internal/domain/repository"
)

// UnitOfWork agrupa los repositorios atados a una misma transacción.
// Solo es válido dentro del callback de TxRunner.Run.
type UnitOfWork interface {
	Sites() repository.SiteRepository
	Stock() repository.StockItemRepository
	Movements() repository.StockMovementRepository
	Transfers() repository.StockTransferRepository
	Catalog() repository.CatalogRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando la unidad de trabajo.
// Commit si fn devuelve nil; Rollback en cualquier otro caso (incluido panic).
// Garantiza atomicidad entre ciclo de vida, ledger y log de movimientos.
type TxRunner interface {
	Run(ctx context.Context, fn func(uow UnitOfWork) error) error
}

// SnapshotRunner lo implementan los TxRunner capaces de abrir una transacción de solo lectura
// en la que todas las consultas ven la misma foto de los datos.
type SnapshotRunner interface {
	RunSnapshot(ctx context.Context, fn func(uow UnitOfWork) error) error
}

// runSnapshot usa RunSnapshot si el runner lo soporta y Run en otro caso.
func runSnapshot(ctx context.Context, r TxRunner, fn func(uow UnitOfWork) error) error {
	if sr, ok := r.(SnapshotRunner); ok {
		return sr.RunSnapshot(ctx, fn)
	}
	return r.Run(ctx, fn)
}
