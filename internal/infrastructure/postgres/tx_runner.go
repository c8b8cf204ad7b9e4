package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/stock-transfer-api/internal/application/inventory"
	"github.com/jhoicas/stock-transfer-api/internal/domain/repository"
)

var (
	_ inventory.TxRunner       = (*TxRunner)(nil)
	_ inventory.SnapshotRunner = (*TxRunner)(nil)
)

// snapshotTxOptions: todas las sentencias ven la foto tomada al inicio de la transacción.
var snapshotTxOptions = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Las filas que se modifican se bloquean explícitamente con SELECT ... FOR UPDATE.
func (r *TxRunner) Run(ctx context.Context, fn func(uow inventory.UnitOfWork) error) error {
	return r.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

// RunSnapshot ejecuta fn en una transacción REPEATABLE READ de solo lectura (conciliación).
func (r *TxRunner) RunSnapshot(ctx context.Context, fn func(uow inventory.UnitOfWork) error) error {
	return r.run(ctx, snapshotTxOptions, fn)
}

func (r *TxRunner) run(ctx context.Context, opts pgx.TxOptions, fn func(uow inventory.UnitOfWork) error) error {
	tx, err := r.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(unitOfWork{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type unitOfWork struct{ q Querier }

func (u unitOfWork) Sites() repository.SiteRepository              { return NewSiteRepository(u.q) }
func (u unitOfWork) Stock() repository.StockItemRepository         { return NewStockItemRepository(u.q) }
func (u unitOfWork) Movements() repository.StockMovementRepository { return NewStockMovementRepository(u.q) }
func (u unitOfWork) Transfers() repository.StockTransferRepository { return NewStockTransferRepository(u.q) }
func (u unitOfWork) Catalog() repository.CatalogRepository         { return NewCatalogRepository(u.q) }
