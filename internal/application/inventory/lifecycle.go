package inventory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jhoicas/stock-transfer-api/internal/domain"
	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Lifecycle ejecuta las transiciones del traslado y dirige el ledger y el log de movimientos.
// Debe usarse dentro de una única unidad de trabajo: si una línea falla, el caller hace Rollback.
type Lifecycle struct {
	ledger *Ledger
	log    *MovementLog
	now    func() time.Time
}

// NewLifecycle construye el ciclo de vida sobre los repositorios de la unidad de trabajo.
func NewLifecycle(uow UnitOfWork, now func() time.Time) *Lifecycle {
	if now == nil {
		now = time.Now
	}
	return &Lifecycle{
		ledger: NewLedger(uow.Stock(), now),
		log:    NewMovementLog(uow.Movements(), now),
		now:    now,
	}
}

// Ship created -> shipped: descuenta cada línea del saldo de origen (comprobando disponible
// dentro del bloqueo) y agrega un movimiento transfer_out por línea.
func (lc *Lifecycle) Ship(ctx context.Context, t *entity.StockTransfer, by string, at time.Time) error {
	if err := t.EnsureCanShip(); err != nil {
		return err
	}
	for _, l := range linesInLockOrder(t, t.SourceKey) {
		item, err := lc.ledger.Withdraw(ctx, t.SourceKey(l), l.Quantity)
		if err != nil {
			return withLine(err, l.Sequence)
		}
		if _, err := lc.log.Record(ctx, item, entity.StockMovement{
			Type:                  entity.MovementTypeTransferOut,
			Direction:             entity.DirectionOut,
			Quantity:              l.Quantity,
			SourceLocationID:      optional(t.SourceLocationID),
			DestinationLocationID: optional(t.DestinationLocationID),
			RelatedDocumentType:   entity.DocumentTypeTransfer,
			RelatedDocumentID:     t.ID,
			CreatedBy:             by,
		}); err != nil {
			return err
		}
	}
	return t.MarkShipped(by, at, lc.now())
}

// Receive registra una recepción total o parcial: suma lo recibido en destino, agrega un
// movimiento transfer_in por línea con cantidad > 0 y acumula quantity_received.
func (lc *Lifecycle) Receive(ctx context.Context, t *entity.StockTransfer, by string, at time.Time, quantities map[int]decimal.Decimal) error {
	plan, err := t.PlanReceipt(quantities)
	if err != nil {
		return err
	}
	bySeq := make(map[int]decimal.Decimal, len(plan))
	for _, r := range plan {
		bySeq[r.Sequence] = r.Quantity
	}
	for _, l := range linesInLockOrder(t, t.DestinationKey) {
		qty := bySeq[l.Sequence]
		if !qty.IsPositive() {
			continue
		}
		item, err := lc.ledger.Deposit(ctx, t.DestinationKey(l), qty)
		if err != nil {
			return withLine(err, l.Sequence)
		}
		if _, err := lc.log.Record(ctx, item, entity.StockMovement{
			Type:                  entity.MovementTypeTransferIn,
			Direction:             entity.DirectionIn,
			Quantity:              qty,
			SourceLocationID:      optional(t.SourceLocationID),
			DestinationLocationID: optional(t.DestinationLocationID),
			RelatedDocumentType:   entity.DocumentTypeTransfer,
			RelatedDocumentID:     t.ID,
			CreatedBy:             by,
		}); err != nil {
			return err
		}
	}
	return t.ApplyReceipt(plan, by, at, lc.now())
}

// Cancel created -> cancelled. No toca ledger ni log: nada se movió al crear.
func (lc *Lifecycle) Cancel(_ context.Context, t *entity.StockTransfer) error {
	return t.Cancel(lc.now())
}

// linesInLockOrder ordena las líneas por clave de saldo para que dos comandos concurrentes
// adquieran los bloqueos en el mismo orden.
func linesInLockOrder(t *entity.StockTransfer, key func(*entity.StockTransferLine) entity.StockItemKey) []*entity.StockTransferLine {
	lines := make([]*entity.StockTransferLine, 0, len(t.Lines))
	for i := range t.Lines {
		lines = append(lines, &t.Lines[i])
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return key(lines[i]).String() < key(lines[j]).String()
	})
	return lines
}

func withLine(err error, seq int) error {
	var se *domain.StockError
	if errors.As(err, &se) {
		se.Line = seq
	}
	return err
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
