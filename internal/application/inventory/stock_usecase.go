package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-transfer-api/internal/application/dto"
	"github.com/jhoicas/stock-transfer-api/internal/domain"
	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
	"github.com/jhoicas/stock-transfer-api/internal/domain/repository"
	"github.com/jhoicas/stock-transfer-api/pkg/logger"
	"github.com/jhoicas/stock-transfer-api/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Nombres de comando de stock.
const (
	CommandAdjust  = "adjust_stock"
	CommandReserve = "reserve_stock"
	CommandLevels  = "set_stock_levels"
)

// AdjustStockCommand ajuste manual del físico (saldo inicial, conteo, corrección).
// Quantity con signo, distinto de cero.
type AdjustStockCommand struct {
	Key       entity.StockItemKey
	Quantity  decimal.Decimal
	Reason    string
	CreatedBy string
}

// ReserveStockCommand reserva (Quantity > 0) o libera (Quantity < 0) stock. No genera movimiento:
// el log solo registra variaciones del físico.
type ReserveStockCommand struct {
	Key      entity.StockItemKey
	Quantity decimal.Decimal
}

// SetStockLevelsCommand fija mínimo, máximo y punto de reorden de un saldo.
// MaxStock en cero significa sin máximo.
type SetStockLevelsCommand struct {
	Key          entity.StockItemKey
	MinStock     decimal.Decimal
	MaxStock     decimal.Decimal
	ReorderPoint decimal.Decimal
}

// StockUseCase ajustes, reservas y consultas del ledger.
type StockUseCase struct {
	txRunner TxRunner
	log      *logger.Logger
	metrics  *metrics.CommandMetrics
	now      func() time.Time
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(txRunner TxRunner, log *logger.Logger, m *metrics.CommandMetrics) *StockUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &StockUseCase{txRunner: txRunner, log: log.Component("stock"), metrics: m, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (uc *StockUseCase) WithClock(now func() time.Time) *StockUseCase {
	uc.now = now
	return uc
}

// Adjust aplica el ajuste bajo bloqueo y agrega un movimiento adjustment en la misma transacción.
func (uc *StockUseCase) Adjust(ctx context.Context, cmd AdjustStockCommand) (*dto.StockItemResponse, error) {
	if err := validKey(cmd.Key); err != nil {
		return nil, err
	}
	if cmd.Quantity.IsZero() || !entity.FitsQuantityScale(cmd.Quantity) || cmd.CreatedBy == "" || cmd.Reason == "" {
		return nil, domain.ErrInvalidInput
	}
	start := time.Now()
	var out entity.StockItem
	err := uc.txRunner.Run(ctx, func(uow UnitOfWork) error {
		if err := ensureSite(ctx, uow.Sites(), cmd.Key.SiteID, cmd.Key.LocationID); err != nil {
			return err
		}
		if err := ensureProduct(ctx, uow.Catalog(), cmd.Key); err != nil {
			return err
		}
		item, err := NewLedger(uow.Stock(), uc.now).Adjust(ctx, cmd.Key, cmd.Quantity, decimal.Zero)
		if err != nil {
			return err
		}
		mov := entity.StockMovement{
			Type:                entity.MovementTypeAdjustment,
			Direction:           entity.DirectionIn,
			Quantity:            cmd.Quantity.Abs(),
			RelatedDocumentType: entity.DocumentTypeAdjustment,
			Reason:              cmd.Reason,
			CreatedBy:           cmd.CreatedBy,
		}
		loc := optional(cmd.Key.LocationID)
		if cmd.Quantity.IsNegative() {
			mov.Direction = entity.DirectionOut
			mov.SourceLocationID = loc
		} else {
			mov.DestinationLocationID = loc
		}
		if _, err := NewMovementLog(uow.Movements(), uc.now).Record(ctx, item, mov); err != nil {
			return err
		}
		out = item
		return nil
	})
	uc.observe(ctx, CommandAdjust, cmd.Key, err, start)
	if err != nil {
		return nil, err
	}
	uc.metrics.AddMovements(entity.MovementTypeAdjustment, 1)
	return toStockItemResponse(&out), nil
}

// Reserve ajusta solo la cantidad reservada respetando reservado <= físico.
func (uc *StockUseCase) Reserve(ctx context.Context, cmd ReserveStockCommand) (*dto.StockItemResponse, error) {
	if err := validKey(cmd.Key); err != nil {
		return nil, err
	}
	if cmd.Quantity.IsZero() || !entity.FitsQuantityScale(cmd.Quantity) {
		return nil, domain.ErrInvalidInput
	}
	start := time.Now()
	var out entity.StockItem
	err := uc.txRunner.Run(ctx, func(uow UnitOfWork) error {
		existing, err := uow.Stock().Get(ctx, cmd.Key)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		item, err := NewLedger(uow.Stock(), uc.now).Adjust(ctx, cmd.Key, decimal.Zero, cmd.Quantity)
		if err != nil {
			return err
		}
		out = item
		return nil
	})
	uc.observe(ctx, CommandReserve, cmd.Key, err, start)
	if err != nil {
		return nil, err
	}
	return toStockItemResponse(&out), nil
}

// SetLevels actualiza los niveles informativos sin tocar cantidades ni generar movimiento.
// Crea el saldo en cero si aún no existe.
func (uc *StockUseCase) SetLevels(ctx context.Context, cmd SetStockLevelsCommand) (*dto.StockItemResponse, error) {
	if err := validKey(cmd.Key); err != nil {
		return nil, err
	}
	for _, v := range []decimal.Decimal{cmd.MinStock, cmd.MaxStock, cmd.ReorderPoint} {
		if v.IsNegative() || !entity.FitsQuantityScale(v) {
			return nil, domain.ErrInvalidInput
		}
	}
	if cmd.MaxStock.IsPositive() && (cmd.MinStock.GreaterThan(cmd.MaxStock) || cmd.ReorderPoint.GreaterThan(cmd.MaxStock)) {
		return nil, domain.ErrInvalidInput
	}
	start := time.Now()
	var out entity.StockItem
	err := uc.txRunner.Run(ctx, func(uow UnitOfWork) error {
		if err := ensureSite(ctx, uow.Sites(), cmd.Key.SiteID, cmd.Key.LocationID); err != nil {
			return err
		}
		if err := ensureProduct(ctx, uow.Catalog(), cmd.Key); err != nil {
			return err
		}
		item, err := uow.Stock().GetForUpdate(ctx, cmd.Key)
		if err != nil {
			return err
		}
		item.MinStock = cmd.MinStock
		item.MaxStock = cmd.MaxStock
		item.ReorderPoint = cmd.ReorderPoint
		item.UpdatedAt = uc.now()
		if err := uow.Stock().Update(ctx, item); err != nil {
			return err
		}
		out = *item
		return nil
	})
	uc.observe(ctx, CommandLevels, cmd.Key, err, start)
	if err != nil {
		return nil, err
	}
	return toStockItemResponse(&out), nil
}

// Get devuelve el saldo sin bloqueo; ErrNotFound si nunca hubo movimientos.
func (uc *StockUseCase) Get(ctx context.Context, key entity.StockItemKey) (*dto.StockItemResponse, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	var out *dto.StockItemResponse
	err := uc.txRunner.Run(ctx, func(uow UnitOfWork) error {
		item, err := uow.Stock().Get(ctx, key)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		out = toStockItemResponse(item)
		return nil
	})
	return out, err
}

// List saldos de una sede (opcionalmente de un producto).
func (uc *StockUseCase) List(ctx context.Context, siteID, productID string) (*dto.StockListResponse, error) {
	if siteID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *dto.StockListResponse
	err := uc.txRunner.Run(ctx, func(uow UnitOfWork) error {
		items, err := uow.Stock().ListBySite(ctx, siteID, productID)
		if err != nil {
			return err
		}
		resp := &dto.StockListResponse{Items: make([]dto.StockItemResponse, 0, len(items))}
		for _, it := range items {
			resp.Items = append(resp.Items, *toStockItemResponse(it))
		}
		out = resp
		return nil
	})
	return out, err
}

// Movements lista el log de movimientos con filtros.
func (uc *StockUseCase) Movements(ctx context.Context, filter repository.MovementFilter) (*dto.MovementListResponse, error) {
	page := dto.PageRequest{Limit: filter.Limit, Offset: filter.Offset}
	page.DefaultPage()
	filter.Limit, filter.Offset = page.Limit, page.Offset
	var out *dto.MovementListResponse
	err := uc.txRunner.Run(ctx, func(uow UnitOfWork) error {
		list, err := uow.Movements().List(ctx, filter)
		if err != nil {
			return err
		}
		items := make([]dto.MovementResponse, 0, len(list))
		for _, m := range list {
			items = append(items, toMovementResponse(m))
		}
		out = &dto.MovementListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}
		return nil
	})
	return out, err
}

// Reconcile compara, para cada saldo de la sede, el físico con la suma con signo de sus
// movimientos. Ambos se leen sobre la misma foto (RunSnapshot) para no reportar diferencias
// por commits concurrentes entre las dos consultas.
func (uc *StockUseCase) Reconcile(ctx context.Context, siteID string) (*dto.ReconciliationResponse, error) {
	if siteID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *dto.ReconciliationResponse
	err := runSnapshot(ctx, uc.txRunner, func(uow UnitOfWork) error {
		site, err := uow.Sites().GetByID(ctx, siteID)
		if err != nil {
			return err
		}
		if site == nil {
			return domain.ErrNotFound
		}
		items, err := uow.Stock().ListBySite(ctx, siteID, "")
		if err != nil {
			return err
		}
		sums, err := uow.Movements().SumByStockItem(ctx, siteID)
		if err != nil {
			return err
		}
		resp := &dto.ReconciliationResponse{
			SiteID:      siteID,
			ItemsCount:  len(items),
			Mismatches:  []dto.ReconciliationLine{},
			GeneratedAt: uc.now(),
		}
		for _, it := range items {
			total := sums[it.ID]
			if total.Equal(it.PhysicalQuantity) {
				continue
			}
			resp.Mismatches = append(resp.Mismatches, dto.ReconciliationLine{
				StockItemID:      it.ID,
				ProductID:        it.ProductID,
				VariantID:        it.VariantID,
				LocationID:       it.LocationID,
				PhysicalQuantity: it.PhysicalQuantity,
				MovementsTotal:   total,
				Difference:       it.PhysicalQuantity.Sub(total),
			})
		}
		resp.Balanced = len(resp.Mismatches) == 0
		out = resp
		return nil
	})
	if err == nil && !out.Balanced {
		uc.log.Ctx(ctx).Warn().Str("site_id", siteID).Int("mismatches", len(out.Mismatches)).Msg("conciliación con diferencias")
	}
	return out, err
}

func (uc *StockUseCase) observe(ctx context.Context, command string, key entity.StockItemKey, err error, start time.Time) {
	outcome := classify(err)
	uc.metrics.Observe(command, outcome, time.Since(start))
	log := uc.log.Ctx(ctx)
	ev := log.Info()
	if err != nil {
		ev = log.Warn().Err(err)
		if outcome == metrics.OutcomeError {
			ev = log.Error().Err(err)
		}
	}
	ev.Str("command", command).Str("stock_key", key.String()).Str("outcome", outcome).Msg("comando de stock")
}

func validKey(k entity.StockItemKey) error {
	if k.SiteID == "" || k.ProductID == "" {
		return domain.ErrInvalidInput
	}
	return nil
}

func ensureProduct(ctx context.Context, catalog repository.CatalogRepository, key entity.StockItemKey) error {
	if catalog == nil {
		return nil
	}
	ok, err := catalog.ProductExists(ctx, key.ProductID, key.VariantID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

func toStockItemResponse(it *entity.StockItem) *dto.StockItemResponse {
	return &dto.StockItemResponse{
		ID:                it.ID,
		ProductID:         it.ProductID,
		VariantID:         it.VariantID,
		SiteID:            it.SiteID,
		LocationID:        it.LocationID,
		PhysicalQuantity:  it.PhysicalQuantity,
		ReservedQuantity:  it.ReservedQuantity,
		AvailableQuantity: it.Available(),
		MinStock:          it.MinStock,
		MaxStock:          it.MaxStock,
		ReorderPoint:      it.ReorderPoint,
		BelowReorderPoint: it.BelowReorderPoint(),
		LastMovementAt:    it.LastMovementAt,
	}
}

func toMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:                    m.ID,
		StockItemID:           m.StockItemID,
		ProductID:             m.ProductID,
		VariantID:             m.VariantID,
		SiteID:                m.SiteID,
		Type:                  m.Type,
		Direction:             m.Direction,
		Quantity:              m.Quantity,
		SignedQuantity:        m.Signed(),
		SourceLocationID:      m.SourceLocationID,
		DestinationLocationID: m.DestinationLocationID,
		RelatedDocumentType:   m.RelatedDocumentType,
		RelatedDocumentID:     m.RelatedDocumentID,
		Reason:                m.Reason,
		CreatedBy:             m.CreatedBy,
		CreatedAt:             m.CreatedAt,
	}
}
