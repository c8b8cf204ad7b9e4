package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-transfer-api/internal/application/dto"
	"github.com/jhoicas/stock-transfer-api/internal/domain"
	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
	"github.com/jhoicas/stock-transfer-api/internal/domain/repository"
	"github.com/jhoicas/stock-transfer-api/pkg/logger"
	"github.com/jhoicas/stock-transfer-api/pkg/metrics"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Nombres de comando para logs y métricas.
const (
	CommandCreate      = "create_transfer"
	CommandUpdateLines = "update_transfer_lines"
	CommandShip        = "ship_transfer"
	CommandReceive     = "receive_transfer"
	CommandCancel      = "cancel_transfer"
)

// TransferLineCommand línea de un comando de creación o edición.
type TransferLineCommand struct {
	ProductID string
	VariantID string
	Quantity  decimal.Decimal
	Notes     string
}

// CreateTransferCommand datos para crear un traslado.
type CreateTransferCommand struct {
	Number                string
	SourceSiteID          string
	DestinationSiteID     string
	SourceLocationID      string
	DestinationLocationID string
	CreatedBy             string
	RequestedDate         *time.Time
	Notes                 string
	Lines                 []TransferLineCommand
}

// UpdateTransferLinesCommand reemplaza las líneas de un traslado en estado created.
type UpdateTransferLinesCommand struct {
	TransferID string
	UpdatedBy  string
	Lines      []TransferLineCommand
}

// ShipTransferCommand despacha un traslado.
type ShipTransferCommand struct {
	TransferID  string
	ShippedBy   string
	ShippedDate *time.Time
}

// ReceiveTransferCommand recibe total o parcialmente un traslado.
// ReceivedQuantities se indexa por secuencia de línea; nil recibe todo lo pendiente.
type ReceiveTransferCommand struct {
	TransferID         string
	ReceivedBy         string
	ReceivedDate       *time.Time
	ReceivedQuantities map[int]decimal.Decimal
}

// CancelTransferCommand cancela un traslado aún no despachado.
type CancelTransferCommand struct {
	TransferID  string
	CancelledBy string
}

// TransferUseCase servicio de aplicación de traslados: valida comandos, abre una unidad de
// trabajo por comando y secuencia ciclo de vida, ledger y log de movimientos.
type TransferUseCase struct {
	txRunner TxRunner
	log      *logger.Logger
	metrics  *metrics.CommandMetrics
	now      func() time.Time
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(txRunner TxRunner, log *logger.Logger, m *metrics.CommandMetrics) *TransferUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &TransferUseCase{
		txRunner: txRunner,
		log:      log.Component("transfers"),
		metrics:  m,
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *TransferUseCase) WithClock(now func() time.Time) *TransferUseCase {
	uc.now = now
	return uc
}

// Create valida unicidad del número, existencia de sedes/ubicaciones/productos y persiste
// el traslado en estado created. Devuelve el ID del traslado.
func (uc *TransferUseCase) Create(ctx context.Context, cmd CreateTransferCommand) (string, error) {
	cmd.Number = strings.TrimSpace(cmd.Number)
	if cmd.Number == "" || cmd.CreatedBy == "" || cmd.SourceSiteID == "" || cmd.DestinationSiteID == "" {
		return "", domain.ErrInvalidInput
	}
	if cmd.SourceSiteID == cmd.DestinationSiteID || len(cmd.Lines) == 0 {
		return "", domain.ErrInvalidInput
	}

	var id string
	err := uc.run(ctx, CommandCreate, func(e *zerolog.Event) { e.Str("number", cmd.Number).Str("actor", cmd.CreatedBy) }, func(uow UnitOfWork) error {
		existing, err := uow.Transfers().GetByNumber(ctx, cmd.Number)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		if err := ensureSite(ctx, uow.Sites(), cmd.SourceSiteID, cmd.SourceLocationID); err != nil {
			return err
		}
		if err := ensureSite(ctx, uow.Sites(), cmd.DestinationSiteID, cmd.DestinationLocationID); err != nil {
			return err
		}
		lines, err := uc.lineInputs(ctx, uow.Catalog(), cmd.Lines)
		if err != nil {
			return err
		}
		t, err := entity.NewStockTransfer(entity.NewTransferParams{
			ID:                    uuid.New().String(),
			Number:                cmd.Number,
			SourceSiteID:          cmd.SourceSiteID,
			DestinationSiteID:     cmd.DestinationSiteID,
			SourceLocationID:      cmd.SourceLocationID,
			DestinationLocationID: cmd.DestinationLocationID,
			RequestedDate:         cmd.RequestedDate,
			CreatedBy:             cmd.CreatedBy,
			Notes:                 cmd.Notes,
			Lines:                 lines,
			Now:                   uc.now(),
		})
		if err != nil {
			return err
		}
		if err := uow.Transfers().Create(ctx, t); err != nil {
			return err
		}
		id = t.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateLines reemplaza las líneas de un traslado que sigue en created.
func (uc *TransferUseCase) UpdateLines(ctx context.Context, cmd UpdateTransferLinesCommand) (*entity.StockTransfer, error) {
	if cmd.TransferID == "" || len(cmd.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.StockTransfer
	err := uc.mutate(ctx, CommandUpdateLines, cmd.TransferID, cmd.UpdatedBy, func(uow UnitOfWork, t *entity.StockTransfer) error {
		lines, err := uc.lineInputs(ctx, uow.Catalog(), cmd.Lines)
		if err != nil {
			return err
		}
		if err := t.ReplaceLines(lines, uc.now()); err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

// Ship despacha el traslado: descuenta el origen línea a línea y registra transfer_out.
// Si alguna línea no tiene disponible suficiente, nada queda aplicado.
func (uc *TransferUseCase) Ship(ctx context.Context, cmd ShipTransferCommand) (*entity.StockTransfer, error) {
	if cmd.TransferID == "" || cmd.ShippedBy == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.StockTransfer
	err := uc.mutate(ctx, CommandShip, cmd.TransferID, cmd.ShippedBy, func(uow UnitOfWork, t *entity.StockTransfer) error {
		at := uc.dateOrNow(cmd.ShippedDate)
		if err := NewLifecycle(uow, uc.now).Ship(ctx, t, cmd.ShippedBy, at); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.metrics.AddMovements(entity.MovementTypeTransferOut, len(out.Lines))
	return out, nil
}

// Receive registra una recepción total o parcial. El traslado pasa a received solo cuando
// todas las líneas quedan completas.
func (uc *TransferUseCase) Receive(ctx context.Context, cmd ReceiveTransferCommand) (*entity.StockTransfer, error) {
	if cmd.TransferID == "" || cmd.ReceivedBy == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.StockTransfer
	var before map[int]decimal.Decimal
	err := uc.mutate(ctx, CommandReceive, cmd.TransferID, cmd.ReceivedBy, func(uow UnitOfWork, t *entity.StockTransfer) error {
		before = receivedBySequence(t)
		at := uc.dateOrNow(cmd.ReceivedDate)
		if err := NewLifecycle(uow, uc.now).Receive(ctx, t, cmd.ReceivedBy, at, cmd.ReceivedQuantities); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	moved := 0
	for _, l := range out.Lines {
		if l.QuantityReceived.GreaterThan(before[l.Sequence]) {
			moved++
		}
	}
	uc.metrics.AddMovements(entity.MovementTypeTransferIn, moved)
	return out, nil
}

// Cancel cancela un traslado en created. Tras el despacho devuelve ErrInvalidTransition.
func (uc *TransferUseCase) Cancel(ctx context.Context, cmd CancelTransferCommand) (*entity.StockTransfer, error) {
	if cmd.TransferID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.StockTransfer
	err := uc.mutate(ctx, CommandCancel, cmd.TransferID, cmd.CancelledBy, func(uow UnitOfWork, t *entity.StockTransfer) error {
		if err := NewLifecycle(uow, uc.now).Cancel(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

// GetByID devuelve la vista del traslado o ErrNotFound.
func (uc *TransferUseCase) GetByID(ctx context.Context, id string) (*dto.TransferResponse, error) {
	var out *dto.TransferResponse
	err := uc.txRunner.Run(ctx, func(uow UnitOfWork) error {
		t, err := uow.Transfers().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		out = ToTransferResponse(t)
		return nil
	})
	return out, err
}

// List lista traslados filtrando por estado y/o sede (origen o destino).
func (uc *TransferUseCase) List(ctx context.Context, status, siteID string, page dto.PageRequest) (*dto.TransferListResponse, error) {
	page.DefaultPage()
	if status != "" && !entity.IsValidTransferStatus(status) {
		return nil, domain.ErrInvalidInput
	}
	var out *dto.TransferListResponse
	err := uc.txRunner.Run(ctx, func(uow UnitOfWork) error {
		list, err := uow.Transfers().List(ctx, repository.TransferFilter{
			Status: status,
			SiteID: siteID,
			Limit:  page.Limit,
			Offset: page.Offset,
		})
		if err != nil {
			return err
		}
		items := make([]dto.TransferResponse, 0, len(list))
		for _, t := range list {
			items = append(items, *ToTransferResponse(t))
		}
		out = &dto.TransferListResponse{
			Items: items,
			Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
		}
		return nil
	})
	return out, err
}

// mutate carga el traslado con bloqueo, aplica fn y persiste con control de versión.
// actor queda en el log del resultado.
func (uc *TransferUseCase) mutate(ctx context.Context, command, transferID, actor string, fn func(uow UnitOfWork, t *entity.StockTransfer) error) error {
	fields := func(e *zerolog.Event) { e.Str("transfer_id", transferID).Str("actor", actor) }
	return uc.run(ctx, command, fields, func(uow UnitOfWork) error {
		t, err := uow.Transfers().GetForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		expected := t.Version
		if err := fn(uow, t); err != nil {
			return err
		}
		t.Version = expected + 1
		return uow.Transfers().Update(ctx, t, expected)
	})
}

// run ejecuta fn en una transacción y registra log y métricas del resultado.
func (uc *TransferUseCase) run(ctx context.Context, command string, fields func(*zerolog.Event), fn func(uow UnitOfWork) error) error {
	start := time.Now()
	err := uc.txRunner.Run(ctx, fn)
	outcome := classify(err)
	uc.metrics.Observe(command, outcome, time.Since(start))

	log := uc.log.Ctx(ctx)
	var ev *zerolog.Event
	switch outcome {
	case metrics.OutcomeSuccess:
		ev = log.Info()
	case metrics.OutcomeRejected:
		ev = log.Warn().Err(err)
	default:
		ev = log.Error().Err(err)
	}
	fields(ev)
	ev.Str("command", command).Str("outcome", outcome).Dur("elapsed", time.Since(start)).Msg("comando de traslado")
	return err
}

func (uc *TransferUseCase) dateOrNow(d *time.Time) time.Time {
	if d != nil && !d.IsZero() {
		return *d
	}
	return uc.now()
}

func (uc *TransferUseCase) lineInputs(ctx context.Context, catalog repository.CatalogRepository, lines []TransferLineCommand) ([]entity.TransferLineInput, error) {
	out := make([]entity.TransferLineInput, 0, len(lines))
	for i, l := range lines {
		if l.ProductID == "" || !l.Quantity.IsPositive() || !entity.FitsQuantityScale(l.Quantity) {
			return nil, &domain.LineError{Err: domain.ErrInvalidInput, Line: i + 1, Requested: l.Quantity}
		}
		if catalog != nil {
			ok, err := catalog.ProductExists(ctx, l.ProductID, l.VariantID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, &domain.LineError{Err: domain.ErrNotFound, Line: i + 1}
			}
		}
		out = append(out, entity.TransferLineInput{
			ID:        uuid.New().String(),
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			Notes:     l.Notes,
		})
	}
	return out, nil
}

// ensureSite verifica que la sede exista y, si se indicó, que la ubicación le pertenezca.
func ensureSite(ctx context.Context, sites repository.SiteRepository, siteID, locationID string) error {
	site, err := sites.GetByID(ctx, siteID)
	if err != nil {
		return err
	}
	if site == nil {
		return domain.ErrNotFound
	}
	if locationID == "" {
		return nil
	}
	loc, err := sites.GetLocation(ctx, locationID)
	if err != nil {
		return err
	}
	if loc == nil || loc.SiteID != siteID {
		return domain.ErrNotFound
	}
	return nil
}

func receivedBySequence(t *entity.StockTransfer) map[int]decimal.Decimal {
	out := make(map[int]decimal.Decimal, len(t.Lines))
	for _, l := range t.Lines {
		out[l.Sequence] = l.QuantityReceived
	}
	return out
}

// IsBusinessError indica si err es un rechazo de negocio (no reintentable).
func IsBusinessError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound, domain.ErrInvalidInput, domain.ErrDuplicate, domain.ErrConflict,
		domain.ErrInvalidTransition, domain.ErrInsufficientStock, domain.ErrNegativeStock,
		domain.ErrOverReservation, domain.ErrOverReceipt,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func classify(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case IsBusinessError(err):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

// ToTransferResponse convierte el agregado a su vista.
func ToTransferResponse(t *entity.StockTransfer) *dto.TransferResponse {
	if t == nil {
		return nil
	}
	lines := make([]dto.TransferLineResponse, 0, len(t.Lines))
	for i := range t.Lines {
		l := &t.Lines[i]
		lines = append(lines, dto.TransferLineResponse{
			ID:               l.ID,
			Sequence:         l.Sequence,
			ProductID:        l.ProductID,
			VariantID:        l.VariantID,
			Quantity:         l.Quantity,
			QuantityReceived: l.QuantityReceived,
			Outstanding:      l.Outstanding(),
			Notes:            l.Notes,
		})
	}
	return &dto.TransferResponse{
		ID:                    t.ID,
		Number:                t.Number,
		SourceSiteID:          t.SourceSiteID,
		DestinationSiteID:     t.DestinationSiteID,
		SourceLocationID:      t.SourceLocationID,
		DestinationLocationID: t.DestinationLocationID,
		Status:                t.Status,
		DisplayStatus:         t.DisplayStatus(),
		ReceiptProgress:       t.ReceiptProgress(),
		RequestedDate:         t.RequestedDate,
		ShippedDate:           t.ShippedDate,
		ReceivedDate:          t.ReceivedDate,
		ShippedBy:             t.ShippedBy,
		ReceivedBy:            t.ReceivedBy,
		CreatedBy:             t.CreatedBy,
		Notes:                 t.Notes,
		Version:               t.Version,
		Lines:                 lines,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
}
