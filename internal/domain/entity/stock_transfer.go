package entity

import (
	"strings"
	"time"

	"github.com/jhoicas/stock-transfer-api/internal/domain"
	"github.com/shopspring/decimal"
)

// Estados persistidos de un traslado.
const (
	TransferStatusCreated   = "created"
	TransferStatusShipped   = "shipped"
	TransferStatusReceived  = "received"
	TransferStatusCancelled = "cancelled"
)

// Progreso de recepción, derivado de las líneas (nunca se persiste).
const (
	ReceiptPending           = "pending"
	ReceiptPartiallyReceived = "partially_received"
	ReceiptFullyReceived     = "fully_received"
)

// StockTransfer es la raíz del agregado de traslado entre sedes. Es dueño exclusivo de sus líneas.
type StockTransfer struct {
	ID                    string
	Number                string
	SourceSiteID          string
	DestinationSiteID     string
	SourceLocationID      string
	DestinationLocationID string
	Status                string
	RequestedDate         *time.Time
	ShippedDate           *time.Time
	ReceivedDate          *time.Time
	ShippedBy             string
	ReceivedBy            string
	CreatedBy             string
	Notes                 string
	Version               int
	Lines                 []StockTransferLine
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// StockTransferLine es una línea del traslado. Su identidad es Sequence (1..n) dentro del traslado.
type StockTransferLine struct {
	ID               string
	TransferID       string
	Sequence         int
	ProductID        string
	VariantID        string
	Quantity         decimal.Decimal
	QuantityReceived decimal.Decimal
	Notes            string
}

// Outstanding es la cantidad aún no recibida de la línea.
func (l *StockTransferLine) Outstanding() decimal.Decimal {
	return l.Quantity.Sub(l.QuantityReceived)
}

// FullyReceived indica QuantityReceived == Quantity.
func (l *StockTransferLine) FullyReceived() bool {
	return l.QuantityReceived.Equal(l.Quantity)
}

// TransferLineInput datos para construir o reemplazar líneas.
type TransferLineInput struct {
	ID        string
	ProductID string
	VariantID string
	Quantity  decimal.Decimal
	Notes     string
}

// NewTransferParams datos de creación de un traslado.
type NewTransferParams struct {
	ID                    string
	Number                string
	SourceSiteID          string
	DestinationSiteID     string
	SourceLocationID      string
	DestinationLocationID string
	RequestedDate         *time.Time
	CreatedBy             string
	Notes                 string
	Lines                 []TransferLineInput
	Now                   time.Time
}

// NewStockTransfer construye un traslado en estado created validando número, sedes distintas
// y al menos una línea con cantidad > 0.
func NewStockTransfer(p NewTransferParams) (*StockTransfer, error) {
	if strings.TrimSpace(p.Number) == "" || p.SourceSiteID == "" || p.DestinationSiteID == "" {
		return nil, domain.ErrInvalidInput
	}
	if p.SourceSiteID == p.DestinationSiteID {
		return nil, domain.ErrInvalidInput
	}
	t := &StockTransfer{
		ID:                    p.ID,
		Number:                strings.TrimSpace(p.Number),
		SourceSiteID:          p.SourceSiteID,
		DestinationSiteID:     p.DestinationSiteID,
		SourceLocationID:      p.SourceLocationID,
		DestinationLocationID: p.DestinationLocationID,
		Status:                TransferStatusCreated,
		RequestedDate:         p.RequestedDate,
		CreatedBy:             p.CreatedBy,
		Notes:                 p.Notes,
		Version:               1,
		CreatedAt:             p.Now,
		UpdatedAt:             p.Now,
	}
	if err := t.setLines(p.Lines); err != nil {
		return nil, err
	}
	return t, nil
}

// ReplaceLines sustituye las líneas. Solo permitido en estado created.
func (t *StockTransfer) ReplaceLines(lines []TransferLineInput, now time.Time) error {
	if t.Status != TransferStatusCreated {
		return &domain.TransitionError{From: t.Status, Command: "update_lines"}
	}
	if err := t.setLines(lines); err != nil {
		return err
	}
	t.UpdatedAt = now
	return nil
}

func (t *StockTransfer) setLines(lines []TransferLineInput) error {
	if len(lines) == 0 {
		return domain.ErrInvalidInput
	}
	out := make([]StockTransferLine, 0, len(lines))
	for i, in := range lines {
		seq := i + 1
		if in.ProductID == "" || !in.Quantity.IsPositive() || !FitsQuantityScale(in.Quantity) {
			return &domain.LineError{Err: domain.ErrInvalidInput, Line: seq}
		}
		out = append(out, StockTransferLine{
			ID:               in.ID,
			TransferID:       t.ID,
			Sequence:         seq,
			ProductID:        in.ProductID,
			VariantID:        in.VariantID,
			Quantity:         in.Quantity,
			QuantityReceived: decimal.Zero,
			Notes:            in.Notes,
		})
	}
	t.Lines = out
	return nil
}

// Line devuelve la línea con la secuencia dada.
func (t *StockTransfer) Line(sequence int) (*StockTransferLine, bool) {
	for i := range t.Lines {
		if t.Lines[i].Sequence == sequence {
			return &t.Lines[i], true
		}
	}
	return nil, false
}

// SourceKey es la clave del saldo de origen para una línea.
func (t *StockTransfer) SourceKey(l *StockTransferLine) StockItemKey {
	return StockItemKey{ProductID: l.ProductID, VariantID: l.VariantID, SiteID: t.SourceSiteID, LocationID: t.SourceLocationID}
}

// DestinationKey es la clave del saldo de destino para una línea.
func (t *StockTransfer) DestinationKey(l *StockTransferLine) StockItemKey {
	return StockItemKey{ProductID: l.ProductID, VariantID: l.VariantID, SiteID: t.DestinationSiteID, LocationID: t.DestinationLocationID}
}

// EnsureCanShip valida created -> shipped sin mutar el agregado.
func (t *StockTransfer) EnsureCanShip() error {
	if t.Status != TransferStatusCreated {
		return &domain.TransitionError{From: t.Status, Command: "ship"}
	}
	if len(t.Lines) == 0 {
		return domain.ErrInvalidInput
	}
	return nil
}

// MarkShipped registra el despacho. El ledger ya debe haber descontado el origen.
func (t *StockTransfer) MarkShipped(by string, at time.Time, now time.Time) error {
	if err := t.EnsureCanShip(); err != nil {
		return err
	}
	t.Status = TransferStatusShipped
	t.ShippedBy = by
	t.ShippedDate = &at
	t.UpdatedAt = now
	return nil
}

// LineReceipt cantidad a recibir en una línea durante una llamada de recepción.
type LineReceipt struct {
	Sequence int
	Quantity decimal.Decimal
}

// PlanReceipt valida una recepción (total o parcial) sin mutar el agregado.
// Las líneas omitidas reciben su cantidad pendiente. Cada cantidad debe cumplir
// 0 <= q <= pendiente; de lo contrario ErrOverReceipt. Más de QuantityScale decimales -> ErrInvalidInput.
func (t *StockTransfer) PlanReceipt(quantities map[int]decimal.Decimal) ([]LineReceipt, error) {
	if t.Status != TransferStatusShipped {
		return nil, &domain.TransitionError{From: t.Status, Command: "receive"}
	}
	for seq := range quantities {
		if _, ok := t.Line(seq); !ok {
			return nil, &domain.LineError{Err: domain.ErrInvalidInput, Line: seq}
		}
	}
	plan := make([]LineReceipt, 0, len(t.Lines))
	total := decimal.Zero
	for i := range t.Lines {
		l := &t.Lines[i]
		qty, ok := quantities[l.Sequence]
		if !ok {
			qty = l.Outstanding()
		}
		if !FitsQuantityScale(qty) {
			return nil, &domain.LineError{Err: domain.ErrInvalidInput, Line: l.Sequence, Requested: qty, Outstanding: l.Outstanding()}
		}
		if qty.IsNegative() || qty.GreaterThan(l.Outstanding()) {
			return nil, &domain.LineError{Err: domain.ErrOverReceipt, Line: l.Sequence, Requested: qty, Outstanding: l.Outstanding()}
		}
		total = total.Add(qty)
		plan = append(plan, LineReceipt{Sequence: l.Sequence, Quantity: qty})
	}
	if total.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	return plan, nil
}

// ApplyReceipt acumula lo recibido y pasa a received cuando todas las líneas están completas.
func (t *StockTransfer) ApplyReceipt(plan []LineReceipt, by string, at time.Time, now time.Time) error {
	if t.Status != TransferStatusShipped {
		return &domain.TransitionError{From: t.Status, Command: "receive"}
	}
	for _, r := range plan {
		l, ok := t.Line(r.Sequence)
		if !ok {
			return &domain.LineError{Err: domain.ErrInvalidInput, Line: r.Sequence}
		}
		if r.Quantity.IsNegative() || r.Quantity.GreaterThan(l.Outstanding()) {
			return &domain.LineError{Err: domain.ErrOverReceipt, Line: r.Sequence, Requested: r.Quantity, Outstanding: l.Outstanding()}
		}
		l.QuantityReceived = l.QuantityReceived.Add(r.Quantity)
	}
	t.ReceivedBy = by
	t.ReceivedDate = &at
	t.UpdatedAt = now
	if t.allLinesReceived() {
		t.Status = TransferStatusReceived
	}
	return nil
}

// Cancel created -> cancelled. Tras el despacho se rechaza: no hay reversión implícita.
func (t *StockTransfer) Cancel(now time.Time) error {
	if t.Status != TransferStatusCreated {
		return &domain.TransitionError{From: t.Status, Command: "cancel"}
	}
	t.Status = TransferStatusCancelled
	t.UpdatedAt = now
	return nil
}

// IsTerminal indica cancelled o received.
func (t *StockTransfer) IsTerminal() bool {
	return t.Status == TransferStatusCancelled || t.Status == TransferStatusReceived
}

func (t *StockTransfer) allLinesReceived() bool {
	for i := range t.Lines {
		if !t.Lines[i].FullyReceived() {
			return false
		}
	}
	return len(t.Lines) > 0
}

// ReceiptProgress clasifica el avance de recepción a partir de las líneas.
func (t *StockTransfer) ReceiptProgress() string {
	if t.allLinesReceived() {
		return ReceiptFullyReceived
	}
	for i := range t.Lines {
		if t.Lines[i].QuantityReceived.IsPositive() {
			return ReceiptPartiallyReceived
		}
	}
	return ReceiptPending
}

// DisplayStatus es el estado para consulta: un traslado despachado con recepción parcial
// se muestra como partially_received aunque su estado persistido siga siendo shipped.
func (t *StockTransfer) DisplayStatus() string {
	if t.Status == TransferStatusShipped && t.ReceiptProgress() == ReceiptPartiallyReceived {
		return ReceiptPartiallyReceived
	}
	return t.Status
}

// Clone copia profunda (las líneas no se comparten).
func (t *StockTransfer) Clone() *StockTransfer {
	c := *t
	c.Lines = append([]StockTransferLine(nil), t.Lines...)
	return &c
}

// IsValidTransferStatus indica si s es un estado persistible.
func IsValidTransferStatus(s string) bool {
	switch s {
	case TransferStatusCreated, TransferStatusShipped, TransferStatusReceived, TransferStatusCancelled:
		return true
	}
	return false
}
