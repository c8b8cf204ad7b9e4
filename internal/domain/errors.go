package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInvalidTransition = errors.New("transición de estado inválida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrNegativeStock     = errors.New("el stock físico no puede ser negativo")
	ErrOverReservation   = errors.New("la reserva excede el stock físico")
	ErrOverReceipt       = errors.New("la cantidad recibida excede la pendiente")
)

// StockError detalla qué saldo habría violado un invariante del ledger.
// Line es la secuencia de la línea de traslado que lo provocó (0 si no aplica).
type StockError struct {
	Err       error
	ProductID string
	VariantID string
	SiteID    string
	Location  string
	Line      int
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *StockError) Error() string {
	msg := fmt.Sprintf("%s: producto %s en sitio %s (solicitado %s, disponible %s)",
		e.Err, e.ProductID, e.SiteID, e.Requested.String(), e.Available.String())
	if e.Line > 0 {
		msg += fmt.Sprintf(", línea %d", e.Line)
	}
	return msg
}

func (e *StockError) Unwrap() error { return e.Err }

// LineError asocia un error de validación a una línea de traslado.
type LineError struct {
	Err         error
	Line        int
	Requested   decimal.Decimal
	Outstanding decimal.Decimal
}

func (e *LineError) Error() string {
	if e.Requested.IsZero() && e.Outstanding.IsZero() {
		return fmt.Sprintf("%s: línea %d", e.Err, e.Line)
	}
	return fmt.Sprintf("%s: línea %d (solicitado %s, pendiente %s)",
		e.Err, e.Line, e.Requested.String(), e.Outstanding.String())
}

func (e *LineError) Unwrap() error { return e.Err }

// TransitionError indica el estado actual y el comando rechazado.
type TransitionError struct {
	From    string
	Command string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s no permitido en estado %s", ErrInvalidTransition, e.Command, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
