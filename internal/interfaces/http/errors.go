package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-transfer-api/internal/application/dto"
	"github.com/jhoicas/stock-transfer-api/internal/domain"
	"github.com/jhoicas/stock-transfer-api/pkg/logger"
)

// stockCodes código de error por sentinel del ledger.
var stockCodes = []struct {
	err  error
	code string
}{
	{domain.ErrInsufficientStock, "INSUFFICIENT_STOCK"},
	{domain.ErrNegativeStock, "NEGATIVE_STOCK"},
	{domain.ErrOverReservation, "OVER_RESERVATION"},
	{domain.ErrOverReceipt, "OVER_RECEIPT"},
}

// respondError traduce errores de dominio a HTTP:
// 404 no encontrado, 400 entrada inválida, 409 rechazos de estado/stock/duplicados, 500 el resto.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var stockErr *domain.StockError
	if errors.As(err, &stockErr) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    sentinelCode(err),
			Message: stockErr.Error(),
			Details: map[string]any{
				"product_id":  stockErr.ProductID,
				"variant_id":  stockErr.VariantID,
				"site_id":     stockErr.SiteID,
				"location_id": stockErr.Location,
				"line":        stockErr.Line,
				"requested":   stockErr.Requested,
				"available":   stockErr.Available,
			},
		})
	}

	var lineErr *domain.LineError
	if errors.As(err, &lineErr) {
		status := fiber.StatusBadRequest
		code := "VALIDATION"
		switch {
		case errors.Is(err, domain.ErrOverReceipt):
			status, code = fiber.StatusConflict, "OVER_RECEIPT"
		case errors.Is(err, domain.ErrNotFound):
			status, code = fiber.StatusNotFound, "NOT_FOUND"
		}
		details := map[string]any{"line": lineErr.Line}
		if !lineErr.Requested.IsZero() || !lineErr.Outstanding.IsZero() {
			details["requested"] = lineErr.Requested
			details["outstanding"] = lineErr.Outstanding
		}
		return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: lineErr.Error(), Details: details})
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INVALID_TRANSITION",
			Message: trErr.Error(),
			Details: map[string]any{"status": trErr.From, "command": trErr.Command},
		})
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: err.Error()})
	}
	if code := sentinelCode(err); code != "INTERNAL" {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
	}

	log.Ctx(c.UserContext()).Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func sentinelCode(err error) string {
	for _, sc := range stockCodes {
		if errors.Is(err, sc.err) {
			return sc.code
		}
	}
	return "INTERNAL"
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind parsea el body JSON y aplica las reglas validate. Si falla ya escribió la respuesta 400
// y devuelve ok=false.
func bind(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	return check(c, out)
}

// bindOptional como bind pero acepta body vacío.
func bindOptional(c *fiber.Ctx, out any) (bool, error) {
	if len(c.Body()) == 0 {
		return true, nil
	}
	return bind(c, out)
}

func check(c *fiber.Ctx, in any) (bool, error) {
	err := validate.Struct(in)
	if err == nil {
		return true, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = fe.Tag()
	}
	return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Code:    "VALIDATION",
		Message: "datos inválidos",
		Details: map[string]any{"fields": fields},
	})
}

// fieldPath quita el nombre del struct raíz: "CreateTransferRequest.lines[0].product_id" -> "lines[0].product_id".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
