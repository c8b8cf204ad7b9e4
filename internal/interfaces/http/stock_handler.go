package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-transfer-api/internal/application/dto"
	"github.com/jhoicas/stock-transfer-api/internal/application/inventory"
	"github.com/jhoicas/stock-transfer-api/internal/domain/entity"
	"github.com/jhoicas/stock-transfer-api/internal/domain/repository"
	"github.com/jhoicas/stock-transfer-api/pkg/logger"
)

// StockHandler saldos, ajustes, reservas, log de movimientos y conciliación (protegido).
type StockHandler struct {
	uc            *inventory.StockUseCase
	replenishment *inventory.ReplenishmentUseCase
	log           *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *inventory.StockUseCase, replenishment *inventory.ReplenishmentUseCase, log *logger.Logger) *StockHandler {
	return &StockHandler{uc: uc, replenishment: replenishment, log: log}
}

// List godoc
// @Summary      Saldos de una sede
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        site_id     query  string  true   "Sede"
// @Param        product_id  query  string  false  "Producto"
// @Success      200  {object}  dto.StockListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), c.Query("site_id"), c.Query("product_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Saldo de un producto en una sede/ubicación
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        site_id      query  string  true   "Sede"
// @Param        product_id   query  string  true   "Producto"
// @Param        variant_id   query  string  false  "Variante"
// @Param        location_id  query  string  false  "Ubicación"
// @Success      200  {object}  dto.StockItemResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/item [get]
func (h *StockHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), entity.StockItemKey{
		ProductID:  c.Query("product_id"),
		VariantID:  c.Query("variant_id"),
		SiteID:     c.Query("site_id"),
		LocationID: c.Query("location_id"),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Adjust godoc
// @Summary      Ajuste manual de stock físico
// @Description  quantity con signo: positiva ingresa, negativa retira. Genera un movimiento adjustment.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "Saldo, cantidad y motivo"
// @Success      201   {object}  dto.StockItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/adjustments [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.Adjust(c.UserContext(), inventory.AdjustStockCommand{
		Key:       stockKey(in.StockKeyRequest),
		Quantity:  in.Quantity,
		Reason:    in.Reason,
		CreatedBy: GetUserID(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Reserve godoc
// @Summary      Reservar o liberar stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveStockRequest  true  "Saldo y cantidad (negativa libera)"
// @Success      200   {object}  dto.StockItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/reservations [post]
func (h *StockHandler) Reserve(c *fiber.Ctx) error {
	var in dto.ReserveStockRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.Reserve(c.UserContext(), inventory.ReserveStockCommand{
		Key:      stockKey(in.StockKeyRequest),
		Quantity: in.Quantity,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Log de movimientos
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        site_id        query  string  false  "Sede"
// @Param        product_id     query  string  false  "Producto"
// @Param        document_type  query  string  false  "stock_transfer | stock_adjustment"
// @Param        document_id    query  string  false  "Documento relacionado"
// @Param        limit          query  int     false  "Límite"  default(20)
// @Param        offset         query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/stock/movements [get]
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	out, err := h.uc.Movements(c.UserContext(), repository.MovementFilter{
		SiteID:       c.Query("site_id"),
		ProductID:    c.Query("product_id"),
		DocumentType: c.Query("document_type"),
		DocumentID:   c.Query("document_id"),
		Limit:        c.QueryInt("limit", 20),
		Offset:       c.QueryInt("offset", 0),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Conciliar saldos contra el log de movimientos
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        site_id  query  string  true  "Sede"
// @Success      200  {object}  dto.ReconciliationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/reconciliation [get]
func (h *StockHandler) Reconcile(c *fiber.Ctx) error {
	out, err := h.uc.Reconcile(c.UserContext(), c.Query("site_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// SetLevels godoc
// @Summary      Fijar mínimo, máximo y punto de reorden
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SetStockLevelsRequest  true  "Saldo y niveles"
// @Success      200   {object}  dto.StockItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/levels [put]
func (h *StockHandler) SetLevels(c *fiber.Ctx) error {
	var in dto.SetStockLevelsRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.SetLevels(c.UserContext(), inventory.SetStockLevelsCommand{
		Key:          stockKey(in.StockKeyRequest),
		MinStock:     in.MinStock,
		MaxStock:     in.MaxStock,
		ReorderPoint: in.ReorderPoint,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Replenishment godoc
// @Summary      Sugerencias de reposición por traslado
// @Description  Saldos de la sede bajo punto de reorden, cantidad sugerida y sedes con excedente.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        site_id  query  string  true  "Sede a reponer"
// @Success      200  {object}  dto.ReplenishmentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/replenishment [get]
func (h *StockHandler) Replenishment(c *fiber.Ctx) error {
	out, err := h.replenishment.Suggest(c.UserContext(), c.Query("site_id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

func stockKey(in dto.StockKeyRequest) entity.StockItemKey {
	return entity.StockItemKey{
		ProductID:  in.ProductID,
		VariantID:  in.VariantID,
		SiteID:     in.SiteID,
		LocationID: in.LocationID,
	}
}
