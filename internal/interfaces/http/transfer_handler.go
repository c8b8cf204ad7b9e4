package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-transfer-api/internal/application/dto"
	"github.com/jhoicas/stock-transfer-api/internal/application/inventory"
	"github.com/jhoicas/stock-transfer-api/pkg/logger"
)

// TransferHandler maneja las peticiones HTTP de traslados entre sedes (protegido).
type TransferHandler struct {
	uc  *inventory.TransferUseCase
	log *logger.Logger
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *inventory.TransferUseCase, log *logger.Logger) *TransferHandler {
	return &TransferHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear traslado
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                      false  "Clave de reintento"
// @Param        body             body    dto.CreateTransferRequest  true   "Cabecera y líneas"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	id, err := h.uc.Create(c.UserContext(), inventory.CreateTransferCommand{
		Number:                in.Number,
		SourceSiteID:          in.SourceSiteID,
		DestinationSiteID:     in.DestinationSiteID,
		SourceLocationID:      in.SourceLocationID,
		DestinationLocationID: in.DestinationLocationID,
		CreatedBy:             GetUserID(c),
		RequestedDate:         in.RequestedDate,
		Notes:                 in.Notes,
		Lines:                 lineCommands(in.Lines),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener traslado por ID
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar traslados
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        status   query  string  false  "created | shipped | received | cancelled"
// @Param        site_id  query  string  false  "Sede origen o destino"
// @Param        limit    query  int     false  "Límite"  default(20)
// @Param        offset   query  int     false  "Offset"  default(0)
// @Success      200      {object}  dto.TransferListResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	out, err := h.uc.List(c.UserContext(), c.Query("status"), c.Query("site_id"), page)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// UpdateLines godoc
// @Summary      Reemplazar líneas de un traslado (solo en created)
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "ID del traslado"
// @Param        body  body  dto.UpdateTransferLinesRequest  true  "Líneas nuevas"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/lines [put]
func (h *TransferHandler) UpdateLines(c *fiber.Ctx) error {
	var in dto.UpdateTransferLinesRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	t, err := h.uc.UpdateLines(c.UserContext(), inventory.UpdateTransferLinesCommand{
		TransferID: c.Params("id"),
		UpdatedBy:  GetUserID(c),
		Lines:      lineCommands(in.Lines),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(inventory.ToTransferResponse(t))
}

// Ship godoc
// @Summary      Despachar traslado
// @Description  Descuenta la sede origen línea a línea. Si alguna línea no tiene disponible suficiente no se aplica nada.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true   "ID del traslado"
// @Param        body  body  dto.ShipTransferRequest  false  "Fecha de despacho"
// @Success      200   {object}  dto.TransferResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/ship [post]
func (h *TransferHandler) Ship(c *fiber.Ctx) error {
	var in dto.ShipTransferRequest
	if ok, err := bindOptional(c, &in); !ok {
		return err
	}
	t, err := h.uc.Ship(c.UserContext(), inventory.ShipTransferCommand{
		TransferID:  c.Params("id"),
		ShippedBy:   GetUserID(c),
		ShippedDate: in.ShippedDate,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(inventory.ToTransferResponse(t))
}

// Receive godoc
// @Summary      Recibir traslado (total o parcial)
// @Description  received_quantities indexa por secuencia de línea; las líneas omitidas se reciben por su pendiente.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true   "ID del traslado"
// @Param        body  body  dto.ReceiveTransferRequest  false  "Cantidades recibidas"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/receive [post]
func (h *TransferHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveTransferRequest
	if ok, err := bindOptional(c, &in); !ok {
		return err
	}
	t, err := h.uc.Receive(c.UserContext(), inventory.ReceiveTransferCommand{
		TransferID:         c.Params("id"),
		ReceivedBy:         GetUserID(c),
		ReceivedDate:       in.ReceivedDate,
		ReceivedQuantities: in.ReceivedQuantities,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(inventory.ToTransferResponse(t))
}

// Cancel godoc
// @Summary      Cancelar traslado (solo antes del despacho)
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	t, err := h.uc.Cancel(c.UserContext(), inventory.CancelTransferCommand{
		TransferID:  c.Params("id"),
		CancelledBy: GetUserID(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(inventory.ToTransferResponse(t))
}

func lineCommands(in []dto.TransferLineRequest) []inventory.TransferLineCommand {
	out := make([]inventory.TransferLineCommand, 0, len(in))
	for _, l := range in {
		out = append(out, inventory.TransferLineCommand{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			Notes:     l.Notes,
		})
	}
	return out
}
