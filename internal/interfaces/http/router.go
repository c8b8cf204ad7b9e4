package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jhoicas/stock-transfer-api/internal/application/inventory"
	"github.com/jhoicas/stock-transfer-api/internal/application/usecase"
	"github.com/jhoicas/stock-transfer-api/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	SiteUC     *usecase.SiteUseCase
	TransferUC *inventory.TransferUseCase
	StockUC    *inventory.StockUseCase
	// ReplenishmentUC es opcional; sin él no se registra /api/stock/replenishment.
	ReplenishmentUC *inventory.ReplenishmentUseCase
	// Idempotency es opcional; sin store los reintentos no se deduplican.
	Idempotency    IdempotencyStore
	IdempotencyTTL time.Duration
	// Metrics expone /metrics cuando no es nil.
	Metrics   prometheus.Gatherer
	JWTSecret string
	JWTIssuer string
	Log       *logger.Logger
	AppName   string
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		resp := fiber.Map{"status": "ok", "service": deps.AppName}
		if p, ok := deps.Idempotency.(pinger); ok {
			if err := p.Ping(c.UserContext()); err != nil {
				log.Warn().Err(err).Msg("redis no responde")
				resp["status"], resp["redis"] = "degraded", "down"
				return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
			}
			resp["redis"] = "up"
		}
		return c.JSON(resp)
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer), Idempotency(deps.Idempotency, deps.IdempotencyTTL, log))

	anyRole := RequireRole(RoleAdmin, RoleOperator, RoleAuditor)
	adminOnly := RequireRole(RoleAdmin)
	writers := RequireRole(RoleAdmin, RoleOperator)

	// Sedes y ubicaciones
	sites := api.Group("/sites")
	siteHandler := NewSiteHandler(deps.SiteUC, log)
	sites.Get("/", anyRole, siteHandler.List)
	sites.Get("/:id", anyRole, siteHandler.GetByID)
	sites.Post("/", adminOnly, siteHandler.Create)
	sites.Delete("/:id", adminOnly, siteHandler.Delete)
	sites.Post("/:id/locations", adminOnly, siteHandler.AddLocation)

	// Traslados
	transfers := api.Group("/transfers")
	transferHandler := NewTransferHandler(deps.TransferUC, log)
	transfers.Get("/", anyRole, transferHandler.List)
	transfers.Get("/:id", anyRole, transferHandler.GetByID)
	transfers.Post("/", writers, transferHandler.Create)
	transfers.Put("/:id/lines", writers, transferHandler.UpdateLines)
	transfers.Post("/:id/ship", writers, transferHandler.Ship)
	transfers.Post("/:id/receive", writers, transferHandler.Receive)
	transfers.Post("/:id/cancel", writers, transferHandler.Cancel)

	// Stock: saldos, ajustes, reservas, niveles, movimientos, conciliación y reposición
	stock := api.Group("/stock")
	stockHandler := NewStockHandler(deps.StockUC, deps.ReplenishmentUC, log)
	stock.Get("/", anyRole, stockHandler.List)
	stock.Get("/item", anyRole, stockHandler.Get)
	stock.Get("/movements", anyRole, stockHandler.Movements)
	stock.Get("/reconciliation", anyRole, stockHandler.Reconcile)
	stock.Post("/adjustments", writers, stockHandler.Adjust)
	stock.Post("/reservations", writers, stockHandler.Reserve)
	stock.Put("/levels", writers, stockHandler.SetLevels)
	if deps.ReplenishmentUC != nil {
		stock.Get("/replenishment", anyRole, stockHandler.Replenishment)
	}
}
