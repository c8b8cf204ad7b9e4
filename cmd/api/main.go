package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/stock-transfer-api/internal/application/inventory"
	"github.com/jhoicas/stock-transfer-api/internal/application/usecase"
	"github.com/jhoicas/stock-transfer-api/internal/infrastructure/memory"
	"github.com/jhoicas/stock-transfer-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/stock-transfer-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/stock-transfer-api/internal/interfaces/http"
	"github.com/jhoicas/stock-transfer-api/pkg/config"
	"github.com/jhoicas/stock-transfer-api/pkg/logger"
	"github.com/jhoicas/stock-transfer-api/pkg/metrics"
	"github.com/jhoicas/stock-transfer-api/pkg/migrate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var txRunner inventory.TxRunner
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		txRunner = memory.New()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := migrate.MaybeRun(ctx, cfg.DB, log, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		txRunner = postgres.NewTxRunner(pool)
	}

	// Idempotency-Key solo si hay Redis configurado
	var idem httpRouter.IdempotencyStore
	if cfg.Redis.Enabled() {
		store, err := infraredis.New(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer store.Close()
		idem = store
	} else {
		log.Info().Msg("REDIS no configurado: Idempotency-Key deshabilitado")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	commandMetrics := metrics.NewCommandMetrics(reg)

	siteUC := usecase.NewSiteUseCase(txRunner)
	transferUC := inventory.NewTransferUseCase(txRunner, log, commandMetrics)
	stockUC := inventory.NewStockUseCase(txRunner, log, commandMetrics)
	replenishmentUC := inventory.NewReplenishmentUseCase(txRunner)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Stock Transfer API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		SiteUC:          siteUC,
		TransferUC:      transferUC,
		StockUC:         stockUC,
		ReplenishmentUC: replenishmentUC,
		JWTSecret:       cfg.JWT.Secret,
		JWTIssuer:       cfg.JWT.Issuer,
		Idempotency:     idem,
		IdempotencyTTL:  cfg.Idempotency.TTL,
		Metrics:         reg,
		Log:             log,
		AppName:         cfg.App.Name,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
