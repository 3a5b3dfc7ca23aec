package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"linkbatch/internal/config"
	handlers "linkbatch/internal/http/handler"
	"linkbatch/internal/http/middleware"
	"linkbatch/internal/otel"
	"linkbatch/internal/service"
	"linkbatch/internal/storage"
	"linkbatch/internal/template"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer shutdownTracing(ctx)

	// Resolve platform templates once at startup; uploads can override
	// them in memory at runtime.
	registry := template.NewRegistry(cfg.Templates.SearchPaths())
	for _, info := range registry.List() {
		if info.Loaded {
			logger.Info("template loaded",
				zap.String("platform", string(info.Platform)),
				zap.String("source", info.Source),
				zap.Int("size", info.Size))
		} else {
			logger.Warn("template missing, runs for this platform will fail until one is uploaded",
				zap.String("platform", string(info.Platform)))
		}
	}

	promReg := prometheus.NewRegistry()
	promMW, err := middleware.NewPrometheusMiddleware(promReg)
	if err != nil {
		logger.Fatal("failed to register http metrics", zap.Error(err))
	}
	runMetrics, err := service.NewMetrics(promReg)
	if err != nil {
		logger.Fatal("failed to register run metrics", zap.Error(err))
	}

	opts := []service.Option{
		service.WithMetrics(runMetrics),
		service.WithDefaultBatchSize(cfg.DefaultBatchSize),
	}
	if cfg.MinIO.Enabled() {
		store, err := storage.NewMinIO(cfg.MinIO)
		if err != nil {
			logger.Fatal("failed to initialize object storage", zap.Error(err))
		}
		opts = append(opts, service.WithStorage(store, time.Duration(cfg.MinIO.PresignExpirySec)*time.Second))
		logger.Info("archive publishing enabled", zap.String("bucket", cfg.MinIO.Bucket))
	}

	svc := service.NewRunService(registry, logger, opts...)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    50 * 1024 * 1024, // uploads and templates are spreadsheets, not media
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger))
	app.Use(promMW.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, svc, registry)

	addr := ":" + cfg.Port
	logger.Info("starting server", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
