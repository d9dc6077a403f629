package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/skyplanhq/skyplan/internal/adapters/http"
	"github.com/skyplanhq/skyplan/internal/adapters/imagecache"
	"github.com/skyplanhq/skyplan/internal/adapters/pdf"
	"github.com/skyplanhq/skyplan/internal/adapters/staticmaps"
	"github.com/skyplanhq/skyplan/internal/core/ports"
	"github.com/skyplanhq/skyplan/internal/core/usecases"
	"github.com/skyplanhq/skyplan/internal/pkg/config"
	"github.com/skyplanhq/skyplan/internal/pkg/logging"
	"github.com/skyplanhq/skyplan/internal/pkg/progress"
	"github.com/skyplanhq/skyplan/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("skyplan-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("skyplan-api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	if cfg.Maps.APIKey == "" {
		slog.Warn("maps.api_key is empty, exports will fail against the image provider")
	}

	// Imagery pipeline: URL builder, HTTP fetcher, bounded cache
	maps := staticmaps.NewGoogle(cfg.Maps.APIKey, cfg.Maps.BaseURL)
	fetcher := staticmaps.NewHTTPFetcher(time.Duration(cfg.Maps.FetchTimeout) * time.Second)
	images, err := imagecache.NewLRU(fetcher, cfg.Cache.MaxImages)
	if err != nil {
		log.Fatalf("image cache: %v", err)
	}

	// Use cases
	routeSvc := usecases.NewRouteService()
	planSvc := usecases.NewPlanService(routeSvc, cfg.Report.CruiseSpeedKt)
	reportSvc := usecases.NewReportService(maps, images,
		func() ports.DocumentBuilder { return pdf.NewBuilder() },
		cfg.Report.CruiseSpeedKt)

	broker := progress.NewBroker()

	deps := &http.Dependencies{
		Plans:    planSvc,
		Reports:  reportSvc,
		Progress: broker,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "SkyPlan API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.skyplan.dev",
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
