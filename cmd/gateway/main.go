package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"fabric-annotator/internal/common/config"
	"fabric-annotator/internal/common/health"
	"fabric-annotator/internal/common/logging"
	"fabric-annotator/internal/common/middleware"
	"fabric-annotator/internal/gateway/handlers"
	"fabric-annotator/internal/gateway/proxy"
)

// ============================================================
// API Gateway
// ============================================================

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.GatewayPort)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "API Gateway",
		ErrorHandler: middleware.ErrorHandler(log),
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(middleware.Recover(log))
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.Environment, cfg.AllowedOrigins))

	// ============================================================
	// Health Check Routes
	// ============================================================

	probes := health.NewProbes(map[string]health.Check{
		"annotator": upstreamCheck(cfg.AnnotatorURL + "/health/live"),
	})
	probes.Register(app)

	app.Get("/docs", handlers.SwaggerUI)
	app.Get("/docs/openapi.yaml", handlers.SwaggerSpec)

	// ============================================================
	// API Routes
	// ============================================================

	api := app.Group("/api/v1")

	api.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Fabric Annotator API v1",
			"status":  "ok",
		})
	})

	// ============================================================
	// Service Routes (Proxy)
	// ============================================================

	px := proxy.New(nil, log.Named("proxy"))
	px.Mount(api, "/images", "/api/v1", cfg.AnnotatorURL)
	px.Mount(api, "/sessions", "/api/v1", cfg.AnnotatorURL)

	// ============================================================
	// Server Start
	// ============================================================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Info("starting gateway",
		zap.String("addr", addr),
		zap.String("env", cfg.Environment),
		zap.String("annotator", cfg.AnnotatorURL))
	probes.MarkStarted()

	return app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

func upstreamCheck(url string) health.Check {
	client := &http.Client{Timeout: 2 * time.Second}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	}
}
