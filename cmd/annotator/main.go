package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fabric-annotator/internal/annotator/handlers"
	"fabric-annotator/internal/annotator/repository"
	"fabric-annotator/internal/annotator/service"
	"fabric-annotator/internal/common/config"
	"fabric-annotator/internal/common/health"
	"fabric-annotator/internal/common/logging"
	"fabric-annotator/internal/common/middleware"
)

// ============================================================
// Annotator Service
// ============================================================

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "annotator: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.AnnotatorPort)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background()); err != nil {
		return fmt.Errorf("init db: %w", err)
	}

	sessions := service.NewSessionManager(cfg.SessionTTL, log.Named("sessions"))
	labels := service.NewLabelStorage(cfg.LabelsDir)
	annotator := handlers.NewAnnotatorHandler(repo, sessions, labels, log.Named("http"), handlers.Options{
		EdgeThreshold: cfg.EdgeThreshold,
		HistoryLimit:  cfg.HistoryLimit,
		MinConfidence: cfg.MinConfidence,
	})

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Fabric Annotator",
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

	probes := health.NewProbes(map[string]health.Check{"db": repo.Ping})
	probes.Register(app)

	// ============================================================
	// Annotator Routes
	// ============================================================

	annotator.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	addr := fmt.Sprintf(":%s", cfg.Port)

	g.Go(func() error {
		log.Info("starting annotator",
			zap.String("addr", addr),
			zap.String("env", cfg.Environment),
			zap.String("db", cfg.DBPath))
		probes.MarkStarted()
		return app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	})
	g.Go(func() error {
		return sessions.Run(ctx, time.Minute)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
