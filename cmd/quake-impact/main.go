package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mr1hm/go-quake-impact/internal/api"
	"github.com/mr1hm/go-quake-impact/internal/catalog"
	"github.com/mr1hm/go-quake-impact/internal/config"
	"github.com/mr1hm/go-quake-impact/internal/ingestion"
	"github.com/mr1hm/go-quake-impact/internal/logging"
	"github.com/mr1hm/go-quake-impact/internal/observability"
	"github.com/mr1hm/go-quake-impact/internal/publish"
	"github.com/mr1hm/go-quake-impact/internal/repository"
	"github.com/mr1hm/go-quake-impact/internal/scenario"
	"github.com/mr1hm/go-quake-impact/internal/stream"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	if dir := filepath.Dir(cfg.DB.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logging.Fatalf("Failed to create database directory: %v", err)
		}
	}
	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	// Create broadcaster for SSE streaming
	broadcaster := stream.NewBroadcaster(stream.DefaultBuffer)

	opts := []scenario.Option{
		scenario.WithBroadcaster(broadcaster),
		scenario.WithMetrics(metrics),
		scenario.WithWorkers(cfg.Worker.BatchWorkers),
	}
	var publisher *publish.KafkaPublisher
	if cfg.Kafka.Enabled {
		publisher = publish.NewKafkaPublisher(publish.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), nil)
		opts = append(opts, scenario.WithPublisher(publisher))
		slog.Info("kafka publishing enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	svc := scenario.NewService(catalog.Buildings(), db, opts...)

	// Start ingestion manager
	mgr := ingestion.NewManager(cfg, db, svc, metrics)
	mgr.Start(ctx)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(svc, db, db, broadcaster, metrics)
	router := api.NewRouter(handler, cfg.Server.RateLimitRPS)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	mgr.Stop()
	broadcaster.Close() // Ends open SSE streams

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			slog.Error("kafka writer close error", "error", err)
		}
	}

	slog.Info("shutdown complete")
}
