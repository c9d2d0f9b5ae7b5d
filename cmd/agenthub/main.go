// Package main is the entry point for the AgentHub server.
// A single binary runs the coordination hub: the HTTP API, the websocket
// push transport, the shared filesystem watcher, and durable storage.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agenthub/agenthub/internal/common/config"
	"github.com/agenthub/agenthub/internal/common/httpmw"
	"github.com/agenthub/agenthub/internal/common/logger"
	"github.com/agenthub/agenthub/internal/events/bus"
	gateway "github.com/agenthub/agenthub/internal/gateway/websocket"
	"github.com/agenthub/agenthub/internal/hub/handlers"
	"github.com/agenthub/agenthub/internal/hub/notifier"
	"github.com/agenthub/agenthub/internal/hub/service"
	"github.com/agenthub/agenthub/internal/hub/state"
	"github.com/agenthub/agenthub/internal/hub/store"
	"github.com/agenthub/agenthub/internal/sharedfs"
	"github.com/agenthub/agenthub/internal/tracing"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger (stdout plus file sinks under the data dir)
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Dir:    cfg.Data.Dir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	log.Info("Starting AgentHub",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("shared_dir", cfg.Shared.Dir),
		zap.String("data_dir", cfg.Data.Dir))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ============================================
	// EVENT BUS (NATS when configured, in-memory otherwise)
	// ============================================
	var eventBus bus.EventBus
	if cfg.NATS.URL != "" {
		natsBus, err := bus.NewNATSEventBus(cfg.NATS, log)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		eventBus = natsBus
		log.Info("Connected to NATS", zap.String("url", cfg.NATS.URL))
	} else {
		eventBus = bus.NewMemoryEventBus(log)
		log.Info("Using in-memory event bus")
	}
	defer eventBus.Close()

	// ============================================
	// STORAGE AND HUB STATE
	// ============================================
	repo, err := store.NewSQLiteStore(filepath.Join(cfg.Data.Dir, "agenthub.db"))
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	hubState := state.New(repo, log)
	if err := hubState.Hydrate(ctx); err != nil {
		log.Fatal("Failed to hydrate state from database", zap.Error(err))
	}
	log.Info("State hydrated", zap.Int("rooms", len(hubState.RoomNames())))

	// ============================================
	// SHARED FILESYSTEM
	// ============================================
	files, err := sharedfs.New(cfg.Shared.Dir)
	if err != nil {
		log.Fatal("Failed to initialize shared directory", zap.Error(err))
	}

	watcher, err := sharedfs.NewWatcher(files, eventBus, log)
	if err != nil {
		log.Fatal("Failed to start file watcher", zap.Error(err))
	}

	// ============================================
	// SERVICES
	// ============================================
	notify := notifier.New(hubState, repo, eventBus, log)
	svc := service.New(hubState, repo, notify, eventBus, files.Root(), log)

	fanoutSub, err := svc.StartFileFanout()
	if err != nil {
		log.Fatal("Failed to subscribe to file changes", zap.Error(err))
	}
	defer func() { _ = fanoutSub.Unsubscribe() }()

	// ============================================
	// PUSH SESSIONS
	// ============================================
	pushHub := gateway.NewHub(hubState, eventBus, log)

	// ============================================
	// HTTP SERVER (API + WebSocket)
	// ============================================
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = tracing.Shutdown(shutdownCtx)
	}()

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(httpmw.RequestLogger(log, "agenthub"))
	router.Use(httpmw.OtelTracing("agenthub"))

	handlers.New(svc, files, log).RegisterRoutes(router)
	gateway.NewHandler(pushHub, log).RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "agenthub",
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// ============================================
	// RUN UNTIL SIGNALLED
	// ============================================
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		pushHub.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		return watcher.Run(groupCtx)
	})
	group.Go(func() error {
		log.Info("AgentHub listening", zap.String("addr", cfg.Server.Addr()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("Shutting down AgentHub...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("AgentHub exited with error", zap.Error(err))
	}
	log.Info("AgentHub stopped")
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version, Sec-WebSocket-Protocol")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
