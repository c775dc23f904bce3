package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frenemies/battle-relay/api/rest"
	"github.com/frenemies/battle-relay/api/ws"
	"github.com/frenemies/battle-relay/config"
	"github.com/frenemies/battle-relay/internal/registry"
	"github.com/frenemies/battle-relay/internal/store"
	"github.com/frenemies/battle-relay/internal/websocket"
	"github.com/frenemies/battle-relay/pkg/logger"
	"github.com/frenemies/battle-relay/service"
)

// App represents the main application structure holding all dependencies.
type App struct {
	cfg        config.Config
	logger     logger.Logger
	hub        *websocket.Hub
	broker     *service.Broker
	httpServer *http.Server
	rootCtx    context.Context
	cancel     context.CancelFunc
}

// NewApp initializes and connects all application dependencies.
func NewApp(cfg config.Config) (*App, error) {
	baseLogger := logger.NewLogger(cfg.LogLevel, cfg.LogFile)
	rootCtx := logger.NewContext(context.Background(), baseLogger)
	rootCtx, rootCancel := context.WithCancel(rootCtx)

	log := logger.FromContext(rootCtx).WithModule("app")
	log.Infof("Initializing application components...")

	reg := registry.New()
	rooms := store.New(cfg.HistoryLimit)
	hub := websocket.NewHub(baseLogger.WithModule("hub"))
	broker := service.NewBroker(reg, rooms, hub, baseLogger.WithModule("broker"))

	mux := http.NewServeMux()
	ws.SetupWebSocketRoutes(mux, ws.WSConfig{
		Hub:     hub,
		Broker:  broker,
		RootCtx: rootCtx,
	})
	rest.SetupRESTRoutes(mux, rest.RESTConfig{
		Broker:  broker,
		RootCtx: rootCtx,
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: mux,
	}

	app := &App{
		cfg:        cfg,
		logger:     log,
		hub:        hub,
		broker:     broker,
		httpServer: httpServer,
		rootCtx:    rootCtx,
		cancel:     rootCancel,
	}

	log.Infof("Application initialized successfully")
	return app, nil
}

// Start runs the application and handles graceful shutdown on signal.
func (a *App) Start() error {
	log := a.logger.WithFields(map[string]interface{}{
		"addr": a.httpServer.Addr,
	})

	log.Infof("Starting application server")

	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithFields(map[string]interface{}{
				"error": err.Error(),
			}).Fatalf("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.WithFields(map[string]interface{}{
		"signal": sig.String(),
	}).Warnf("Received shutdown signal")

	return a.Stop()
}

// Stop gracefully shuts down the server and closes all connections.
func (a *App) Stop() error {
	log := a.logger.WithFields(map[string]interface{}{
		"shutdown_timeout": "5s",
	})

	log.Infof("Initiating graceful shutdown")

	a.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		log.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Errorf("HTTP server shutdown error")
	}

	log.Infof("Closing websocket connections")
	a.hub.Close()

	log.Infof("Shutdown completed successfully")
	return nil
}
