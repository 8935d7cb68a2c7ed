package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/servora/realtime/internal/bridge"
	"github.com/servora/realtime/internal/broker"
	"github.com/servora/realtime/internal/chat"
	"github.com/servora/realtime/internal/config"
	"github.com/servora/realtime/internal/presence"
	"github.com/servora/realtime/internal/storage"
	"github.com/servora/realtime/internal/storage/sqlite"
	"github.com/servora/realtime/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// App wires the broker's components and runs the WebSocket ingress.
type App struct {
	cfg      config.Config
	log      logger.Logger
	store    storage.Store
	presence presence.Tracker
	bridge   *bridge.NATSBridge

	registry *broker.Registry
	manager  *broker.Manager
	resolver *broker.Resolver
	router   *broker.Router
	notifier *broker.Notifier
	chat     *chat.Service

	httpServer *http.Server
}

// NewApp initializes and connects all application dependencies.
func NewApp(cfg config.Config) (*App, error) {
	log := logger.NewLogger(cfg.LogLevel)

	store, err := sqlite.NewStore(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	tracker := presence.Tracker(presence.NewNoop())
	if cfg.RedisURL != "" {
		redisTracker, err := presence.NewRedisTracker(context.Background(), cfg.RedisURL)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("init presence: %w", err)
		}
		tracker = redisTracker
	}
	// A user may hold several connections; only the last close marks them
	// offline.
	tracker = presence.NewCounter(tracker)

	registry := broker.NewRegistry()
	manager := broker.NewManager(registry, cfg.SendBuffer, log)
	resolver := broker.NewResolver(registry, log)
	router := broker.NewRouter(registry, log)

	a := &App{
		cfg:      cfg,
		log:      log,
		store:    store,
		presence: tracker,
		registry: registry,
		manager:  manager,
		resolver: resolver,
		router:   router,
		notifier: broker.NewNotifier(router),
		chat:     chat.NewService(store, router, log),
	}

	if cfg.NATSURL != "" {
		instanceID := cfg.InstanceID
		if instanceID == "" {
			instanceID = uuid.NewString()
		}
		natsBridge, err := bridge.NewNATSBridge(cfg.NATSURL, instanceID, log)
		if err != nil {
			a.closeDependencies()
			return nil, fmt.Errorf("init bridge: %w", err)
		}
		if err := natsBridge.Start(router.Inject); err != nil {
			natsBridge.Close()
			a.closeDependencies()
			return nil, fmt.Errorf("start bridge: %w", err)
		}
		a.bridge = natsBridge
		router.SetBridge(natsBridge)
	}

	manager.OnOpen(func(conn *broker.Connection) {
		if err := tracker.Connected(context.Background(), conn.UserID()); err != nil {
			log.Errorf("presence connected user=%s: %v", conn.UserID(), err)
		}
	})
	manager.OnClose(func(conn *broker.Connection) {
		if err := tracker.Disconnected(context.Background(), conn.UserID()); err != nil {
			log.Errorf("presence disconnected user=%s: %v", conn.UserID(), err)
		}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", a.handleWebSocket)
	a.httpServer = &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	log.Infof("application initialized listen_addr=%s", cfg.ListenAddr)
	return a, nil
}

// Notifier returns the typed publish facade for REST mutation handlers.
func (a *App) Notifier() *broker.Notifier { return a.notifier }

// Router returns the raw event router.
func (a *App) Router() *broker.Router { return a.router }

// Run serves until the context is canceled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	if err := a.store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	a.log.Infof("broker listening on %s", a.cfg.ListenAddr)

	select {
	case <-ctx.Done():
		return a.Stop()
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

// Stop shuts down the HTTP server, drops all connections, and releases
// external clients.
func (a *App) Stop() error {
	a.log.Infof("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.log.Errorf("http shutdown: %v", err)
	}

	a.manager.CloseAll()
	a.closeDependencies()

	a.log.Infof("shutdown complete")
	return nil
}

func (a *App) closeDependencies() {
	if a.bridge != nil {
		a.bridge.Close()
	}
	if err := a.presence.Close(); err != nil {
		a.log.Errorf("close presence: %v", err)
	}
	if err := a.store.Close(); err != nil {
		a.log.Errorf("close store: %v", err)
	}
}
