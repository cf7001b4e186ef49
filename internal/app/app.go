package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/refyne-backend/internal/data/db"
	httpx "github.com/yungbote/refyne-backend/internal/http"
	"github.com/yungbote/refyne-backend/internal/observability"
	"github.com/yungbote/refyne-backend/internal/platform/logger"
	"github.com/yungbote/refyne-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	SSEHub   *realtime.SSEHub
	Server   *httpx.Server

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// NewLogger builds the process logger from LOG_MODE.
func NewLogger() (*logger.Logger, error) {
	log, err := logger.New(LoadLogMode())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

// OpenDB connects to the configured database and migrates the schema.
func OpenDB(log *logger.Logger, cfg Config) (*gorm.DB, error) {
	theDB, err := db.Open(log, cfg.DBDriver, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(theDB); err != nil {
		closeDB(theDB)
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return theDB, nil
}

func New(ctx context.Context, log *logger.Logger) (*App, error) {
	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	if cfg.LogMode == "production" || cfg.LogMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	theDB, err := OpenDB(log, cfg)
	if err != nil {
		_ = otelShutdown(ctx)
		return nil, err
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		closeDB(theDB)
		_ = otelShutdown(ctx)
		return nil, err
	}

	ssehub := realtime.NewSSEHub(log)
	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients, ssehub)
	handlerset := wireHandlers(theDB, log, cfg, serviceset, ssehub)

	server := httpx.NewServer(net.JoinHostPort("", cfg.Port), httpx.RouterConfig{
		Log:               log,
		ServiceName:       otelServiceName(cfg),
		AllowedOrigins:    cfg.AllowedOrigins,
		HealthHandler:     handlerset.Health,
		ProjectHandler:    handlerset.Project,
		DocumentHandler:   handlerset.Document,
		ProcessingHandler: handlerset.Processing,
		RealtimeHandler:   handlerset.Realtime,
		ChunkHandler:      handlerset.Chunk,
		TagHandler:        handlerset.Tag,
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		SSEHub:       ssehub,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches background loops: the run registry sweeper and, with Redis
// configured, the forwarder feeding bus messages into the local hub.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.Services.Registry.StartSweeper(ctx, a.Cfg.RunSweepInterval)

	if a.Clients.RunBus != nil {
		if err := a.Clients.RunBus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			return fmt.Errorf("start run bus forwarder: %w", err)
		}
		a.Log.Info("Run bus forwarder started", "channel", a.Cfg.Redis.Channel)
	}
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized")
	}
	a.Log.Info("Refyne server listening", "port", a.Cfg.Port)
	return a.Server.Run()
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx ends.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return nil
	}
	return a.Server.Shutdown(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Services.Close()
	a.Clients.Close()
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	closeDB(a.DB)
	if a.Log != nil {
		a.Log.Sync()
	}
}

func otelServiceName(cfg Config) string {
	if !cfg.Otel.Enabled {
		return ""
	}
	return cfg.Otel.ServiceName
}

func closeDB(gdb *gorm.DB) {
	if gdb == nil {
		return
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
