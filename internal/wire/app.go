package wire

import (
	"database/sql"

	"log/slog"

	appfsbuild "github.com/cocursor/backend/internal/application/fsbuild"
	"github.com/cocursor/backend/internal/domain/events"
	"github.com/cocursor/backend/internal/infrastructure/config"
	applog "github.com/cocursor/backend/internal/infrastructure/log"
	"github.com/cocursor/backend/internal/infrastructure/watcher"
	"github.com/cocursor/backend/internal/infrastructure/websocket"
	"github.com/cocursor/backend/internal/interfaces"
)

// App composes every long-running service the daemon runs.
type App struct {
	HTTPServer *interfaces.HTTPServer
	MCPServer  *interfaces.MCPServer

	fsbuildConfig *config.FSBuildConfig
	fsbuildSvc    *appfsbuild.Service
	eventBus      events.EventBus
	fileWatcher   *watcher.FileWatcher
	wsHub         *websocket.Hub
	db            *sql.DB
	logger        *slog.Logger
}

// NewApp wires the daemon's services together. The watcher's roots are
// populated from fsbuildConfig's registered modules before it starts.
func NewApp(
	httpServer *interfaces.HTTPServer,
	mcpServer *interfaces.MCPServer,
	fsbuildConfig *config.FSBuildConfig,
	fsbuildSvc *appfsbuild.Service,
	eventBus events.EventBus,
	fileWatcher *watcher.FileWatcher,
	wsHub *websocket.Hub,
	db *sql.DB,
) *App {
	return &App{
		HTTPServer:    httpServer,
		MCPServer:     mcpServer,
		fsbuildConfig: fsbuildConfig,
		fsbuildSvc:    fsbuildSvc,
		eventBus:      eventBus,
		fileWatcher:   fileWatcher,
		wsHub:         wsHub,
		db:            db,
		logger:        applog.NewModuleLogger("app", "main"),
	}
}

// Start registers every configured module's build root, subscribes the
// fsbuild service to the watcher's events, and brings up the watcher, the
// websocket hub, and the HTTP server.
func (a *App) Start() error {
	a.logger.Info("starting cocursor daemon")

	var roots []string
	for _, m := range a.fsbuildConfig.Modules {
		a.fsbuildSvc.RegisterModule(m.Name, m.RootDir)
		roots = append(roots, m.RootDir)
	}
	a.fileWatcher.SetRoots(roots)

	if err := a.fsbuildSvc.Start(a.eventBus); err != nil {
		a.logger.Error("failed to start fsbuild service", "error", err)
		return err
	}

	if err := a.fileWatcher.Start(); err != nil {
		a.logger.Error("failed to start file watcher", "error", err)
	} else {
		a.logger.Info("file watcher started", "roots", len(roots))
	}

	a.wsHub.Start()

	go func() {
		if err := a.HTTPServer.Start(); err != nil {
			a.logger.Error("failed to start HTTP server", "error", err)
		}
	}()

	a.logger.Info("cocursor daemon started")
	return nil
}

// Stop persists fsbuild state and shuts every service down.
func (a *App) Stop() error {
	a.logger.Info("stopping cocursor daemon")

	a.fileWatcher.Stop()

	if err := a.fsbuildSvc.Stop(); err != nil {
		a.logger.Error("failed to persist fsbuild state", "error", err)
	}

	if a.eventBus != nil {
		a.eventBus.Close()
	}

	if err := a.HTTPServer.Stop(); err != nil {
		a.logger.Error("failed to stop HTTP server", "error", err)
		return err
	}
	if err := a.MCPServer.Stop(); err != nil {
		a.logger.Error("failed to stop MCP server", "error", err)
		return err
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close database connection", "error", err)
			return err
		}
	}

	a.logger.Info("cocursor daemon stopped")
	return nil
}
