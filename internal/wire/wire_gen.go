// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package wire

import (
	"github.com/cocursor/backend/internal/application/fsbuild"
	"github.com/cocursor/backend/internal/infrastructure/config"
	"github.com/cocursor/backend/internal/infrastructure/fsrt"
	"github.com/cocursor/backend/internal/infrastructure/storage"
	"github.com/cocursor/backend/internal/infrastructure/watcher"
	"github.com/cocursor/backend/internal/infrastructure/websocket"
	"github.com/cocursor/backend/internal/interfaces/http"
	"github.com/cocursor/backend/internal/interfaces/http/handler"
	"github.com/cocursor/backend/internal/interfaces/mcp"
)

// Injectors from wire.go:

// InitializeAll wires the full daemon: the fsbuild domain core, its fsrt
// collaborators, the watcher, the HTTP/MCP interfaces, and the App that
// ties their lifecycles together.
func InitializeAll() (*App, error) {
	configConfig := config.NewConfig()
	fsBuildConfig := config.NewFSBuildConfig(configConfig)
	fsState := fsbuild.ProvideFSState(fsBuildConfig)
	targetRegistry := fsrt.ProvideTargetRegistry()
	rootIndex := fsrt.ProvideRootIndex()
	db, err := storage.ProvideDB()
	if err != nil {
		return nil, err
	}
	stampStore, err := fsrt.ProvideStampStore(db)
	if err != nil {
		return nil, err
	}
	osFileSystem := fsrt.ProvideFileSystem()
	persistence := fsrt.ProvidePersistence()
	hub := websocket.NewHub()
	service := fsbuild.NewService(fsState, targetRegistry, rootIndex, stampStore, osFileSystem, persistence, hub)
	fsBuildHandler := handler.NewFSBuildHandler(service)
	mcpServer := mcp.NewServer(service)
	v := http.NewServer(fsBuildHandler, mcpServer, hub)
	eventBus := watcher.ProvideEventBus()
	fileWatcher, err := watcher.ProvideFileWatcher(fsBuildConfig, eventBus)
	if err != nil {
		return nil, err
	}
	app := NewApp(v, mcpServer, fsBuildConfig, service, eventBus, fileWatcher, hub, db)
	return app, nil
}
