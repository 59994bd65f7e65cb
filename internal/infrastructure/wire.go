package infrastructure

import (
	"github.com/cocursor/backend/internal/infrastructure/config"
	"github.com/cocursor/backend/internal/infrastructure/fsrt"
	"github.com/cocursor/backend/internal/infrastructure/storage"
	"github.com/cocursor/backend/internal/infrastructure/watcher"
	"github.com/cocursor/backend/internal/infrastructure/websocket"
	"github.com/google/wire"
)

// ProviderSet is the infrastructure layer's total ProviderSet.
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	websocket.ProviderSet,
	storage.ProviderSet,
	watcher.ProviderSet,
	fsrt.ProviderSet,
)
