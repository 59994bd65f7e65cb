//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/cocursor/backend/internal/application"
	"github.com/cocursor/backend/internal/infrastructure"
	"github.com/cocursor/backend/internal/interfaces"
	"github.com/google/wire"
)

// InitializeAll wires the full daemon: the fsbuild domain core, its fsrt
// collaborators, the watcher, the HTTP/MCP interfaces, and the App that
// ties their lifecycles together.
func InitializeAll() (*App, error) {
	wire.Build(
		infrastructure.ProviderSet,
		application.ProviderSet,
		interfaces.ProviderSet,
		NewApp,
	)
	return nil, nil
}
