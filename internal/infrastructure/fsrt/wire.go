package fsrt

import (
	"database/sql"

	"github.com/google/wire"

	"github.com/cocursor/backend/internal/domain/fsbuild"
	"github.com/cocursor/backend/internal/infrastructure/config"
)

// ProviderSet is the fsrt infrastructure layer's ProviderSet.
var ProviderSet = wire.NewSet(
	ProvideStampStore,
	ProvideRootIndex,
	ProvideTargetRegistry,
	ProvidePersistence,
	ProvideFileSystem,
	wire.Bind(new(fsbuild.FileSystem), new(*OSFileSystem)),
)

// ProvideFileSystem returns the local-disk FileSystem implementation.
func ProvideFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

// ProvideStampStore builds the SQLite-backed stamp store on db.
func ProvideStampStore(db *sql.DB) (*StampStore, error) {
	return NewStampStore(db)
}

// ProvideRootIndex returns a fresh, empty root index. Build roots are
// registered onto it as the project's modules are discovered.
func ProvideRootIndex() *RootIndex {
	return NewRootIndex()
}

// ProvideTargetRegistry returns an empty target registry. Modules are
// added to it as they are registered.
func ProvideTargetRegistry() *TargetRegistry {
	return NewTargetRegistry(nil)
}

// ProvidePersistence returns the state persistence rooted at the daemon's
// data directory.
func ProvidePersistence() *Persistence {
	return NewPersistence(config.GetDataDir())
}
