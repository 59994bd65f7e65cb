package config

import "github.com/google/wire"

// ProviderSet is the config package's ProviderSet.
var ProviderSet = wire.NewSet(
	NewConfig,
	NewDatabaseConfig,
	NewServerConfig,
	NewFSBuildConfig,
)
