package storage

import "github.com/google/wire"

// ProviderSet is the storage layer's ProviderSet.
var ProviderSet = wire.NewSet(
	ProvideDB,
)
