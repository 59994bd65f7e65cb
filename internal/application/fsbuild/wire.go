package fsbuild

import "github.com/google/wire"

// ProviderSet is the fsbuild application layer's ProviderSet.
var ProviderSet = wire.NewSet(
	NewService,
	ProvideFSState,
)
