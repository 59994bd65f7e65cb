package handler

import "github.com/google/wire"

// ProviderSet is the HTTP handler layer's ProviderSet.
var ProviderSet = wire.NewSet(
	NewFSBuildHandler,
)
