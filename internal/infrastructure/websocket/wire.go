package websocket

import "github.com/google/wire"

// ProviderSet is the websocket hub's ProviderSet.
var ProviderSet = wire.NewSet(
	NewHub,
)
