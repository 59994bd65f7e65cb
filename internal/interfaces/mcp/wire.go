package mcp

import "github.com/google/wire"

// ProviderSet is the MCP interface layer's ProviderSet.
var ProviderSet = wire.NewSet(
	NewServer,
)
