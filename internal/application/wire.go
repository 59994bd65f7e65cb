package application

import (
	"github.com/cocursor/backend/internal/application/fsbuild"
	"github.com/google/wire"
)

// ProviderSet is the application layer's total ProviderSet.
var ProviderSet = wire.NewSet(
	fsbuild.ProviderSet,
)
