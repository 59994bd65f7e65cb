package watcher

import (
	"github.com/cocursor/backend/internal/domain/events"
	"github.com/cocursor/backend/internal/infrastructure/config"
	"github.com/google/wire"
)

// ProviderSet is the watcher package's ProviderSet.
var ProviderSet = wire.NewSet(
	ProvideEventBus,
	ProvideFileWatcher,
)

// ProvideEventBus provides the process-wide event bus instance.
func ProvideEventBus() events.EventBus {
	return NewEventBus()
}

// ProvideFileWatcher provides the file watcher, tuned from the daemon's
// fsbuild configuration. Roots are populated by the caller from the
// project's registered build roots before Start is called.
func ProvideFileWatcher(fsbuildConfig *config.FSBuildConfig, eventBus events.EventBus) (*FileWatcher, error) {
	watchConfig := DefaultWatchConfig()
	if fsbuildConfig.DebounceDelay > 0 {
		watchConfig.DebounceDelay = fsbuildConfig.DebounceDelay
	}
	if fsbuildConfig.FullScanThreshold > 0 {
		watchConfig.FullScanThreshold = fsbuildConfig.FullScanThreshold
	}
	return NewFileWatcher(watchConfig, eventBus)
}
