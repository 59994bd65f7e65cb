package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cocursor/backend/internal/domain/events"
	"github.com/cocursor/backend/internal/infrastructure/log"
	"github.com/fsnotify/fsnotify"
)

// WatchConfig configures a FileWatcher.
type WatchConfig struct {
	// Roots are the build-root directories to watch, recursively.
	Roots []string
	// DebounceDelay coalesces bursts of events for the same path (editors
	// routinely emit several writes per keystroke-triggered autosave).
	DebounceDelay time.Duration
	// FullScanThreshold triggers a full re-scan on startup when the last
	// recorded scan is older than this, to catch changes made while the
	// daemon wasn't running to receive fsnotify events for them.
	FullScanThreshold time.Duration
}

// DefaultWatchConfig returns sane defaults. Roots is left empty; callers
// populate it from the project's build root descriptors before Start.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		DebounceDelay:     500 * time.Millisecond,
		FullScanThreshold: 24 * time.Hour,
	}
}

// FileWatcher watches a set of build root directories and publishes
// FileDirty/FileDeleted events for changes under them.
type FileWatcher struct {
	config   WatchConfig
	eventBus events.EventBus
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	stopCh chan struct{}
	wg     sync.WaitGroup

	metadata *ScanMetadata
}

// NewFileWatcher creates a watcher over config.Roots.
func NewFileWatcher(config WatchConfig, eventBus events.EventBus) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		config:         config,
		eventBus:       eventBus,
		watcher:        watcher,
		logger:         log.NewModuleLogger("watcher", "file_watcher"),
		debounceTimers: make(map[string]*time.Timer),
		stopCh:         make(chan struct{}),
		metadata:       NewScanMetadata(),
	}, nil
}

// SetRoots replaces the set of build-root directories to watch. Call
// before Start; it has no effect on an already-running watcher.
func (fw *FileWatcher) SetRoots(roots []string) {
	fw.config.Roots = roots
}

// Start performs a full scan if one is due, registers fsnotify watches on
// every root and its subdirectories, and begins dispatching events.
func (fw *FileWatcher) Start() error {
	fw.logger.Info("starting file watcher", "roots", fw.config.Roots)

	if fw.needsFullScan() {
		fw.logger.Info("performing full scan on startup")
		fw.performFullScan()
	}

	if err := fw.addWatchDirs(); err != nil {
		return err
	}

	fw.wg.Add(1)
	go fw.watchLoop()

	return nil
}

// Stop tears down the watcher and waits for its event loop to exit.
func (fw *FileWatcher) Stop() {
	fw.logger.Info("stopping file watcher")

	close(fw.stopCh)
	fw.watcher.Close()
	fw.wg.Wait()

	fw.debounceMu.Lock()
	for _, timer := range fw.debounceTimers {
		timer.Stop()
	}
	fw.debounceMu.Unlock()

	fw.logger.Info("file watcher stopped")
}

func (fw *FileWatcher) needsFullScan() bool {
	lastScan := fw.metadata.GetLastScanTime()
	if lastScan.IsZero() {
		fw.logger.Info("no previous scan found, full scan required")
		return true
	}

	elapsed := time.Since(lastScan)
	if elapsed > fw.config.FullScanThreshold {
		fw.logger.Info("last scan too old, full scan required",
			"last_scan", lastScan, "elapsed", elapsed, "threshold", fw.config.FullScanThreshold)
		return true
	}

	fw.logger.Info("recent scan found, skipping full scan", "last_scan", lastScan, "elapsed", elapsed)
	return false
}

// performFullScan walks every root and publishes a FileDirty event for
// each regular file found, then a RootScannedEvent for the root. The
// application layer marks every one of those files dirty; their stamps
// are not compared against the stamp store first, so files unchanged
// since the last run are marked dirty as well.
func (fw *FileWatcher) performFullScan() {
	startTime := time.Now()
	total := 0

	for _, root := range fw.config.Roots {
		count := fw.scanRoot(root)
		total += count
		fw.eventBus.Publish(&events.RootScannedEvent{
			ModuleName: filepath.Base(root),
			RootDir:    root,
			FileCount:  count,
			EventTime:  time.Now(),
		})
	}

	fw.metadata.SetLastScanTime(time.Now())
	fw.logger.Info("full scan completed", "files", total, "duration", time.Since(startTime))
}

func (fw *FileWatcher) scanRoot(root string) int {
	count := 0
	if root == "" {
		return count
	}

	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		fw.eventBus.Publish(&events.FileSystemEvent{
			EventType:  events.FileDirty,
			FilePath:   path,
			ModuleName: filepath.Base(root),
			EventTime:  time.Now(),
		})
		count++
		return nil
	})
	return count
}

// addWatchDirs registers every root and its subdirectories with fsnotify.
func (fw *FileWatcher) addWatchDirs() error {
	for _, root := range fw.config.Roots {
		if root == "" {
			continue
		}
		if err := fw.addDirRecursive(root); err != nil {
			fw.logger.Warn("failed to add root to watch", "root", root, "error", err)
		}
	}
	return nil
}

func (fw *FileWatcher) addDirRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if err := fw.watcher.Add(path); err != nil {
			fw.logger.Debug("failed to add directory to watch", "path", path, "error", err)
		} else {
			fw.logger.Debug("added directory to watch", "path", path)
		}
		return nil
	})
}

func (fw *FileWatcher) watchLoop() {
	defer fw.wg.Done()

	for {
		select {
		case <-fw.stopCh:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) handleFsEvent(event fsnotify.Event) {
	root := fw.rootOf(event.Name)
	if root == "" {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fw.watcher.Add(event.Name); err != nil {
				fw.logger.Debug("failed to add new directory to watch", "path", event.Name, "error", err)
			}
			return
		}
	}

	fw.handleFileEvent(event, root)
}

// rootOf returns the configured root containing path, or "" if path falls
// outside every watched root (can happen briefly during rename sequences).
func (fw *FileWatcher) rootOf(path string) string {
	for _, root := range fw.config.Roots {
		if root == "" {
			continue
		}
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return root
		}
	}
	return ""
}

// handleFileEvent debounces bursts of events for the same path before
// emitting a single FileDirty/FileDeleted event.
func (fw *FileWatcher) handleFileEvent(fsEvent fsnotify.Event, root string) {
	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	if timer, exists := fw.debounceTimers[fsEvent.Name]; exists {
		timer.Stop()
	}

	fw.debounceTimers[fsEvent.Name] = time.AfterFunc(fw.config.DebounceDelay, func() {
		fw.emitFileEvent(fsEvent, root)

		fw.debounceMu.Lock()
		delete(fw.debounceTimers, fsEvent.Name)
		fw.debounceMu.Unlock()
	})
}

func (fw *FileWatcher) emitFileEvent(fsEvent fsnotify.Event, root string) {
	var eventType events.EventType
	switch {
	case fsEvent.Has(fsnotify.Remove), fsEvent.Has(fsnotify.Rename):
		eventType = events.FileDeleted
	case fsEvent.Has(fsnotify.Create), fsEvent.Has(fsnotify.Write):
		eventType = events.FileDirty
	default:
		return
	}

	fw.eventBus.Publish(&events.FileSystemEvent{
		EventType:  eventType,
		FilePath:   fsEvent.Name,
		ModuleName: filepath.Base(root),
		EventTime:  time.Now(),
	})

	fw.logger.Debug("filesystem event emitted", "type", eventType, "file", fsEvent.Name)
}
