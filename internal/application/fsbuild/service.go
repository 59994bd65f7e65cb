// Package fsbuild orchestrates the file-system-state core against the
// watcher's live events and the daemon's persistence and stamp stores,
// exposing the use cases the HTTP and MCP interfaces call into.
package fsbuild

import (
	"log/slog"
	"time"

	domainfs "github.com/cocursor/backend/internal/domain/fsbuild"
	"github.com/cocursor/backend/internal/domain/events"
	"github.com/cocursor/backend/internal/infrastructure/config"
	applog "github.com/cocursor/backend/internal/infrastructure/log"
	"github.com/cocursor/backend/internal/infrastructure/fsrt"
	"github.com/cocursor/backend/internal/infrastructure/websocket"
)

// Service is the application-layer façade (use-case orchestration) over the
// domain FSState.
type Service struct {
	state    *domainfs.FSState
	registry *fsrt.TargetRegistry
	roots    *fsrt.RootIndex
	stamps   *fsrt.StampStore
	fs       *fsrt.OSFileSystem
	persist  *fsrt.Persistence
	hub      *websocket.Hub

	logger *slog.Logger
}

// ProvideFSState constructs an empty domain FSState for wire injection,
// honoring the configured alwaysScanFS override.
func ProvideFSState(cfg *config.FSBuildConfig) *domainfs.FSState {
	return domainfs.NewFSState(cfg.AlwaysScanFS, applog.NewModuleLogger("fsbuild", "state"))
}

// NewService wires the domain state against its concrete collaborators.
func NewService(
	state *domainfs.FSState,
	registry *fsrt.TargetRegistry,
	roots *fsrt.RootIndex,
	stamps *fsrt.StampStore,
	fs *fsrt.OSFileSystem,
	persist *fsrt.Persistence,
	hub *websocket.Hub,
) *Service {
	return &Service{
		state:    state,
		registry: registry,
		roots:    roots,
		stamps:   stamps,
		fs:       fs,
		persist:  persist,
		hub:      hub,
		logger:   applog.NewModuleLogger("fsbuild", "service"),
	}
}

// RegisterModule registers rootDir as moduleName's production source root,
// making it eligible for watching and dirty-tracking. It must be called
// before the watcher starts walking rootDir.
func (s *Service) RegisterModule(moduleName, rootDir string) domainfs.BuildRootDescriptor {
	s.registry.AddModule(moduleName)
	target := fsrt.NewModuleTarget(fsrt.ProductionTargetType, moduleName)
	return s.roots.AddRoot(target, rootDir, false)
}

// Start loads any previously persisted state and subscribes the service to
// the watcher's filesystem events.
func (s *Service) Start(bus events.EventBus) error {
	if err := s.persist.Load(s.state, s.registry, s.roots); err != nil {
		s.logger.Error("failed to load persisted state", "error", err)
		return err
	}

	bus.SubscribeMultiple(
		[]events.EventType{events.FileDirty, events.FileDeleted},
		events.HandlerFunc(s.handleFileSystemEvent),
	)
	bus.Subscribe(events.RootScanned, events.HandlerFunc(s.handleRootScanned))

	s.logger.Info("fsbuild service started")
	return nil
}

// Stop persists the current state.
func (s *Service) Stop() error {
	if err := s.persist.Save(s.state, s.roots); err != nil {
		s.logger.Error("failed to persist state", "error", err)
		return err
	}
	s.logger.Info("fsbuild service stopped, state persisted")
	return nil
}

func (s *Service) handleFileSystemEvent(event events.Event) error {
	fsEvent, ok := event.(*events.FileSystemEvent)
	if !ok {
		return nil
	}

	target := fsrt.NewModuleTarget(fsrt.ProductionTargetType, fsEvent.ModuleName)
	roots := s.roots.RootsOf(target)
	if len(roots) == 0 {
		return nil
	}
	rd := roots[0]

	switch fsEvent.EventType {
	case events.FileDeleted:
		if err := s.state.RegisterDeleted(nil, target, fsEvent.FilePath, s.stamps); err != nil {
			return err
		}
		s.broadcast(fsEvent.ModuleName, "deleted", fsEvent.FilePath)
		return nil
	case events.FileDirty:
		_, err := s.state.MarkDirty(nil, domainfs.RoundCurrent, fsEvent.FilePath, rd, s.stamps, true, fsEvent.EventTime.UnixMilli())
		if err != nil {
			return err
		}
		s.broadcast(fsEvent.ModuleName, "dirty", fsEvent.FilePath)
		return nil
	}
	return nil
}

func (s *Service) handleRootScanned(event events.Event) error {
	scanned, ok := event.(*events.RootScannedEvent)
	if !ok {
		return nil
	}
	target := fsrt.NewModuleTarget(fsrt.ProductionTargetType, scanned.ModuleName)
	s.state.MarkInitialScanPerformed(target)
	s.broadcast(scanned.ModuleName, "scanned", "")
	return nil
}

func (s *Service) broadcast(moduleName, kind, file string) {
	if s.hub == nil {
		return
	}
	if err := s.hub.BroadcastChange(moduleName, websocket.ChangeEvent{
		Module: moduleName,
		Kind:   kind,
		File:   file,
		Time:   time.Now(),
	}); err != nil {
		s.logger.Debug("broadcast failed", "module", moduleName, "error", err)
	}
}

// DirtySource is one pending (root, file) pair surfaced to a caller.
type DirtySource struct {
	Module string `json:"module"`
	Root   string `json:"root"`
	File   string `json:"file"`
}

// ListDirtySources returns every file currently marked dirty for
// moduleName's production target, outside of any active build round.
func (s *Service) ListDirtySources(moduleName string) []DirtySource {
	target := fsrt.NewModuleTarget(fsrt.ProductionTargetType, moduleName)

	var out []DirtySource
	ctx := domainfs.NewCompileContext(fsrt.AllScope{}, s.roots)
	_, _ = s.state.ProcessFilesToRecompile(ctx, target, func(t domainfs.BuildTarget, file string, root domainfs.BuildRootDescriptor) (bool, error) {
		src := DirtySource{Module: moduleName, File: file}
		if d, ok := root.(interface{ Dir() string }); ok {
			src.Root = d.Dir()
		}
		out = append(out, src)
		return true, nil
	})
	return out
}

// HasWorkToDo reports whether moduleName still needs its initial scan or
// has pending dirty/deleted entries.
func (s *Service) HasWorkToDo(moduleName string) bool {
	target := fsrt.NewModuleTarget(fsrt.ProductionTargetType, moduleName)
	return s.state.HasWorkToDo(target)
}

// MarkAllUpToDate reconciles every registered root of moduleName as
// up-to-date with respect to a build that started at buildStart.
func (s *Service) MarkAllUpToDate(moduleName string, buildStart time.Time) (bool, error) {
	target := fsrt.NewModuleTarget(fsrt.ProductionTargetType, moduleName)
	ctx := domainfs.NewCompileContext(fsrt.AllScope{}, s.roots)
	ctx.SetCompilationStartStamp(target, buildStart.UnixMilli())

	any := false
	for _, rd := range s.roots.RootsOf(target) {
		marked, err := s.state.MarkAllUpToDate(ctx, rd, s.stamps, s.fs)
		if err != nil {
			return any, err
		}
		any = any || marked
	}
	if any {
		s.broadcast(moduleName, "up-to-date", "")
	}
	return any, nil
}

// HasUnprocessedChanges reports whether moduleName received changes after
// buildStart that a build starting then wouldn't have seen.
func (s *Service) HasUnprocessedChanges(moduleName string, buildStart time.Time) (bool, error) {
	target := fsrt.NewModuleTarget(fsrt.ProductionTargetType, moduleName)
	ctx := domainfs.NewCompileContext(fsrt.AllScope{}, s.roots)
	ctx.SetCompilationStartStamp(target, buildStart.UnixMilli())
	return s.state.HasUnprocessedChanges(ctx, target, s.fs, time.Now().UnixMilli())
}

// BuildRoundResult summarizes one RunBuild invocation.
type BuildRoundResult struct {
	Module       string `json:"module"`
	Rounds       int    `json:"rounds"`
	FilesVisited int    `json:"filesVisited"`
	Committed    bool   `json:"committed"`
}

// CompileFunc performs the real compilation work for one dirty file visited
// by RunBuild. It may call discover to feed a newly-found dependent file
// into the next round, the way a real compiler reports "compiling A
// revealed B also needs recompiling".
type CompileFunc func(file string, discover func(file string)) error

// RunBuild drives a full multi-round compilation pass over moduleName's
// production and test targets as one chunk: it registers the chunk with
// BeforeChunkBuildStart, then repeatedly calls BeforeNextRoundStart and
// ProcessFilesToRecompile until a round visits nothing new, and finally
// reconciles every registered root as up to date via MarkAllUpToDate.
func (s *Service) RunBuild(moduleName string, compile CompileFunc) (*BuildRoundResult, error) {
	prodTarget := fsrt.NewModuleTarget(fsrt.ProductionTargetType, moduleName)
	testTarget := fsrt.NewModuleTarget(fsrt.TestTargetType, moduleName)
	chunk := []domainfs.BuildTarget{prodTarget, testTarget}

	ctx := domainfs.NewCompileContext(fsrt.AllScope{}, s.roots)
	buildStart := time.Now().UnixMilli()
	ctx.SetCompilationStartStamp(prodTarget, buildStart)
	ctx.SetCompilationStartStamp(testTarget, buildStart)

	s.state.BeforeChunkBuildStart(ctx, chunk)
	defer s.state.ClearContextChunk(ctx)
	defer s.state.ClearContextRoundData(ctx)

	result := &BuildRoundResult{Module: moduleName}
	const maxRounds = 10
	for round := 0; round < maxRounds; round++ {
		s.state.BeforeNextRoundStart(ctx, chunk)
		result.Rounds++

		visited := 0
		for _, target := range chunk {
			_, err := s.state.ProcessFilesToRecompile(ctx, target, func(t domainfs.BuildTarget, file string, root domainfs.BuildRootDescriptor) (bool, error) {
				if compile != nil {
					discover := func(depFile string) {
						_, _ = s.state.MarkDirty(ctx, domainfs.RoundNext, depFile, root, s.stamps, true, time.Now().UnixMilli())
					}
					if err := compile(file, discover); err != nil {
						return false, err
					}
				}
				visited++
				result.FilesVisited++
				return true, nil
			})
			if err != nil {
				return result, err
			}
		}
		if visited == 0 {
			break
		}
	}

	any := false
	for _, target := range chunk {
		for _, rd := range s.roots.RootsOf(target) {
			marked, err := s.state.MarkAllUpToDate(ctx, rd, s.stamps, s.fs)
			if err != nil {
				return result, err
			}
			any = any || marked
		}
	}
	result.Committed = any
	if any {
		s.broadcast(moduleName, "up-to-date", "")
	}
	return result, nil
}
