package fsbuild

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Version is the on-disk format version written by FSState.Save. Loading
// data written by a different version is the enclosing storage layer's
// concern (spec.md §4.5); this package only exposes the constant so a
// caller can compare it against whatever version byte it stores alongside
// the payload.
const Version = 3

// Visitor is invoked once per (root, file) pair by ProcessFilesToRecompile.
// It returns cont=false to stop iterating early (e.g. the caller hit a
// fatal compilation error) and a non-nil err to abort with that error.
type Visitor func(target BuildTarget, file string, root BuildRootDescriptor) (cont bool, err error)

// FSState is the top-level façade coordinating per-target dirty/deleted
// state, event-arrival timestamps, and persistence (spec.md §4.4). It is
// safe for concurrent use: operations on different targets proceed
// independently; operations on the same target serialize on that target's
// FilesDelta lock.
type FSState struct {
	alwaysScanFS bool
	logger       *slog.Logger

	deltasMu sync.Mutex
	deltas   map[BuildTarget]*FilesDelta

	scanMu               sync.Mutex
	initialScanPerformed map[BuildTarget]struct{}

	eventStamps *EventStamps
}

// NewFSState creates an empty FSState. alwaysScanFS, when true, makes
// IsInitialScanPerformed always report false so the caller never trusts
// event-based tracking and instead always re-scans the filesystem.
func NewFSState(alwaysScanFS bool, logger *slog.Logger) *FSState {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSState{
		alwaysScanFS:         alwaysScanFS,
		logger:               logger,
		deltas:               make(map[BuildTarget]*FilesDelta),
		initialScanPerformed: make(map[BuildTarget]struct{}),
		eventStamps:          NewEventStamps(),
	}
}

// getOrCreateDelta returns target's per-target delta, creating it on first
// reference. The deltas-map lock is held only for this brief lookup, per
// spec.md §5's acquisition order.
func (s *FSState) getOrCreateDelta(target BuildTarget) *FilesDelta {
	s.deltasMu.Lock()
	defer s.deltasMu.Unlock()
	d := s.deltas[target]
	if d == nil {
		d = NewFilesDelta()
		s.deltas[target] = d
	}
	return d
}

func (s *FSState) peekDelta(target BuildTarget) *FilesDelta {
	s.deltasMu.Lock()
	defer s.deltasMu.Unlock()
	return s.deltas[target]
}

// MarkInitialScanPerformed records that an initial filesystem scan has
// completed for target.
func (s *FSState) MarkInitialScanPerformed(target BuildTarget) {
	s.scanMu.Lock()
	s.initialScanPerformed[target] = struct{}{}
	s.scanMu.Unlock()
}

func (s *FSState) hasScanned(target BuildTarget) bool {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()
	_, ok := s.initialScanPerformed[target]
	return ok
}

// IsInitialScanPerformed reports whether target's initial scan is
// complete. It is forced false when alwaysScanFS is set, so the caller
// always re-derives dirty state from the filesystem instead of trusting
// event-based tracking.
func (s *FSState) IsInitialScanPerformed(target BuildTarget) bool {
	return !s.alwaysScanFS && s.hasScanned(target)
}

// HasWorkToDo reports whether target still needs its initial scan, or
// whether its delta has any pending changes.
func (s *FSState) HasWorkToDo(target BuildTarget) bool {
	if !s.hasScanned(target) {
		return true
	}
	delta := s.peekDelta(target)
	return delta != nil && delta.HasChanges()
}

// ClearAll resets the façade to its initial empty state: the round overlay
// and chunk targets on a nil context, initialScanPerformed, every
// per-target delta, and the event-stamps map.
func (s *FSState) ClearAll() {
	s.ClearContextRoundData(nil)
	s.ClearContextChunk(nil)

	s.scanMu.Lock()
	s.initialScanPerformed = make(map[BuildTarget]struct{})
	s.scanMu.Unlock()

	s.deltasMu.Lock()
	s.deltas = make(map[BuildTarget]*FilesDelta)
	s.deltasMu.Unlock()

	s.eventStamps.Clear()
}

// MarkDirty marks file dirty for rd's target at the given round, mirroring
// the mark into ctx's round overlay when rd's target is part of the
// context's current chunk (spec.md §4.4). It returns whether the
// per-target delta was newly marked — the overlay's own result is
// intentionally discarded per the design note in spec.md §9.
func (s *FSState) MarkDirty(
	ctx *CompileContext,
	round CompilationRound,
	file string,
	rd BuildRootDescriptor,
	stamps StampsStorage,
	saveEventStamp bool,
	nowMillis int64,
) (bool, error) {
	if ctx != nil && isInCurrentContextTargets(ctx, rd.Target()) {
		if roundDelta := ctx.roundDelta(roundSlot(round)); roundDelta != nil {
			roundDelta.MarkRecompile(rd, file)
		}
	}

	delta := s.getOrCreateDelta(rd.Target())
	delta.Lock()
	defer delta.Unlock()

	marked := delta.markRecompileLocked(rd, file)
	if !marked {
		s.logger.Debug("not marked dirty", "target", rd.Target().ID(), "file", file)
		return false, nil
	}

	s.logger.Debug("marked dirty", "target", rd.Target().ID(), "file", file)
	if saveEventStamp {
		s.eventStamps.Put(file, nowMillis)
	}
	if stamps != nil {
		if err := stamps.RemoveStamp(file, rd.Target()); err != nil {
			return marked, err
		}
	}
	return marked, nil
}

// MarkDirtyIfNotDeleted behaves like MarkDirty but uses
// MarkRecompileIfNotDeleted and never writes an event stamp.
func (s *FSState) MarkDirtyIfNotDeleted(
	ctx *CompileContext,
	round CompilationRound,
	file string,
	rd BuildRootDescriptor,
	stamps StampsStorage,
) (bool, error) {
	delta := s.getOrCreateDelta(rd.Target())
	marked := delta.MarkRecompileIfNotDeleted(rd, file)
	if !marked {
		return false, nil
	}

	if stamps != nil {
		if err := stamps.RemoveStamp(file, rd.Target()); err != nil {
			return marked, err
		}
	}

	if ctx != nil && isInCurrentContextTargets(ctx, rd.Target()) {
		if roundDelta := ctx.roundDelta(roundSlot(round)); roundDelta != nil {
			roundDelta.MarkRecompile(rd, file)
		}
	}
	return marked, nil
}

// RegisterDeleted records file as deleted for target: in ctx's
// current-round and next-round overlays if present (unconditionally — the
// context-targets gate does not apply to deletions) and in the per-target
// delta.
func (s *FSState) RegisterDeleted(ctx *CompileContext, target BuildTarget, file string, stamps StampsStorage) error {
	if ctx != nil {
		if d := ctx.roundDelta(slotCurrentRoundDelta); d != nil {
			d.AddDeleted(file)
		}
		if d := ctx.roundDelta(slotNextRoundDelta); d != nil {
			d.AddDeleted(file)
		}
	}
	s.getOrCreateDelta(target).AddDeleted(file)

	if stamps != nil {
		return stamps.RemoveStamp(file, target)
	}
	return nil
}

// ClearDeletedPaths empties target's deleted-path set, if it has a delta.
func (s *FSState) ClearDeletedPaths(target BuildTarget) {
	if d := s.peekDelta(target); d != nil {
		d.ClearDeletedPaths()
	}
}

// GetAndClearDeletedPaths snapshots and clears target's deleted-path set,
// returning an empty slice if target has no delta.
func (s *FSState) GetAndClearDeletedPaths(target BuildTarget) []string {
	if d := s.peekDelta(target); d != nil {
		return d.GetAndClearDeletedPaths()
	}
	return nil
}

// ProcessFilesToRecompile visits every (root, file) pair in target's
// effective delta whose root belongs to target and whose file is in
// scope, stopping early if visitor returns cont=false or a non-nil error.
// It returns (true, nil) if every entry was visited.
func (s *FSState) ProcessFilesToRecompile(ctx *CompileContext, target BuildTarget, visitor Visitor) (bool, error) {
	scope := ctx.Scope()
	delta := s.GetEffectiveFilesDelta(ctx, target)
	delta.Lock()
	defer delta.Unlock()

	for root, files := range delta.SourcesToRecompile() {
		if root.Target() != target {
			// The merged delta can contain roots from peer targets when
			// compiling a module cycle.
			continue
		}
		for file := range files {
			if scope != nil && !scope.IsAffected(target, file) {
				continue
			}
			cont, err := visitor(target, file, root)
			if err != nil {
				return false, err
			}
			if !cont {
				return false, nil
			}
		}
	}
	return true, nil
}

// MarkAllUpToDate reconciles rd's recompile entries after a successful
// build: files the build scope didn't actually cover, or that changed (by
// mtime or event stamp) after compilation started, are re-marked dirty
// instead of having their stamp committed. It returns true iff anything
// was committed as up to date.
func (s *FSState) MarkAllUpToDate(ctx *CompileContext, rd BuildRootDescriptor, stamps StampsStorage, fs FileSystem) (bool, error) {
	target := rd.Target()
	delta := s.getOrCreateDelta(target)
	buildStart := ctx.CompilationStartStamp(target)

	delta.Lock()
	defer delta.Unlock()

	files := delta.clearRecompileLocked(rd)
	if files == nil {
		return false, nil
	}

	scope := ctx.Scope()
	marked := false
	for file := range files {
		if scope != nil && !scope.IsAffected(target, file) {
			delta.markRecompileLocked(rd, file)
			continue
		}

		currentTs, err := fs.LastModified(file)
		if err != nil {
			return marked, err
		}

		if !rd.IsGenerated() && (currentTs > buildStart || s.eventStamps.Get(file) > buildStart) {
			// Modified (or its change event delivered) after compilation
			// started: don't commit a stamp for a file the build ran on
			// stale content.
			delta.markRecompileLocked(rd, file)
			continue
		}

		if stamps != nil {
			stamp, err := stamps.CurrentStamp(file)
			if err != nil {
				return marked, err
			}
			if err := stamps.SaveStamp(file, target, stamp); err != nil {
				return marked, err
			}
		}
		marked = true
	}
	return marked, nil
}

// HasUnprocessedChanges reports whether target has changes reported after
// its current build started: either an event stamp newer than buildStart,
// or an mtime strictly between buildStart and now, for a file that is in
// scope and not reachable through any generated root (generated files are
// outputs of this build and their post-start mutation is expected).
func (s *FSState) HasUnprocessedChanges(ctx *CompileContext, target BuildTarget, fs FileSystem, nowMillis int64) (bool, error) {
	if !s.hasScanned(target) {
		return false, nil
	}
	delta := s.peekDelta(target)
	if delta == nil {
		return false, nil
	}
	buildStart := ctx.CompilationStartStamp(target)
	if buildStart <= 0 {
		return false, nil
	}

	scope := ctx.Scope()
	rootIndex := ctx.RootIndex()

	delta.Lock()
	defer delta.Unlock()

	for _, files := range delta.SourcesToRecompile() {
	perFile:
		for file := range files {
			eventStamp := s.eventStamps.Get(file)
			fileStamp, err := fs.LastModified(file)
			if err != nil {
				return false, err
			}
			changedAfterStart := eventStamp > buildStart || (fileStamp > buildStart && fileStamp < nowMillis)
			if !changedAfterStart {
				continue
			}
			if scope != nil && !scope.IsAffected(target, file) {
				continue
			}
			if rootIndex != nil {
				for _, parent := range rootIndex.FindAllParentDescriptors(file, ctx) {
					if parent.IsGenerated() {
						continue perFile
					}
				}
			}
			s.logger.Debug("unprocessed changes detected",
				"target", fmt.Sprint(target.ID()),
				"file", file,
				"buildStart", buildStart,
				"eventStamp", eventStamp,
				"lastModified", fileStamp,
			)
			return true, nil
		}
	}
	return false, nil
}

// Save writes every target in initialScanPerformed, grouped by type, in
// the format described in spec.md §4.5.
func (s *FSState) Save(w io.Writer, rootIndex RootIndex) error {
	s.scanMu.Lock()
	byType := make(map[TargetType][]BuildTarget)
	for target := range s.initialScanPerformed {
		t := target.TargetType()
		byType[t] = append(byType[t], target)
	}
	s.scanMu.Unlock()

	if err := writeUint32(w, uint32(len(byType))); err != nil {
		return err
	}
	for targetType, targets := range byType {
		if err := writeString(w, targetType.TypeID()); err != nil {
			return err
		}
		if err := writeUint32(w, uint32(len(targets))); err != nil {
			return err
		}
		for _, target := range targets {
			if err := writeString(w, target.ID()); err != nil {
				return err
			}
			if err := s.getOrCreateDelta(target).Save(w, target, rootIndex); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load reads state previously written by Save. Targets whose type is
// unknown, or whose id the type's loader can't resolve, are logged at
// info level and skipped without aborting the load (spec.md §7b) — this
// is the expected, recoverable path after a plugin or module is removed.
func (s *FSState) Load(r io.Reader, registry TargetTypeRegistry, rootIndex RootIndex) error {
	numTypes, err := readUint32(r)
	if err != nil {
		return err
	}

	for i := uint32(0); i < numTypes; i++ {
		typeID, err := readString(r)
		if err != nil {
			return err
		}
		numTargets, err := readUint32(r)
		if err != nil {
			return err
		}

		targetType := registry.GetType(typeID)
		var loader TargetLoader
		if targetType != nil {
			loader = registry.CreateLoader(targetType)
		}

		for j := uint32(0); j < numTargets; j++ {
			id, err := readString(r)
			if err != nil {
				return err
			}

			var target BuildTarget
			if loader != nil {
				target = loader.CreateTarget(id)
			}
			if target == nil {
				s.logger.Info("skipping unknown target", "typeId", typeID, "id", id)
				if err := SkipDelta(r); err != nil {
					return err
				}
				continue
			}

			delta := NewFilesDelta()
			if err := delta.Load(r, target, rootIndex); err != nil {
				return err
			}
			s.deltasMu.Lock()
			s.deltas[target] = delta
			s.deltasMu.Unlock()
			s.MarkInitialScanPerformed(target)
		}
	}
	return nil
}
