package fsbuild

import "sync"

// contextSlot indexes CompileContext's typed-key attachment store. The
// source this is distilled from (JetBrains' JPS incremental builder) uses
// a process-wide registry of Key<T> objects for this; a systems-language
// reimplementation only needs a small enum-indexed slot table, per
// spec.md §9's design note. FSState owns the slot identities (they're
// unexported constants in this package); CompileContext owns the storage.
type contextSlot int

const (
	slotCurrentRoundDelta contextSlot = iota
	slotNextRoundDelta
	slotContextTargets
	numContextSlots
)

// CompileContext represents one build invocation. It carries the
// information FSState needs from the surrounding compilation driver
// (scope, root index, per-target start timestamps) plus the round-overlay
// and chunk-target slots FSState attaches to it over the invocation's
// lifetime (spec.md §4.3).
//
// CompileContext is owned by the compilation driver, not by FSState: an
// FSState may be handed a different *CompileContext for every build, or
// nil for callers that don't participate in round-based compilation at
// all. MarkDirty, MarkDirtyIfNotDeleted, RegisterDeleted,
// IsMarkedForRecompilation, GetEffectiveFilesDelta and the chunk/round
// lifecycle methods accept nil; ProcessFilesToRecompile, MarkAllUpToDate
// and HasUnprocessedChanges require a non-nil context.
type CompileContext struct {
	scope     CompileScope
	rootIndex RootIndex

	mu          sync.Mutex
	startStamps map[BuildTarget]int64
	slots       [numContextSlots]any
}

// NewCompileContext creates a context for one build invocation.
func NewCompileContext(scope CompileScope, rootIndex RootIndex) *CompileContext {
	return &CompileContext{
		scope:       scope,
		rootIndex:   rootIndex,
		startStamps: make(map[BuildTarget]int64),
	}
}

// Scope returns the compile scope in effect for this build.
func (c *CompileContext) Scope() CompileScope {
	return c.scope
}

// RootIndex returns the root index in effect for this build.
func (c *CompileContext) RootIndex() RootIndex {
	return c.rootIndex
}

// SetCompilationStartStamp records when compilation of target began in
// this build invocation.
func (c *CompileContext) SetCompilationStartStamp(target BuildTarget, millis int64) {
	c.mu.Lock()
	c.startStamps[target] = millis
	c.mu.Unlock()
}

// CompilationStartStamp returns when compilation of target began in this
// build invocation, or 0 (≤0 meaning "no build in progress") if it never
// started.
func (c *CompileContext) CompilationStartStamp(target BuildTarget) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startStamps[target]
}

func (c *CompileContext) getSlot(slot contextSlot) any {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slots[slot]
}

func (c *CompileContext) setSlot(slot contextSlot, value any) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.slots[slot] = value
	c.mu.Unlock()
}

func (c *CompileContext) roundDelta(slot contextSlot) *FilesDelta {
	v := c.getSlot(slot)
	if v == nil {
		return nil
	}
	return v.(*FilesDelta)
}

func (c *CompileContext) setRoundDelta(slot contextSlot, d *FilesDelta) {
	if d == nil {
		c.setSlot(slot, nil)
		return
	}
	c.setSlot(slot, d)
}

func (c *CompileContext) targetSet() map[BuildTarget]struct{} {
	v := c.getSlot(slotContextTargets)
	if v == nil {
		return nil
	}
	return v.(map[BuildTarget]struct{})
}

func (c *CompileContext) setTargetSet(targets map[BuildTarget]struct{}) {
	if targets == nil {
		c.setSlot(slotContextTargets, nil)
		return
	}
	c.setSlot(slotContextTargets, targets)
}

func isInCurrentContextTargets(ctx *CompileContext, target BuildTarget) bool {
	if ctx == nil {
		return false
	}
	targets := ctx.targetSet()
	if targets == nil {
		return false
	}
	_, ok := targets[target]
	return ok
}
