package fsbuild

// TargetType identifies a family of build targets (e.g. "module-production",
// "module-test"). Types are registered with a TargetTypeRegistry so that a
// (typeId, id) pair persisted to disk can be turned back into a live
// BuildTarget after a process restart.
type TargetType interface {
	// TypeID returns the stable string identifying this type in persisted
	// state. It must never change across versions without a format bump.
	TypeID() string

	// IsModuleBuildTargetType reports whether targets of this type
	// participate in multi-round compilation (RoundOverlay). Only module
	// build targets do; other target kinds (e.g. a resources copy step)
	// never get a round-overlay view of their delta.
	IsModuleBuildTargetType() bool
}

// BuildTarget is an opaque build-target identity: a build target's type
// together with an id unique within that type. BuildTarget values are used
// as map keys, so implementations must be comparable (no slices/maps/funcs
// as fields).
type BuildTarget interface {
	TargetType() TargetType
	ID() string
}

// BuildRootDescriptor is an opaque source-root descriptor: a directory
// associated with exactly one BuildTarget, optionally holding files that are
// themselves build outputs (generated).
type BuildRootDescriptor interface {
	Target() BuildTarget
	IsGenerated() bool
}
