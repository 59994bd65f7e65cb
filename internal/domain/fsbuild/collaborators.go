package fsbuild

// This file declares the external collaborators the core depends on but
// does not implement (spec.md §1, §6). Concrete implementations live
// outside this package — see internal/infrastructure/fsrt for the ones
// this repository ships, and a real compilation driver's own target model,
// root index and compile scope for production use.

// TargetLoader reconstructs a BuildTarget from its persisted id. It is
// bound to a particular JpsModel-equivalent ("model") by
// TargetTypeRegistry.CreateLoader.
type TargetLoader interface {
	// CreateTarget returns the target for id, or nil if id no longer
	// names a valid target (e.g. the module was removed from the
	// project since the state was saved).
	CreateTarget(id string) BuildTarget
}

// TargetTypeRegistry resolves a persisted typeId back into a TargetType
// capable of loading targets of that type.
type TargetTypeRegistry interface {
	// GetType returns the type for typeId, or nil if unknown (e.g. the
	// owning plugin was uninstalled since the state was saved).
	GetType(typeID string) TargetType

	// CreateLoader returns a loader bound to model for the given type.
	CreateLoader(t TargetType) TargetLoader
}

// RootIndex maps files to the build-root descriptors that contain them and
// assigns the stable per-target integer ids used by the wire format.
type RootIndex interface {
	// FindAllParentDescriptors returns every root descriptor (across all
	// targets) whose directory contains file.
	FindAllParentDescriptors(file string, ctx *CompileContext) []BuildRootDescriptor

	// RootID returns the stable integer id used to persist root in the
	// wire format for its owning target.
	RootID(root BuildRootDescriptor) int32

	// ResolveRoot reverses RootID during load.
	ResolveRoot(target BuildTarget, rootID int32) (BuildRootDescriptor, bool)
}

// CompileScope answers whether a file is currently in scope for a target's
// compilation (e.g. the user asked to rebuild only part of the project).
type CompileScope interface {
	IsAffected(target BuildTarget, file string) bool
}

// Stamp is an opaque fingerprint produced by a StampsStorage. The core
// never inspects a Stamp's contents; it only ever passes one back to the
// same StampsStorage that produced it.
type Stamp interface{}

// StampsStorage is the companion fingerprint database keyed by
// (file, target). The core removes a stamp whenever it marks a file
// dirty and asks the stamp store to commit a fresh stamp whenever it
// reconciles a target as up to date.
type StampsStorage interface {
	SaveStamp(file string, target BuildTarget, stamp Stamp) error
	RemoveStamp(file string, target BuildTarget) error
	CurrentStamp(file string) (Stamp, error)
}

// FileSystem is the narrow filesystem surface the core needs: the last
// modification time of a file, used to detect changes that raced a build.
type FileSystem interface {
	LastModified(file string) (millis int64, err error)
}
