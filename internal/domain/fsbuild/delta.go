package fsbuild

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
)

// FilesDelta holds the dirty set for one target, grouped by build root,
// plus the set of paths deleted since they were last cleared. It owns its
// own lock; every public accessor other than Lock/Unlock requires the
// caller to be holding it (enforced with a panic, not silently ignored —
// this is a programmer error per spec.md §7e, not an expected condition).
type FilesDelta struct {
	mu     sync.Mutex
	locked atomic.Bool

	recompile map[BuildRootDescriptor]map[string]struct{}
	deleted   map[string]struct{}
}

// NewFilesDelta returns an empty delta.
func NewFilesDelta() *FilesDelta {
	return &FilesDelta{
		recompile: make(map[BuildRootDescriptor]map[string]struct{}),
		deleted:   make(map[string]struct{}),
	}
}

// MergeFilesDeltas returns a fresh delta containing the union of the
// recompile entries and deleted paths of every input. The result shares no
// mutable state with the inputs: mutating it afterward never leaks into the
// originals, and vice versa (spec.md §9, "merged round delta").
func MergeFilesDeltas(deltas ...*FilesDelta) *FilesDelta {
	merged := NewFilesDelta()
	for _, d := range deltas {
		d.Lock()
		for root, files := range d.recompile {
			dst := merged.recompile[root]
			if dst == nil {
				dst = make(map[string]struct{}, len(files))
				merged.recompile[root] = dst
			}
			for f := range files {
				dst[f] = struct{}{}
			}
		}
		for f := range d.deleted {
			merged.deleted[f] = struct{}{}
		}
		d.Unlock()
	}
	return merged
}

// Lock acquires the delta's exclusive, non-reentrant mutex. All read and
// write operations other than Lock/Unlock themselves require it held.
func (d *FilesDelta) Lock() {
	d.mu.Lock()
	d.locked.Store(true)
}

// Unlock releases the lock acquired by Lock.
func (d *FilesDelta) Unlock() {
	d.locked.Store(false)
	d.mu.Unlock()
}

func (d *FilesDelta) assertLocked() {
	if !d.locked.Load() {
		panic("fsbuild: FilesDelta accessed without holding its lock")
	}
}

// withLock runs fn with the delta locked. The lock is not reentrant, so
// fn must not call back into a method that takes it again.
func (d *FilesDelta) withLock(fn func()) {
	d.Lock()
	defer d.Unlock()
	fn()
}

// MarkRecompile inserts file into the recompile set for root. It returns
// true iff this call added a new entry — the file was not already present
// for that root.
func (d *FilesDelta) MarkRecompile(root BuildRootDescriptor, file string) bool {
	var added bool
	d.withLock(func() {
		added = d.markRecompileLocked(root, file)
	})
	return added
}

func (d *FilesDelta) markRecompileLocked(root BuildRootDescriptor, file string) bool {
	files := d.recompile[root]
	if files == nil {
		files = make(map[string]struct{})
		d.recompile[root] = files
	}
	if _, exists := files[file]; exists {
		return false
	}
	files[file] = struct{}{}
	return true
}

// MarkRecompileIfNotDeleted behaves like MarkRecompile except it is a no-op
// (and returns false) when file's path is currently in the deleted set: a
// deletion subsumes any pending dirty mark until the deleted set is
// cleared.
func (d *FilesDelta) MarkRecompileIfNotDeleted(root BuildRootDescriptor, file string) bool {
	var added bool
	d.withLock(func() {
		if _, isDeleted := d.deleted[file]; isDeleted {
			return
		}
		added = d.markRecompileLocked(root, file)
	})
	return added
}

// AddDeleted records file as deleted and removes it from every per-root
// recompile set of this delta: deletion supersedes dirtiness.
func (d *FilesDelta) AddDeleted(file string) {
	d.withLock(func() {
		d.deleted[file] = struct{}{}
		for _, files := range d.recompile {
			delete(files, file)
		}
	})
}

// ClearRecompile atomically removes and returns the recompile set for root.
// It returns nil if root had no entry.
func (d *FilesDelta) ClearRecompile(root BuildRootDescriptor) map[string]struct{} {
	var files map[string]struct{}
	d.withLock(func() {
		files = d.clearRecompileLocked(root)
	})
	return files
}

// clearRecompileLocked is ClearRecompile's body for callers already
// holding the lock (e.g. FSState.MarkAllUpToDate, which needs to hold it
// across the clear-and-reconcile sequence).
func (d *FilesDelta) clearRecompileLocked(root BuildRootDescriptor) map[string]struct{} {
	files := d.recompile[root]
	delete(d.recompile, root)
	return files
}

// ClearDeletedPaths empties the deleted set.
func (d *FilesDelta) ClearDeletedPaths() {
	d.withLock(func() {
		d.deleted = make(map[string]struct{})
	})
}

// GetAndClearDeletedPaths atomically snapshots and empties the deleted set.
func (d *FilesDelta) GetAndClearDeletedPaths() []string {
	var paths []string
	d.withLock(func() {
		if len(d.deleted) == 0 {
			return
		}
		paths = make([]string, 0, len(d.deleted))
		for f := range d.deleted {
			paths = append(paths, f)
		}
		d.deleted = make(map[string]struct{})
	})
	return paths
}

// IsMarkedRecompile reports whether file is currently marked dirty for
// root.
func (d *FilesDelta) IsMarkedRecompile(root BuildRootDescriptor, file string) bool {
	var marked bool
	d.withLock(func() {
		files := d.recompile[root]
		_, marked = files[file]
	})
	return marked
}

// SourcesToRecompile returns the current root→files map. The caller must
// be holding the delta's lock for the duration of any iteration over the
// result, since the underlying sets are not copied.
func (d *FilesDelta) SourcesToRecompile() map[BuildRootDescriptor]map[string]struct{} {
	d.assertLocked()
	return d.recompile
}

// HasChanges reports whether either the recompile map or the deleted set
// is non-empty.
func (d *FilesDelta) HasChanges() bool {
	var has bool
	d.withLock(func() {
		if len(d.deleted) > 0 {
			has = true
			return
		}
		for _, files := range d.recompile {
			if len(files) > 0 {
				has = true
				return
			}
		}
	})
	return has
}

// --- wire format (spec.md §6) ---
//
//	delta := u32 numRoots
//	         { u32 rootId ; u32 numFiles ; { utf8 absPath }×numFiles }×numRoots
//	         u32 numDeleted
//	         { utf8 absPath }×numDeleted

// Save writes the delta's contents in the format above. rootIndex assigns
// the stable per-target root ids.
func (d *FilesDelta) Save(w io.Writer, target BuildTarget, rootIndex RootIndex) error {
	d.Lock()
	defer d.Unlock()

	if err := writeUint32(w, uint32(len(d.recompile))); err != nil {
		return err
	}
	for root, files := range d.recompile {
		if err := writeUint32(w, uint32(rootIndex.RootID(root))); err != nil {
			return err
		}
		if err := writeUint32(w, uint32(len(files))); err != nil {
			return err
		}
		for f := range files {
			if err := writeString(w, f); err != nil {
				return err
			}
		}
	}

	if err := writeUint32(w, uint32(len(d.deleted))); err != nil {
		return err
	}
	for f := range d.deleted {
		if err := writeString(w, f); err != nil {
			return err
		}
	}
	return nil
}

// Load populates the delta from r, resolving root ids back to descriptors
// via rootIndex. Roots that no longer resolve (a root was removed from the
// target since the state was saved) are silently dropped, along with the
// files that were only recorded under them.
func (d *FilesDelta) Load(r io.Reader, target BuildTarget, rootIndex RootIndex) error {
	d.Lock()
	defer d.Unlock()

	numRoots, err := readUint32(r)
	if err != nil {
		return err
	}
	for i := uint32(0); i < numRoots; i++ {
		rootID, err := readUint32(r)
		if err != nil {
			return err
		}
		numFiles, err := readUint32(r)
		if err != nil {
			return err
		}
		root, ok := rootIndex.ResolveRoot(target, int32(rootID))
		for j := uint32(0); j < numFiles; j++ {
			f, err := readString(r)
			if err != nil {
				return err
			}
			if ok {
				d.markRecompileLocked(root, f)
			}
		}
	}

	numDeleted, err := readUint32(r)
	if err != nil {
		return err
	}
	for i := uint32(0); i < numDeleted; i++ {
		f, err := readString(r)
		if err != nil {
			return err
		}
		d.deleted[f] = struct{}{}
	}
	return nil
}

// SkipDelta consumes one delta record from r without materializing any
// entities, for the "unknown target" load path (spec.md §4.5, §7b).
func SkipDelta(r io.Reader) error {
	numRoots, err := readUint32(r)
	if err != nil {
		return err
	}
	for i := uint32(0); i < numRoots; i++ {
		if _, err := readUint32(r); err != nil { // rootId
			return err
		}
		numFiles, err := readUint32(r)
		if err != nil {
			return err
		}
		for j := uint32(0); j < numFiles; j++ {
			if _, err := readString(r); err != nil {
				return err
			}
		}
	}
	numDeleted, err := readUint32(r)
	if err != nil {
		return err
	}
	for i := uint32(0); i < numDeleted; i++ {
		if _, err := readString(r); err != nil {
			return err
		}
	}
	return nil
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func writeString(w io.Writer, s string) error {
	if uint64(len(s)) > math.MaxUint32 {
		return fmt.Errorf("fsbuild: string too long to persist (%d bytes)", len(s))
	}
	if err := writeUint32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
