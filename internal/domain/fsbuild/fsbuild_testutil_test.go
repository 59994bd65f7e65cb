package fsbuild

import (
	"fmt"
	"strings"
	"sync"
)

// Fakes shared by delta_test.go, state_test.go and overlay_test.go. This
// package has no infrastructure dependencies to borrow collaborators from,
// so the domain tests stand up minimal ones of their own.

type fakeTargetType struct {
	id       string
	isModule bool
}

func (t fakeTargetType) TypeID() string               { return t.id }
func (t fakeTargetType) IsModuleBuildTargetType() bool { return t.isModule }

var (
	fakeProdType = fakeTargetType{id: "fake-production", isModule: true}
	fakeTestType = fakeTargetType{id: "fake-test", isModule: true}
)

// fakeTarget is a plain comparable value, mirroring the real moduleTarget
// used by infrastructure/fsrt: two fakeTargets built from the same
// (typ, id) compare equal under ==, as BuildTarget requires.
type fakeTarget struct {
	typ fakeTargetType
	id  string
}

func (t fakeTarget) TargetType() TargetType { return t.typ }
func (t fakeTarget) ID() string             { return t.id }

type fakeRoot struct {
	target    BuildTarget
	dir       string
	generated bool
}

func (r *fakeRoot) Target() BuildTarget { return r.target }
func (r *fakeRoot) IsGenerated() bool   { return r.generated }

// fakeRootIndex is a minimal RootIndex: roots are grouped by owning target,
// and root ids are simply the position at which a root was added.
type fakeRootIndex struct {
	mu    sync.Mutex
	roots map[BuildTarget][]*fakeRoot
	ids   map[BuildRootDescriptor]int32
}

func newFakeRootIndex() *fakeRootIndex {
	return &fakeRootIndex{
		roots: make(map[BuildTarget][]*fakeRoot),
		ids:   make(map[BuildRootDescriptor]int32),
	}
}

func (idx *fakeRootIndex) addRoot(target BuildTarget, dir string, generated bool) *fakeRoot {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	r := &fakeRoot{target: target, dir: dir, generated: generated}
	idx.roots[target] = append(idx.roots[target], r)
	idx.ids[r] = int32(len(idx.roots[target]) - 1)
	return r
}

func (idx *fakeRootIndex) FindAllParentDescriptors(file string, ctx *CompileContext) []BuildRootDescriptor {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	var out []BuildRootDescriptor
	for _, roots := range idx.roots {
		for _, r := range roots {
			if strings.HasPrefix(file, r.dir) {
				out = append(out, r)
			}
		}
	}
	return out
}

func (idx *fakeRootIndex) RootID(root BuildRootDescriptor) int32 {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.ids[root]
}

func (idx *fakeRootIndex) ResolveRoot(target BuildTarget, rootID int32) (BuildRootDescriptor, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	roots := idx.roots[target]
	if rootID < 0 || int(rootID) >= len(roots) {
		return nil, false
	}
	return roots[rootID], true
}

// fakeScope affects every file except those explicitly excluded.
type fakeScope struct {
	excluded map[string]struct{}
}

func (s *fakeScope) IsAffected(target BuildTarget, file string) bool {
	if s == nil {
		return true
	}
	_, excluded := s.excluded[file]
	return !excluded
}

type stampKey struct {
	file   string
	target BuildTarget
}

type fakeStamps struct {
	mu      sync.Mutex
	saved   map[stampKey]Stamp
	removed []stampKey
}

func newFakeStamps() *fakeStamps {
	return &fakeStamps{saved: make(map[stampKey]Stamp)}
}

func (s *fakeStamps) SaveStamp(file string, target BuildTarget, stamp Stamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[stampKey{file, target}] = stamp
	return nil
}

func (s *fakeStamps) RemoveStamp(file string, target BuildTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := stampKey{file, target}
	s.removed = append(s.removed, key)
	delete(s.saved, key)
	return nil
}

func (s *fakeStamps) CurrentStamp(file string) (Stamp, error) {
	return "stamp:" + file, nil
}

func (s *fakeStamps) wasSaved(file string, target BuildTarget) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.saved[stampKey{file, target}]
	return ok
}

// fakeFS reports mtimes from an in-memory table; LastModified errors for
// any file that was never given one, so tests notice a missing setup.
type fakeFS struct {
	mu     sync.Mutex
	mtimes map[string]int64
}

func newFakeFS() *fakeFS { return &fakeFS{mtimes: make(map[string]int64)} }

func (f *fakeFS) set(file string, millis int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mtimes[file] = millis
}

func (f *fakeFS) LastModified(file string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ts, ok := f.mtimes[file]
	if !ok {
		return 0, fmt.Errorf("fake fs: no mtime recorded for %s", file)
	}
	return ts, nil
}

// fakeTargetLoader and fakeTargetRegistry back FSState.Save/Load tests.
type fakeTargetLoader struct {
	targets map[string]BuildTarget
}

func (l *fakeTargetLoader) CreateTarget(id string) BuildTarget { return l.targets[id] }

type fakeTargetRegistry struct {
	types   map[string]TargetType
	loaders map[string]*fakeTargetLoader
}

func newFakeTargetRegistry() *fakeTargetRegistry {
	return &fakeTargetRegistry{
		types:   make(map[string]TargetType),
		loaders: make(map[string]*fakeTargetLoader),
	}
}

func (r *fakeTargetRegistry) register(typ fakeTargetType, targets ...fakeTarget) {
	loader := &fakeTargetLoader{targets: make(map[string]BuildTarget)}
	for _, t := range targets {
		loader.targets[t.id] = t
	}
	r.types[typ.id] = typ
	r.loaders[typ.id] = loader
}

func (r *fakeTargetRegistry) GetType(typeID string) TargetType { return r.types[typeID] }

func (r *fakeTargetRegistry) CreateLoader(t TargetType) TargetLoader { return r.loaders[t.TypeID()] }
