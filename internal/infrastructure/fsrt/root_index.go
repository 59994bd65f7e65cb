package fsrt

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/cocursor/backend/internal/domain/fsbuild"
)

// rootDescriptor is the in-memory BuildRootDescriptor this daemon ships: a
// directory plus the target it belongs to, and whether it holds generated
// (build output) rather than source files.
type rootDescriptor struct {
	target    fsbuild.BuildTarget
	dir       string
	generated bool
}

func (r *rootDescriptor) Target() fsbuild.BuildTarget { return r.target }
func (r *rootDescriptor) IsGenerated() bool            { return r.generated }
func (r *rootDescriptor) Dir() string                  { return r.dir }

// RootIndex is the in-memory fsbuild.RootIndex this daemon ships. Root ids
// are assigned sequentially per target in registration order and are stable
// for the lifetime of the process, which is all the wire format requires
// (spec.md §6): a root that disappears between saves just fails to resolve
// on load, and its files are dropped along with it.
type RootIndex struct {
	mu sync.Mutex

	byTarget map[fsbuild.BuildTarget][]*rootDescriptor
	ids      map[fsbuild.BuildRootDescriptor]int32
}

// NewRootIndex returns an empty root index.
func NewRootIndex() *RootIndex {
	return &RootIndex{
		byTarget: make(map[fsbuild.BuildTarget][]*rootDescriptor),
		ids:      make(map[fsbuild.BuildRootDescriptor]int32),
	}
}

// AddRoot registers dir as a build root of target and returns its
// descriptor. Calling it twice for the same (target, dir) pair returns two
// distinct descriptors — callers are expected to register each root once,
// at startup or when a new root is discovered.
func (idx *RootIndex) AddRoot(target fsbuild.BuildTarget, dir string, generated bool) fsbuild.BuildRootDescriptor {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	rd := &rootDescriptor{target: target, dir: filepath.Clean(dir), generated: generated}
	idx.byTarget[target] = append(idx.byTarget[target], rd)
	idx.ids[rd] = int32(len(idx.byTarget[target]) - 1)
	return rd
}

// FindAllParentDescriptors returns every registered root (across all
// targets) whose directory is an ancestor of file.
func (idx *RootIndex) FindAllParentDescriptors(file string, ctx *fsbuild.CompileContext) []fsbuild.BuildRootDescriptor {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var result []fsbuild.BuildRootDescriptor
	for _, roots := range idx.byTarget {
		for _, rd := range roots {
			if isUnder(rd.dir, file) {
				result = append(result, rd)
			}
		}
	}
	return result
}

// RootsOf returns target's registered roots, in registration order.
func (idx *RootIndex) RootsOf(target fsbuild.BuildTarget) []fsbuild.BuildRootDescriptor {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	roots := idx.byTarget[target]
	out := make([]fsbuild.BuildRootDescriptor, len(roots))
	for i, rd := range roots {
		out[i] = rd
	}
	return out
}

func (idx *RootIndex) RootID(root fsbuild.BuildRootDescriptor) int32 {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.ids[root]
}

func (idx *RootIndex) ResolveRoot(target fsbuild.BuildTarget, rootID int32) (fsbuild.BuildRootDescriptor, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	roots := idx.byTarget[target]
	if rootID < 0 || int(rootID) >= len(roots) {
		return nil, false
	}
	return roots[rootID], true
}

func isUnder(dir, file string) bool {
	rel, err := filepath.Rel(dir, file)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
