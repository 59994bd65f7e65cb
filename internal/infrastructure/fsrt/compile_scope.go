package fsrt

import "github.com/cocursor/backend/internal/domain/fsbuild"

// AllScope is a CompileScope that considers every file affected, for a
// full-project build.
type AllScope struct{}

func (AllScope) IsAffected(fsbuild.BuildTarget, string) bool { return true }

// PredicateScope is a CompileScope backed by an arbitrary predicate, for
// partial/incremental builds that restrict compilation to a subset of
// targets or files (e.g. "only what the user selected in the IDE").
type PredicateScope struct {
	Affected func(target fsbuild.BuildTarget, file string) bool
}

func (p PredicateScope) IsAffected(target fsbuild.BuildTarget, file string) bool {
	if p.Affected == nil {
		return true
	}
	return p.Affected(target, file)
}
