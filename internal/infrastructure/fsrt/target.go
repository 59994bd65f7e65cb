package fsrt

import (
	"github.com/cocursor/backend/internal/domain/fsbuild"
)

// moduleTargetType is the in-memory TargetType for module-scoped build
// targets. Two instances exist, production and test, mirroring the two
// output roots a single module compiles to.
type moduleTargetType struct {
	typeID         string
	isModuleTarget bool
}

func (t *moduleTargetType) TypeID() string               { return t.typeID }
func (t *moduleTargetType) IsModuleBuildTargetType() bool { return t.isModuleTarget }

var (
	// ProductionTargetType covers a module's main sources.
	ProductionTargetType fsbuild.TargetType = &moduleTargetType{typeID: "module-production", isModuleTarget: true}
	// TestTargetType covers a module's test sources.
	TestTargetType fsbuild.TargetType = &moduleTargetType{typeID: "module-test", isModuleTarget: true}
)

// moduleTarget identifies one module's production or test output. It is a
// plain comparable value (not a pointer): two moduleTarget values built from
// the same (targetType, moduleName) compare equal under Go's ==, which is
// what lets BuildTarget serve as a map key with the (typeId, id) identity
// semantics the core requires. targetType is itself comparable because
// ProductionTargetType/TestTargetType are process-wide singletons, so every
// moduleTarget for a given type holds the same underlying pointer.
type moduleTarget struct {
	targetType fsbuild.TargetType
	moduleName string
}

// NewModuleTarget returns the build target for moduleName's given type.
// targetType must be ProductionTargetType or TestTargetType. Calling this
// repeatedly with the same arguments
// yields values equal under ==, so callers never need to cache or intern
// the result themselves.
func NewModuleTarget(targetType fsbuild.TargetType, moduleName string) fsbuild.BuildTarget {
	return moduleTarget{targetType: targetType, moduleName: moduleName}
}

func (t moduleTarget) TargetType() fsbuild.TargetType { return t.targetType }
func (t moduleTarget) ID() string                     { return t.moduleName }

// moduleLoader resolves persisted module target ids against a live set of
// known module names, standing in for a real project model's module list.
type moduleLoader struct {
	targetType   fsbuild.TargetType
	knownModules map[string]struct{}
}

func (l *moduleLoader) CreateTarget(id string) fsbuild.BuildTarget {
	if _, ok := l.knownModules[id]; !ok {
		return nil
	}
	return NewModuleTarget(l.targetType, id)
}

// TargetRegistry is the in-memory TargetTypeRegistry this daemon ships:
// it knows exactly the two module target types and resolves loaders against
// whatever module set it was constructed with.
type TargetRegistry struct {
	types        map[string]fsbuild.TargetType
	knownModules map[string]struct{}
}

// NewTargetRegistry returns a registry recognizing the given module names
// under both the production and test target types.
func NewTargetRegistry(moduleNames []string) *TargetRegistry {
	known := make(map[string]struct{}, len(moduleNames))
	for _, name := range moduleNames {
		known[name] = struct{}{}
	}
	return &TargetRegistry{
		types: map[string]fsbuild.TargetType{
			ProductionTargetType.TypeID(): ProductionTargetType,
			TestTargetType.TypeID():       TestTargetType,
		},
		knownModules: known,
	}
}

// AddModule makes moduleName resolvable by subsequent Load calls. Used when
// the project model gains a module after the registry was constructed.
func (r *TargetRegistry) AddModule(moduleName string) {
	r.knownModules[moduleName] = struct{}{}
}

func (r *TargetRegistry) GetType(typeID string) fsbuild.TargetType {
	return r.types[typeID]
}

func (r *TargetRegistry) CreateLoader(t fsbuild.TargetType) fsbuild.TargetLoader {
	return &moduleLoader{targetType: t, knownModules: r.knownModules}
}
