package fsrt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetRegistry_ResolvesKnownModule(t *testing.T) {
	registry := NewTargetRegistry([]string{"mod-a", "mod-b"})

	typ := registry.GetType(ProductionTargetType.TypeID())
	assert.Same(t, ProductionTargetType, typ)

	loader := registry.CreateLoader(typ)
	target := loader.CreateTarget("mod-a")
	assert.NotNil(t, target)
	assert.Equal(t, "mod-a", target.ID())
	assert.Equal(t, ProductionTargetType, target.TargetType())
}

func TestTargetRegistry_RejectsUnknownModule(t *testing.T) {
	registry := NewTargetRegistry([]string{"mod-a"})

	loader := registry.CreateLoader(ProductionTargetType)
	assert.Nil(t, loader.CreateTarget("mod-z"))
}

func TestTargetRegistry_AddModule(t *testing.T) {
	registry := NewTargetRegistry(nil)

	loader := registry.CreateLoader(TestTargetType)
	assert.Nil(t, loader.CreateTarget("mod-new"))

	registry.AddModule("mod-new")
	target := loader.CreateTarget("mod-new")
	assert.NotNil(t, target)
	assert.Equal(t, TestTargetType, target.TargetType())
}

func TestTargetRegistry_UnknownTypeID(t *testing.T) {
	registry := NewTargetRegistry(nil)
	assert.Nil(t, registry.GetType("no-such-type"))
}
