package fsbuild

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario: round overlay.
func TestRoundOverlay_PromotesNextIntoCurrentAcrossRounds(t *testing.T) {
	s := NewFSState(false, nil)
	target := fakeTarget{typ: fakeProdType, id: "mod-a"}
	root := &fakeRoot{target: target}
	chunk := []BuildTarget{target}

	_, err := s.MarkDirty(nil, RoundCurrent, "/d/w.txt", root, nil, false, 0)
	require.NoError(t, err)

	idx := newFakeRootIndex()
	ctx := NewCompileContext(&fakeScope{}, idx)

	s.BeforeChunkBuildStart(ctx, chunk)
	s.BeforeNextRoundStart(ctx, chunk)

	overlay := s.GetEffectiveFilesDelta(ctx, target)
	overlay.Lock()
	sources := overlay.SourcesToRecompile()
	require.Contains(t, sources, BuildRootDescriptor(root))
	assert.Equal(t, map[string]struct{}{"/d/w.txt": {}}, sources[root])
	overlay.Unlock()

	marked, err := s.MarkDirty(ctx, RoundNext, "/d/v.txt", root, nil, false, 0)
	require.NoError(t, err)
	assert.True(t, marked)

	// The per-target delta gains the file...
	assert.True(t, s.IsMarkedForRecompilation(nil, RoundCurrent, root, "/d/v.txt"))

	// ...the current overlay does not...
	current := s.GetEffectiveFilesDelta(ctx, target)
	assert.False(t, current.IsMarkedRecompile(root, "/d/v.txt"))

	// ...and the next overlay does.
	next := ctx.roundDelta(slotNextRoundDelta)
	require.NotNil(t, next)
	assert.True(t, next.IsMarkedRecompile(root, "/d/v.txt"))

	// Promoting again surfaces it through the new current overlay.
	s.BeforeNextRoundStart(ctx, chunk)
	promoted := s.GetEffectiveFilesDelta(ctx, target)
	assert.True(t, promoted.IsMarkedRecompile(root, "/d/v.txt"))
}

func TestRoundOverlay_MarkDirtyIgnoresTargetsOutsideTheChunk(t *testing.T) {
	s := NewFSState(false, nil)
	inChunk := fakeTarget{typ: fakeProdType, id: "mod-a"}
	outOfChunk := fakeTarget{typ: fakeProdType, id: "mod-b"}
	outsideRoot := &fakeRoot{target: outOfChunk}

	idx := newFakeRootIndex()
	ctx := NewCompileContext(&fakeScope{}, idx)
	s.BeforeChunkBuildStart(ctx, []BuildTarget{inChunk})
	s.BeforeNextRoundStart(ctx, []BuildTarget{inChunk})

	_, err := s.MarkDirty(ctx, RoundNext, "/e/q.txt", outsideRoot, nil, false, 0)
	require.NoError(t, err)

	next := ctx.roundDelta(slotNextRoundDelta)
	assert.False(t, next.IsMarkedRecompile(outsideRoot, "/e/q.txt"), "a target outside the registered chunk must not be mirrored into the overlay")

	// It still lands in its own per-target delta.
	assert.True(t, s.IsMarkedForRecompilation(nil, RoundCurrent, outsideRoot, "/e/q.txt"))
}

func TestGetEffectiveFilesDelta_FallsBackToPerTargetDeltaWithoutAnOverlay(t *testing.T) {
	s := NewFSState(false, nil)
	target := fakeTarget{typ: fakeProdType, id: "mod-a"}
	root := &fakeRoot{target: target}

	idx := newFakeRootIndex()
	ctx := NewCompileContext(&fakeScope{}, idx)
	// No BeforeChunkBuildStart/BeforeNextRoundStart: ctx carries no overlay.

	_, err := s.MarkDirty(nil, RoundCurrent, "/a/x.txt", root, nil, false, 0)
	require.NoError(t, err)

	delta := s.GetEffectiveFilesDelta(ctx, target)
	assert.True(t, delta.IsMarkedRecompile(root, "/a/x.txt"))
}

func TestGetEffectiveFilesDelta_NonModuleTargetNeverUsesTheOverlay(t *testing.T) {
	s := NewFSState(false, nil)
	nonModuleType := fakeTargetType{id: "fake-resources", isModule: false}
	target := fakeTarget{typ: nonModuleType, id: "res-a"}
	root := &fakeRoot{target: target}

	idx := newFakeRootIndex()
	ctx := NewCompileContext(&fakeScope{}, idx)
	s.BeforeChunkBuildStart(ctx, []BuildTarget{target})
	s.BeforeNextRoundStart(ctx, []BuildTarget{target})

	_, err := s.MarkDirty(nil, RoundCurrent, "/res/a.txt", root, nil, false, 0)
	require.NoError(t, err)

	delta := s.GetEffectiveFilesDelta(ctx, target)
	assert.True(t, delta.IsMarkedRecompile(root, "/res/a.txt"), "a non-module target type must still resolve through its per-target delta")
}

func TestClearContextChunkAndRoundData_ResetTheSlots(t *testing.T) {
	s := NewFSState(false, nil)
	target := fakeTarget{typ: fakeProdType, id: "mod-a"}

	idx := newFakeRootIndex()
	ctx := NewCompileContext(&fakeScope{}, idx)
	chunk := []BuildTarget{target}
	s.BeforeChunkBuildStart(ctx, chunk)
	s.BeforeNextRoundStart(ctx, chunk)

	require.NotNil(t, ctx.roundDelta(slotCurrentRoundDelta))
	require.True(t, isInCurrentContextTargets(ctx, target))

	s.ClearContextRoundData(ctx)
	assert.Nil(t, ctx.roundDelta(slotCurrentRoundDelta))
	assert.Nil(t, ctx.roundDelta(slotNextRoundDelta))

	s.ClearContextChunk(ctx)
	assert.False(t, isInCurrentContextTargets(ctx, target))
}

func TestBeforeChunkBuildStart_NilContextIsANoOp(t *testing.T) {
	s := NewFSState(false, nil)
	target := fakeTarget{typ: fakeProdType, id: "mod-a"}
	assert.NotPanics(t, func() {
		s.BeforeChunkBuildStart(nil, []BuildTarget{target})
		s.BeforeNextRoundStart(nil, []BuildTarget{target})
		s.ClearContextChunk(nil)
		s.ClearContextRoundData(nil)
	})
}
