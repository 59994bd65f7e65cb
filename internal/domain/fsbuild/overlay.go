package fsbuild

// CompilationRound selects which of a CompileContext's two round-overlay
// deltas an operation targets (spec.md §4.3).
type CompilationRound int

const (
	// RoundCurrent is the round presently executing.
	RoundCurrent CompilationRound = iota
	// RoundNext is the round that will execute after the current one
	// finishes; newly marked files land here so they become visible on
	// the next pass over the chunk.
	RoundNext
)

func roundSlot(round CompilationRound) contextSlot {
	if round == RoundNext {
		return slotNextRoundDelta
	}
	return slotCurrentRoundDelta
}

// BeforeChunkBuildStart records which targets make up chunk on ctx. Only
// targets in this set are mirrored into the round overlay by MarkDirty
// (spec.md §4.3, §4.4 step 1).
func (s *FSState) BeforeChunkBuildStart(ctx *CompileContext, chunk []BuildTarget) {
	if ctx == nil {
		return
	}
	set := make(map[BuildTarget]struct{}, len(chunk))
	for _, t := range chunk {
		set[t] = struct{}{}
	}
	ctx.setTargetSet(set)
}

// ClearContextChunk clears the chunk-targets slot set by
// BeforeChunkBuildStart.
func (s *FSState) ClearContextChunk(ctx *CompileContext) {
	if ctx == nil {
		return
	}
	ctx.setTargetSet(nil)
}

// BeforeNextRoundStart advances ctx's round-overlay pair. On the initial
// round (no existing "next" delta) it synthesizes a fresh current-round
// delta by merging the per-target deltas of every module target in chunk;
// on every later round it simply promotes the previous "next" delta into
// "current". Either way a brand-new empty delta becomes the new "next"
// (spec.md §4.3).
func (s *FSState) BeforeNextRoundStart(ctx *CompileContext, chunk []BuildTarget) {
	if ctx == nil {
		return
	}

	current := ctx.roundDelta(slotNextRoundDelta)
	if current == nil {
		// Initial round: snapshot the chunk's per-target deltas so every
		// builder in the chain sees the same picture for this round.
		deltas := make([]*FilesDelta, 0, len(chunk))
		for _, t := range chunk {
			if t.TargetType().IsModuleBuildTargetType() {
				deltas = append(deltas, s.getOrCreateDelta(t))
			}
		}
		current = MergeFilesDeltas(deltas...)
	}
	ctx.setRoundDelta(slotCurrentRoundDelta, current)
	ctx.setRoundDelta(slotNextRoundDelta, NewFilesDelta())
}

// ClearContextRoundData clears both round-overlay slots on ctx.
func (s *FSState) ClearContextRoundData(ctx *CompileContext) {
	if ctx == nil {
		return
	}
	ctx.setRoundDelta(slotCurrentRoundDelta, nil)
	ctx.setRoundDelta(slotNextRoundDelta, nil)
}

// GetEffectiveFilesDelta returns ctx's current-round overlay delta when
// target is a module build target and the overlay is present; otherwise
// it falls back to target's per-target delta.
func (s *FSState) GetEffectiveFilesDelta(ctx *CompileContext, target BuildTarget) *FilesDelta {
	if ctx != nil && target.TargetType().IsModuleBuildTargetType() {
		if d := ctx.roundDelta(slotCurrentRoundDelta); d != nil {
			return d
		}
	}
	return s.getOrCreateDelta(target)
}

// IsMarkedForRecompilation prefers round's overlay delta on ctx if
// present, falling back to rd's target's per-target delta otherwise.
func (s *FSState) IsMarkedForRecompilation(ctx *CompileContext, round CompilationRound, rd BuildRootDescriptor, file string) bool {
	var delta *FilesDelta
	if ctx != nil {
		delta = ctx.roundDelta(roundSlot(round))
	}
	if delta == nil {
		delta = s.getOrCreateDelta(rd.Target())
	}
	return delta.IsMarkedRecompile(rd, file)
}
