package timeline

// Duplication helpers. A duplicate is a structural copy with a fresh id and
// cleared link flags; placement is the Editor's job via the resolver. For a
// linked pair the Editor derives a single unified insertion point so the
// pair's relative offset survives the copy.

// duplicateOf returns a structural copy of c with a fresh id. Link flags are
// cleared; the Editor re-links pair duplicates after placement.
func duplicateOf(c Clip) Clip {
	out := c.Clone()
	out.ID = NewID()
	out.Linked = false
	out.LinkedID = ""
	return out
}

// unifiedInsertionPoint returns the frame after which a duplicated linked
// pair is placed: the maximum end frame across the pair itself and every
// existing clip of either member's kind. Placing both duplicates relative to
// this single point keeps their offset intact and guarantees neither side
// collides.
func unifiedInsertionPoint(s State, a, b Clip) int64 {
	point := a.EndFrame
	if b.EndFrame > point {
		point = b.EndFrame
	}
	if m := s.MaxEndFrame(a.Kind, b.Kind); m > point {
		point = m
	}
	return point
}
