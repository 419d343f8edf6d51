package timeline

import "sort"

// Positioning and collision resolution. Given a desired placement the
// resolver returns a legal start frame that introduces no same-kind-same-row
// overlap, preferring positions close to the desired start and, secondarily,
// close to an anchor frame (usually the playhead).

const (
	// anchorWindow is the distance in frames within which a candidate earns
	// the anchor proximity bonus.
	anchorWindow = 10
	// anchorBonus scales a candidate's distance score when it lands near the
	// anchor, making it count as 20% closer.
	anchorBonus = 0.8
)

// FitsAt reports whether a clip of the given duration placed at start would
// overlap any clip in clips, ignoring ids in exclude.
func FitsAt(start, duration int64, clips []Clip, exclude map[string]struct{}) bool {
	end := start + duration
	for _, c := range clips {
		if _, skip := exclude[c.ID]; skip {
			continue
		}
		if c.Overlaps(start, end) {
			return false
		}
	}
	return true
}

// ResolveStart returns a legal start frame for a clip of the given duration.
// The desired start wins when it is already collision-free (checked against
// clips minus exclude). Otherwise candidates are enumerated from the gaps of
// the full occupied row: the space before the first clip, each gap wide
// enough between neighbors (biased toward desired, clamped to fit), and the
// position after the last clip as the always-legal fallback. The candidate
// minimizing distance to desired wins; candidates within anchorWindow of
// anchor score 20% closer so pastes land near the playhead.
//
// Note the asymmetry: exclude applies only to the direct fit test. Gap
// enumeration sees the whole row, so a clip being moved still occupies its
// current interval when alternatives are ranked.
func ResolveStart(desired, duration int64, clips []Clip, exclude map[string]struct{}, anchor *int64) int64 {
	if desired < 0 {
		desired = 0
	}
	if duration <= 0 {
		return desired
	}

	if FitsAt(desired, duration, clips, exclude) {
		return desired
	}

	sorted := sortByStart(clips)
	var candidates []int64

	// Gap before the first clip.
	if first := sorted[0]; first.StartFrame >= duration {
		candidates = append(candidates, clampFrame(desired, 0, first.StartFrame-duration))
	}

	// Gaps between consecutive neighbors.
	for i := 0; i < len(sorted)-1; i++ {
		gapStart := sorted[i].EndFrame
		gapEnd := sorted[i+1].StartFrame
		if gapEnd-gapStart >= duration {
			candidates = append(candidates, clampFrame(desired, gapStart, gapEnd-duration))
		}
	}

	// After the last clip, always legal.
	candidates = append(candidates, sorted[len(sorted)-1].EndFrame)

	best := candidates[0]
	bestScore := placementScore(candidates[0], desired, anchor)
	for _, cand := range candidates[1:] {
		if score := placementScore(cand, desired, anchor); score < bestScore {
			best = cand
			bestScore = score
		}
	}
	return best
}

func placementScore(candidate, desired int64, anchor *int64) float64 {
	score := float64(absFrame(candidate - desired))
	if anchor != nil && absFrame(candidate-*anchor) <= anchorWindow {
		score *= anchorBonus
	}
	return score
}

// GroupDeltaBound computes the largest delta with the same sign as the
// requested one that keeps every cohort member collision-free against
// non-cohort clips in its own row, so a multi-selection drag moves as a
// rigid body or stops at the first blocked member.
func GroupDeltaBound(s State, ids []string, delta int64) int64 {
	if delta == 0 {
		return 0
	}
	cohort := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		cohort[id] = struct{}{}
	}

	bounded := delta
	for _, id := range ids {
		c, ok := s.ClipByID(id)
		if !ok {
			continue
		}
		allowed := memberDeltaBound(s, c, cohort, delta)
		if delta > 0 && allowed < bounded {
			bounded = allowed
		}
		if delta < 0 && allowed > bounded {
			bounded = allowed
		}
	}
	return bounded
}

// memberDeltaBound bounds the delta for one clip by its nearest non-cohort
// neighbor in the movement direction, and by frame zero when moving left.
func memberDeltaBound(s State, c Clip, cohort map[string]struct{}, delta int64) int64 {
	allowed := delta
	for _, n := range s.RowClips(c.Kind, c.Row) {
		if _, skip := cohort[n.ID]; skip {
			continue
		}
		if delta > 0 && n.StartFrame >= c.EndFrame {
			if room := n.StartFrame - c.EndFrame; room < allowed {
				allowed = room
			}
		}
		if delta < 0 && n.EndFrame <= c.StartFrame {
			if room := c.StartFrame - n.EndFrame; -room > allowed {
				allowed = -room
			}
		}
	}
	if delta < 0 && -c.StartFrame > allowed {
		allowed = -c.StartFrame
	}
	return allowed
}

func sortByStart(clips []Clip) []Clip {
	out := make([]Clip, len(clips))
	copy(out, clips)
	sort.Slice(out, func(i, j int) bool { return out[i].StartFrame < out[j].StartFrame })
	return out
}

func clampFrame(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absFrame(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
