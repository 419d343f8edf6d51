package timeline

// Magnetic snapping. Before collision resolution a proposed move or trim is
// checked against significant frames (clip edges, the playhead, optional
// marks); when a dragged edge lands within the threshold of one, the delta
// is replaced by the exact delta that hits it.

// SnapPoints collects the snap targets of the current state: every clip's
// start and end frame except for excluded clips, the playhead, and any extra
// marks the caller supplies (in/out marks).
func SnapPoints(s State, exclude map[string]struct{}, extra ...int64) []int64 {
	points := make([]int64, 0, len(s.Clips)*2+1+len(extra))
	for _, c := range s.Clips {
		if _, skip := exclude[c.ID]; skip {
			continue
		}
		points = append(points, c.StartFrame, c.EndFrame)
	}
	points = append(points, s.PlayheadFrame)
	points = append(points, extra...)
	return points
}

// SnapDelta adjusts a proposed delta so that, if any moving edge would land
// within threshold frames of a snap point, the delta is replaced by the one
// landing exactly on the nearest such point. Returns the (possibly
// unchanged) delta and whether a snap occurred.
func SnapDelta(delta int64, edges, points []int64, threshold int64) (int64, bool) {
	if threshold <= 0 {
		return delta, false
	}
	bestDist := threshold + 1
	best := delta
	snapped := false
	for _, e := range edges {
		moved := e + delta
		for _, p := range points {
			d := p - moved
			if absFrame(d) <= threshold && absFrame(d) < bestDist {
				bestDist = absFrame(d)
				best = delta + d
				snapped = true
			}
		}
	}
	return best, snapped
}

// SnapFrame snaps a single frame value to the nearest point within
// threshold. Used by the trim engine for edge drags.
func SnapFrame(frame int64, points []int64, threshold int64) (int64, bool) {
	adjusted, snapped := SnapDelta(0, []int64{frame}, points, threshold)
	return frame + adjusted, snapped
}
