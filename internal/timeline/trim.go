package timeline

import "math"

// Trim/resize engine. An edge drag resolves to a final placement that
// respects, in order: magnetic snapping, the edges of row neighbors, the
// bounds of the underlying source media (media-bound kinds only), and a
// one-frame minimum duration. When a source clamp is hit the timeline edge
// is pulled back to match, so a resize never silently turns into a move.

// ResizeRequest names the edges being dragged. A nil edge is untouched.
type ResizeRequest struct {
	NewStart *int64
	NewEnd   *int64
}

// resizeLimits carries the row-neighbor bounds for one clip: the end frame
// of the previous neighbor and the start frame of the next, when they exist.
type resizeLimits struct {
	prevEnd   *int64
	nextStart *int64
}

// neighborLimits finds the limits imposed on c by the other clips in its
// collision domain.
func neighborLimits(s State, c Clip) resizeLimits {
	var lim resizeLimits
	for _, n := range s.RowClips(c.Kind, c.Row) {
		if n.ID == c.ID {
			continue
		}
		if n.EndFrame <= c.StartFrame {
			if lim.prevEnd == nil || n.EndFrame > *lim.prevEnd {
				end := n.EndFrame
				lim.prevEnd = &end
			}
		}
		if n.StartFrame >= c.EndFrame {
			if lim.nextStart == nil || n.StartFrame < *lim.nextStart {
				start := n.StartFrame
				lim.nextStart = &start
			}
		}
	}
	return lim
}

// resolveResize computes the clip resulting from the requested edge drags.
// snapPoints may be nil when snapping is disabled.
func resolveResize(c Clip, fps float64, req ResizeRequest, lim resizeLimits, snapPoints []int64, snapThreshold int64) Clip {
	out := c.Clone()

	if req.NewStart != nil {
		out = resolveLeftTrim(out, fps, *req.NewStart, lim, snapPoints, snapThreshold)
	}
	if req.NewEnd != nil {
		out = resolveRightTrim(out, fps, *req.NewEnd, lim, snapPoints, snapThreshold)
	}
	return out
}

func resolveLeftTrim(c Clip, fps float64, newStart int64, lim resizeLimits, snapPoints []int64, snapThreshold int64) Clip {
	if snapPoints != nil {
		newStart, _ = SnapFrame(newStart, snapPoints, snapThreshold)
	}

	lo := int64(0)
	if lim.prevEnd != nil && *lim.prevEnd > lo {
		lo = *lim.prevEnd
	}
	newStart = clampFrame(newStart, lo, c.EndFrame-1)

	if c.Kind.MediaBound() {
		deltaSec := float64(newStart-c.StartFrame) / fps
		sourceStart := c.SourceStart + deltaSec
		if sourceStart < 0 {
			// Extending past the head of the source: pin the in-point at
			// zero and pull the timeline edge back to match.
			sourceStart = 0
			newStart = c.StartFrame - int64(math.Round(c.SourceStart*fps))
		}
		c.SourceStart = sourceStart
	}

	c.StartFrame = newStart
	if !c.Kind.MediaBound() {
		c.SourceDuration = c.Duration()
	}
	return c
}

func resolveRightTrim(c Clip, fps float64, newEnd int64, lim resizeLimits, snapPoints []int64, snapThreshold int64) Clip {
	if snapPoints != nil {
		newEnd, _ = SnapFrame(newEnd, snapPoints, snapThreshold)
	}

	if lim.nextStart != nil && newEnd > *lim.nextStart {
		newEnd = *lim.nextStart
	}
	if newEnd < c.StartFrame+1 {
		newEnd = c.StartFrame + 1
	}

	if c.Kind.MediaBound() {
		sourceSeconds := float64(c.SourceDuration) / fps
		impliedEnd := c.SourceStart + float64(newEnd-c.StartFrame)/fps
		if impliedEnd > sourceSeconds {
			// Out-point past the tail of the source: clamp the displayed
			// duration and pull the timeline edge back to match.
			maxDur := int64(math.Round((sourceSeconds - c.SourceStart) * fps))
			if maxDur < 1 {
				maxDur = 1
			}
			newEnd = c.StartFrame + maxDur
		}
	}

	c.EndFrame = newEnd
	if !c.Kind.MediaBound() {
		c.SourceDuration = c.Duration()
	}
	return c
}
