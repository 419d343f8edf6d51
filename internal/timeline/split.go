package timeline

// Split engine. A split replaces one clip with two contiguous successors
// whose concatenated intervals reconstruct the original exactly; the second
// half's in-point advances by the elapsed source time. Both successors carry
// freshly generated ids. Link bookkeeping across a split is handled by the
// Editor, which re-links the resulting halves pairwise.

// SplitClip divides c at the given frame. The frame must lie strictly inside
// the clip's open interval, otherwise ok is false and the inputs are
// returned zeroed. Link flags on the results are cleared; callers re-link.
func SplitClip(c Clip, frame int64, fps float64) (left, right Clip, ok bool) {
	if frame <= c.StartFrame || frame >= c.EndFrame {
		return Clip{}, Clip{}, false
	}

	left = c.Clone()
	left.ID = NewID()
	left.EndFrame = frame
	left.Linked = false
	left.LinkedID = ""
	if !left.Kind.MediaBound() {
		left.SourceDuration = left.Duration()
	}

	right = c.Clone()
	right.ID = NewID()
	right.StartFrame = frame
	right.SourceStart = c.SourceStart + float64(frame-c.StartFrame)/fps
	right.Linked = false
	right.LinkedID = ""
	if !right.Kind.MediaBound() {
		right.SourceDuration = right.Duration()
	}

	return left, right, true
}

// Splittable reports whether the clip can be divided at the frame, i.e. the
// frame lies strictly inside its open interval.
func Splittable(c Clip, frame int64) bool {
	return frame > c.StartFrame && frame < c.EndFrame
}
