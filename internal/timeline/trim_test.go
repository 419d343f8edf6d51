package timeline

import "testing"

func frame(v int64) *int64 { return &v }

// A clip with 300 frames of source at 30fps (10s), in-point 2s, placed
// [60,150). Dragging the right edge to 400 exceeds the available source, so
// the displayed duration clamps to (10-2)s and the timeline edge is pulled
// back to 300 rather than left at the raw drag position.
func TestResolveResize_RightTrimClampsToSource(t *testing.T) {
	c := Clip{
		ID:             "v",
		Kind:           KindVideo,
		StartFrame:     60,
		EndFrame:       150,
		SourceStart:    2,
		SourceDuration: 300,
	}

	out := resolveResize(c, 30, ResizeRequest{NewEnd: frame(400)}, resizeLimits{}, nil, 0)

	if out.EndFrame != 300 {
		t.Errorf("EndFrame = %d, want 300", out.EndFrame)
	}
	if out.StartFrame != 60 {
		t.Errorf("StartFrame = %d, want 60 (right trim must not move the left edge)", out.StartFrame)
	}
	if out.SourceStart != 2 {
		t.Errorf("SourceStart = %v, want 2", out.SourceStart)
	}
}

func TestResolveResize_LeftTrimShiftsInPoint(t *testing.T) {
	c := Clip{
		ID:             "v",
		Kind:           KindVideo,
		StartFrame:     100,
		EndFrame:       200,
		SourceStart:    5,
		SourceDuration: 600,
	}

	tests := []struct {
		name            string
		newStart        int64
		wantStart       int64
		wantSourceStart float64
	}{
		{name: "extend left", newStart: 70, wantStart: 70, wantSourceStart: 4},
		{name: "shrink from left", newStart: 130, wantStart: 130, wantSourceStart: 6},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := resolveResize(c, 30, ResizeRequest{NewStart: frame(tc.newStart)}, resizeLimits{}, nil, 0)
			if out.StartFrame != tc.wantStart {
				t.Errorf("StartFrame = %d, want %d", out.StartFrame, tc.wantStart)
			}
			if out.EndFrame != 200 {
				t.Errorf("EndFrame = %d, want 200 (left trim must not move the right edge)", out.EndFrame)
			}
			if out.SourceStart != tc.wantSourceStart {
				t.Errorf("SourceStart = %v, want %v", out.SourceStart, tc.wantSourceStart)
			}
		})
	}
}

func TestResolveResize_LeftTrimClampsAtSourceHead(t *testing.T) {
	// In-point 0.5s at 30fps = 15 frames of headroom. Dragging far left
	// pins the in-point at zero and pulls the edge back to start-15.
	c := Clip{
		ID:             "v",
		Kind:           KindVideo,
		StartFrame:     100,
		EndFrame:       200,
		SourceStart:    0.5,
		SourceDuration: 600,
	}

	out := resolveResize(c, 30, ResizeRequest{NewStart: frame(0)}, resizeLimits{}, nil, 0)

	if out.StartFrame != 85 {
		t.Errorf("StartFrame = %d, want 85", out.StartFrame)
	}
	if out.SourceStart != 0 {
		t.Errorf("SourceStart = %v, want 0", out.SourceStart)
	}
}

func TestResolveResize_NeighborBoundsEdges(t *testing.T) {
	c := Clip{ID: "v", Kind: KindVideo, StartFrame: 100, EndFrame: 200, SourceStart: 10, SourceDuration: 6000}
	prevEnd := int64(80)
	nextStart := int64(230)
	lim := resizeLimits{prevEnd: &prevEnd, nextStart: &nextStart}

	left := resolveResize(c, 30, ResizeRequest{NewStart: frame(10)}, lim, nil, 0)
	if left.StartFrame != 80 {
		t.Errorf("left trim StartFrame = %d, want 80 (stopped at neighbor)", left.StartFrame)
	}

	right := resolveResize(c, 30, ResizeRequest{NewEnd: frame(500)}, lim, nil, 0)
	if right.EndFrame != 230 {
		t.Errorf("right trim EndFrame = %d, want 230 (stopped at neighbor)", right.EndFrame)
	}
}

func TestResolveResize_SnapsToNeighborEdge(t *testing.T) {
	c := Clip{ID: "v", Kind: KindVideo, StartFrame: 100, EndFrame: 200, SourceStart: 10, SourceDuration: 6000}
	nextStart := int64(230)
	lim := resizeLimits{nextStart: &nextStart}

	// Dragged to 224, within 10 frames of the neighbor edge at 230: snaps
	// exactly to it instead of stopping short.
	out := resolveResize(c, 30, ResizeRequest{NewEnd: frame(224)}, lim, []int64{230}, 10)
	if out.EndFrame != 230 {
		t.Errorf("EndFrame = %d, want 230 (snapped)", out.EndFrame)
	}
}

func TestResolveResize_MinimumOneFrame(t *testing.T) {
	c := Clip{ID: "v", Kind: KindVideo, StartFrame: 100, EndFrame: 200, SourceStart: 0, SourceDuration: 600}

	right := resolveResize(c, 30, ResizeRequest{NewEnd: frame(50)}, resizeLimits{}, nil, 0)
	if right.EndFrame != 101 {
		t.Errorf("collapsing right trim EndFrame = %d, want 101", right.EndFrame)
	}

	left := resolveResize(c, 30, ResizeRequest{NewStart: frame(400)}, resizeLimits{}, nil, 0)
	if left.StartFrame != 199 {
		t.Errorf("collapsing left trim StartFrame = %d, want 199", left.StartFrame)
	}
}

func TestResolveResize_ExtensibleTracksDuration(t *testing.T) {
	c := Clip{ID: "t", Kind: KindText, StartFrame: 0, EndFrame: 90, SourceDuration: 90, Text: "title"}

	out := resolveResize(c, 30, ResizeRequest{NewEnd: frame(900)}, resizeLimits{}, nil, 0)

	if out.EndFrame != 900 {
		t.Errorf("EndFrame = %d, want 900 (no source bound for text)", out.EndFrame)
	}
	if out.SourceDuration != 900 {
		t.Errorf("SourceDuration = %d, want 900 (redefined to track duration)", out.SourceDuration)
	}
}

func TestEditor_ResizeClip_LinkedPartnerGetsSameDelta(t *testing.T) {
	e := NewEditor(Options{FPS: 30})
	v := Clip{ID: "v", Kind: KindVideo, StartFrame: 0, EndFrame: 300, SourceDuration: 600, Source: "a.mp4"}
	a := Clip{ID: "a", Kind: KindAudio, StartFrame: 0, EndFrame: 300, SourceDuration: 600, Source: "a.mp4"}
	mustInsert(t, e, v)
	mustInsert(t, e, a)
	if !e.LinkClips("v", "a") {
		t.Fatal("LinkClips failed")
	}

	if !e.ResizeClip("v", ResizeRequest{NewEnd: frame(240)}) {
		t.Fatal("ResizeClip failed")
	}

	video, _ := e.Clip("v")
	audio, _ := e.Clip("a")
	if video.EndFrame != 240 {
		t.Errorf("video EndFrame = %d, want 240", video.EndFrame)
	}
	if audio.EndFrame != 240 {
		t.Errorf("linked audio EndFrame = %d, want 240", audio.EndFrame)
	}
}

func TestEditor_ResizeClip_UnknownID(t *testing.T) {
	e := NewEditor(Options{FPS: 30})
	if e.ResizeClip("ghost", ResizeRequest{NewEnd: frame(10)}) {
		t.Error("resize of unknown clip should return false")
	}
	if e.CanUndo() {
		t.Error("failed resize must not record history")
	}
}
