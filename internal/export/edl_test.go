package export

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/framecut/framecut-agent/internal/timeline"
)

func videoTrack(clips ...timeline.Clip) []timeline.Track {
	return []timeline.Track{{Kind: timeline.KindVideo, Row: 0, Clips: clips}}
}

func TestBuildCuts_OrdersAndFiltersClips(t *testing.T) {
	tracks := []timeline.Track{
		{Kind: timeline.KindVideo, Row: 1, Clips: []timeline.Clip{
			{ID: "late", Kind: timeline.KindVideo, Row: 1, StartFrame: 300, EndFrame: 400, Source: "/b.mp4", SourcePresent: true},
		}},
		{Kind: timeline.KindVideo, Row: 0, Clips: []timeline.Clip{
			{ID: "early", Kind: timeline.KindVideo, StartFrame: 0, EndFrame: 100, Source: "/a.mp4", SourcePresent: true},
			{ID: "hidden", Kind: timeline.KindVideo, StartFrame: 100, EndFrame: 150, Source: "/a.mp4", SourcePresent: true, Hidden: true},
			{ID: "gone", Kind: timeline.KindVideo, Name: "missing take", StartFrame: 150, EndFrame: 200, Source: "/gone.mp4"},
		}},
		{Kind: timeline.KindAudio, Row: 0, Clips: []timeline.Clip{
			{ID: "aud", Kind: timeline.KindAudio, StartFrame: 0, EndFrame: 100, Source: "/a.mp4", SourcePresent: true},
		}},
	}

	cuts, unresolved := BuildCuts(tracks, timeline.KindVideo, 30)

	if len(cuts) != 2 {
		t.Fatalf("got %d cuts, want 2", len(cuts))
	}
	if cuts[0].Name != "early" || cuts[1].Name != "late" {
		t.Errorf("cut order = %s, %s; want early, late", cuts[0].Name, cuts[1].Name)
	}
	if len(unresolved) != 1 || unresolved[0] != "missing take" {
		t.Errorf("unresolved = %v, want [missing take]", unresolved)
	}
}

func TestBuildCuts_SourceFramesFromInPoint(t *testing.T) {
	tracks := videoTrack(timeline.Clip{
		ID: "c", Kind: timeline.KindVideo,
		StartFrame: 60, EndFrame: 150,
		Source: "/take.mp4", SourceStart: 2, SourcePresent: true,
	})

	cuts, _ := BuildCuts(tracks, timeline.KindVideo, 30)
	if len(cuts) != 1 {
		t.Fatalf("got %d cuts, want 1", len(cuts))
	}
	c := cuts[0]
	// 2s in-point at 30fps: source frames 60..150, record frames 60..150.
	if c.SrcIn != 60 || c.SrcOut != 150 {
		t.Errorf("src = [%d,%d), want [60,150)", c.SrcIn, c.SrcOut)
	}
	if c.RecIn != 60 || c.RecOut != 150 {
		t.Errorf("rec = [%d,%d), want [60,150)", c.RecIn, c.RecOut)
	}
}

func TestGenerateEDL_SingleCut(t *testing.T) {
	cuts := []Cut{{
		Name:      "Intro",
		MediaPath: "/media/intro.mp4",
		SrcIn:     0,
		SrcOut:    60,
		RecIn:     0,
		RecOut:    60,
	}}

	edl := GenerateEDL(cuts, "Project One", 30.0)

	if !strings.Contains(edl, "TITLE: Project One") {
		t.Fatalf("missing title in EDL: %q", edl)
	}
	if !strings.Contains(edl, "FCM: NON-DROP FRAME") {
		t.Fatalf("missing non-drop-frame FCM: %q", edl)
	}
	if !strings.Contains(edl, "001  AX       V     C        00:00:00:00 00:00:02:00 00:00:00:00 00:00:02:00") {
		t.Fatalf("missing event line: %q", edl)
	}
	if !strings.Contains(edl, "* FROM CLIP NAME:  Intro") {
		t.Fatalf("missing clip name comment: %q", edl)
	}
	if !strings.Contains(edl, "* MEDIA PATH:  /media/intro.mp4") {
		t.Fatalf("missing media path comment: %q", edl)
	}
}

func TestGenerateEDL_RecordTimesKeepGaps(t *testing.T) {
	// Second cut starts at frame 90, leaving a one-second gap after the
	// first; the record timecodes must reflect the gap.
	cuts := []Cut{
		{Name: "A", MediaPath: "/a.mp4", SrcIn: 0, SrcOut: 30, RecIn: 0, RecOut: 30},
		{Name: "B", MediaPath: "/b.mp4", SrcIn: 15, SrcOut: 60, RecIn: 90, RecOut: 135},
	}

	edl := GenerateEDL(cuts, "Gaps", 30.0)

	if !strings.Contains(edl, "001  AX       V     C        00:00:00:00 00:00:01:00 00:00:00:00 00:00:01:00") {
		t.Fatalf("first event line mismatch: %q", edl)
	}
	if !strings.Contains(edl, "002  AX       V     C        00:00:00:15 00:00:02:00 00:00:03:00 00:00:04:15") {
		t.Fatalf("second event line mismatch: %q", edl)
	}
}

func TestGenerateEDL_DropFrame(t *testing.T) {
	cuts := []Cut{{Name: "Clip", MediaPath: "/x.mp4", SrcIn: 0, SrcOut: 30, RecIn: 0, RecOut: 30}}
	edl := GenerateEDL(cuts, "Drop", 29.97)

	if !strings.Contains(edl, "FCM: DROP FRAME") {
		t.Fatalf("expected drop frame FCM, got: %q", edl)
	}
}

func TestFramesToTimecode(t *testing.T) {
	tests := []struct {
		name   string
		frames int64
		fps    int
		want   string
	}{
		{name: "zero", frames: 0, fps: 30, want: "00:00:00:00"},
		{name: "one second", frames: 30, fps: 30, want: "00:00:01:00"},
		{name: "fractional second", frames: 15, fps: 30, want: "00:00:00:15"},
		{name: "one minute", frames: 1800, fps: 30, want: "00:01:00:00"},
		{name: "one hour", frames: 108000, fps: 30, want: "01:00:00:00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := framesToTimecode(tc.frames, tc.fps)
			if got != tc.want {
				t.Fatalf("framesToTimecode(%d, %d) = %q, want %q", tc.frames, tc.fps, got, tc.want)
			}
		})
	}
}

func TestGenerateCutlist(t *testing.T) {
	tracks := videoTrack(timeline.Clip{
		ID: "c1", Kind: timeline.KindVideo, Name: "opener",
		StartFrame: 0, EndFrame: 90,
		Source: "/open.mp4", SourcePresent: true,
	})

	out, unresolved, err := GenerateCutlist(tracks, "My Cut", 30)
	if err != nil {
		t.Fatalf("GenerateCutlist() error = %v", err)
	}
	if len(unresolved) != 0 {
		t.Errorf("unresolved = %v, want none", unresolved)
	}

	var decoded Cutlist
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Title != "My Cut" || decoded.FrameRate != 30 {
		t.Errorf("header = %q @ %v", decoded.Title, decoded.FrameRate)
	}
	if len(decoded.Cuts) != 1 || decoded.Cuts[0].Name != "opener" {
		t.Errorf("cuts = %+v", decoded.Cuts)
	}
	if len(decoded.Tracks) != 1 || len(decoded.Tracks[0].Clips) != 1 {
		t.Errorf("tracks = %+v", decoded.Tracks)
	}
}
