package export

import (
	"encoding/json"

	"github.com/framecut/framecut-agent/internal/timeline"
)

// GenerateCutlist renders the JSON export: the full lane structure plus the
// flattened video cut sequence, for tools that want more than an EDL carries.
func GenerateCutlist(tracks []timeline.Track, title string, frameRate float64) (string, []string, error) {
	cuts, unresolved := BuildCuts(tracks, timeline.KindVideo, frameRate)

	out := Cutlist{
		Title:     title,
		FrameRate: frameRate,
		Tracks:    tracks,
		Cuts:      make([]CutJSON, 0, len(cuts)),
	}
	for _, c := range cuts {
		out.Cuts = append(out.Cuts, CutJSON{
			Name:      c.Name,
			MediaPath: c.MediaPath,
			SrcIn:     c.SrcIn,
			SrcOut:    c.SrcOut,
			RecIn:     c.RecIn,
			RecOut:    c.RecOut,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", nil, err
	}
	return string(data), unresolved, nil
}
