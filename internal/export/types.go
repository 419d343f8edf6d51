package export

import "github.com/framecut/framecut-agent/internal/timeline"

type Request struct {
	Format    string `json:"format"`
	OutputDir string `json:"output_dir"`
	Kind      string `json:"kind,omitempty"`
}

type Response struct {
	Status          string   `json:"status"`
	Format          string   `json:"format"`
	OutputPath      string   `json:"output_path"`
	CutCount        int      `json:"cut_count"`
	UnresolvedClips []string `json:"unresolved_clips"`
}

// Cut is one event of a flattened timeline: a span of source media placed at
// a record position. All values are frames at the project rate; source frames
// are relative to the start of the media file.
type Cut struct {
	Name      string
	MediaPath string
	SrcIn     int64
	SrcOut    int64
	RecIn     int64
	RecOut    int64
}

// Cutlist is the JSON export payload: the full lane structure plus the
// flattened cut sequence.
type Cutlist struct {
	Title     string           `json:"title"`
	FrameRate float64          `json:"frame_rate"`
	Tracks    []timeline.Track `json:"tracks"`
	Cuts      []CutJSON        `json:"cuts"`
}

type CutJSON struct {
	Name      string `json:"name"`
	MediaPath string `json:"media_path"`
	SrcIn     int64  `json:"src_in"`
	SrcOut    int64  `json:"src_out"`
	RecIn     int64  `json:"rec_in"`
	RecOut    int64  `json:"rec_out"`
}
