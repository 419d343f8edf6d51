package timeline

import (
	"log/slog"
	"sort"
	"sync"
)

// Editor owns the live timeline state and is the single mutation entry
// point. Every operation runs under one mutex, which is the Go rendition of
// the single-threaded editing loop this model assumes: operations are
// strictly serialized, so collaborator callbacks racing with user edits
// still see a consistent clip set.
//
// Caller misuse (unknown clip id, frame outside any clip) never mutates and
// is reported by a false return, logged for diagnostics. Invariant trouble
// (overlap, out-of-bounds trim) is resolved before mutation, never surfaced.
type Editor struct {
	mu      sync.Mutex
	state   State
	byID    map[string]int
	history *History

	clipboard []Clip

	snapEnabled   bool
	snapThreshold int64

	logger *slog.Logger
}

// Options configures a new Editor.
type Options struct {
	FPS           float64
	UndoDepth     int
	SnapThreshold int64
	SnapEnabled   bool
	Logger        *slog.Logger
}

// NewEditor creates an editor with an empty timeline.
func NewEditor(opts Options) *Editor {
	if opts.UndoDepth < 1 {
		opts.UndoDepth = 100
	}
	if opts.SnapThreshold <= 0 {
		opts.SnapThreshold = 10
	}
	e := &Editor{
		state:         NewState(opts.FPS),
		history:       NewHistory(opts.UndoDepth, opts.Logger),
		snapEnabled:   opts.SnapEnabled,
		snapThreshold: opts.SnapThreshold,
		logger:        opts.Logger,
	}
	e.rebuildIndex()
	return e
}

// State returns a deep copy of the current state, safe to hold across later
// mutations. This is also the self-contained value persisted on save.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Restore replaces the whole state, e.g. when opening a saved project. The
// history is not cleared; restoring is itself not an undoable action.
func (e *Editor) Restore(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setState(s.Clone())
}

// FPS returns the project frame rate.
func (e *Editor) FPS() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.FPS
}

// Clip returns the clip with the given id.
func (e *Editor) Clip(id string) (Clip, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clipByID(id)
}

// Track is the read-only, time-ordered clip list of one kind/row pair, the
// contract handed to the export collaborator. The core guarantees the clips
// never overlap, so the export side never resolves conflicts.
type Track struct {
	Kind  Kind   `json:"kind"`
	Row   int    `json:"row"`
	Clips []Clip `json:"clips"`
}

// Tracks returns every non-empty (kind, row) lane, clips sorted by start.
func (e *Editor) Tracks() []Track {
	e.mu.Lock()
	defer e.mu.Unlock()

	type lane struct {
		kind Kind
		row  int
	}
	seen := map[lane]bool{}
	var lanes []lane
	for _, c := range e.state.Clips {
		l := lane{c.Kind, c.Row}
		if !seen[l] {
			seen[l] = true
			lanes = append(lanes, l)
		}
	}
	sort.Slice(lanes, func(i, j int) bool {
		if lanes[i].kind != lanes[j].kind {
			return lanes[i].kind < lanes[j].kind
		}
		return lanes[i].row < lanes[j].row
	})

	out := make([]Track, 0, len(lanes))
	for _, l := range lanes {
		clips := e.state.RowClips(l.kind, l.row)
		for i := range clips {
			clips[i] = clips[i].Clone()
		}
		out = append(out, Track{Kind: l.kind, Row: l.row, Clips: clips})
	}
	return out
}

// SetPlayhead moves the playhead cursor. Cursor motion is not recorded as an
// undoable action; it is captured as part of the snapshots of real actions.
func (e *Editor) SetPlayhead(frame int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if frame < 0 {
		frame = 0
	}
	e.state.PlayheadFrame = frame
}

// Playhead returns the playhead frame.
func (e *Editor) Playhead() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.PlayheadFrame
}

// Select replaces the selection with the given ids, dropping unknown ones.
func (e *Editor) Select(ids []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var kept []string
	for _, id := range ids {
		if _, ok := e.byID[id]; ok {
			kept = append(kept, id)
		}
	}
	e.state.SelectedIDs = kept
}

// SetSnapping toggles magnetic snapping for subsequent moves and trims.
func (e *Editor) SetSnapping(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snapEnabled = enabled
}

// Undo/redo surface.

// Undo reverts the newest recorded action. No-op when the stack is empty.
func (e *Editor) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Suppress(true)
	defer e.history.Suppress(false)
	st, ok := e.history.Undo(e.state)
	if !ok {
		return false
	}
	e.setState(st)
	return true
}

// Redo re-applies the newest undone action. No-op when the stack is empty.
func (e *Editor) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Suppress(true)
	defer e.history.Suppress(false)
	st, ok := e.history.Redo(e.state)
	if !ok {
		return false
	}
	e.setState(st)
	return true
}

// CanUndo reports whether an undo entry is available.
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

// CanRedo reports whether a redo entry is available.
func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// BeginGroup opens a transaction group: subsequent mutations fold into one
// atomic undo step when EndGroup closes it.
func (e *Editor) BeginGroup(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.BeginGroup(name, e.state)
}

// EndGroup closes the open group, recording one entry unless nothing
// changed. Returns whether an entry was recorded.
func (e *Editor) EndGroup() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.EndGroup(e.state)
}

// ForceEndGroup discards an open group without recording; recovery path for
// externally aborted interactions.
func (e *Editor) ForceEndGroup() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.ForceEndGroup()
}

// Collaborator callbacks. These re-enter the standard mutation path and are
// serialized like every user edit.

// ApplyPeaks attaches waveform peaks to a clip as presentation metadata.
func (e *Editor) ApplyPeaks(id string, peaks []float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.clipByID(id)
	if !ok {
		e.warnMissing("apply peaks", id)
		return false
	}
	e.record("waveform")
	c.Peaks = make([]float64, len(peaks))
	copy(c.Peaks, peaks)
	e.updateClip(c)
	return true
}

// ApplyExtractedAudio re-binds a clip to the standalone audio file extracted
// from its container, so downstream pipelines and streaming read the audio
// directly.
func (e *Editor) ApplyExtractedAudio(id, source string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.clipByID(id)
	if !ok {
		e.warnMissing("apply extracted audio", id)
		return false
	}
	e.record("extract audio")
	c.Source = source
	c.SourcePresent = true
	e.updateClip(c)
	return true
}

// SetSourcePresent flips source availability on every clip referencing the
// given source locator. Driven by the media watcher; not undoable.
func (e *Editor) SetSourcePresent(source string, present bool) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	clips := make([]Clip, len(e.state.Clips))
	copy(clips, e.state.Clips)
	n := 0
	for i, c := range clips {
		if c.Source == source && c.SourcePresent != present {
			c.SourcePresent = present
			clips[i] = c
			n++
		}
	}
	if n > 0 {
		e.replaceClips(clips)
	}
	return n
}

// SubtitleCue is one transcription result destined to become a subtitle
// clip.
type SubtitleCue struct {
	StartFrame int64  `json:"start_frame"`
	EndFrame   int64  `json:"end_frame"`
	Text       string `json:"text"`
	Row        int    `json:"row"`
}

// InsertSubtitles places a batch of transcription cues as subtitle clips in
// one grouped transaction, so the whole batch undoes atomically. Returns the
// number inserted.
func (e *Editor) InsertSubtitles(cues []SubtitleCue) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(cues) == 0 {
		return 0
	}
	e.history.BeginGroup("transcription", e.state)
	n := 0
	for _, cue := range cues {
		if cue.EndFrame <= cue.StartFrame {
			continue
		}
		c := Clip{
			ID:             NewID(),
			Kind:           KindSubtitle,
			Row:            cue.Row,
			StartFrame:     cue.StartFrame,
			EndFrame:       cue.EndFrame,
			SourceDuration: cue.EndFrame - cue.StartFrame,
			Text:           cue.Text,
			SourcePresent:  true,
		}
		e.placeAndAppend(c, nil)
		n++
	}
	e.history.EndGroup(e.state)
	return n
}

// Internal helpers. Callers hold the mutex.

func (e *Editor) clipByID(id string) (Clip, bool) {
	i, ok := e.byID[id]
	if !ok {
		return Clip{}, false
	}
	return e.state.Clips[i], true
}

// replaceClips is the single mutation primitive: every higher-level
// operation expresses its effect as a full clip-set replacement.
func (e *Editor) replaceClips(clips []Clip) {
	e.state.Clips = clips
	e.rebuildIndex()
}

func (e *Editor) setState(s State) {
	e.state = s
	e.rebuildIndex()
}

func (e *Editor) rebuildIndex() {
	e.byID = make(map[string]int, len(e.state.Clips))
	for i, c := range e.state.Clips {
		e.byID[c.ID] = i
	}
}

func (e *Editor) updateClip(c Clip) {
	clips := make([]Clip, len(e.state.Clips))
	copy(clips, e.state.Clips)
	if i, ok := e.byID[c.ID]; ok {
		clips[i] = c
	}
	e.replaceClips(clips)
}

func (e *Editor) appendClip(c Clip) {
	clips := make([]Clip, len(e.state.Clips), len(e.state.Clips)+1)
	copy(clips, e.state.Clips)
	e.replaceClips(append(clips, c))
}

func (e *Editor) removeByID(ids map[string]struct{}) {
	clips := make([]Clip, 0, len(e.state.Clips))
	for _, c := range e.state.Clips {
		if _, gone := ids[c.ID]; gone {
			continue
		}
		// A surviving partner of a deleted clip loses its link.
		if c.Linked {
			if _, gone := ids[c.LinkedID]; gone {
				c.Linked = false
				c.LinkedID = ""
			}
		}
		clips = append(clips, c)
	}
	e.replaceClips(clips)

	var kept []string
	for _, id := range e.state.SelectedIDs {
		if _, gone := ids[id]; !gone {
			kept = append(kept, id)
		}
	}
	e.state.SelectedIDs = kept
}

// placeAndAppend resolves a collision-free start for c and appends it.
func (e *Editor) placeAndAppend(c Clip, anchor *int64) Clip {
	row := e.state.RowClips(c.Kind, c.Row)
	start := ResolveStart(c.StartFrame, c.Duration(), row, nil, anchor)
	shift := start - c.StartFrame
	c.StartFrame += shift
	c.EndFrame += shift
	e.appendClip(c)
	return c
}

func (e *Editor) record(name string) {
	e.history.Record(name, e.state)
}

func (e *Editor) warnMissing(op, id string) {
	if e.logger != nil {
		e.logger.Warn("operation on unknown clip", "op", op, "clip_id", id)
	}
}
