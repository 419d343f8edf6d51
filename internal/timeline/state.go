package timeline

import (
	"reflect"
	"sort"
)

// State is the undoable subset of editor state: the live clip set plus the
// cursors that must survive undo (selection and playhead). Presentation-only
// state such as viewport zoom never enters a State. A State is a plain,
// self-contained value so history snapshots and project saves can copy or
// serialize it verbatim.
type State struct {
	FPS           float64  `json:"fps"`
	Clips         []Clip   `json:"clips"`
	SelectedIDs   []string `json:"selected_ids,omitempty"`
	PlayheadFrame int64    `json:"playhead_frame"`
}

// NewState returns an empty state at the given frame rate.
func NewState(fps float64) State {
	if fps <= 0 {
		fps = 30
	}
	return State{FPS: fps}
}

// Clone returns a deep copy of the state, independent of later mutation.
func (s State) Clone() State {
	out := s
	if s.Clips != nil {
		out.Clips = make([]Clip, len(s.Clips))
		for i, c := range s.Clips {
			out.Clips[i] = c.Clone()
		}
	}
	if s.SelectedIDs != nil {
		out.SelectedIDs = make([]string, len(s.SelectedIDs))
		copy(out.SelectedIDs, s.SelectedIDs)
	}
	return out
}

// Equal reports whether two states are structurally identical. Used by the
// history manager to elide no-op transaction groups.
func (s State) Equal(other State) bool {
	return reflect.DeepEqual(s, other)
}

// ClipByID returns the clip with the given id, or false when absent.
func (s State) ClipByID(id string) (Clip, bool) {
	for _, c := range s.Clips {
		if c.ID == id {
			return c, true
		}
	}
	return Clip{}, false
}

// RowClips returns the clips of one kind on one row, sorted by start frame.
// This is the collision domain for placement and trim decisions.
func (s State) RowClips(kind Kind, row int) []Clip {
	var out []Clip
	for _, c := range s.Clips {
		if c.Kind == kind && c.Row == row {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartFrame < out[j].StartFrame })
	return out
}

// KindClips returns all clips of one kind sorted by start frame.
func (s State) KindClips(kind Kind) []Clip {
	var out []Clip
	for _, c := range s.Clips {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartFrame < out[j].StartFrame })
	return out
}

// ClipsAt returns every clip whose interval contains the given frame.
func (s State) ClipsAt(frame int64) []Clip {
	var out []Clip
	for _, c := range s.Clips {
		if c.Contains(frame) {
			out = append(out, c)
		}
	}
	return out
}

// LinkedPartner returns the clip linked to the given clip, or false when the
// clip is not linked or its partner is gone.
func (s State) LinkedPartner(c Clip) (Clip, bool) {
	if !c.Linked || c.LinkedID == "" {
		return Clip{}, false
	}
	return s.ClipByID(c.LinkedID)
}

// MaxEndFrame returns the largest end frame across clips of the given kinds,
// or 0 when none exist. With no kinds it spans the whole clip set.
func (s State) MaxEndFrame(kinds ...Kind) int64 {
	var max int64
	for _, c := range s.Clips {
		if len(kinds) > 0 && !kindIn(c.Kind, kinds) {
			continue
		}
		if c.EndFrame > max {
			max = c.EndFrame
		}
	}
	return max
}

func kindIn(k Kind, kinds []Kind) bool {
	for _, kk := range kinds {
		if kk == k {
			return true
		}
	}
	return false
}

// IsSelected reports whether the clip id is in the current selection.
func (s State) IsSelected(id string) bool {
	for _, sid := range s.SelectedIDs {
		if sid == id {
			return true
		}
	}
	return false
}
