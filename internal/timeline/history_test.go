package timeline

import "testing"

func stateWithClip(start, end int64) State {
	s := NewState(30)
	s.Clips = []Clip{videoClip("v", start, end)}
	return s
}

func TestHistory_UndoRedoRoundTrip(t *testing.T) {
	h := NewHistory(10, nil)

	before := stateWithClip(0, 100)
	after := stateWithClip(50, 150)

	h.Record("move clip", before)

	got, ok := h.Undo(after)
	if !ok {
		t.Fatal("Undo failed")
	}
	if !got.Equal(before) {
		t.Error("Undo did not return the pre-action state")
	}

	got, ok = h.Redo(before)
	if !ok {
		t.Fatal("Redo failed")
	}
	if !got.Equal(after) {
		t.Error("Redo did not return the undone state")
	}
}

func TestHistory_EmptyStacksAreNoOps(t *testing.T) {
	h := NewHistory(10, nil)
	cur := stateWithClip(0, 100)

	if _, ok := h.Undo(cur); ok {
		t.Error("Undo on empty stack should report false")
	}
	if _, ok := h.Redo(cur); ok {
		t.Error("Redo on empty stack should report false")
	}
	if h.CanUndo() || h.CanRedo() {
		t.Error("empty history reports availability")
	}
}

func TestHistory_RecordClearsRedo(t *testing.T) {
	h := NewHistory(10, nil)
	a := stateWithClip(0, 100)
	b := stateWithClip(10, 110)

	h.Record("first", a)
	if _, ok := h.Undo(b); !ok {
		t.Fatal("Undo failed")
	}
	if !h.CanRedo() {
		t.Fatal("redo should be available after undo")
	}

	h.Record("second", a)
	if h.CanRedo() {
		t.Error("a new recording must clear the redo stack")
	}
}

func TestHistory_DepthTrimsOldestFirst(t *testing.T) {
	h := NewHistory(3, nil)
	for i := int64(0); i < 5; i++ {
		h.Record("edit", stateWithClip(i*10, i*10+100))
	}
	if h.Depth() != 3 {
		t.Fatalf("Depth = %d, want 3", h.Depth())
	}

	// The three survivors are the newest recordings: pre-states 40, 30, 20.
	for _, wantStart := range []int64{40, 30, 20} {
		got, ok := h.Undo(stateWithClip(0, 1))
		if !ok {
			t.Fatal("Undo failed")
		}
		if got.Clips[0].StartFrame != wantStart {
			t.Errorf("undone StartFrame = %d, want %d", got.Clips[0].StartFrame, wantStart)
		}
	}
	if h.CanUndo() {
		t.Error("oldest entries should have been evicted")
	}
}

func TestHistory_SuppressBlocksRecording(t *testing.T) {
	h := NewHistory(10, nil)
	h.Suppress(true)
	h.Record("edit", stateWithClip(0, 100))
	if h.CanUndo() {
		t.Error("Record while suppressed must be a no-op")
	}
	h.Suppress(false)
	h.Record("edit", stateWithClip(0, 100))
	if !h.CanUndo() {
		t.Error("Record after suppression lifted should work")
	}
}

func TestHistory_GroupFoldsIntoOneEntry(t *testing.T) {
	h := NewHistory(10, nil)
	baseline := stateWithClip(0, 100)

	h.BeginGroup("drag", baseline)
	h.Record("ignored", stateWithClip(10, 110))
	h.Record("ignored", stateWithClip(20, 120))
	final := stateWithClip(30, 130)

	if !h.EndGroup(final) {
		t.Fatal("EndGroup recorded nothing despite a net change")
	}
	if h.Depth() != 1 {
		t.Fatalf("Depth = %d, want 1", h.Depth())
	}

	got, _ := h.Undo(final)
	if !got.Equal(baseline) {
		t.Error("undoing the group must restore the baseline, not an intermediate state")
	}
}

func TestHistory_GroupWithNoNetChangeRecordsNothing(t *testing.T) {
	h := NewHistory(10, nil)
	baseline := stateWithClip(0, 100)

	h.BeginGroup("drag", baseline)
	if h.EndGroup(stateWithClip(0, 100)) {
		t.Error("EndGroup recorded an entry for a no-net-change group")
	}
	if h.CanUndo() {
		t.Error("no-op group left an undo entry")
	}
}

func TestHistory_NestedBeginGroupClosesPrevious(t *testing.T) {
	h := NewHistory(10, nil)
	first := stateWithClip(0, 100)
	mid := stateWithClip(10, 110)

	h.BeginGroup("first", first)
	h.BeginGroup("second", mid)

	if h.Depth() != 1 {
		t.Fatalf("Depth = %d, want 1 (first group closed with its net change)", h.Depth())
	}
	if !h.GroupOpen() {
		t.Fatal("second group should be open")
	}

	final := stateWithClip(20, 120)
	if !h.EndGroup(final) {
		t.Fatal("EndGroup of second group failed")
	}
	if h.Depth() != 2 {
		t.Errorf("Depth = %d, want 2", h.Depth())
	}
}

func TestHistory_ForceEndGroupDiscards(t *testing.T) {
	h := NewHistory(10, nil)
	h.BeginGroup("drag", stateWithClip(0, 100))
	h.ForceEndGroup()

	if h.GroupOpen() {
		t.Error("group still open after ForceEndGroup")
	}
	if h.CanUndo() {
		t.Error("ForceEndGroup must not record")
	}

	// A later EndGroup with no group open is a no-op.
	if h.EndGroup(stateWithClip(5, 105)) {
		t.Error("EndGroup without an open group recorded an entry")
	}
}

func TestHistory_SequenceIsMonotonic(t *testing.T) {
	h := NewHistory(10, nil)
	for i := int64(0); i < 3; i++ {
		h.Record("edit", stateWithClip(i, i+100))
	}

	var last uint64
	for h.CanUndo() {
		n := len(h.undo)
		snap := h.undo[n-1]
		if last != 0 && snap.Seq >= last {
			t.Errorf("sequence not monotonic down the stack: %d then %d", last, snap.Seq)
		}
		last = snap.Seq
		h.Undo(stateWithClip(0, 1))
	}
}
