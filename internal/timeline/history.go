package timeline

import "log/slog"

// Transaction/history manager: two bounded stacks of state snapshots plus a
// grouping mechanism that folds several mutations into one atomic undo step.
// Snapshots carry a monotonic sequence number instead of wall-clock
// timestamps so ordering never depends on the clock.

// Snapshot is one history entry: the state as it was before the action it
// names.
type Snapshot struct {
	Seq   uint64
	Name  string
	State State
}

// History owns the undo and redo stacks. It never mutates live state; the
// Editor feeds it pre-action snapshots and applies whatever Undo/Redo
// return.
type History struct {
	undo       []Snapshot
	redo       []Snapshot
	maxDepth   int
	seq        uint64
	suppressed bool
	group      *openGroup
	logger     *slog.Logger
}

type openGroup struct {
	name     string
	baseline State
}

// NewHistory creates a history manager keeping at most maxDepth undo
// entries; older entries are evicted first.
func NewHistory(maxDepth int, logger *slog.Logger) *History {
	if maxDepth < 1 {
		maxDepth = 1
	}
	return &History{maxDepth: maxDepth, logger: logger}
}

// Record pushes the pre-action state as a new undo entry and clears the redo
// stack. It is a no-op while a group is open (the group baseline already
// covers the action) or while a replay is in progress.
func (h *History) Record(name string, before State) {
	if h.suppressed || h.group != nil {
		return
	}
	h.push(name, before)
}

// BeginGroup captures a baseline snapshot and suppresses individual
// recordings until EndGroup. A nested BeginGroup force-closes the open group
// first; that is logged rather than silently dropped.
func (h *History) BeginGroup(name string, current State) {
	if h.group != nil {
		if h.logger != nil {
			h.logger.Warn("nested transaction group, closing previous", "previous", h.group.name, "next", name)
		}
		h.EndGroup(current)
	}
	h.group = &openGroup{name: name, baseline: current.Clone()}
}

// EndGroup closes the open group. When the current state differs from the
// baseline a single entry holding the baseline is recorded, so undo reverts
// the whole group atomically; an unchanged state records nothing. Returns
// whether an entry was recorded.
func (h *History) EndGroup(current State) bool {
	if h.group == nil {
		return false
	}
	g := h.group
	h.group = nil
	if g.baseline.Equal(current) {
		return false
	}
	h.push(g.name, g.baseline)
	return true
}

// ForceEndGroup discards an open group without recording anything. It exists
// as a recovery path for externally aborted interactions and is a pure state
// reset.
func (h *History) ForceEndGroup() {
	h.group = nil
}

// GroupOpen reports whether a transaction group is in progress.
func (h *History) GroupOpen() bool {
	return h.group != nil
}

// Undo pops the newest undo entry, parks the current state on the redo stack
// and returns the popped snapshot's state. ok is false when the stack is
// empty; that is not an error.
func (h *History) Undo(current State) (State, bool) {
	if len(h.undo) == 0 {
		return State{}, false
	}
	entry := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]

	h.seq++
	h.redo = append(h.redo, Snapshot{Seq: h.seq, Name: entry.Name, State: current.Clone()})

	return entry.State.Clone(), true
}

// Redo is the inverse of Undo.
func (h *History) Redo(current State) (State, bool) {
	if len(h.redo) == 0 {
		return State{}, false
	}
	entry := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]

	h.seq++
	h.undo = append(h.undo, Snapshot{Seq: h.seq, Name: entry.Name, State: current.Clone()})

	return entry.State.Clone(), true
}

// CanUndo reports whether an undo entry is available.
func (h *History) CanUndo() bool {
	return len(h.undo) > 0
}

// CanRedo reports whether a redo entry is available.
func (h *History) CanRedo() bool {
	return len(h.redo) > 0
}

// Depth returns the current number of undo entries.
func (h *History) Depth() int {
	return len(h.undo)
}

// Suppress toggles the replay flag. While set, Record does nothing.
func (h *History) Suppress(on bool) {
	h.suppressed = on
}

func (h *History) push(name string, before State) {
	h.seq++
	h.undo = append(h.undo, Snapshot{Seq: h.seq, Name: name, State: before.Clone()})
	h.redo = nil
	if len(h.undo) > h.maxDepth {
		h.undo = h.undo[len(h.undo)-h.maxDepth:]
	}
}
