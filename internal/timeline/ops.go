package timeline

import "reflect"

// Edit operations. Each validates its inputs, records a pre-action snapshot,
// and expresses its effect through the clip-set replacement primitive. A
// false return means nothing was mutated.

// InsertClip adds a clip to the timeline. The requested StartFrame is a
// wish; the resolver is the sole authority for final placement. An empty id
// is filled in. Returns the placed clip.
func (e *Editor) InsertClip(c Clip) (Clip, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !c.Kind.Valid() || c.EndFrame <= c.StartFrame {
		if e.logger != nil {
			e.logger.Warn("rejecting malformed clip", "kind", string(c.Kind), "start", c.StartFrame, "end", c.EndFrame)
		}
		return Clip{}, false
	}
	if c.ID == "" {
		c.ID = NewID()
	}
	if c.StartFrame < 0 {
		c.EndFrame -= c.StartFrame
		c.StartFrame = 0
	}
	e.record("insert clip")
	placed := e.placeAndAppend(c, nil)
	return placed, true
}

// MoveClip moves one clip toward desiredStart. The resolver may land it
// elsewhere (nearest legal gap, or after the last clip). A linked partner
// receives the identical delta; when that would collide, the pair is bounded
// rigidly instead.
func (e *Editor) MoveClip(id string, desiredStart int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.clipByID(id)
	if !ok {
		e.warnMissing("move", id)
		return false
	}
	partner, hasPartner := e.state.LinkedPartner(c)

	exclude := map[string]struct{}{id: {}}
	if hasPartner {
		exclude[partner.ID] = struct{}{}
	}

	if e.snapEnabled {
		points := SnapPoints(e.state, exclude)
		delta := desiredStart - c.StartFrame
		delta, _ = SnapDelta(delta, []int64{c.StartFrame, c.EndFrame}, points, e.snapThreshold)
		desiredStart = c.StartFrame + delta
	}

	row := e.state.RowClips(c.Kind, c.Row)
	newStart := ResolveStart(desiredStart, c.Duration(), row, map[string]struct{}{id: {}}, nil)
	delta := newStart - c.StartFrame
	if delta == 0 {
		return false
	}

	if hasPartner {
		target := partner.StartFrame + delta
		partnerRow := e.state.RowClips(partner.Kind, partner.Row)
		if target < 0 || !FitsAt(target, partner.Duration(), partnerRow, map[string]struct{}{partner.ID: {}}) {
			delta = GroupDeltaBound(e.state, []string{id, partner.ID}, delta)
			if delta == 0 {
				return false
			}
		}
	}

	e.record("move clip")
	e.shiftClips([]string{c.ID}, delta)
	if hasPartner {
		e.shiftClips([]string{partner.ID}, delta)
	}
	return true
}

// MoveClips moves a cohort by a common delta, bounded so every member stays
// collision-free: the group moves as a rigid body or stops at the first
// blocked member. Linked partners of members join the cohort.
func (e *Editor) MoveClips(ids []string, delta int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	cohort := e.expandWithPartners(ids)
	if len(cohort) == 0 || delta == 0 {
		return false
	}

	if e.snapEnabled {
		exclude := make(map[string]struct{}, len(cohort))
		var edges []int64
		for _, id := range cohort {
			exclude[id] = struct{}{}
			if c, ok := e.clipByID(id); ok {
				edges = append(edges, c.StartFrame, c.EndFrame)
			}
		}
		points := SnapPoints(e.state, exclude)
		delta, _ = SnapDelta(delta, edges, points, e.snapThreshold)
	}

	delta = GroupDeltaBound(e.state, cohort, delta)
	if delta == 0 {
		return false
	}

	e.record("move clips")
	e.shiftClips(cohort, delta)
	return true
}

// ResizeClip drags one or both edges of a clip. Neighbor edges, source
// bounds and the one-frame minimum apply; a linked partner receives the
// identical frame delta on the same edges.
func (e *Editor) ResizeClip(id string, req ResizeRequest) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if req.NewStart == nil && req.NewEnd == nil {
		return false
	}
	c, ok := e.clipByID(id)
	if !ok {
		e.warnMissing("resize", id)
		return false
	}
	partner, hasPartner := e.state.LinkedPartner(c)

	var points []int64
	if e.snapEnabled {
		exclude := map[string]struct{}{id: {}}
		if hasPartner {
			exclude[partner.ID] = struct{}{}
		}
		points = SnapPoints(e.state, exclude)
	}

	resolved := resolveResize(c, e.state.FPS, req, neighborLimits(e.state, c), points, e.snapThreshold)
	if resolved.StartFrame == c.StartFrame && resolved.EndFrame == c.EndFrame {
		return false
	}

	e.record("resize clip")
	e.updateClip(resolved)

	if hasPartner {
		pr := ResizeRequest{}
		if req.NewStart != nil {
			v := partner.StartFrame + (resolved.StartFrame - c.StartFrame)
			pr.NewStart = &v
		}
		if req.NewEnd != nil {
			v := partner.EndFrame + (resolved.EndFrame - c.EndFrame)
			pr.NewEnd = &v
		}
		presolved := resolveResize(partner, e.state.FPS, pr, neighborLimits(e.state, partner), nil, 0)
		e.updateClip(presolved)
	}
	return true
}

// SplitClipAt divides a clip at a frame strictly inside it, replacing it
// with two fresh clips. A linked partner divisible at the same frame is
// split too and the halves re-linked pairwise; otherwise the partner stays
// linked to the first half. Returns the new clips.
func (e *Editor) SplitClipAt(id string, frame int64) ([]Clip, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.clipByID(id)
	if !ok {
		e.warnMissing("split", id)
		return nil, false
	}
	if !Splittable(c, frame) {
		return nil, false
	}
	e.record("split clip")
	added := e.splitLocked(c, frame)
	return added, true
}

// SplitAt splits every clip whose interval contains the frame, optionally
// restricted to the selection (expanded with eligible linked partners).
// Each clip is split exactly once; the whole sweep is one undo step.
// Returns the number of clips split.
func (e *Editor) SplitAt(frame int64, selectionOnly bool) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := map[string]struct{}{}
	var targets []Clip
	for _, c := range e.state.Clips {
		if !Splittable(c, frame) {
			continue
		}
		if selectionOnly && !e.state.IsSelected(c.ID) {
			// Partners of selected clips join the sweep below.
			if p, ok := e.state.LinkedPartner(c); !ok || !e.state.IsSelected(p.ID) {
				continue
			}
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		targets = append(targets, c)
	}
	if len(targets) == 0 {
		return 0
	}

	e.record("split at frame")
	count := 0
	for _, t := range targets {
		// The clip may have been replaced already as the partner of an
		// earlier target.
		current, ok := e.clipByID(t.ID)
		if !ok {
			continue
		}
		e.splitLocked(current, frame)
		count++
	}
	return count
}

// splitLocked performs the split of c (and its divisible partner) at frame.
// Caller holds the mutex and has recorded.
func (e *Editor) splitLocked(c Clip, frame int64) []Clip {
	partner, hasPartner := e.state.LinkedPartner(c)

	left, right, _ := SplitClip(c, frame, e.state.FPS)

	if hasPartner && Splittable(partner, frame) {
		pleft, pright, _ := SplitClip(partner, frame, e.state.FPS)
		link(&left, &pleft)
		link(&right, &pright)
		e.removeByID(map[string]struct{}{c.ID: {}, partner.ID: {}})
		clips := append(e.cloneClips(), left, right, pleft, pright)
		e.replaceClips(clips)
		return []Clip{left, right, pleft, pright}
	}

	if hasPartner {
		// Unsynchronized split: the partner is whole at this frame, so it
		// stays linked to the first half.
		link(&left, &partner)
		e.removeByID(map[string]struct{}{c.ID: {}})
		e.updateClip(partner)
		clips := append(e.cloneClips(), left, right)
		e.replaceClips(clips)
		return []Clip{left, right}
	}

	e.removeByID(map[string]struct{}{c.ID: {}})
	clips := append(e.cloneClips(), left, right)
	e.replaceClips(clips)
	return []Clip{left, right}
}

// LinkClips establishes the symmetric link relation between two clips,
// replacing any link either side had before.
func (e *Editor) LinkClips(aID, bID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if aID == bID {
		return false
	}
	a, okA := e.clipByID(aID)
	b, okB := e.clipByID(bID)
	if !okA || !okB {
		e.warnMissing("link", aID+"/"+bID)
		return false
	}
	e.record("link clips")

	// Clear stale links on previous partners first.
	for _, prev := range []Clip{a, b} {
		if p, ok := e.state.LinkedPartner(prev); ok && p.ID != aID && p.ID != bID {
			p.Linked = false
			p.LinkedID = ""
			e.updateClip(p)
		}
	}

	a, _ = e.clipByID(aID)
	b, _ = e.clipByID(bID)
	link(&a, &b)
	e.updateClip(a)
	e.updateClip(b)
	return true
}

// UnlinkClip breaks a clip's link, clearing both sides. Unlinking an
// unlinked clip is a no-op, not a failure.
func (e *Editor) UnlinkClip(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.clipByID(id)
	if !ok {
		e.warnMissing("unlink", id)
		return false
	}
	partner, hasPartner := e.state.LinkedPartner(c)
	if !c.Linked && !hasPartner {
		return false
	}
	e.record("unlink clip")
	c.Linked = false
	c.LinkedID = ""
	e.updateClip(c)
	if hasPartner {
		partner.Linked = false
		partner.LinkedID = ""
		e.updateClip(partner)
	}
	return true
}

// SetMuted sets a clip's mute flag and propagates it to the linked partner
// so the pair behaves as one muteable unit.
func (e *Editor) SetMuted(id string, muted bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.clipByID(id)
	if !ok {
		e.warnMissing("mute", id)
		return false
	}
	if c.Muted == muted {
		return false
	}
	e.record("mute clip")
	c.Muted = muted
	e.updateClip(c)
	if partner, ok := e.state.LinkedPartner(c); ok {
		partner.Muted = muted
		e.updateClip(partner)
	}
	return true
}

// SetHidden toggles clip visibility.
func (e *Editor) SetHidden(id string, hidden bool) bool {
	return e.updateStyle("hide clip", id, func(c *Clip) { c.Hidden = hidden })
}

// SetColor sets the clip's label color.
func (e *Editor) SetColor(id, color string) bool {
	return e.updateStyle("color clip", id, func(c *Clip) { c.Color = color })
}

// SetText replaces the text payload of a text or subtitle clip.
func (e *Editor) SetText(id, text string) bool {
	return e.updateStyle("edit text", id, func(c *Clip) { c.Text = text })
}

// SetName renames a clip.
func (e *Editor) SetName(id, name string) bool {
	return e.updateStyle("rename clip", id, func(c *Clip) { c.Name = name })
}

// SetProp sets one opaque presentation property.
func (e *Editor) SetProp(id, key, value string) bool {
	return e.updateStyle("set prop", id, func(c *Clip) {
		if c.Props == nil {
			c.Props = map[string]string{}
		}
		c.Props[key] = value
	})
}

func (e *Editor) updateStyle(name, id string, apply func(*Clip)) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.clipByID(id)
	if !ok {
		e.warnMissing(name, id)
		return false
	}
	next := c.Clone()
	apply(&next)
	if reflect.DeepEqual(next, c) {
		return false
	}
	e.record(name)
	e.updateClip(next)
	return true
}

// DuplicateClip produces a structural copy with a fresh id placed after the
// source clip's current end. A linked pair is duplicated as a pair: both
// copies are placed relative to a single unified insertion point so their
// offset is preserved, and the copies are linked to each other.
func (e *Editor) DuplicateClip(id string) ([]Clip, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.clipByID(id)
	if !ok {
		e.warnMissing("duplicate", id)
		return nil, false
	}
	partner, hasPartner := e.state.LinkedPartner(c)

	e.record("duplicate clip")

	if hasPartner {
		base := unifiedInsertionPoint(e.state, c, partner)
		pairStart := c.StartFrame
		if partner.StartFrame < pairStart {
			pairStart = partner.StartFrame
		}
		dupA := duplicateOf(c)
		dupB := duplicateOf(partner)
		shiftTo(&dupA, base+(c.StartFrame-pairStart))
		shiftTo(&dupB, base+(partner.StartFrame-pairStart))
		link(&dupA, &dupB)
		clips := append(e.cloneClips(), dupA, dupB)
		e.replaceClips(clips)
		return []Clip{dupA, dupB}, true
	}

	dup := duplicateOf(c)
	shiftTo(&dup, c.EndFrame)
	anchor := e.state.PlayheadFrame
	placed := e.placeAndAppend(dup, &anchor)
	return []Clip{placed}, true
}

// DeleteClips removes the given clips. Surviving partners are unlinked.
func (e *Editor) DeleteClips(ids []string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	gone := map[string]struct{}{}
	for _, id := range ids {
		if _, ok := e.byID[id]; ok {
			gone[id] = struct{}{}
		}
	}
	if len(gone) == 0 {
		return 0
	}
	e.record("delete clips")
	e.removeByID(gone)
	return len(gone)
}

// CopyClips stores deep copies of the given clips on the clipboard. Reading
// does not touch history.
func (e *Editor) CopyClips(ids []string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	var copies []Clip
	for _, id := range ids {
		if c, ok := e.clipByID(id); ok {
			copies = append(copies, c.Clone())
		}
	}
	if len(copies) == 0 {
		return 0
	}
	e.clipboard = copies
	return len(copies)
}

// CutClips copies then deletes, as one undo step.
func (e *Editor) CutClips(ids []string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	var copies []Clip
	gone := map[string]struct{}{}
	for _, id := range ids {
		if c, ok := e.clipByID(id); ok {
			copies = append(copies, c.Clone())
			gone[id] = struct{}{}
		}
	}
	if len(copies) == 0 {
		return 0
	}
	e.clipboard = copies
	e.record("cut clips")
	e.removeByID(gone)
	return len(copies)
}

// Paste inserts clones of the clipboard near the playhead, preserving the
// clipboard cohort's relative offsets and re-linking pairs that were copied
// together. Returns the pasted clips.
func (e *Editor) Paste() []Clip {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.clipboard) == 0 {
		return nil
	}

	base := e.clipboard[0].StartFrame
	for _, c := range e.clipboard {
		if c.StartFrame < base {
			base = c.StartFrame
		}
	}
	target := e.state.PlayheadFrame
	anchor := e.state.PlayheadFrame

	e.record("paste")

	newID := map[string]string{}
	var pasted []Clip
	for _, src := range e.clipboard {
		c := src.Clone()
		newID[src.ID] = NewID()
		c.ID = newID[src.ID]
		c.Linked = false
		c.LinkedID = ""
		shiftTo(&c, target+(src.StartFrame-base))
		placed := e.placeAndAppend(c, &anchor)
		pasted = append(pasted, placed)
	}

	// Re-link pairs whose both halves were on the clipboard.
	for _, src := range e.clipboard {
		if !src.Linked {
			continue
		}
		idA, okA := newID[src.ID]
		idB, okB := newID[src.LinkedID]
		if !okA || !okB {
			continue
		}
		a, _ := e.clipByID(idA)
		b, _ := e.clipByID(idB)
		if !a.Linked && !b.Linked {
			link(&a, &b)
			e.updateClip(a)
			e.updateClip(b)
		}
	}

	for i, c := range pasted {
		if cur, ok := e.clipByID(c.ID); ok {
			pasted[i] = cur
		}
	}
	return pasted
}

// Helpers below run under the caller's lock.

func (e *Editor) expandWithPartners(ids []string) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(id string) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range ids {
		c, ok := e.clipByID(id)
		if !ok {
			continue
		}
		add(id)
		if p, ok := e.state.LinkedPartner(c); ok {
			add(p.ID)
		}
	}
	return out
}

func (e *Editor) shiftClips(ids []string, delta int64) {
	member := map[string]struct{}{}
	for _, id := range ids {
		member[id] = struct{}{}
	}
	clips := e.cloneClips()
	for i, c := range clips {
		if _, ok := member[c.ID]; ok {
			c.StartFrame += delta
			c.EndFrame += delta
			clips[i] = c
		}
	}
	e.replaceClips(clips)
}

func (e *Editor) cloneClips() []Clip {
	out := make([]Clip, len(e.state.Clips))
	copy(out, e.state.Clips)
	return out
}

func link(a, b *Clip) {
	a.Linked = true
	a.LinkedID = b.ID
	b.Linked = true
	b.LinkedID = a.ID
}

func shiftTo(c *Clip, start int64) {
	d := c.Duration()
	c.StartFrame = start
	c.EndFrame = start + d
}
