// Package timeline implements the editing core of the Framecut Agent: the
// in-memory clip/track model, collision-free positioning, trim/split/link
// algorithms, and the transactional undo history. All mutation goes through
// the Editor, which serializes operations and keeps the model consistent.
package timeline

import "github.com/google/uuid"

// Kind identifies what a clip holds and which invariants apply to it.
type Kind string

const (
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindImage    Kind = "image"
	KindSubtitle Kind = "subtitle"
	KindText     Kind = "text"
)

// MediaBound reports whether clips of this kind are limited by the duration
// of their underlying source media. Image, subtitle and text clips can be
// extended indefinitely.
func (k Kind) MediaBound() bool {
	return k == KindVideo || k == KindAudio
}

// Valid reports whether k is one of the known clip kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindVideo, KindAudio, KindImage, KindSubtitle, KindText:
		return true
	}
	return false
}

// Clip is a single placed segment on the timeline. Frames are integers with
// EndFrame exclusive. Collisions are only checked between clips of the same
// kind on the same row.
type Clip struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
	Row  int    `json:"row"`

	StartFrame int64 `json:"start_frame"`
	EndFrame   int64 `json:"end_frame"`

	// Source holds an opaque locator for the underlying media, SourceStart
	// the in-point into it in seconds. For media-bound kinds SourceDuration
	// is the immutable total source length in frames; for extensible kinds
	// it simply tracks the current duration.
	Source         string  `json:"source,omitempty"`
	SourceStart    float64 `json:"source_start"`
	SourceDuration int64   `json:"source_duration"`

	// LinkedID pairs a video clip with its extracted-audio clip. The
	// relation is always symmetric or absent.
	LinkedID string `json:"linked_id,omitempty"`
	Linked   bool   `json:"linked,omitempty"`

	// Presentation attributes. Not relevant to placement invariants but
	// carried through every operation.
	Name          string            `json:"name,omitempty"`
	Hidden        bool              `json:"hidden,omitempty"`
	Muted         bool              `json:"muted,omitempty"`
	Color         string            `json:"color,omitempty"`
	Text          string            `json:"text,omitempty"`
	SourcePresent bool              `json:"source_present"`
	Props         map[string]string `json:"props,omitempty"`
	Peaks         []float64         `json:"peaks,omitempty"`
}

// NewID returns a fresh globally unique clip identifier.
func NewID() string {
	return uuid.NewString()
}

// Duration returns the clip's length in frames.
func (c Clip) Duration() int64 {
	return c.EndFrame - c.StartFrame
}

// Contains reports whether frame lies inside the clip's half-open interval.
func (c Clip) Contains(frame int64) bool {
	return frame >= c.StartFrame && frame < c.EndFrame
}

// Overlaps reports whether the two half-open frame intervals intersect.
func (c Clip) Overlaps(start, end int64) bool {
	return c.StartFrame < end && start < c.EndFrame
}

// SourceEnd returns the out-point into the source in seconds implied by the
// clip's placement at the given frame rate.
func (c Clip) SourceEnd(fps float64) float64 {
	return c.SourceStart + float64(c.Duration())/fps
}

// Clone returns a deep copy of the clip. Snapshots must stay independent of
// later mutation, so reference-typed fields are copied.
func (c Clip) Clone() Clip {
	out := c
	if c.Props != nil {
		out.Props = make(map[string]string, len(c.Props))
		for k, v := range c.Props {
			out.Props[k] = v
		}
	}
	if c.Peaks != nil {
		out.Peaks = make([]float64, len(c.Peaks))
		copy(out.Peaks, c.Peaks)
	}
	return out
}
