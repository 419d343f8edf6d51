package project

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FrameRate float64   `json:"frame_rate"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	JobTypeImport       = "import"
	JobTypeExtractAudio = "extract_audio"
	JobTypeWaveform     = "waveform"
	JobTypeTranscribe   = "transcribe"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job is one queued unit of background media work. Payload carries the
// job-type-specific input (a source path for imports, a clip's source locator
// for waveform and transcription runs).
type Job struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	ClipID    string    `json:"clip_id,omitempty"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	Payload   string    `json:"payload,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewID() string {
	return uuid.NewString()
}
