package api

import (
	"time"

	"github.com/framecut/framecut-agent/internal/project"
	"github.com/framecut/framecut-agent/internal/timeline"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
	AgentID string `json:"agent_id"`
}

type StatusResponse struct {
	State       string                  `json:"state"`
	LastError   string                  `json:"last_error,omitempty"`
	Project     *ProjectResponse        `json:"project,omitempty"`
	ClipCount   int                     `json:"clip_count"`
	JobsRunning int                     `json:"jobs_running"`
	ActiveJob   *JobResponse            `json:"active_job,omitempty"`
	Pipelines   *PipelineStatusResponse `json:"pipelines,omitempty"`
}

type PipelineStatusResponse struct {
	HasWaveform   bool   `json:"has_waveform"`
	HasTranscribe bool   `json:"has_transcribe"`
	LastProbeAt   string `json:"last_probe_at,omitempty"`
	DepsAvail     int    `json:"deps_available"`
	DepsTotal     int    `json:"deps_total"`
}

type ProjectResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	FrameRate float64 `json:"frame_rate"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type ProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type CreateProjectRequest struct {
	Name      string  `json:"name,omitempty"`
	FrameRate float64 `json:"frame_rate,omitempty"`
}

type RenameProjectRequest struct {
	Name string `json:"name"`
}

// TimelineResponse is the full editor view the frontend renders from.
type TimelineResponse struct {
	FPS           float64          `json:"fps"`
	Tracks        []timeline.Track `json:"tracks"`
	SelectedIDs   []string         `json:"selected_ids"`
	PlayheadFrame int64            `json:"playhead_frame"`
	CanUndo       bool             `json:"can_undo"`
	CanRedo       bool             `json:"can_redo"`
}

type InsertClipRequest struct {
	Kind       string `json:"kind"`
	Row        int    `json:"row"`
	StartFrame int64  `json:"start_frame"`
	EndFrame   int64  `json:"end_frame"`
	Source     string `json:"source,omitempty"`
	Name       string `json:"name,omitempty"`
	Text       string `json:"text,omitempty"`
}

type MoveClipRequest struct {
	StartFrame int64 `json:"start_frame"`
}

type MoveClipsRequest struct {
	IDs   []string `json:"ids"`
	Delta int64    `json:"delta"`
}

type ResizeClipRequest struct {
	NewStart *int64 `json:"new_start,omitempty"`
	NewEnd   *int64 `json:"new_end,omitempty"`
}

type SplitClipRequest struct {
	Frame int64 `json:"frame"`
}

type SplitAtRequest struct {
	Frame         int64 `json:"frame"`
	SelectionOnly bool  `json:"selection_only,omitempty"`
}

type LinkClipsRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

// UpdateClipRequest carries the styling fields; nil fields stay untouched.
type UpdateClipRequest struct {
	Muted  *bool             `json:"muted,omitempty"`
	Hidden *bool             `json:"hidden,omitempty"`
	Color  *string           `json:"color,omitempty"`
	Text   *string           `json:"text,omitempty"`
	Name   *string           `json:"name,omitempty"`
	Props  map[string]string `json:"props,omitempty"`
}

type ClipIDsRequest struct {
	IDs []string `json:"ids"`
}

type PlayheadRequest struct {
	Frame int64 `json:"frame"`
}

type SnappingRequest struct {
	Enabled bool `json:"enabled"`
}

type GroupRequest struct {
	Name string `json:"name,omitempty"`
}

type ImportRequest struct {
	Path string `json:"path"`
}

type ImportResponse struct {
	JobID string `json:"job_id"`
}

type ClipsResponse struct {
	Clips []timeline.Clip `json:"clips"`
}

type OpResponse struct {
	Applied bool `json:"applied"`
}

type CountResponse struct {
	Count int `json:"count"`
}

type JobResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	ClipID    string `json:"clip_id,omitempty"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ProjectToResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		FrameRate: p.FrameRate,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

func JobToResponse(j *project.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		ProjectID: j.ProjectID,
		ClipID:    j.ClipID,
		Type:      j.Type,
		Status:    j.Status,
		Progress:  j.Progress,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}
