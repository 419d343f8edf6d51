package project

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/framecut/framecut-agent/internal/timeline"
)

// EditorOptions carries the tunables handed to every editor the service
// builds.
type EditorOptions struct {
	UndoDepth     int
	SnapThreshold int64
	SnapEnabled   bool

	// DefaultFrameRate applies when a create request carries no frame rate.
	DefaultFrameRate float64
}

// Service owns the open project and its live editor, and persists timeline
// snapshots through the repository. One project is open at a time; the agent
// is a single-seat tool.
type Service struct {
	repo    Repository
	editing EditorOptions
	logger  *slog.Logger

	mu      sync.Mutex
	current *Project
	editor  *timeline.Editor
}

func NewService(repo Repository, editing EditorOptions, logger *slog.Logger) *Service {
	return &Service{repo: repo, editing: editing, logger: logger}
}

// Create makes a new empty project, persists it and opens it.
func (s *Service) Create(ctx context.Context, name string, frameRate float64) (*Project, error) {
	if name == "" {
		name = "Untitled Project"
	}
	if frameRate <= 0 {
		frameRate = s.editing.DefaultFrameRate
	}
	if frameRate <= 0 {
		frameRate = 30
	}

	now := time.Now()
	p := &Project{
		ID:        NewID(),
		Name:      name,
		FrameRate: frameRate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	editor := s.newEditor(frameRate)

	state, err := json.Marshal(editor.State())
	if err != nil {
		return nil, fmt.Errorf("failed to encode initial state: %w", err)
	}
	if err := s.repo.SaveSnapshot(ctx, p.ID, string(state)); err != nil {
		return nil, fmt.Errorf("failed to save initial snapshot: %w", err)
	}

	s.mu.Lock()
	s.current = p
	s.editor = editor
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("project created", "project_id", p.ID, "name", name, "frame_rate", frameRate)
	}
	return p, nil
}

// Open loads a project and its last saved timeline snapshot into a fresh
// editor. The undo history starts empty; history is not persisted.
func (s *Service) Open(ctx context.Context, id string) (*Project, error) {
	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project not found")
	}

	editor := s.newEditor(p.FrameRate)

	raw, err := s.repo.GetSnapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if raw != "" {
		var state timeline.State
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot: %w", err)
		}
		editor.Restore(state)
	}

	s.mu.Lock()
	s.current = p
	s.editor = editor
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("project opened", "project_id", p.ID, "name", p.Name)
	}
	return p, nil
}

// Save persists the open project's current timeline state.
func (s *Service) Save(ctx context.Context) error {
	s.mu.Lock()
	p, editor := s.current, s.editor
	s.mu.Unlock()
	if p == nil {
		return fmt.Errorf("no project open")
	}

	state, err := json.Marshal(editor.State())
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := s.repo.SaveSnapshot(ctx, p.ID, string(state)); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("project saved", "project_id", p.ID)
	}
	return nil
}

// Current returns the open project and its editor, or nil when none is open.
func (s *Service) Current() (*Project, *timeline.Editor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.editor
}

func (s *Service) List(ctx context.Context) ([]*Project, error) {
	return s.repo.ListProjects(ctx)
}

func (s *Service) Rename(ctx context.Context, id, name string) error {
	if name == "" {
		return fmt.Errorf("project name must not be empty")
	}
	if err := s.repo.RenameProject(ctx, id, name); err != nil {
		return err
	}
	s.mu.Lock()
	if s.current != nil && s.current.ID == id {
		s.current.Name = name
	}
	s.mu.Unlock()
	return nil
}

// Delete removes a project and its snapshot. Deleting the open project
// closes it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	if s.current != nil && s.current.ID == id {
		s.current = nil
		s.editor = nil
	}
	s.mu.Unlock()
	return nil
}

// EnqueueJob records a pending background job against the open project.
func (s *Service) EnqueueJob(ctx context.Context, jobType, clipID, payload string) (*Job, error) {
	s.mu.Lock()
	p := s.current
	s.mu.Unlock()
	if p == nil {
		return nil, fmt.Errorf("no project open")
	}

	now := time.Now()
	job := &Job{
		ID:        NewID(),
		ProjectID: p.ID,
		ClipID:    clipID,
		Type:      jobType,
		Status:    JobStatusPending,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("job enqueued", "job_id", job.ID, "type", jobType, "clip_id", clipID)
	}
	return job, nil
}

func (s *Service) Jobs(ctx context.Context, limit int) ([]*Job, error) {
	return s.repo.ListJobs(ctx, limit)
}

func (s *Service) Job(ctx context.Context, id string) (*Job, error) {
	return s.repo.GetJob(ctx, id)
}

func (s *Service) newEditor(frameRate float64) *timeline.Editor {
	return timeline.NewEditor(timeline.Options{
		FPS:           frameRate,
		UndoDepth:     s.editing.UndoDepth,
		SnapThreshold: s.editing.SnapThreshold,
		SnapEnabled:   s.editing.SnapEnabled,
		Logger:        s.logger,
	})
}
