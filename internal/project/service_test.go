package project

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/framecut/framecut-agent/internal/db"
	"github.com/framecut/framecut-agent/internal/timeline"
)

func setupTestDB(t *testing.T) (*db.DB, Repository) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	database, err := db.New(dbPath, nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	repo := NewRepository(database.Conn())
	return database, repo
}

func newTestService(t *testing.T) (*Service, func()) {
	database, repo := setupTestDB(t)
	svc := NewService(repo, EditorOptions{UndoDepth: 10, SnapThreshold: 10, SnapEnabled: true}, nil)
	return svc, func() { database.Close() }
}

func TestService_CreateAndOpen(t *testing.T) {
	svc, done := newTestService(t)
	defer done()
	ctx := context.Background()

	p, err := svc.Create(ctx, "Holiday Cut", 25)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.ID == "" {
		t.Error("project.ID is empty")
	}
	if p.FrameRate != 25 {
		t.Errorf("FrameRate = %v, want 25", p.FrameRate)
	}

	cur, editor := svc.Current()
	if cur == nil || cur.ID != p.ID {
		t.Fatal("created project is not the open one")
	}
	if editor.FPS() != 25 {
		t.Errorf("editor FPS = %v, want 25", editor.FPS())
	}

	opened, err := svc.Open(ctx, p.ID)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if opened.Name != "Holiday Cut" {
		t.Errorf("Name = %s, want Holiday Cut", opened.Name)
	}
}

func TestService_Create_Defaults(t *testing.T) {
	svc, done := newTestService(t)
	defer done()

	p, err := svc.Create(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.Name != "Untitled Project" {
		t.Errorf("Name = %s, want Untitled Project", p.Name)
	}
	if p.FrameRate != 30 {
		t.Errorf("FrameRate = %v, want 30", p.FrameRate)
	}
}

func TestService_SaveAndReopenRoundTrip(t *testing.T) {
	svc, done := newTestService(t)
	defer done()
	ctx := context.Background()

	p, err := svc.Create(ctx, "Roundtrip", 30)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, editor := svc.Current()
	placed, ok := editor.InsertClip(timeline.Clip{
		Kind:           timeline.KindVideo,
		StartFrame:     0,
		EndFrame:       120,
		Source:         "beach.mp4",
		SourceDuration: 600,
		Name:           "beach",
	})
	if !ok {
		t.Fatal("InsertClip failed")
	}
	editor.SetPlayhead(60)

	if err := svc.Save(ctx); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := svc.Open(ctx, p.ID); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	_, reopened := svc.Current()

	c, ok := reopened.Clip(placed.ID)
	if !ok {
		t.Fatal("clip missing after reopen")
	}
	if c.EndFrame != 120 || c.Name != "beach" || c.Source != "beach.mp4" {
		t.Errorf("clip did not survive the round trip: %+v", c)
	}
	if reopened.Playhead() != 60 {
		t.Errorf("playhead = %d, want 60", reopened.Playhead())
	}
	if reopened.CanUndo() {
		t.Error("undo history must not be persisted across reopen")
	}
}

func TestService_Open_NotFound(t *testing.T) {
	svc, done := newTestService(t)
	defer done()

	if _, err := svc.Open(context.Background(), "nope"); err == nil {
		t.Error("Open() should fail for unknown project")
	}
}

func TestService_Save_NoProjectOpen(t *testing.T) {
	svc, done := newTestService(t)
	defer done()

	if err := svc.Save(context.Background()); err == nil {
		t.Error("Save() should fail with no project open")
	}
}

func TestService_DeleteClosesOpenProject(t *testing.T) {
	svc, done := newTestService(t)
	defer done()
	ctx := context.Background()

	p, _ := svc.Create(ctx, "Doomed", 30)
	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if cur, _ := svc.Current(); cur != nil {
		t.Error("deleted project still open")
	}
	got, err := svc.repo.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if got != nil {
		t.Error("project row survives deletion")
	}
}

func TestService_EnqueueJob(t *testing.T) {
	svc, done := newTestService(t)
	defer done()
	ctx := context.Background()

	if _, err := svc.EnqueueJob(ctx, JobTypeWaveform, "clip-1", "beach.mp4"); err == nil {
		t.Error("EnqueueJob should fail with no project open")
	}

	p, _ := svc.Create(ctx, "Jobs", 30)

	job, err := svc.EnqueueJob(ctx, JobTypeWaveform, "clip-1", "beach.mp4")
	if err != nil {
		t.Fatalf("EnqueueJob() error = %v", err)
	}
	if job.Status != JobStatusPending || job.ProjectID != p.ID {
		t.Errorf("job = %+v, want pending job on project %s", job, p.ID)
	}

	pending, err := svc.repo.ListPendingJobs(ctx)
	if err != nil {
		t.Fatalf("ListPendingJobs() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != job.ID {
		t.Errorf("pending jobs = %v, want the enqueued one", pending)
	}
}

func TestRepository_JobLifecycle(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()
	ctx := context.Background()

	svc := NewService(repo, EditorOptions{}, nil)
	if _, err := svc.Create(ctx, "Lifecycle", 30); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	job, err := svc.EnqueueJob(ctx, JobTypeTranscribe, "clip-9", "talk.mp4")
	if err != nil {
		t.Fatalf("EnqueueJob() error = %v", err)
	}

	if err := repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, ""); err != nil {
		t.Fatalf("UpdateJobStatus() error = %v", err)
	}
	if err := repo.UpdateJobProgress(ctx, job.ID, 40); err != nil {
		t.Fatalf("UpdateJobProgress() error = %v", err)
	}
	if err := repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "whisper not installed"); err != nil {
		t.Fatalf("UpdateJobStatus() error = %v", err)
	}

	got, err := repo.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.Status != JobStatusFailed || got.Progress != 40 || got.Error != "whisper not installed" {
		t.Errorf("job = %+v", got)
	}

	pending, _ := repo.ListPendingJobs(ctx)
	if len(pending) != 0 {
		t.Errorf("failed job still listed as pending")
	}
}

func TestRepository_Settings(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()
	ctx := context.Background()

	got, err := repo.GetSetting(ctx, "snapping")
	if err != nil {
		t.Fatalf("GetSetting() error = %v", err)
	}
	if got != "" {
		t.Errorf("missing setting = %q, want empty", got)
	}

	if err := repo.SetSetting(ctx, "snapping", "off"); err != nil {
		t.Fatalf("SetSetting() error = %v", err)
	}
	if err := repo.SetSetting(ctx, "snapping", "on"); err != nil {
		t.Fatalf("SetSetting() overwrite error = %v", err)
	}

	got, _ = repo.GetSetting(ctx, "snapping")
	if got != "on" {
		t.Errorf("setting = %q, want on", got)
	}
}

func TestService_CreateUsesConfiguredDefaultFrameRate(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()
	svc := NewService(repo, EditorOptions{UndoDepth: 10, SnapThreshold: 10, DefaultFrameRate: 24}, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, "Defaults", 0)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.FrameRate != 24 {
		t.Errorf("FrameRate = %v, want configured default 24", p.FrameRate)
	}
	_, editor := svc.Current()
	if editor.FPS() != 24 {
		t.Errorf("editor FPS = %v, want 24", editor.FPS())
	}

	// An explicit rate still wins over the configured default.
	p, err = svc.Create(ctx, "Explicit", 60)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.FrameRate != 60 {
		t.Errorf("FrameRate = %v, want 60", p.FrameRate)
	}
}
