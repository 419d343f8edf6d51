package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/framecut/framecut-agent/internal/config"
	"github.com/framecut/framecut-agent/internal/project"
	"github.com/framecut/framecut-agent/internal/timeline"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Get("/projects", listProjectsHandler(cfg))
		r.Post("/projects", createProjectHandler(cfg))
		r.Post("/projects/{id}/open", openProjectHandler(cfg))
		r.Patch("/projects/{id}", renameProjectHandler(cfg))
		r.Delete("/projects/{id}", deleteProjectHandler(cfg))
		r.Post("/project/save", saveProjectHandler(cfg))

		r.Get("/timeline", timelineHandler(cfg))
		r.Post("/timeline/clips", insertClipHandler(cfg))
		r.Post("/timeline/clips/move", moveClipsHandler(cfg))
		r.Post("/timeline/clips/link", linkClipsHandler(cfg))
		r.Post("/timeline/clips/{id}/move", moveClipHandler(cfg))
		r.Post("/timeline/clips/{id}/resize", resizeClipHandler(cfg))
		r.Post("/timeline/clips/{id}/split", splitClipHandler(cfg))
		r.Post("/timeline/clips/{id}/duplicate", duplicateClipHandler(cfg))
		r.Post("/timeline/clips/{id}/unlink", unlinkClipHandler(cfg))
		r.Patch("/timeline/clips/{id}", updateClipHandler(cfg))
		r.Delete("/timeline/clips", deleteClipsHandler(cfg))
		r.Post("/timeline/split", splitAtHandler(cfg))
		r.Post("/timeline/clipboard/copy", copyClipsHandler(cfg))
		r.Post("/timeline/clipboard/cut", cutClipsHandler(cfg))
		r.Post("/timeline/clipboard/paste", pasteHandler(cfg))
		r.Post("/timeline/selection", selectionHandler(cfg))
		r.Post("/timeline/playhead", playheadHandler(cfg))
		r.Post("/timeline/snapping", snappingHandler(cfg))
		r.Post("/timeline/undo", undoHandler(cfg))
		r.Post("/timeline/redo", redoHandler(cfg))
		r.Post("/timeline/groups/begin", beginGroupHandler(cfg))
		r.Post("/timeline/groups/end", endGroupHandler(cfg))

		r.Post("/timeline/clips/{id}/transcribe", transcribeClipHandler(cfg))

		r.Post("/import", importHandler(cfg))
		r.Post("/export", exportHandler(cfg))

		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))
		r.Post("/jobs/pause", pauseJobsHandler(cfg))
		r.Post("/jobs/resume", resumeJobsHandler(cfg))

		r.Get("/stream", streamHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: config.Version,
			UptimeS: uptime,
			AgentID: cfg.AgentID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		p, editor := cfg.Projects.Current()
		jobs, _ := cfg.Repository.ListJobs(ctx, 10)

		state := "idle"
		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""

		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		for _, j := range jobs {
			if j.Status == project.JobStatusRunning {
				state = "working"
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			}
			if j.Status == project.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}

		if lastError != "" && state == "idle" {
			state = "error"
		}

		resp := StatusResponse{
			State:       state,
			LastError:   lastError,
			JobsRunning: jobsRunning,
			ActiveJob:   activeJob,
		}
		if p != nil {
			pr := ProjectToResponse(p)
			resp.Project = &pr
			resp.ClipCount = len(editor.State().Clips)
		}

		if cfg.Doctor != nil {
			if caps := cfg.Doctor.Peek(); caps != nil {
				resp.Pipelines = &PipelineStatusResponse{
					HasWaveform:   caps.HasWaveform,
					HasTranscribe: caps.HasTranscribe,
					LastProbeAt:   caps.ProbedAt.Format(time.RFC3339),
					DepsAvail:     caps.Summary.Available,
					DepsTotal:     caps.Summary.Total,
				}
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := cfg.Projects.List(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
			return
		}

		resp := ProjectsResponse{Projects: make([]ProjectResponse, len(projects))}
		for i, p := range projects {
			resp.Projects[i] = ProjectToResponse(p)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func createProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		p, err := cfg.Projects.Create(r.Context(), req.Name, req.FrameRate)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusCreated, ProjectToResponse(p))
	}
}

func openProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := cfg.Projects.Open(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, ProjectToResponse(p))
	}
}

func renameProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req RenameProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if err := cfg.Projects.Rename(r.Context(), id, req.Name); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := cfg.Projects.Delete(r.Context(), id); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func saveProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Projects.Save(r.Context()); err != nil {
			WriteError(w, http.StatusConflict, err.Error(), "NO_PROJECT")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func importHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ImportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		job, err := cfg.Projects.EnqueueJob(r.Context(), project.JobTypeImport, "", req.Path)
		if err != nil {
			WriteError(w, http.StatusConflict, err.Error(), "NO_PROJECT")
			return
		}
		WriteJSON(w, http.StatusAccepted, ImportResponse{JobID: job.ID})
	}
}

// transcribeClipHandler queues a speech transcription job for one clip. The
// result lands on the timeline as subtitle clips once the runner picks it up.
func transcribeClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		clip, found := editor.Clip(chi.URLParam(r, "id"))
		if !found {
			WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
			return
		}

		job, err := cfg.Projects.EnqueueJob(r.Context(), project.JobTypeTranscribe, clip.ID, clip.Source)
		if err != nil {
			WriteError(w, http.StatusConflict, err.Error(), "NO_PROJECT")
			return
		}
		WriteJSON(w, http.StatusAccepted, JobToResponse(job))
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Repository.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		job, err := cfg.Repository.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func pauseJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Runner == nil {
			WriteError(w, http.StatusConflict, "job runner not configured", "NO_RUNNER")
			return
		}
		cfg.Runner.Pause()
		w.WriteHeader(http.StatusNoContent)
	}
}

func resumeJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Runner == nil {
			WriteError(w, http.StatusConflict, "job runner not configured", "NO_RUNNER")
			return
		}
		cfg.Runner.Resume()
		w.WriteHeader(http.StatusNoContent)
	}
}

func streamHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clipID := r.URL.Query().Get("clip_id")
		if clipID == "" {
			WriteError(w, http.StatusBadRequest, "clip_id is required", "BAD_REQUEST")
			return
		}

		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		clip, found := editor.Clip(clipID)
		if !found {
			WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
			return
		}
		if clip.Source == "" {
			WriteError(w, http.StatusNotFound, "clip has no source media", "NO_SOURCE")
			return
		}
		if !clip.SourcePresent {
			WriteError(w, http.StatusNotFound, "source media is offline", "SOURCE_OFFLINE")
			return
		}

		if err := cfg.Streamer.ServeSource(w, r, clip.Source); err != nil {
			cfg.Logger.Error("stream error", "error", err, "clip_id", clipID)
		}
	}
}

// openEditor fetches the open project's editor, answering 409 when no
// project is open.
func openEditor(cfg ServerConfig, w http.ResponseWriter) (*timeline.Editor, bool) {
	_, editor := cfg.Projects.Current()
	if editor == nil {
		WriteError(w, http.StatusConflict, "no project open", "NO_PROJECT")
		return nil, false
	}
	return editor, true
}
