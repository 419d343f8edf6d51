package media

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/framecut/framecut-agent/internal/pipelines"
	"github.com/framecut/framecut-agent/internal/project"
	"github.com/framecut/framecut-agent/internal/timeline"
)

// Runner drains the background job queue: imports, waveform extraction and
// speech transcription. One job at a time; results land on the open
// project's timeline through the editor's collaborator callbacks.
type Runner struct {
	projects      *project.Service
	repo          project.Repository
	importer      *Importer
	pipeRunner    pipelines.Runner
	doctor        *pipelines.CachedDoctor
	logger        *slog.Logger
	watcher       *SourceWatcher
	artifactsBase string
	pollInterval  time.Duration
	running       atomic.Bool
	paused        atomic.Bool
}

func NewRunner(projects *project.Service, repo project.Repository, importer *Importer, pipeRunner pipelines.Runner, doctor *pipelines.CachedDoctor, logger *slog.Logger) *Runner {
	return &Runner{
		projects:     projects,
		repo:         repo,
		importer:     importer,
		pipeRunner:   pipeRunner,
		doctor:       doctor,
		logger:       logger,
		pollInterval: 5 * time.Second,
	}
}

// SetWatcher registers a source watcher; imported media files are tracked
// so the timeline reflects sources going offline. Must be called before
// Start.
func (r *Runner) SetWatcher(w *SourceWatcher) {
	r.watcher = w
}

// SetArtifactsDir sets where audio extraction writes its output. Falls back
// to the pipeline runner's artifacts directory when unset.
func (r *Runner) SetArtifactsDir(dir string) {
	r.artifactsBase = dir
}

func (r *Runner) artifactsDir() string {
	if r.artifactsBase != "" {
		return r.artifactsBase
	}
	if r.pipeRunner != nil {
		return r.pipeRunner.ArtifactsDir()
	}
	return ""
}

// Start polls for pending jobs until the context is cancelled.
func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("job runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) processNextJob(ctx context.Context) {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return
	}

	if len(jobs) == 0 {
		return
	}

	job := jobs[0]
	r.logger.Info("processing job", "job_id", job.ID, "type", job.Type)

	p, editor := r.projects.Current()
	if p == nil || p.ID != job.ProjectID {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, "project not open")
		return
	}

	switch job.Type {
	case project.JobTypeImport:
		r.processImportJob(ctx, job, editor)

	case project.JobTypeExtractAudio:
		r.processExtractAudioJob(ctx, job, editor)

	case project.JobTypeWaveform:
		r.processWaveformJob(ctx, job, editor)

	case project.JobTypeTranscribe:
		r.processTranscribeJob(ctx, job, editor)

	default:
		r.logger.Warn("unknown job type", "type", job.Type)
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, "unknown job type")
	}
}

// processImportJob places the payload path on the timeline and chains an
// audio-extraction job for the resulting audio, which in turn chains the
// waveform job.
func (r *Runner) processImportJob(ctx context.Context, job *project.Job, editor *timeline.Editor) {
	if job.Payload == "" {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, "no media path in payload")
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusRunning, "")

	result, err := r.importer.ImportFile(ctx, editor, job.Payload, -1, 0)
	if err != nil {
		r.logger.Error("import failed", "job_id", job.ID, "error", err)
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, err.Error())
		return
	}

	if result.Audio != nil {
		if _, err := r.projects.EnqueueJob(ctx, project.JobTypeExtractAudio, result.Audio.ID, job.Payload); err != nil {
			r.logger.Warn("cannot enqueue audio extraction job", "error", err)
		}
	}

	if r.watcher != nil {
		if err := r.watcher.WatchSource(job.Payload); err != nil {
			r.logger.Warn("cannot watch imported source", "error", err)
		}
	}

	r.finishJob(ctx, job)
}

// processExtractAudioJob pulls the audio stream out of a clip's container
// into a standalone PCM file, re-binds the clip to it, and chains the
// waveform job against the extracted file.
func (r *Runner) processExtractAudioJob(ctx context.Context, job *project.Job, editor *timeline.Editor) {
	if r.importer == nil || r.importer.ffmpeg == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, "ffmpeg not available")
		return
	}

	clip, ok := editor.Clip(job.ClipID)
	if !ok {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, "clip not found")
		return
	}
	mediaPath := clip.Source
	if mediaPath == "" {
		mediaPath = job.Payload
	}
	if mediaPath == "" {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, "clip has no source path")
		return
	}

	base := r.artifactsDir()
	if base == "" {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, "no artifacts directory configured")
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusRunning, "")

	outPath := filepath.Join(base, clip.ID, "audio", "extracted.wav")
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, fmt.Sprintf("cannot create artifacts dir: %v", err))
		return
	}
	if err := r.importer.ffmpeg.ExtractAudio(ctx, mediaPath, outPath); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, err.Error())
		return
	}
	r.repo.UpdateJobProgress(ctx, job.ID, 80)

	if !editor.ApplyExtractedAudio(clip.ID, outPath) {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, "clip no longer on timeline")
		return
	}

	if _, err := r.projects.EnqueueJob(ctx, project.JobTypeWaveform, clip.ID, outPath); err != nil {
		r.logger.Warn("cannot enqueue waveform job", "error", err)
	}

	r.logger.Info("audio extracted", "job_id", job.ID, "clip_id", clip.ID)
	r.finishJob(ctx, job)
}

// processWaveformJob extracts peak amplitudes for a clip's source and
// attaches them to the clip.
func (r *Runner) processWaveformJob(ctx context.Context, job *project.Job, editor *timeline.Editor) {
	clip, mediaPath, ok := r.resolveJobMedia(ctx, job, editor)
	if !ok {
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusRunning, "")

	caps, err := r.requireCapability(ctx, job, func(c *pipelines.Capabilities) bool { return c.HasWaveform }, "waveform")
	if err != nil || caps == nil {
		return
	}

	outPath := filepath.Join(r.pipeRunner.ArtifactsDir(), clip.ID, "waveform", "result.json")
	result, err := r.pipeRunner.RunWaveform(ctx, mediaPath, outPath)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, fmt.Sprintf("waveform pipeline error: %v", err))
		return
	}
	if !result.IsSuccess() {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed,
			fmt.Sprintf("waveform pipeline exited %d: %s", result.ExitCode, tail(result.StderrTail, 512)))
		return
	}
	if _, err := r.pipeRunner.ValidateOutput(outPath); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, fmt.Sprintf("waveform output invalid: %v", err))
		return
	}
	r.repo.UpdateJobProgress(ctx, job.ID, 80)

	payload, err := readWaveformPayload(outPath)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, err.Error())
		return
	}

	if !editor.ApplyPeaks(clip.ID, payload.Peaks) {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, "clip no longer on timeline")
		return
	}

	r.logger.Info("waveform attached", "job_id", job.ID, "clip_id", clip.ID, "peaks", len(payload.Peaks), "duration", result.Duration)
	r.finishJob(ctx, job)
}

// processTranscribeJob transcribes a clip's source and inserts the segments
// as subtitle clips.
func (r *Runner) processTranscribeJob(ctx context.Context, job *project.Job, editor *timeline.Editor) {
	clip, mediaPath, ok := r.resolveJobMedia(ctx, job, editor)
	if !ok {
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusRunning, "")

	caps, err := r.requireCapability(ctx, job, func(c *pipelines.Capabilities) bool { return c.HasTranscribe }, "transcription")
	if err != nil || caps == nil {
		return
	}

	outPath := filepath.Join(r.pipeRunner.ArtifactsDir(), clip.ID, "transcribe", "result.json")
	result, err := r.pipeRunner.RunTranscribe(ctx, mediaPath, outPath)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, fmt.Sprintf("transcription pipeline error: %v", err))
		return
	}
	if !result.IsSuccess() {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed,
			fmt.Sprintf("transcription pipeline exited %d: %s", result.ExitCode, tail(result.StderrTail, 512)))
		return
	}
	if _, err := r.pipeRunner.ValidateOutput(outPath); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, fmt.Sprintf("transcription output invalid: %v", err))
		return
	}
	r.repo.UpdateJobProgress(ctx, job.ID, 80)

	payload, err := readTranscriptPayload(outPath)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, err.Error())
		return
	}

	cues := cuesFromSegments(payload.Segments, clip.StartFrame, editor.FPS())
	inserted := editor.InsertSubtitles(cues)

	r.logger.Info("transcription inserted",
		"job_id", job.ID,
		"clip_id", clip.ID,
		"segments", len(payload.Segments),
		"inserted", inserted,
		"language", payload.Language,
		"duration", result.Duration,
	)
	r.finishJob(ctx, job)
}

// resolveJobMedia looks up the job's clip and the media path to feed the
// pipeline. The clip's source wins over the payload.
func (r *Runner) resolveJobMedia(ctx context.Context, job *project.Job, editor *timeline.Editor) (timeline.Clip, string, bool) {
	if r.pipeRunner == nil || r.doctor == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, "pipeline runner not configured")
		return timeline.Clip{}, "", false
	}

	clip, ok := editor.Clip(job.ClipID)
	if !ok {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, "clip not found")
		return timeline.Clip{}, "", false
	}

	mediaPath := clip.Source
	if mediaPath == "" {
		mediaPath = job.Payload
	}
	if mediaPath == "" {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, "clip has no source path")
		return timeline.Clip{}, "", false
	}
	return clip, mediaPath, true
}

func (r *Runner) requireCapability(ctx context.Context, job *project.Job, has func(*pipelines.Capabilities) bool, name string) (*pipelines.Capabilities, error) {
	caps, err := r.doctor.Get(ctx)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, fmt.Sprintf("doctor probe failed: %v", err))
		return nil, err
	}
	if !has(caps) {
		r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, name+" pipeline not available")
		return nil, nil
	}
	return caps, nil
}

// finishJob marks the job completed and persists the timeline the job
// mutated.
func (r *Runner) finishJob(ctx context.Context, job *project.Job) {
	r.repo.UpdateJobProgress(ctx, job.ID, 100)
	r.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusCompleted, "")
	if err := r.projects.Save(ctx); err != nil {
		r.logger.Warn("cannot persist timeline after job", "job_id", job.ID, "error", err)
	}
	r.logger.Info("job completed", "job_id", job.ID, "type", job.Type)
}

func (r *Runner) GetActiveJobCount(ctx context.Context) int {
	jobs, err := r.repo.ListJobs(ctx, 100)
	if err != nil {
		return 0
	}
	count := 0
	for _, j := range jobs {
		if j.Status == project.JobStatusRunning {
			count++
		}
	}
	return count
}

func readWaveformPayload(path string) (*pipelines.WaveformPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read waveform output: %w", err)
	}
	var p pipelines.WaveformPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("cannot parse waveform output: %w", err)
	}
	if len(p.Peaks) == 0 {
		return nil, fmt.Errorf("waveform output has no peaks")
	}
	return &p, nil
}

func readTranscriptPayload(path string) (*pipelines.TranscriptPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read transcript output: %w", err)
	}
	var p pipelines.TranscriptPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("cannot parse transcript output: %w", err)
	}
	return &p, nil
}

// cuesFromSegments converts millisecond transcript segments to frame cues,
// offset by the frame where the transcribed clip sits on the timeline.
func cuesFromSegments(segments []pipelines.TranscriptSegment, baseFrame int64, fps float64) []timeline.SubtitleCue {
	cues := make([]timeline.SubtitleCue, 0, len(segments))
	for _, seg := range segments {
		start := baseFrame + msToFrames(seg.StartMs, fps)
		end := baseFrame + msToFrames(seg.EndMs, fps)
		if end <= start {
			continue
		}
		cues = append(cues, timeline.SubtitleCue{
			StartFrame: start,
			EndFrame:   end,
			Text:       seg.Text,
		})
	}
	return cues
}

func msToFrames(ms int, fps float64) int64 {
	return int64(math.Round(float64(ms) / 1000 * fps))
}

func tail(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[len(s)-maxLen:]
}
