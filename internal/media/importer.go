package media

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"github.com/framecut/framecut-agent/internal/timeline"
)

// Still images carry no intrinsic duration; they enter the timeline at a
// fixed default length and stay freely extensible.
const defaultImageSeconds = 5.0

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// ImportResult reports what an import placed on the timeline.
type ImportResult struct {
	Video *timeline.Clip
	Audio *timeline.Clip
	Image *timeline.Clip
	Probe *ProbeResult
}

// Importer probes media files and turns them into timeline clips. A file
// with both picture and sound becomes a linked video+audio pair that edits
// as one unit.
type Importer struct {
	ffmpeg FFmpeg
	logger *slog.Logger
}

func NewImporter(ffmpeg FFmpeg, logger *slog.Logger) *Importer {
	return &Importer{ffmpeg: ffmpeg, logger: logger}
}

// ImportFile probes path and inserts the resulting clips at desiredFrame on
// row, as one undoable transaction. A negative desiredFrame appends after
// the last clip on the timeline.
func (i *Importer) ImportFile(ctx context.Context, editor *timeline.Editor, path string, desiredFrame int64, row int) (*ImportResult, error) {
	if editor == nil {
		return nil, fmt.Errorf("no editor available")
	}

	if desiredFrame < 0 {
		st := editor.State()
		desiredFrame = st.MaxEndFrame()
	}

	if isImagePath(path) {
		return i.importImage(editor, path, desiredFrame, row)
	}

	if i.ffmpeg == nil {
		return nil, fmt.Errorf("ffmpeg not available, cannot probe media")
	}
	probe, err := i.ffmpeg.Probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("probe failed: %w", err)
	}

	fps := editor.FPS()
	durFrames := int64(math.Round(probe.Duration * fps))
	if durFrames < 1 {
		durFrames = 1
	}

	name := filepath.Base(path)
	editor.BeginGroup("import " + name)
	defer editor.EndGroup()

	result := &ImportResult{Probe: probe}

	hasVideo := probe.Codec != ""
	if hasVideo {
		video, ok := editor.InsertClip(timeline.Clip{
			Kind:           timeline.KindVideo,
			Row:            row,
			StartFrame:     desiredFrame,
			EndFrame:       desiredFrame + durFrames,
			Source:         path,
			SourceDuration: durFrames,
			Name:           name,
			SourcePresent:  true,
		})
		if !ok {
			return nil, fmt.Errorf("cannot place video clip for %s", name)
		}
		result.Video = &video
		// The audio half aligns with wherever the resolver put the video.
		desiredFrame = video.StartFrame
	}

	if probe.HasAudio {
		audio, ok := editor.InsertClip(timeline.Clip{
			Kind:           timeline.KindAudio,
			Row:            row,
			StartFrame:     desiredFrame,
			EndFrame:       desiredFrame + durFrames,
			Source:         path,
			SourceDuration: durFrames,
			Name:           name,
			SourcePresent:  true,
		})
		if !ok {
			return nil, fmt.Errorf("cannot place audio clip for %s", name)
		}
		result.Audio = &audio
	}

	if result.Video == nil && result.Audio == nil {
		return nil, fmt.Errorf("media has no usable streams: %s", name)
	}

	if result.Video != nil && result.Audio != nil {
		editor.LinkClips(result.Video.ID, result.Audio.ID)
		if v, ok := editor.Clip(result.Video.ID); ok {
			result.Video = &v
		}
		if a, ok := editor.Clip(result.Audio.ID); ok {
			result.Audio = &a
		}
	}

	if i.logger != nil {
		i.logger.Info("media imported",
			"path", name,
			"duration_frames", durFrames,
			"has_audio", probe.HasAudio,
		)
	}
	return result, nil
}

func (i *Importer) importImage(editor *timeline.Editor, path string, desiredFrame int64, row int) (*ImportResult, error) {
	fps := editor.FPS()
	durFrames := int64(math.Round(defaultImageSeconds * fps))
	if durFrames < 1 {
		durFrames = 1
	}

	name := filepath.Base(path)
	img, ok := editor.InsertClip(timeline.Clip{
		Kind:           timeline.KindImage,
		Row:            row,
		StartFrame:     desiredFrame,
		EndFrame:       desiredFrame + durFrames,
		Source:         path,
		SourceDuration: durFrames,
		Name:           name,
		SourcePresent:  true,
	})
	if !ok {
		return nil, fmt.Errorf("cannot place image clip for %s", name)
	}

	if i.logger != nil {
		i.logger.Info("image imported", "path", name, "duration_frames", durFrames)
	}
	return &ImportResult{Image: &img}, nil
}

func isImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}
