package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpeg is the contract for probing and transforming media files. The agent
// talks to the system ffmpeg/ffprobe binaries; a stub stands in where they
// are not installed.
type FFmpeg interface {
	Probe(ctx context.Context, filePath string) (*ProbeResult, error)
	ExtractAudio(ctx context.Context, filePath, outputPath string) error
}

type ProbeResult struct {
	Duration    float64
	Width       int
	Height      int
	Codec       string
	FrameRate   float64
	HasAudio    bool
	AudioCodec  string
	AudioSample int
}

// ExecFFmpeg shells out to ffprobe/ffmpeg.
type ExecFFmpeg struct {
	ffprobe string
	ffmpeg  string
	logger  *slog.Logger
}

// NewExecFFmpeg resolves the ffprobe and ffmpeg binaries on PATH.
func NewExecFFmpeg(logger *slog.Logger) (*ExecFFmpeg, error) {
	ffprobe, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found on PATH: %w", err)
	}
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found on PATH: %w", err)
	}
	return &ExecFFmpeg{ffprobe: ffprobe, ffmpeg: ffmpeg, logger: logger}, nil
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		SampleRate   string `json:"sample_rate"`
	} `json:"streams"`
}

func (f *ExecFFmpeg) Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	cmd := exec.CommandContext(ctx, f.ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		filePath,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(out.Bytes(), &probed); err != nil {
		return nil, fmt.Errorf("cannot parse ffprobe output: %w", err)
	}

	result := &ProbeResult{}
	result.Duration, _ = strconv.ParseFloat(probed.Format.Duration, 64)

	for _, s := range probed.Streams {
		switch s.CodecType {
		case "video":
			if result.Codec == "" {
				result.Codec = s.CodecName
				result.Width = s.Width
				result.Height = s.Height
				result.FrameRate = parseFrameRate(s.RFrameRate)
			}
		case "audio":
			result.HasAudio = true
			if result.AudioCodec == "" {
				result.AudioCodec = s.CodecName
				result.AudioSample, _ = strconv.Atoi(s.SampleRate)
			}
		}
	}

	if result.Duration <= 0 {
		return nil, fmt.Errorf("media has no duration: %s", filePath)
	}
	return result, nil
}

func (f *ExecFFmpeg) ExtractAudio(ctx context.Context, filePath, outputPath string) error {
	cmd := exec.CommandContext(ctx, f.ffmpeg,
		"-y", "-i", filePath,
		"-vn", "-acodec", "pcm_s16le",
		outputPath,
	)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg audio extraction failed: %w", err)
	}
	return nil
}

// parseFrameRate converts ffprobe's rational frame rate ("30000/1001") to a
// float, 0 when malformed.
func parseFrameRate(r string) float64 {
	parts := strings.SplitN(r, "/", 2)
	if len(parts) != 2 {
		v, _ := strconv.ParseFloat(r, 64)
		return v
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

// StubFFmpeg reports fixed probe results; used in tests and when the system
// binaries are missing.
type StubFFmpeg struct {
	Result ProbeResult
	logger *slog.Logger
}

func NewStubFFmpeg(logger *slog.Logger) *StubFFmpeg {
	return &StubFFmpeg{
		Result: ProbeResult{Duration: 10, FrameRate: 30, HasAudio: true},
		logger: logger,
	}
}

func (f *StubFFmpeg) Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	if f.logger != nil {
		f.logger.Info("ffmpeg stub: probe requested", "path", filePath)
	}
	r := f.Result
	return &r, nil
}

func (f *StubFFmpeg) ExtractAudio(ctx context.Context, filePath, outputPath string) error {
	if f.logger != nil {
		f.logger.Info("ffmpeg stub: audio extraction requested", "input", filePath, "output", outputPath)
	}
	return nil
}
