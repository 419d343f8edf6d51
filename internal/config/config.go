// Package config provides configuration management for the Framecut Agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort          = 8747
	DefaultLogLevel      = "info"
	DefaultDataDir       = ".framecut"
	DefaultFrameRate     = 30.0
	DefaultSnapThreshold = 10
	DefaultUndoDepth     = 100

	// Environment variable names
	EnvPort          = "FRAMECUT_PORT"
	EnvLogLevel      = "FRAMECUT_LOG_LEVEL"
	EnvDataDir       = "FRAMECUT_DATA_DIR"
	EnvFrameRate     = "FRAMECUT_FRAME_RATE"
	EnvSnapThreshold = "FRAMECUT_SNAP_THRESHOLD"
	EnvUndoDepth     = "FRAMECUT_UNDO_DEPTH"

	EnvHeadless = "FRAMECUT_HEADLESS"

	// Pipeline environment variable names
	EnvPipelinesPython = "FRAMECUT_PIPELINES_PYTHON"
	EnvPipelinesModule = "FRAMECUT_PIPELINES_MODULE"

	// Database filename
	DBFilename = "framecut.db"

	// Pipeline defaults
	DefaultPipelinesModule            = "framecut_media_pipelines"
	DefaultPipelinesTimeoutDoctor     = 30   // seconds
	DefaultPipelinesTimeoutWaveform   = 300  // 5 minutes
	DefaultPipelinesTimeoutTranscribe = 1800 // 30 minutes
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	ArtifactsDir() string
	FrameRate() float64
	SnapThreshold() int64
	UndoDepth() int
	Headless() bool
	PipelinesPython() string
	PipelinesModule() string
	PipelinesTimeoutDoctor() time.Duration
	PipelinesTimeoutWaveform() time.Duration
	PipelinesTimeoutTranscribe() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port          int
	logLevel      string
	dataDir       string
	frameRate     float64
	snapThreshold int64
	undoDepth     int
	headless      bool

	pipelinesPython string
	pipelinesModule string
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:          DefaultPort,
		logLevel:      DefaultLogLevel,
		dataDir:       defaultDataDir(),
		frameRate:     DefaultFrameRate,
		snapThreshold: DefaultSnapThreshold,
		undoDepth:     DefaultUndoDepth,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if fr := os.Getenv(EnvFrameRate); fr != "" {
		rate, err := strconv.ParseFloat(fr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvFrameRate, err)
		}
		if rate <= 0 || rate > 240 {
			return nil, fmt.Errorf("invalid %s: frame rate must be between 0 and 240", EnvFrameRate)
		}
		cfg.frameRate = rate
	}

	if st := os.Getenv(EnvSnapThreshold); st != "" {
		threshold, err := strconv.ParseInt(st, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvSnapThreshold, err)
		}
		if threshold < 0 {
			return nil, fmt.Errorf("invalid %s: threshold cannot be negative", EnvSnapThreshold)
		}
		cfg.snapThreshold = threshold
	}

	if ud := os.Getenv(EnvUndoDepth); ud != "" {
		depth, err := strconv.Atoi(ud)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvUndoDepth, err)
		}
		if depth < 1 {
			return nil, fmt.Errorf("invalid %s: undo depth must be at least 1", EnvUndoDepth)
		}
		cfg.undoDepth = depth
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	cfg.pipelinesPython = os.Getenv(EnvPipelinesPython)

	if pm := os.Getenv(EnvPipelinesModule); pm != "" {
		cfg.pipelinesModule = pm
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ArtifactsDir returns the base directory for pipeline artifacts
func (c *EnvConfig) ArtifactsDir() string {
	return filepath.Join(c.dataDir, "artifacts")
}

// FrameRate returns the default project frame rate
func (c *EnvConfig) FrameRate() float64 {
	return c.frameRate
}

// SnapThreshold returns the magnetic snap distance in frames
func (c *EnvConfig) SnapThreshold() int64 {
	return c.snapThreshold
}

// UndoDepth returns the maximum number of undo history entries
func (c *EnvConfig) UndoDepth() int {
	return c.undoDepth
}

// Headless reports whether the system tray should be skipped
func (c *EnvConfig) Headless() bool {
	return c.headless
}

func (c *EnvConfig) PipelinesPython() string {
	return c.pipelinesPython
}

func (c *EnvConfig) PipelinesModule() string {
	if c.pipelinesModule != "" {
		return c.pipelinesModule
	}
	return DefaultPipelinesModule
}

func (c *EnvConfig) PipelinesTimeoutDoctor() time.Duration {
	return time.Duration(DefaultPipelinesTimeoutDoctor) * time.Second
}

func (c *EnvConfig) PipelinesTimeoutWaveform() time.Duration {
	return time.Duration(DefaultPipelinesTimeoutWaveform) * time.Second
}

func (c *EnvConfig) PipelinesTimeoutTranscribe() time.Duration {
	return time.Duration(DefaultPipelinesTimeoutTranscribe) * time.Second
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
