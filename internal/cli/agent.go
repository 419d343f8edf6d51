package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/framecut/framecut-agent/internal/api"
	"github.com/framecut/framecut-agent/internal/config"
	"github.com/framecut/framecut-agent/internal/db"
	"github.com/framecut/framecut-agent/internal/logging"
	"github.com/framecut/framecut-agent/internal/media"
	"github.com/framecut/framecut-agent/internal/pipelines"
	"github.com/framecut/framecut-agent/internal/project"
	"github.com/framecut/framecut-agent/internal/ui"
)

func runAgent() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.ArtifactsDir(), 0755); err != nil {
		return fmt.Errorf("failed to create artifacts dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting framecut agent", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := project.NewRepository(database.Conn())

	agentID, err := ensureAgentID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure agent ID: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                  FRAMECUT AGENT v%-7s                  ║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Agent ID:   %-45s ║\n", agentID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	projects := project.NewService(repo, project.EditorOptions{
		UndoDepth:        cfg.UndoDepth(),
		SnapThreshold:    cfg.SnapThreshold(),
		SnapEnabled:      true,
		DefaultFrameRate: cfg.FrameRate(),
	}, logger)

	pipeCfg := pipelines.Config{
		PythonPath:        cfg.PipelinesPython(),
		ModuleName:        cfg.PipelinesModule(),
		ArtifactsBase:     cfg.ArtifactsDir(),
		DoctorTimeout:     cfg.PipelinesTimeoutDoctor(),
		WaveformTimeout:   cfg.PipelinesTimeoutWaveform(),
		TranscribeTimeout: cfg.PipelinesTimeoutTranscribe(),
		Logger:            logger,
	}

	var pipeRunner pipelines.Runner
	var doctor *pipelines.CachedDoctor

	pr, err := pipelines.NewRunner(pipeCfg)
	if err != nil {
		logger.Warn("pipeline runner unavailable, media analysis disabled", "error", err)
	} else {
		pipeRunner = pr
		doctor = pipelines.NewCachedDoctor(pr, logger)

		initCtx, initCancel := context.WithTimeout(context.Background(), pipeCfg.DoctorTimeout)
		defer initCancel()
		if caps, err := doctor.Refresh(initCtx); err != nil {
			logger.Warn("initial doctor probe failed", "error", err)
		} else {
			logger.Info("pipeline capabilities detected",
				"waveform", caps.HasWaveform,
				"transcribe", caps.HasTranscribe,
				"deps", fmt.Sprintf("%d/%d", caps.Summary.Available, caps.Summary.Total),
			)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ffmpeg media.FFmpeg
	if ff, err := media.NewExecFFmpeg(logger); err != nil {
		logger.Warn("ffmpeg not found, media import disabled", "error", err)
	} else {
		ffmpeg = ff
	}
	importer := media.NewImporter(ffmpeg, logger)

	runner := media.NewRunner(projects, repo, importer, pipeRunner, doctor, logger)
	runner.SetArtifactsDir(cfg.ArtifactsDir())

	watcher, err := media.NewSourceWatcher(logger)
	if err != nil {
		logger.Warn("source watcher unavailable", "error", err)
	} else {
		watcher.OnChange(func(path string, present bool) {
			_, editor := projects.Current()
			if editor == nil {
				return
			}
			n := editor.SetSourcePresent(path, present)
			if n > 0 {
				logger.Info("source availability changed", "path", logging.SanitizePath(path), "present", present, "clips", n)
			}
		})
		runner.SetWatcher(watcher)
		go watcher.Run(ctx)
		defer watcher.Close()
	}

	go runner.Start(ctx)

	apiServer := api.NewServer(api.ServerConfig{
		Port:       cfg.Port(),
		Projects:   projects,
		Repository: repo,
		Runner:     runner,
		Streamer:   media.NewStreamer(logger),
		Doctor:     doctor,
		Logger:     logger,
		StartTime:  startTime,
		AgentID:    agentID,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quit := newQuitSignal()

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			quit.Request()
		case <-quit.Done():
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Projects: projects,
			Runner:   runner,
			Logger:   logger,
			OnSave: func() error {
				return projects.Save(context.Background())
			},
			OnQuit: quit.Request,
		})
		go tray.Run()
	}

	<-quit.Done()

	logger.Info("initiating graceful shutdown")
	cancel()

	if p, _ := projects.Current(); p != nil {
		if err := projects.Save(context.Background()); err != nil {
			logger.Error("failed to save project on shutdown", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// quitSignal coalesces shutdown requests. Both the signal handler and the
// tray's Quit item may fire; only the first one closes the channel.
type quitSignal struct {
	ch   chan struct{}
	once sync.Once
}

func newQuitSignal() *quitSignal {
	return &quitSignal{ch: make(chan struct{})}
}

// Request triggers shutdown. Safe to call from multiple goroutines and more
// than once.
func (q *quitSignal) Request() {
	q.once.Do(func() { close(q.ch) })
}

func (q *quitSignal) Done() <-chan struct{} {
	return q.ch
}

func ensureAgentID(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetSetting(ctx, "agent_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	agentID := hex.EncodeToString(idBytes)

	if err := repo.SetSetting(ctx, "agent_id", agentID); err != nil {
		return "", err
	}

	return agentID, nil
}

func ensureAuthToken(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetSetting(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetSetting(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
