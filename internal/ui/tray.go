// Package ui provides the system tray presence for the Framecut Agent.
package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/framecut/framecut-agent/internal/media"
	"github.com/framecut/framecut-agent/internal/project"
)

type Tray struct {
	projects *project.Service
	runner   *media.Runner
	logger   *slog.Logger

	statusItem  *systray.MenuItem
	projectItem *systray.MenuItem
	pauseItem   *systray.MenuItem

	mu sync.Mutex

	onSave func() error
	onQuit func()
}

type TrayConfig struct {
	Projects *project.Service
	Runner   *media.Runner
	Logger   *slog.Logger
	OnSave   func() error
	OnQuit   func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		projects: cfg.Projects,
		runner:   cfg.Runner,
		logger:   cfg.Logger,
		onSave:   cfg.OnSave,
		onQuit:   cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Framecut")
	systray.SetTooltip("Framecut Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.projectItem = systray.AddMenuItem("Project: none", "Open project")
	t.projectItem.Disable()

	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItem("Pause Jobs", "Pause background media jobs")

	saveItem := systray.AddMenuItem("Save Project", "Persist the open project now")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Framecut Agent")

	go func() {
		for {
			select {
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-saveItem.ClickedCh:
				t.handleSave()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner == nil {
		return
	}

	if t.runner.IsPaused() {
		t.runner.Resume()
		t.pauseItem.SetTitle("Pause Jobs")
		t.statusItem.SetTitle("Status: Idle")
	} else {
		t.runner.Pause()
		t.pauseItem.SetTitle("Resume Jobs")
		t.statusItem.SetTitle("Status: Paused")
	}
}

func (t *Tray) handleSave() {
	if t.onSave == nil {
		return
	}
	if err := t.onSave(); err != nil {
		t.logger.Error("failed to save project from tray", "error", err)
	}
}

func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner != nil && t.runner.IsPaused() {
		return
	}
	t.statusItem.SetTitle("Status: " + status)
}

func (t *Tray) UpdateProject(name string, clipCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if name == "" {
		t.projectItem.SetTitle("Project: none")
		return
	}
	t.projectItem.SetTitle(fmt.Sprintf("Project: %s (%d clips)", name, clipCount))
}

func (t *Tray) Quit() {
	systray.Quit()
}
