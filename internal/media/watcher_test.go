package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type watchChange struct {
	path    string
	present bool
}

func startWatcher(t *testing.T) (*SourceWatcher, chan watchChange) {
	t.Helper()
	w, err := NewSourceWatcher(nil)
	if err != nil {
		t.Fatalf("NewSourceWatcher: %v", err)
	}
	t.Cleanup(func() { w.Close() })

	changes := make(chan watchChange, 16)
	w.OnChange(func(path string, present bool) {
		changes <- watchChange{path: path, present: present}
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)

	return w, changes
}

func waitForChange(t *testing.T, changes chan watchChange, wantPath string, wantPresent bool) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case got := <-changes:
			if got.path == wantPath && got.present == wantPresent {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change (%s present=%v)", wantPath, wantPresent)
		}
	}
}

func TestSourceWatcher_RemoveAndRecreate(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "take.mp4")
	if err := os.WriteFile(source, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	w, changes := startWatcher(t)
	if err := w.WatchSource(source); err != nil {
		t.Fatalf("WatchSource: %v", err)
	}

	if err := os.Remove(source); err != nil {
		t.Fatal(err)
	}
	waitForChange(t, changes, source, false)

	if err := os.WriteFile(source, []byte("data again"), 0644); err != nil {
		t.Fatal(err)
	}
	waitForChange(t, changes, source, true)
}

func TestSourceWatcher_IgnoresUntrackedFiles(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "tracked.mp4")
	other := filepath.Join(dir, "other.mp4")
	for _, p := range []string{tracked, other} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	w, changes := startWatcher(t)
	if err := w.WatchSource(tracked); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(other); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(tracked); err != nil {
		t.Fatal(err)
	}

	// Only the tracked file's removal surfaces.
	waitForChange(t, changes, tracked, false)
	select {
	case got := <-changes:
		t.Fatalf("unexpected change for untracked file: %+v", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSourceWatcher_UnwatchStopsReports(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "take.mp4")
	if err := os.WriteFile(source, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	w, changes := startWatcher(t)
	if err := w.WatchSource(source); err != nil {
		t.Fatal(err)
	}
	w.UnwatchSource(source)

	if err := os.Remove(source); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changes:
		t.Fatalf("unexpected change after unwatch: %+v", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSourceWatcher_WatchTwiceIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "take.mp4")
	if err := os.WriteFile(source, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	w, _ := startWatcher(t)
	if err := w.WatchSource(source); err != nil {
		t.Fatal(err)
	}
	if err := w.WatchSource(source); err != nil {
		t.Fatal(err)
	}

	w.mu.Lock()
	refs := w.dirRefs[dir]
	w.mu.Unlock()
	if refs != 1 {
		t.Errorf("dir refcount = %d, want 1", refs)
	}
}
