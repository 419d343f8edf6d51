package cli

import (
	"sync"
	"testing"
	"time"
)

func TestQuitSignal_RequestIsIdempotent(t *testing.T) {
	q := newQuitSignal()

	select {
	case <-q.Done():
		t.Fatal("quit signal fired before any request")
	default:
	}

	// Signal handler and tray Quit can race; neither caller may panic.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Request()
		}()
	}
	wg.Wait()

	select {
	case <-q.Done():
	case <-time.After(time.Second):
		t.Fatal("quit signal never fired")
	}

	q.Request()
}
