package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWatcher_ReportsChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("channels: []\n"), 0600); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	changed := make(chan string, 4)
	w, err := NewWatcher(path, zerolog.Nop(), func(p string) {
		calls.Add(1)
		changed <- p
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	// Another file in the same directory is ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	// A burst of writes is reported once.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("channels: [x]\n"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case got := <-changed:
		if got != path {
			t.Errorf("path = %q, want %q", got, path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("change not reported")
	}

	time.Sleep(2 * debounceDelay)
	if n := calls.Load(); n != 1 {
		t.Errorf("onChange called %d times, want 1", n)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	w, err := NewWatcher(path, zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop failed: %v", err)
	}
}
