package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func waitReload(t *testing.T, ch <-chan *Settings) *Settings {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a config reload")
		return nil
	}
}

func TestWatchReloadsOnRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeConfig(t, path,
		`{"maps": [{"id": "a", "name": "A", "roads": [{"x0": 0, "y0": 0, "x1": 5}]}]}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan *Settings, 8)
	if err := Watch(ctx, path, func(s *Settings) { reloads <- s }); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writeConfig(t, path,
		`{"dogRetirementTime": 7, "maps": [{"id": "a", "name": "A", "roads": [{"x0": 0, "y0": 0, "x1": 5}]}]}`)

	s := waitReload(t, reloads)
	if s.RetireAfter != 7*time.Second {
		t.Errorf("reloaded RetireAfter = %v, want 7s", s.RetireAfter)
	}
}

func TestWatchKeepsSettingsOnBrokenConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeConfig(t, path,
		`{"maps": [{"id": "a", "name": "A", "roads": [{"x0": 0, "y0": 0, "x1": 5}]}]}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan *Settings, 8)
	if err := Watch(ctx, path, func(s *Settings) { reloads <- s }); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	// Битый JSON не должен дёргать onReload.
	writeConfig(t, path, `{"maps": [`)
	select {
	case <-reloads:
		t.Fatal("broken config must not trigger a reload")
	case <-time.After(300 * time.Millisecond):
	}

	// А следующая валидная запись - должна.
	writeConfig(t, path,
		`{"dogRetirementTime": 3, "maps": [{"id": "a", "name": "A", "roads": [{"x0": 0, "y0": 0, "x1": 5}]}]}`)
	s := waitReload(t, reloads)
	if s.RetireAfter != 3*time.Second {
		t.Errorf("reloaded RetireAfter = %v, want 3s", s.RetireAfter)
	}
}

func TestWatchIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeConfig(t, path,
		`{"maps": [{"id": "a", "name": "A", "roads": [{"x0": 0, "y0": 0, "x1": 5}]}]}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan *Settings, 8)
	if err := Watch(ctx, path, func(s *Settings) { reloads <- s }); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writeConfig(t, filepath.Join(dir, "other.json"), `{}`)
	select {
	case <-reloads:
		t.Fatal("a sibling file must not trigger a reload")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatchFailsForMissingDirectory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := Watch(ctx, filepath.Join(t.TempDir(), "no-such-dir", "config.json"), func(*Settings) {})
	if err == nil {
		t.Fatal("Watch must fail when the config directory does not exist")
	}
}
