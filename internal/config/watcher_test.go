package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextEvent(t *testing.T, w *Watcher) ChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		require.True(t, ok, "events channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
		return ChangeEvent{}
	}
}

func startWatcher(t *testing.T, dir string) *Watcher {
	t.Helper()
	loader := NewLoader(dir)
	cfg, err := loader.LoadDefault()
	require.NoError(t, err)

	w, err := NewWatcher(loader, cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})
	require.NoError(t, w.Start(ctx))
	return w
}

func TestWatcherConfigReload(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "splice.yaml")
	writeFile(t, configPath, "name: first\n")

	w := startWatcher(t, dir)
	assert.Equal(t, "first", w.Config().Name)

	writeFile(t, configPath, "name: second\ndescription: updated\n")

	ev := nextEvent(t, w)
	require.NoError(t, ev.Error)
	assert.Equal(t, ChangeConfig, ev.Kind)
	require.NotNil(t, ev.Config)
	assert.Equal(t, "updated", ev.Config.Description)
	assert.Equal(t, "second", w.Config().Name)
}

func TestWatcherInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "splice.yaml")
	writeFile(t, configPath, "name: ok\n")

	w := startWatcher(t, dir)

	writeFile(t, configPath, "output:\n  name: a/b\n")

	ev := nextEvent(t, w)
	assert.Equal(t, ChangeConfig, ev.Kind)
	assert.ErrorContains(t, ev.Error, "failed to reload config")
	// The previous config stays active.
	assert.Equal(t, "ok", w.Config().Name)
}

func TestWatcherScriptAndInputs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "splice.yaml"), "inputs:\n  - data/*.json\nextract:\n  file: extract.go\n")
	writeFile(t, filepath.Join(dir, "extract.go"), "package main\n")
	writeFile(t, filepath.Join(dir, "data", "a.json"), "{}")

	w := startWatcher(t, dir)

	writeFile(t, filepath.Join(dir, "extract.go"), "package main\n\n// edited\n")
	ev := nextEvent(t, w)
	require.NoError(t, ev.Error)
	assert.Equal(t, ChangeScript, ev.Kind)
	assert.Equal(t, filepath.Join(absPath(dir), "extract.go"), ev.Path)

	writeFile(t, filepath.Join(dir, "data", "b.json"), "{}")
	ev = nextEvent(t, w)
	require.NoError(t, ev.Error)
	assert.Equal(t, ChangeInput, ev.Kind)
	assert.Nil(t, ev.Config)
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "splice.yaml"), "inputs:\n  - '*.json'\n")

	w := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcherStopClosesEvents(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir)

	require.NoError(t, w.Stop())
	_, ok := <-w.Events()
	assert.False(t, ok)
	// A second Stop is a no-op.
	assert.NoError(t, w.Stop())
}

func TestWatcherPrepare(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "splice.yaml")
	writeFile(t, configPath, "name: base\n")

	loader := NewLoader(dir)
	cfg, err := loader.LoadDefault()
	require.NoError(t, err)

	w, err := NewWatcher(loader, cfg)
	require.NoError(t, err)
	w.Prepare = func(c *Config) error {
		c.Output.Dir = "-"
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeFile(t, configPath, "name: reloaded\n")

	ev := nextEvent(t, w)
	require.NoError(t, ev.Error)
	assert.Equal(t, "reloaded", ev.Config.Name)
	assert.Equal(t, "-", ev.Config.Output.Dir)
}

func TestWatcherIgnoresOutput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "splice.yaml"), "inputs:\n  - '*'\noutput:\n  name: out.json\n")

	w := startWatcher(t, dir)

	writeFile(t, filepath.Join(dir, "out.json"), "{}")
	writeFile(t, filepath.Join(dir, "out.json.tmp.123"), "{}")

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event for artifact: %+v", ev)
	case <-time.After(400 * time.Millisecond):
	}

	writeFile(t, filepath.Join(dir, "a.json"), "{}")
	ev := nextEvent(t, w)
	require.NoError(t, ev.Error)
	assert.Equal(t, ChangeInput, ev.Kind)
	assert.Equal(t, filepath.Join(absPath(dir), "a.json"), ev.Path)
}
