package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/chr1sbest/splice/internal/download"
)

// ChangeKind classifies which watched path changed.
type ChangeKind string

const (
	ChangeConfig ChangeKind = "config"
	ChangeScript ChangeKind = "script"
	ChangeInput  ChangeKind = "input"
)

// ChangeEvent reports a debounced change to a watched path. Config is set
// when the config file itself was reloaded.
type ChangeEvent struct {
	Path   string
	Kind   ChangeKind
	Config *Config
	Error  error
}

type target struct {
	pattern string
	kind    ChangeKind
}

// Watcher monitors a workflow's config file, scripts and input globs.
type Watcher struct {
	// Prepare, if set, runs on every reloaded config before its paths are
	// registered. Set it before Start.
	Prepare func(*Config) error

	loader   *Loader
	watcher  *fsnotify.Watcher
	events   chan ChangeEvent
	debounce time.Duration
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.RWMutex
	config  *Config
	targets []target
	dirs    map[string]bool
	// output is the artifact path; writing it must not trigger a run.
	output string
}

// NewWatcher creates a watcher for cfg. Nothing is watched until Start.
func NewWatcher(loader *Loader, cfg *Config) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		loader:   loader,
		watcher:  fsWatcher,
		events:   make(chan ChangeEvent, 10),
		debounce: 100 * time.Millisecond,
		done:     make(chan struct{}),
		config:   cfg,
		dirs:     make(map[string]bool),
	}, nil
}

// Events returns the channel that receives change events. It is closed
// once the watcher stops.
func (w *Watcher) Events() <-chan ChangeEvent {
	return w.events
}

// Config returns the most recently loaded config.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Start registers the config's paths and begins watching.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.register(w.config); err != nil {
		return err
	}
	go w.run(ctx)
	return nil
}

// Stop closes the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

// register replaces the watch targets with those of cfg. fsnotify watches
// directories, so each target adds its parent directory.
func (w *Watcher) register(cfg *Config) error {
	var targets []target
	if cfg.Path != "" {
		targets = append(targets, target{pattern: absPath(cfg.Path), kind: ChangeConfig})
	}
	for _, f := range cfg.ScriptFiles() {
		targets = append(targets, target{pattern: absPath(f), kind: ChangeScript})
	}
	for _, p := range cfg.InputPatterns() {
		targets = append(targets, target{pattern: absPath(p), kind: ChangeInput})
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.targets = targets
	w.output = ""
	if out := cfg.OutputPath(); out != "" {
		w.output = absPath(out)
	}
	for _, t := range targets {
		dir := filepath.Dir(t.pattern)
		if w.dirs[dir] {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	return nil
}

func (w *Watcher) match(path string) (ChangeKind, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.output != "" && (path == w.output || strings.HasPrefix(path, download.TempPrefix(w.output))) {
		return "", false
	}
	for _, t := range w.targets {
		if ok, _ := filepath.Match(t.pattern, path); ok {
			return t.kind, true
		}
	}
	return "", false
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.events)

	// Debounce map to avoid multiple events for same file
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			path := absPath(event.Name)
			if _, ok := w.match(path); ok {
				pending[path] = time.Now()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if !w.emit(ctx, ChangeEvent{Error: err}) {
				return
			}

		case <-ticker.C:
			now := time.Now()
			for path, timestamp := range pending {
				if now.Sub(timestamp) < w.debounce {
					continue
				}
				delete(pending, path)
				if !w.emit(ctx, w.handle(path)) {
					return
				}
			}
		}
	}
}

func (w *Watcher) emit(ctx context.Context, ev ChangeEvent) bool {
	select {
	case w.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (w *Watcher) handle(path string) ChangeEvent {
	kind, _ := w.match(path)
	if kind != ChangeConfig {
		return ChangeEvent{Path: path, Kind: kind}
	}

	cfg, err := w.loader.LoadAndValidate(path)
	if err == nil && w.Prepare != nil {
		err = w.Prepare(cfg)
	}
	if err != nil {
		return ChangeEvent{
			Path:  path,
			Kind:  kind,
			Error: fmt.Errorf("failed to reload config %s: %w", path, err),
		}
	}
	w.mu.Lock()
	w.config = cfg
	w.mu.Unlock()
	if err := w.register(cfg); err != nil {
		return ChangeEvent{Path: path, Kind: kind, Config: cfg, Error: err}
	}
	return ChangeEvent{Path: path, Kind: kind, Config: cfg}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
