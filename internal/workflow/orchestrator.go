// Package workflow runs the extract/merge pipeline: every selected file goes
// through the extract script concurrently, the ordered results go through the
// merge script once, and the produced artifact is handed to a download sink.
package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chr1sbest/splice/internal/download"
	"github.com/chr1sbest/splice/internal/logger"
	"github.com/chr1sbest/splice/internal/script"
	"github.com/chr1sbest/splice/internal/splice"
)

// Status represents the orchestrator state.
type Status string

const (
	StatusIdle    Status = "IDLE"
	StatusRunning Status = "RUNNING"
)

// RunState is a snapshot of the orchestrator state.
type RunState struct {
	Status    Status
	LastError error
	Runs      int
}

// Running reports whether a run is in progress.
func (s RunState) Running() bool {
	return s.Status == StatusRunning
}

// Input is everything one run needs.
type Input struct {
	Files         []splice.File
	ExtractScript string
	MergeScript   string
	OutputName    string
}

// Result describes a successful run.
type Result struct {
	RunID    string
	Location string
	Name     string
	Artifact splice.Blob
	Records  int
	Duration time.Duration
}

// Observer is notified about run progress. FileExtracted is called from
// several goroutines, one call at a time, with done increasing.
type Observer interface {
	RunStarted(runID string, files int)
	FileExtracted(done, total int)
	RunSucceeded(res *Result)
	RunFailed(runID string, err error)
}

// CanRun reports whether in may be started. A run needs at least one file.
func CanRun(in Input) bool {
	return len(in.Files) > 0
}

// Orchestrator owns the Idle/Running state machine. Only one run can be in
// progress at a time.
type Orchestrator struct {
	evaluator *script.Evaluator
	sink      download.Sink
	logger    logger.Logger
	observer  Observer

	mu    sync.Mutex
	state RunState
	wg    sync.WaitGroup
}

// NewOrchestrator creates an idle orchestrator.
func NewOrchestrator(ev *script.Evaluator, sink download.Sink, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &Orchestrator{
		evaluator: ev,
		sink:      sink,
		logger:    log,
		state:     RunState{Status: StatusIdle},
	}
}

// SetObserver registers an observer for subsequent runs.
func (o *Orchestrator) SetObserver(obs Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observer = obs
}

// State returns the current state.
func (o *Orchestrator) State() RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Run executes one workflow run and blocks until it finishes. It returns
// ErrNoFiles or ErrAlreadyRunning without touching the state when the run
// cannot start.
func (o *Orchestrator) Run(ctx context.Context, in Input) (*Result, error) {
	if !CanRun(in) {
		return nil, ErrNoFiles
	}
	if !o.begin() {
		return nil, ErrAlreadyRunning
	}
	return o.execute(ctx, in)
}

// Start launches a run in the background and reports whether it started.
// A start request while a run is in progress, or with no files, is a no-op.
func (o *Orchestrator) Start(ctx context.Context, in Input) bool {
	if !CanRun(in) || !o.begin() {
		return false
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		_, _ = o.execute(ctx, in)
	}()
	return true
}

// Wait blocks until runs launched by Start have finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Status == StatusRunning {
		return false
	}
	o.state.Status = StatusRunning
	o.state.LastError = nil
	o.state.Runs++
	return true
}

func (o *Orchestrator) finish(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Status = StatusIdle
	o.state.LastError = err
}

func (o *Orchestrator) currentObserver() Observer {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.observer
}

func (o *Orchestrator) execute(ctx context.Context, in Input) (res *Result, err error) {
	runID := uuid.NewString()
	start := time.Now()
	log := o.logger.WithFields(logger.F("run_id", runID))
	obs := o.currentObserver()

	defer func() {
		o.finish(err)
		if err != nil {
			log.Error("Workflow run failed", logger.F("error", err), logger.F("duration", time.Since(start)))
			if obs != nil {
				obs.RunFailed(runID, err)
			}
		}
	}()

	log.Info("Workflow run started", logger.F("files", len(in.Files)))
	if obs != nil {
		obs.RunStarted(runID, len(in.Files))
	}

	var progress ProgressFunc
	if obs != nil {
		progress = obs.FileExtracted
	}

	records, err := Extract(ctx, o.evaluator, in.Files, in.ExtractScript, progress)
	if err != nil {
		return nil, err
	}
	log.Debug("Extraction complete", logger.F("records", len(records)))

	blob, err := Merge(ctx, o.evaluator, records, in.MergeScript)
	if err != nil {
		return nil, err
	}
	log.Debug("Merge complete", logger.F("bytes", blob.Size()), logger.F("type", blob.Type))

	name := download.ResolveName(in.OutputName)
	location, err := o.sink.Save(ctx, name, blob)
	if err != nil {
		return nil, err
	}

	res = &Result{
		RunID:    runID,
		Location: location,
		Name:     name,
		Artifact: blob,
		Records:  len(records),
		Duration: time.Since(start),
	}
	log.Info("Workflow run complete",
		logger.F("output", location),
		logger.F("bytes", blob.Size()),
		logger.F("duration", res.Duration),
	)
	if obs != nil {
		obs.RunSucceeded(res)
	}
	return res, nil
}
