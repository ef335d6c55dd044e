package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chr1sbest/splice/internal/banner"
	"github.com/chr1sbest/splice/internal/config"
	"github.com/chr1sbest/splice/internal/download"
	"github.com/chr1sbest/splice/internal/logger"
	"github.com/chr1sbest/splice/internal/script"
	"github.com/chr1sbest/splice/internal/splice"
	"github.com/chr1sbest/splice/internal/status"
	"github.com/chr1sbest/splice/internal/workflow"
)

var errNoInputs = errors.New("no input files: pass files as arguments or set inputs in the config")

type runOptions struct {
	configPath string
	extract    string
	merge      string
	output     string
	dir        string
	sets       []string
	watch      bool
	quiet      bool
	inputs     []string
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run [files or globs...]",
		Short: "Extract every selected file and merge the results",
		Long: `Runs the workflow once: Extract is evaluated for each file concurrently,
Merge receives the records in selection order, and its result is saved.

Files come from the arguments or, when none are given, from the config's
inputs. Flags override the config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.inputs = args
			return runWorkflow(cmd.Context(), a, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Workflow config (default: splice.yaml, splice.yml or splice.json if present)")
	f.StringVar(&opts.extract, "extract", "", "Extract script file")
	f.StringVar(&opts.merge, "merge", "", "Merge script file")
	f.StringVarP(&opts.output, "output", "o", "", "Artifact name (default: "+download.DefaultName+")")
	f.StringVar(&opts.dir, "dir", "", `Output directory, or "-" for stdout`)
	f.StringArrayVar(&opts.sets, "set", nil, "Script variable as key=value (repeatable)")
	f.BoolVarP(&opts.watch, "watch", "w", false, "Re-run when the config, scripts or inputs change")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress the banner and progress output")
	return cmd
}

// loadConfig reads the config named by path, or the default config in the
// working directory.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.NewLoader(filepath.Dir(path)).LoadAndValidate(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return config.NewLoader(cwd).LoadDefault()
}

// apply overrides cfg with flag values. Flag paths are relative to the
// working directory, so they are made absolute.
func (o *runOptions) apply(cfg *config.Config) error {
	if len(o.inputs) > 0 {
		cfg.Inputs = nil
		for _, in := range o.inputs {
			cfg.Inputs = append(cfg.Inputs, absPath(in))
		}
	}
	if o.extract != "" {
		cfg.Extract = config.ScriptConfig{File: absPath(o.extract)}
	}
	if o.merge != "" {
		cfg.Merge = config.ScriptConfig{File: absPath(o.merge)}
	}
	if o.output != "" {
		cfg.Output.Name = o.output
	}
	switch o.dir {
	case "":
	case "-":
		cfg.Output.Dir = "-"
	default:
		cfg.Output.Dir = absPath(o.dir)
	}

	vars, err := parseSets(o.sets)
	if err != nil {
		return err
	}
	if len(vars) > 0 && cfg.Vars == nil {
		cfg.Vars = make(map[string]string, len(vars))
	}
	for k, v := range vars {
		cfg.Vars[k] = v
	}

	return config.ValidateConfig(cfg)
}

func parseSets(sets []string) (map[string]string, error) {
	vars := make(map[string]string, len(sets))
	for _, s := range sets {
		k, v, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", s)
		}
		vars[strings.TrimSpace(k)] = v
	}
	return vars, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// buildInput collects the files and loads both scripts for one run.
func buildInput(cfg *config.Config) (workflow.Input, error) {
	files, err := splice.Collect(cfg.InputPatterns())
	if err != nil {
		return workflow.Input{}, err
	}
	files = excludeOutput(files, cfg.OutputPath())
	extract, err := cfg.Extract.Load(cfg.BaseDir, script.DefaultExtract)
	if err != nil {
		return workflow.Input{}, fmt.Errorf("extract: %w", err)
	}
	merge, err := cfg.Merge.Load(cfg.BaseDir, script.DefaultMerge)
	if err != nil {
		return workflow.Input{}, fmt.Errorf("merge: %w", err)
	}
	return workflow.Input{
		Files:         files,
		ExtractScript: extract,
		MergeScript:   merge,
		OutputName:    cfg.Output.Name,
	}, nil
}

// excludeOutput drops the artifact from the selection so a glob that covers
// the output directory does not merge the previous result into the next.
func excludeOutput(files []splice.File, output string) []splice.File {
	if output == "" {
		return files
	}
	output = absPath(output)
	kept := files[:0]
	for _, f := range files {
		if f.Path != "" && absPath(f.Path) == output {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// newOrchestrator wires an orchestrator for cfg.
func (a *app) newOrchestrator(cfg *config.Config, obs workflow.Observer) *workflow.Orchestrator {
	ev := script.NewEvaluator(script.Options{
		Vars:           cfg.Vars,
		AllowedImports: cfg.AllowedImports,
		Logger:         a.log,
	})

	var sink download.Sink
	if cfg.OutputDir() == "-" {
		sink = download.NewWriterSink(a.stdout)
	} else {
		sink = download.NewDirSink(cfg.OutputDir())
	}

	orch := workflow.NewOrchestrator(ev, sink, a.log.WithFields(logger.F("workflow", cfg.Name)))
	if obs != nil {
		orch.SetObserver(obs)
	}
	return orch
}

func summarize(cfg *config.Config, in workflow.Input, watching bool) banner.Summary {
	sum := banner.Summary{
		Files:    len(in.Files),
		Extract:  scriptLabel(cfg.Extract),
		Merge:    scriptLabel(cfg.Merge),
		Output:   filepath.Join(cfg.OutputDir(), download.ResolveName(cfg.Output.Name)),
		Watching: watching,
		Version:  shortVersion(),
	}
	if cfg.OutputDir() == "-" {
		sum.Output = "stdout"
	}
	for _, f := range in.Files {
		sum.Bytes += f.Size
	}
	return sum
}

func scriptLabel(s config.ScriptConfig) string {
	switch {
	case s.Source != "":
		return "(inline)"
	case s.File != "":
		return filepath.Base(s.File)
	}
	return ""
}

func runWorkflow(ctx context.Context, a *app, opts *runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if err := opts.apply(cfg); err != nil {
		return err
	}

	var st *status.Writer
	if !opts.quiet {
		st = status.NewWithWriter(a.stderr)
	}

	if opts.watch {
		return a.watch(ctx, cfg, opts, st)
	}

	in, err := buildInput(cfg)
	if err != nil {
		return err
	}
	if !workflow.CanRun(in) {
		return errNoInputs
	}
	if st != nil {
		banner.NewWithWriter(a.stderr).Print(cfg, summarize(cfg, in, false))
	}

	var obs workflow.Observer
	if st != nil {
		obs = st
	}
	orch := a.newOrchestrator(cfg, obs)
	if _, err := orch.Run(ctx, in); err != nil {
		if script.IsScriptError(err) {
			fmt.Fprintln(a.stderr, "Run 'splice check' to see problems with the scripts.")
		}
		if st != nil {
			return &exitError{code: 1}
		}
		return err
	}
	return nil
}

// watch runs once, then again on every change to the config, a script or
// an input. Changes that arrive while a run is in progress are dropped.
func (a *app) watch(ctx context.Context, cfg *config.Config, opts *runOptions, st *status.Writer) error {
	loader := config.NewLoader(cfg.BaseDir)
	w, err := config.NewWatcher(loader, cfg)
	if err != nil {
		return err
	}
	w.Prepare = opts.apply
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	var obs workflow.Observer
	if st != nil {
		obs = st
	}
	orch := a.newOrchestrator(cfg, obs)

	trigger := func(first bool) {
		in, err := buildInput(cfg)
		if err == nil && !workflow.CanRun(in) {
			err = errNoInputs
		}
		if err != nil {
			a.log.Warn("run not started", logger.F("error", err))
			if st != nil {
				st.RunFailed("", err)
				st.Waiting()
			}
			return
		}
		if first && st != nil {
			banner.NewWithWriter(a.stderr).Print(cfg, summarize(cfg, in, true))
		}
		if !orch.Start(ctx, in) {
			a.log.Debug("run already in progress, change dropped")
		}
	}

	trigger(true)
	for {
		select {
		case <-ctx.Done():
			orch.Wait()
			if st != nil {
				st.Clear()
			}
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				orch.Wait()
				return nil
			}
			if ev.Error != nil {
				a.log.Warn("watch error", logger.F("path", ev.Path), logger.F("error", ev.Error))
				if st != nil {
					st.RunFailed("", ev.Error)
				}
				continue
			}
			a.log.Debug("change detected", logger.F("path", ev.Path), logger.F("kind", string(ev.Kind)))
			if ev.Config != nil {
				// Scripts and vars may have changed; let the current run
				// finish before switching.
				orch.Wait()
				cfg = ev.Config
				orch = a.newOrchestrator(cfg, obs)
			}
			trigger(false)
		}
	}
}
