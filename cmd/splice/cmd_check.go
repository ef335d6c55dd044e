package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chr1sbest/splice/internal/config"
	"github.com/chr1sbest/splice/internal/script"
	"github.com/chr1sbest/splice/internal/workflow"
)

func newCheckCmd(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate the extract and merge scripts without running them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkScripts(a, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Workflow config")
	f.StringVar(&opts.extract, "extract", "", "Extract script file")
	f.StringVar(&opts.merge, "merge", "", "Merge script file")
	f.StringArrayVar(&opts.sets, "set", nil, "Script variable as key=value (repeatable)")
	return cmd
}

func checkScripts(a *app, opts *runOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if err := opts.apply(cfg); err != nil {
		return err
	}

	ev := script.NewEvaluator(script.Options{
		Vars:           cfg.Vars,
		AllowedImports: cfg.AllowedImports,
		Logger:         a.log,
	})

	failed := false
	report := func(stage string, sc config.ScriptConfig, fallback string, bound func(*script.Bindings) bool) {
		label := scriptLabel(sc)
		if label == "" {
			label = "(default)"
		}
		err := checkScript(ev, sc, cfg.BaseDir, stage, fallback, bound)
		if err != nil {
			failed = true
			fmt.Fprintf(a.stdout, "✗ %s %s\n  %v\n", stage, label, err)
			return
		}
		fmt.Fprintf(a.stdout, "✓ %s %s\n", stage, label)
	}

	report(workflow.StageExtract, cfg.Extract, script.DefaultExtract, func(b *script.Bindings) bool { return b.Extract != nil })
	report(workflow.StageMerge, cfg.Merge, script.DefaultMerge, func(b *script.Bindings) bool { return b.Merge != nil })

	if failed {
		return &exitError{code: 1}
	}
	return nil
}

func checkScript(ev *script.Evaluator, sc config.ScriptConfig, baseDir, stage, fallback string, bound func(*script.Bindings) bool) error {
	src, err := sc.Load(baseDir, fallback)
	if err != nil {
		return err
	}
	b, err := ev.Evaluate(stage, src)
	if err != nil {
		return err
	}
	if !bound(b) {
		return fmt.Errorf("%w: %s", workflow.ErrMissingFunction, stage)
	}
	return nil
}
