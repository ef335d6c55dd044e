package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chr1sbest/splice/internal/download"
	"github.com/chr1sbest/splice/internal/logger"
	"github.com/chr1sbest/splice/internal/script"
)

const (
	extractFileName = "extract.go"
	mergeFileName   = "merge.go"
	configFileName  = "splice.yaml"
)

type initOptions struct {
	name   string
	inputs string
	output string
	force  bool
}

func newInitCmd(a *app) *cobra.Command {
	opts := &initOptions{}
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write default scripts and a splice.yaml",
		Long: `Creates extract.go, merge.go and splice.yaml in dir (default: the current
directory). The scripts are the built-in defaults, ready to edit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return initWorkflow(a, dir, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.name, "name", "", "Workflow name (default: directory name)")
	f.StringVar(&opts.inputs, "inputs", "data/*.json", "Input glob written to the config")
	f.StringVarP(&opts.output, "output", "o", download.DefaultName, "Artifact name written to the config")
	f.BoolVarP(&opts.force, "force", "f", false, "Overwrite existing files")
	return cmd
}

func initWorkflow(a *app, dir string, opts *initOptions) error {
	if err := download.ValidateName(opts.output); err != nil {
		return err
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	name := opts.name
	if name == "" {
		name = filepath.Base(abs)
	}

	cfg, err := renderConfigTemplate(configTemplateData{
		Name:        name,
		Inputs:      opts.inputs,
		ExtractFile: extractFileName,
		MergeFile:   mergeFileName,
		OutputName:  opts.output,
	})
	if err != nil {
		return err
	}

	files := []struct {
		name    string
		content string
	}{
		{extractFileName, script.DefaultExtract},
		{mergeFileName, script.DefaultMerge},
		{configFileName, cfg},
	}

	if !opts.force {
		for _, f := range files {
			path := filepath.Join(abs, f.name)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}
	}

	if err := os.MkdirAll(abs, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", abs, err)
	}
	for _, f := range files {
		path := filepath.Join(abs, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		a.log.Debug("wrote file", logger.F("path", path))
		fmt.Fprintf(a.stdout, "created %s\n", path)
	}

	fmt.Fprintf(a.stdout, "\nNext:\n  cd %s\n  splice run\n", dir)
	return nil
}
