package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chr1sbest/splice/internal/logger"
)

// exitError carries an exit code for a failure that was already reported.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// app holds state shared by every subcommand.
type app struct {
	verbose bool
	logFile string

	log    logger.Logger
	zap    *logger.ZapLogger
	stdout io.Writer
	stderr io.Writer
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		log:    logger.NewNoopLogger(),
		stdout: stdout,
		stderr: stderr,
	}
}

// initLogger builds the logger. Console logging is only on with --verbose
// so it does not fight the status line.
func (a *app) initLogger() error {
	level := logger.LevelWarn
	if a.verbose {
		level = logger.LevelDebug
	}
	z, err := logger.New(logger.Config{
		Level: level,
		File:  a.logFile,
		Quiet: !a.verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.zap = z
	a.log = z
	return nil
}

func (a *app) closeLogger() {
	if a.zap != nil {
		_ = a.zap.Close()
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "splice",
		Short: "Extract data from many files with a script and merge it into one",
		Long: `splice runs a user-supplied Extract function over every selected file
concurrently, hands the results in selection order to a Merge function, and
saves what Merge returns as a single artifact.

Scripts are Go source evaluated at runtime. Without scripts, every file is
parsed as JSON and merged into one object keyed by file name.

Examples:
  splice run a.json b.json
  splice run --extract extract.go --merge merge.go -o report.csv data/*.csv
  splice init && splice run --watch`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initLogger()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging on stderr")
	root.PersistentFlags().StringVar(&a.logFile, "log-file", "", "Append JSON logs to this file")

	root.AddCommand(
		newRunCmd(a),
		newInitCmd(a),
		newCheckCmd(a),
		newVersionCmd(a),
	)
	return root
}

func execute(args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	root := newRootCmd(a)
	root.SetArgs(args)
	// Cobra skips post-run hooks when a command fails, so close here.
	defer a.closeLogger()

	if err := root.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			return exit.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
