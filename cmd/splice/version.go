package main

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

var version = "dev"

var commit = "none"

var date = "unknown"

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the splice version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.stdout, versionLine())
			return nil
		},
	}
}

func unset(s string) bool {
	return s == "" || s == "none" || s == "unknown"
}

func versionLine() string {
	if version != "dev" {
		return fmt.Sprintf("splice version %s", version)
	}

	c := strings.TrimSpace(commit)
	d := strings.TrimSpace(date)

	if unset(c) || unset(d) {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				v := strings.TrimSpace(s.Value)
				switch {
				case s.Key == "vcs.revision" && unset(c):
					c = v
				case s.Key == "vcs.time" && unset(d):
					d = v
				}
			}
		}
	}

	if len(c) > 7 && !unset(c) {
		c = c[:7]
	}

	switch {
	case unset(c) && unset(d):
		return "splice version dev"
	case unset(c):
		return fmt.Sprintf("splice version dev (built %s)", d)
	case unset(d):
		return fmt.Sprintf("splice version dev (commit %s)", c)
	}
	return fmt.Sprintf("splice version dev (commit %s, built %s)", c, d)
}

// shortVersion is the version shown in the banner.
func shortVersion() string {
	if version != "dev" {
		return version
	}
	return ""
}
