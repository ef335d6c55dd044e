package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chr1sbest/splice/internal/download"
)

// Config describes one extract/merge workflow, loaded from YAML or JSON.
type Config struct {
	Name           string            `json:"name" yaml:"name"`
	Description    string            `json:"description,omitempty" yaml:"description,omitempty"`
	Inputs         []string          `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Extract        ScriptConfig      `json:"extract" yaml:"extract"`
	Merge          ScriptConfig      `json:"merge" yaml:"merge"`
	Output         OutputConfig      `json:"output" yaml:"output"`
	Vars           map[string]string `json:"vars,omitempty" yaml:"vars,omitempty"`
	AllowedImports []string          `json:"allowed_imports,omitempty" yaml:"allowed_imports,omitempty"`

	// Path is the file the config was loaded from, if any.
	Path string `json:"-" yaml:"-"`
	// BaseDir is the directory relative paths resolve against.
	BaseDir string `json:"-" yaml:"-"`
}

// ScriptConfig points at a script file or holds the source inline. When both
// are empty the built-in default script is used.
type ScriptConfig struct {
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// OutputConfig controls where the artifact is written. Dir "-" means stdout.
type OutputConfig struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Dir  string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// Default returns the config used when no file is given.
func Default() *Config {
	return &Config{Name: "splice", BaseDir: "."}
}

// IsDefault reports whether neither a file nor inline source is set.
func (s ScriptConfig) IsDefault() bool {
	return s.File == "" && s.Source == ""
}

// Load returns the script source. Relative files resolve against baseDir;
// fallback is returned for a default script.
func (s ScriptConfig) Load(baseDir, fallback string) (string, error) {
	if s.Source != "" {
		return s.Source, nil
	}
	if s.File == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(resolve(baseDir, s.File))
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	return string(data), nil
}

// ResolvePath makes p relative to the config's directory.
func (c *Config) ResolvePath(p string) string {
	return resolve(c.BaseDir, p)
}

// InputPatterns returns the input globs resolved against BaseDir.
func (c *Config) InputPatterns() []string {
	out := make([]string, 0, len(c.Inputs))
	for _, in := range c.Inputs {
		out = append(out, c.ResolvePath(in))
	}
	return out
}

// ScriptFiles returns the script files the config references.
func (c *Config) ScriptFiles() []string {
	var out []string
	for _, s := range []ScriptConfig{c.Extract, c.Merge} {
		if s.Source == "" && s.File != "" {
			out = append(out, c.ResolvePath(s.File))
		}
	}
	return out
}

// OutputDir returns the resolved output directory. "-" is kept as is.
func (c *Config) OutputDir() string {
	switch c.Output.Dir {
	case "-":
		return "-"
	case "":
		return c.ResolvePath(".")
	default:
		return c.ResolvePath(c.Output.Dir)
	}
}

// OutputPath returns the artifact path, or "" when writing to stdout.
func (c *Config) OutputPath() string {
	dir := c.OutputDir()
	if dir == "-" {
		return ""
	}
	return filepath.Join(dir, download.ResolveName(c.Output.Name))
}

func resolve(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}
