package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "splice.yaml")
	writeFile(t, path, `name: orders
description: Merge order exports
inputs:
  - data/*.csv
extract:
  file: extract.go
merge:
  source: |
    func Merge(records []splice.Record) (interface{}, error) { return "ok", nil }
output:
  name: orders.json
  dir: out
vars:
  region: eu
allowed_imports:
  - strings
`)

	cfg, err := NewLoader(dir).LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "orders", cfg.Name)
	assert.Equal(t, "Merge order exports", cfg.Description)
	assert.Equal(t, []string{"data/*.csv"}, cfg.Inputs)
	assert.Equal(t, "extract.go", cfg.Extract.File)
	assert.Contains(t, cfg.Merge.Source, "func Merge")
	assert.Equal(t, OutputConfig{Name: "orders.json", Dir: "out"}, cfg.Output)
	assert.Equal(t, map[string]string{"region": "eu"}, cfg.Vars)
	assert.Equal(t, []string{"strings"}, cfg.AllowedImports)
	assert.Equal(t, dir, cfg.BaseDir)
	assert.Equal(t, path, cfg.Path)

	assert.Equal(t, []string{filepath.Join(dir, "data/*.csv")}, cfg.InputPatterns())
	assert.Equal(t, []string{filepath.Join(dir, "extract.go")}, cfg.ScriptFiles())
	assert.Equal(t, filepath.Join(dir, "out"), cfg.OutputDir())
}

func TestLoadFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nightly.json")
	writeFile(t, path, `{"inputs": ["*.json"], "output": {"dir": "-"}}`)

	cfg, err := NewLoader(dir).LoadFile(path)
	require.NoError(t, err)

	// Name defaults to the file's base name.
	assert.Equal(t, "nightly", cfg.Name)
	assert.True(t, cfg.Extract.IsDefault())
	assert.Equal(t, "-", cfg.OutputDir())
}

func TestLoadFileExpandsEnv(t *testing.T) {
	t.Setenv("SPLICE_OUT", "reports")
	dir := t.TempDir()
	path := filepath.Join(dir, "splice.yml")
	writeFile(t, path, "output:\n  dir: ${SPLICE_OUT}\n  name: ${SPLICE_NAME:-all.json}\n")

	cfg, err := NewLoader(dir).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, OutputConfig{Name: "all.json", Dir: "reports"}, cfg.Output)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(dir)

	_, err := loader.LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	unknown := filepath.Join(dir, "typo.yaml")
	writeFile(t, unknown, "nmae: oops\n")
	_, err = loader.LoadFile(unknown)
	assert.ErrorContains(t, err, "failed to parse config YAML")

	badJSON := filepath.Join(dir, "bad.json")
	writeFile(t, badJSON, `{"name": `)
	_, err = loader.LoadFile(badJSON)
	assert.ErrorContains(t, err, "failed to parse config JSON")

	toml := filepath.Join(dir, "splice.toml")
	writeFile(t, toml, "name = 'x'")
	_, err = loader.LoadFile(toml)
	assert.ErrorContains(t, err, "unsupported config format")
}

func TestLoadAndValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "splice.yaml")
	writeFile(t, path, "extract:\n  file: a.go\n  source: x\noutput:\n  name: ../escape.json\n")

	_, err := NewLoader(dir).LoadAndValidate(path)
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
}

func TestLoadDefault(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(dir)

	cfg, err := loader.LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, "splice", cfg.Name)
	assert.Equal(t, dir, cfg.BaseDir)
	assert.Empty(t, loader.FindDefault())

	writeFile(t, filepath.Join(dir, "splice.json"), `{"name": "from-json"}`)
	writeFile(t, filepath.Join(dir, "splice.yaml"), "name: from-yaml\n")

	cfg, err = loader.LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.Name)
}

func TestScriptConfigLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "merge.go"), "func Merge() {}")

	src, err := ScriptConfig{}.Load(dir, "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", src)

	src, err = ScriptConfig{Source: "inline"}.Load(dir, "fallback")
	require.NoError(t, err)
	assert.Equal(t, "inline", src)

	src, err = ScriptConfig{File: "merge.go"}.Load(dir, "fallback")
	require.NoError(t, err)
	assert.Equal(t, "func Merge() {}", src)

	_, err = ScriptConfig{File: "nope.go"}.Load(dir, "fallback")
	assert.ErrorContains(t, err, "failed to read script")
}

func TestOutputPath(t *testing.T) {
	cfg := &Config{BaseDir: "/work"}
	assert.Equal(t, filepath.Join("/work", "merged.json"), cfg.OutputPath())

	cfg.Output = OutputConfig{Name: "all.csv", Dir: "out"}
	assert.Equal(t, filepath.Join("/work", "out", "all.csv"), cfg.OutputPath())

	cfg.Output.Dir = "-"
	assert.Empty(t, cfg.OutputPath())
}
