package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chr1sbest/splice/internal/config"
	"github.com/chr1sbest/splice/internal/script"
)

func TestInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nightly")

	res := run(t, "init", dir)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "created "+filepath.Join(dir, configFileName))

	extract, err := os.ReadFile(filepath.Join(dir, extractFileName))
	require.NoError(t, err)
	assert.Equal(t, script.DefaultExtract, string(extract))

	cfg, err := config.NewLoader(dir).LoadAndValidate(filepath.Join(dir, configFileName))
	require.NoError(t, err)
	assert.Equal(t, "nightly", cfg.Name)
	assert.Equal(t, []string{"data/*.json"}, cfg.Inputs)
	assert.Equal(t, extractFileName, cfg.Extract.File)
	assert.Equal(t, mergeFileName, cfg.Merge.File)
	assert.Equal(t, "merged.json", cfg.Output.Name)
}

func TestInitRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, mergeFileName), "// mine")

	res := run(t, "init", dir)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "already exists")

	data, err := os.ReadFile(filepath.Join(dir, mergeFileName))
	require.NoError(t, err)
	assert.Equal(t, "// mine", string(data))

	res = run(t, "init", dir, "--force")
	require.Equal(t, 0, res.code, res.stderr)

	data, err = os.ReadFile(filepath.Join(dir, mergeFileName))
	require.NoError(t, err)
	assert.Equal(t, script.DefaultMerge, string(data))
}

func TestInitBadOutputName(t *testing.T) {
	res := run(t, "init", t.TempDir(), "-o", "a/b.json")
	assert.Equal(t, 1, res.code)
}

func TestRenderConfigTemplate(t *testing.T) {
	out, err := renderConfigTemplate(configTemplateData{
		Name:        "csv",
		Inputs:      "exports/*.csv",
		ExtractFile: "e.go",
		MergeFile:   "m.go",
		OutputName:  "all.csv",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "name: csv\n")
	assert.Contains(t, out, `- "exports/*.csv"`)
	assert.Contains(t, out, "file: e.go")
	assert.Contains(t, out, "name: all.csv")
}
