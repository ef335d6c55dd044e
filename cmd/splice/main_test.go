package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	code := execute(args, &out, &errOut)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestUnknownCommand(t *testing.T) {
	res := run(t, "frobnicate")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "unknown command")
}

func TestVersionCommand(t *testing.T) {
	res := run(t, "version")
	assert.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, "splice version")
}

func TestLogFile(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a.json"), `{"x":1}`)
	logPath := filepath.Join(dir, "splice.log")

	res := run(t, "run", "-q", "--log-file", logPath, "--dir", "-", a)
	require.Equal(t, 0, res.code, res.stderr)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	// Only warnings and above are logged without --verbose.
	assert.Empty(t, string(data))

	res = run(t, "run", "-q", "-v", "--log-file", logPath, "--dir", "-", a)
	require.Equal(t, 0, res.code, res.stderr)

	data, err = os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Workflow run complete"`)
}

func TestLogFileClosedAfterFailedRun(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, filepath.Join(dir, "bad.json"), `{not json`)
	logPath := filepath.Join(dir, "splice.log")

	a := newApp(&bytes.Buffer{}, &bytes.Buffer{})
	root := newRootCmd(a)
	root.SetArgs([]string{"run", "-q", "--log-file", logPath, "--dir", "-", bad})
	require.Error(t, root.Execute())
	require.NotNil(t, a.zap)

	a.closeLogger()
	// A second close is a no-op.
	a.closeLogger()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Workflow run failed"`)
}
