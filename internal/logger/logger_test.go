package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core))

	child := log.WithFields(F("run_id", "abc"))
	child.Info("run finished", F("files", 2), F("error", errors.New("boom")))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "run finished", entries[0].Message)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "abc", ctx["run_id"])
	assert.EqualValues(t, 2, ctx["files"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestZapLoggerLevelFilter(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := NewFromZap(zap.New(core))

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")
	log.Error("shown")

	assert.Equal(t, 2, logs.Len())
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splice.log")
	log, err := New(Config{Level: LevelInfo, File: path, Quiet: true})
	require.NoError(t, err)

	log.Debug("dropped")
	log.Info("kept", F("k", "v"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"kept"`)
	assert.Contains(t, string(data), `"k":"v"`)
	assert.NotContains(t, string(data), "dropped")
}

func TestCloseReleasesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splice.log")
	log, err := New(Config{Level: LevelInfo, File: path, Quiet: true})
	require.NoError(t, err)
	require.NotNil(t, log.file)

	log.Info("before close")
	require.NoError(t, log.Close())
	assert.Nil(t, log.file)
	assert.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"before close"`)
}

func TestCloseWithoutFile(t *testing.T) {
	log, err := New(Config{Level: LevelInfo, Quiet: true})
	require.NoError(t, err)
	assert.NoError(t, log.Close())
}

func TestNoopLogger(t *testing.T) {
	var log Logger = NewNoopLogger()
	log = log.WithFields(F("a", 1))
	log.Error("nothing happens")
}
