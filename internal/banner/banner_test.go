package banner

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chr1sbest/splice/internal/config"
)

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	b := NewWithWriter(&buf)

	b.Print(&config.Config{Name: "orders", Description: "Nightly order merge"}, Summary{
		Files:   3,
		Bytes:   1500,
		Extract: "extract.go",
		Output:  "out/orders.json",
		Version: "v1.2.0",
	})

	out := buf.String()
	assert.Contains(t, out, "splice "+arrow+" orders v1.2.0")
	assert.Contains(t, out, "Nightly order merge")
	assert.Contains(t, out, "3 files (1.5 kB)")
	assert.Contains(t, out, "extract: extract.go")
	assert.Contains(t, out, "merge:   (default)")
	assert.Contains(t, out, "output:  out/orders.json")
	assert.NotContains(t, out, "watching")
}

func TestPrintWatchingSingleFile(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf).Print(config.Default(), Summary{Files: 1, Output: "stdout", Watching: true})

	out := buf.String()
	assert.Contains(t, out, "1 file (0 B)")
	assert.Contains(t, out, "watching for changes")
	// The default name is not repeated.
	assert.NotContains(t, out, arrow)
}

func TestLineTruncates(t *testing.T) {
	var buf bytes.Buffer
	b := NewWithWriter(&buf)
	b.line("", strings.Repeat("é", 100))

	out := buf.String()
	assert.Contains(t, out, "...")
	assert.Equal(t, b.width-4, visualLen(strings.Repeat("é", b.width-7)+"..."))
	assert.Equal(t, 0, strings.Count(out, strings.Repeat("é", b.width-6)))
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "", pluralize(1))
	assert.Equal(t, "s", pluralize(0))
	assert.Equal(t, "s", pluralize(2))
}
