// Package download delivers produced artifacts. It stands in for the browser
// download helper: a Sink receives the artifact under its output name.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chr1sbest/splice/internal/splice"
)

// DefaultName is used when no output name is given.
const DefaultName = "merged.json"

// ErrInvalidName is returned for output names that would escape the sink.
var ErrInvalidName = errors.New("invalid output name")

// Sink stores an artifact and returns where it ended up.
type Sink interface {
	Save(ctx context.Context, name string, blob splice.Blob) (string, error)
}

// ResolveName returns name, or DefaultName when name is blank. No extension
// is added or enforced.
func ResolveName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultName
	}
	return name
}

// ValidateName rejects names containing path separators or dot segments.
func ValidateName(name string) error {
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// DirSink writes artifacts into a directory.
type DirSink struct {
	Dir string
}

// NewDirSink creates a sink writing into dir.
func NewDirSink(dir string) *DirSink {
	return &DirSink{Dir: dir}
}

// Save writes the artifact atomically, replacing an existing file.
func (s *DirSink) Save(ctx context.Context, name string, blob splice.Blob) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name = ResolveName(name)
	if err := ValidateName(name); err != nil {
		return "", err
	}

	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := writeFileAtomic(path, blob.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// WriterSink streams artifacts to a writer, such as stdout.
type WriterSink struct {
	W io.Writer
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{W: w}
}

func (s *WriterSink) Save(ctx context.Context, name string, blob splice.Blob) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := s.W.Write(blob.Data); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return "-", nil
}

// TempPrefix is the prefix of the temporary files DirSink writes next to
// path before renaming them into place.
func TempPrefix(path string) string {
	return path + ".tmp."
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := fmt.Sprintf("%s%d", TempPrefix(path), time.Now().UnixNano())
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
