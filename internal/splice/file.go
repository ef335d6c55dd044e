// Package splice holds the data model shared by the workflow stages and the
// scripts they evaluate: input files, extracted records, output blobs and
// deferred values. Every exported name here is also visible to scripts under
// `import "splice"`.
package splice

import (
	"fmt"
	"os"
	"path/filepath"
)

// File is one selected input. It is immutable once constructed; its content
// is read on demand through Bytes or Text.
type File struct {
	Name string
	Path string
	Size int64

	open func() ([]byte, error)
}

// NewFile creates a File whose content is produced by open.
func NewFile(name string, size int64, open func() ([]byte, error)) File {
	return File{Name: name, Size: size, open: open}
}

// FileFromBytes creates an in-memory File.
func FileFromBytes(name string, data []byte) File {
	buf := append([]byte(nil), data...)
	return File{
		Name: name,
		Size: int64(len(buf)),
		open: func() ([]byte, error) { return buf, nil },
	}
}

// FileFromPath stats path and returns a File that reads it lazily.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to stat input: %w", err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("input %s is a directory", path)
	}
	return File{
		Name: filepath.Base(path),
		Path: path,
		Size: info.Size(),
		open: func() ([]byte, error) { return os.ReadFile(path) },
	}, nil
}

// Bytes returns the full file content.
func (f File) Bytes() ([]byte, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %q has no content", f.Name)
	}
	data, err := f.open()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return data, nil
}

// Text returns the file content as a string.
func (f File) Text() (string, error) {
	data, err := f.Bytes()
	if err != nil {
		return "", err
	}
	return string(data), nil
}
