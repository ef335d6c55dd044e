package splice

import (
	"fmt"
	"path/filepath"
)

// Collect expands paths and glob patterns into Files. Selection order follows
// the argument order; matches within one glob are in lexical order, and a path
// selected twice is kept only at its first position.
func Collect(patterns []string) ([]File, error) {
	var files []File
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid input pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			if hasMeta(pattern) {
				continue
			}
			return nil, fmt.Errorf("input not found: %s", pattern)
		}

		for _, path := range matches {
			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}
			if seen[abs] {
				continue
			}
			f, err := FileFromPath(path)
			if err != nil {
				if hasMeta(pattern) {
					// globs may also match directories
					continue
				}
				return nil, err
			}
			seen[abs] = true
			files = append(files, f)
		}
	}

	return files, nil
}

func hasMeta(pattern string) bool {
	for _, c := range pattern {
		switch c {
		case '*', '?', '[':
			return true
		}
	}
	return false
}
