package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Clean recursively removes every path and then calls done exactly once with
// the paths that existed and the first error encountered. Paths that do not
// exist are skipped. The working directory and its ancestors are never
// removed.
func Clean(paths []string, done func(removed []string, err error)) {
	removed, err := remove(paths)
	if done != nil {
		done(removed, err)
	}
}

func remove(paths []string) ([]string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}

	var removed []string

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return removed, fmt.Errorf("resolving %s: %w", p, err)
		}

		if p == "" || isAncestorOrSelf(abs, cwd) {
			return removed, fmt.Errorf("refusing to delete %q: it contains the working directory", p)
		}

		if _, err := os.Lstat(abs); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}

			return removed, fmt.Errorf("inspecting %s: %w", p, err)
		}

		if err := os.RemoveAll(abs); err != nil {
			return removed, fmt.Errorf("deleting %s: %w", p, err)
		}

		removed = append(removed, p)
	}

	return removed, nil
}

// isAncestorOrSelf reports whether dir equals path or contains it.
func isAncestorOrSelf(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
