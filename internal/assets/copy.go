package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hupe1980/ionbuild/internal/globs"
)

// Copy copies every regular file matching one of patterns into dest. Each
// file keeps its path relative to the static base of the pattern it matched,
// so "fonts/**/*.ttf" copies fonts/a/b.ttf to <dest>/a/b.ttf. A pattern whose
// base does not exist matches nothing. Copy returns the destination paths in
// the order they were written.
func Copy(ctx context.Context, patterns []string, dest string) ([]string, error) {
	var copied []string

	seen := make(map[string]bool)

	for _, pattern := range patterns {
		m, err := globs.Compile(pattern)
		if err != nil {
			return copied, err
		}

		base := globs.Base(pattern)

		err = filepath.WalkDir(base, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if path == base && errors.Is(walkErr, fs.ErrNotExist) {
					return filepath.SkipDir
				}

				return walkErr
			}

			if err := ctx.Err(); err != nil {
				return err
			}

			if d.IsDir() || !d.Type().IsRegular() || !m.Match(path) {
				return nil
			}

			rel, err := filepath.Rel(base, path)
			if err != nil {
				return err
			}

			target := filepath.Join(dest, rel)
			if seen[target] {
				return nil
			}

			if err := copyFile(path, target); err != nil {
				return err
			}

			seen[target] = true
			copied = append(copied, target)

			return nil
		})
		if err != nil {
			return copied, fmt.Errorf("copying %q: %w", pattern, err)
		}
	}

	return copied, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // paths come from the project config
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()) //nolint:gosec // see above
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}

	return out.Close()
}
