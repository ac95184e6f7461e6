package scan

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Gabri/internxt-sync/internal/checksum"
	"github.com/Gabri/internxt-sync/pkg/planner"
)

// LocalOptions controls what the local walk takes in.
type LocalOptions struct {
	// ExcludeHidden prunes any file or directory whose name starts with
	// a dot. Pruned directories are never descended into.
	ExcludeHidden bool
	// Excludes are doublestar glob patterns matched against the
	// slash-separated relative path.
	Excludes []string
}

// Local walks the directory tree under root and builds a flat index keyed
// by relative path, with a streamed SHA-256 content hash per file.
//
// Zero-byte files are skipped: they carry no content signal and are
// excluded from comparison. Files that cannot be read or that vanish
// mid-walk are skipped as well, trading completeness for forward
// progress.
func Local(root string, opts LocalOptions) (planner.Index, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", absRoot)
	}

	index := planner.Index{}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A subtree that cannot be read is dropped, not fatal.
			slog.Debug("skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if path == absRoot {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		relPath = filepath.ToSlash(relPath)

		if opts.ExcludeHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if excluded(relPath, opts.Excludes) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			index[relPath] = planner.IndexEntry{Kind: planner.KindDir}
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			slog.Debug("skipping vanished file", "path", path, "error", err)
			return nil
		}
		if fi.Size() == 0 {
			return nil
		}

		hash, err := checksum.File(path)
		if err != nil {
			slog.Debug("skipping unreadable file", "path", path, "error", err)
			return nil
		}

		index[relPath] = planner.IndexEntry{
			Kind:      planner.KindFile,
			Size:      fi.Size(),
			Hash:      hash,
			LocalPath: path,
			ModTime:   fi.ModTime(),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", absRoot, err)
	}

	return index, nil
}

func excluded(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return true
		}
	}
	return false
}
