package scan

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/Gabri/internxt-sync/internal/remote"
	"github.com/Gabri/internxt-sync/pkg/planner"
)

// Lister lists the immediate children of an absolute remote directory.
// *remote.Store satisfies it.
type Lister interface {
	List(ctx context.Context, dirPath string) ([]remote.Entry, error)
}

// Remote walks the remote tree under root through repeated List calls and
// builds a flat index keyed by path relative to root.
//
// An inability to list root itself is fatal to the pass. A subdirectory
// that fails to list later, for example because it was deleted
// concurrently, is treated as empty instead of aborting the scan.
//
// The walk keeps an explicit worklist rather than recursing, so stack
// depth stays bounded regardless of tree shape.
func Remote(ctx context.Context, store Lister, root string) (planner.Index, error) {
	type dir struct {
		abs string
		rel string
	}

	index := planner.Index{}

	entries, err := store.List(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("list remote root %s: %w", root, err)
	}

	worklist := []dir{}
	add := func(parent dir, children []remote.Entry) {
		for _, e := range children {
			rel := e.Name
			if parent.rel != "" {
				rel = path.Join(parent.rel, e.Name)
			}
			if e.IsDir {
				index[rel] = planner.IndexEntry{Kind: planner.KindDir}
				worklist = append(worklist, dir{abs: e.Path, rel: rel})
			} else {
				index[rel] = planner.IndexEntry{
					Kind: planner.KindFile,
					Size: e.Size,
					Hash: e.Hash,
				}
			}
		}
	}

	add(dir{abs: root}, entries)

	for len(worklist) > 0 {
		next := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		children, err := store.List(ctx, next.abs)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("remote directory vanished during scan, treating as empty", "path", next.abs, "error", err)
			continue
		}
		add(next, children)
	}

	return index, nil
}
