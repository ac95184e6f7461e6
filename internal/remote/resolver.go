package remote

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// idCacheSize bounds the identifier cache. Evicted entries are simply
// re-resolved by traversal on the next miss.
const idCacheSize = 8192

// resolver maps absolute remote paths to transport identifiers for
// identifier-addressed transports. Unknown paths are resolved by walking
// segment by segment from the root, listing each already-resolved parent
// and memoizing every directory identifier observed along the way. For
// path-addressed transports resolution is the identity function and the
// cache stays untouched.
type resolver struct {
	transport Transport

	// Serializes traversal so a concurrent caller never observes a
	// partially populated cache.
	mu  sync.Mutex
	ids *lru.Cache[string, string]
}

func newResolver(t Transport) *resolver {
	ids, _ := lru.New[string, string](idCacheSize)
	// The drive root maps to the empty identifier.
	ids.Add("/", "")
	return &resolver{transport: t, ids: ids}
}

// dir resolves an absolute remote directory path to a Ref usable in
// transport calls. Missing segments yield ErrNotFound.
func (r *resolver) dir(ctx context.Context, dirPath string) (Ref, error) {
	dirPath = normalizePath(dirPath)

	if r.transport.PathAddressed() {
		return Ref{Path: dirPath, IsDir: true}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.ids.Get(dirPath); ok {
		return Ref{Path: dirPath, ID: id, IsDir: true}, nil
	}
	return r.walk(ctx, dirPath)
}

// walk resolves dirPath top-down from the deepest cached ancestor,
// caching every directory identifier it sees, not just the target.
// Callers hold r.mu.
func (r *resolver) walk(ctx context.Context, dirPath string) (Ref, error) {
	cur := Ref{Path: "/", IsDir: true}
	segments := splitPath(dirPath)

	// Skip ahead past ancestors resolved on earlier walks.
	for i := len(segments); i > 0; i-- {
		prefix := "/" + strings.Join(segments[:i], "/")
		if id, ok := r.ids.Get(prefix); ok {
			cur = Ref{Path: prefix, ID: id, IsDir: true}
			segments = segments[i:]
			break
		}
	}

	for _, seg := range segments {
		entries, err := r.transport.List(ctx, cur)
		if err != nil {
			return Ref{}, err
		}

		next := Ref{}
		for _, e := range entries {
			if !e.IsDir {
				continue
			}
			r.ids.Add(e.Path, e.ID)
			if e.Name == seg {
				next = Ref{Path: e.Path, ID: e.ID, IsDir: true}
			}
		}
		if next.Path == "" {
			return Ref{}, fmt.Errorf("resolve %s: segment %q: %w", dirPath, seg, ErrNotFound)
		}
		cur = next
	}
	return cur, nil
}

// record memoizes an identifier learned from a list, mkdir, or upload
// response.
func (r *resolver) record(remotePath, id string) {
	if r.transport.PathAddressed() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids.Add(normalizePath(remotePath), id)
}

// invalidate drops the identifier for remotePath and everything below it,
// typically after a delete.
func (r *resolver) invalidate(remotePath string) {
	if r.transport.PathAddressed() {
		return
	}
	remotePath = normalizePath(remotePath)

	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := remotePath + "/"
	for _, key := range r.ids.Keys() {
		if key == remotePath || strings.HasPrefix(key, prefix) {
			r.ids.Remove(key)
		}
	}
}

// normalizePath turns any remote path spelling into a clean absolute
// slash path.
func normalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func splitPath(p string) []string {
	p = strings.Trim(normalizePath(p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
