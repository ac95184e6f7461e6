package remote

import (
	"context"
)

// Entry is one immediate child returned by a single List call. It is
// ephemeral: produced, consumed, never persisted.
type Entry struct {
	Name  string
	IsDir bool
	Size  int64  // bytes, 0 for directories
	Path  string // absolute remote path
	ID    string // transport identifier; empty for path-addressed transports
	Hash  string // content hash, only when the transport surfaces one
}

// Ref addresses one remote object for a transport call. Path-addressed
// transports use Path alone; identifier-addressed transports require ID
// to have been resolved first.
type Ref struct {
	Path  string
	ID    string
	IsDir bool
}

// Transport performs raw storage operations against one of the two
// interchangeable backends: the internxt CLI subprocess or the local
// WebDAV endpoint. Implementations never interpret hierarchical paths
// beyond what their addressing scheme requires; path resolution lives
// in the Store.
type Transport interface {
	// PathAddressed reports whether Refs are resolvable by Path alone,
	// making identifier resolution a no-op.
	PathAddressed() bool

	// List returns the immediate children of dir, excluding dir itself.
	// An existing but empty directory yields an empty slice, not an error.
	// A missing directory yields ErrNotFound.
	List(ctx context.Context, dir Ref) ([]Entry, error)

	// Mkdir creates a directory named name under parent and returns the
	// created entry, including any transport-assigned identifier.
	Mkdir(ctx context.Context, parent Ref, name string) (*Entry, error)

	// Upload stores the local file under parent as name, overwriting if
	// the backend allows it, and returns the created entry.
	Upload(ctx context.Context, localPath string, parent Ref, name string) (*Entry, error)

	// Delete removes target. Directories are removed recursively.
	Delete(ctx context.Context, target Ref) error

	// Download fetches target into the local file destPath. Callers are
	// expected to pass a temporary destination and rename it into place.
	Download(ctx context.Context, target Ref, destPath string) error
}
