package remote

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNode is one object in the fake drive.
type fakeNode struct {
	id       string
	name     string
	isDir    bool
	size     int64
	content  string
	children map[string]*fakeNode // by name, directories only
}

// fakeTransport is an in-memory identifier-addressed backend, shaped like
// the CLI transport: every call must come in with a resolved identifier.
type fakeTransport struct {
	root      *fakeNode
	byID      map[string]*fakeNode
	nextID    int
	listCalls int
}

func newFakeTransport() *fakeTransport {
	root := &fakeNode{id: "", isDir: true, children: map[string]*fakeNode{}}
	return &fakeTransport{
		root: root,
		byID: map[string]*fakeNode{"": root},
	}
}

func (f *fakeTransport) addDir(dirPath string) *fakeNode {
	parent := f.root
	for _, seg := range strings.Split(strings.Trim(dirPath, "/"), "/") {
		child, ok := parent.children[seg]
		if !ok {
			f.nextID++
			child = &fakeNode{
				id:       "id-" + strconv.Itoa(f.nextID),
				name:     seg,
				isDir:    true,
				children: map[string]*fakeNode{},
			}
			parent.children[seg] = child
			f.byID[child.id] = child
		}
		parent = child
	}
	return parent
}

func (f *fakeTransport) addFile(filePath, content string) *fakeNode {
	dir, name := path.Split(strings.Trim(filePath, "/"))
	parent := f.root
	if dir != "" {
		parent = f.addDir(dir)
	}
	f.nextID++
	node := &fakeNode{
		id:      "id-" + strconv.Itoa(f.nextID),
		name:    name,
		size:    int64(len(content)),
		content: content,
	}
	parent.children[name] = node
	f.byID[node.id] = node
	return node
}

func (f *fakeTransport) PathAddressed() bool { return false }

func (f *fakeTransport) List(ctx context.Context, dir Ref) ([]Entry, error) {
	f.listCalls++
	node, ok := f.byID[dir.ID]
	if !ok || !node.isDir {
		return nil, fmt.Errorf("list %s: %w", dir.Path, ErrNotFound)
	}
	entries := make([]Entry, 0, len(node.children))
	for name, child := range node.children {
		entries = append(entries, Entry{
			Name:  name,
			IsDir: child.isDir,
			Size:  child.size,
			Path:  path.Join(dir.Path, name),
			ID:    child.id,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (f *fakeTransport) Mkdir(ctx context.Context, parent Ref, name string) (*Entry, error) {
	node, ok := f.byID[parent.ID]
	if !ok || !node.isDir {
		return nil, fmt.Errorf("mkdir under %s: %w", parent.Path, ErrNotFound)
	}
	f.nextID++
	child := &fakeNode{
		id:       "id-" + strconv.Itoa(f.nextID),
		name:     name,
		isDir:    true,
		children: map[string]*fakeNode{},
	}
	node.children[name] = child
	f.byID[child.id] = child
	return &Entry{Name: name, IsDir: true, Path: path.Join(parent.Path, name), ID: child.id}, nil
}

func (f *fakeTransport) Upload(ctx context.Context, localPath string, parent Ref, name string) (*Entry, error) {
	node, ok := f.byID[parent.ID]
	if !ok || !node.isDir {
		return nil, fmt.Errorf("upload under %s: %w", parent.Path, ErrNotFound)
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, &TransportError{Op: "upload", Target: name, Err: err}
	}
	f.nextID++
	child := &fakeNode{
		id:      "id-" + strconv.Itoa(f.nextID),
		name:    name,
		size:    int64(len(data)),
		content: string(data),
	}
	node.children[name] = child
	f.byID[child.id] = child
	return &Entry{Name: name, Size: child.size, Path: path.Join(parent.Path, name), ID: child.id}, nil
}

func (f *fakeTransport) Delete(ctx context.Context, target Ref) error {
	node, ok := f.byID[target.ID]
	if !ok {
		return fmt.Errorf("delete %s: %w", target.Path, ErrNotFound)
	}
	delete(f.byID, target.ID)
	// Unlink from whichever directory holds it.
	var unlink func(dir *fakeNode) bool
	unlink = func(dir *fakeNode) bool {
		for name, child := range dir.children {
			if child == node {
				delete(dir.children, name)
				return true
			}
			if child.isDir && unlink(child) {
				return true
			}
		}
		return false
	}
	unlink(f.root)
	return nil
}

func (f *fakeTransport) Download(ctx context.Context, target Ref, destPath string) error {
	node, ok := f.byID[target.ID]
	if !ok || node.isDir {
		return fmt.Errorf("download %s: %w", target.Path, ErrNotFound)
	}
	return os.WriteFile(destPath, []byte(node.content), 0644)
}

func TestStoreListResolvesNestedPath(t *testing.T) {
	fake := newFakeTransport()
	fake.addFile("/a/b/one.txt", "hello")
	fake.addFile("/a/b/two.txt", "world!")

	store := NewStore(fake)

	entries, err := store.List(context.Background(), "/a/b")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "one.txt", entries[0].Name)
	assert.Equal(t, int64(5), entries[0].Size)
	assert.Equal(t, "/a/b/one.txt", entries[0].Path)
}

func TestStoreListEmptyDirIsNotAnError(t *testing.T) {
	fake := newFakeTransport()
	fake.addDir("/empty")

	store := NewStore(fake)

	entries, err := store.List(context.Background(), "/empty")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreListMissingDir(t *testing.T) {
	fake := newFakeTransport()
	store := NewStore(fake)

	_, err := store.List(context.Background(), "/nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolverCachesIntermediateDirs(t *testing.T) {
	fake := newFakeTransport()
	fake.addDir("/a/b/c")
	fake.addDir("/a/b/d")

	store := NewStore(fake)
	ctx := context.Background()

	_, err := store.List(ctx, "/a/b/c")
	require.NoError(t, err)
	resolving := fake.listCalls

	// Sibling resolution must reuse identifiers cached during the first
	// traversal: one more list for the target itself, nothing to re-walk.
	_, err = store.List(ctx, "/a/b/d")
	require.NoError(t, err)
	assert.Equal(t, resolving+1, fake.listCalls)
}

func TestStoreMkdirParentNotFound(t *testing.T) {
	fake := newFakeTransport()
	store := NewStore(fake)

	err := store.Mkdir(context.Background(), "/missing/child")
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestStoreMkdirCachesNewIdentifier(t *testing.T) {
	fake := newFakeTransport()
	store := NewStore(fake)
	ctx := context.Background()

	require.NoError(t, store.Mkdir(ctx, "/fresh"))
	require.NoError(t, store.Mkdir(ctx, "/fresh/inner"))

	// Creating the child must have used the cached identifier of the
	// parent, not a traversal.
	assert.Zero(t, fake.listCalls)
}

func TestStoreUploadAndDownloadRoundTrip(t *testing.T) {
	fake := newFakeTransport()
	fake.addDir("/docs")

	store := NewStore(fake)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(src, []byte("contents"), 0644))
	require.NoError(t, store.Upload(ctx, src, "/docs/note.txt"))

	dst := filepath.Join(t.TempDir(), "copy.txt")
	require.NoError(t, store.Download(ctx, "/docs/note.txt", dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "contents", string(data))

	// No partial files may remain next to the destination.
	leftovers, err := os.ReadDir(filepath.Dir(dst))
	require.NoError(t, err)
	assert.Len(t, leftovers, 1)
}

func TestStoreUploadParentNotFound(t *testing.T) {
	fake := newFakeTransport()
	store := NewStore(fake)

	src := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))

	err := store.Upload(context.Background(), src, "/missing/f.txt")
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestStoreDownloadNotFound(t *testing.T) {
	fake := newFakeTransport()
	fake.addDir("/docs")

	store := NewStore(fake)

	dst := filepath.Join(t.TempDir(), "out.txt")
	err := store.Download(context.Background(), "/docs/ghost.txt", dst)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoFileExists(t, dst)
}

func TestStoreDeleteIsBestEffort(t *testing.T) {
	fake := newFakeTransport()
	fake.addFile("/a/f.txt", "x")

	store := NewStore(fake)
	ctx := context.Background()

	require.NoError(t, store.Delete(ctx, "/a/f.txt"))
	// A second delete of the same path finds nothing and still succeeds.
	require.NoError(t, store.Delete(ctx, "/a/f.txt"))
	// So does deleting a path that never existed.
	require.NoError(t, store.Delete(ctx, "/never/was.txt"))
}

func TestStoreDeletePropagatesResolutionFailure(t *testing.T) {
	fake := newFakeTransport()
	fake.addFile("/a/f.txt", "x")

	// Listing fails outright, as with an unreachable backend. The delete
	// must surface that instead of reporting the target as already gone.
	broken := &listBroken{fakeTransport: fake}
	store := NewStore(broken)

	err := store.Delete(context.Background(), "/a/f.txt")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Zero(t, broken.deleteCalls)
}

func TestStoreDeleteRefusesRoot(t *testing.T) {
	store := NewStore(newFakeTransport())
	assert.Error(t, store.Delete(context.Background(), "/"))
}

func TestStoreDeleteInvalidatesCachedSubtree(t *testing.T) {
	fake := newFakeTransport()
	fake.addDir("/a/b")

	store := NewStore(fake)
	ctx := context.Background()

	_, err := store.List(ctx, "/a/b")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "/a"))

	// Resolution after the delete must re-walk and fail instead of
	// trusting a stale identifier.
	_, err = store.List(ctx, "/a/b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorePathAddressedSkipsResolution(t *testing.T) {
	fake := newFakeTransport()
	// Wrap the fake so it claims path addressing; List must then be hit
	// with a Ref carrying only the path.
	store := NewStore(pathAddressed{fake})

	_, err := store.List(context.Background(), "/some/deep/path")
	// No resolution traversal: exactly one transport call, no walk from
	// the root.
	require.NoError(t, err)
	assert.Equal(t, 1, fake.listCalls)
}

type pathAddressed struct {
	*fakeTransport
}

func (pathAddressed) PathAddressed() bool { return true }

// listBroken fails every List, as an unreachable or unauthenticated
// backend would, and counts Delete calls reaching the transport.
type listBroken struct {
	*fakeTransport
	deleteCalls int
}

func (b *listBroken) List(ctx context.Context, dir Ref) ([]Entry, error) {
	return nil, &TransportError{Op: "list", Target: dir.Path, Err: fmt.Errorf("auth required")}
}

func (b *listBroken) Delete(ctx context.Context, target Ref) error {
	b.deleteCalls++
	return b.fakeTransport.Delete(ctx, target)
}
