package scan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gabri/internxt-sync/internal/remote"
	"github.com/Gabri/internxt-sync/pkg/planner"
)

// fakeLister serves canned listings keyed by absolute remote path.
type fakeLister struct {
	dirs map[string][]remote.Entry
	fail map[string]error
}

func (f *fakeLister) List(_ context.Context, dirPath string) ([]remote.Entry, error) {
	if err, ok := f.fail[dirPath]; ok {
		return nil, err
	}
	entries, ok := f.dirs[dirPath]
	if !ok {
		return nil, remote.ErrNotFound
	}
	return entries, nil
}

func TestRemoteIndexesTree(t *testing.T) {
	lister := &fakeLister{dirs: map[string][]remote.Entry{
		"/Photos": {
			{Name: "2024", IsDir: true, Path: "/Photos/2024"},
			{Name: "index.txt", Size: 10, Path: "/Photos/index.txt"},
		},
		"/Photos/2024": {
			{Name: "beach.jpg", Size: 2048, Path: "/Photos/2024/beach.jpg", Hash: "abc"},
		},
	}}

	index, err := Remote(context.Background(), lister, "/Photos")
	require.NoError(t, err)

	require.Len(t, index, 3)
	assert.Equal(t, planner.KindDir, index["2024"].Kind)
	assert.Equal(t, planner.IndexEntry{Kind: planner.KindFile, Size: 10}, index["index.txt"])
	assert.Equal(t, planner.IndexEntry{Kind: planner.KindFile, Size: 2048, Hash: "abc"}, index["2024/beach.jpg"])
}

func TestRemoteRootListFailureIsFatal(t *testing.T) {
	lister := &fakeLister{}

	_, err := Remote(context.Background(), lister, "/gone")
	require.Error(t, err)
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestRemoteVanishedSubdirTreatedAsEmpty(t *testing.T) {
	lister := &fakeLister{
		dirs: map[string][]remote.Entry{
			"/r": {
				{Name: "ok", IsDir: true, Path: "/r/ok"},
				{Name: "gone", IsDir: true, Path: "/r/gone"},
			},
			"/r/ok": {
				{Name: "f.txt", Size: 1, Path: "/r/ok/f.txt"},
			},
		},
		fail: map[string]error{
			"/r/gone": errors.New("boom"),
		},
	}

	index, err := Remote(context.Background(), lister, "/r")
	require.NoError(t, err)

	// The vanished directory still appears, but contributes no children.
	assert.Contains(t, index, "gone")
	assert.Contains(t, index, "ok/f.txt")
	assert.Len(t, index, 3)
}

func TestRemoteHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lister := &fakeLister{
		dirs: map[string][]remote.Entry{
			"/r": {{Name: "sub", IsDir: true, Path: "/r/sub"}},
		},
		fail: map[string]error{
			"/r/sub": context.Canceled,
		},
	}

	_, err := Remote(ctx, lister, "/r")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRemoteEmptyRoot(t *testing.T) {
	lister := &fakeLister{dirs: map[string][]remote.Entry{"/r": {}}}

	index, err := Remote(context.Background(), lister, "/r")
	require.NoError(t, err)
	assert.Empty(t, index)
}
