package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
)

// Store exposes path-based operations over either transport. It owns the
// path-to-identifier resolution and its cache; callers only ever deal in
// absolute remote paths.
type Store struct {
	transport Transport
	res       *resolver
}

func NewStore(t Transport) *Store {
	return &Store{
		transport: t,
		res:       newResolver(t),
	}
}

// List returns the immediate children of dirPath, excluding dirPath
// itself. Every directory identifier surfaced by the transport is fed
// into the resolution cache.
func (s *Store) List(ctx context.Context, dirPath string) ([]Entry, error) {
	ref, err := s.res.dir(ctx, dirPath)
	if err != nil {
		return nil, err
	}

	entries, err := s.transport.List(ctx, ref)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.IsDir {
			s.res.record(e.Path, e.ID)
		}
	}
	return entries, nil
}

// Mkdir creates the directory at remotePath. The parent must already
// exist; a parent that does not resolve yields ErrParentNotFound.
func (s *Store) Mkdir(ctx context.Context, remotePath string) error {
	parent, name := splitTarget(remotePath)

	ref, err := s.res.dir(ctx, parent)
	if err != nil {
		return fmt.Errorf("mkdir %s: %w: %s", remotePath, ErrParentNotFound, parent)
	}

	created, err := s.transport.Mkdir(ctx, ref, name)
	if err != nil {
		return err
	}

	s.res.record(created.Path, created.ID)
	return nil
}

// Upload stores localPath at remotePath, overwriting an existing remote
// file if the transport allows it.
func (s *Store) Upload(ctx context.Context, localPath, remotePath string) error {
	parent, name := splitTarget(remotePath)

	ref, err := s.res.dir(ctx, parent)
	if err != nil {
		return fmt.Errorf("upload %s: %w: %s", remotePath, ErrParentNotFound, parent)
	}

	uploaded, err := s.transport.Upload(ctx, localPath, ref, name)
	if err != nil {
		return err
	}

	s.res.record(uploaded.Path, uploaded.ID)
	return nil
}

// Delete removes the file or directory at remotePath, recursively for
// directories. A path that no longer exists is not an error.
func (s *Store) Delete(ctx context.Context, remotePath string) error {
	remotePath = normalizePath(remotePath)
	if remotePath == "/" {
		return fmt.Errorf("delete: refusing to remove the remote root")
	}

	target, err := s.resolveTarget(ctx, remotePath)
	if errors.Is(err, ErrNotFound) {
		// Already gone: nothing to do.
		slog.Debug("delete target not found, skipping", "path", remotePath)
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.transport.Delete(ctx, target); err != nil {
		return err
	}

	s.res.invalidate(remotePath)
	return nil
}

// Download fetches remotePath into localPath. The transfer lands in a
// temporary file first and is renamed into place, so a failure mid-stream
// never leaves a partial file under the final name.
func (s *Store) Download(ctx context.Context, remotePath, localPath string) error {
	target, err := s.resolveTarget(ctx, remotePath)
	if err != nil {
		return fmt.Errorf("download %s: %w", remotePath, ErrNotFound)
	}

	tmp, err := os.CreateTemp(filepath.Dir(localPath), "."+filepath.Base(localPath)+".*.partial")
	if err != nil {
		return fmt.Errorf("download %s: %w", remotePath, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := s.transport.Download(ctx, target, tmpPath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, localPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("download %s: %w", remotePath, err)
	}
	return nil
}

// resolveTarget resolves a path that may name either a file or a
// directory. Identifier-addressed transports learn the target by listing
// its parent and matching the final name.
func (s *Store) resolveTarget(ctx context.Context, remotePath string) (Ref, error) {
	remotePath = normalizePath(remotePath)

	if s.transport.PathAddressed() {
		return Ref{Path: remotePath}, nil
	}

	parent, name := splitTarget(remotePath)
	entries, err := s.List(ctx, parent)
	if err != nil {
		return Ref{}, err
	}
	for _, e := range entries {
		if e.Name == name {
			return Ref{Path: e.Path, ID: e.ID, IsDir: e.IsDir}, nil
		}
	}
	return Ref{}, fmt.Errorf("resolve %s: %w", remotePath, ErrNotFound)
}

func splitTarget(remotePath string) (parent, name string) {
	remotePath = normalizePath(remotePath)
	dir, name := path.Split(remotePath)
	return normalizePath(dir), name
}
