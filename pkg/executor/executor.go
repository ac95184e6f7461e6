package executor

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"

	"github.com/Gabri/internxt-sync/pkg/planner"
)

// Store is the slice of the remote store the executor needs.
type Store interface {
	Mkdir(ctx context.Context, remotePath string) error
	Upload(ctx context.Context, localPath, remotePath string) error
	Delete(ctx context.Context, remotePath string) error
}

// ProgressFunc receives one human-readable line per attempted operation.
// It is display-only and must never be used for control flow.
type ProgressFunc func(line string)

// Phase identifies one of the three plan phases.
type Phase string

const (
	PhaseCreateDirs Phase = "mkdir"
	PhaseUploads    Phase = "upload"
	PhaseDeletes    Phase = "delete"
)

// OpError records one failed operation.
type OpError struct {
	Phase Phase
	Path  string // relative path of the item
	Err   error
}

func (e OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Phase, e.Path, e.Err)
}

// PhaseResult counts operations attempted and failed in one phase.
type PhaseResult struct {
	Attempted int
	Failed    int
}

// Report summarizes one plan application. Per-item failures are recorded
// here, never propagated as an apply error, so a partial sync stays
// distinguishable from a complete one.
type Report struct {
	CreateDirs PhaseResult
	Uploads    PhaseResult
	Deletes    PhaseResult
	Errors     []OpError
}

// Ok reports whether every attempted operation succeeded.
func (r *Report) Ok() bool {
	return len(r.Errors) == 0
}

// Failed is the total number of failed operations across phases.
func (r *Report) Failed() int {
	return len(r.Errors)
}

// Executor applies an operation plan through the remote store,
// sequentially: directory creations first, then uploads, then deletions.
// Every planned operation is attempted exactly once; an individual
// failure is recorded and the batch continues.
type Executor struct {
	store    Store
	progress ProgressFunc
}

func New(store Store, progress ProgressFunc) *Executor {
	if progress == nil {
		progress = func(string) {}
	}
	return &Executor{store: store, progress: progress}
}

// Apply executes the plan against remoteRoot and returns the per-phase
// report. Deletions run last so a failed upload never leaves the remote
// tree missing both the old and the new version of an item.
func (e *Executor) Apply(ctx context.Context, plan planner.Plan, remoteRoot string) *Report {
	report := &Report{}

	for _, relPath := range plan.CreateDirs {
		e.progress("mkdir " + relPath)
		e.attempt(report, &report.CreateDirs, PhaseCreateDirs, relPath, func() error {
			return e.store.Mkdir(ctx, joinRemote(remoteRoot, relPath))
		})
	}

	for _, up := range plan.Uploads {
		e.progress("upload " + up.RelPath)
		localPath := up.LocalPath
		e.attempt(report, &report.Uploads, PhaseUploads, up.RelPath, func() error {
			return e.store.Upload(ctx, localPath, joinRemote(remoteRoot, up.RelPath))
		})
	}

	for _, relPath := range plan.Deletes {
		e.progress("delete " + relPath)
		e.attempt(report, &report.Deletes, PhaseDeletes, relPath, func() error {
			return e.store.Delete(ctx, joinRemote(remoteRoot, relPath))
		})
	}

	return report
}

func (e *Executor) attempt(report *Report, phase *PhaseResult, name Phase, relPath string, op func() error) {
	phase.Attempted++
	if err := op(); err != nil {
		phase.Failed++
		report.Errors = append(report.Errors, OpError{Phase: name, Path: relPath, Err: err})
		slog.Error("operation failed", "op", string(name), "path", relPath, "error", err)
	}
}

// joinRemote maps a root-relative plan path onto an absolute remote path.
func joinRemote(remoteRoot, relPath string) string {
	if remoteRoot == "" {
		remoteRoot = "/"
	}
	return path.Join("/", remoteRoot, filepath.ToSlash(relPath))
}
