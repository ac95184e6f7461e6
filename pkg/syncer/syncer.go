// Package syncer runs one full reconciliation pass: scan both trees,
// compare, gate deletions behind caller approval, then apply the plan.
package syncer

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Gabri/internxt-sync/internal/remote"
	"github.com/Gabri/internxt-sync/internal/scan"
	"github.com/Gabri/internxt-sync/pkg/executor"
	"github.com/Gabri/internxt-sync/pkg/planner"
)

// RemoteStore is the remote surface the pipeline needs; *remote.Store
// satisfies it.
type RemoteStore interface {
	List(ctx context.Context, dirPath string) ([]remote.Entry, error)
	Mkdir(ctx context.Context, remotePath string) error
	Upload(ctx context.Context, localPath, remotePath string) error
	Delete(ctx context.Context, remotePath string) error
}

// Approver decides what happens to the plan's deletion list before the
// executor runs. It returns the approved subset (any order) and whether to
// proceed; false aborts the whole batch, creates and uploads included.
type Approver func(deletes []string) (approved []string, proceed bool)

// ApproveAll accepts every planned deletion unchanged.
func ApproveAll(deletes []string) ([]string, bool) {
	return deletes, true
}

// Options configures one reconciliation pass.
type Options struct {
	LocalRoot  string
	RemoteRoot string

	ExcludeHidden bool
	Excludes      []string

	// Approver is consulted whenever the plan contains deletions. When
	// nil, a plan with deletions aborts rather than deleting silently.
	Approver Approver

	// Progress receives one display line per executed operation.
	Progress executor.ProgressFunc

	// DryRun stops after planning; nothing is applied.
	DryRun bool
}

// Result is the outcome of one pass.
type Result struct {
	Plan   planner.Plan
	Report *executor.Report // nil when DryRun or Aborted

	// Remote is the remote index re-scanned after the plan was applied,
	// reflecting the converged state. Nil when DryRun or Aborted, or when
	// the refresh scan itself failed.
	Remote planner.Index

	// Aborted is set when the approver declined the deletion list.
	Aborted bool

	Duration time.Duration
}

// Syncer wires the scanners, planner, and executor around one remote
// store.
type Syncer struct {
	store RemoteStore
}

func New(store RemoteStore) *Syncer {
	return &Syncer{store: store}
}

// Run performs one full pass. Both scans run concurrently; neither
// touches state the other reads. A failure to scan either root at all is
// fatal and surfaces before any plan is produced.
func (s *Syncer) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	var localIndex, remoteIndex planner.Index

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		localIndex, err = scan.Local(opts.LocalRoot, scan.LocalOptions{
			ExcludeHidden: opts.ExcludeHidden,
			Excludes:      opts.Excludes,
		})
		return err
	})
	g.Go(func() error {
		var err error
		remoteIndex, err = scan.Remote(gctx, s.store, opts.RemoteRoot)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	plan := planner.Compare(localIndex, remoteIndex)
	slog.Info("reconciliation planned",
		"local", opts.LocalRoot,
		"remote", opts.RemoteRoot,
		"mkdirs", len(plan.CreateDirs),
		"uploads", len(plan.Uploads),
		"deletes", len(plan.Deletes),
	)

	result := &Result{Plan: plan}

	if opts.DryRun {
		result.Duration = time.Since(start)
		return result, nil
	}

	if len(plan.Deletes) > 0 {
		if opts.Approver == nil {
			slog.Warn("plan contains deletions but no approver was supplied, aborting")
			result.Aborted = true
			result.Duration = time.Since(start)
			return result, nil
		}
		approved, proceed := opts.Approver(append([]string(nil), plan.Deletes...))
		if !proceed {
			result.Aborted = true
			result.Duration = time.Since(start)
			return result, nil
		}
		// Restore deepest-first ordering regardless of what the approver
		// returned.
		sort.Sort(sort.Reverse(sort.StringSlice(approved)))
		plan.Deletes = approved
	}

	exec := executor.New(s.store, opts.Progress)
	result.Report = exec.Apply(ctx, plan, opts.RemoteRoot)
	result.Plan = plan

	// Re-scan the remote so callers can show the state actually reached,
	// which on a partial failure differs from the plan's target. The pass
	// itself already happened, so a failed refresh is not fatal.
	refreshed, err := scan.Remote(ctx, s.store, opts.RemoteRoot)
	if err != nil {
		slog.Warn("post-sync remote refresh failed", "error", err)
	} else {
		result.Remote = refreshed
	}

	result.Duration = time.Since(start)
	return result, nil
}
