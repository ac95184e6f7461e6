package planner

import "sort"

// Upload reasons, also surfaced in plan output.
const (
	ReasonNewFile        = "new file"
	ReasonTypeMismatch   = "remote is a directory"
	ReasonHashMismatch   = "content hash differs"
	ReasonSizeMismatch   = "size differs"
)

// Compare produces the operation plan that converges the remote index on
// the local one. It is a pure function: no I/O, and deterministic for
// identical inputs.
//
// A local file whose remote counterpart differs in type or content is
// scheduled as an upload, never as a delete-plus-upload; deletion is
// reserved for remote paths with no local counterpart at all.
func Compare(local, remote Index) Plan {
	plan := Plan{
		CreateDirs: []string{},
		Uploads:    []Upload{},
		Deletes:    []string{},
	}

	for relPath, l := range local {
		r, exists := remote[relPath]

		if l.Kind == KindDir {
			if !exists || r.Kind != KindDir {
				plan.CreateDirs = append(plan.CreateDirs, relPath)
			}
			continue
		}

		if reason, ok := shouldUpload(l, r, exists); ok {
			plan.Uploads = append(plan.Uploads, Upload{
				LocalPath: l.LocalPath,
				RelPath:   relPath,
				Size:      l.Size,
				Reason:    reason,
			})
		}
	}

	for relPath := range remote {
		if _, exists := local[relPath]; !exists {
			plan.Deletes = append(plan.Deletes, relPath)
		}
	}

	// Ascending, so parents are created before their children.
	sort.Strings(plan.CreateDirs)
	sort.Slice(plan.Uploads, func(i, j int) bool {
		return plan.Uploads[i].RelPath < plan.Uploads[j].RelPath
	})
	// Descending, so children are removed before their parents.
	sort.Sort(sort.Reverse(sort.StringSlice(plan.Deletes)))

	return plan
}

// shouldUpload decides whether a local file needs uploading given its
// remote counterpart. Hashes win over size when both sides carry one;
// otherwise size is the only available signal.
func shouldUpload(l, r IndexEntry, remoteExists bool) (string, bool) {
	if !remoteExists {
		return ReasonNewFile, true
	}
	if r.Kind != KindFile {
		return ReasonTypeMismatch, true
	}
	if l.Hash != "" && r.Hash != "" {
		if l.Hash != r.Hash {
			return ReasonHashMismatch, true
		}
		return "", false
	}
	if l.Size != r.Size {
		return ReasonSizeMismatch, true
	}
	return "", false
}
