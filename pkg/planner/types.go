package planner

import "time"

// EntryKind distinguishes files from directories in an index.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDir
)

// IndexEntry is the comparable metadata for one file or directory on one
// side of a reconciliation pass.
type IndexEntry struct {
	Kind EntryKind

	// File fields; directories carry neither size nor hash.
	Size int64
	// Hash is the hex SHA-256 of the file content. Always present for
	// local entries; present for remote entries only when the transport
	// surfaces one. When either side lacks a hash, comparison falls back
	// to size.
	Hash string

	// LocalPath is the absolute path on disk, local entries only.
	LocalPath string
	// ModTime is informational; it never drives comparison.
	ModTime time.Time
}

// Index is a flat mapping from slash-separated path, relative to the sync
// root, to entry metadata. The root itself has no entry and relative paths
// are unique by construction.
type Index map[string]IndexEntry

// Upload pairs a local absolute path with its destination path relative
// to the remote root.
type Upload struct {
	LocalPath string
	RelPath   string
	Size      int64
	Reason    string // why this upload was chosen
}

// Plan is the ordered set of operations that makes the remote tree
// converge on the local one. It is a value with no lifecycle beyond one
// reconciliation pass.
type Plan struct {
	// CreateDirs holds relative paths in ascending lexical order, so a
	// parent always precedes the directories inside it.
	CreateDirs []string
	// Uploads is ordered by relative path.
	Uploads []Upload
	// Deletes holds relative paths in descending lexical order, so a
	// directory's children sort before the directory itself.
	Deletes []string
}

// Empty reports whether the plan contains no operations.
func (p *Plan) Empty() bool {
	return len(p.CreateDirs) == 0 && len(p.Uploads) == 0 && len(p.Deletes) == 0
}

// TotalOps is the number of individual operations in the plan.
func (p *Plan) TotalOps() int {
	return len(p.CreateDirs) + len(p.Uploads) + len(p.Deletes)
}
