package planner

import (
	"path/filepath"
	"strings"

	"partcut/internal/naming"
	"partcut/internal/probe"
)

// Job is one planned split: a source file, its probed attributes, the fixed
// part count, and the naming scheme that maps part indices to output paths.
// A Job is created fresh on every run and never persisted; the only durable
// trace of its execution is the part files themselves (plus manifest and
// logs), which is what makes reruns resumable.
type Job struct {
	SourcePath string
	TargetDir  string
	BaseName   string // Source stem, any recognized part suffix stripped.
	Ext        string // With leading dot.
	TotalParts int
	Duration   float64 // seconds
	SizeBytes  int64
	Scheme     naming.Scheme
}

// NewJob builds a Job for a probed source. totalParts comes from
// Constraint.TotalParts and is fixed for the job's lifetime.
func NewJob(info *probe.MediaInfo, targetDir string, scheme naming.Scheme, totalParts int) Job {
	base := filepath.Base(info.Path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	// Defensive strip: candidates that are themselves parts are excluded
	// before planning, but a stale suffix in the stem must never leak into
	// generated names.
	if m, ok := scheme.Recognize(base); ok {
		stem = m.Base
	}

	return Job{
		SourcePath: info.Path,
		TargetDir:  targetDir,
		BaseName:   stem,
		Ext:        ext,
		TotalParts: totalParts,
		Duration:   info.DurationSeconds,
		SizeBytes:  info.SizeBytes,
		Scheme:     scheme,
	}
}

// PartPath maps a 1-based part index to its output path. For a fixed
// (BaseName, Ext, TotalParts, pattern) the mapping is injective: no two
// indices collapse to the same name.
func (j Job) PartPath(index int) string {
	return filepath.Join(j.TargetDir, j.Scheme.PartName(j.BaseName, j.Ext, index, j.TotalParts))
}

// PartPaths returns the output paths for all parts, in index order.
func (j Job) PartPaths() []string {
	paths := make([]string, j.TotalParts)
	for i := 1; i <= j.TotalParts; i++ {
		paths[i-1] = j.PartPath(i)
	}
	return paths
}

// Ranges returns the time windows for this job's parts.
func (j Job) Ranges() []PartRange {
	return Ranges(j.Duration, j.TotalParts)
}
