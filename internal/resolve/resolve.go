// Package resolve classifies each candidate file against current filesystem
// state: is it itself a generated part, too small to split, already fully
// split, partially split (resume), or new work. Classification is a pure
// function of what is on disk, which is what makes reruns idempotent —
// there is no job database to get out of sync.
package resolve

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"partcut/internal/naming"
	"partcut/internal/planner"
)

// State is the resolved classification for one candidate.
type State int

const (
	StateAlreadyAPart State = iota // The candidate is itself a generated part.
	StateTooSmall                  // Under the size limit; nothing to do.
	StateComplete                  // Every expected part exists.
	StatePartial                   // Some parts exist; resume the rest.
	StateNew                       // No parts exist yet.
)

// String returns the log label for a state.
func (s State) String() string {
	switch s {
	case StateAlreadyAPart:
		return "already-a-part"
	case StateTooSmall:
		return "too-small"
	case StateComplete:
		return "already-complete"
	case StatePartial:
		return "resume"
	case StateNew:
		return "new"
	}
	return "unknown"
}

// TempSuffix marks in-flight part files. The remux tool writes to
// <final>.tmp and the engine renames into place only after verifying the
// output, so a part file's existence always implies a finished part.
const TempSuffix = ".tmp"

// Decision is the outcome of classifying one planned job.
type Decision struct {
	State   State
	Present int   // Number of expected parts already on disk.
	Missing []int // 1-based indices still to create, in order.
}

// PartInfo describes a candidate that is itself a generated part.
type PartInfo struct {
	Match            naming.Match
	Ext              string
	SiblingsComplete bool   // All parts implied by (base, total) are present.
	OriginalPath     string // The original source next to the candidate, "" if gone.
}

// Resolver classifies candidates for one target directory and scheme.
// Safe for concurrent use by the pipeline workers.
type Resolver struct {
	Scheme    naming.Scheme
	TargetDir string

	mu        sync.Mutex
	manifests map[string]*manifestIndex // Lazy per-directory sidecar index.
}

// New returns a Resolver for scheme and targetDir.
func New(scheme naming.Scheme, targetDir string) *Resolver {
	return &Resolver{
		Scheme:    scheme,
		TargetDir: targetDir,
		manifests: make(map[string]*manifestIndex),
	}
}

// CheckAlreadyPart reports whether the candidate file is itself a part this
// engine generated, consulting the manifest sidecars first and falling back
// to the naming-pattern search. Such files are excluded from planning
// entirely: re-splitting a previously produced segment is never wanted.
func (r *Resolver) CheckAlreadyPart(path string) (PartInfo, bool) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)

	var info PartInfo
	if entry, ok := r.indexFor(filepath.Dir(path)).byName[base]; ok {
		info.Match = naming.Match{
			Base:  entry.manifest.Base,
			Index: entry.part.Index,
			Total: entry.manifest.Total,
		}
		info.Ext = entry.manifest.Ext
		// The manifest knows the exact part names it wrote, so sibling
		// completeness does not depend on the currently active pattern.
		info.SiblingsComplete = r.manifestSiblingsComplete(entry.manifest)
	} else if m, ok := r.Scheme.Recognize(base); ok {
		info.Match = m
		info.Ext = ext
		info.SiblingsComplete = r.siblingsComplete(m, ext)
	} else {
		return PartInfo{}, false
	}

	// The original source, when it still sits next to the candidate, is
	// what the post-action applies to once every sibling exists.
	original := filepath.Join(filepath.Dir(path), info.Match.Base+info.Ext)
	if fi, err := os.Stat(original); err == nil && !fi.IsDir() {
		info.OriginalPath = original
	}
	return info, true
}

// manifestSiblingsComplete checks the manifest's recorded part names
// against the target directory.
func (r *Resolver) manifestSiblingsComplete(m *Manifest) bool {
	if len(m.Parts) < m.Total {
		return false
	}
	for _, p := range m.Parts {
		if !partPresent(filepath.Join(r.TargetDir, p.Name)) {
			return false
		}
	}
	return true
}

// siblingsComplete checks whether every part implied by (base, total) is
// present in the target directory.
func (r *Resolver) siblingsComplete(m naming.Match, ext string) bool {
	for i := 1; i <= m.Total; i++ {
		name := r.Scheme.PartName(m.Base, ext, i, m.Total)
		if !partPresent(filepath.Join(r.TargetDir, name)) {
			return false
		}
	}
	return true
}

// Classify resolves a planned job against the target directory. Evaluation
// order (first match wins): TooSmall is decided by the caller before a job
// exists; here Complete, then Partial, then New. Running Classify twice with
// no filesystem change in between yields the identical Decision.
func (r *Resolver) Classify(job planner.Job) Decision {
	d := Decision{}
	for i := 1; i <= job.TotalParts; i++ {
		if partPresent(job.PartPath(i)) {
			d.Present++
		} else {
			d.Missing = append(d.Missing, i)
		}
	}
	switch {
	case d.Present == job.TotalParts:
		d.State = StateComplete
	case d.Present > 0:
		d.State = StatePartial
	default:
		d.State = StateNew
	}
	return d
}

// CleanStaleTemp removes leftover in-flight files from an interrupted run
// (<partPath>.tmp for any of the job's parts). Returns the paths removed.
func (r *Resolver) CleanStaleTemp(job planner.Job) []string {
	var removed []string
	for i := 1; i <= job.TotalParts; i++ {
		tmp := job.PartPath(i) + TempSuffix
		if _, err := os.Stat(tmp); err == nil {
			if os.Remove(tmp) == nil {
				removed = append(removed, tmp)
			}
		}
	}
	return removed
}

func (r *Resolver) indexFor(dir string) *manifestIndex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx, ok := r.manifests[dir]; ok {
		return idx
	}
	idx := loadManifestIndex(dir)
	r.manifests[dir] = idx
	return idx
}

// partPresent treats a part as present only when it exists, is a regular
// file, and is non-empty. Temp-suffixed names never reach this check.
func partPresent(path string) bool {
	if strings.HasSuffix(path, TempSuffix) {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular() && fi.Size() > 0
}
