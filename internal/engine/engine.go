// Package engine executes planned splits: it runs one remux per missing
// part, promotes verified outputs into place, and applies the completion
// post-actions (manifest sidecar, audit records, source relocation).
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"partcut/internal/actionlog"
	"partcut/internal/ffmpeg"
	"partcut/internal/fsx"
	"partcut/internal/logging"
	"partcut/internal/planner"
	"partcut/internal/probe"
	"partcut/internal/resolve"
)

// Runner executes one remux request. ffmpeg.Run in production; tests swap
// in a fake that fabricates output files.
type Runner func(ctx context.Context, req ffmpeg.Request, verbose bool) ffmpeg.ExecResult

// Prober reads media attributes of a finished part for the manifest and
// completion record.
type Prober func(ctx context.Context, path string) (*probe.MediaInfo, error)

// Engine turns a classified job into part files on disk.
type Engine struct {
	Resolver *resolve.Resolver
	Actions  *actionlog.Log
	Log      *logging.Logger
	Run      Runner
	Probe    Prober

	Relocate bool
	Verbose  bool
}

// New returns an Engine wired to the real ffmpeg and ffprobe executables.
func New(resolver *resolve.Resolver, actions *actionlog.Log, log *logging.Logger, relocate, verbose bool) *Engine {
	return &Engine{
		Resolver: resolver,
		Actions:  actions,
		Log:      log,
		Run:      ffmpeg.Run,
		Probe:    probe.Probe,
		Relocate: relocate,
		Verbose:  verbose,
	}
}

// Result is the outcome of executing one job.
type Result struct {
	Created  []int  // Part indices created in this run.
	Complete bool   // Every expected part verified on disk afterwards.
	MovedTo  string // Where the source went when relocation applied.
	Err      error  // First extraction error; parts after it were not attempted.
}

// Execute creates the job's missing parts in index order. Each part is
// written to a temp name and renamed into place only after the output
// verifies, so interrupted runs leave no half-written part behind. An
// extraction failure aborts the job's remaining parts but keeps every part
// already renamed into place; the next run resumes from them.
func (e *Engine) Execute(ctx context.Context, job planner.Job, dec resolve.Decision) Result {
	var res Result
	ranges := job.Ranges()

	for _, idx := range dec.Missing {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		if err := e.extractPart(ctx, job, ranges[idx-1]); err != nil {
			e.Log.Error("%s part %d/%d: %v", filepath.Base(job.SourcePath), idx, job.TotalParts, err)
			e.Actions.Record(actionlog.ActionFail,
				fmt.Sprintf("part %d/%d: %v", idx, job.TotalParts, err), job.SourcePath)
			res.Err = err
			return res
		}
		res.Created = append(res.Created, idx)
		e.Log.Success("created %s (%d/%d)", filepath.Base(job.PartPath(idx)), idx, job.TotalParts)
	}

	// Completeness is judged by re-reading the filesystem, not by assuming
	// this run's work: parts may predate the run or have vanished under it.
	final := e.Resolver.Classify(job)
	if final.State != resolve.StateComplete {
		return res
	}
	res.Complete = true
	res.MovedTo = e.finish(ctx, job)
	return res
}

// extractPart runs one remux into <final>.tmp, verifies the output, and
// renames it into place.
func (e *Engine) extractPart(ctx context.Context, job planner.Job, r planner.PartRange) error {
	final := job.PartPath(r.Index)
	tmp := final + resolve.TempSuffix

	req := ffmpeg.Request{
		InputPath:   job.SourcePath,
		StartOffset: r.Start,
		Duration:    r.Duration,
		OutputPath:  tmp,
	}
	e.Log.Debug(e.Verbose, "extracting %s start=%.2fs dur=%.2fs", filepath.Base(final), r.Start, r.Duration)

	result := e.Run(ctx, req, e.Verbose)
	if result.Err != nil {
		os.Remove(tmp)
		if result.Stderr != "" {
			return fmt.Errorf("ffmpeg: %w: %s", result.Err, lastLine(result.Stderr))
		}
		return fmt.Errorf("ffmpeg: %w", result.Err)
	}

	fi, err := os.Stat(tmp)
	if err != nil {
		return fmt.Errorf("verify output: %w", err)
	}
	if fi.Size() == 0 {
		os.Remove(tmp)
		return fmt.Errorf("verify output: %s is empty", filepath.Base(tmp))
	}
	return os.Rename(tmp, final)
}

// finish applies the completion post-actions and returns the relocated
// source path, or "" when the source stays put.
func (e *Engine) finish(ctx context.Context, job planner.Job) string {
	parts := e.probeParts(ctx, job)
	e.writeManifest(job, parts)

	e.Actions.Completion(actionlog.CompletionRecord{
		SourcePath:      job.SourcePath,
		SizeBytes:       job.SizeBytes,
		DurationSeconds: job.Duration,
		Parts:           parts,
	})
	e.Actions.Record(actionlog.ActionComplete,
		fmt.Sprintf("%d parts", job.TotalParts), job.SourcePath)

	if !e.Relocate {
		return ""
	}
	dest := fsx.ArchiveDir(filepath.Dir(job.SourcePath))
	moved, err := fsx.MoveInto(job.SourcePath, dest)
	if err != nil {
		e.Log.Warn("relocate %s: %v", job.SourcePath, err)
		return ""
	}
	e.Actions.Record(actionlog.ActionMove, "split complete", job.SourcePath)
	e.Log.Info("moved %s -> %s", filepath.Base(job.SourcePath), dest)
	return moved
}

// probeParts collects per-part sizes and durations. A part that fails to
// probe still gets its stat size; its duration stays zero.
func (e *Engine) probeParts(ctx context.Context, job planner.Job) []actionlog.PartRecord {
	records := make([]actionlog.PartRecord, 0, job.TotalParts)
	for i := 1; i <= job.TotalParts; i++ {
		path := job.PartPath(i)
		rec := actionlog.PartRecord{Index: i, Path: path}
		if info, err := e.Probe(ctx, path); err == nil {
			rec.SizeBytes = info.SizeBytes
			rec.DurationSeconds = info.DurationSeconds
		} else {
			e.Log.Warn("probe %s: %v", filepath.Base(path), err)
			if fi, statErr := os.Stat(path); statErr == nil {
				rec.SizeBytes = fi.Size()
			}
		}
		records = append(records, rec)
	}
	return records
}

func (e *Engine) writeManifest(job planner.Job, parts []actionlog.PartRecord) {
	m := &resolve.Manifest{
		Source:  filepath.Base(job.SourcePath),
		Base:    job.BaseName,
		Ext:     job.Ext,
		Total:   job.TotalParts,
		Pattern: job.Scheme.Pattern,
	}
	for _, p := range parts {
		m.Parts = append(m.Parts, resolve.ManifestPart{
			Index:    p.Index,
			Name:     filepath.Base(p.Path),
			Size:     p.SizeBytes,
			Duration: p.DurationSeconds,
		})
	}
	if err := resolve.SaveManifest(job.TargetDir, m); err != nil {
		e.Log.Warn("write manifest for %s: %v", job.BaseName, err)
	}
}

// lastLine extracts the final non-empty stderr line, which is where ffmpeg
// puts the actual failure reason.
func lastLine(s string) string {
	lines := splitNonEmpty(s)
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

func splitNonEmpty(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '\n' {
			if line := s[start:i]; line != "" && line != "\r" {
				out = append(out, line)
			}
			start = i + 1
		}
	}
	return out
}
