// Package pipeline orchestrates a batch run: candidate scanning, per-file
// classification and execution, and the summary report.
package pipeline

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"partcut/internal/actionlog"
	"partcut/internal/config"
	"partcut/internal/display"
	"partcut/internal/engine"
	"partcut/internal/fsx"
	"partcut/internal/logging"
	"partcut/internal/naming"
	"partcut/internal/planner"
	"partcut/internal/resolve"
	"partcut/internal/scan"
)

// Batch holds the shared state of one run. Engine is exported so tests can
// swap its Run/Probe functions for fakes.
type Batch struct {
	Engine *engine.Engine

	cfg        *config.Config
	log        *logging.Logger
	scheme     naming.Scheme
	resolver   *resolve.Resolver
	constraint planner.Constraint
	actions    *actionlog.Log

	mu    sync.Mutex
	stats RunStats
}

// New builds a Batch from validated config. Dry runs get a discarding
// action log so the classification path is byte-identical to a real run.
// Close releases the action log.
func New(cfg *config.Config, log *logging.Logger) (*Batch, error) {
	scheme := naming.New(cfg.Pattern)
	resolver := resolve.New(scheme, cfg.TargetDir)

	actions := actionlog.Discard()
	if !cfg.DryRun {
		var err error
		if actions, err = actionlog.Open(cfg.LogDir); err != nil {
			return nil, err
		}
	}

	return &Batch{
		Engine:     engine.New(resolver, actions, log, cfg.Relocate, cfg.Verbose),
		cfg:        cfg,
		log:        log,
		scheme:     scheme,
		resolver:   resolver,
		constraint: planner.Constraint{FixedParts: cfg.Parts, MaxBytes: cfg.SizeLimitBytes, Margin: cfg.SafetyMargin},
		actions:    actions,
	}, nil
}

// Close releases the batch's action log.
func (b *Batch) Close() error {
	return b.actions.Close()
}

// Run is the batch entry point: scan, then process every candidate on a
// fixed worker pool. Files are sharded by base name so two candidates that
// would produce the same part names never execute concurrently.
func (b *Batch) Run(ctx context.Context) RunStats {
	scanner := scan.New(b.cfg)
	scanner.Warn = b.log.Warn

	files, err := scanner.Scan(b.cfg.Sources)
	if err != nil {
		b.log.Error("Candidate scan failed: %v", err)
		b.stats.Failed++
		return b.stats
	}
	b.stats.Total = len(files)

	b.logBatchHeader()

	workers := b.cfg.Concurrent
	if workers > len(files) {
		workers = len(files)
	}
	if workers < 1 {
		workers = 1
	}

	shards := make([]chan string, workers)
	var wg sync.WaitGroup
	for i := range shards {
		shards[i] = make(chan string)
		wg.Add(1)
		go func(ch <-chan string) {
			defer wg.Done()
			for path := range ch {
				b.processFile(ctx, path)
			}
		}(shards[i])
	}

	for _, path := range files {
		if ctx.Err() != nil {
			b.log.Warn("Interrupted")
			break
		}
		shards[b.shardFor(path, workers)] <- path
	}
	for _, ch := range shards {
		close(ch)
	}
	wg.Wait()

	b.logSummary()
	return b.stats
}

// shardFor maps a candidate to a worker. The key is the base stem, with any
// recognized part suffix stripped, so a source and its parts land on the
// same worker.
func (b *Batch) shardFor(path string, workers int) int {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if m, ok := b.scheme.Recognize(base); ok {
		stem = m.Base
	}
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(stem)))
	return int(h.Sum32() % uint32(workers))
}

// processFile handles one candidate: exclude generated parts, probe,
// plan, classify against disk state, and execute or skip.
func (b *Batch) processFile(ctx context.Context, path string) {
	basename := filepath.Base(path)
	n := b.nextCurrent()
	b.log.Info("[%d/%d] %s", n, b.stats.Total, basename)

	// --- Exclude generated parts ---
	if info, ok := b.resolver.CheckAlreadyPart(path); ok {
		b.log.Debug(b.cfg.Verbose, "  generated part (%d of %d for '%s'), excluded",
			info.Match.Index, info.Match.Total, info.Match.Base)
		b.actions.Record(actionlog.ActionSkip, resolve.StateAlreadyAPart.String(), path)
		b.bump(func(s *RunStats) { s.Skipped++ })
		b.archiveOriginal(info)
		return
	}

	// --- Probe ---
	pr, err := b.Engine.Probe(ctx, path)
	if err != nil {
		b.log.Error("Cannot probe %s (possibly corrupt): %v", basename, err)
		b.actions.Record(actionlog.ActionFail, fmt.Sprintf("probe: %v", err), path)
		b.bump(func(s *RunStats) { s.Failed++ })
		return
	}

	bitrate := "unknown bitrate"
	if pr.BitRate > 0 {
		bitrate = display.FormatBitrateLabel(pr.BitRate / 1000)
	}
	b.log.Debug(b.cfg.Verbose, "  %s | %s | %s",
		display.FormatBytes(pr.SizeBytes), display.FormatDuration(pr.DurationSeconds), bitrate)

	// --- Plan ---
	totalParts := b.constraint.TotalParts(pr.SizeBytes)
	if b.constraint.SizeBound() && totalParts == 1 {
		b.log.Info("  %s fits within %s, nothing to split",
			display.FormatBytes(pr.SizeBytes), display.FormatBytes(b.constraint.MaxBytes))
		b.actions.Record(actionlog.ActionSkip, resolve.StateTooSmall.String(), path)
		b.bump(func(s *RunStats) { s.Skipped++ })
		return
	}

	job := planner.NewJob(pr, b.cfg.TargetDir, b.scheme, totalParts)
	dec := b.resolver.Classify(job)

	// --- Classify ---
	switch dec.State {
	case resolve.StateComplete:
		b.log.Success("  all %d parts already exist", totalParts)
		b.actions.Record(actionlog.ActionSkip, dec.State.String(), path)
		b.bump(func(s *RunStats) { s.Skipped++ })
		b.relocateCompleteSource(job)
		return
	case resolve.StatePartial:
		b.log.Info("  resuming: %d of %d parts present, missing %v", dec.Present, totalParts, dec.Missing)
	default:
		b.log.Info("  splitting %s into %d parts", display.FormatBytes(pr.SizeBytes), totalParts)
	}

	// --- Dry-run ---
	if b.cfg.DryRun {
		b.log.Success("[DRY] Would create %d part(s) under %s", len(dec.Missing), b.cfg.TargetDir)
		b.bump(func(s *RunStats) {
			s.Completed++
			s.PartsCreated += len(dec.Missing)
		})
		return
	}

	// --- Execute ---
	for _, tmp := range b.resolver.CleanStaleTemp(job) {
		b.log.Warn("  removed stale temp file %s", filepath.Base(tmp))
	}
	if err := os.MkdirAll(job.TargetDir, 0o755); err != nil {
		b.log.Error("Cannot create target directory: %v", err)
		b.bump(func(s *RunStats) { s.Failed++ })
		return
	}

	start := time.Now()
	res := b.Engine.Execute(ctx, job, dec)

	switch {
	case res.Err != nil:
		b.bump(func(s *RunStats) {
			s.Failed++
			s.PartsCreated += len(res.Created)
		})
	case res.Complete:
		b.log.Success("Split into %d part(s) in %ds", totalParts, int(time.Since(start).Seconds()))
		b.bump(func(s *RunStats) {
			s.Completed++
			s.PartsCreated += len(res.Created)
			s.BytesSplit += pr.SizeBytes
		})
	default:
		// Extractions succeeded but a part vanished before the final check.
		b.log.Warn("Parts incomplete after execution: %s", basename)
		b.bump(func(s *RunStats) {
			s.Failed++
			s.PartsCreated += len(res.Created)
		})
	}
}

// archiveOriginal applies the post-action to the original source of a
// recognized part: once every sibling exists, the original next to it is
// moved to the archive directory.
func (b *Batch) archiveOriginal(info resolve.PartInfo) {
	if !b.cfg.Relocate || !info.SiblingsComplete || info.OriginalPath == "" {
		return
	}
	if b.cfg.DryRun {
		b.log.Success("[DRY] Would move %s (all parts present)", filepath.Base(info.OriginalPath))
		return
	}
	dest := fsx.ArchiveDir(filepath.Dir(info.OriginalPath))
	if _, err := fsx.MoveInto(info.OriginalPath, dest); err != nil {
		b.log.Warn("move %s: %v", info.OriginalPath, err)
		return
	}
	b.actions.Record(actionlog.ActionMove, "all parts present", info.OriginalPath)
	b.log.Info("  moved original %s -> %s", filepath.Base(info.OriginalPath), dest)
}

// relocateCompleteSource moves an already-complete source to the archive
// directory. No completion record is re-emitted; the split that produced
// the parts already logged one.
func (b *Batch) relocateCompleteSource(job planner.Job) {
	if !b.cfg.Relocate {
		return
	}
	if b.cfg.DryRun {
		b.log.Success("[DRY] Would move %s (already complete)", filepath.Base(job.SourcePath))
		return
	}
	dest := fsx.ArchiveDir(filepath.Dir(job.SourcePath))
	if _, err := fsx.MoveInto(job.SourcePath, dest); err != nil {
		b.log.Warn("move %s: %v", job.SourcePath, err)
		return
	}
	b.actions.Record(actionlog.ActionMove, "already complete", job.SourcePath)
	b.log.Info("  moved %s -> %s", filepath.Base(job.SourcePath), dest)
}

func (b *Batch) nextCurrent() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.Current++
	return b.stats.Current
}

func (b *Batch) bump(f func(*RunStats)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	f(&b.stats)
}

// --- Logging helpers ---

func (b *Batch) logBatchHeader() {
	b.log.Info("Found %d candidate file(s)", b.stats.Total)
	b.log.Info("Target: %s", b.cfg.TargetDir)

	if b.constraint.SizeBound() {
		b.log.Info("Split: max %s per part (margin %.0f%%)",
			display.FormatBytes(b.constraint.MaxBytes), b.constraint.Margin*100)
	} else {
		b.log.Info("Split: fixed %d parts per file", b.constraint.FixedParts)
	}
	b.log.Info("Pattern: '%s'", b.cfg.Pattern)
	if w := b.scheme.Warning(); w != "" {
		b.log.Warn("Pattern: %s", w)
	}

	if b.cfg.Keyword != "" {
		b.log.Info("Filter: keyword '%s'", b.cfg.Keyword)
	}
	if b.cfg.After != "" || b.cfg.Before != "" {
		b.log.Info("Filter: created %s .. %s", orAny(b.cfg.After), orAny(b.cfg.Before))
	}

	if b.cfg.Relocate {
		b.log.Info("Post-action: move completed sources to the archive directory")
	}
	b.log.Info("Workers: %d", b.cfg.Concurrent)
	if b.cfg.DryRun {
		b.log.Warn("Dry run: nothing will be written")
	}
	fmt.Println()
}

func orAny(s string) string {
	if s == "" {
		return "any"
	}
	return s
}

func (b *Batch) logSummary() {
	b.log.Info("==============================")
	b.log.Info("Done: %d split, %d skipped, %d failed", b.stats.Completed, b.stats.Skipped, b.stats.Failed)
	b.log.Info("  Files processed: %d", b.stats.Current)
	b.log.Info("  Parts created: %d", b.stats.PartsCreated)
	if b.cfg.DryRun {
		b.log.Info("  Data split: n/a (dry run)")
		return
	}
	b.log.Success("  Data split: %s", display.FormatBytes(b.stats.BytesSplit))
}
