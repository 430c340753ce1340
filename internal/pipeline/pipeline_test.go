package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"partcut/internal/config"
	"partcut/internal/ffmpeg"
	"partcut/internal/fsx"
	"partcut/internal/logging"
	"partcut/internal/probe"
	"partcut/internal/resolve"
)

type fakeRunner struct {
	mu       sync.Mutex
	requests []ffmpeg.Request
}

func (f *fakeRunner) run(ctx context.Context, req ffmpeg.Request, verbose bool) ffmpeg.ExecResult {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if err := os.WriteFile(req.OutputPath, []byte("part-bytes"), 0o644); err != nil {
		return ffmpeg.ExecResult{Err: err}
	}
	return ffmpeg.ExecResult{}
}

func (f *fakeRunner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func fakeProbe(ctx context.Context, path string) (*probe.MediaInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &probe.MediaInfo{Path: path, DurationSeconds: 100, SizeBytes: fi.Size()}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	srcDir := t.TempDir()
	target := t.TempDir()
	return &config.Config{
		Sources:    []string{srcDir},
		TargetDir:  target,
		Parts:      2,
		Extensions: []string{"mkv"},
		Pattern:    config.DefaultPattern,
		Concurrent: 2,
		ColorMode:  config.ColorNever,
		LogDir:     filepath.Join(target, "logs"),
	}
}

func writeSource(t *testing.T, cfg *config.Config, name string) string {
	t.Helper()
	path := filepath.Join(cfg.Sources[0], name)
	if err := os.WriteFile(path, []byte("source-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newBatch(t *testing.T, cfg *config.Config, runner *fakeRunner) *Batch {
	t.Helper()
	log, err := logging.NewLogger(&config.Config{ColorMode: config.ColorNever})
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(cfg, log)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { b.Close() })
	b.Engine.Run = runner.run
	b.Engine.Probe = fakeProbe
	return b
}

func TestRun_SplitsSourceIntoParts(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg, "clip.mkv")

	runner := &fakeRunner{}
	stats := newBatch(t, cfg, runner).Run(context.Background())

	if stats.Total != 1 || stats.Completed != 1 || stats.Failed != 0 {
		t.Fatalf("stats = %+v, want 1 total, 1 completed", stats)
	}
	if stats.PartsCreated != 2 {
		t.Errorf("parts created = %d, want 2", stats.PartsCreated)
	}
	for _, name := range []string{"clip_part_1_of_2.mkv", "clip_part_2_of_2.mkv"} {
		if _, err := os.Stat(filepath.Join(cfg.TargetDir, name)); err != nil {
			t.Errorf("missing part %s: %v", name, err)
		}
	}
	if _, err := os.Stat(resolve.ManifestPath(cfg.TargetDir, "clip")); err != nil {
		t.Errorf("manifest missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.LogDir, "actions.log")); err != nil {
		t.Errorf("action log missing: %v", err)
	}
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	cfg.DryRun = true
	writeSource(t, cfg, "clip.mkv")

	runner := &fakeRunner{}
	stats := newBatch(t, cfg, runner).Run(context.Background())

	if runner.calls() != 0 {
		t.Errorf("dry run invoked the runner %d times", runner.calls())
	}
	// Same classification outcome as a real run, just without the writes.
	if stats.Completed != 1 || stats.PartsCreated != 2 {
		t.Errorf("stats = %+v, want 1 completed, 2 parts planned", stats)
	}
	entries, err := os.ReadDir(cfg.TargetDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("dry run wrote into the target dir: %v", entries)
	}
}

func TestRun_SecondRunSkipsCompleteSource(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg, "clip.mkv")

	first := &fakeRunner{}
	newBatch(t, cfg, first).Run(context.Background())

	second := &fakeRunner{}
	stats := newBatch(t, cfg, second).Run(context.Background())

	if second.calls() != 0 {
		t.Errorf("second run invoked the runner %d times", second.calls())
	}
	if stats.Skipped != 1 || stats.Completed != 0 {
		t.Errorf("stats = %+v, want 1 skipped", stats)
	}
}

func TestRun_GeneratedPartsAreExcluded(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg, "clip.mkv")

	runner := &fakeRunner{}
	newBatch(t, cfg, runner).Run(context.Background())

	// Re-scan the target directory itself: the generated parts must not be
	// treated as new split candidates.
	cfg2 := testConfig(t)
	cfg2.Sources = []string{cfg.TargetDir}
	cfg2.TargetDir = cfg.TargetDir
	cfg2.LogDir = cfg.LogDir

	runner2 := &fakeRunner{}
	stats := newBatch(t, cfg2, runner2).Run(context.Background())

	if runner2.calls() != 0 {
		t.Errorf("part candidates triggered %d extractions", runner2.calls())
	}
	if stats.Total != 2 || stats.Skipped != 2 {
		t.Errorf("stats = %+v, want 2 candidates both skipped", stats)
	}
}

func TestRun_RelocateArchivesOriginalNextToParts(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg, "clip.mkv")

	runner := &fakeRunner{}
	newBatch(t, cfg, runner).Run(context.Background())

	// Place the original alongside its parts, then re-scan the target with a
	// keyword that matches only the part files. Every candidate is then a
	// recognized part, and the relocate post-action must move the original
	// sitting next to them into the archive directory.
	original := filepath.Join(cfg.TargetDir, "clip.mkv")
	if err := os.WriteFile(original, []byte("source-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg2 := testConfig(t)
	cfg2.Sources = []string{cfg.TargetDir}
	cfg2.TargetDir = cfg.TargetDir
	cfg2.LogDir = cfg.LogDir
	cfg2.Keyword = "part"
	cfg2.Relocate = true

	runner2 := &fakeRunner{}
	stats := newBatch(t, cfg2, runner2).Run(context.Background())

	if runner2.calls() != 0 {
		t.Errorf("recognized parts triggered %d extractions", runner2.calls())
	}
	if stats.Skipped != 2 {
		t.Errorf("stats = %+v, want both parts skipped", stats)
	}
	if _, err := os.Stat(original); !os.IsNotExist(err) {
		t.Error("original still next to its parts after relocate")
	}
	archived := filepath.Join(fsx.ArchiveDir(cfg.TargetDir), "clip.mkv")
	if _, err := os.Stat(archived); err != nil {
		t.Errorf("original not in archive directory: %v", err)
	}
}

func TestRun_DryRunLeavesOriginalInPlace(t *testing.T) {
	cfg := testConfig(t)
	writeSource(t, cfg, "clip.mkv")

	runner := &fakeRunner{}
	newBatch(t, cfg, runner).Run(context.Background())

	original := filepath.Join(cfg.TargetDir, "clip.mkv")
	if err := os.WriteFile(original, []byte("source-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg2 := testConfig(t)
	cfg2.Sources = []string{cfg.TargetDir}
	cfg2.TargetDir = cfg.TargetDir
	cfg2.LogDir = cfg.LogDir
	cfg2.Keyword = "part"
	cfg2.Relocate = true
	cfg2.DryRun = true

	runner2 := &fakeRunner{}
	newBatch(t, cfg2, runner2).Run(context.Background())

	if runner2.calls() != 0 {
		t.Errorf("dry run invoked the runner %d times", runner2.calls())
	}
	if _, err := os.Stat(original); err != nil {
		t.Errorf("dry run moved the original: %v", err)
	}
	if _, err := os.Stat(fsx.ArchiveDir(cfg.TargetDir)); !os.IsNotExist(err) {
		t.Error("dry run created the archive directory")
	}
}

func TestRun_ResumeAfterPartialRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.Parts = 3
	writeSource(t, cfg, "clip.mkv")

	// Simulate a previous interrupted run: part 1 finished, part 2 in flight.
	pre := filepath.Join(cfg.TargetDir, "clip_part_1_of_3.mkv")
	if err := os.WriteFile(pre, []byte("done"), 0o644); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(cfg.TargetDir, "clip_part_2_of_3.mkv"+resolve.TempSuffix)
	if err := os.WriteFile(stale, []byte("half"), 0o644); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{}
	stats := newBatch(t, cfg, runner).Run(context.Background())

	if stats.Completed != 1 {
		t.Fatalf("stats = %+v, want completion", stats)
	}
	if runner.calls() != 2 {
		t.Errorf("runner called %d times, want 2 (parts 2 and 3)", runner.calls())
	}
	if stats.PartsCreated != 2 {
		t.Errorf("parts created = %d, want 2", stats.PartsCreated)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale temp file not cleaned before resume")
	}
	if data, err := os.ReadFile(pre); err != nil || string(data) != "done" {
		t.Error("pre-existing part was rewritten")
	}
}
