// Package actionlog records the engine's durable audit trail: an append-only
// action stream (skip / move / complete / fail) and a completion-detail
// stream with per-part sizes and durations. Both are plain sequential text;
// together with the part manifests they are the only on-disk state.
package actionlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Action is the event kind recorded in the action stream.
type Action string

const (
	ActionSkip     Action = "SKIP"
	ActionMove     Action = "MOVE"
	ActionComplete Action = "COMPLETE"
	ActionFail     Action = "FAIL"
)

const (
	actionsFileName     = "actions.log"
	completionsFileName = "completions.log"
)

// PartRecord describes one created part in a completion record.
type PartRecord struct {
	Index           int
	Path            string
	SizeBytes       int64
	DurationSeconds float64
}

// CompletionRecord describes one fully split source file.
type CompletionRecord struct {
	SourcePath      string
	SizeBytes       int64
	DurationSeconds float64
	Parts           []PartRecord
}

// Log appends events to the two streams under one directory. All methods
// are safe for concurrent use; the internal lock keeps each stream's
// appends serialized across workers.
type Log struct {
	mu          sync.Mutex
	actions     *os.File
	completions *os.File
	now         func() time.Time
}

// Open creates dir if needed and opens both streams for appending.
func Open(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	actions, err := openAppend(filepath.Join(dir, actionsFileName))
	if err != nil {
		return nil, err
	}
	completions, err := openAppend(filepath.Join(dir, completionsFileName))
	if err != nil {
		actions.Close()
		return nil, err
	}
	return &Log{actions: actions, completions: completions, now: time.Now}, nil
}

// Discard returns a Log whose methods succeed without writing anywhere.
// Dry runs use it so classification paths stay identical to real runs.
func Discard() *Log {
	return &Log{now: time.Now}
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	return f, nil
}

// Close closes both streams.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var firstErr error
	for _, f := range []*os.File{l.actions, l.completions} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.actions, l.completions = nil, nil
	return firstErr
}

// Record appends one event to the action stream.
func (l *Log) Record(action Action, reason, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.actions == nil {
		return nil
	}
	_, err := fmt.Fprintf(l.actions, "%s\t%s\t%s\t%s\n",
		l.now().Format("2006-01-02 15:04:05"), action, reason, path)
	return err
}

// Completion appends one structured completion record: a source line
// followed by an indented line per part.
func (l *Log) Completion(rec CompletionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.completions == nil {
		return nil
	}
	ts := l.now().Format("2006-01-02 15:04:05")
	if _, err := fmt.Fprintf(l.completions, "%s\t%s\tsize=%d\tduration=%.2fs\tparts=%d\n",
		ts, rec.SourcePath, rec.SizeBytes, rec.DurationSeconds, len(rec.Parts)); err != nil {
		return err
	}
	for _, p := range rec.Parts {
		if _, err := fmt.Fprintf(l.completions, "\tpart %d\t%s\tsize=%d\tduration=%.2fs\n",
			p.Index, p.Path, p.SizeBytes, p.DurationSeconds); err != nil {
			return err
		}
	}
	return nil
}
