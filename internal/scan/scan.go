// Package scan enumerates candidate source files: one or more roots (plain
// files, directories, doublestar glob patterns, or a .txt list of paths),
// filtered by extension set, keyword substring, and creation-time window.
package scan

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"partcut/internal/config"
)

// Scanner holds the candidate filters. Warn, when set, receives non-fatal
// diagnostics (missing roots, unreadable list files); a nil Warn drops them.
type Scanner struct {
	Extensions map[string]bool
	Keyword    string
	After      time.Time
	Before     time.Time

	Warn func(format string, args ...interface{})
}

// New builds a Scanner from validated config.
func New(cfg *config.Config) *Scanner {
	exts := make(map[string]bool, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		exts[e] = true
	}
	return &Scanner{
		Extensions: exts,
		Keyword:    strings.ToLower(cfg.Keyword),
		After:      cfg.AfterTime,
		Before:     cfg.BeforeTime,
	}
}

// Scan resolves every root and returns the matching candidate paths,
// deduplicated and sorted lexicographically for deterministic processing
// order. Missing roots are warned about and skipped; the batch continues.
func (s *Scanner) Scan(roots []string) ([]string, error) {
	var candidates []string
	seen := make(map[string]bool)

	add := func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		if s.match(path) {
			candidates = append(candidates, path)
		}
	}

	for _, root := range roots {
		if strings.HasSuffix(root, ".txt") {
			listed, err := readListFile(root)
			if err != nil {
				s.warnf("cannot read source list %s: %v", root, err)
				continue
			}
			for _, p := range listed {
				if err := s.resolveRoot(p, add); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := s.resolveRoot(root, add); err != nil {
			return nil, err
		}
	}

	sort.Strings(candidates)
	return candidates, nil
}

// resolveRoot dispatches one root: a file is taken directly, a directory is
// walked recursively, and anything else is tried as a doublestar pattern.
func (s *Scanner) resolveRoot(root string, add func(string)) error {
	fi, err := os.Stat(root)
	switch {
	case err == nil && fi.IsDir():
		return s.walk(root, add)
	case err == nil:
		add(root)
		return nil
	}

	matches, globErr := globRoot(root)
	if globErr != nil || len(matches) == 0 {
		s.warnf("source not found: %s", root)
		return nil
	}
	for _, m := range matches {
		if mi, err := os.Stat(m); err == nil && !mi.IsDir() {
			add(m)
		}
	}
	return nil
}

func (s *Scanner) walk(dir string, add func(string)) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		add(path)
		return nil
	})
}

// globRoot expands a doublestar pattern. Absolute patterns are matched
// against the filesystem root; relative ones against the working directory.
func globRoot(pattern string) ([]string, error) {
	fsys := os.DirFS(".")
	rel := pattern
	if filepath.IsAbs(pattern) {
		fsys = os.DirFS("/")
		var err error
		rel, err = filepath.Rel("/", pattern)
		if err != nil {
			return nil, err
		}
	}
	matches, err := doublestar.Glob(fsys, rel)
	if err != nil {
		return nil, err
	}
	if filepath.IsAbs(pattern) {
		for i, m := range matches {
			matches[i] = filepath.Join("/", m)
		}
	}
	return matches, nil
}

// match applies the extension, keyword, and creation-time filters.
func (s *Scanner) match(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if len(s.Extensions) > 0 && !s.Extensions[ext] {
		return false
	}

	if s.Keyword != "" && !strings.Contains(strings.ToLower(name), s.Keyword) {
		return false
	}

	if !s.After.IsZero() || !s.Before.IsZero() {
		fi, err := os.Stat(path)
		if err != nil {
			return false
		}
		created := creationTime(fi)
		if !s.After.IsZero() && created.Before(s.After) {
			return false
		}
		if !s.Before.IsZero() && !created.Before(s.Before) {
			return false
		}
	}
	return true
}

func (s *Scanner) warnf(format string, args ...interface{}) {
	if s.Warn != nil {
		s.Warn(format, args...)
	}
}

// readListFile reads one path per line, ignoring blanks and '#' comments.
func readListFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var paths []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	return paths, sc.Err()
}
