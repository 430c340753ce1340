package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// manifestSuffix names the per-job sidecar written next to the parts on
// completion. It makes part recognition a lookup instead of a pattern
// search, and survives pattern changes between runs.
const manifestSuffix = ".parts.yaml"

// Manifest records what one completed split produced.
type Manifest struct {
	Source  string         `yaml:"source"`
	Base    string         `yaml:"base"`
	Ext     string         `yaml:"ext"`
	Total   int            `yaml:"total"`
	Pattern string         `yaml:"pattern"`
	Parts   []ManifestPart `yaml:"parts"`
}

// ManifestPart is one entry of Manifest.Parts.
type ManifestPart struct {
	Index    int     `yaml:"index"`
	Name     string  `yaml:"name"`
	Size     int64   `yaml:"size"`
	Duration float64 `yaml:"duration"`
}

// ManifestPath returns the sidecar path for a job base name in dir.
func ManifestPath(dir, base string) string {
	return filepath.Join(dir, base+manifestSuffix)
}

// SaveManifest writes m atomically (temp file + rename) so a crash can
// never leave a truncated sidecar that parses as valid.
func SaveManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	dst := ManifestPath(dir, m.Base)
	tmp, err := os.CreateTemp(dir, "."+m.Base+manifestSuffix+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpName)
	}()
	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, dst)
}

// LoadManifest reads and parses one sidecar file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return &m, nil
}

// manifestIndex maps part filenames to their manifests for one directory,
// loaded lazily so candidate recognition stays O(1) per file.
type manifestIndex struct {
	byName map[string]manifestEntry
}

type manifestEntry struct {
	manifest *Manifest
	part     ManifestPart
}

// loadManifestIndex reads every sidecar in dir. Unreadable or malformed
// sidecars are skipped; recognition then falls back to the pattern search.
func loadManifestIndex(dir string) *manifestIndex {
	idx := &manifestIndex{byName: make(map[string]manifestEntry)}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return idx
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), manifestSuffix) {
			continue
		}
		m, err := LoadManifest(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		for _, p := range m.Parts {
			idx.byName[p.Name] = manifestEntry{manifest: m, part: p}
		}
	}
	return idx
}
