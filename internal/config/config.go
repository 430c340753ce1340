// Package config holds runtime configuration: defaults, the optional YAML
// config file, and validation. Flag binding lives in the cmd package; this
// package stays flag-free so every internal package can depend on it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// DefaultPattern is the part-naming pattern: '#' is the part index, '##' the
// total part count, both zero-padded once the total reaches two digits.
const DefaultPattern = "_part_#_of_##"

// DefaultSafetyMargin compensates for container overhead and keyframe
// alignment: stream-copy part sizes track wall-clock duration only
// approximately, so each part targets slightly less than the size limit.
const DefaultSafetyMargin = 0.02

// Config holds all runtime settings. It is populated by [DefaultConfig],
// optionally overlaid by [LoadFile], and then mutated by the cmd package's
// flag binding before being passed (by pointer) to packages that need it.
type Config struct {
	// Sources and target.
	Sources   []string `yaml:"sources"`
	TargetDir string   `yaml:"target"`

	// Split constraint. Exactly one of Parts / SizeLimit must be set.
	Parts          int     `yaml:"parts"`     // Fixed part count (>=1). 0 = unset.
	SizeLimit      string  `yaml:"sizeLimit"` // e.g. "500MB", "2GB". "" = unset.
	SizeLimitBytes int64   `yaml:"-"`         // Derived by Validate.
	SafetyMargin   float64 `yaml:"margin"`    // Default: 0.02.

	// Candidate filters.
	Extensions []string  `yaml:"extensions"` // Lowercase, no dot. Empty = default media set.
	Keyword    string    `yaml:"keyword"`    // Case-insensitive substring on the basename.
	After      string    `yaml:"after"`      // yymmdd or yymmdd-hh:mm:ss. "" = no lower bound.
	Before     string    `yaml:"before"`     // Same format. "" = no upper bound.
	AfterTime  time.Time `yaml:"-"`          // Derived by Validate.
	BeforeTime time.Time `yaml:"-"`          // Derived by Validate.

	// Part naming.
	Pattern string `yaml:"pattern"` // Default: DefaultPattern.

	// Behavior.
	DryRun     bool `yaml:"dryRun"`
	Relocate   bool `yaml:"relocate"`   // Move completed sources to the archive dir.
	Concurrent int  `yaml:"concurrent"` // Worker count. Default: NumCPU-1, min 1.

	// Display and logging.
	Verbose   bool      `yaml:"verbose"`
	ColorMode ColorMode `yaml:"color"`
	LogDir    string    `yaml:"logDir"` // Default: <target>/logs. Resolved by Validate.
}

// DefaultExtensions is the media extension set used when the config does not
// name one (lowercase, without dot).
var DefaultExtensions = []string{
	"mkv", "mp4", "avi", "m4v", "mov", "wmv", "flv", "webm",
	"ts", "m2ts", "mpg", "mpeg", "vob", "ogv",
	"mp3", "m4a", "aac", "flac", "wav", "ogg", "opus",
}

// DefaultConfig returns a Config with all defaults applied. Used as the base
// before the config file and CLI flags overlay their values.
func DefaultConfig() Config {
	concurrent := runtime.NumCPU() - 1
	if concurrent < 1 {
		concurrent = 1
	}
	return Config{
		SafetyMargin: DefaultSafetyMargin,
		Pattern:      DefaultPattern,
		Concurrent:   concurrent,
		ColorMode:    ColorAuto,
	}
}

// FilePath returns the default config file location
// (~/.config/partcut/config.yaml), or "" when the home dir is unknown.
func FilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "partcut", "config.yaml")
}

// LoadFile overlays cfg with values from the YAML file at path. A missing
// file is not an error; a malformed one is.
func LoadFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	return nil
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks constraint selection, parses the size limit and date
// filters into their derived fields, and resolves the log directory.
// Call it once, after the config file and flags have been applied.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("invalid color mode %q (use auto, always or never)", c.ColorMode)
	}

	if c.Parts != 0 && c.SizeLimit != "" {
		return errors.New("--parts and --size-limit are mutually exclusive")
	}
	if c.Parts == 0 && c.SizeLimit == "" {
		return errors.New("need a split constraint: --parts or --size-limit")
	}
	if c.Parts < 0 {
		return fmt.Errorf("invalid part count %d (must be >= 1)", c.Parts)
	}
	if c.SizeLimit != "" {
		n, err := ParseSizeLimit(c.SizeLimit)
		if err != nil {
			return err
		}
		c.SizeLimitBytes = n
	}

	if c.SafetyMargin < 0 || c.SafetyMargin >= 0.5 {
		return fmt.Errorf("invalid safety margin %v (must be in [0, 0.5))", c.SafetyMargin)
	}
	if c.Pattern == "" {
		return errors.New("naming pattern must not be empty")
	}
	if c.Concurrent < 1 {
		return fmt.Errorf("invalid concurrency %d (must be >= 1)", c.Concurrent)
	}

	if len(c.Sources) == 0 {
		return errors.New("need at least one source path")
	}
	if c.TargetDir == "" {
		return errors.New("need a target directory (--target)")
	}
	c.TargetDir = NormalizeDirArg(c.TargetDir)

	var err error
	if c.AfterTime, err = parseStamp(c.After); err != nil {
		return fmt.Errorf("invalid --after: %w", err)
	}
	if c.BeforeTime, err = parseStamp(c.Before); err != nil {
		return fmt.Errorf("invalid --before: %w", err)
	}

	if len(c.Extensions) == 0 {
		c.Extensions = DefaultExtensions
	}
	for i, ext := range c.Extensions {
		c.Extensions[i] = strings.ToLower(strings.TrimPrefix(ext, "."))
	}

	if c.LogDir == "" {
		c.LogDir = filepath.Join(c.TargetDir, "logs")
	}
	return nil
}

var sizeLimitRe = regexp.MustCompile(`(?i)^(\d+)\s*(MB|GB)?$`)

// ParseSizeLimit parses a size like "500MB" or "2GB" into bytes.
// A bare number is taken as megabytes.
func ParseSizeLimit(s string) (int64, error) {
	m := sizeLimitRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid size limit %q (use e.g. 500MB or 2GB)", s)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid size limit %q (use e.g. 500MB or 2GB)", s)
	}
	if strings.EqualFold(m[2], "GB") {
		return n * 1024 * 1024 * 1024, nil
	}
	return n * 1024 * 1024, nil
}

// parseStamp parses the date filter format: yymmdd, optionally followed by
// -hh:mm:ss. Times are interpreted in the local zone, matching how creation
// timestamps are compared.
func parseStamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if strings.Contains(s, "-") {
		return time.ParseInLocation("060102-15:04:05", s, time.Local)
	}
	return time.ParseInLocation("060102", s, time.Local)
}
