// Package probe reports a media file's duration and size via a single
// ffprobe JSON call. It is a pure query with no side effects; planning
// re-probes on every invocation rather than caching results.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// MediaInfo is an immutable snapshot of the probed attributes a planning
// pass needs.
type MediaInfo struct {
	Path            string
	DurationSeconds float64
	SizeBytes       int64
	BitRate         int64 // bits per second; 0 when the container omits it
}

// Probe runs ffprobe against path and returns the parsed result. A missing
// or non-numeric duration or size is an error; the caller skips the file and
// continues the batch.
func Probe(ctx context.Context, path string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}

	info, err := ParseJSON(out)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	info.Path = path
	return info, nil
}

// ParseJSON converts raw ffprobe JSON output into a MediaInfo.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*MediaInfo, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	dur, err := strconv.ParseFloat(strings.TrimSpace(raw.Format.Duration), 64)
	if err != nil || dur <= 0 {
		return nil, fmt.Errorf("missing or invalid duration %q", raw.Format.Duration)
	}
	size, err := strconv.ParseInt(strings.TrimSpace(raw.Format.Size), 10, 64)
	if err != nil || size < 0 {
		return nil, fmt.Errorf("missing or invalid size %q", raw.Format.Size)
	}

	info := &MediaInfo{
		DurationSeconds: dur,
		SizeBytes:       size,
	}
	// Bitrate is informational only; not every container reports one.
	if br, err := strconv.ParseInt(strings.TrimSpace(raw.Format.BitRate), 10, 64); err == nil && br > 0 {
		info.BitRate = br
	}
	return info, nil
}

// --- ffprobe JSON wire types (numbers arrive as strings) ---

type ffprobeOutput struct {
	Format ffprobeFormat `json:"format"`
}

type ffprobeFormat struct {
	Filename string `json:"filename"`
	Duration string `json:"duration"`
	Size     string `json:"size"`
	BitRate  string `json:"bit_rate"`
}
