package planner

import (
	"math"
)

// Constraint selects how a file is split: a fixed part count, or a maximum
// size per part. Exactly one of FixedParts / MaxBytes is set (config
// validation enforces the mutual exclusion).
type Constraint struct {
	FixedParts int     // >0: split into exactly this many parts.
	MaxBytes   int64   // >0: keep each part below this size.
	Margin     float64 // Size-bound safety margin (default 0.02).
}

// SizeBound reports whether the constraint is the max-size-per-part form.
func (c Constraint) SizeBound() bool {
	return c.FixedParts == 0 && c.MaxBytes > 0
}

// TotalParts computes the part count for a file of the given size.
//
// Fixed-count: the user value, unconditionally. Size-bound: 1 when the file
// already fits (callers treat 1 as "do not split"); otherwise
// ceil(size / (MaxBytes * (1-Margin))), floored at 2. The margin exists
// because stream-copy part sizes are only approximately proportional to
// duration (container overhead, keyframe alignment).
func (c Constraint) TotalParts(sizeBytes int64) int {
	if c.FixedParts > 0 {
		return c.FixedParts
	}
	if sizeBytes <= c.MaxBytes {
		return 1
	}
	effective := float64(c.MaxBytes) * (1 - c.Margin)
	n := int(math.Ceil(float64(sizeBytes) / effective))
	if n < 2 {
		n = 2
	}
	return n
}

// PartRange is the time window of one part. Index is 1-based. A zero
// Duration marks the final part, which extracts to the end of the stream.
type PartRange struct {
	Index    int
	Start    float64 // seconds
	Duration float64 // seconds; 0 = unbounded (final part)
}

// Ranges divides duration into totalParts time-equal windows. Part i
// (0-indexed) starts at i*partDuration; every part but the last is bounded
// by partDuration.
func Ranges(duration float64, totalParts int) []PartRange {
	if totalParts < 1 {
		return nil
	}
	partDuration := duration / float64(totalParts)
	ranges := make([]PartRange, totalParts)
	for i := 0; i < totalParts; i++ {
		ranges[i] = PartRange{
			Index:    i + 1,
			Start:    float64(i) * partDuration,
			Duration: partDuration,
		}
	}
	ranges[totalParts-1].Duration = 0
	return ranges
}
