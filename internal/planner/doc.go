// Package planner computes how many parts a source file needs under the
// active constraint and the time range each part covers.
//
// Parts are time-equal, not byte-equal: the planner divides the probed
// duration evenly and leaves the final part unbounded so cumulative rounding
// never drifts past the end of the stream. A job's total part count is fixed
// for the lifetime of one planning pass; it is never recomputed mid-run.
package planner
