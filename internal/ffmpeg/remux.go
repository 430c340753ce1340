// Package ffmpeg builds and runs the external remux commands. Extraction is
// a byte-for-byte stream copy: all streams are mapped and copied without
// re-encoding, and timestamps are normalized so the seek offset cannot
// introduce negative PTS values into the output container.
package ffmpeg

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"
)

// Request describes one part extraction.
type Request struct {
	InputPath   string
	StartOffset float64 // seconds into the source
	Duration    float64 // seconds to extract; 0 = to end of stream (final part)
	OutputPath  string
}

// killGrace is how long a cancelled ffmpeg gets to exit after SIGTERM
// before it is force-killed.
const killGrace = 5 * time.Second

// BuildArgs constructs the complete ffmpeg argument slice for a request.
// -ss precedes -i for keyframe-accurate fast seeking; -t is omitted for the
// final part so it extracts to the end of the stream.
func BuildArgs(req Request, verbose bool) []string {
	args := make([]string, 0, 20)
	args = append(args, "ffmpeg", "-hide_banner", "-nostdin", "-y")
	if verbose {
		args = append(args, "-loglevel", "info", "-stats")
	} else {
		args = append(args, "-loglevel", "error")
	}
	args = append(args,
		"-ss", formatSeconds(req.StartOffset),
		"-i", req.InputPath,
	)
	if req.Duration > 0 {
		args = append(args, "-t", formatSeconds(req.Duration))
	}
	args = append(args,
		"-map", "0",
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		req.OutputPath,
	)
	return args
}

// ExecResult holds the outcome of a single ffmpeg invocation.
type ExecResult struct {
	Stderr string
	Err    error
}

// Run executes the remux command and waits for it to finish. When verbose,
// stderr is tee'd to os.Stderr in real time; otherwise it is captured
// silently for error reporting. Context cancellation sends SIGTERM and
// force-kills after a bounded grace period, so an interrupted extraction
// never lingers.
func Run(ctx context.Context, req Request, verbose bool) ExecResult {
	args := BuildArgs(req, verbose)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = killGrace

	var stderrBuf bytes.Buffer
	if verbose {
		cmd.Stderr = io.MultiWriter(&stderrBuf, os.Stderr)
	} else {
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()
	return ExecResult{
		Stderr: stderrBuf.String(),
		Err:    err,
	}
}

// formatSeconds renders a second offset in plain decimal notation (ffmpeg
// does not accept exponent forms).
func formatSeconds(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
