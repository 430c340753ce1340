// Package check provides system diagnostics (the check command) and
// pre-batch dependency validation for ffmpeg and ffprobe.
package check

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"partcut/internal/config"
)

// Sentinel errors returned by CheckDeps when a required tool is missing.
var (
	ErrFfmpegNotFound  = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound = errors.New("ffprobe not found on PATH")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// RunCheck runs the interactive check flow: prints availability and versions
// of ffmpeg and ffprobe, runs a minimal stream-copy test, and verifies the
// target and log directories are writable. Informational only; it does not
// stop on failure.
func RunCheck(cfg *config.Config, log Logger) {
	log.Info("=== System Check ===")

	checkTool(log, "ffmpeg")
	checkTool(log, "ffprobe")
	checkStreamCopy(log)
	checkWritable(log, "target", cfg.TargetDir)
	checkWritable(log, "log", cfg.LogDir)
}

// checkTool verifies a binary is on PATH and logs its version string.
func checkTool(log Logger, name string) {
	if _, err := exec.LookPath(name); err != nil {
		log.Error("%s not found", name)
		return
	}
	out, err := exec.Command(name, "-version").Output()
	if err != nil {
		log.Warn("%s found but -version failed: %v", name, err)
		return
	}
	firstLine := strings.TrimSpace(string(out))
	if idx := strings.Index(firstLine, "\n"); idx > 0 {
		firstLine = firstLine[:idx]
	}
	log.Success("%s: %s", name, firstLine)
}

// checkStreamCopy runs a minimal copy remux against a synthetic source.
// Extraction never re-encodes, so this is the only capability that matters.
func checkStreamCopy(log Logger) {
	log.Info("Testing stream copy...")
	if runSilent("ffmpeg",
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
		"-c", "copy",
		"-f", "null", "-",
	) {
		log.Success("Stream copy works")
	} else {
		log.Error("Stream copy test failed")
	}
}

// checkWritable verifies a directory can be created and written to.
func checkWritable(log Logger, label, dir string) {
	if dir == "" {
		log.Warn("No %s directory configured", label)
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error("Cannot create %s directory %s: %v", label, dir, err)
		return
	}
	probe := filepath.Join(dir, ".partcut-write-check")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		log.Error("%s directory %s is not writable: %v", label, dir, err)
		return
	}
	os.Remove(probe)
	log.Success("%s directory writable: %s", label, dir)
}

// CheckDeps is the pre-batch validation: it verifies that ffmpeg and
// ffprobe are on PATH. Returns a sentinel error on failure.
func CheckDeps() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return ErrFfmpegNotFound
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return ErrFfprobeNotFound
	}
	return nil
}

// runSilent runs a command and returns true if it exits with status 0.
// Both stdout and stderr are discarded.
func runSilent(name string, args ...string) bool {
	cmd := exec.Command(name, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}
