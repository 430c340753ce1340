package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validBase() Config {
	cfg := DefaultConfig()
	cfg.Sources = []string{"/media/in"}
	cfg.TargetDir = "/media/out"
	cfg.SizeLimit = "500MB"
	return cfg
}

func TestParseSizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{"megabytes", "500MB", 500 * 1024 * 1024, false},
		{"gigabytes", "2GB", 2 * 1024 * 1024 * 1024, false},
		{"lowercase", "500mb", 500 * 1024 * 1024, false},
		{"bare number is MB", "500", 500 * 1024 * 1024, false},
		{"surrounding space", " 100MB ", 100 * 1024 * 1024, false},
		{"zero", "0MB", 0, true},
		{"negative", "-5MB", 0, true},
		{"garbage", "big", 0, true},
		{"wrong unit", "500KB", 0, true},
		{"empty", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSizeLimit(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSizeLimit(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseSizeLimit(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeDirArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no trailing slash", "/media/library", "/media/library"},
		{"single trailing slash", "/media/library/", "/media/library"},
		{"multiple trailing slashes", "/media/library///", "/media/library"},
		{"root path", "/", "/"},
		{"relative with slash", "output/", "output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDirArg(tt.in); got != tt.want {
				t.Errorf("NormalizeDirArg(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate_ConstraintSelection(t *testing.T) {
	tests := []struct {
		name      string
		parts     int
		sizeLimit string
		wantErr   bool
	}{
		{"size limit only", 0, "500MB", false},
		{"parts only", 3, "", false},
		{"both is an error", 3, "500MB", true},
		{"neither is an error", 0, "", true},
		{"negative parts", -1, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBase()
			cfg.Parts = tt.parts
			cfg.SizeLimit = tt.sizeLimit
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_DerivesSizeLimitBytes(t *testing.T) {
	cfg := validBase()
	cfg.SizeLimit = "1GB"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.SizeLimitBytes != 1024*1024*1024 {
		t.Errorf("SizeLimitBytes = %d, want %d", cfg.SizeLimitBytes, 1024*1024*1024)
	}
}

func TestValidate_DateFilters(t *testing.T) {
	cfg := validBase()
	cfg.After = "260101"
	cfg.Before = "260115-14:30:00"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	wantAfter := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)
	if !cfg.AfterTime.Equal(wantAfter) {
		t.Errorf("AfterTime = %v, want %v", cfg.AfterTime, wantAfter)
	}
	wantBefore := time.Date(2026, 1, 15, 14, 30, 0, 0, time.Local)
	if !cfg.BeforeTime.Equal(wantBefore) {
		t.Errorf("BeforeTime = %v, want %v", cfg.BeforeTime, wantBefore)
	}

	cfg = validBase()
	cfg.After = "January 1st"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() accepted a malformed date")
	}
}

func TestValidate_Margin(t *testing.T) {
	tests := []struct {
		name    string
		margin  float64
		wantErr bool
	}{
		{"default", DefaultSafetyMargin, false},
		{"zero is allowed", 0, false},
		{"negative", -0.1, true},
		{"half or more", 0.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBase()
			cfg.SafetyMargin = tt.margin
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_DefaultsExtensionsAndLogDir(t *testing.T) {
	cfg := validBase()
	cfg.TargetDir = "/media/out/"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.TargetDir != "/media/out" {
		t.Errorf("TargetDir = %q, want trailing slash stripped", cfg.TargetDir)
	}
	if cfg.LogDir != filepath.Join("/media/out", "logs") {
		t.Errorf("LogDir = %q, want target-relative default", cfg.LogDir)
	}
	if len(cfg.Extensions) == 0 {
		t.Error("Extensions not defaulted")
	}

	cfg = validBase()
	cfg.Extensions = []string{".MKV", "Mp4"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Extensions[0] != "mkv" || cfg.Extensions[1] != "mp4" {
		t.Errorf("Extensions = %v, want lowercased without dot", cfg.Extensions)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "target: /srv/parts\npattern: \"_p#of##\"\nrelocate: true\nmargin: 0.05\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := LoadFile(&cfg, path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.TargetDir != "/srv/parts" {
		t.Errorf("TargetDir = %q", cfg.TargetDir)
	}
	if cfg.Pattern != "_p#of##" {
		t.Errorf("Pattern = %q", cfg.Pattern)
	}
	if !cfg.Relocate {
		t.Error("Relocate not set from file")
	}
	if cfg.SafetyMargin != 0.05 {
		t.Errorf("SafetyMargin = %v", cfg.SafetyMargin)
	}
}

func TestLoadFile_MissingIsNotAnError(t *testing.T) {
	cfg := DefaultConfig()
	if err := LoadFile(&cfg, filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Errorf("LoadFile on missing file: %v", err)
	}
}
