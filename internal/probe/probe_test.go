package probe

import (
	"strings"
	"testing"
)

func TestParseJSON(t *testing.T) {
	data := []byte(`{
		"format": {
			"filename": "movie.mkv",
			"duration": "4156.480000",
			"size": "1258291200",
			"bit_rate": "2421759"
		}
	}`)

	info, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if info.DurationSeconds != 4156.48 {
		t.Errorf("DurationSeconds = %v, want 4156.48", info.DurationSeconds)
	}
	if info.SizeBytes != 1258291200 {
		t.Errorf("SizeBytes = %d, want 1258291200", info.SizeBytes)
	}
	if info.BitRate != 2421759 {
		t.Errorf("BitRate = %d, want 2421759", info.BitRate)
	}
}

// Bitrate is optional; its absence must not fail the probe.
func TestParseJSON_NoBitRate(t *testing.T) {
	info, err := ParseJSON([]byte(`{"format":{"duration":"10","size":"100"}}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if info.BitRate != 0 {
		t.Errorf("BitRate = %d, want 0", info.BitRate)
	}
}

func TestParseJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"not json", `garbage`, "parse ffprobe JSON"},
		{"missing duration", `{"format":{"size":"100"}}`, "duration"},
		{"non-numeric duration", `{"format":{"duration":"N/A","size":"100"}}`, "duration"},
		{"zero duration", `{"format":{"duration":"0","size":"100"}}`, "duration"},
		{"missing size", `{"format":{"duration":"12.5"}}`, "size"},
		{"non-numeric size", `{"format":{"duration":"12.5","size":"N/A"}}`, "size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.data))
			if err == nil {
				t.Fatal("ParseJSON accepted invalid input")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
