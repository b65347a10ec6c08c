package audio

import (
	"path/filepath"
	"testing"
	"time"
)

func TestIsMediaFile(t *testing.T) {
	tests := []struct {
		path  string
		audio bool
		video bool
	}{
		{"talk.MP3", true, false},
		{"meeting.webm", false, true},
		{"voice.opus", true, false},
		{"notes.srt", false, false},
		{"noext", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsAudioFile(tt.path); got != tt.audio {
				t.Errorf("IsAudioFile(%q) = %v, want %v", tt.path, got, tt.audio)
			}
			if got := IsVideoFile(tt.path); got != tt.video {
				t.Errorf("IsVideoFile(%q) = %v, want %v", tt.path, got, tt.video)
			}
			if got := IsMediaFile(tt.path); got != (tt.audio || tt.video) {
				t.Errorf("IsMediaFile(%q) = %v", tt.path, got)
			}
		})
	}
}

func TestNormalizeArgs(t *testing.T) {
	args := normalizeArgs(DefaultNormalizeOptions())
	if args["acodec"] != "libmp3lame" || args["ar"] != 16000 || args["ac"] != 1 || args["b:a"] != "64k" {
		t.Errorf("unexpected default args %v", args)
	}

	args = normalizeArgs(NormalizeOptions{Format: "aac", SampleRate: 22050, Channels: 2})
	if args["acodec"] != "aac" {
		t.Errorf("acodec = %v, want aac", args["acodec"])
	}
	if _, ok := args["b:a"]; ok {
		t.Error("bitrate set without being requested")
	}
}

func TestNormalizedPath(t *testing.T) {
	got := NormalizedPath("/tmp/work", "/media/lecture.final.mp4", DefaultNormalizeOptions())
	want := filepath.Join("/tmp/work", "lecture.final_16k.mp3")
	if got != want {
		t.Errorf("NormalizedPath = %q, want %q", got, want)
	}
}

func TestParseProbeDuration(t *testing.T) {
	d, err := parseProbeDuration([]byte(`{"format": {"duration": "12.500000"}}`))
	if err != nil {
		t.Fatalf("parseProbeDuration returned error: %v", err)
	}
	if d != 12500*time.Millisecond {
		t.Errorf("duration = %v, want 12.5s", d)
	}

	if _, err := parseProbeDuration([]byte(`{"format": {}}`)); err == nil {
		t.Error("expected error for missing duration")
	}
}
