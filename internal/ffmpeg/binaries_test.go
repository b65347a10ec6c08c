package ffmpeg

import (
	"errors"
	"testing"
)

func TestLocate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		onPath  map[string]string
		want    BinaryPaths
		wantErr bool
	}{
		{
			name:   "environment overrides",
			env:    map[string]string{envFFmpegPath: "/opt/ff/ffmpeg", envFFprobePath: "/opt/ff/ffprobe"},
			onPath: map[string]string{"ffmpeg": "/usr/bin/ffmpeg", "ffprobe": "/usr/bin/ffprobe"},
			want:   BinaryPaths{FFmpeg: "/opt/ff/ffmpeg", FFprobe: "/opt/ff/ffprobe"},
		},
		{
			name:   "path lookup",
			onPath: map[string]string{"ffmpeg": "/usr/bin/ffmpeg", "ffprobe": "/usr/bin/ffprobe"},
			want:   BinaryPaths{FFmpeg: "/usr/bin/ffmpeg", FFprobe: "/usr/bin/ffprobe"},
		},
		{
			name:   "mixed",
			env:    map[string]string{envFFprobePath: "/opt/ff/ffprobe"},
			onPath: map[string]string{"ffmpeg": "/usr/bin/ffmpeg"},
			want:   BinaryPaths{FFmpeg: "/usr/bin/ffmpeg", FFprobe: "/opt/ff/ffprobe"},
		},
		{
			name:    "missing ffprobe",
			onPath:  map[string]string{"ffmpeg": "/usr/bin/ffmpeg"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getenv := func(key string) string { return tt.env[key] }
			lookPath := func(name string) (string, error) {
				if p, ok := tt.onPath[name]; ok {
					return p, nil
				}
				return "", errors.New("not found")
			}

			got, err := Locate(getenv, lookPath)
			if tt.wantErr {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Locate returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Locate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
