package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// parsed subtitle file whose cues can be translated and written back out
type File interface {
	Format() Format
	Segments() []Segment
	SetTranslation(index int, text string) error
	Write(path string, useTranslated bool) error
}

type cueFile struct {
	format   Format
	segments []Segment
}

func Open(path string) (File, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var parse func(f *os.File) ([]Segment, error)
	var format Format
	switch ext {
	case ".srt":
		format = FormatSRT
		parse = func(f *os.File) ([]Segment, error) { return ParseSRT(f) }
	case ".vtt":
		format = FormatVTT
		parse = func(f *os.File) ([]Segment, error) { return ParseVTT(f) }
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file: %w", strings.ToUpper(string(format)), err)
	}
	defer func() {
		_ = file.Close()
	}()

	segments, err := parse(file)
	if err != nil {
		return nil, err
	}
	return &cueFile{format: format, segments: segments}, nil
}

func (f *cueFile) Format() Format {
	return f.format
}

func (f *cueFile) Segments() []Segment {
	out := make([]Segment, len(f.segments))
	copy(out, f.segments)
	return out
}

func (f *cueFile) SetTranslation(index int, text string) error {
	if index < 0 || index >= len(f.segments) {
		return fmt.Errorf(
			"index %d out of range (0-%d)",
			index,
			len(f.segments)-1,
		)
	}
	f.segments[index].TranslatedText = text
	return nil
}

func (f *cueFile) Write(path string, useTranslated bool) error {
	return WriteFile(path, f.segments, f.format, useTranslated)
}

func newCueID() string {
	return uuid.NewString()
}
