package subtitle

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

var ErrUnsupportedFormat = errors.New("unsupported format")

// Segment is one finalized, time-bounded span of transcript text.
// Times are offsets from the start of the recording session.
type Segment struct {
	ID             string
	StartTime      time.Duration
	EndTime        time.Duration
	OriginalText   string
	TranslatedText string
}

// Text picks the text a segment contributes to an export. The translation
// wins when requested and present, otherwise the original is used.
func (s Segment) Text(useTranslated bool) string {
	if useTranslated && strings.TrimSpace(s.TranslatedText) != "" {
		return s.TranslatedText
	}
	return s.OriginalText
}

func (s Segment) Duration() time.Duration {
	return s.EndTime - s.StartTime
}

// reports whether any segment carries a translation
func HasTranslations(segments []Segment) bool {
	for _, seg := range segments {
		if strings.TrimSpace(seg.TranslatedText) != "" {
			return true
		}
	}
	return false
}

// represents supported export formats
type Format string

const (
	FormatTXT Format = "txt"
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// Formats lists every export format in menu order.
var Formats = []Format{FormatTXT, FormatSRT, FormatVTT}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, "."))) {
	case "txt", "text":
		return FormatTXT, nil
	case "srt":
		return FormatSRT, nil
	case "vtt", "webvtt":
		return FormatVTT, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// file extension for a format
func (f Format) Extension() string {
	return "." + string(f)
}

// MIME type handed to whoever saves or serves the payload
func (f Format) ContentType() string {
	if f == FormatVTT {
		return "text/vtt"
	}
	return "text/plain"
}

// FileName returns the download name for an export, e.g.
// original_transcript.srt or translated_transcript.vtt.
func FileName(format Format, translated bool) string {
	prefix := "original"
	if translated {
		prefix = "translated"
	}
	return prefix + "_transcript" + format.Extension()
}

// subtitle format based on file extension
func GetFormatFromExtension(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}
