package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// interface for rendering segments into a timed-text payload
type Writer interface {
	Format() Format
	Render(segments []Segment, useTranslated bool) string
}

// plain text, one "[MM:SS - MM:SS] text" line per segment
type TXTWriter struct{}

// SubRip format
type SRTWriter struct{}

// WebVTT format
type VTTWriter struct{}

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatTXT:
		return &TXTWriter{}, nil
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Render serializes segments in the given format. Segments whose selected
// text is blank are left out of every format.
func Render(segments []Segment, format Format, useTranslated bool) (string, error) {
	writer, err := NewWriter(format)
	if err != nil {
		return "", err
	}
	return writer.Render(segments, useTranslated), nil
}

// WriteFile renders segments and stores them at path, creating parent
// directories as needed.
func WriteFile(
	path string,
	segments []Segment,
	format Format,
	useTranslated bool,
) error {
	content, err := Render(segments, format, useTranslated)
	if err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func (w *TXTWriter) Format() Format { return FormatTXT }

func (w *TXTWriter) Render(segments []Segment, useTranslated bool) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		text, ok := exportText(seg, useTranslated)
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%s - %s] %s",
			formatDisplayTime(seg.StartTime),
			formatDisplayTime(seg.EndTime),
			text))
	}
	return strings.Join(lines, "\n")
}

func (w *SRTWriter) Format() Format { return FormatSRT }

func (w *SRTWriter) Render(segments []Segment, useTranslated bool) string {
	cues := make([]string, 0, len(segments))
	for _, seg := range segments {
		text, ok := exportText(seg, useTranslated)
		if !ok {
			continue
		}

		var sb strings.Builder
		// index (1-based, counted over emitted cues only)
		sb.WriteString(fmt.Sprintf("%d\n", len(cues)+1))

		// timestamps: 00:00:00,000 --> 00:00:00,000
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatSRTTime(seg.StartTime),
			formatSRTTime(seg.EndTime)))

		sb.WriteString(text)
		sb.WriteString("\n")
		cues = append(cues, sb.String())
	}
	return strings.Join(cues, "\n")
}

func (w *VTTWriter) Format() Format { return FormatVTT }

func (w *VTTWriter) Render(segments []Segment, useTranslated bool) string {
	var sb strings.Builder

	// VTT header
	sb.WriteString("WEBVTT\n\n")

	cues := make([]string, 0, len(segments))
	for _, seg := range segments {
		text, ok := exportText(seg, useTranslated)
		if !ok {
			continue
		}
		// timestamps: 00:00:00.000 --> 00:00:00.000
		cues = append(cues, fmt.Sprintf("%s --> %s\n%s",
			formatVTTTime(seg.StartTime),
			formatVTTTime(seg.EndTime),
			text))
	}
	sb.WriteString(strings.Join(cues, "\n\n"))

	return sb.String()
}

func exportText(seg Segment, useTranslated bool) (string, bool) {
	text := seg.Text(useTranslated)
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

// splits d into clock fields from its whole-millisecond count so that
// seconds never read 60 and milliseconds never read 1000
func clockParts(d time.Duration) (hours, minutes, seconds, millis int64) {
	if d < 0 {
		d = 0
	}
	total := d.Milliseconds()
	hours = total / 3600000
	minutes = (total % 3600000) / 60000
	seconds = (total % 60000) / 1000
	millis = total % 1000
	return hours, minutes, seconds, millis
}

func formatSRTTime(d time.Duration) string {
	hours, minutes, seconds, millis := clockParts(d)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

func formatVTTTime(d time.Duration) string {
	hours, minutes, seconds, millis := clockParts(d)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

// MM:SS with no hour field; minutes wrap every hour
func formatDisplayTime(d time.Duration) string {
	_, minutes, seconds, _ := clockParts(d)
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// FormatClock renders an elapsed time the way the TXT export does.
func FormatClock(d time.Duration) string {
	return formatDisplayTime(d)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}
