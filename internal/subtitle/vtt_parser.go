package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	vttTimestampRegex = regexp.MustCompile(
		`(\d{2,}):(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2,}):(\d{2}):(\d{2})\.(\d{3})`,
	)
	vttShortTimestampRegex = regexp.MustCompile(
		`(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2}):(\d{2})\.(\d{3})`,
	)
)

// ParseVTT reads WebVTT cues into segments. NOTE and STYLE blocks and cue
// identifiers are skipped.
func ParseVTT(r io.Reader) ([]Segment, error) {
	var segments []Segment
	scanner := bufio.NewScanner(r)

	var (
		current      *Segment
		textLines    []string
		lineNum      int
		headerParsed bool
	)

	flush := func() {
		if current != nil && len(textLines) > 0 {
			current.OriginalText = strings.Join(textLines, "\n")
			segments = append(segments, *current)
		}
		current = nil
		textLines = nil
	}

	skipBlock := func() {
		for scanner.Scan() {
			lineNum++
			if strings.TrimSpace(scanner.Text()) == "" {
				break
			}
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		trimmed := strings.TrimSpace(line)

		if !headerParsed && strings.HasPrefix(trimmed, "WEBVTT") {
			headerParsed = true
			continue
		}

		if current == nil &&
			(strings.HasPrefix(trimmed, "NOTE") || strings.HasPrefix(trimmed, "STYLE")) {
			skipBlock()
			continue
		}

		if trimmed == "" {
			if current != nil && len(textLines) > 0 {
				flush()
			}
			continue
		}

		var hours, minutes, seconds, millis [2]string
		if m := vttTimestampRegex.FindStringSubmatch(line); len(m) == 9 {
			hours = [2]string{m[1], m[5]}
			minutes = [2]string{m[2], m[6]}
			seconds = [2]string{m[3], m[7]}
			millis = [2]string{m[4], m[8]}
		} else if m := vttShortTimestampRegex.FindStringSubmatch(line); len(m) == 7 {
			hours = [2]string{"00", "00"}
			minutes = [2]string{m[1], m[4]}
			seconds = [2]string{m[2], m[5]}
			millis = [2]string{m[3], m[6]}
		} else {
			if current != nil {
				textLines = append(textLines, line)
			}
			continue
		}

		flush()

		start, err := parseTimestamp(hours[0], minutes[0], seconds[0], millis[0])
		if err != nil {
			return nil, fmt.Errorf(
				"invalid start timestamp at line %d: %w",
				lineNum,
				err,
			)
		}
		end, err := parseTimestamp(hours[1], minutes[1], seconds[1], millis[1])
		if err != nil {
			return nil, fmt.Errorf(
				"invalid end timestamp at line %d: %w",
				lineNum,
				err,
			)
		}

		current = &Segment{
			ID:        newCueID(),
			StartTime: start,
			EndTime:   end,
		}
	}

	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading VTT: %w", err)
	}

	return segments, nil
}
