package recognizer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// ReadLines treats every non-blank line of r as newly recognized speech and
// reports the growing transcript to o. It returns when r is exhausted or ctx
// is cancelled between lines.
func ReadLines(ctx context.Context, r io.Reader, o Observer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var transcript strings.Builder
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if transcript.Len() > 0 {
			transcript.WriteByte(' ')
		}
		transcript.WriteString(line)
		o.Observe(transcript.String(), true)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read transcript lines: %w", err)
	}
	return nil
}
