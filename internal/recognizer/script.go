// Package recognizer feeds transcript text into a segmentation engine from
// sources other than a live microphone.
package recognizer

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/mgpai22/livecap/internal/subtitle"
)

// Observer accepts cumulative transcript updates.
type Observer interface {
	Observe(text string, listening bool) (subtitle.Segment, bool)
}

// Driver is the part of the engine a replay needs.
type Driver interface {
	Observer
	Start() error
	Tick() (subtitle.Segment, bool)
	Stop() (subtitle.Segment, bool)
}

// Utterance is text the recognizer reports at a point in session time.
type Utterance struct {
	At   time.Duration
	Text string
}

// Script is a time-ordered list of utterances.
type Script []Utterance

// FromSegments builds a script from transcribed segments. Each segment's text
// is reported when its speech ends, which is when a live recognizer would
// have settled on it.
func FromSegments(segments []subtitle.Segment) Script {
	script := make(Script, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.OriginalText)
		if text == "" {
			continue
		}
		script = append(script, Utterance{At: seg.EndTime, Text: text})
	}
	sort.SliceStable(script, func(i, j int) bool {
		return script[i].At < script[j].At
	})
	return script
}

func (s Script) Duration() time.Duration {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].At
}

// TranscriptAt returns the cumulative transcript as it stands at t.
func (s Script) TranscriptAt(t time.Duration) string {
	var parts []string
	for _, u := range s {
		if u.At > t {
			break
		}
		parts = append(parts, u.Text)
	}
	return strings.Join(parts, " ")
}

// Replay runs a whole session on a simulated clock. The driver's tick step
// must equal step. Segments are returned in the order they were finalized,
// including the one forced out by the final stop.
func Replay(
	ctx context.Context,
	d Driver,
	script Script,
	step time.Duration,
) ([]subtitle.Segment, error) {
	if step <= 0 {
		step = time.Second
	}
	if err := d.Start(); err != nil {
		return nil, err
	}

	var (
		segments []subtitle.Segment
		elapsed  time.Duration
		last     string
	)
	collect := func(seg subtitle.Segment, ok bool) {
		if ok {
			segments = append(segments, seg)
		}
	}
	observe := func() {
		text := script.TranscriptAt(elapsed)
		if text != last {
			last = text
			collect(d.Observe(text, true))
		}
	}

	observe()
	end := script.Duration()
	for elapsed < end {
		if err := ctx.Err(); err != nil {
			collect(d.Stop())
			return segments, err
		}
		collect(d.Tick())
		elapsed += step
		observe()
	}

	collect(d.Stop())
	return segments, nil
}
