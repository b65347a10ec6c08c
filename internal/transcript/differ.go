// Package transcript computes the not-yet-segmented tail of a cumulative
// recognizer transcript.
package transcript

import (
	"strings"
	"unicode/utf8"
)

// Unconsumed returns text after the first consumed bytes, trimmed. A
// transcript that shrank below consumed yields "" rather than a bad slice.
func Unconsumed(text string, consumed int) string {
	if consumed < 0 || consumed > len(text) {
		return ""
	}
	// a boundary inside a multi-byte rune moves to the next rune start
	for consumed < len(text) && !utf8.RuneStart(text[consumed]) {
		consumed++
	}
	return strings.TrimSpace(text[consumed:])
}

// Differ tracks how much of a cumulative transcript has been consumed.
type Differ struct {
	consumed int
}

// Pending is the trimmed text not yet consumed.
func (d *Differ) Pending(text string) string {
	return Unconsumed(text, d.consumed)
}

// Consume marks all of text as consumed. The boundary never moves backwards.
func (d *Differ) Consume(text string) {
	if len(text) > d.consumed {
		d.consumed = len(text)
	}
}

func (d *Differ) Consumed() int {
	return d.consumed
}

func (d *Differ) Reset() {
	d.consumed = 0
}
