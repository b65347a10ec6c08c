// Package segmenter turns a growing recognizer transcript into ordered,
// non-overlapping, time-bounded segments under a fixed window policy.
package segmenter

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mgpai22/livecap/internal/clock"
	"github.com/mgpai22/livecap/internal/logging"
	"github.com/mgpai22/livecap/internal/subtitle"
	"github.com/mgpai22/livecap/internal/transcript"
)

// DefaultWindow is how long an open span may run before it is closed at the
// next opportunity that has new text.
const DefaultWindow = 10 * time.Second

var (
	ErrSessionActive = errors.New("session already active")
	ErrNoSession     = errors.New("no session")
)

type State string

const (
	StateIdle    State = "idle"
	StateActive  State = "active"
	StateStopped State = "stopped"
)

type Options struct {
	Window time.Duration
	// Step is how far one Tick advances the session clock.
	Step   time.Duration
	Logger *logging.Logger
	// NewID generates segment identifiers; defaults to random UUIDs.
	NewID func() string
	// OnSegment is called for every finalized segment, after the engine
	// lock is released.
	OnSegment func(subtitle.Segment)
}

// Engine owns one recording session at a time. All methods are safe for
// concurrent use and never block on I/O.
type Engine struct {
	mu sync.Mutex

	window    time.Duration
	clock     *clock.TimeBase
	differ    transcript.Differ
	logger    *logging.Logger
	newID     func() string
	onSegment func(subtitle.Segment)

	state     State
	listening bool
	text      string
	openStart time.Duration
	segments  []subtitle.Segment

	epoch      uint64
	generation uint64
	applied    uint64
}

func New(opts Options) *Engine {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Engine{
		window:    opts.Window,
		clock:     clock.New(opts.Step),
		logger:    opts.Logger,
		newID:     opts.NewID,
		onSegment: opts.OnSegment,
		state:     StateIdle,
	}
}

// Start opens a fresh session, discarding whatever a stopped session held.
// The recognizer is assumed to be listening until Observe says otherwise.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateActive {
		return ErrSessionActive
	}
	e.beginLocked()
	return nil
}

// Restart closes the running session with a forced finalization and opens a
// new one. It returns every segment of the closed session so the caller can
// keep them; the new session starts empty.
func (e *Engine) Restart() []subtitle.Segment {
	e.mu.Lock()

	var (
		closed []subtitle.Segment
		last   subtitle.Segment
		ok     bool
	)
	if e.state == StateActive {
		last, ok = e.stopLocked()
	}
	if e.state != StateIdle {
		closed = e.segmentsLocked()
	}
	e.beginLocked()
	e.mu.Unlock()

	e.notify(last, ok)
	return closed
}

// Tick advances the session clock by one step and closes the open span if
// its window has elapsed and there is new text.
func (e *Engine) Tick() (subtitle.Segment, bool) {
	e.mu.Lock()
	if e.state != StateActive {
		e.mu.Unlock()
		return subtitle.Segment{}, false
	}
	e.clock.Tick()
	seg, ok := e.evaluateLocked()
	e.mu.Unlock()

	e.notify(seg, ok)
	return seg, ok
}

// Observe records the recognizer's current cumulative transcript and
// listening flag, then applies the same window check as Tick.
func (e *Engine) Observe(text string, listening bool) (subtitle.Segment, bool) {
	e.mu.Lock()
	if e.state != StateActive {
		e.mu.Unlock()
		return subtitle.Segment{}, false
	}
	if len(text) < len(e.text) {
		e.logger.Debugw("Transcript shrank; treating as no new text",
			"previous_length", len(e.text),
			"length", len(text),
		)
	}
	e.text = text
	e.listening = listening
	seg, ok := e.evaluateLocked()
	e.mu.Unlock()

	e.notify(seg, ok)
	return seg, ok
}

// Stop pauses the clock and captures any trailing text as a final segment
// ending at the current elapsed time. The session's segments stay readable
// until Reset or the next Start.
func (e *Engine) Stop() (subtitle.Segment, bool) {
	e.mu.Lock()
	if e.state != StateActive {
		e.mu.Unlock()
		return subtitle.Segment{}, false
	}
	seg, ok := e.stopLocked()
	e.mu.Unlock()

	e.notify(seg, ok)
	return seg, ok
}

// Reset discards the session entirely and returns to idle.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.clearLocked()
	e.state = StateIdle
}

func (e *Engine) Segments() []subtitle.Segment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.segmentsLocked()
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Window() time.Duration {
	return e.window
}

func (e *Engine) beginLocked() {
	e.clearLocked()
	e.state = StateActive
	e.listening = true
	e.clock.Start()
}

func (e *Engine) clearLocked() {
	e.clock.Reset()
	e.differ.Reset()
	e.text = ""
	e.listening = false
	e.openStart = 0
	e.segments = nil
	e.epoch++
}

func (e *Engine) stopLocked() (subtitle.Segment, bool) {
	e.clock.Stop()
	seg, ok := e.finalizeLocked(e.clock.Current())
	e.state = StateStopped
	e.listening = false
	return seg, ok
}

func (e *Engine) evaluateLocked() (subtitle.Segment, bool) {
	if !e.listening {
		return subtitle.Segment{}, false
	}
	now := e.clock.Current()
	if now < e.openStart+e.window {
		return subtitle.Segment{}, false
	}
	return e.finalizeLocked(now)
}

// finalizeLocked closes the open span at end if there is unconsumed text.
// With nothing new it is a no-op, which keeps repeated calls idempotent and
// leaves an empty window open until text arrives.
func (e *Engine) finalizeLocked(end time.Duration) (subtitle.Segment, bool) {
	pending := e.differ.Pending(e.text)
	if pending == "" {
		return subtitle.Segment{}, false
	}
	if end < e.openStart {
		end = e.openStart
	}

	seg := subtitle.Segment{
		ID:           e.newID(),
		StartTime:    e.openStart,
		EndTime:      end,
		OriginalText: pending,
	}
	e.segments = append(e.segments, seg)
	e.differ.Consume(e.text)
	e.openStart = end

	e.logger.Debugw("Segment finalized",
		"index", len(e.segments)-1,
		"start", seg.StartTime.String(),
		"end", seg.EndTime.String(),
		"chars", len(seg.OriginalText),
	)
	return seg, true
}

func (e *Engine) segmentsLocked() []subtitle.Segment {
	out := make([]subtitle.Segment, len(e.segments))
	copy(out, e.segments)
	return out
}

func (e *Engine) notify(seg subtitle.Segment, ok bool) {
	if ok && e.onSegment != nil {
		e.onSegment(seg)
	}
}
