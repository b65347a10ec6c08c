package segmenter

import (
	"time"

	"github.com/mgpai22/livecap/internal/subtitle"
)

// Snapshot is a read-only copy of the engine's session state.
type Snapshot struct {
	State          State
	Listening      bool
	ConsumedLength int
	OpenSpanStart  time.Duration
	Elapsed        time.Duration
	// Pending is transcript text not yet turned into a segment.
	Pending  string
	Segments []subtitle.Segment
	Epoch    uint64
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Snapshot{
		State:          e.state,
		Listening:      e.listening,
		ConsumedLength: e.differ.Consumed(),
		OpenSpanStart:  e.openStart,
		Elapsed:        e.clock.Current(),
		Pending:        e.differ.Pending(e.text),
		Segments:       e.segmentsLocked(),
		Epoch:          e.epoch,
	}
}

// Batch is the segment list as it stood when a translation run began.
type Batch struct {
	Generation uint64
	Epoch      uint64
	Segments   []subtitle.Segment
}

// BeginTranslation snapshots the segments for a translation run and tags the
// snapshot with a new generation.
func (e *Engine) BeginTranslation() Batch {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.generation++
	return Batch{
		Generation: e.generation,
		Epoch:      e.epoch,
		Segments:   e.segmentsLocked(),
	}
}

// ApplyTranslation merges translated text, keyed by segment ID, into the
// live segment list. Results from a previous session, or from a run older
// than one already applied, are discarded and false is returned. Segments
// finalized after the batch began are left alone.
func (e *Engine) ApplyTranslation(batch Batch, translations map[string]string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if batch.Epoch != e.epoch || batch.Generation < e.applied {
		e.logger.Debugw("Discarding stale translation batch",
			"generation", batch.Generation,
			"applied", e.applied,
			"epoch", batch.Epoch,
			"current_epoch", e.epoch,
		)
		return false
	}
	e.applied = batch.Generation

	for i := range e.segments {
		if text, ok := translations[e.segments[i].ID]; ok && text != "" {
			e.segments[i].TranslatedText = text
		}
	}
	return true
}
