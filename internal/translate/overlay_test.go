package translate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mgpai22/livecap/internal/segmenter"
	"github.com/mgpai22/livecap/internal/subtitle"
)

type fakeTranslator struct {
	fail     map[string]bool
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func (f *fakeTranslator) TranslateText(ctx context.Context, text, src, tgt string) (string, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail[text] {
		return "", errors.New("provider unavailable")
	}
	return tgt + ":" + text, nil
}

type fakeBatchTranslator struct {
	fakeTranslator
	mu        sync.Mutex
	batches   [][]string
	failBatch bool
	short     bool
}

func (f *fakeBatchTranslator) TranslateTexts(ctx context.Context, texts []string, src, tgt string) ([]string, error) {
	f.mu.Lock()
	f.batches = append(f.batches, texts)
	f.mu.Unlock()
	if f.failBatch {
		return nil, errors.New("malformed reply")
	}
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = tgt + ":" + text
	}
	if f.short {
		return out[:1], nil
	}
	return out, nil
}

func threeSegments() []subtitle.Segment {
	return []subtitle.Segment{
		{ID: "a", StartTime: 0, EndTime: 10 * time.Second, OriginalText: "one"},
		{ID: "b", StartTime: 10 * time.Second, EndTime: 20 * time.Second, OriginalText: "two", TranslatedText: "previous"},
		{ID: "c", StartTime: 20 * time.Second, EndTime: 25 * time.Second, OriginalText: "three"},
	}
}

func TestTranslateAllIsolatesFailures(t *testing.T) {
	translator := &fakeTranslator{fail: map[string]bool{"two": true}}
	overlay := NewOverlay(translator, OverlayOptions{})

	res := overlay.TranslateAll(context.Background(), threeSegments(), "en-US", "es")

	if len(res.Failures) != 1 || res.Failures[0].SegmentID != "b" || res.Failures[0].Index != 1 {
		t.Fatalf("unexpected failures %+v", res.Failures)
	}
	want := []string{"es:one", "previous", "es:three"}
	for i, seg := range res.Segments {
		if seg.TranslatedText != want[i] {
			t.Errorf("segment %d translation = %q, want %q", i, seg.TranslatedText, want[i])
		}
	}
	if len(res.Translations) != 2 || res.Translations["a"] != "es:one" || res.Translations["c"] != "es:three" {
		t.Errorf("unexpected translations %v", res.Translations)
	}
}

func TestTranslateAllSkipsBlankSegments(t *testing.T) {
	translator := &fakeTranslator{}
	overlay := NewOverlay(translator, OverlayOptions{})
	segments := []subtitle.Segment{
		{ID: "blank", OriginalText: "  "},
		{ID: "text", OriginalText: "words"},
	}

	res := overlay.TranslateAll(context.Background(), segments, "en", "fr")

	if translator.calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", translator.calls.Load())
	}
	if res.Segments[0].TranslatedText != "" || res.Segments[1].TranslatedText != "fr:words" {
		t.Errorf("unexpected segments %+v", res.Segments)
	}
	if len(res.Failures) != 0 {
		t.Errorf("unexpected failures %+v", res.Failures)
	}
}

func TestTranslateAllDoesNotMutateInput(t *testing.T) {
	segments := threeSegments()
	NewOverlay(&fakeTranslator{}, OverlayOptions{}).TranslateAll(context.Background(), segments, "en", "es")
	if segments[0].TranslatedText != "" {
		t.Errorf("input segment was modified: %+v", segments[0])
	}
}

func TestTranslateAllBoundsConcurrency(t *testing.T) {
	translator := &fakeTranslator{delay: 5 * time.Millisecond}
	overlay := NewOverlay(translator, OverlayOptions{Concurrency: 2})

	var segments []subtitle.Segment
	for i := range 10 {
		segments = append(segments, subtitle.Segment{ID: fmt.Sprint(i), OriginalText: fmt.Sprintf("text %d", i)})
	}
	res := overlay.TranslateAll(context.Background(), segments, "en", "es")

	if len(res.Translations) != 10 {
		t.Errorf("expected 10 translations, got %d", len(res.Translations))
	}
	if peak := translator.maxSeen.Load(); peak > 2 {
		t.Errorf("saw %d concurrent calls, limit is 2", peak)
	}
}

func TestTranslateAllUsesBatches(t *testing.T) {
	translator := &fakeBatchTranslator{}
	overlay := NewOverlay(translator, OverlayOptions{BatchSize: 2})

	res := overlay.TranslateAll(context.Background(), threeSegments(), "en", "de")

	if len(translator.batches) != 2 {
		t.Errorf("expected 2 batches, got %d", len(translator.batches))
	}
	if translator.calls.Load() != 0 {
		t.Errorf("expected no per-segment calls, got %d", translator.calls.Load())
	}
	if res.Segments[2].TranslatedText != "de:three" {
		t.Errorf("unexpected translation %q", res.Segments[2].TranslatedText)
	}
}

func TestTranslateAllFallsBackWhenBatchFails(t *testing.T) {
	translator := &fakeBatchTranslator{failBatch: true}
	translator.fail = map[string]bool{"three": true}
	overlay := NewOverlay(translator, OverlayOptions{BatchSize: 10})

	res := overlay.TranslateAll(context.Background(), threeSegments(), "en", "es")

	if translator.calls.Load() != 3 {
		t.Errorf("expected 3 per-segment calls after batch failure, got %d", translator.calls.Load())
	}
	if len(res.Translations) != 2 {
		t.Errorf("expected 2 translations, got %v", res.Translations)
	}
	if len(res.Failures) != 1 || res.Failures[0].SegmentID != "c" {
		t.Errorf("unexpected failures %+v", res.Failures)
	}
}

func TestTranslateAllFallsBackOnShortBatchReply(t *testing.T) {
	translator := &fakeBatchTranslator{short: true}
	overlay := NewOverlay(translator, OverlayOptions{BatchSize: 10})

	res := overlay.TranslateAll(context.Background(), threeSegments(), "en", "es")

	if translator.calls.Load() != 3 {
		t.Errorf("expected 3 per-segment calls after short reply, got %d", translator.calls.Load())
	}
	if len(res.Failures) != 0 {
		t.Fatalf("unexpected failures %+v", res.Failures)
	}
	for i, want := range []string{"es:one", "es:two", "es:three"} {
		if got := res.Segments[i].TranslatedText; got != want {
			t.Errorf("segment %d = %q, want %q", i, got, want)
		}
	}
}

func TestOverlayRunMergesIntoEngine(t *testing.T) {
	engine := segmenter.New(segmenter.Options{Window: 2 * time.Second})
	_ = engine.Start()
	engine.Observe("hello", true)
	engine.Tick()
	engine.Tick()
	engine.Observe("hello world", true)
	engine.Stop()

	overlay := NewOverlay(&Mock{}, OverlayOptions{})
	res, applied := overlay.Run(context.Background(), engine, "en-US", "es")
	if !applied {
		t.Fatal("translation was not applied")
	}
	if len(res.Failures) != 0 {
		t.Errorf("unexpected failures %+v", res.Failures)
	}

	segments := engine.Segments()
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].TranslatedText != "[ES: hello]" || segments[1].TranslatedText != "[ES: world]" {
		t.Errorf("unexpected translations %q, %q", segments[0].TranslatedText, segments[1].TranslatedText)
	}

	out, err := subtitle.Render(segments, subtitle.FormatSRT, true)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	want := "1\n00:00:00,000 --> 00:00:02,000\n[ES: hello]\n\n2\n00:00:02,000 --> 00:00:02,000\n[ES: world]\n"
	if out != want {
		t.Errorf("translated SRT =\n%q\nwant\n%q", out, want)
	}
}

func TestOverlayRunDiscardsAfterReset(t *testing.T) {
	engine := segmenter.New(segmenter.Options{})
	_ = engine.Start()
	engine.Observe("hello", true)
	engine.Stop()

	translator := &resettingTranslator{engine: engine}
	_, applied := NewOverlay(translator, OverlayOptions{}).Run(context.Background(), engine, "en", "es")
	if applied {
		t.Error("translation applied to a reset session")
	}
	if len(engine.Segments()) != 0 {
		t.Error("reset session still has segments")
	}
}

// resets the engine while a translation is in flight
type resettingTranslator struct {
	engine *segmenter.Engine
	once   sync.Once
}

func (r *resettingTranslator) TranslateText(ctx context.Context, text, src, tgt string) (string, error) {
	r.once.Do(r.engine.Reset)
	return "late", nil
}
