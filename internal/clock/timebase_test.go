package clock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTimeBaseLifecycle(t *testing.T) {
	tb := New(time.Second)

	tb.Tick()
	if tb.Current() != 0 {
		t.Errorf("inactive TimeBase advanced to %v", tb.Current())
	}

	tb.Start()
	tb.Tick()
	tb.Tick()
	if tb.Current() != 2*time.Second {
		t.Errorf("expected 2s after two ticks, got %v", tb.Current())
	}

	tb.Advance(-5 * time.Second)
	if tb.Current() != 2*time.Second {
		t.Errorf("negative advance moved the clock to %v", tb.Current())
	}

	tb.Stop()
	tb.Tick()
	if tb.Current() != 2*time.Second {
		t.Errorf("stopped TimeBase advanced to %v", tb.Current())
	}
	if tb.Active() {
		t.Error("expected TimeBase to be inactive after Stop")
	}

	tb.Start()
	if tb.Current() != 0 {
		t.Errorf("Start did not zero the clock, got %v", tb.Current())
	}

	tb.Tick()
	tb.Reset()
	if tb.Current() != 0 || tb.Active() {
		t.Errorf("Reset left clock at %v active=%v", tb.Current(), tb.Active())
	}
}

func TestNewDefaultsStep(t *testing.T) {
	if got := New(0).Step(); got != DefaultStep {
		t.Errorf("New(0).Step() = %v, want %v", got, DefaultStep)
	}
}

func TestTickerStopWaitsForLoop(t *testing.T) {
	var calls atomic.Int32
	ticker := NewTicker(time.Millisecond)
	ticker.Start(context.Background(), func() { calls.Add(1) })

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	ticker.Stop()

	seen := calls.Load()
	if seen < 3 {
		t.Fatalf("expected at least 3 ticks, got %d", seen)
	}
	time.Sleep(10 * time.Millisecond)
	if calls.Load() != seen {
		t.Errorf("ticks continued after Stop: %d -> %d", seen, calls.Load())
	}

	ticker.Stop()
}
