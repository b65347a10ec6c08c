package transcript

import "testing"

func TestUnconsumed(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		consumed int
		want     string
	}{
		{"nothing consumed", "  hello world ", 0, "hello world"},
		{"suffix after boundary", "hello world this is a test", 11, "this is a test"},
		{"fully consumed", "hello world", 11, ""},
		{"only whitespace left", "hello world   ", 11, ""},
		{"transcript shrank", "hello", 11, ""},
		{"negative boundary", "hello", -1, ""},
		{"empty transcript", "", 0, ""},
		{"boundary inside rune", "héllo", 2, "llo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unconsumed(tt.text, tt.consumed); got != tt.want {
				t.Errorf("Unconsumed(%q, %d) = %q, want %q", tt.text, tt.consumed, got, tt.want)
			}
		})
	}
}

func TestDifferTracksBoundary(t *testing.T) {
	var d Differ

	if got := d.Pending("hello world"); got != "hello world" {
		t.Errorf("Pending = %q, want %q", got, "hello world")
	}

	d.Consume("hello world")
	if d.Consumed() != 11 {
		t.Errorf("Consumed() = %d, want 11", d.Consumed())
	}
	if got := d.Pending("hello world this is a test"); got != "this is a test" {
		t.Errorf("Pending = %q, want %q", got, "this is a test")
	}

	d.Consume("hello")
	if d.Consumed() != 11 {
		t.Errorf("boundary moved backwards to %d", d.Consumed())
	}
	if got := d.Pending("hello"); got != "" {
		t.Errorf("shrunken transcript produced %q", got)
	}

	d.Reset()
	if d.Consumed() != 0 {
		t.Errorf("Reset left boundary at %d", d.Consumed())
	}
}
