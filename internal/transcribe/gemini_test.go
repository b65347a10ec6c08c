package transcribe

import (
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/mgpai22/livecap/internal/recognizer"
)

func TestExtractTranscriptSegments(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCount int
		wantFirst string
		wantErr   bool
	}{
		{
			name:      "bare array",
			input:     `[{"start": 0, "end": 2.5, "text": "good morning"}, {"start": 3, "end": 5, "text": "shall we begin"}]`,
			wantCount: 2,
			wantFirst: "good morning",
		},
		{
			name:      "preamble and trailing chatter",
			input:     "Here is the transcript:\n[{\"start\": 0, \"end\": 2.5, \"text\": \"good morning\"}]\nLet me know if you need more.",
			wantCount: 1,
			wantFirst: "good morning",
		},
		{
			name:      "bracketed speaker label before the array",
			input:     `Speaker [1] said: [{"start": 1, "end": 4, "text": "welcome back"}]`,
			wantCount: 1,
			wantFirst: "welcome back",
		},
		{
			name:      "wrapped in transcript key",
			input:     `{"language": "en", "transcript": [{"start": 0, "end": 1, "text": "hi"}]}`,
			wantCount: 1,
			wantFirst: "hi",
		},
		{
			name:      "nested wrapper",
			input:     `{"data": {"results": [{"start": 12, "end": 15.2, "text": "next item"}]}}`,
			wantCount: 1,
			wantFirst: "next item",
		},
		{
			name:      "timestamps without text still count",
			input:     `[{"start": 1, "end": 2}]`,
			wantCount: 1,
		},
		{name: "empty array", input: `[]`, wantErr: true},
		{name: "empty wrapper", input: `{"segments": []}`, wantErr: true},
		{name: "prose only", input: "I could not hear any speech in this recording.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractTranscriptSegments(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.wantCount {
				t.Fatalf("expected %d segments, got %d", tt.wantCount, len(got))
			}
			if got[0].Text != tt.wantFirst {
				t.Errorf("first text = %q, want %q", got[0].Text, tt.wantFirst)
			}
		})
	}
}

func TestCleanJSONResponse(t *testing.T) {
	tests := map[string]string{
		"```json\n[]\n```": "[]",
		"```\n{}\n```":     "{}",
		"  [1]  ":          "[1]",
	}
	for in, want := range tests {
		if got := cleanJSONResponse(in); got != want {
			t.Errorf("cleanJSONResponse(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseTranscriptionResponse(t *testing.T) {
	reply := "```json\n" + `{"segments": [
		{"start": 4.0, "end": 6.5, "text": "second"},
		{"start": 0.0, "end": 3.0, "text": " first "},
		{"start": 3.0, "end": 4.0, "text": ""},
		{"start": 7.0, "end": 6.0, "text": "backwards"}
	]}` + "\n```"
	result := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(reply, genai.RoleModel),
		}},
	}

	segments, err := parseTranscriptionResponse(result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	if segments[0].OriginalText != "first" || segments[0].EndTime != 3*time.Second {
		t.Errorf("unexpected first segment %+v", segments[0])
	}
	if segments[2].StartTime != 7*time.Second || segments[2].EndTime != 7*time.Second {
		t.Errorf("end before start was not clamped: %+v", segments[2])
	}

	// clamped segments replay the moment they start
	script := recognizer.FromSegments(segments)
	if got := script.TranscriptAt(6500 * time.Millisecond); got != "first second" {
		t.Errorf("TranscriptAt(6.5s) = %q", got)
	}
	if got := script.TranscriptAt(7 * time.Second); got != "first second backwards" {
		t.Errorf("TranscriptAt(7s) = %q", got)
	}
}

func TestParseTranscriptionResponseJoinsParts(t *testing.T) {
	result := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{
				{Text: `[{"start": 0, "end": 2, `},
				{Text: `"text": "split reply"}]`},
			}}},
			{},
		},
	}

	segments, err := parseTranscriptionResponse(result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 1 || segments[0].OriginalText != "split reply" {
		t.Errorf("unexpected segments %+v", segments)
	}
}

func TestParseTranscriptionResponseEmpty(t *testing.T) {
	tests := map[string]*genai.GenerateContentResponse{
		"nil":           nil,
		"no candidates": {},
		"no text":       {Candidates: []*genai.Candidate{{}}},
	}
	for name, result := range tests {
		if _, err := parseTranscriptionResponse(result); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
