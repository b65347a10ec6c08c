package translate

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestFactoryReturnsProviderTranslators(t *testing.T) {
	ctx := context.Background()
	for _, provider := range []Provider{ProviderGemini, ProviderOpenAI, ProviderAnthropic} {
		t.Run(string(provider), func(t *testing.T) {
			translator, err := Factory(ctx, provider, "fake-key", Options{})
			if err != nil {
				t.Fatalf("Factory(%s) returned error: %v", provider, err)
			}
			llm, ok := translator.(*LLMTranslator)
			if !ok {
				t.Fatalf("expected *LLMTranslator, got %T", translator)
			}
			if llm.Provider() != provider {
				t.Errorf("Provider() = %s, want %s", llm.Provider(), provider)
			}
			if _, ok := translator.(BatchTextTranslator); !ok {
				t.Error("LLM translators should implement BatchTextTranslator")
			}
		})
	}
}

func TestFactoryReturnsMock(t *testing.T) {
	translator, err := Factory(context.Background(), ProviderMock, "", Options{})
	if err != nil {
		t.Fatalf("Factory(mock) returned error: %v", err)
	}
	if _, ok := translator.(*Mock); !ok {
		t.Errorf("expected *Mock, got %T", translator)
	}
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	if _, err := Factory(context.Background(), ProviderOpenAI, "", Options{}); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	_, err := Factory(context.Background(), Provider("unknown"), "fake-key", Options{})
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

type scriptedCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (c *scriptedCompleter) complete(ctx context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	return c.reply, c.err
}

func TestLLMTranslatorTranslateTexts(t *testing.T) {
	backend := &scriptedCompleter{
		reply: "```json\n[{\"index\": 1, \"text\": \" adiós \"}, {\"index\": 0, \"text\": \"hola\"}]\n```",
	}
	translator := &LLMTranslator{provider: ProviderMock, backend: backend}

	out, err := translator.TranslateTexts(context.Background(), []string{"hello", "goodbye"}, "en-US", "es")
	if err != nil {
		t.Fatalf("TranslateTexts returned error: %v", err)
	}
	if len(out) != 2 || out[0] != "hola" || out[1] != "adiós" {
		t.Errorf("unexpected output %q", out)
	}
	if len(backend.prompts) != 1 || !strings.Contains(backend.prompts[0], "to Spanish") {
		t.Errorf("unexpected prompts %q", backend.prompts)
	}
}

func TestLLMTranslatorErrors(t *testing.T) {
	tests := []struct {
		name    string
		backend *scriptedCompleter
		texts   []string
	}{
		{
			name:    "request failure",
			backend: &scriptedCompleter{err: errors.New("rate limited")},
			texts:   []string{"hello"},
		},
		{
			name:    "count mismatch",
			backend: &scriptedCompleter{reply: `[{"index": 0, "text": "hola"}]`},
			texts:   []string{"hello", "goodbye"},
		},
		{
			name:    "index out of range",
			backend: &scriptedCompleter{reply: `[{"index": 5, "text": "hola"}]`},
			texts:   []string{"hello"},
		},
		{
			name:    "duplicate index",
			backend: &scriptedCompleter{reply: `[{"index": 0, "text": "a"}, {"index": 0, "text": "b"}]`},
			texts:   []string{"hello", "goodbye"},
		},
		{
			name:    "empty reply",
			backend: &scriptedCompleter{},
			texts:   []string{"hello"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			translator := &LLMTranslator{provider: ProviderMock, backend: tt.backend}
			if _, err := translator.TranslateTexts(context.Background(), tt.texts, "en", "es"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMockTranslations(t *testing.T) {
	tests := []struct {
		text, source, target string
		want                 string
	}{
		{"hello", "en-US", "es", "[ES: hello]"},
		{"hello", "en-GB", "gu", "[GU: hello]"},
		{"hola", "es-ES", "en", "[EN: hola]"},
		{"hallo", "de-DE", "en", "[Translated to en: hallo]"},
		{"hello", "en-US", "de", "[Translated to de: hello]"},
		{"   ", "en-US", "es", ""},
	}

	mock := &Mock{}
	for _, tt := range tests {
		got, err := mock.TranslateText(context.Background(), tt.text, tt.source, tt.target)
		if err != nil {
			t.Fatalf("TranslateText returned error: %v", err)
		}
		if got != tt.want {
			t.Errorf("Mock(%q, %s->%s) = %q, want %q", tt.text, tt.source, tt.target, got, tt.want)
		}
	}
}

// Integration test: only runs if OPENAI_API_KEY is set
func TestOpenAITranslatorIntegration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set; skipping integration test")
	}

	ctx := context.Background()
	translator, err := NewOpenAITranslator(ctx, apiKey, Options{})
	if err != nil {
		t.Fatalf("NewOpenAITranslator error: %v", err)
	}

	results, err := translator.TranslateTexts(ctx, []string{"Hello", "Goodbye"}, "en-US", "es")
	if err != nil {
		t.Fatalf("TranslateTexts error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if r == "" {
			t.Errorf("result index %d has empty text", i)
		}
	}
}
