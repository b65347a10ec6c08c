package translate

import (
	"context"
	"fmt"
	"strings"
)

// sends one prompt to a model and returns its text reply
type completer interface {
	complete(ctx context.Context, prompt string) (string, error)
}

// LLMTranslator implements BatchTextTranslator on top of a chat model.
// Every provider shares the prompt and the response parsing; only the
// request differs.
type LLMTranslator struct {
	provider Provider
	backend  completer
	options  Options
}

func (t *LLMTranslator) Provider() Provider {
	return t.provider
}

func (t *LLMTranslator) BatchSize() int {
	if t.options.BatchSize > 0 {
		return t.options.BatchSize
	}
	return DefaultBatchSize
}

func (t *LLMTranslator) TranslateText(
	ctx context.Context,
	text, sourceLang, targetLang string,
) (string, error) {
	out, err := t.TranslateTexts(ctx, []string{text}, sourceLang, targetLang)
	if err != nil {
		return "", err
	}
	return out[0], nil
}

// TranslateTexts sends all texts in a single request. Callers split large
// inputs into BatchSize chunks.
func (t *LLMTranslator) TranslateTexts(
	ctx context.Context,
	texts []string,
	sourceLang, targetLang string,
) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}
	if strings.TrimSpace(targetLang) == "" {
		return nil, fmt.Errorf("target language is required")
	}

	items := make([]TranslationItem, len(texts))
	for i, text := range texts {
		items[i] = TranslationItem{Index: i, Text: text}
	}

	prompt := BuildPrompt(sourceLang, targetLang, t.options.Prompt, items)
	reply, err := t.backend.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}

	results, err := t.parseReply(reply, len(items))
	if err != nil {
		return nil, err
	}

	out := make([]string, len(texts))
	seen := make([]bool, len(texts))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(out) {
			return nil, fmt.Errorf("result index %d out of range", r.Index)
		}
		out[r.Index] = strings.TrimSpace(r.Text)
		seen[r.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("missing translation for index %d", i)
		}
	}
	return out, nil
}

func (t *LLMTranslator) parseReply(
	reply string,
	expectedCount int,
) ([]TranslationResult, error) {
	if reply == "" {
		return nil, fmt.Errorf("no text in %s response", t.provider)
	}

	reply = cleanJSONResponse(reply)

	results, err := extractTranslationResults(reply)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to parse JSON response: %w (response: %s)",
			err,
			truncateString(reply, 200),
		)
	}

	if len(results) != expectedCount {
		return nil, fmt.Errorf(
			"expected %d results, got %d",
			expectedCount,
			len(results),
		)
	}

	return results, nil
}

func (t *LLMTranslator) Close() error {
	return nil
}
