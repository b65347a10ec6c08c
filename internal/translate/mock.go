package translate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// tagged outputs keyed by base source language, then target language
var mockTags = map[string]map[string]string{
	"en": {"es": "ES", "fr": "FR", "hi": "HI", "gu": "GU"},
	"es": {"en": "EN", "fr": "FR"},
}

// Mock is an offline translator that tags text instead of translating it,
// e.g. "[ES: hello]", or "[Translated to de: hello]" for unknown pairs.
type Mock struct {
	// Delay simulates network latency per call.
	Delay time.Duration
}

func (m *Mock) TranslateText(
	ctx context.Context,
	text, sourceLang, targetLang string,
) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	if tag, ok := mockTags[BaseLanguage(sourceLang)][targetLang]; ok {
		return fmt.Sprintf("[%s: %s]", tag, text), nil
	}
	return fmt.Sprintf("[Translated to %s: %s]", targetLang, text), nil
}
