package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// single text item to translate
type TranslationItem struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// translated text item
type TranslationResult struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// translates one piece of text between two languages
type TextTranslator interface {
	TranslateText(
		ctx context.Context,
		text, sourceLang, targetLang string,
	) (string, error)
}

// optional interface for translators that can handle many texts in one request
type BatchTextTranslator interface {
	TextTranslator
	TranslateTexts(
		ctx context.Context,
		texts []string,
		sourceLang, targetLang string,
	) ([]string, error)
}

// translation service provider
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderMock      Provider = "mock"
)

const DefaultBatchSize = 50

type Options struct {
	Model     string
	Prompt    string // extra instructions appended to the prompt
	BatchSize int    // items per API request (default 50)
}

// creates a TextTranslator based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (TextTranslator, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiTranslator(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranslator(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicTranslator(ctx, apiKey, opts)
	case ProviderMock:
		return &Mock{}, nil
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
}

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"hi": "Hindi",
	"gu": "Gujarati",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
	"pt": "Portuguese",
	"it": "Italian",
}

// BaseLanguage strips the region from a language tag ("en-US" -> "en").
func BaseLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}

// LanguageName returns a readable name for a language tag, or the tag itself.
func LanguageName(tag string) string {
	if name, ok := languageNames[BaseLanguage(tag)]; ok {
		return name
	}
	return strings.TrimSpace(tag)
}

// BuildPrompt creates the translation prompt for LLM providers
func BuildPrompt(
	sourceLang, targetLang, extra string,
	items []TranslationItem,
) string {
	var sb strings.Builder

	if sourceLang != "" {
		sb.WriteString(fmt.Sprintf(
			"Translate the following %s transcript segments to %s.\n\n",
			LanguageName(sourceLang),
			LanguageName(targetLang),
		))
	} else {
		sb.WriteString(fmt.Sprintf(
			"Translate the following transcript segments to %s.\n\n",
			LanguageName(targetLang),
		))
	}

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString(
		"1. Translate ONLY the text content, preserving the meaning.\n",
	)
	sb.WriteString(
		"2. The segments are consecutive pieces of live speech; keep each translation in its own segment.\n",
	)
	sb.WriteString("3. Return ONLY a JSON array with the same structure.\n")
	sb.WriteString("4. Each object must have 'index' and 'text' fields.\n")
	sb.WriteString(
		"5. The 'index' values must match the input indices exactly.\n",
	)
	sb.WriteString("6. Do not add any explanation or markdown formatting.\n\n")

	if extra != "" {
		sb.WriteString(
			fmt.Sprintf("Additional instructions: %s\n\n", extra),
		)
	}

	sb.WriteString("Input JSON:\n")

	inputJSON, _ := json.MarshalIndent(items, "", "  ")
	sb.Write(inputJSON)

	sb.WriteString("\n\nOutput the translated JSON array only:")

	return sb.String()
}
