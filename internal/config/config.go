// Package config loads livecap settings from defaults, an optional YAML
// file, a .env file, LIVECAP_* environment variables and command flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "LIVECAP"

type TranslationConfig struct {
	Provider    string `mapstructure:"provider"`
	Model       string `mapstructure:"model"`
	Prompt      string `mapstructure:"prompt"`
	Concurrency int    `mapstructure:"concurrency"`
	BatchSize   int    `mapstructure:"batch_size"`
}

type TranscriptionConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
}

type APIKeys struct {
	Gemini    string `mapstructure:"gemini"`
	OpenAI    string `mapstructure:"openai"`
	Anthropic string `mapstructure:"anthropic"`
}

type Config struct {
	Window         time.Duration       `mapstructure:"window"`
	Tick           time.Duration       `mapstructure:"tick"`
	Addr           string              `mapstructure:"addr"`
	SourceLanguage string              `mapstructure:"source_language"`
	TargetLanguage string              `mapstructure:"target_language"`
	OutputDir      string              `mapstructure:"output_dir"`
	Translation    TranslationConfig   `mapstructure:"translation"`
	Transcription  TranscriptionConfig `mapstructure:"transcription"`
	Keys           APIKeys             `mapstructure:"keys"`
}

var defaults = map[string]any{
	"window":                  "10s",
	"tick":                    "1s",
	"addr":                    ":8080",
	"source_language":         "en-US",
	"target_language":         "es",
	"output_dir":              ".",
	"translation.provider":    "mock",
	"translation.model":       "",
	"translation.prompt":      "",
	"translation.concurrency": 3,
	"translation.batch_size":  50,
	"transcription.provider":  "gemini",
	"transcription.model":     "",
}

// provider keys fall back to the variables the SDKs document
var keyEnv = map[string][]string{
	"keys.gemini":    {"LIVECAP_KEYS_GEMINI", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"keys.openai":    {"LIVECAP_KEYS_OPENAI", "OPENAI_API_KEY"},
	"keys.anthropic": {"LIVECAP_KEYS_ANTHROPIC", "ANTHROPIC_API_KEY"},
}

// FlagKeys maps config keys to the command flags that override them.
var FlagKeys = map[string]string{
	"window":                  "window",
	"tick":                    "tick",
	"addr":                    "addr",
	"source_language":         "source",
	"target_language":         "target",
	"output_dir":              "output-dir",
	"translation.provider":    "provider",
	"translation.model":       "model",
	"translation.prompt":      "prompt",
	"translation.concurrency": "concurrency",
	"translation.batch_size":  "batch-size",
	"transcription.provider":  "transcriber",
	"transcription.model":     "transcribe-model",
}

type LoadOptions struct {
	// ConfigFile is an explicit YAML path; when empty livecap.yaml is looked
	// up in the working directory and $HOME/.config/livecap.
	ConfigFile string
	// EnvFile is an explicit .env path; when empty ./.env is used if present.
	EnvFile string
	Flags   *pflag.FlagSet
}

func Load(opts LoadOptions) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range keyEnv {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := readConfigFile(v, opts.ConfigFile); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		for key, name := range FlagKeys {
			flag := opts.Flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("livecap")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "livecap"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

var (
	translationProviders   = []string{"gemini", "openai", "anthropic", "mock"}
	transcriptionProviders = []string{"gemini", "openai"}
)

func (c *Config) Validate() error {
	var errs []error

	if c.Window <= 0 {
		errs = append(errs, fmt.Errorf("window must be positive, got %v", c.Window))
	}
	if c.Tick <= 0 {
		errs = append(errs, fmt.Errorf("tick must be positive, got %v", c.Tick))
	}
	if c.Translation.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("translation concurrency must be positive, got %d", c.Translation.Concurrency))
	}
	if c.Translation.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("translation batch size must be positive, got %d", c.Translation.BatchSize))
	}
	if !oneOf(c.Translation.Provider, translationProviders) {
		errs = append(errs, fmt.Errorf("unsupported translation provider %q", c.Translation.Provider))
	}
	if !oneOf(c.Transcription.Provider, transcriptionProviders) {
		errs = append(errs, fmt.Errorf("unsupported transcription provider %q", c.Transcription.Provider))
	}
	if c.SourceLanguage != "" && c.TargetLanguage != "" &&
		baseLanguage(c.SourceLanguage) == baseLanguage(c.TargetLanguage) {
		errs = append(errs, fmt.Errorf(
			"source language %q and target language %q are the same",
			c.SourceLanguage,
			c.TargetLanguage,
		))
	}

	return errors.Join(errs...)
}

// APIKey returns the configured key for a provider, or "".
func (c *Config) APIKey(provider string) string {
	switch provider {
	case "gemini":
		return c.Keys.Gemini
	case "openai":
		return c.Keys.OpenAI
	case "anthropic":
		return c.Keys.Anthropic
	default:
		return ""
	}
}

func oneOf(s string, options []string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}

func baseLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}
