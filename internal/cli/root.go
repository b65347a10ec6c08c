package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/livecap/internal/config"
	"github.com/mgpai22/livecap/internal/logging"
	"github.com/mgpai22/livecap/internal/subtitle"
	"github.com/mgpai22/livecap/internal/translate"
)

var (
	verbose    bool
	configFile string
	envFile    string
	logger     = logging.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "livecap",
	Short: "Live transcript segmentation and subtitle export",
	Long: `livecap turns a growing speech-recognition transcript into timed
segments and exports them as plain text, SRT or WebVTT.

Transcripts can arrive live over HTTP/WebSocket (serve), line by line on
stdin (stream), or from a recorded file replayed on a simulated clock
(replay). Segments can be translated with Gemini, OpenAI or Anthropic.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "Config file (default ./livecap.yaml or ~/.config/livecap/livecap.yaml)")
	rootCmd.PersistentFlags().
		StringVar(&envFile, "env-file", "", "Load environment variables from this file (default ./.env)")
}

// loadConfig merges defaults, config file, environment and the command's
// flags, then validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: configFile,
		EnvFile:    envFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().
		Duration("window", 10*time.Second, "Maximum length of an open segment before it is closed")
	cmd.Flags().
		Duration("tick", time.Second, "Session clock resolution")
	cmd.Flags().
		String("source", "en-US", "Language of the transcript (e.g., en-US, es)")
	cmd.Flags().
		String("target", "es", "Language to translate segments into")
}

func addTranslationFlags(cmd *cobra.Command) {
	cmd.Flags().
		String("provider", "mock", "Translation provider (gemini, openai, anthropic, mock)")
	cmd.Flags().
		String("model", "", "Model to use for translation (provider-specific, uses sensible defaults)")
	cmd.Flags().
		String("prompt", "", "Extra instructions appended to the translation prompt")
	cmd.Flags().
		Int("concurrency", translate.DefaultConcurrency, "Number of parallel translation requests")
	cmd.Flags().
		Int("batch-size", translate.DefaultBatchSize, "Number of segments per translation request")
}

func addExportFlags(cmd *cobra.Command) {
	cmd.Flags().
		StringP("output-dir", "o", ".", "Directory to write transcript files to")
	cmd.Flags().
		StringSlice("formats", []string{"txt", "srt", "vtt"}, "Export formats to write")
}

func newTranslator(ctx context.Context, cfg *config.Config) (translate.TextTranslator, error) {
	provider := translate.Provider(cfg.Translation.Provider)
	apiKey := cfg.APIKey(cfg.Translation.Provider)
	if provider != translate.ProviderMock && apiKey == "" {
		return nil, fmt.Errorf(
			"API key is required for %s: set LIVECAP_KEYS_%s or the provider's own environment variable",
			provider,
			strings.ToUpper(string(provider)),
		)
	}

	translator, err := translate.Factory(ctx, provider, apiKey, translate.Options{
		Model:     cfg.Translation.Model,
		Prompt:    cfg.Translation.Prompt,
		BatchSize: cfg.Translation.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create translator: %w", err)
	}
	return translator, nil
}

func newOverlayOptions(cfg *config.Config) translate.OverlayOptions {
	return translate.OverlayOptions{
		Concurrency: cfg.Translation.Concurrency,
		BatchSize:   cfg.Translation.BatchSize,
		Logger:      logger,
	}
}

func newOverlay(translator translate.TextTranslator, cfg *config.Config) *translate.Overlay {
	return translate.NewOverlay(translator, newOverlayOptions(cfg))
}

func parseFormats(names []string) ([]subtitle.Format, error) {
	formats := make([]subtitle.Format, 0, len(names))
	seen := make(map[subtitle.Format]bool)
	for _, name := range names {
		format, err := subtitle.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if seen[format] {
			continue
		}
		seen[format] = true
		formats = append(formats, format)
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("at least one export format is required")
	}
	return formats, nil
}

// writeExports writes the original transcript in every format, and the
// translated transcript too when any segment has a translation. It returns
// the paths written.
func writeExports(dir string, segments []subtitle.Segment, formats []subtitle.Format) ([]string, error) {
	variants := []bool{false}
	if subtitle.HasTranslations(segments) {
		variants = append(variants, true)
	}

	var written []string
	for _, translated := range variants {
		for _, format := range formats {
			path := filepath.Join(dir, subtitle.FileName(format, translated))
			if err := subtitle.WriteFile(path, segments, format, translated); err != nil {
				return written, fmt.Errorf("failed to write %s: %w", path, err)
			}
			written = append(written, path)
		}
	}
	return written, nil
}

func printExports(paths []string, segments int) {
	fmt.Printf("Transcript exported: %d segments\n", segments)
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		fmt.Printf("  %s\n", abs)
	}
}

func fileExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", path)
	}
	return nil
}
