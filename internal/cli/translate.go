package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/livecap/internal/subtitle"
	"github.com/mgpai22/livecap/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate [subtitle_file]",
	Short: "Translate subtitles to another language using AI",
	Long: `Translate an existing SRT or VTT file to another language.

Cues are translated concurrently; a cue that fails to translate keeps its
original text and the rest of the file is still written.

The --bilingual flag writes the translated text first, followed by the
original text on the next line.

Examples:
  livecap translate talk.srt --target ja --provider gemini
  livecap translate talk.vtt --source es --target en --bilingual
  livecap translate talk.srt -t fr --provider mock -o talk.fr.srt`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target", "t", "es", "Target language for translation")
	translateCmd.Flags().
		String("source", "en-US", "Language of the subtitle file")
	translateCmd.Flags().
		Bool("bilingual", false, "Write translated and original text together")
	translateCmd.Flags().
		StringP("output", "o", "", "Output file path (default: <name>.<target><ext>)")
	addTranslationFlags(translateCmd)
}

func runTranslate(cmd *cobra.Command, args []string) error {
	subtitlePath := args[0]
	if err := fileExists(subtitlePath); err != nil {
		return err
	}
	if !isSubtitleFile(subtitlePath) {
		return fmt.Errorf(
			"unsupported subtitle format %q: use .srt or .vtt",
			filepath.Ext(subtitlePath),
		)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	bilingual, _ := cmd.Flags().GetBool("bilingual")
	outputPath, _ := cmd.Flags().GetString("output")

	if outputPath == "" {
		outputPath = translatedPath(subtitlePath, cfg.TargetLanguage, bilingual)
	}

	ctx := context.Background()

	logger.Infow("Starting subtitle translation",
		"input", subtitlePath,
		"output", outputPath,
		"source_language", cfg.SourceLanguage,
		"target_language", cfg.TargetLanguage,
		"provider", cfg.Translation.Provider,
		"bilingual", bilingual,
	)

	subFile, err := subtitle.Open(subtitlePath)
	if err != nil {
		return fmt.Errorf("failed to parse subtitle file: %w", err)
	}
	if len(subFile.Segments()) == 0 {
		return fmt.Errorf("subtitle file contains no entries")
	}

	translator, err := newTranslator(ctx, cfg)
	if err != nil {
		return err
	}

	res, err := translateFile(
		ctx,
		newOverlay(translator, cfg),
		subFile,
		cfg.SourceLanguage,
		cfg.TargetLanguage,
		bilingual,
	)
	if err != nil {
		return err
	}

	logger.Infow("Writing output file")
	if err := subFile.Write(outputPath, true); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Subtitles translated successfully: %s\n", absOutput)
	fmt.Fprintf(out, "  Entries: %d\n", len(res.Segments))
	fmt.Fprintf(out, "  Target language: %s\n", cfg.TargetLanguage)
	if len(res.Failures) > 0 {
		fmt.Fprintf(out, "  Untranslated: %d (kept original text)\n", len(res.Failures))
	}
	if bilingual {
		fmt.Fprintf(out, "  Mode: bilingual\n")
	}

	return nil
}

// translateFile overlays translations onto every cue of f. Bilingual cues
// carry the translation followed by the original on the next line.
func translateFile(
	ctx context.Context,
	overlay *translate.Overlay,
	f subtitle.File,
	sourceLang, targetLang string,
	bilingual bool,
) (translate.Result, error) {
	res := overlay.TranslateAll(ctx, f.Segments(), sourceLang, targetLang)

	for i, seg := range res.Segments {
		text, ok := res.Translations[seg.ID]
		if !ok {
			continue
		}
		if bilingual {
			text = text + "\n" + seg.OriginalText
		}
		if err := f.SetTranslation(i, text); err != nil {
			return res, fmt.Errorf("failed to set text for entry %d: %w", i, err)
		}
	}
	return res, nil
}

func translatedPath(path, targetLang string, bilingual bool) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	if bilingual {
		return fmt.Sprintf("%s.%s.bilingual%s", base, targetLang, ext)
	}
	return fmt.Sprintf("%s.%s%s", base, targetLang, ext)
}
