package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mgpai22/livecap/internal/subtitle"
)

var convertCmd = &cobra.Command{
	Use:   "convert [subtitle_file]",
	Short: "Convert an SRT or VTT file to txt, srt or vtt",
	Long: `Re-render an existing SRT or WebVTT file in another export format.

With --translated, cues that carry a translation from an earlier run are
written using it; cues without one fall back to their original text.

Examples:
  livecap convert talk.srt -f txt
  livecap convert talk.vtt -f srt -o talk_fixed.srt`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().
		StringP("format", "f", "txt", "Output format (txt, srt, vtt)")
	convertCmd.Flags().
		StringP("output", "o", "", "Output file path (default: input name with the new extension)")
	convertCmd.Flags().
		Bool("translated", false, "Prefer translated text when present")
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	if err := fileExists(inputPath); err != nil {
		return err
	}

	formatStr, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	translated, _ := cmd.Flags().GetBool("translated")

	format, err := subtitle.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	if outputPath == "" {
		outputPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + format.Extension()
	}
	if filepath.Clean(outputPath) == filepath.Clean(inputPath) {
		return fmt.Errorf("output path %s would overwrite the input", outputPath)
	}

	file, err := subtitle.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to parse subtitle file: %w", err)
	}
	segments := file.Segments()

	logger.Infow("Converting subtitles",
		"input", inputPath,
		"output", outputPath,
		"from", file.Format(),
		"to", format,
		"cues", len(segments),
	)

	if err := subtitle.WriteFile(outputPath, segments, format, translated); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Subtitles converted successfully: %s\n", absOutput)
	fmt.Fprintf(cmd.OutOrStdout(), "  Entries: %d\n", len(segments))
	return nil
}
