package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgpai22/livecap/internal/audio"
	"github.com/mgpai22/livecap/internal/config"
	"github.com/mgpai22/livecap/internal/recognizer"
	"github.com/mgpai22/livecap/internal/segmenter"
	"github.com/mgpai22/livecap/internal/subtitle"
	"github.com/mgpai22/livecap/internal/transcribe"
)

var replayCmd = &cobra.Command{
	Use:   "replay [media_or_subtitle_file]",
	Short: "Replay a recording through the segmenter on a simulated clock",
	Long: `Replay a recorded session as if it were happening live.

Audio and video files are normalized with ffmpeg and transcribed with Gemini
or OpenAI Whisper. Each transcribed phrase is then reported to the segmenter
at the moment its speech ended, exactly as a live recognizer would, and the
resulting segments are exported. An existing .srt or .vtt file can be
replayed directly, which skips transcription.

Examples:
  livecap replay meeting.mp4
  livecap replay talk.mp3 --transcriber openai --window 5s
  livecap replay captions.srt --translate --target fr -o out/`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().
		String("transcriber", "gemini", "Transcription provider for media files (gemini, openai)")
	replayCmd.Flags().
		String("transcribe-model", "", "Model to use for transcription (provider-specific)")
	replayCmd.Flags().Bool("translate", false, "Translate the transcript before exporting")
	addSessionFlags(replayCmd)
	addTranslationFlags(replayCmd)
	addExportFlags(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	if err := fileExists(inputPath); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	formatNames, _ := cmd.Flags().GetStringSlice("formats")
	formats, err := parseFormats(formatNames)
	if err != nil {
		return err
	}
	doTranslate, _ := cmd.Flags().GetBool("translate")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := segmenter.New(segmenter.Options{
		Window: cfg.Window,
		Step:   cfg.Tick,
		Logger: logger,
	})

	segments, err := replayFile(ctx, cfg, engine, inputPath)
	if err != nil {
		return err
	}

	if doTranslate && len(segments) > 0 {
		translator, err := newTranslator(ctx, cfg)
		if err != nil {
			return err
		}
		res, _ := newOverlay(translator, cfg).Run(ctx, engine, cfg.SourceLanguage, cfg.TargetLanguage)
		if len(res.Failures) > 0 {
			logger.Warnw("Some segments were not translated", "failed", len(res.Failures))
		}
		segments = engine.Segments()
	}

	paths, err := writeExports(cfg.OutputDir, segments, formats)
	if err != nil {
		return err
	}
	printExports(paths, len(segments))
	return nil
}

// replayFile loads or transcribes inputPath and replays it through engine.
func replayFile(
	ctx context.Context,
	cfg *config.Config,
	engine *segmenter.Engine,
	inputPath string,
) ([]subtitle.Segment, error) {
	var (
		source []subtitle.Segment
		err    error
	)
	switch {
	case isSubtitleFile(inputPath):
		source, err = loadSubtitleSegments(inputPath)
	case audio.IsMediaFile(inputPath):
		source, err = transcribeMedia(ctx, cfg, inputPath)
	default:
		return nil, fmt.Errorf(
			"unsupported file type: %s (expected audio, video, .srt or .vtt)",
			filepath.Ext(inputPath),
		)
	}
	if err != nil {
		return nil, err
	}

	script := recognizer.FromSegments(source)
	logger.Infow("Replaying transcript",
		"utterances", len(script),
		"duration", script.Duration().String(),
		"window", cfg.Window.String(),
	)

	segments, err := recognizer.Replay(ctx, engine, script, cfg.Tick)
	if err != nil {
		return segments, fmt.Errorf("replay interrupted: %w", err)
	}

	logger.Infow("Replay complete", "segments", len(segments))
	return segments, nil
}

func isSubtitleFile(path string) bool {
	format, err := subtitle.GetFormatFromExtension(path)
	return err == nil && format != subtitle.FormatTXT
}

func loadSubtitleSegments(path string) ([]subtitle.Segment, error) {
	file, err := subtitle.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subtitle file: %w", err)
	}
	segments := file.Segments()
	if len(segments) == 0 {
		return nil, fmt.Errorf("subtitle file contains no cues")
	}
	return segments, nil
}

func transcribeMedia(ctx context.Context, cfg *config.Config, mediaPath string) ([]subtitle.Segment, error) {
	provider := transcribe.Provider(cfg.Transcription.Provider)
	apiKey := cfg.APIKey(cfg.Transcription.Provider)
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required for %s transcription", provider)
	}

	tempDir, err := os.MkdirTemp("", "livecap-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	opts := audio.DefaultNormalizeOptions()
	audioPath := audio.NormalizedPath(tempDir, mediaPath, opts)

	logger.Infow("Normalizing audio", "input", mediaPath)
	if err := audio.Normalize(ctx, mediaPath, audioPath, opts); err != nil {
		return nil, fmt.Errorf("failed to prepare audio: %w", err)
	}

	transcriber, err := transcribe.Factory(ctx, provider, apiKey, transcribe.Options{
		Language: cfg.SourceLanguage,
		Model:    cfg.Transcription.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create transcriber: %w", err)
	}

	logger.Infow("Transcribing audio", "provider", provider)
	result, err := transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	logger.Infow("Transcription complete",
		"segments", len(result.Segments),
		"duration", result.Duration.String(),
	)
	return result.Segments, nil
}
