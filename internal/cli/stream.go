package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/livecap/internal/clock"
	"github.com/mgpai22/livecap/internal/recognizer"
	"github.com/mgpai22/livecap/internal/segmenter"
	"github.com/mgpai22/livecap/internal/subtitle"
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Segment a transcript read line by line from stdin",
	Long: `Read recognized speech from stdin, one utterance per line, and segment it
on a real-time clock. Each finalized segment is printed as it closes. When
stdin ends or the command is interrupted the session is stopped and the
transcript is exported.

Examples:
  my-recognizer | livecap stream
  livecap stream --window 5s --translate --target fr -o out/`,
	Args: cobra.NoArgs,
	RunE: runStream,
}

func init() {
	rootCmd.AddCommand(streamCmd)

	streamCmd.Flags().Bool("translate", false, "Translate the transcript before exporting")
	addSessionFlags(streamCmd)
	addTranslationFlags(streamCmd)
	addExportFlags(streamCmd)
}

func runStream(cmd *cobra.Command, args []string) error {
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

	out := cmd.OutOrStdout()
	engine := segmenter.New(segmenter.Options{
		Window: cfg.Window,
		Step:   cfg.Tick,
		Logger: logger,
		OnSegment: func(seg subtitle.Segment) {
			line, _ := subtitle.Render([]subtitle.Segment{seg}, subtitle.FormatTXT, false)
			fmt.Fprintln(out, line)
		},
	})

	logger.Infow("Streaming transcript from stdin",
		"window", cfg.Window.String(),
		"tick", cfg.Tick.String(),
	)

	segments, err := streamSession(ctx, cmd.InOrStdin(), engine, cfg.Tick)
	if err != nil {
		return err
	}

	if doTranslate && len(segments) > 0 {
		translator, err := newTranslator(ctx, cfg)
		if err != nil {
			return err
		}
		// an interrupt ends the stream, not the translation of what was said
		res, _ := newOverlay(translator, cfg).Run(
			context.WithoutCancel(ctx),
			engine,
			cfg.SourceLanguage,
			cfg.TargetLanguage,
		)
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

// streamSession runs one engine session fed by r and ticked every tick,
// returning its segments once r is exhausted or ctx is done. A read blocked
// on r is abandoned when ctx ends.
func streamSession(
	ctx context.Context,
	r io.Reader,
	engine *segmenter.Engine,
	tick time.Duration,
) ([]subtitle.Segment, error) {
	if err := engine.Start(); err != nil {
		return nil, err
	}

	ticker := clock.NewTicker(tick)
	ticker.Start(ctx, func() {
		engine.Tick()
	})

	done := make(chan error, 1)
	go func() {
		done <- recognizer.ReadLines(ctx, r, engine)
	}()

	var readErr error
	select {
	case readErr = <-done:
	case <-ctx.Done():
		logger.Infow("Interrupted, stopping session")
	}

	ticker.Stop()
	engine.Stop()

	if readErr != nil && ctx.Err() == nil {
		return engine.Segments(), readErr
	}
	return engine.Segments(), nil
}
