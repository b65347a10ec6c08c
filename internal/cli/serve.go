package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/livecap/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve live segmentation sessions over HTTP and WebSocket",
	Long: `Start an HTTP server that hosts live segmentation sessions.

A recognizer client creates a session, starts it and then pushes its
cumulative transcript either with PUT /api/v1/sessions/:id/transcript or as
{"type":"transcript"} messages on /ws?session=:id. Finalized segments are
pushed back over the socket and can be exported as txt, srt or vtt.

Examples:
  livecap serve
  livecap serve --addr :9000 --window 15s
  livecap serve --provider gemini --target fr`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	addSessionFlags(serveCmd)
	addTranslationFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	translator, err := newTranslator(ctx, cfg)
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Window:         cfg.Window,
		Tick:           cfg.Tick,
		SourceLanguage: cfg.SourceLanguage,
		TargetLanguage: cfg.TargetLanguage,
		Translator:     translator,
		Overlay:        newOverlayOptions(cfg),
		Logger:         logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Addr)
	}()

	logger.Infow("Server started",
		"addr", cfg.Addr,
		"window", cfg.Window.String(),
		"translation_provider", cfg.Translation.Provider,
	)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Infow("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Infow("Server exited")
	return nil
}
