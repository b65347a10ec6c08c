// Package server exposes live segmentation sessions over HTTP and
// WebSocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mgpai22/livecap/internal/logging"
	"github.com/mgpai22/livecap/internal/subtitle"
	"github.com/mgpai22/livecap/internal/translate"
)

type Options struct {
	Window time.Duration
	Tick   time.Duration

	SourceLanguage string
	TargetLanguage string

	Translator translate.TextTranslator
	Overlay    translate.OverlayOptions

	Logger *logging.Logger
}

type Server struct {
	echo     *echo.Echo
	hub      *Hub
	registry *Registry
	overlay  *translate.Overlay
	logger   *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Translator == nil {
		opts.Translator = &translate.Mock{}
	}
	if opts.Overlay.Logger == nil {
		opts.Overlay.Logger = opts.Logger
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		hub:     NewHub(opts.Logger),
		overlay: translate.NewOverlay(opts.Translator, opts.Overlay),
		logger:  opts.Logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.registry = newRegistry(ctx, sessionConfig{
		window:     opts.Window,
		tick:       opts.Tick,
		sourceLang: opts.SourceLanguage,
		targetLang: opts.TargetLanguage,
	}, opts.Logger, s.publishSegment)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			s.logger.Debugw("Request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	InitRoutes(e, s)
	s.echo = e
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Registry() *Registry {
	return s.registry
}

// Start blocks serving on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Infow("Starting server", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, disconnects websocket clients and
// halts every session ticker.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	err := s.echo.Shutdown(ctx)
	s.hub.Close()
	s.registry.CloseAll()
	s.cancel()
	return err
}

func (s *Server) publishSegment(sessionID string, seg subtitle.Segment) {
	s.hub.Broadcast(sessionID, segmentMessage(sessionID, seg))
}
