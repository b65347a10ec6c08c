package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mgpai22/livecap/internal/clock"
	"github.com/mgpai22/livecap/internal/logging"
	"github.com/mgpai22/livecap/internal/segmenter"
	"github.com/mgpai22/livecap/internal/subtitle"
)

var ErrSessionNotFound = errors.New("session not found")

// Session pairs one segmentation engine with the ticker that drives it.
type Session struct {
	ID        string
	CreatedAt time.Time

	engine *segmenter.Engine
	ticker *clock.Ticker
	ctx    context.Context
	logger *logging.Logger

	// guards ticker and the language pair
	mu         sync.Mutex
	sourceLang string
	targetLang string
}

// Start opens a recording session and begins ticking.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.Start(); err != nil {
		return err
	}
	s.startTickerLocked()
	s.logger.Infow("Session started")
	return nil
}

// Stop halts the ticker before force-finalizing, so no tick lands after the
// final segment.
func (s *Session) Stop() (subtitle.Segment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ticker.Stop()
	seg, ok := s.engine.Stop()
	s.logger.Infow("Session stopped", "segments", len(s.engine.Segments()))
	return seg, ok
}

func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ticker.Stop()
	s.engine.Reset()
	s.logger.Infow("Session reset")
}

// Restart closes the current recording and opens a new one, optionally
// under a new source language. The closed recording's segments are
// returned.
func (s *Session) Restart(sourceLang string) []subtitle.Segment {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ticker.Stop()
	closed := s.engine.Restart()
	if sourceLang != "" {
		s.sourceLang = sourceLang
	}
	s.startTickerLocked()
	s.logger.Infow("Session restarted",
		"closed_segments", len(closed),
		"source_language", s.sourceLang,
	)
	return closed
}

func (s *Session) Observe(text string, listening bool) (subtitle.Segment, bool) {
	return s.engine.Observe(text, listening)
}

func (s *Session) Snapshot() segmenter.Snapshot {
	return s.engine.Snapshot()
}

func (s *Session) Languages() (source, target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sourceLang, s.targetLang
}

func (s *Session) SetTargetLanguage(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targetLang = lang
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticker.Stop()
	s.engine.Reset()
}

func (s *Session) startTickerLocked() {
	s.ticker.Start(s.ctx, func() {
		s.engine.Tick()
	})
}

type sessionConfig struct {
	window     time.Duration
	tick       time.Duration
	sourceLang string
	targetLang string
}

// Registry holds live sessions keyed by ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ctx       context.Context
	cfg       sessionConfig
	logger    *logging.Logger
	onSegment func(sessionID string, seg subtitle.Segment)
}

func newRegistry(
	ctx context.Context,
	cfg sessionConfig,
	logger *logging.Logger,
	onSegment func(string, subtitle.Segment),
) *Registry {
	return &Registry{
		sessions:  make(map[string]*Session),
		ctx:       ctx,
		cfg:       cfg,
		logger:    logger,
		onSegment: onSegment,
	}
}

// Create registers an idle session. Empty languages fall back to the
// server defaults.
func (r *Registry) Create(sourceLang, targetLang string) *Session {
	if sourceLang == "" {
		sourceLang = r.cfg.sourceLang
	}
	if targetLang == "" {
		targetLang = r.cfg.targetLang
	}

	id := uuid.NewString()
	logger := r.logger.With("session_id", id)
	s := &Session{
		ID:         id,
		CreatedAt:  time.Now(),
		ticker:     clock.NewTicker(r.cfg.tick),
		ctx:        r.ctx,
		logger:     logger,
		sourceLang: sourceLang,
		targetLang: targetLang,
	}
	s.engine = segmenter.New(segmenter.Options{
		Window: r.cfg.window,
		Step:   r.cfg.tick,
		Logger: logger,
		OnSegment: func(seg subtitle.Segment) {
			if r.onSegment != nil {
				r.onSegment(id, seg)
			}
		},
	})

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	logger.Infow("Session created",
		"source_language", sourceLang,
		"target_language", targetLang,
	)
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.close()
	s.logger.Infow("Session deleted")
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll stops every session's ticker and empties the registry.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}
