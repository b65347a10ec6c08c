package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mgpai22/livecap/internal/segmenter"
	"github.com/mgpai22/livecap/internal/subtitle"
	"github.com/mgpai22/livecap/internal/translate"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type CreateSessionRequest struct {
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

type RestartRequest struct {
	SourceLanguage string `json:"source_language"`
}

type TranscriptRequest struct {
	Text      string `json:"text"`
	Listening *bool  `json:"listening"`
}

type TranslateRequest struct {
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

type SessionResponse struct {
	ID             string       `json:"id"`
	State          string       `json:"state"`
	Listening      bool         `json:"listening"`
	Elapsed        float64      `json:"elapsed"`
	Clock          string       `json:"clock"`
	OpenSpanStart  float64      `json:"open_span_start"`
	ConsumedLength int          `json:"consumed_length"`
	Pending        string       `json:"pending"`
	SourceLanguage string       `json:"source_language"`
	TargetLanguage string       `json:"target_language"`
	Segments       []SegmentDTO `json:"segments"`
}

type SegmentResponse struct {
	Finalized bool        `json:"finalized"`
	Segment   *SegmentDTO `json:"segment,omitempty"`
}

type RestartResponse struct {
	Closed []SegmentDTO `json:"closed"`
}

type TranslateResponse struct {
	Applied    bool         `json:"applied"`
	Translated int          `json:"translated"`
	Failures   []string     `json:"failures,omitempty"`
	Segments   []SegmentDTO `json:"segments"`
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, s *Server) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"service":  "livecap",
			"sessions": s.registry.Len(),
		})
	})

	v1 := e.Group("/api/v1")

	v1.POST("/sessions", s.createSession)
	v1.GET("/sessions/:id", s.getSession)
	v1.DELETE("/sessions/:id", s.deleteSession)

	v1.POST("/sessions/:id/start", s.startSession)
	v1.POST("/sessions/:id/stop", s.stopSession)
	v1.POST("/sessions/:id/reset", s.resetSession)
	v1.POST("/sessions/:id/restart", s.restartSession)
	v1.PUT("/sessions/:id/transcript", s.updateTranscript)

	v1.POST("/sessions/:id/translate", s.translateSession)
	v1.GET("/sessions/:id/export", s.exportSession)

	e.GET("/ws", s.serveWebSocket)
}

func (s *Server) createSession(c echo.Context) error {
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request format")
	}

	session := s.registry.Create(req.SourceLanguage, req.TargetLanguage)
	return c.JSON(http.StatusCreated, s.sessionResponse(session))
}

func (s *Server) getSession(c echo.Context) error {
	session, err := s.registry.Get(c.Param("id"))
	if err != nil {
		return notFound(c, c.Param("id"))
	}
	return c.JSON(http.StatusOK, s.sessionResponse(session))
}

func (s *Server) deleteSession(c echo.Context) error {
	id := c.Param("id")
	if err := s.registry.Delete(id); err != nil {
		return notFound(c, id)
	}
	s.hub.Disconnect(id)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) startSession(c echo.Context) error {
	session, err := s.registry.Get(c.Param("id"))
	if err != nil {
		return notFound(c, c.Param("id"))
	}
	if err := session.Start(); err != nil {
		if errors.Is(err, segmenter.ErrSessionActive) {
			return c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "session_active",
				Message: "Session is already recording",
			})
		}
		return err
	}
	s.publishState(session)
	return c.JSON(http.StatusOK, s.sessionResponse(session))
}

func (s *Server) stopSession(c echo.Context) error {
	session, err := s.registry.Get(c.Param("id"))
	if err != nil {
		return notFound(c, c.Param("id"))
	}
	seg, ok := session.Stop()
	s.publishState(session)
	return c.JSON(http.StatusOK, segmentResponse(seg, ok))
}

func (s *Server) resetSession(c echo.Context) error {
	session, err := s.registry.Get(c.Param("id"))
	if err != nil {
		return notFound(c, c.Param("id"))
	}
	session.Reset()
	s.publishState(session)
	return c.JSON(http.StatusOK, s.sessionResponse(session))
}

func (s *Server) restartSession(c echo.Context) error {
	session, err := s.registry.Get(c.Param("id"))
	if err != nil {
		return notFound(c, c.Param("id"))
	}
	var req RestartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request format")
	}

	closed := session.Restart(req.SourceLanguage)
	s.publishState(session)
	return c.JSON(http.StatusOK, RestartResponse{Closed: newSegmentDTOs(closed)})
}

func (s *Server) updateTranscript(c echo.Context) error {
	session, err := s.registry.Get(c.Param("id"))
	if err != nil {
		return notFound(c, c.Param("id"))
	}
	var req TranscriptRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request format")
	}

	listening := req.Listening == nil || *req.Listening
	seg, ok := session.Observe(req.Text, listening)
	return c.JSON(http.StatusOK, segmentResponse(seg, ok))
}

func (s *Server) translateSession(c echo.Context) error {
	session, err := s.registry.Get(c.Param("id"))
	if err != nil {
		return notFound(c, c.Param("id"))
	}
	var req TranslateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request format")
	}

	source, target := session.Languages()
	if req.SourceLanguage != "" {
		source = req.SourceLanguage
	}
	if req.TargetLanguage != "" {
		target = req.TargetLanguage
	}
	if translate.BaseLanguage(source) == translate.BaseLanguage(target) {
		return badRequest(c, fmt.Sprintf("Source and target language are both %q", translate.BaseLanguage(source)))
	}
	session.SetTargetLanguage(target)

	res, applied := s.overlay.Run(context.WithoutCancel(c.Request().Context()), session.engine, source, target)

	failures := make([]string, 0, len(res.Failures))
	for _, f := range res.Failures {
		failures = append(failures, fmt.Sprintf("%s: %v", f.SegmentID, f.Err))
	}
	segments := newSegmentDTOs(session.Snapshot().Segments)

	if applied {
		s.hub.Broadcast(session.ID, TranslationMessage{
			BaseMessage: newBase(MessageTypeTranslation, session.ID),
			Applied:     applied,
			Segments:    segments,
		})
	}

	return c.JSON(http.StatusOK, TranslateResponse{
		Applied:    applied,
		Translated: len(res.Translations),
		Failures:   failures,
		Segments:   segments,
	})
}

func (s *Server) exportSession(c echo.Context) error {
	session, err := s.registry.Get(c.Param("id"))
	if err != nil {
		return notFound(c, c.Param("id"))
	}

	format := subtitle.FormatSRT
	if raw := c.QueryParam("format"); raw != "" {
		if format, err = subtitle.ParseFormat(raw); err != nil {
			return badRequest(c, err.Error())
		}
	}
	translated := false
	if raw := c.QueryParam("translated"); raw != "" {
		if translated, err = strconv.ParseBool(raw); err != nil {
			return badRequest(c, "translated must be a boolean")
		}
	}

	segments := session.Snapshot().Segments
	if translated && !subtitle.HasTranslations(segments) {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "no_translations",
			Message: "Session has no translated segments",
		})
	}

	body, err := subtitle.Render(segments, format, translated)
	if err != nil {
		return badRequest(c, err.Error())
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", subtitle.FileName(format, translated)))
	return c.Blob(http.StatusOK, format.ContentType()+"; charset=utf-8", []byte(body))
}

func (s *Server) serveWebSocket(c echo.Context) error {
	id := c.QueryParam("session")
	session, err := s.registry.Get(id)
	if err != nil {
		return notFound(c, id)
	}
	return HandleWebSocket(s.hub, session, c, s.logger)
}

func (s *Server) publishState(session *Session) {
	s.hub.Broadcast(session.ID, stateMessage(session.ID, session.Snapshot()))
}

func (s *Server) sessionResponse(session *Session) SessionResponse {
	snap := session.Snapshot()
	source, target := session.Languages()
	return SessionResponse{
		ID:             session.ID,
		State:          string(snap.State),
		Listening:      snap.Listening,
		Elapsed:        snap.Elapsed.Seconds(),
		Clock:          subtitle.FormatClock(snap.Elapsed),
		OpenSpanStart:  snap.OpenSpanStart.Seconds(),
		ConsumedLength: snap.ConsumedLength,
		Pending:        snap.Pending,
		SourceLanguage: source,
		TargetLanguage: target,
		Segments:       newSegmentDTOs(snap.Segments),
	}
}

func segmentResponse(seg subtitle.Segment, ok bool) SegmentResponse {
	if !ok {
		return SegmentResponse{}
	}
	dto := newSegmentDTO(seg)
	return SegmentResponse{Finalized: true, Segment: &dto}
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid_request",
		Message: message,
	})
}

func notFound(c echo.Context, id string) error {
	return c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   "session_not_found",
		Message: fmt.Sprintf("No session with id %q", id),
	})
}
