package server

import (
	"encoding/json"
	"time"

	"github.com/mgpai22/livecap/internal/segmenter"
	"github.com/mgpai22/livecap/internal/subtitle"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// inbound
	MessageTypeTranscript MessageType = "transcript"
	MessageTypeStop       MessageType = "stop"

	// outbound
	MessageTypeSegment     MessageType = "segment"
	MessageTypeTranslation MessageType = "translation"
	MessageTypeState       MessageType = "state"
	MessageTypeError       MessageType = "error"
)

type BaseMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// InboundMessage is what a recognizer client sends over the socket.
// Listening defaults to true when omitted.
type InboundMessage struct {
	Type      MessageType `json:"type"`
	Text      string      `json:"text"`
	Listening *bool       `json:"listening,omitempty"`
}

func (m InboundMessage) listening() bool {
	return m.Listening == nil || *m.Listening
}

type SegmentMessage struct {
	BaseMessage
	Segment SegmentDTO `json:"segment"`
}

type TranslationMessage struct {
	BaseMessage
	Applied  bool         `json:"applied"`
	Segments []SegmentDTO `json:"segments"`
}

type StateMessage struct {
	BaseMessage
	State   string  `json:"state"`
	Elapsed float64 `json:"elapsed"`
}

type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

// SegmentDTO carries segment times in seconds.
type SegmentDTO struct {
	ID             string  `json:"id"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	OriginalText   string  `json:"original_text"`
	TranslatedText string  `json:"translated_text,omitempty"`
}

func newSegmentDTO(seg subtitle.Segment) SegmentDTO {
	return SegmentDTO{
		ID:             seg.ID,
		Start:          seg.StartTime.Seconds(),
		End:            seg.EndTime.Seconds(),
		OriginalText:   seg.OriginalText,
		TranslatedText: seg.TranslatedText,
	}
}

func newSegmentDTOs(segs []subtitle.Segment) []SegmentDTO {
	out := make([]SegmentDTO, len(segs))
	for i, seg := range segs {
		out[i] = newSegmentDTO(seg)
	}
	return out
}

func newBase(t MessageType, sessionID string) BaseMessage {
	return BaseMessage{
		Type:      t,
		SessionID: sessionID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func segmentMessage(sessionID string, seg subtitle.Segment) SegmentMessage {
	return SegmentMessage{
		BaseMessage: newBase(MessageTypeSegment, sessionID),
		Segment:     newSegmentDTO(seg),
	}
}

func stateMessage(sessionID string, snap segmenter.Snapshot) StateMessage {
	return StateMessage{
		BaseMessage: newBase(MessageTypeState, sessionID),
		State:       string(snap.State),
		Elapsed:     snap.Elapsed.Seconds(),
	}
}

func errorMessage(sessionID, code, message string) ErrorMessage {
	return ErrorMessage{
		BaseMessage: newBase(MessageTypeError, sessionID),
		Code:        code,
		Message:     message,
	}
}

func parseInbound(data []byte) (InboundMessage, error) {
	var msg InboundMessage
	err := json.Unmarshal(data, &msg)
	return msg, err
}
