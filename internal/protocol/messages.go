// Package protocol defines the websocket payloads exchanged with assistant
// clients. Clients send recognized utterances and control actions; the
// server sends spoken replies and state events.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeClientUtterance MessageType = "client_utterance"
	TypeClientControl   MessageType = "client_control"
	TypeAssistantSpeech MessageType = "assistant_speech"
	TypeStateEvent      MessageType = "state_event"
	TypeSystemEvent     MessageType = "system_event"
	TypeErrorEvent      MessageType = "error_event"
)

// Control actions clients may request.
const (
	ActionEnd                = "end"
	ActionConversationModeOn = "conversation_mode_on"
	ActionConversationOff    = "conversation_mode_off"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ClientUtterance is one recognized utterance. Only final hypotheses are
// dispatched; partials are accepted and ignored.
type ClientUtterance struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Text      string      `json:"text"`
	Final     bool        `json:"final"`
	TSMs      int64       `json:"ts_ms"`
}

type ClientControl struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Action    string      `json:"action"`
}

// AssistantSpeech is a reply to be voiced by the client. Flush means the
// reply interrupts whatever is currently being spoken.
type AssistantSpeech struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Text      string      `json:"text"`
	Flush     bool        `json:"flush"`
	TSMs      int64       `json:"ts_ms"`
}

// StateEvent reports conversational-state changes.
type StateEvent struct {
	Type             MessageType `json:"type"`
	SessionID        string      `json:"session_id"`
	ConversationMode bool        `json:"conversation_mode"`
	Language         string      `json:"language"`
}

type SystemEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Source    string      `json:"source"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

// ParseClientMessage decodes and validates an inbound frame.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeClientUtterance:
		var msg ClientUtterance
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.Text == "" {
			return nil, errors.New("invalid client_utterance")
		}
		return msg, nil
	case TypeClientControl:
		var msg ClientControl
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SessionID == "" || msg.Action == "" {
			return nil, errors.New("invalid client_control")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}

// MessageTypeOf reports the protocol type of an outbound or parsed message.
func MessageTypeOf(v any) (MessageType, bool) {
	switch m := v.(type) {
	case ClientUtterance:
		return m.Type, true
	case ClientControl:
		return m.Type, true
	case AssistantSpeech:
		return m.Type, true
	case StateEvent:
		return m.Type, true
	case SystemEvent:
		return m.Type, true
	case ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
