package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kestrelworks/kestrel/internal/protocol"
)

// handleSessionWS streams utterances in and spoken replies out over one
// websocket. Frames are handled strictly in arrival order; replies are
// written from the read loop so websocket writes stay single-threaded.
func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}
	if _, err := s.sessions.Get(sessionID); err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()
	defer s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	ctx := r.Context()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		if msgType != websocket.TextMessage {
			continue
		}

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			s.writeWS(conn, protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      "invalid_client_message",
				Source:    "gateway",
				Detail:    err.Error(),
			})
			continue
		}

		switch msg := parsed.(type) {
		case protocol.ClientUtterance:
			if !msg.Final {
				continue
			}
			reply, handled := s.assistant.HandleUtterance(ctx, msg.Text)
			if !handled {
				s.writeWS(conn, protocol.SystemEvent{
					Type:      protocol.TypeSystemEvent,
					SessionID: sessionID,
					Code:      "gated",
				})
				continue
			}
			if err := s.sessions.RecordCommand(sessionID); err != nil {
				s.writeWS(conn, protocol.ErrorEvent{
					Type:      protocol.TypeErrorEvent,
					SessionID: sessionID,
					Code:      "session_ended",
					Source:    "gateway",
					Detail:    err.Error(),
				})
				return
			}
			s.writeWS(conn, protocol.AssistantSpeech{
				Type:      protocol.TypeAssistantSpeech,
				SessionID: sessionID,
				Text:      reply,
				Flush:     true,
				TSMs:      time.Now().UnixMilli(),
			})
			s.writeState(conn, sessionID)

		case protocol.ClientControl:
			switch msg.Action {
			case protocol.ActionEnd:
				_, _ = s.sessions.End(sessionID)
				s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
				s.metrics.SessionEvents.WithLabelValues("ended").Inc()
				return
			case protocol.ActionConversationModeOn:
				s.assistant.State().SetConversationMode(true)
				s.writeState(conn, sessionID)
			case protocol.ActionConversationOff:
				s.assistant.State().SetConversationMode(false)
				s.writeState(conn, sessionID)
			default:
				s.writeWS(conn, protocol.ErrorEvent{
					Type:      protocol.TypeErrorEvent,
					SessionID: sessionID,
					Code:      "unknown_action",
					Source:    "gateway",
					Detail:    msg.Action,
				})
			}
		}
	}
}

func (s *Server) writeState(conn *websocket.Conn, sessionID string) {
	s.writeWS(conn, protocol.StateEvent{
		Type:             protocol.TypeStateEvent,
		SessionID:        sessionID,
		ConversationMode: s.assistant.State().ConversationMode(),
		Language:         s.assistant.Language(),
	})
}

func (s *Server) writeWS(conn *websocket.Conn, msg any) {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(msg); err != nil {
		s.log.Warn().Err(err).Msg("ws write failed")
		return
	}
	if t, ok := protocol.MessageTypeOf(msg); ok {
		s.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
	}
}
