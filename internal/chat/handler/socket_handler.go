package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"doubtdesk/internal/chat"
	"doubtdesk/internal/chat/service"
	"doubtdesk/internal/common"
	"doubtdesk/internal/realtime"
)

const readTimeout = 60 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Same-origin enforcement happens at the edge proxy.
		return true
	},
}

// SocketHandler upgrades authenticated requests to a websocket session and
// processes join/leave/typing frames until the client disconnects. The auth
// middleware has already rejected the connection if the handshake credential
// was missing or invalid, so no session exists before authentication.
type SocketHandler struct {
	hub    *realtime.Hub
	broker realtime.Broker
	svc    service.ChatService
}

func NewSocketHandler(hub *realtime.Hub, broker realtime.Broker, svc service.ChatService) *SocketHandler {
	return &SocketHandler{hub: hub, broker: broker, svc: svc}
}

type inboundFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
}

func (h *SocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "authorization required")
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the response
		return
	}

	conn := realtime.NewConnection(identity.UserID, ws)
	h.hub.Attach(conn)
	defer func() {
		h.hub.Detach(conn)
		conn.Close(websocket.CloseNormalClosure, "session closed")
		log.Printf("⟷ session %s of user %d disconnected", conn.ID, conn.UserID)
	}()

	ws.SetReadLimit(1 << 20)
	_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	_ = conn.Send(realtime.Marshal(realtime.AckFrame{Type: realtime.FrameConnected}))

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
				errors.Is(err, websocket.ErrCloseSent) {
				return
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.replyError(conn, realtime.CodeBadRequest, "invalid payload")
			continue
		}

		switch frame.Type {
		case "join":
			h.handleJoin(r.Context(), conn, frame)
		case "leave":
			h.handleLeave(conn, frame)
		case realtime.FrameTypingStarted, realtime.FrameTypingStopped:
			h.handleTyping(r.Context(), conn, frame)
		default:
			h.replyError(conn, realtime.CodeBadRequest, "unknown frame type")
		}
	}
}

// handleJoin gates room membership on the same participant check the store
// enforces, so a socket join can never leak another conversation's messages.
// An unauthorized or unknown conversation gets an explicit error frame back.
func (h *SocketHandler) handleJoin(ctx context.Context, conn *realtime.Connection, frame inboundFrame) {
	if frame.ConversationID == "" {
		h.replyError(conn, realtime.CodeBadRequest, "conversation_id is required")
		return
	}

	_, err := h.svc.Conversation(ctx, frame.ConversationID, conn.UserID)
	switch {
	case errors.Is(err, chat.ErrNotFound):
		h.replyError(conn, realtime.CodeNotFound, "no such conversation")
		return
	case errors.Is(err, chat.ErrNotParticipant):
		log.Printf("⚠ join rejected: user %d is not in conversation %s", conn.UserID, frame.ConversationID)
		h.replyError(conn, realtime.CodeNotParticipant, "not a participant of this conversation")
		return
	case err != nil:
		h.replyError(conn, realtime.CodeInternal, "unexpected error")
		return
	}

	h.hub.Join(realtime.ConversationRoom(frame.ConversationID), conn)
	_ = conn.Send(realtime.Marshal(realtime.AckFrame{Type: realtime.FrameJoined, ConversationID: frame.ConversationID}))
}

func (h *SocketHandler) handleLeave(conn *realtime.Connection, frame inboundFrame) {
	if frame.ConversationID == "" {
		h.replyError(conn, realtime.CodeBadRequest, "conversation_id is required")
		return
	}
	h.hub.Leave(realtime.ConversationRoom(frame.ConversationID), conn)
	_ = conn.Send(realtime.Marshal(realtime.AckFrame{Type: realtime.FrameLeft, ConversationID: frame.ConversationID}))
}

// handleTyping relays typing indicators to the conversation room. Ephemeral:
// never persisted, best-effort delivery, and only from sessions that joined.
func (h *SocketHandler) handleTyping(ctx context.Context, conn *realtime.Connection, frame inboundFrame) {
	room := realtime.ConversationRoom(frame.ConversationID)
	if frame.ConversationID == "" || !h.hub.InRoom(room, conn) {
		h.replyError(conn, realtime.CodeNotParticipant, "join the conversation first")
		return
	}

	payload := realtime.Marshal(realtime.TypingFrame{
		Type:           frame.Type,
		ConversationID: frame.ConversationID,
		UserID:         conn.UserID,
	})
	err := h.broker.Publish(ctx, realtime.Event{
		Rooms:   []string{room},
		Exclude: conn.UserID,
		Payload: payload,
	})
	if err != nil {
		log.Printf("⚠ typing relay failed for %s: %v", frame.ConversationID, err)
	}
}

func (h *SocketHandler) replyError(conn *realtime.Connection, code, msg string) {
	_ = conn.Send(realtime.Marshal(realtime.ErrorFrame{
		Type:  realtime.FrameError,
		Code:  code,
		Error: msg,
	}))
}
