// Package realtime is the single-process fan-out layer: live websocket
// sessions, the rooms they join, and the broker seam the delivery path
// publishes through.
package realtime

import (
	"encoding/json"
	"fmt"
	"time"
)

// Frame types carried on the wire, client- and server-side.
const (
	FrameConnected       = "connected"
	FrameJoined          = "joined"
	FrameLeft            = "left"
	FrameMessage         = "message"
	FrameNewConversation = "new_conversation"
	FrameTypingStarted   = "typing_started"
	FrameTypingStopped   = "typing_stopped"
	FrameError           = "error"
)

// Error codes sent in error frames.
const (
	CodeBadRequest     = "bad_request"
	CodeNotFound       = "not_found"
	CodeNotParticipant = "not_participant"
	CodeInternal       = "internal_error"
)

// UserRoom is the private per-identity room every session auto-joins.
func UserRoom(userID uint64) string {
	return fmt.Sprintf("user:%d", userID)
}

// ConversationRoom groups sessions that explicitly joined a conversation.
func ConversationRoom(conversationID string) string {
	return "conv:" + conversationID
}

// ErrorFrame reports a failed socket operation back to the caller only.
type ErrorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// AckFrame confirms joins, leaves and the handshake.
type AckFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// MessageFrame is the server→client payload for a delivered message.
type MessageFrame struct {
	Type           string    `json:"type"`
	ConversationID string    `json:"conversation_id"`
	MessageID      uint64    `json:"message_id"`
	SenderID       uint64    `json:"sender_id"`
	Content        string    `json:"content,omitempty"`
	Attachments    []string  `json:"attachments,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationFrame announces a newly assigned conversation to its mentor.
type ConversationFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	Subject        string `json:"subject"`
	Kind           string `json:"kind"`
	StudentID      uint64 `json:"student_id"`
}

// TypingFrame is ephemeral and never persisted.
type TypingFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	UserID         uint64 `json:"user_id"`
}

// Marshal encodes a frame, panicking only on programmer error (all frame
// types above are plain data).
func Marshal(v interface{}) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("realtime: unmarshalable frame: %v", err))
	}
	return payload
}
