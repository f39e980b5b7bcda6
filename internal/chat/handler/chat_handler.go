// Package handler exposes the chat core over REST and a websocket channel.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"doubtdesk/internal/assignment"
	"doubtdesk/internal/chat"
	"doubtdesk/internal/chat/service"
	"doubtdesk/internal/common"
	"doubtdesk/internal/dbmysql"
	"doubtdesk/internal/directory"
)

type ChatHandler struct {
	engine assignment.Engine
	svc    service.ChatService
	dir    directory.Directory
	socket *SocketHandler
}

func NewChatHandler(engine assignment.Engine, svc service.ChatService, dir directory.Directory, socket *SocketHandler) *ChatHandler {
	return &ChatHandler{engine: engine, svc: svc, dir: dir, socket: socket}
}

// Router wires every endpoint. Everything except /health requires a valid
// access token.
func (h *ChatHandler) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(common.LoggingMiddleware)

	router.HandleFunc("/health", h.health).Methods("GET")

	authed := router.NewRoute().Subrouter()
	authed.Use(common.AuthMiddleware)
	authed.HandleFunc("/chat/{subject}", h.getOrCreateChat).Methods("POST")
	authed.HandleFunc("/chat", h.listConversations).Methods("GET")
	authed.HandleFunc("/chat/{conversationId}", h.getConversation).Methods("GET")
	authed.HandleFunc("/message/{conversationId}", h.listMessages).Methods("GET")
	authed.HandleFunc("/message/{conversationId}", h.sendMessage).Methods("POST")
	authed.HandleFunc("/mentor/status", h.setMentorStatus).Methods("PUT")
	authed.HandleFunc("/ws", h.socket.Handle).Methods("GET")

	return router
}

func (h *ChatHandler) getOrCreateChat(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "authorization required")
		return
	}
	subject := mux.Vars(r)["subject"]
	if subject == "" {
		common.WriteError(w, http.StatusBadRequest, "subject is required")
		return
	}

	conv, err := h.engine.GetOrCreateMentorChat(r.Context(), identity.UserID, subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, conv)
}

func (h *ChatHandler) listConversations(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "authorization required")
		return
	}
	primary, _ := strconv.ParseBool(r.URL.Query().Get("isPrimary"))

	convs, err := h.svc.ListConversations(r.Context(), identity.UserID, primary)
	if errors.Is(err, chat.ErrNotFound) {
		// "no chats yet" is a soft signal, not a failure
		common.WriteJSON(w, http.StatusOK, []*dbmysql.Conversation{})
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, convs)
}

func (h *ChatHandler) getConversation(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "authorization required")
		return
	}
	conv, err := h.svc.Conversation(r.Context(), mux.Vars(r)["conversationId"], identity.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, conv)
}

func (h *ChatHandler) listMessages(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "authorization required")
		return
	}
	messages, err := h.svc.ListMessages(r.Context(), mux.Vars(r)["conversationId"], identity.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, messages)
}

type sendMessageRequest struct {
	Content     string   `json:"content"`
	Attachments []string `json:"attachments"`
}

func (h *ChatHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "authorization required")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.svc.SendMessage(r.Context(), mux.Vars(r)["conversationId"], identity.UserID, req.Content, req.Attachments)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, msg)
}

type mentorStatusRequest struct {
	OnBreak bool `json:"on_break"`
	OnLeave bool `json:"on_leave"`
}

func (h *ChatHandler) setMentorStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := common.IdentityFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, "authorization required")
		return
	}
	if !identity.IsMentor {
		common.WriteError(w, http.StatusForbidden, "mentor access required")
		return
	}

	var req mentorStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.dir.SetAvailability(r.Context(), identity.UserID, req.OnBreak, req.OnLeave); err != nil {
		writeDomainError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]bool{
		"on_break": req.OnBreak,
		"on_leave": req.OnLeave,
	})
}

func (h *ChatHandler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("✅ Chat service is healthy"))
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrNoMentorAvailable):
		common.WriteError(w, http.StatusNotFound, "no mentor available, please try again later")
	case errors.Is(err, chat.ErrNotParticipant):
		common.WriteError(w, http.StatusForbidden, "not a participant of this conversation")
	case errors.Is(err, chat.ErrEmptyMessage):
		common.WriteError(w, http.StatusBadRequest, "message must have content or attachments")
	case errors.Is(err, chat.ErrNotFound):
		common.WriteError(w, http.StatusNotFound, "not found")
	default:
		common.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
