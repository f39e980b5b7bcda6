package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"doubtdesk/internal/chat"
	"doubtdesk/internal/chat/handler/mocks"
	"doubtdesk/internal/common"
	"doubtdesk/internal/dbmysql"
	"doubtdesk/internal/realtime"
)

type handlerFixture struct {
	engine *mocks.MockEngine
	svc    *mocks.MockChatService
	dir    *mocks.MockDirectory
	router http.Handler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	engine := mocks.NewMockEngine(ctrl)
	svc := mocks.NewMockChatService(ctrl)
	dir := mocks.NewMockDirectory(ctrl)

	hub := realtime.NewHub()
	t.Cleanup(hub.Close)
	socket := NewSocketHandler(hub, realtime.NewLocalBroker(hub), svc)

	return &handlerFixture{
		engine: engine,
		svc:    svc,
		dir:    dir,
		router: NewChatHandler(engine, svc, dir, socket).Router(),
	}
}

func authedRequest(t *testing.T, method, target string, body []byte, userID uint64, isMentor bool) *http.Request {
	t.Helper()
	token, err := common.GenerateToken(userID, isMentor)
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestChatHandler_Authentication(t *testing.T) {
	f := newHandlerFixture(t)

	t.Run("health needs no token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, httptest.NewRequest("GET", "/chat", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/chat", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestChatHandler_GetOrCreateChat(t *testing.T) {
	t.Run("returns the assigned conversation", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.engine.EXPECT().
			GetOrCreateMentorChat(gomock.Any(), uint64(7), "Physics").
			Return(&dbmysql.Conversation{ID: "conv-123", Subject: "Physics", Kind: dbmysql.KindPrimary, StudentID: 7, MentorID: 42}, nil)

		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, authedRequest(t, "POST", "/chat/Physics", nil, 7, false))

		assert.Equal(t, http.StatusOK, rec.Code)
		var conv dbmysql.Conversation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
		assert.Equal(t, "conv-123", conv.ID)
		assert.Equal(t, uint64(42), conv.MentorID)
	})

	t.Run("no mentor available", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.engine.EXPECT().
			GetOrCreateMentorChat(gomock.Any(), uint64(7), "Latin").
			Return(nil, chat.ErrNoMentorAvailable)

		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, authedRequest(t, "POST", "/chat/Latin", nil, 7, false))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "no mentor available")
	})
}

func TestChatHandler_ListConversations(t *testing.T) {
	t.Run("passes the kind filter through", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.svc.EXPECT().
			ListConversations(gomock.Any(), uint64(42), true).
			Return([]*dbmysql.Conversation{{ID: "conv-1"}, {ID: "conv-2"}}, nil)

		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, authedRequest(t, "GET", "/chat?isPrimary=true", nil, 42, true))

		assert.Equal(t, http.StatusOK, rec.Code)
		var convs []*dbmysql.Conversation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &convs))
		assert.Len(t, convs, 2)
	})

	t.Run("no conversations is an empty list, not 404", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.svc.EXPECT().
			ListConversations(gomock.Any(), uint64(42), false).
			Return(nil, chat.ErrNotFound)

		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, authedRequest(t, "GET", "/chat", nil, 42, true))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})
}

func TestChatHandler_SendMessage(t *testing.T) {
	body := func(content string) []byte {
		b, _ := json.Marshal(sendMessageRequest{Content: content})
		return b
	}

	tests := []struct {
		name       string
		body       []byte
		mockSetup  func(f *handlerFixture)
		wantStatus int
	}{
		{
			name: "created",
			body: body("hello"),
			mockSetup: func(f *handlerFixture) {
				f.svc.EXPECT().
					SendMessage(gomock.Any(), "conv-123", uint64(7), "hello", gomock.Nil()).
					Return(&dbmysql.Message{ID: 1, ConversationID: "conv-123", SenderID: 7, Content: "hello", CreatedAt: time.Now().UTC()}, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "empty message",
			body: body("   "),
			mockSetup: func(f *handlerFixture) {
				f.svc.EXPECT().
					SendMessage(gomock.Any(), "conv-123", uint64(7), "   ", gomock.Nil()).
					Return(nil, chat.ErrEmptyMessage)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "not a participant",
			body: body("hi"),
			mockSetup: func(f *handlerFixture) {
				f.svc.EXPECT().
					SendMessage(gomock.Any(), "conv-123", uint64(7), "hi", gomock.Nil()).
					Return(nil, chat.ErrNotParticipant)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name: "unknown conversation",
			body: body("hi"),
			mockSetup: func(f *handlerFixture) {
				f.svc.EXPECT().
					SendMessage(gomock.Any(), "conv-123", uint64(7), "hi", gomock.Nil()).
					Return(nil, chat.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "malformed body",
			body:       []byte("{"),
			mockSetup:  func(f *handlerFixture) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t)
			tt.mockSetup(f)

			rec := httptest.NewRecorder()
			f.router.ServeHTTP(rec, authedRequest(t, "POST", "/message/conv-123", tt.body, 7, false))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestChatHandler_ListMessages(t *testing.T) {
	f := newHandlerFixture(t)
	f.svc.EXPECT().
		ListMessages(gomock.Any(), "conv-123", uint64(42)).
		Return([]*dbmysql.Message{{ID: 2, Content: "later"}, {ID: 1, Content: "earlier"}}, nil)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, authedRequest(t, "GET", "/message/conv-123", nil, 42, true))

	assert.Equal(t, http.StatusOK, rec.Code)
	var messages []*dbmysql.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &messages))
	require.Len(t, messages, 2)
	assert.Equal(t, uint64(2), messages[0].ID)
}

func TestChatHandler_SetMentorStatus(t *testing.T) {
	body, _ := json.Marshal(mentorStatusRequest{OnBreak: true})

	t.Run("students are rejected", func(t *testing.T) {
		f := newHandlerFixture(t)

		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, authedRequest(t, "PUT", "/mentor/status", body, 7, false))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("mentor toggles break", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.dir.EXPECT().
			SetAvailability(gomock.Any(), uint64(42), true, false).
			Return(nil)

		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, authedRequest(t, "PUT", "/mentor/status", body, 42, true))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"on_break": true, "on_leave": false}`, rec.Body.String())
	})

	t.Run("unknown mentor", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.dir.EXPECT().
			SetAvailability(gomock.Any(), uint64(42), true, false).
			Return(chat.ErrNotFound)

		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, authedRequest(t, "PUT", "/mentor/status", body, 42, true))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
