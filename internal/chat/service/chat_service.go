package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"doubtdesk/internal/chat"
	"doubtdesk/internal/chat/repository"
	"doubtdesk/internal/dbmysql"
	"doubtdesk/internal/realtime"
)

// ChatService exposes the conversation/message contracts plus the delivery
// path that composes persistence with live fan-out.
type ChatService interface {
	SendMessage(ctx context.Context, conversationID string, senderID uint64, content string, attachments []string) (*dbmysql.Message, error)
	ListMessages(ctx context.Context, conversationID string, requesterID uint64) ([]*dbmysql.Message, error)
	ListConversations(ctx context.Context, userID uint64, primary bool) ([]*dbmysql.Conversation, error)
	Conversation(ctx context.Context, conversationID string, requesterID uint64) (*dbmysql.Conversation, error)
}

type chatService struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	broker   realtime.Broker

	// one lock per conversation spans persist + publish, so live delivery
	// order always matches persistence order for every recipient
	locks sync.Map
}

// Constructor used in DI/wire
func NewChatService(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository, broker realtime.Broker) ChatService {
	return &chatService{convRepo: convRepo, msgRepo: msgRepo, broker: broker}
}

// SendMessage validates, persists, then fans out. The store write is the
// durability point: a failure there means nothing was sent; a fan-out failure
// after it is best effort only; offline participants catch up from history.
func (s *chatService) SendMessage(ctx context.Context, conversationID string, senderID uint64, content string, attachments []string) (*dbmysql.Message, error) {
	conv, err := s.convRepo.ByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		log.Printf("⚠ send rejected: user %d is not in conversation %s", senderID, conversationID)
		return nil, chat.ErrNotParticipant
	}
	if strings.TrimSpace(content) == "" && len(attachments) == 0 {
		return nil, chat.ErrEmptyMessage
	}

	lock := s.conversationLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	msg := &dbmysql.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Attachments:    attachments,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.msgRepo.Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	if err := s.convRepo.TouchLastMessage(ctx, conversationID, msg.ID); err != nil {
		// The message itself is durable; a stale pointer only affects sorting.
		log.Printf("⚠ failed to update last message of %s: %v", conversationID, err)
	}

	s.fanOut(ctx, conv, msg)

	return msg, nil
}

func (s *chatService) fanOut(ctx context.Context, conv *dbmysql.Conversation, msg *dbmysql.Message) {
	frame := realtime.Marshal(realtime.MessageFrame{
		Type:           realtime.FrameMessage,
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		Attachments:    msg.Attachments,
		CreatedAt:      msg.CreatedAt,
	})

	rooms := []string{realtime.ConversationRoom(conv.ID)}
	for _, participant := range conv.Participants() {
		if participant == msg.SenderID {
			continue
		}
		rooms = append(rooms, realtime.UserRoom(participant))
	}

	if err := s.broker.Publish(ctx, realtime.Event{
		Rooms:   rooms,
		Exclude: msg.SenderID,
		Payload: frame,
	}); err != nil {
		log.Printf("⚠ fan-out failed for message %d: %v", msg.ID, err)
	}
}

// ListMessages returns the conversation history, newest first. An empty
// history is an empty slice, not an error.
func (s *chatService) ListMessages(ctx context.Context, conversationID string, requesterID uint64) ([]*dbmysql.Message, error) {
	conv, err := s.convRepo.ByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(requesterID) {
		log.Printf("⚠ history rejected: user %d is not in conversation %s", requesterID, conversationID)
		return nil, chat.ErrNotParticipant
	}

	messages, err := s.msgRepo.History(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*dbmysql.Message{}
	}
	return messages, nil
}

func (s *chatService) ListConversations(ctx context.Context, userID uint64, primary bool) ([]*dbmysql.Conversation, error) {
	kind := dbmysql.KindSecondary
	if primary {
		kind = dbmysql.KindPrimary
	}
	return s.convRepo.ListForUser(ctx, userID, kind)
}

func (s *chatService) Conversation(ctx context.Context, conversationID string, requesterID uint64) (*dbmysql.Conversation, error) {
	conv, err := s.convRepo.ByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(requesterID) {
		return nil, chat.ErrNotParticipant
	}
	return conv, nil
}

func (s *chatService) conversationLock(conversationID string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(conversationID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
