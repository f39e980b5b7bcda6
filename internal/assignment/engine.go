// Package assignment owns the mentor load-balancing policy: reuse a student's
// existing conversation when its mentor is available, otherwise open a new one
// with the least-loaded eligible mentor.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"doubtdesk/internal/chat"
	"doubtdesk/internal/chat/repository"
	"doubtdesk/internal/dbmysql"
	"doubtdesk/internal/directory"
	"doubtdesk/internal/realtime"
)

type Engine interface {
	GetOrCreateMentorChat(ctx context.Context, studentID uint64, subject string) (*dbmysql.Conversation, error)
}

type engine struct {
	convRepo repository.ConversationRepository
	dir      directory.Directory
	broker   realtime.Broker

	// concurrent calls for the same (student, subject) collapse onto one
	// assignment; the unique primary index backstops races across processes
	group singleflight.Group
}

func NewEngine(convRepo repository.ConversationRepository, dir directory.Directory, broker realtime.Broker) Engine {
	return &engine{convRepo: convRepo, dir: dir, broker: broker}
}

func (e *engine) GetOrCreateMentorChat(ctx context.Context, studentID uint64, subject string) (*dbmysql.Conversation, error) {
	key := fmt.Sprintf("%d:%s", studentID, subject)
	v, err, _ := e.group.Do(key, func() (interface{}, error) {
		return e.assign(ctx, studentID, subject)
	})
	if err != nil {
		return nil, err
	}
	return v.(*dbmysql.Conversation), nil
}

func (e *engine) assign(ctx context.Context, studentID uint64, subject string) (*dbmysql.Conversation, error) {
	existing, err := e.convRepo.MentorChats(ctx, studentID, subject)
	if err != nil {
		return nil, fmt.Errorf("lookup mentor chats: %w", err)
	}

	// Continuity first: the oldest conversation whose mentor is currently
	// available wins over any reassignment.
	for _, conv := range existing {
		mentor, err := e.dir.User(ctx, conv.MentorID)
		if err != nil {
			if errors.Is(err, chat.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("lookup mentor %d: %w", conv.MentorID, err)
		}
		if mentor.OnLeave {
			continue
		}
		if mentor.OnBreak {
			continue
		}
		return conv, nil
	}

	// Re-evaluated on every call; mentor load and flags change between calls.
	mentor, err := e.dir.PickMentor(ctx, subject)
	if err != nil {
		return nil, err
	}

	kind := dbmysql.KindSecondary
	if len(existing) == 0 {
		kind = dbmysql.KindPrimary
	}

	conv := &dbmysql.Conversation{
		ID:          uuid.NewString(),
		Subject:     subject,
		Kind:        kind,
		PrimarySlot: dbmysql.NewPrimarySlot(kind),
		StudentID:   studentID,
		MentorID:    mentor.UserID,
	}
	if err := e.convRepo.CreateAssigned(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	log.Printf("✓ assigned student %d to mentor %d for %q (%s, load was %d)",
		studentID, mentor.UserID, subject, kind, mentor.StudentCount)

	e.notifyMentor(ctx, conv)

	return conv, nil
}

// notifyMentor pushes a NewConversation event to the mentor's identity room so
// their client shows the chat without polling. Best effort: the conversation
// is already durable.
func (e *engine) notifyMentor(ctx context.Context, conv *dbmysql.Conversation) {
	frame := realtime.Marshal(realtime.ConversationFrame{
		Type:           realtime.FrameNewConversation,
		ConversationID: conv.ID,
		Subject:        conv.Subject,
		Kind:           string(conv.Kind),
		StudentID:      conv.StudentID,
	})
	err := e.broker.Publish(ctx, realtime.Event{
		Rooms:   []string{realtime.UserRoom(conv.MentorID)},
		Payload: frame,
	})
	if err != nil {
		log.Printf("⚠ failed to notify mentor %d of conversation %s: %v", conv.MentorID, conv.ID, err)
	}
}
