package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"doubtdesk/internal/chat"
	"doubtdesk/internal/dbmysql"
	"doubtdesk/internal/directory"
)

type ConversationRepository interface {
	ByID(ctx context.Context, id string) (*dbmysql.Conversation, error)
	MentorChats(ctx context.Context, studentID uint64, subject string) ([]*dbmysql.Conversation, error)
	ListForUser(ctx context.Context, userID uint64, kind dbmysql.ConversationKind) ([]*dbmysql.Conversation, error)
	CreateAssigned(ctx context.Context, conv *dbmysql.Conversation) error
	TouchLastMessage(ctx context.Context, conversationID string, messageID uint64) error
}

type conversationRepo struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) ByID(ctx context.Context, id string) (*dbmysql.Conversation, error) {
	var conv dbmysql.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, chat.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// MentorChats returns the student's existing conversations for a subject,
// oldest first, so the engine favors continuity with the earliest mentor.
func (r *conversationRepo) MentorChats(ctx context.Context, studentID uint64, subject string) ([]*dbmysql.Conversation, error) {
	var convs []*dbmysql.Conversation
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND subject = ?", studentID, subject).
		Order("created_at ASC").
		Find(&convs).Error
	return convs, err
}

// ListForUser returns conversations the user participates in, most recently
// active first. An empty result is reported as ErrNotFound; callers treat it
// as a "no chats yet" signal rather than a failure.
func (r *conversationRepo) ListForUser(ctx context.Context, userID uint64, kind dbmysql.ConversationKind) ([]*dbmysql.Conversation, error) {
	var convs []*dbmysql.Conversation
	err := r.db.WithContext(ctx).
		Where("(student_id = ? OR mentor_id = ?) AND kind = ?", userID, userID, kind).
		Order("updated_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return nil, chat.ErrNotFound
	}
	return convs, nil
}

// CreateAssigned persists a freshly assigned conversation and bumps the chosen
// mentor's load counter in the same transaction, so a failed insert (including
// a unique-index violation on a duplicate primary) leaves the counter alone.
func (r *conversationRepo) CreateAssigned(ctx context.Context, conv *dbmysql.Conversation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		return directory.IncrementLoad(tx, conv.MentorID)
	})
}

func (r *conversationRepo) TouchLastMessage(ctx context.Context, conversationID string, messageID uint64) error {
	return r.db.WithContext(ctx).Model(&dbmysql.Conversation{}).
		Where("id = ?", conversationID).
		Update("last_message_id", messageID).Error
}
