package repository

import (
	"context"

	"gorm.io/gorm"

	"doubtdesk/internal/dbmysql"
)

type MessageRepository interface {
	Append(ctx context.Context, msg *dbmysql.Message) error
	History(ctx context.Context, conversationID string) ([]*dbmysql.Message, error)
}

type messageRepo struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Append(ctx context.Context, msg *dbmysql.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// History returns all messages of a conversation, newest first. The id
// tie-break keeps the order stable when timestamps collide.
func (r *messageRepo) History(ctx context.Context, conversationID string) ([]*dbmysql.Message, error) {
	var messages []*dbmysql.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		Find(&messages).Error
	return messages, err
}
