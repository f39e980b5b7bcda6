package dbmysql

import (
	"time"
)

// Message is append-only. The auto-increment ID doubles as the tie-break when
// two messages land with the same CreatedAt, so the store stays the ordering
// authority within a conversation.
type Message struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID string    `gorm:"index;size:36;not null" json:"conversation_id"`
	SenderID       uint64    `gorm:"index;not null" json:"sender_id"`
	Content        string    `gorm:"type:text" json:"content"`
	Attachments    []string  `gorm:"type:json;serializer:json" json:"attachments,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}
