package dbmysql

import (
	"time"
)

type ConversationKind string

const (
	KindPrimary   ConversationKind = "primary"
	KindSecondary ConversationKind = "secondary"
)

// Conversation is a 1:1 mentor chat. Participants are fixed at creation.
//
// PrimarySlot is 1 for primary conversations and NULL for secondary ones;
// since NULLs never collide in a MySQL unique index, idx_one_primary allows
// any number of secondary conversations per (student, subject) but at most
// one primary.
type Conversation struct {
	ID            string           `gorm:"primaryKey;size:36" json:"id"`
	Subject       string           `gorm:"index;size:100;not null;uniqueIndex:idx_one_primary" json:"subject"`
	Kind          ConversationKind `gorm:"type:enum('primary','secondary');default:'secondary'" json:"kind"`
	PrimarySlot   *uint8           `gorm:"uniqueIndex:idx_one_primary" json:"-"`
	StudentID     uint64           `gorm:"index;not null;uniqueIndex:idx_one_primary" json:"student_id"`
	MentorID      uint64           `gorm:"index;not null" json:"mentor_id"`
	LastMessageID *uint64          `gorm:"column:last_message_id" json:"last_message_id,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NewPrimarySlot returns the PrimarySlot value for the given kind.
func NewPrimarySlot(kind ConversationKind) *uint8 {
	if kind != KindPrimary {
		return nil
	}
	one := uint8(1)
	return &one
}

// Participants returns the fixed participant pair, student first.
func (c *Conversation) Participants() []uint64 {
	return []uint64{c.StudentID, c.MentorID}
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID uint64) bool {
	return userID == c.StudentID || userID == c.MentorID
}
