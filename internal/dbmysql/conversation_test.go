package dbmysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrimarySlot(t *testing.T) {
	slot := NewPrimarySlot(KindPrimary)
	require.NotNil(t, slot)
	assert.Equal(t, uint8(1), *slot)

	assert.Nil(t, NewPrimarySlot(KindSecondary))
}

func TestConversation_Participants(t *testing.T) {
	conv := &Conversation{ID: "conv-123", StudentID: 7, MentorID: 42}

	assert.Equal(t, []uint64{7, 42}, conv.Participants())

	assert.True(t, conv.HasParticipant(7))
	assert.True(t, conv.HasParticipant(42))
	assert.False(t, conv.HasParticipant(99))
}
