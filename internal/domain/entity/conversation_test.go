package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationKeySymmetry(t *testing.T) {
	pairs := [][2]string{
		{"u1", "u2"},
		{"alice", "bob"},
		{"zz", "aa"},
		{"user-123", "user-045"},
	}

	for _, pair := range pairs {
		assert.Equal(t, ConversationKey(pair[0], pair[1]), ConversationKey(pair[1], pair[0]))
	}
}

func TestConversationKeyOrdering(t *testing.T) {
	assert.Equal(t, "u1_u2", ConversationKey("u1", "u2"))
	assert.Equal(t, "u1_u2", ConversationKey("u2", "u1"))
	assert.Equal(t, "aa_zz", ConversationKey("zz", "aa"))
}

func TestConversationKeySelfChat(t *testing.T) {
	assert.Equal(t, "u1_u1", ConversationKey("u1", "u1"))
}

func TestKeyNamesParticipant(t *testing.T) {
	assert.True(t, KeyNamesParticipant("u1_u2", "u1"))
	assert.True(t, KeyNamesParticipant("u1_u2", "u2"))
	assert.False(t, KeyNamesParticipant("u1_u2", "u3"))
	assert.False(t, KeyNamesParticipant("u1_u2", ""))
	assert.True(t, KeyNamesParticipant("u1_u1", "u1"))
}

func TestOtherParticipant(t *testing.T) {
	assert.Equal(t, "u2", OtherParticipant([]string{"u1", "u2"}, "u1"))
	assert.Equal(t, "u1", OtherParticipant([]string{"u1", "u2"}, "u2"))
	assert.Equal(t, "", OtherParticipant([]string{"u1"}, "u1"))
	assert.Equal(t, "", OtherParticipant(nil, "u1"))
}

func TestStatusAdvances(t *testing.T) {
	assert.True(t, StatusAdvances(MessageStatusSent, MessageStatusDelivered))
	assert.True(t, StatusAdvances(MessageStatusSent, MessageStatusRead))
	assert.True(t, StatusAdvances(MessageStatusDelivered, MessageStatusRead))

	// Re-applying or regressing never advances.
	assert.False(t, StatusAdvances(MessageStatusRead, MessageStatusRead))
	assert.False(t, StatusAdvances(MessageStatusRead, MessageStatusSent))
	assert.False(t, StatusAdvances(MessageStatusDelivered, MessageStatusSent))
	assert.False(t, StatusAdvances("bogus", MessageStatusRead))
	assert.False(t, StatusAdvances(MessageStatusSent, "bogus"))
}
