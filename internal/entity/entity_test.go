package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mbeoliero/parley/pkg/constant"
)

func TestGenDirectKeyOrderIndependent(t *testing.T) {
	require.Equal(t, GenDirectKey("a", "b"), GenDirectKey("b", "a"))
	require.Equal(t, "100:200", GenDirectKey("200", "100"))
}

func TestWindowCutoffBoundaries(t *testing.T) {
	const now = int64(1_000_000)
	cutoff := WindowCutoff(now, 30*time.Second)

	require.Equal(t, now-30_000, cutoff)
	require.Greater(t, now-29_999, cutoff)
	require.False(t, now-30_000 > cutoff)
}

func TestIsSeenInclusive(t *testing.T) {
	require.True(t, IsSeen(5, 5))
	require.True(t, IsSeen(10, 5))
	require.False(t, IsSeen(4, 5))
	require.False(t, IsSeen(0, 1))
}

func TestDeletedMessageProjection(t *testing.T) {
	m := &Message{Id: "1", Content: "secret", IsDeleted: true, Type: constant.MsgTypeText}
	info := m.ToMessageInfo()

	require.Equal(t, constant.DeletedMessagePlaceholder, info.Content)
	require.True(t, info.IsDeleted)
	require.Empty(t, info.Reactions)

	m.IsDeleted = false
	require.Equal(t, "secret", m.ToMessageInfo().Content)
}

func TestGroupReactionsFirstSeenOrder(t *testing.T) {
	groups := GroupReactions([]*Reaction{
		{UserId: "u1", Emoji: "😂"},
		{UserId: "u2", Emoji: "👍"},
		{UserId: "u3", Emoji: "😂"},
	})

	require.Len(t, groups, 2)
	require.Equal(t, "😂", groups[0].Emoji)
	require.Equal(t, 2, groups[0].Count)
	require.Equal(t, []string{"u1", "u3"}, groups[0].UserIds)
	require.Equal(t, "👍", groups[1].Emoji)
	require.Empty(t, GroupReactions(nil))
}

func TestAllowedEmoji(t *testing.T) {
	for _, e := range AllowedEmojis {
		require.True(t, IsAllowedEmoji(e))
	}
	require.False(t, IsAllowedEmoji("🔥"))
	require.False(t, IsAllowedEmoji(""))
}

func TestConversationParticipants(t *testing.T) {
	c := &Conversation{Participants: []string{"a", "b", "c"}}
	require.True(t, c.HasParticipant("b"))
	require.False(t, c.HasParticipant("z"))
	require.Equal(t, []string{"a", "c"}, c.OtherParticipants("b"))
}

func TestSummarySortTime(t *testing.T) {
	s := &ConversationSummary{ConversationInfo: &ConversationInfo{CreatedAt: 10}}
	require.Equal(t, int64(10), s.SortTime())

	s.LastMessage = &MessageInfo{CreatedAt: 42}
	require.Equal(t, int64(42), s.SortTime())
}
