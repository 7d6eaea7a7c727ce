package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mbeoliero/parley/internal/config"
	"github.com/mbeoliero/parley/internal/entity"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		Database: config.DatabaseConfig{
			Driver:      config.DriverSQLite,
			Path:        filepath.Join(t.TempDir(), "parley.db"),
			AutoMigrate: true,
		},
	}
	repos, err := NewRepositories(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return repos
}

func seedUser(t *testing.T, repos *Repositories, id, name string) *entity.User {
	t.Helper()
	u := &entity.User{Id: id, ExternalId: "ext-" + id, Email: id + "@example.com", DisplayName: name, CreatedAt: 1, UpdatedAt: 1}
	require.NoError(t, repos.User.Upsert(context.Background(), u))
	return u
}

func seedConversation(t *testing.T, repos *Repositories, id string, participants ...string) *entity.Conversation {
	t.Helper()
	conv := &entity.Conversation{Id: id, IsGroup: len(participants) > 2, GroupName: "g", CreatedBy: participants[0], CreatedAt: 1, UpdatedAt: 1, Participants: participants}
	err := repos.Transaction(context.Background(), func(tx *gorm.DB) error {
		return repos.Conversation.Create(context.Background(), tx, conv)
	})
	require.NoError(t, err)
	return conv
}

func TestCheckConnectionWithoutRedis(t *testing.T) {
	repos := newTestRepos(t)
	require.NoError(t, repos.CheckConnection(context.Background()))
}

func TestUserUpsertKeepsInternalId(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)

	first := &entity.User{Id: "1", ExternalId: "ext", Email: "a@x.io", DisplayName: "Ann", CreatedAt: 1, UpdatedAt: 1}
	require.NoError(t, repos.User.Upsert(ctx, first))

	second := &entity.User{Id: "2", ExternalId: "ext", Email: "ann@x.io", DisplayName: "Ann B", CreatedAt: 2, UpdatedAt: 2}
	require.NoError(t, repos.User.Upsert(ctx, second))

	got, err := repos.User.GetByExternalId(ctx, "ext")
	require.NoError(t, err)
	require.Equal(t, "1", got.Id)
	require.Equal(t, "ann@x.io", got.Email)
	require.Equal(t, "Ann B", got.DisplayName)
	require.Equal(t, int64(1), got.CreatedAt)

	missing, err := repos.User.GetById(ctx, "2")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestUserListSearch(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	seedUser(t, repos, "1", "Zoe")
	seedUser(t, repos, "2", "adam")
	seedUser(t, repos, "3", "Bob_Smith")

	all, err := repos.User.List(ctx, "ext-1", "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	byName, err := repos.User.List(ctx, "ext-1", "ADA")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	require.Equal(t, "2", byName[0].Id)

	byEmail, err := repos.User.List(ctx, "ext-2", "3@EXAMPLE")
	require.NoError(t, err)
	require.Len(t, byEmail, 1)

	literal, err := repos.User.List(ctx, "ext-1", "b_s")
	require.NoError(t, err)
	require.Len(t, literal, 1)

	none, err := repos.User.List(ctx, "ext-1", "%")
	require.NoError(t, err)
	require.Empty(t, none)

	seedUser(t, repos, "4", "Élodie")
	accented, err := repos.User.List(ctx, "ext-1", "ÉLO")
	require.NoError(t, err)
	require.Len(t, accented, 1)
	require.Equal(t, "4", accented[0].Id)

	// a renamed user is found under the new name only
	require.NoError(t, repos.User.Upsert(ctx, &entity.User{Id: "x", ExternalId: "ext-4", Email: "4@example.com", DisplayName: "Ödön", CreatedAt: 2, UpdatedAt: 2}))
	renamed, err := repos.User.List(ctx, "ext-1", "öDÖ")
	require.NoError(t, err)
	require.Len(t, renamed, 1)
	require.Equal(t, "4", renamed[0].Id)
	old, err := repos.User.List(ctx, "ext-1", "élo")
	require.NoError(t, err)
	require.Empty(t, old)
}

func TestCreateDirectReturnsExistingOnConflict(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	key := entity.GenDirectKey("a", "b")

	var firstId string
	err := repos.Transaction(ctx, func(tx *gorm.DB) error {
		conv, created, err := repos.Conversation.CreateDirect(ctx, tx, &entity.Conversation{
			Id: "c1", DirectKey: &key, CreatedBy: "a", CreatedAt: 1, UpdatedAt: 1, Participants: []string{"a", "b"},
		})
		require.True(t, created)
		firstId = conv.Id
		return err
	})
	require.NoError(t, err)

	err = repos.Transaction(ctx, func(tx *gorm.DB) error {
		conv, created, err := repos.Conversation.CreateDirect(ctx, tx, &entity.Conversation{
			Id: "c2", DirectKey: &key, CreatedBy: "b", CreatedAt: 2, UpdatedAt: 2, Participants: []string{"b", "a"},
		})
		require.False(t, created)
		require.Equal(t, firstId, conv.Id)
		require.Equal(t, []string{"a", "b"}, conv.Participants)
		return err
	})
	require.NoError(t, err)

	missing, err := repos.Conversation.GetById(ctx, nil, "c2")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestListByUser(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	seedConversation(t, repos, "c1", "a", "b")
	seedConversation(t, repos, "c2", "c", "a", "d")
	seedConversation(t, repos, "c3", "b", "c")

	convs, err := repos.Conversation.ListByUser(ctx, "a")
	require.NoError(t, err)
	require.Len(t, convs, 2)
	for _, c := range convs {
		require.True(t, c.HasParticipant("a"))
		if c.Id == "c2" {
			require.Equal(t, []string{"c", "a", "d"}, c.Participants)
		}
	}

	err = repos.Transaction(ctx, func(tx *gorm.DB) error {
		ok, err := repos.Conversation.Lock(ctx, tx, "c3", clause.LockingStrengthShare)
		require.True(t, ok)
		if err != nil {
			return err
		}
		ok, err = repos.Conversation.Lock(ctx, tx, "missing", clause.LockingStrengthUpdate)
		require.False(t, ok)
		return err
	})
	require.NoError(t, err)
}

func TestMessageOrderingAndUnread(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)

	for _, m := range []*entity.Message{
		{Id: "m2", ConversationId: "c", SenderId: "a", Content: "two", CreatedAt: 10},
		{Id: "m1", ConversationId: "c", SenderId: "b", Content: "one", CreatedAt: 10},
		{Id: "m3", ConversationId: "c", SenderId: "b", Content: "three", CreatedAt: 20},
		{Id: "x", ConversationId: "other", SenderId: "b", Content: "x", CreatedAt: 30},
	} {
		require.NoError(t, repos.Message.Create(ctx, nil, m))
	}

	msgs, err := repos.Message.ListByConversation(ctx, "c")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, []string{"m1", "m2", "m3"}, []string{msgs[0].Id, msgs[1].Id, msgs[2].Id})

	latest, err := repos.Message.GetLatest(ctx, "c")
	require.NoError(t, err)
	require.Equal(t, "m3", latest.Id)

	empty, err := repos.Message.GetLatest(ctx, "nothing")
	require.NoError(t, err)
	require.Nil(t, empty)

	unread, err := repos.Message.CountUnread(ctx, "c", "a", 0)
	require.NoError(t, err)
	require.Equal(t, int64(2), unread)

	unread, err = repos.Message.CountUnread(ctx, "c", "a", 10)
	require.NoError(t, err)
	require.Equal(t, int64(1), unread)

	require.NoError(t, repos.Message.MarkDeleted(ctx, "m1", 99))
	require.NoError(t, repos.Message.MarkDeleted(ctx, "m1", 100))
	m1, err := repos.Message.GetById(ctx, nil, "m1")
	require.NoError(t, err)
	require.True(t, m1.IsDeleted)
	require.Equal(t, int64(99), m1.UpdatedAt)
}

func TestReactionToggle(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	require.NoError(t, repos.Message.Create(ctx, nil, &entity.Message{Id: "m", ConversationId: "c", SenderId: "a", Content: "hi", CreatedAt: 1}))
	require.NoError(t, repos.Message.Create(ctx, nil, &entity.Message{Id: "elsewhere", ConversationId: "d", SenderId: "a", Content: "hi", CreatedAt: 1}))

	toggle := func(id string) bool {
		var active bool
		err := repos.Transaction(ctx, func(tx *gorm.DB) error {
			var err error
			active, err = repos.Reaction.Toggle(ctx, tx, &entity.Reaction{Id: id, MessageId: "m", UserId: "u", Emoji: "👍", CreatedAt: 1})
			return err
		})
		require.NoError(t, err)
		return active
	}

	require.True(t, toggle("r1"))
	require.False(t, toggle("r2"))
	require.True(t, toggle("r3"))
	require.NoError(t, repos.Transaction(ctx, func(tx *gorm.DB) error {
		_, err := repos.Reaction.Toggle(ctx, tx, &entity.Reaction{Id: "r4", MessageId: "elsewhere", UserId: "u", Emoji: "👍", CreatedAt: 2})
		return err
	}))

	grouped, err := repos.Reaction.GroupByConversation(ctx, "c")
	require.NoError(t, err)
	require.Len(t, grouped, 1)
	require.Len(t, grouped["m"], 1)
	require.Equal(t, 1, grouped["m"][0].Count)

	locked, err := repos.Message.GetForUpdate(ctx, repos.DB, "m")
	require.NoError(t, err)
	require.Equal(t, "c", locked.ConversationId)
	gone, err := repos.Message.GetForUpdate(ctx, repos.DB, "nope")
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestPresenceAndTypingWindows(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)

	require.NoError(t, repos.Presence.Touch(ctx, "a", 100))
	require.NoError(t, repos.Presence.Touch(ctx, "b", 50))
	require.NoError(t, repos.Presence.Touch(ctx, "b", 200))

	ids, err := repos.Presence.ListSeenAfter(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, ids)

	require.NoError(t, repos.Typing.Touch(ctx, nil, "c", "a", 10))
	require.NoError(t, repos.Typing.Touch(ctx, nil, "c", "b", 10))
	require.NoError(t, repos.Typing.Touch(ctx, nil, "c", "b", 12))

	typing, err := repos.Typing.ListTypedAfter(ctx, "c", "a", 9)
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, typing)

	count, err := repos.Typing.CountByConversation(ctx, "c")
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestReceiptNeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)

	advance := func(at int64) {
		require.NoError(t, repos.Transaction(ctx, func(tx *gorm.DB) error {
			return repos.Receipt.Advance(ctx, tx, "c", "u", at)
		}))
	}

	none, err := repos.Receipt.Get(ctx, "c", "u")
	require.NoError(t, err)
	require.Nil(t, none)

	advance(10)
	advance(5)
	got, err := repos.Receipt.Get(ctx, "c", "u")
	require.NoError(t, err)
	require.Equal(t, int64(10), got.LastReadTime)

	advance(20)
	got, err = repos.Receipt.Get(ctx, "c", "u")
	require.NoError(t, err)
	require.Equal(t, int64(20), got.LastReadTime)

	// concurrent writers settle on the largest value whatever the order
	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = repos.Receipt.Advance(ctx, nil, "c", "v", int64(100-i))
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	got, err = repos.Receipt.Get(ctx, "c", "v")
	require.NoError(t, err)
	require.Equal(t, int64(100), got.LastReadTime)
}
