package model

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	store := NewStore(db)
	clock := time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return store
}

func int64Ptr(v int64) *int64 { return &v }

func TestChatRoomLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	room, err := store.CreateChatRoom(ctx, ChatRoom{
		Title:        "hello",
		Provider:     "openai",
		ModelID:      "gpt-4o",
		SystemPrompt: "be terse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, room.CreatedAt, room.UpdatedAt)

	got, err := store.GetChatRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "be terse", got.SystemPrompt)
	assert.Equal(t, "gpt-4o", got.ModelID)

	require.NoError(t, store.TouchChatRoom(ctx, room.ID))
	touched, err := store.GetChatRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, touched.UpdatedAt.After(got.UpdatedAt))
}

func TestGetChatRoomNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetChatRoom(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.TouchChatRoom(context.Background(), "missing"), ErrNotFound)
}

func TestListChatRoomsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first, err := store.CreateChatRoom(ctx, ChatRoom{Title: "first", Provider: "openai", ModelID: "m"})
	require.NoError(t, err)
	second, err := store.CreateChatRoom(ctx, ChatRoom{Title: "second", Provider: "openai", ModelID: "m"})
	require.NoError(t, err)
	require.NoError(t, store.TouchChatRoom(ctx, first.ID))

	rooms, err := store.ListChatRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, first.ID, rooms[0].ID)
	assert.Equal(t, second.ID, rooms[1].ID)
}

func TestMessagesOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	room, err := store.CreateChatRoom(ctx, ChatRoom{Title: "t", Provider: "anthropic", ModelID: "claude"})
	require.NoError(t, err)

	_, err = store.CreateMessage(ctx, Message{ChatRoomID: room.ID, Role: RoleUser, Content: "hi"})
	require.NoError(t, err)
	_, err = store.CreateMessage(ctx, Message{
		ChatRoomID:   room.ID,
		Role:         RoleAssistant,
		Content:      "hello",
		InputTokens:  int64Ptr(3),
		OutputTokens: int64Ptr(1),
	})
	require.NoError(t, err)
	_, err = store.CreateMessage(ctx, Message{ChatRoomID: room.ID, Role: RoleUser, Content: "bye"})
	require.NoError(t, err)

	messages, err := store.ListMessages(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, []string{"hi", "hello", "bye"}, []string{messages[0].Content, messages[1].Content, messages[2].Content})
	assert.Nil(t, messages[0].InputTokens)
	assert.Nil(t, messages[0].OutputTokens)
	require.NotNil(t, messages[1].OutputTokens)
	assert.Equal(t, int64(1), *messages[1].OutputTokens)
}

func TestCreateMessageRejectsUnknownRole(t *testing.T) {
	store := newTestStore(t)
	_, err := store.CreateMessage(context.Background(), Message{ChatRoomID: "x", Role: "tool", Content: "c"})
	assert.Error(t, err)
}

func TestUpdateChatRoomTitle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	room, err := store.CreateChatRoom(ctx, ChatRoom{Title: "old", Provider: "openai", ModelID: "m", SystemPrompt: "keep"})
	require.NoError(t, err)

	renamed, err := store.UpdateChatRoomTitle(ctx, room.ID, "new")
	require.NoError(t, err)
	assert.Equal(t, "new", renamed.Title)

	got, err := store.GetChatRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)
	assert.Equal(t, "keep", got.SystemPrompt)
	assert.True(t, got.UpdatedAt.After(room.UpdatedAt))

	_, err = store.UpdateChatRoomTitle(ctx, "missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteChatRoomRemovesMessages(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	doomed, err := store.CreateChatRoom(ctx, ChatRoom{Title: "doomed", Provider: "openai", ModelID: "m"})
	require.NoError(t, err)
	kept, err := store.CreateChatRoom(ctx, ChatRoom{Title: "kept", Provider: "openai", ModelID: "m"})
	require.NoError(t, err)
	for _, roomID := range []string{doomed.ID, doomed.ID, kept.ID} {
		_, err := store.CreateMessage(ctx, Message{ChatRoomID: roomID, Role: RoleUser, Content: "hi"})
		require.NoError(t, err)
	}

	require.NoError(t, store.DeleteChatRoom(ctx, doomed.ID))

	_, err = store.GetChatRoom(ctx, doomed.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	messages, err := store.ListMessages(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)

	messages, err = store.ListMessages(ctx, kept.ID)
	require.NoError(t, err)
	assert.Len(t, messages, 1)

	assert.ErrorIs(t, store.DeleteChatRoom(ctx, doomed.ID), ErrNotFound)
}
