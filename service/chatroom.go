package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"relaychat/model"
)

const maxTitleLength = 255

type ChatRoomStore interface {
	ListChatRooms(ctx context.Context) ([]model.ChatRoom, error)
	GetChatRoom(ctx context.Context, id string) (model.ChatRoom, error)
	ListMessages(ctx context.Context, chatRoomID string) ([]model.Message, error)
	UpdateChatRoomTitle(ctx context.Context, id, title string) (model.ChatRoom, error)
	DeleteChatRoom(ctx context.Context, id string) error
}

// ChatRoomService lists, renames and deletes chat rooms.
type ChatRoomService struct {
	store ChatRoomStore
}

func NewChatRoomService(store ChatRoomStore) *ChatRoomService {
	return &ChatRoomService{store: store}
}

func (s *ChatRoomService) List(ctx context.Context) ([]model.ChatRoom, error) {
	rooms, err := s.store.ListChatRooms(ctx)
	if err != nil {
		return nil, persistenceError("list chat rooms", err)
	}
	return rooms, nil
}

func (s *ChatRoomService) Get(ctx context.Context, id string) (model.ChatRoom, error) {
	room, err := s.store.GetChatRoom(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.ChatRoom{}, &NotFoundError{Resource: "chat room", ID: id}
	}
	if err != nil {
		return model.ChatRoom{}, persistenceError("load chat room", err)
	}
	return room, nil
}

func (s *ChatRoomService) Messages(ctx context.Context, id string) ([]model.Message, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	messages, err := s.store.ListMessages(ctx, id)
	if err != nil {
		return nil, persistenceError("list messages", err)
	}
	return messages, nil
}

// Rename sets a new title. The title is trimmed and must be 1 to 255 characters.
func (s *ChatRoomService) Rename(ctx context.Context, id, title string) (model.ChatRoom, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.ChatRoom{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return model.ChatRoom{}, &ValidationError{Field: "title", Reason: "must be at most 255 characters"}
	}
	room, err := s.store.UpdateChatRoomTitle(ctx, id, title)
	if errors.Is(err, model.ErrNotFound) {
		return model.ChatRoom{}, &NotFoundError{Resource: "chat room", ID: id}
	}
	if err != nil {
		return model.ChatRoom{}, persistenceError("rename chat room", err)
	}
	return room, nil
}

// Delete removes the chat room and all of its messages.
func (s *ChatRoomService) Delete(ctx context.Context, id string) error {
	err := s.store.DeleteChatRoom(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return &NotFoundError{Resource: "chat room", ID: id}
	}
	if err != nil {
		return persistenceError("delete chat room", err)
	}
	return nil
}
