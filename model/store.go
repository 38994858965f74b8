package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Store persists chat rooms and their messages.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// newID returns a time ordered id so that messages created within the same
// timestamp still sort by creation.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (s *Store) CreateChatRoom(ctx context.Context, room ChatRoom) (ChatRoom, error) {
	id, err := newID()
	if err != nil {
		return ChatRoom{}, fmt.Errorf("generate chat room id: %w", err)
	}
	now := s.now()
	room.ID = id
	room.CreatedAt = now
	room.UpdatedAt = now
	if err := s.db.WithContext(ctx).Create(&room).Error; err != nil {
		return ChatRoom{}, fmt.Errorf("create chat room: %w", err)
	}
	return room, nil
}

func (s *Store) GetChatRoom(ctx context.Context, id string) (ChatRoom, error) {
	var room ChatRoom
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ChatRoom{}, ErrNotFound
		}
		return ChatRoom{}, fmt.Errorf("query chat room: %w", err)
	}
	return room, nil
}

func (s *Store) ListChatRooms(ctx context.Context) ([]ChatRoom, error) {
	var rooms []ChatRoom
	if err := s.db.WithContext(ctx).Order("updated_at DESC").Order("id DESC").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("list chat rooms: %w", err)
	}
	return rooms, nil
}

// TouchChatRoom sets the chat room's updated_at to now.
func (s *Store) TouchChatRoom(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Model(&ChatRoom{}).Where("id = ?", id).Update("updated_at", s.now())
	if result.Error != nil {
		return fmt.Errorf("touch chat room: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// mysql reports zero changed rows when the timestamp did not move
		var count int64
		if err := s.db.WithContext(ctx).Model(&ChatRoom{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("touch chat room: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// UpdateChatRoomTitle renames the chat room and moves its updated_at.
func (s *Store) UpdateChatRoomTitle(ctx context.Context, id, title string) (ChatRoom, error) {
	room, err := s.GetChatRoom(ctx, id)
	if err != nil {
		return ChatRoom{}, err
	}
	room.Title = title
	room.UpdatedAt = s.now()
	err = s.db.WithContext(ctx).Model(&ChatRoom{}).Where("id = ?", id).
		Updates(map[string]any{"title": room.Title, "updated_at": room.UpdatedAt}).Error
	if err != nil {
		return ChatRoom{}, fmt.Errorf("update chat room: %w", err)
	}
	return room, nil
}

// DeleteChatRoom removes the chat room together with its messages.
func (s *Store) DeleteChatRoom(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_room_id = ?", id).Delete(&Message{}).Error; err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&ChatRoom{})
		if result.Error != nil {
			return fmt.Errorf("delete chat room: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) CreateMessage(ctx context.Context, msg Message) (Message, error) {
	if !msg.Role.Valid() {
		return Message{}, fmt.Errorf("invalid message role %q", msg.Role)
	}
	id, err := newID()
	if err != nil {
		return Message{}, fmt.Errorf("generate message id: %w", err)
	}
	msg.ID = id
	msg.CreatedAt = s.now()
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return Message{}, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

// ListMessages returns the chat room's messages oldest first.
func (s *Store) ListMessages(ctx context.Context, chatRoomID string) ([]Message, error) {
	var messages []Message
	err := s.db.WithContext(ctx).
		Where("chat_room_id = ?", chatRoomID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}
