package model

import "time"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is one turn of a chat room. It is never updated after creation.
type Message struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ChatRoomID   string    `gorm:"type:varchar(36);not null;index:idx_chat_room_id_created_at" json:"chatroom_id"`
	Role         Role      `gorm:"type:varchar(16);not null" json:"role"`
	Content      string    `gorm:"type:text" json:"content"`
	CreatedAt    time.Time `gorm:"index:idx_chat_room_id_created_at" json:"created_at"`
	InputTokens  *int64    `json:"input_tokens"`
	OutputTokens *int64    `json:"output_tokens"`
	// Interrupted marks an assistant turn saved from a stream the caller abandoned.
	Interrupted bool `gorm:"default:false" json:"interrupted"`
}
