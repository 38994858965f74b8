package model

import "time"

// ChatRoom is a provider/model bound conversation.
type ChatRoom struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	Provider     string    `gorm:"type:varchar(50);not null" json:"provider"`
	ModelID      string    `gorm:"type:varchar(100);not null" json:"model_id"`
	SystemPrompt string    `gorm:"type:text" json:"system_prompt"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `gorm:"index" json:"updated_at"`
}
