package domain

import "time"

// Channel represents a Telegram channel the bot administers and whose
// membership is required to write in guarded chats
type Channel struct {
	ID         int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	TelegramID int64   `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Title      string  `gorm:"not null" json:"title"`
	InviteLink *string `json:"invite_link,omitempty"`
	IsActive   bool    `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the table name stable across gorm naming strategies
func (Channel) TableName() string {
	return "channels"
}
