package models

import (
	"time"
)

type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_msg_vote" json:"user_id"`
	MessageID uint      `gorm:"not null;index;uniqueIndex:idx_msg_vote" json:"message_id"`
	Value     int       `gorm:"not null" json:"value"` // 1 or -1
	CreatedAt time.Time `json:"created_at"`
}

// (user_id, message_id) 唯一索引保证每人每条消息至多一票，
// 重复投票走 update 而不是 insert。
