package models

import (
	"time"
)

type Message struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Mid          string    `gorm:"uniqueIndex;size:8;not null" json:"mid"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	AuthorName   string    `gorm:"not null" json:"author_name"` // 冗余的作者展示名，改名时级联刷新
	Content      string    `gorm:"type:text;not null" json:"content"`
	PartitionKey string    `gorm:"not null;index" json:"partition_key"` // "{x}:{y}_{yyyy-MM-dd}"
	DayKey       string    `gorm:"size:10;not null;index" json:"day_key"` // 从 PartitionKey 冗余，热力图按它过滤
	ParentID     *uint     `gorm:"index" json:"parent_id"` // Nullable for top-level messages
	CreatedAt    time.Time `json:"created_at"`
	// No UpdatedAt: message text is never edited in place

	// 非数据库字段，用于查询时填充
	Upvotes    int `gorm:"-" json:"upvotes"`
	Downvotes  int `gorm:"-" json:"downvotes"`
	ViewerVote int `gorm:"-" json:"viewer_vote"` // 当前查看者的投票值，0 表示未投
}

// Score 消息得分 = 赞 - 踩，不落库，始终由 Vote 表推导
func (m *Message) Score() int {
	return m.Upvotes - m.Downvotes
}
