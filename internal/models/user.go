package models

import (
	"time"
)

type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"not null" json:"username"`      // 展示名，可修改
	UsernameLower string    `gorm:"uniqueIndex;not null" json:"-"` // 小写形式，唯一约束在这里兜底
	Password      string    `gorm:"not null" json:"-"`             // Hash
	Avatar        string    `gorm:"default:🌱" json:"avatar"`       // emoji 头像
	Provider      string    `gorm:"size:20" json:"provider"`       // 身份提供方，如 "google"
	ProviderID    string    `gorm:"index" json:"-"`                // 提供方侧的用户标识
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	// No DeletedAt for hard delete
}
