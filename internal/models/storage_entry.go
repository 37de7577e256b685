package models

import (
	"time"
)

// StorageEntry 键值存储记录（离线状态、模式开关等JSON数据）
type StorageEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:storage_key;uniqueIndex;size:128;not null" json:"key"`
	Value     string    `gorm:"type:text" json:"value"` // JSON格式的数据
	Size      int       `gorm:"not null;default:0" json:"size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (StorageEntry) TableName() string {
	return "storage_entries"
}
