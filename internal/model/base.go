package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 通用审计字段
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// VersionedModel 支持乐观锁的模型
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// BeforeCreate 新记录的 version 从 1 开始
func (m *VersionedModel) BeforeCreate(_ *gorm.DB) error {
	if m.Version == 0 {
		m.Version = 1
	}
	return nil
}
