package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type KBDocument struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SourceId     string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Title        string    `gorm:"type:text;not null"`
	Folder       string    `gorm:"type:varchar(255);index"`
	Content      string    `gorm:"type:text"`
	TokenCount   int       `gorm:"default:0"`
	IsContext    bool      `gorm:"default:false;index"`
	LastSyncedAt *time.Time
	SyncError    string         `gorm:"type:text"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (KBDocument) TableName() string {
	return "kb_documents"
}
