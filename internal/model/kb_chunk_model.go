package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type KBChunk struct {
	Id         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId uuid.UUID       `gorm:"type:uuid;not null;index"`
	ChunkIndex int             `gorm:"default:0"` // 0-based position within the document
	Content    string          `gorm:"type:text"`
	TokenCount int             `gorm:"default:0"`
	Embedding  pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 / nomic dimensions
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt  `gorm:"index"`
}

func (KBChunk) TableName() string {
	return "kb_chunks"
}
