package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByDocumentId filters chunks by their owning document
type ByDocumentId struct {
	DocumentId uuid.UUID
}

func (s ByDocumentId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentId)
}

// BySourceId filters documents by their external source id
type BySourceId struct {
	SourceId string
}

func (s BySourceId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source_id = ?", s.SourceId)
}

// ContextOnly selects always-loaded context documents
type ContextOnly struct{}

func (s ContextOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_context = ?", true)
}

// ByFolder filters documents by folder tag
type ByFolder struct {
	Folder string
}

func (s ByFolder) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("folder = ?", s.Folder)
}
