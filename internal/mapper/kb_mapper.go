package mapper

import (
	"time"

	"commandcenter-be/internal/entity"
	"commandcenter-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type KBMapper struct{}

func NewKBMapper() *KBMapper {
	return &KBMapper{}
}

// Document mappers

func (m *KBMapper) DocumentToEntity(d *model.KBDocument) *entity.Document {
	if d == nil {
		return nil
	}

	var deletedAt *time.Time
	if d.DeletedAt.Valid {
		t := d.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	return &entity.Document{
		Id:           d.Id,
		SourceId:     d.SourceId,
		Title:        d.Title,
		Folder:       d.Folder,
		Content:      d.Content,
		TokenCount:   d.TokenCount,
		IsContext:    d.IsContext,
		LastSyncedAt: d.LastSyncedAt,
		SyncError:    d.SyncError,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
		IsDeleted:    d.DeletedAt.Valid,
	}
}

func (m *KBMapper) DocumentToModel(d *entity.Document) *model.KBDocument {
	if d == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if d.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	} else if d.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	return &model.KBDocument{
		Id:           d.Id,
		SourceId:     d.SourceId,
		Title:        d.Title,
		Folder:       d.Folder,
		Content:      d.Content,
		TokenCount:   d.TokenCount,
		IsContext:    d.IsContext,
		LastSyncedAt: d.LastSyncedAt,
		SyncError:    d.SyncError,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}

// Chunk mappers

func (m *KBMapper) ChunkToEntity(c *model.KBChunk) *entity.Chunk {
	if c == nil {
		return nil
	}

	var deletedAt *time.Time
	if c.DeletedAt.Valid {
		t := c.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Chunk{
		Id:         c.Id,
		DocumentId: c.DocumentId,
		ChunkIndex: c.ChunkIndex,
		Content:    c.Content,
		TokenCount: c.TokenCount,
		Embedding:  c.Embedding.Slice(),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
		IsDeleted:  c.DeletedAt.Valid,
	}
}

func (m *KBMapper) ChunkToModel(c *entity.Chunk) *model.KBChunk {
	if c == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if c.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *c.DeletedAt, Valid: true}
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.KBChunk{
		Id:         c.Id,
		DocumentId: c.DocumentId,
		ChunkIndex: c.ChunkIndex,
		Content:    c.Content,
		TokenCount: c.TokenCount,
		Embedding:  pgvector.NewVector(c.Embedding),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
	}
}
