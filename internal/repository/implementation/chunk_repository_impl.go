package implementation

import (
	"context"

	"commandcenter-be/internal/entity"
	"commandcenter-be/internal/mapper"
	"commandcenter-be/internal/model"
	"commandcenter-be/internal/repository/contract"
	"commandcenter-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KBMapper
}

func NewChunkRepository(db *gorm.DB) contract.ChunkRepository {
	return &ChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewKBMapper(),
	}
}

func (r *ChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.KBChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ChunkToModel(c)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*chunks[i] = *r.mapper.ChunkToEntity(m)
	}
	return nil
}

// DeleteByDocumentId hard-deletes a document's chunks. Re-sync replaces
// chunks inside one transaction, so stale soft-deleted rows would only
// pollute the vector index.
func (r *ChunkRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Where("document_id = ?", documentId).Delete(&model.KBChunk{}).Error
}

func (r *ChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error) {
	var models []*model.KBChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Chunk, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ChunkToEntity(m)
	}
	return entities, nil
}

func (r *ChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.KBChunk{}).Count(&count).Error
	return count, err
}

// SearchSimilar ranks chunks by pgvector cosine distance and converts to
// similarity: 1 - (embedding <=> query). The raw score is returned untouched;
// relevance cutoffs are the caller's decision.
func (r *ChunkRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.KBChunk
		Similarity  float64
		SourceTitle string
		Folder      string
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("kb_chunks").
		Select("kb_chunks.*, kb_documents.title as source_title, kb_documents.folder as folder, 1 - (embedding <=> ?) as similarity", queryVector).
		Joins("JOIN kb_documents ON kb_documents.id = kb_chunks.document_id").
		Where("kb_chunks.deleted_at IS NULL").
		Where("kb_documents.deleted_at IS NULL").
		Order(gorm.Expr("embedding <=> ?", queryVector)).
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredChunk, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredChunk{
			Chunk:       r.mapper.ChunkToEntity(&res.KBChunk),
			Similarity:  res.Similarity,
			SourceTitle: res.SourceTitle,
			Folder:      res.Folder,
		}
	}
	return scored, nil
}

// FindContextChunks loads the always-available context chunks in a stable
// order: document creation order, then chunk index. Stable ordering keeps
// LoadContext output byte-identical across calls.
func (r *ChunkRepositoryImpl) FindContextChunks(ctx context.Context) ([]*contract.ContextChunk, error) {
	type result struct {
		model.KBChunk
		SourceTitle string
	}
	var results []result

	err := r.db.WithContext(ctx).
		Table("kb_chunks").
		Select("kb_chunks.*, kb_documents.title as source_title").
		Joins("JOIN kb_documents ON kb_documents.id = kb_chunks.document_id").
		Where("kb_chunks.deleted_at IS NULL").
		Where("kb_documents.is_context = ?", true).
		Where("kb_documents.deleted_at IS NULL").
		Order("kb_documents.created_at ASC, kb_chunks.document_id ASC, kb_chunks.chunk_index ASC").
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	chunks := make([]*contract.ContextChunk, len(results))
	for i, res := range results {
		chunks[i] = &contract.ContextChunk{
			Chunk:       r.mapper.ChunkToEntity(&res.KBChunk),
			SourceTitle: res.SourceTitle,
		}
	}
	return chunks, nil
}
