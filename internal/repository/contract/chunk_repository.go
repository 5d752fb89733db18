package contract

import (
	"context"

	"commandcenter-be/internal/entity"
	"commandcenter-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredChunk wraps a Chunk with its cosine similarity against a query vector
// plus the owning document's citation fields. Similarity is the raw value in
// [-1, 1]; no thresholding is applied here.
type ScoredChunk struct {
	Chunk       *entity.Chunk
	Similarity  float64
	SourceTitle string
	Folder      string
}

// ContextChunk pairs an always-loaded chunk with its document title.
type ContextChunk struct {
	Chunk       *entity.Chunk
	SourceTitle string
}

type ChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.Chunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilar ranks all live chunks by cosine similarity against the
	// query vector and returns the top limit, scored, sorted descending.
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*ScoredChunk, error)
	// FindContextChunks returns chunks of is_context documents in document
	// order, then chunk order. Used by LoadContext, bypasses ranking.
	FindContextChunks(ctx context.Context) ([]*ContextChunk, error)
}
