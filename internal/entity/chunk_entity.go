package entity

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is a bounded slice of a Document with its own embedding. Every chunk
// belongs to exactly one document; ChunkIndex orders chunks within a document
// and is consulted only for debugging and context assembly, never ranking.
type Chunk struct {
	Id         uuid.UUID
	DocumentId uuid.UUID
	ChunkIndex int
	Content    string
	TokenCount int
	Embedding  []float32
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}
