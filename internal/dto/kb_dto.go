package dto

import (
	"time"

	"github.com/google/uuid"
)

type DocumentView struct {
	Id           uuid.UUID  `json:"id"`
	SourceId     string     `json:"source_id"`
	Title        string     `json:"title"`
	Folder       string     `json:"folder"`
	TokenCount   int        `json:"token_count"`
	IsContext    bool       `json:"is_context"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
	SyncError    string     `json:"sync_error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type KBStatsResponse struct {
	DocumentCount int64      `json:"document_count"`
	ChunkCount    int64      `json:"chunk_count"`
	TotalTokens   int64      `json:"total_tokens"`
	LastSyncedAt  *time.Time `json:"last_synced_at"`
}

type SyncTriggerRequest struct {
	// SourceIds narrows the sync to specific documents. Empty means full sync.
	SourceIds []string `json:"source_ids,omitempty" validate:"max=50"`
}

type SyncTriggerResponse struct {
	SyncId uuid.UUID `json:"sync_id"`
	Status string    `json:"status"`
}

// PublishKBSyncMessage is the payload carried on the sync topic.
type PublishKBSyncMessage struct {
	SyncId    uuid.UUID `json:"sync_id"`
	SourceIds []string  `json:"source_ids,omitempty"`
}
