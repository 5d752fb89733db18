package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document is a synced source text unit in the knowledge base. It is
// populated by the sync consumer and read-only to the query path; a re-sync
// supersedes it (chunks replaced atomically), it is never mutated in place.
type Document struct {
	Id           uuid.UUID
	SourceId     string // stable id in the external content source
	Title        string
	Folder       string
	Content      string
	TokenCount   int
	IsContext    bool // always-loaded context vs search-only
	LastSyncedAt *time.Time
	SyncError    string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
