package entity

import (
	"time"

	"github.com/google/uuid"
)

// TurnMetadata records how a turn was answered. Only assistant turns carry it.
type TurnMetadata struct {
	Handler    string `json:"handler,omitempty"`  // fast_path, status, planning, kb, direct_reply, clarify
	Decision   string `json:"decision,omitempty"` // raw router action
	Reason     string `json:"reason,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

// ChatTurn is one side of a request/response pair. Immutable once written.
type ChatTurn struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Role          string
	Text          string
	Metadata      *TurnMetadata
	CreatedAt     time.Time
}
