package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BySessionId filters turns by their chat session
type BySessionId struct {
	SessionId uuid.UUID
}

func (s BySessionId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.SessionId)
}

// ByRole filters turns by role (user/assistant)
type ByRole struct {
	Role string
}

func (s ByRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", s.Role)
}
