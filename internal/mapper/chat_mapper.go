package mapper

import (
	"encoding/json"
	"time"

	"commandcenter-be/internal/entity"
	"commandcenter-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session mappers

func (m *ChatMapper) SessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatSession{
		Id:        s.Id,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: s.DeletedAt.Valid,
	}
}

func (m *ChatMapper) SessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ChatSession{
		Id:        s.Id,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

// Turn mappers

func (m *ChatMapper) TurnToEntity(t *model.ChatTurn) *entity.ChatTurn {
	if t == nil {
		return nil
	}

	var meta *entity.TurnMetadata
	if len(t.Metadata) > 0 {
		var parsed entity.TurnMetadata
		if err := json.Unmarshal(t.Metadata, &parsed); err == nil {
			meta = &parsed
		}
	}

	return &entity.ChatTurn{
		Id:            t.Id,
		ChatSessionId: t.ChatSessionId,
		Role:          t.Role,
		Text:          t.Text,
		Metadata:      meta,
		CreatedAt:     t.CreatedAt,
	}
}

func (m *ChatMapper) TurnToModel(t *entity.ChatTurn) *model.ChatTurn {
	if t == nil {
		return nil
	}

	var meta datatypes.JSON
	if t.Metadata != nil {
		if raw, err := json.Marshal(t.Metadata); err == nil {
			meta = raw
		}
	}

	return &model.ChatTurn{
		Id:            t.Id,
		ChatSessionId: t.ChatSessionId,
		Role:          t.Role,
		Text:          t.Text,
		Metadata:      meta,
		CreatedAt:     t.CreatedAt,
	}
}
