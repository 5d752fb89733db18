package contract

import (
	"context"

	"commandcenter-be/internal/entity"
	"commandcenter-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatTurnRepository interface {
	Create(ctx context.Context, turn *entity.ChatTurn) error
	// FindBySessionId returns turns in creation order, oldest first.
	FindBySessionId(ctx context.Context, sessionId uuid.UUID) ([]*entity.ChatTurn, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatTurn, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
