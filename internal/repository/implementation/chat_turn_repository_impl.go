package implementation

import (
	"context"

	"commandcenter-be/internal/entity"
	"commandcenter-be/internal/mapper"
	"commandcenter-be/internal/model"
	"commandcenter-be/internal/repository/contract"
	"commandcenter-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatTurnRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatTurnRepository(db *gorm.DB) contract.ChatTurnRepository {
	return &ChatTurnRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatTurnRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatTurnRepositoryImpl) Create(ctx context.Context, turn *entity.ChatTurn) error {
	m := r.mapper.TurnToModel(turn)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*turn = *r.mapper.TurnToEntity(m)
	return nil
}

func (r *ChatTurnRepositoryImpl) FindBySessionId(ctx context.Context, sessionId uuid.UUID) ([]*entity.ChatTurn, error) {
	return r.FindAll(ctx,
		specification.BySessionId{SessionId: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
}

func (r *ChatTurnRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatTurn, error) {
	var models []*model.ChatTurn
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ChatTurn, len(models))
	for i, m := range models {
		entities[i] = r.mapper.TurnToEntity(m)
	}
	return entities, nil
}

func (r *ChatTurnRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.ChatTurn{}).Count(&count).Error
	return count, err
}
