package service

import (
	"context"
	"encoding/json"

	"commandcenter-be/internal/dto"
	"commandcenter-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IKBService interface {
	GetDocuments(ctx context.Context) ([]*dto.DocumentView, error)
	GetStats(ctx context.Context) (*dto.KBStatsResponse, error)
	TriggerSync(ctx context.Context, req *dto.SyncTriggerRequest) (*dto.SyncTriggerResponse, error)
}

type kbService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
}

func NewKBService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
) IKBService {
	return &kbService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
	}
}

func (s *kbService) GetDocuments(ctx context.Context) ([]*dto.DocumentView, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	docs, err := uow.DocumentRepository().FindAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.DocumentView, 0, len(docs))
	for _, doc := range docs {
		result = append(result, &dto.DocumentView{
			Id:           doc.Id,
			SourceId:     doc.SourceId,
			Title:        doc.Title,
			Folder:       doc.Folder,
			TokenCount:   doc.TokenCount,
			IsContext:    doc.IsContext,
			LastSyncedAt: doc.LastSyncedAt,
			SyncError:    doc.SyncError,
			CreatedAt:    doc.CreatedAt,
		})
	}
	return result, nil
}

func (s *kbService) GetStats(ctx context.Context) (*dto.KBStatsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	docs, err := uow.DocumentRepository().FindAll(ctx)
	if err != nil {
		return nil, err
	}

	chunkCount, err := uow.ChunkRepository().Count(ctx)
	if err != nil {
		return nil, err
	}

	stats := &dto.KBStatsResponse{
		DocumentCount: int64(len(docs)),
		ChunkCount:    chunkCount,
	}
	for _, doc := range docs {
		stats.TotalTokens += int64(doc.TokenCount)
		if doc.LastSyncedAt != nil {
			if stats.LastSyncedAt == nil || doc.LastSyncedAt.After(*stats.LastSyncedAt) {
				stats.LastSyncedAt = doc.LastSyncedAt
			}
		}
	}

	return stats, nil
}

func (s *kbService) TriggerSync(ctx context.Context, req *dto.SyncTriggerRequest) (*dto.SyncTriggerResponse, error) {
	msg := dto.PublishKBSyncMessage{
		SyncId:    uuid.New(),
		SourceIds: req.SourceIds,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}

	if err := s.publisherService.Publish(ctx, payload); err != nil {
		return nil, err
	}

	return &dto.SyncTriggerResponse{
		SyncId: msg.SyncId,
		Status: "queued",
	}, nil
}
