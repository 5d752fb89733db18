package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"commandcenter-be/internal/dto"
	"commandcenter-be/internal/entity"
	"commandcenter-be/internal/pkg/mailer"
	"commandcenter-be/internal/repository/specification"
	"commandcenter-be/internal/repository/unitofwork"
	"commandcenter-be/internal/websocket"
	"commandcenter-be/pkg/contentsource"
	"commandcenter-be/pkg/embedding"
	"commandcenter-be/pkg/events"
	pktNats "commandcenter-be/pkg/nats"
	"commandcenter-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type ISyncConsumerService interface {
	Consume(ctx context.Context) error
}

type syncConsumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	source            contentsource.ContentSource
	embeddingProvider embedding.Provider
	hub               *websocket.Hub
	emailService      mailer.IEmailService
	operatorEmail     string
	natsPub           *pktNats.Publisher
	chunkTokens       int
	overlapTokens     int
}

func NewSyncConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	source contentsource.ContentSource,
	embeddingProvider embedding.Provider,
	hub *websocket.Hub,
	emailService mailer.IEmailService,
	operatorEmail string,
	natsPub *pktNats.Publisher,
	chunkTokens int,
	overlapTokens int,
) ISyncConsumerService {
	return &syncConsumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		source:            source,
		embeddingProvider: embeddingProvider,
		hub:               hub,
		emailService:      emailService,
		operatorEmail:     operatorEmail,
		natsPub:           natsPub,
		chunkTokens:       chunkTokens,
		overlapTokens:     overlapTokens,
	}
}

func (cs *syncConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *syncConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishKBSyncMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal sync message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Starting KB sync %s (sources: %d)", payload.SyncId, len(payload.SourceIds))
	start := time.Now()

	docs, err := cs.listDocuments(ctx, payload.SourceIds)
	if err != nil {
		log.Printf("[ERROR] Sync %s: content source unreachable: %v", payload.SyncId, err)
		cs.publishProgress(websocket.SyncProgress{
			Phase: "failed",
			Error: "content source unreachable",
		})
		msg.Nack() // source outage is retriable
		return
	}

	cs.publishProgress(websocket.SyncProgress{
		Phase: "started",
		Total: len(docs),
	})

	var failures []mailer.SyncFailure
	synced := 0

	// One failed document never aborts the run; it keeps serving its stale
	// content and gets flagged for the operator instead.
	for i, doc := range docs {
		if ctx.Err() != nil {
			log.Printf("[WARN] Sync %s cancelled after %d/%d documents", payload.SyncId, i, len(docs))
			break
		}

		if err := cs.syncDocument(ctx, doc); err != nil {
			log.Printf("[ERROR] Sync %s: document %s failed: %v", payload.SyncId, doc.SourceId, err)
			failures = append(failures, mailer.SyncFailure{
				SourceId: doc.SourceId,
				Title:    doc.Title,
				Reason:   err.Error(),
			})
			cs.recordSyncError(ctx, doc, err)
		} else {
			synced++
		}

		cs.publishProgress(websocket.SyncProgress{
			Phase:     "document",
			SourceId:  doc.SourceId,
			Title:     doc.Title,
			Processed: i + 1,
			Total:     len(docs),
		})
	}

	durationMs := time.Since(start).Milliseconds()
	cs.publishProgress(websocket.SyncProgress{
		Phase:     "completed",
		Processed: synced,
		Total:     len(docs),
	})

	if len(failures) > 0 && cs.emailService != nil && cs.operatorEmail != "" {
		if err := cs.emailService.SendSyncFailureAlert(cs.operatorEmail, failures); err != nil {
			log.Printf("[WARN] Failed to send sync failure alert: %v", err)
		}
	}

	if cs.natsPub != nil {
		pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cs.natsPub.Publish(pubCtx, events.NewKBSyncCompletedEvent(synced, len(failures), durationMs)); err != nil {
			log.Printf("[WARN] Failed to publish sync completion event: %v", err)
		}
	}

	log.Printf("[SUCCESS] Sync %s finished: %d synced, %d failed in %dms", payload.SyncId, synced, len(failures), durationMs)
	msg.Ack()
}

func (cs *syncConsumerService) listDocuments(ctx context.Context, sourceIds []string) ([]contentsource.SourceDocument, error) {
	if len(sourceIds) == 0 {
		return cs.source.ListDocuments(ctx)
	}

	docs := make([]contentsource.SourceDocument, 0, len(sourceIds))
	for _, sourceId := range sourceIds {
		doc, err := cs.source.FetchDocument(ctx, sourceId)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// syncDocument replaces a document's chunks atomically. Embeddings are
// generated OUTSIDE the transaction so a slow provider never holds row locks.
func (cs *syncConsumerService) syncDocument(ctx context.Context, src contentsource.SourceDocument) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.DocumentRepository().FindOne(ctx, specification.BySourceId{SourceId: src.SourceId})
	if err != nil {
		return err
	}

	pieces := utils.SplitText(src.Content, cs.chunkTokens, cs.overlapTokens)

	docId := uuid.New()
	if existing != nil {
		docId = existing.Id
	}

	newChunks := make([]*entity.Chunk, 0, len(pieces))
	totalTokens := 0
	for i, piece := range pieces {
		vector, err := cs.embeddingProvider.Generate(ctx, piece, embedding.TaskRetrievalDocument)
		if err != nil {
			return err
		}

		tokens := utils.CountTokens(piece)
		totalTokens += tokens
		newChunks = append(newChunks, &entity.Chunk{
			Id:         uuid.New(),
			DocumentId: docId,
			ChunkIndex: i,
			Content:    piece,
			TokenCount: tokens,
			Embedding:  vector,
			CreatedAt:  time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	now := time.Now()
	if existing != nil {
		existing.Title = src.Title
		existing.Folder = src.Folder
		existing.Content = src.Content
		existing.TokenCount = totalTokens
		existing.IsContext = src.IsContext
		existing.LastSyncedAt = &now
		existing.SyncError = ""
		existing.UpdatedAt = &now
		if err := uow.DocumentRepository().Update(ctx, existing); err != nil {
			return err
		}
	} else {
		doc := &entity.Document{
			Id:           docId,
			SourceId:     src.SourceId,
			Title:        src.Title,
			Folder:       src.Folder,
			Content:      src.Content,
			TokenCount:   totalTokens,
			IsContext:    src.IsContext,
			LastSyncedAt: &now,
			CreatedAt:    now,
		}
		if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
			return err
		}
	}

	if err := uow.ChunkRepository().DeleteByDocumentId(ctx, docId); err != nil {
		return err
	}

	if len(newChunks) > 0 {
		if err := uow.ChunkRepository().CreateBulk(ctx, newChunks); err != nil {
			return err
		}
	}

	return uow.Commit()
}

// recordSyncError flags the stored document so operators see WHY search is
// serving stale content. Documents not yet in the store have nothing to flag.
func (cs *syncConsumerService) recordSyncError(ctx context.Context, src contentsource.SourceDocument, syncErr error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.DocumentRepository().FindOne(ctx, specification.BySourceId{SourceId: src.SourceId})
	if err != nil || existing == nil {
		return
	}

	now := time.Now()
	existing.SyncError = syncErr.Error()
	existing.UpdatedAt = &now
	if err := uow.DocumentRepository().Update(ctx, existing); err != nil {
		log.Printf("[WARN] Failed to record sync error for %s: %v", src.SourceId, err)
	}
}

func (cs *syncConsumerService) publishProgress(progress websocket.SyncProgress) {
	if cs.hub != nil {
		cs.hub.Publish(progress)
	}
}
