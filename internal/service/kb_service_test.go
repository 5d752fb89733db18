package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"commandcenter-be/internal/dto"
	"commandcenter-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	payloads [][]byte
	err      error
}

func (p *capturingPublisher) Publish(ctx context.Context, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestTriggerSyncPublishesMessage(t *testing.T) {
	uow := newFakeUnitOfWork()
	pub := &capturingPublisher{}
	svc := NewKBService(&fakeFactory{uow: uow}, pub)

	res, err := svc.TriggerSync(context.Background(), &dto.SyncTriggerRequest{
		SourceIds: []string{"seed-inverter-manual"},
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, res.SyncId)
	assert.Equal(t, "queued", res.Status)

	require.Len(t, pub.payloads, 1)
	var msg dto.PublishKBSyncMessage
	require.NoError(t, json.Unmarshal(pub.payloads[0], &msg))
	assert.Equal(t, res.SyncId, msg.SyncId)
	assert.Equal(t, []string{"seed-inverter-manual"}, msg.SourceIds)
}

func TestTriggerSyncFullSyncHasNoSourceIds(t *testing.T) {
	uow := newFakeUnitOfWork()
	pub := &capturingPublisher{}
	svc := NewKBService(&fakeFactory{uow: uow}, pub)

	_, err := svc.TriggerSync(context.Background(), &dto.SyncTriggerRequest{})
	require.NoError(t, err)

	var msg dto.PublishKBSyncMessage
	require.NoError(t, json.Unmarshal(pub.payloads[0], &msg))
	assert.Empty(t, msg.SourceIds)
}

func TestGetStatsAggregates(t *testing.T) {
	uow := newFakeUnitOfWork()
	older := time.Now().Add(-2 * time.Hour)
	newer := time.Now().Add(-10 * time.Minute)
	uow.docRepo.docs = []*entity.Document{
		{Id: uuid.New(), TokenCount: 1200, LastSyncedAt: &older},
		{Id: uuid.New(), TokenCount: 800, LastSyncedAt: &newer},
		{Id: uuid.New(), TokenCount: 300}, // never synced
	}
	uow.chunkRepo.count = 14

	svc := NewKBService(&fakeFactory{uow: uow}, &capturingPublisher{})

	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.DocumentCount)
	assert.Equal(t, int64(14), stats.ChunkCount)
	assert.Equal(t, int64(2300), stats.TotalTokens)
	require.NotNil(t, stats.LastSyncedAt)
	assert.WithinDuration(t, newer, *stats.LastSyncedAt, time.Second)
}

func TestGetDocumentsMapsFields(t *testing.T) {
	uow := newFakeUnitOfWork()
	doc := &entity.Document{
		Id:         uuid.New(),
		SourceId:   "seed-load-policy",
		Title:      "Load Shedding Policy",
		Folder:     "policies",
		TokenCount: 640,
		IsContext:  false,
		SyncError:  "fetch timeout",
		CreatedAt:  time.Now(),
	}
	uow.docRepo.docs = []*entity.Document{doc}

	svc := NewKBService(&fakeFactory{uow: uow}, &capturingPublisher{})

	views, err := svc.GetDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, doc.SourceId, views[0].SourceId)
	assert.Equal(t, doc.Title, views[0].Title)
	assert.Equal(t, "fetch timeout", views[0].SyncError)
}
