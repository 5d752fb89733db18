package service

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"commandcenter-be/internal/constant"
	"commandcenter-be/internal/dto"
	"commandcenter-be/internal/entity"
	"commandcenter-be/internal/repository/contract"
	"commandcenter-be/internal/repository/memory"
	"commandcenter-be/internal/repository/specification"
	"commandcenter-be/internal/repository/unitofwork"
	"commandcenter-be/pkg/agent"
	"commandcenter-be/pkg/ai/fastpath"
	"commandcenter-be/pkg/ai/router"
	"commandcenter-be/pkg/llm"
	"commandcenter-be/pkg/rag"

	"github.com/google/uuid"
)

// In-memory unit of work backing the service tests.

type fakeSessionRepo struct {
	sessions map[uuid.UUID]*entity.ChatSession
}

func (f *fakeSessionRepo) Create(ctx context.Context, s *entity.ChatSession) error {
	f.sessions[s.Id] = s
	return nil
}

func (f *fakeSessionRepo) Update(ctx context.Context, s *entity.ChatSession) error {
	f.sessions[s.Id] = s
	return nil
}

func (f *fakeSessionRepo) FindById(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error) {
	return f.sessions[id], nil
}

func (f *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	out := make([]*entity.ChatSession, 0, len(f.sessions))
	for _, s := range f.sessions {
		out = append(out, s)
	}
	return out, nil
}

type fakeTurnRepo struct {
	turns []*entity.ChatTurn
}

func (f *fakeTurnRepo) Create(ctx context.Context, t *entity.ChatTurn) error {
	f.turns = append(f.turns, t)
	return nil
}

func (f *fakeTurnRepo) FindBySessionId(ctx context.Context, sessionId uuid.UUID) ([]*entity.ChatTurn, error) {
	var out []*entity.ChatTurn
	for _, t := range f.turns {
		if t.ChatSessionId == sessionId {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTurnRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatTurn, error) {
	return f.turns, nil
}

func (f *fakeTurnRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.turns)), nil
}

type fakeDocRepo struct {
	docs []*entity.Document
}

func (f *fakeDocRepo) Create(ctx context.Context, d *entity.Document) error {
	f.docs = append(f.docs, d)
	return nil
}
func (f *fakeDocRepo) Update(ctx context.Context, d *entity.Document) error { return nil }
func (f *fakeDocRepo) Delete(ctx context.Context, id uuid.UUID) error       { return nil }
func (f *fakeDocRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	return nil, nil
}
func (f *fakeDocRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	return f.docs, nil
}
func (f *fakeDocRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(f.docs)), nil
}

type fakeChunkRepo struct {
	count int64
}

func (f *fakeChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.Chunk) error { return nil }
func (f *fakeChunkRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return nil
}
func (f *fakeChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error) {
	return nil, nil
}
func (f *fakeChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return f.count, nil
}
func (f *fakeChunkRepo) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredChunk, error) {
	return nil, nil
}
func (f *fakeChunkRepo) FindContextChunks(ctx context.Context) ([]*contract.ContextChunk, error) {
	return nil, nil
}

type fakeUnitOfWork struct {
	sessionRepo *fakeSessionRepo
	turnRepo    *fakeTurnRepo
	docRepo     *fakeDocRepo
	chunkRepo   *fakeChunkRepo
	commits     int
	rollbacks   int
}

func newFakeUnitOfWork() *fakeUnitOfWork {
	return &fakeUnitOfWork{
		sessionRepo: &fakeSessionRepo{sessions: make(map[uuid.UUID]*entity.ChatSession)},
		turnRepo:    &fakeTurnRepo{},
		docRepo:     &fakeDocRepo{},
		chunkRepo:   &fakeChunkRepo{},
	}
}

func (f *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (f *fakeUnitOfWork) Commit() error {
	f.commits++
	return nil
}
func (f *fakeUnitOfWork) Rollback() error {
	f.rollbacks++
	return nil
}
func (f *fakeUnitOfWork) DocumentRepository() contract.DocumentRepository       { return f.docRepo }
func (f *fakeUnitOfWork) ChunkRepository() contract.ChunkRepository             { return f.chunkRepo }
func (f *fakeUnitOfWork) ChatSessionRepository() contract.ChatSessionRepository { return f.sessionRepo }
func (f *fakeUnitOfWork) ChatTurnRepository() contract.ChatTurnRepository       { return f.turnRepo }

type fakeFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

// Router collaborators.

type scriptedLLM struct {
	responses []string
	calls     int
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	idx := s.calls
	s.calls++
	if idx < len(s.responses) {
		return s.responses[idx], nil
	}
	return "", errors.New("scriptedLLM: out of responses")
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.Generate(ctx, "")
}

type stubEngine struct{}

func (stubEngine) Search(ctx context.Context, query string, limit int) (*rag.SearchResponse, error) {
	return &rag.SearchResponse{Results: []rag.Result{{ChunkText: "chunk", SourceTitle: "Doc", Similarity: 0.8}}}, nil
}

func (stubEngine) FormatReply(resp *rag.SearchResponse) string { return "kb answer" }

type stubHandler struct{ name string }

func (h stubHandler) Name() string { return h.name }
func (h stubHandler) Handle(ctx context.Context, query string, history []llm.Message) (*agent.Result, error) {
	return &agent.Result{Text: h.name + " answer"}, nil
}

func newTestAskService(responses []string) (IAskService, *fakeUnitOfWork, *memory.SessionRepository) {
	uow := newFakeUnitOfWork()
	provider := &scriptedLLM{responses: responses}
	rt := router.NewRouter(
		provider,
		stubEngine{},
		stubHandler{name: "status"},
		stubHandler{name: "planning"},
		fastpath.NewClassifier(nil, nil),
		3,
		5,
		log.New(io.Discard, "", 0),
	)
	sessionRepo := memory.NewSessionRepository()
	svc := NewAskService(&fakeFactory{uow: uow}, sessionRepo, rt, nil, 10*time.Second)
	return svc, uow, sessionRepo
}

const directReply = `{"action": "respond_directly", "argument": "Hi, I can help with this installation."}`

func TestAskMalformedSessionIdStartsFresh(t *testing.T) {
	svc, uow, _ := newTestAskService([]string{directReply})

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Message: "hello", SessionId: "not-a-uuid"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if res.SessionId == uuid.Nil {
		t.Error("no session id assigned")
	}
	if _, ok := uow.sessionRepo.sessions[res.SessionId]; !ok {
		t.Error("fresh session was not persisted")
	}
}

func TestAskUnknownSessionIdStartsFresh(t *testing.T) {
	svc, _, _ := newTestAskService([]string{directReply})

	unknown := uuid.New()
	res, err := svc.Ask(context.Background(), &dto.AskRequest{Message: "hello", SessionId: unknown.String()})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if res.SessionId == unknown {
		t.Error("unknown session id was adopted instead of replaced")
	}
}

func TestAskReusesExistingSession(t *testing.T) {
	svc, uow, _ := newTestAskService([]string{directReply, directReply})

	existing := &entity.ChatSession{Id: uuid.New(), Title: "earlier", CreatedAt: time.Now()}
	uow.sessionRepo.sessions[existing.Id] = existing

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Message: "hello again", SessionId: existing.Id.String()})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if res.SessionId != existing.Id {
		t.Errorf("SessionId = %s, want existing %s", res.SessionId, existing.Id)
	}
	if len(uow.sessionRepo.sessions) != 1 {
		t.Errorf("%d sessions stored, want 1", len(uow.sessionRepo.sessions))
	}
}

func TestAskPersistsTurnPair(t *testing.T) {
	svc, uow, _ := newTestAskService([]string{directReply})

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Message: "what can you do?"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	turns, _ := uow.turnRepo.FindBySessionId(context.Background(), res.SessionId)
	if len(turns) != 2 {
		t.Fatalf("%d turns persisted, want 2", len(turns))
	}

	user, assistant := turns[0], turns[1]
	if user.Role != constant.ChatTurnRoleUser || user.Text != "what can you do?" {
		t.Errorf("user turn = %+v", user)
	}
	if assistant.Role != constant.ChatTurnRoleAssistant {
		t.Errorf("assistant role = %q", assistant.Role)
	}
	if assistant.Metadata == nil {
		t.Fatal("assistant turn has no routing metadata")
	}
	if assistant.Metadata.Handler == "" || assistant.Metadata.Decision == "" {
		t.Errorf("incomplete metadata: %+v", assistant.Metadata)
	}
	if uow.commits != 1 {
		t.Errorf("commits = %d, want 1", uow.commits)
	}
}

func TestAskClarifyStreakResetOnSuccess(t *testing.T) {
	// First call burns all three classify attempts, second call succeeds.
	svc, _, sessionRepo := newTestAskService([]string{
		"garbage", "garbage", "garbage",
		directReply,
	})

	first, err := svc.Ask(context.Background(), &dto.AskRequest{Message: "hmm?"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	state, ok := sessionRepo.Get(first.SessionId.String())
	if !ok || state.ClarifyStreak != 1 {
		t.Fatalf("ClarifyStreak after clarification = %+v", state)
	}

	second, err := svc.Ask(context.Background(), &dto.AskRequest{
		Message:   "what can you do?",
		SessionId: first.SessionId.String(),
	})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	state, _ = sessionRepo.Get(second.SessionId.String())
	if state.ClarifyStreak != 0 {
		t.Errorf("ClarifyStreak after success = %d, want 0", state.ClarifyStreak)
	}
	if state.LastQuery != "what can you do?" {
		t.Errorf("LastQuery = %q", state.LastQuery)
	}
}

func TestAskReportsHandlerAndDuration(t *testing.T) {
	svc, _, _ := newTestAskService([]string{
		`{"action": "delegate_status", "argument": "battery level"}`,
	})

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Message: "what's the battery at?"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if res.Handler != "status" {
		t.Errorf("Handler = %q, want status", res.Handler)
	}
	if res.Response != "status answer" {
		t.Errorf("Response = %q", res.Response)
	}
	if res.DurationMs < 0 {
		t.Errorf("DurationMs = %d", res.DurationMs)
	}
}
