package router

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"commandcenter-be/pkg/agent"
	"commandcenter-be/pkg/ai/fastpath"
	"commandcenter-be/pkg/llm"
	"commandcenter-be/pkg/rag"
	"commandcenter-be/pkg/store"
)

type fakeLLM struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	idx := f.calls
	f.calls++
	var err error
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	if err != nil {
		return "", err
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return "", errors.New("fakeLLM: no scripted response")
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.Generate(ctx, "")
}

type fakeEngine struct {
	resp      *rag.SearchResponse
	err       error
	lastQuery string
	calls     int
}

func (f *fakeEngine) Search(ctx context.Context, query string, limit int) (*rag.SearchResponse, error) {
	f.calls++
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeEngine) FormatReply(resp *rag.SearchResponse) string {
	if resp.NotFound {
		return "nothing found"
	}
	return "kb answer"
}

type fakeHandler struct {
	name      string
	result    *agent.Result
	err       error
	lastQuery string
	calls     int
}

func (f *fakeHandler) Name() string { return f.name }

func (f *fakeHandler) Handle(ctx context.Context, query string, history []llm.Message) (*agent.Result, error) {
	f.calls++
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestRouter(provider llm.LLMProvider, engine KnowledgeEngine, status, planning agent.Handler) *Router {
	return NewRouter(
		provider,
		engine,
		status,
		planning,
		fastpath.NewClassifier(nil, nil),
		3,
		5,
		log.New(io.Discard, "", 0),
	)
}

func found() *rag.SearchResponse {
	return &rag.SearchResponse{Results: []rag.Result{{ChunkText: "chunk", SourceTitle: "Manual", Similarity: 0.8}}}
}

func TestRouteFastPathSkipsClassifier(t *testing.T) {
	provider := &fakeLLM{}
	engine := &fakeEngine{resp: found()}
	rt := newTestRouter(provider, engine, &fakeHandler{name: "status"}, &fakeHandler{name: "planning"})

	result := rt.Route(context.Background(), "where is the inverter manual", &store.WorkingState{}, nil)

	if !result.FastPathed {
		t.Error("expected fast-path result")
	}
	if result.Handler != store.HandlerFastPath {
		t.Errorf("Handler = %q, want %q", result.Handler, store.HandlerFastPath)
	}
	if provider.calls != 0 {
		t.Errorf("LLM called %d times on fast path, want 0", provider.calls)
	}
	if engine.calls != 1 {
		t.Errorf("engine called %d times, want 1", engine.calls)
	}
	if result.Reply != "kb answer" {
		t.Errorf("Reply = %q", result.Reply)
	}
}

func TestRouteDelegatesVerbatim(t *testing.T) {
	provider := &fakeLLM{responses: []string{
		`{"action": "delegate_status", "argument": "battery level", "confidence": 0.9, "reason": "live"}`,
	}}
	status := &fakeHandler{name: "status", result: &agent.Result{Text: "Battery at 76%, charging."}}
	rt := newTestRouter(provider, &fakeEngine{resp: found()}, status, &fakeHandler{name: "planning"})

	result := rt.Route(context.Background(), "what's the battery at?", &store.WorkingState{}, nil)

	if result.Handler != "status" {
		t.Errorf("Handler = %q, want status", result.Handler)
	}
	if result.Reply != "Battery at 76%, charging." {
		t.Errorf("Reply = %q, want handler output verbatim", result.Reply)
	}
	if status.lastQuery != "battery level" {
		t.Errorf("handler received %q, want classifier argument", status.lastQuery)
	}
	if result.ErrorKind != "" {
		t.Errorf("ErrorKind = %q, want empty", result.ErrorKind)
	}
}

func TestRouteHandlerFailureYieldsApology(t *testing.T) {
	provider := &fakeLLM{responses: []string{
		`{"action": "delegate_planning", "argument": "plan tonight"}`,
	}}
	planning := &fakeHandler{name: "planning", err: errors.New("connection refused")}
	rt := newTestRouter(provider, &fakeEngine{resp: found()}, &fakeHandler{name: "status"}, planning)

	result := rt.Route(context.Background(), "should we run the miners tonight?", &store.WorkingState{}, nil)

	if result.ErrorKind != ErrKindHandlerError {
		t.Errorf("ErrorKind = %q, want %q", result.ErrorKind, ErrKindHandlerError)
	}
	if !strings.Contains(result.Reply, "planning") {
		t.Errorf("apology should name the failed service, got %q", result.Reply)
	}
	if strings.Contains(result.Reply, "connection refused") {
		t.Errorf("raw error leaked to user: %q", result.Reply)
	}
}

func TestRouteMalformedOutputConsumesAttempt(t *testing.T) {
	provider := &fakeLLM{responses: []string{
		"I would delegate this to status.",
		`{"action": "delegate_status", "argument": {"oops": true}}`,
		`{"action": "delegate_status", "argument": "battery level"}`,
	}}
	status := &fakeHandler{name: "status", result: &agent.Result{Text: "ok"}}
	rt := newTestRouter(provider, &fakeEngine{resp: found()}, status, &fakeHandler{name: "planning"})

	result := rt.Route(context.Background(), "what's the load?", &store.WorkingState{}, nil)

	if provider.calls != 3 {
		t.Errorf("LLM called %d times, want 3", provider.calls)
	}
	if result.Handler != "status" {
		t.Errorf("Handler = %q, want status after recovery", result.Handler)
	}
}

func TestRouteAttemptBoundExhaustedClarifies(t *testing.T) {
	provider := &fakeLLM{responses: []string{"garbage", "garbage", "garbage"}}
	rt := newTestRouter(provider, &fakeEngine{resp: found()}, &fakeHandler{name: "status"}, &fakeHandler{name: "planning"})

	result := rt.Route(context.Background(), "what's the frequency?", &store.WorkingState{}, nil)

	if provider.calls != 3 {
		t.Errorf("LLM called %d times, want exactly the bound", provider.calls)
	}
	if result.Handler != store.HandlerClarify {
		t.Errorf("Handler = %q, want clarify", result.Handler)
	}
	if result.ErrorKind != ErrKindClassificationTimeout {
		t.Errorf("ErrorKind = %q, want %q", result.ErrorKind, ErrKindClassificationTimeout)
	}
	if result.Reply == "" {
		t.Error("clarification reply is empty")
	}
}

func TestRouteExpiredBudgetClarifiesWithoutLLM(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	provider := &fakeLLM{responses: []string{`{"action": "search_kb", "argument": "x"}`}}
	rt := newTestRouter(provider, &fakeEngine{resp: found()}, &fakeHandler{name: "status"}, &fakeHandler{name: "planning"})

	result := rt.Route(ctx, "what's the battery level?", &store.WorkingState{}, nil)

	if provider.calls != 0 {
		t.Errorf("LLM called %d times with expired budget, want 0", provider.calls)
	}
	if result.Handler != store.HandlerClarify {
		t.Errorf("Handler = %q, want clarify", result.Handler)
	}
}

func TestRouteRespondDirectlyUsesArgument(t *testing.T) {
	provider := &fakeLLM{responses: []string{
		`{"action": "respond_directly", "argument": "I'm the installation assistant."}`,
	}}
	rt := newTestRouter(provider, &fakeEngine{resp: found()}, &fakeHandler{name: "status"}, &fakeHandler{name: "planning"})

	result := rt.Route(context.Background(), "what can you do?", &store.WorkingState{}, nil)

	if result.Handler != store.HandlerDirectReply {
		t.Errorf("Handler = %q, want direct reply", result.Handler)
	}
	if result.Reply != "I'm the installation assistant." {
		t.Errorf("Reply = %q", result.Reply)
	}
}

func TestRouteRespondDirectlyEmptyArgumentFallsBack(t *testing.T) {
	provider := &fakeLLM{responses: []string{
		`{"action": "respond_directly", "argument": ""}`,
	}}
	rt := newTestRouter(provider, &fakeEngine{resp: found()}, &fakeHandler{name: "status"}, &fakeHandler{name: "planning"})

	result := rt.Route(context.Background(), "hi", &store.WorkingState{}, nil)

	if result.Reply == "" {
		t.Error("empty direct reply reached the user")
	}
}

func TestRouteSearchUnavailableDegrades(t *testing.T) {
	provider := &fakeLLM{responses: []string{
		`{"action": "search_kb", "argument": "fault codes"}`,
	}}
	engine := &fakeEngine{err: rag.ErrUnavailable}
	rt := newTestRouter(provider, engine, &fakeHandler{name: "status"}, &fakeHandler{name: "planning"})

	result := rt.Route(context.Background(), "look up fault codes please", &store.WorkingState{}, nil)

	if result.ErrorKind != ErrKindRetrievalUnavailable {
		t.Errorf("ErrorKind = %q, want %q", result.ErrorKind, ErrKindRetrievalUnavailable)
	}
	if !strings.Contains(result.Reply, "status and planning") {
		t.Errorf("degraded reply should point at what still works, got %q", result.Reply)
	}
}

func TestClarifyWordingVariesWithStreak(t *testing.T) {
	provider := &fakeLLM{responses: []string{"garbage", "garbage", "garbage"}}
	rt := newTestRouter(provider, &fakeEngine{resp: found()}, &fakeHandler{name: "status"}, &fakeHandler{name: "planning"})

	first := rt.Route(context.Background(), "hmm?", &store.WorkingState{}, nil)

	provider.calls = 0
	second := rt.Route(context.Background(), "hmm?", &store.WorkingState{ClarifyStreak: 1}, nil)

	if first.Reply == second.Reply {
		t.Error("repeated clarifications should not use identical wording")
	}
}

// blockingHandler holds the call open until the deadline fires, like a
// specialist service that has stopped answering.
type blockingHandler struct {
	name string
}

func (b *blockingHandler) Name() string { return b.name }

func (b *blockingHandler) Handle(ctx context.Context, query string, history []llm.Message) (*agent.Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRouteBudgetExpiryDuringDispatchClarifies(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	provider := &fakeLLM{responses: []string{
		`{"action": "delegate_status", "argument": "battery level"}`,
	}}
	rt := newTestRouter(provider, &fakeEngine{resp: found()}, &blockingHandler{name: "status"}, &fakeHandler{name: "planning"})

	result := rt.Route(ctx, "what's the battery at?", &store.WorkingState{}, nil)

	if result.Handler != store.HandlerClarify {
		t.Errorf("Handler = %q, want clarify when the budget dies mid-dispatch", result.Handler)
	}
	if result.ErrorKind != ErrKindClassificationTimeout {
		t.Errorf("ErrorKind = %q, want %q", result.ErrorKind, ErrKindClassificationTimeout)
	}
	if strings.Contains(result.Reply, "couldn't reach") {
		t.Errorf("budget expiry must not read as a service outage: %q", result.Reply)
	}
}

func TestRouteBudgetExpiryDuringSearchClarifies(t *testing.T) {
	provider := &fakeLLM{responses: []string{
		`{"action": "search_kb", "argument": "fault codes"}`,
	}}
	engine := &fakeEngine{err: context.DeadlineExceeded}
	rt := newTestRouter(provider, engine, &fakeHandler{name: "status"}, &fakeHandler{name: "planning"})

	result := rt.Route(context.Background(), "look up fault codes", &store.WorkingState{}, nil)

	if result.Handler != store.HandlerClarify {
		t.Errorf("Handler = %q, want clarify", result.Handler)
	}
	if result.ErrorKind != ErrKindClassificationTimeout {
		t.Errorf("ErrorKind = %q, want %q", result.ErrorKind, ErrKindClassificationTimeout)
	}
	if strings.Contains(result.Reply, "temporarily unavailable") {
		t.Errorf("budget expiry must not read as a retrieval outage: %q", result.Reply)
	}
}
