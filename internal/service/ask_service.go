package service

import (
	"context"
	"time"

	"commandcenter-be/internal/constant"
	"commandcenter-be/internal/dto"
	"commandcenter-be/internal/entity"
	"commandcenter-be/internal/repository/memory"
	"commandcenter-be/internal/repository/unitofwork"
	"commandcenter-be/pkg/ai/router"
	"commandcenter-be/pkg/events"
	"commandcenter-be/pkg/llm"
	pktNats "commandcenter-be/pkg/nats"
	"commandcenter-be/pkg/store"

	"github.com/google/uuid"
)

type IAskService interface {
	Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error)
	GetSessions(ctx context.Context) ([]*dto.SessionSummary, error)
	GetHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.TurnView, error)
}

type askService struct {
	uowFactory  unitofwork.RepositoryFactory
	sessionRepo *memory.SessionRepository
	router      *router.Router
	natsPub     *pktNats.Publisher
	queryBudget time.Duration
}

func NewAskService(
	uowFactory unitofwork.RepositoryFactory,
	sessionRepo *memory.SessionRepository,
	rt *router.Router,
	natsPub *pktNats.Publisher,
	queryBudget time.Duration,
) IAskService {
	if queryBudget <= 0 {
		queryBudget = 30 * time.Second
	}
	return &askService{
		uowFactory:  uowFactory,
		sessionRepo: sessionRepo,
		router:      rt,
		natsPub:     natsPub,
		queryBudget: queryBudget,
	}
}

func (s *askService) Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error) {
	start := time.Now()
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// A malformed or unknown session id silently starts a fresh session.
	// Conversations must survive backend restarts and client bugs.
	session, err := s.resolveSession(ctx, uow, req.SessionId, req.Message)
	if err != nil {
		return nil, err
	}

	history, err := s.loadHistory(ctx, uow, session.Id)
	if err != nil {
		return nil, err
	}

	state, found := s.sessionRepo.Get(session.Id.String())
	if !found {
		state = &store.WorkingState{ID: session.Id.String()}
	}

	// The budget covers classification AND dispatch. Whatever is still
	// running when it expires resolves into a degraded reply downstream.
	routeCtx, cancel := context.WithTimeout(ctx, s.queryBudget)
	defer cancel()

	result := s.router.Route(routeCtx, req.Message, state, history)
	durationMs := time.Since(start).Milliseconds()

	decisionAction := ""
	decisionReason := ""
	decisionConfidence := 0.0
	if result.Decision != nil {
		decisionAction = string(result.Decision.Action)
		decisionReason = result.Decision.Reason
		decisionConfidence = result.Decision.Confidence
	}

	if err := s.persistTurns(ctx, uow, session.Id, req.Message, result, decisionAction, decisionReason, durationMs); err != nil {
		return nil, err
	}

	// Routing hints for the next turn in this conversation.
	state.LastHandler = result.Handler
	state.LastDecision = decisionAction
	state.LastQuery = req.Message
	if result.Handler == store.HandlerClarify {
		state.ClarifyStreak++
	} else {
		state.ClarifyStreak = 0
	}
	s.sessionRepo.Save(state)

	// Best effort. Routing audit must never fail a user query.
	if s.natsPub != nil {
		event := events.NewQueryRoutedEvent(
			session.Id.String(),
			result.Handler,
			decisionAction,
			decisionReason,
			decisionConfidence,
			result.ErrorKind,
			result.FastPathed,
			durationMs,
		)
		go func() {
			pubCtx, pubCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer pubCancel()
			_ = s.natsPub.Publish(pubCtx, event)
		}()
	}

	return &dto.AskResponse{
		SessionId:  session.Id,
		Response:   result.Reply,
		Handler:    result.Handler,
		Decision:   decisionAction,
		ErrorKind:  result.ErrorKind,
		DurationMs: durationMs,
	}, nil
}

func (s *askService) resolveSession(ctx context.Context, uow unitofwork.UnitOfWork, sessionIdStr, firstMessage string) (*entity.ChatSession, error) {
	if sessionIdStr != "" {
		if sessionId, err := uuid.Parse(sessionIdStr); err == nil {
			session, err := uow.ChatSessionRepository().FindById(ctx, sessionId)
			if err != nil {
				return nil, err
			}
			if session != nil {
				return session, nil
			}
		}
	}

	session := &entity.ChatSession{
		Id:        uuid.New(),
		Title:     sessionTitle(firstMessage),
		CreatedAt: time.Now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *askService) loadHistory(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) ([]llm.Message, error) {
	turns, err := uow.ChatTurnRepository().FindBySessionId(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, llm.Message{
			Role:    turn.Role,
			Content: turn.Text,
		})
	}
	return messages, nil
}

func (s *askService) persistTurns(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	sessionId uuid.UUID,
	query string,
	result *router.RouteResult,
	decisionAction, decisionReason string,
	durationMs int64,
) error {
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	now := time.Now()
	userTurn := &entity.ChatTurn{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		Role:          constant.ChatTurnRoleUser,
		Text:          query,
		CreatedAt:     now,
	}
	if err := uow.ChatTurnRepository().Create(ctx, userTurn); err != nil {
		return err
	}

	assistantTurn := &entity.ChatTurn{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		Role:          constant.ChatTurnRoleAssistant,
		Text:          result.Reply,
		Metadata: &entity.TurnMetadata{
			Handler:    result.Handler,
			Decision:   decisionAction,
			Reason:     decisionReason,
			DurationMs: durationMs,
		},
		CreatedAt: now.Add(time.Millisecond), // keep ordering stable within the pair
	}
	if err := uow.ChatTurnRepository().Create(ctx, assistantTurn); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *askService) GetSessions(ctx context.Context) ([]*dto.SessionSummary, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		result = append(result, &dto.SessionSummary{
			Id:        session.Id,
			Title:     session.Title,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		})
	}
	return result, nil
}

func (s *askService) GetHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.TurnView, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	turns, err := uow.ChatTurnRepository().FindBySessionId(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.TurnView, 0, len(turns))
	for _, turn := range turns {
		view := &dto.TurnView{
			Id:        turn.Id,
			Role:      turn.Role,
			Text:      turn.Text,
			CreatedAt: turn.CreatedAt,
		}
		if turn.Metadata != nil {
			view.Handler = turn.Metadata.Handler
			view.Decision = turn.Metadata.Decision
		}
		result = append(result, view)
	}
	return result, nil
}

func sessionTitle(message string) string {
	const maxTitle = 60
	runes := []rune(message)
	if len(runes) <= maxTitle {
		return message
	}
	return string(runes[:maxTitle]) + "..."
}
