package bootstrap

import (
	"context"
	"log"
	"os"

	"commandcenter-be/internal/config"
	"commandcenter-be/internal/controller"
	"commandcenter-be/internal/pkg/logger"
	"commandcenter-be/internal/pkg/mailer"
	"commandcenter-be/internal/repository/implementation"
	"commandcenter-be/internal/repository/memory"
	"commandcenter-be/internal/repository/unitofwork"
	"commandcenter-be/internal/service"
	"commandcenter-be/internal/websocket"
	"commandcenter-be/pkg/agent"
	"commandcenter-be/pkg/ai/fastpath"
	"commandcenter-be/pkg/ai/router"
	"commandcenter-be/pkg/contentsource"
	"commandcenter-be/pkg/embedding"
	"commandcenter-be/pkg/llm/factory"
	"commandcenter-be/pkg/rag"

	pktNats "commandcenter-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AskController controller.IAskController
	KBController  controller.IKBController
	OpsController controller.IOpsController

	// Background services (exposed for main.go to run)
	SyncConsumerService service.ISyncConsumerService

	// WebSockets
	WebSocketHub *websocket.Hub

	// Shared infrastructure
	Logger  logger.ILogger
	NatsPub *pktNats.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
	)

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket hub for sync progress
	wsLogger := logger.NewIsolatedLogger("logs/sync.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. AI providers
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbedModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbedModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}
	embeddingProvider = embedding.NewCachedProvider(embeddingProvider, rdb, cfg.Ai.EmbedCacheTTL)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OpenAIBaseURL,
		cfg.Ai.OpenAIAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Retrieval and routing
	domainLogger := log.New(os.Stdout, "", log.LstdFlags)

	chunkRepo := implementation.NewChunkRepository(db)
	engine := rag.NewEngine(embeddingProvider, chunkRepo, cfg.Router.NotFoundFloor, domainLogger)

	// Specialists always receive the is_context documentation alongside the
	// query, independent of any similarity match.
	statusHandler := agent.NewStatusHandler(cfg.Handlers.StatusURL, cfg.Handlers.Timeout, engine.LoadContext)
	planningHandler := agent.NewPlanningHandler(cfg.Handlers.PlanningURL, cfg.Handlers.Timeout, engine.LoadContext)

	fastPath := fastpath.NewClassifier(cfg.Router.FastPathDocPatterns, cfg.Router.FastPathSystemPatterns)

	queryRouter := router.NewRouter(
		llmProvider,
		engine,
		statusHandler,
		planningHandler,
		fastPath,
		cfg.Router.MaxClassifyAttempts,
		cfg.Router.SearchLimit,
		domainLogger,
	)

	// In-memory per-session routing state
	sessionRepo := memory.NewSessionRepository()

	// 5. Services
	publisherService := service.NewPublisherService(cfg.KB.SyncTopic, pubSub)

	source := contentsource.NewHTTPSource(cfg.Handlers.ContentSourceURL, cfg.Handlers.Timeout)
	syncConsumerService := service.NewSyncConsumerService(
		pubSub,
		cfg.KB.SyncTopic,
		uowFactory,
		source,
		embeddingProvider,
		wsHub,
		emailService,
		cfg.SMTP.OperatorEmail,
		natsPub,
		cfg.KB.ChunkTokens,
		cfg.KB.OverlapTokens,
	)

	askService := service.NewAskService(
		uowFactory,
		sessionRepo,
		queryRouter,
		natsPub,
		cfg.Router.QueryBudget,
	)
	kbService := service.NewKBService(uowFactory, publisherService)

	// 6. Controllers
	return &Container{
		AskController: controller.NewAskController(askService),
		KBController:  controller.NewKBController(kbService, wsHub),
		OpsController: controller.NewOpsController(sysLogger),

		SyncConsumerService: syncConsumerService,

		WebSocketHub: wsHub,
		Logger:       sysLogger,
		NatsPub:      natsPub,
	}
}
