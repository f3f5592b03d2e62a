package bootstrap

import (
	"context"
	"log"
	"time"

	"github.com/kunaldev758/chataffy-sub000/internal/config"
	"github.com/kunaldev758/chataffy-sub000/internal/pkg/logger"
	"github.com/kunaldev758/chataffy-sub000/internal/repository/implementation"
	"github.com/kunaldev758/chataffy-sub000/internal/repository/unitofwork"
	"github.com/kunaldev758/chataffy-sub000/internal/service"
	"github.com/kunaldev758/chataffy-sub000/internal/state"
	memorystate "github.com/kunaldev758/chataffy-sub000/internal/state/memory"
	redisstate "github.com/kunaldev758/chataffy-sub000/internal/state/redis"
	"github.com/kunaldev758/chataffy-sub000/pkg/chunker"
	"github.com/kunaldev758/chataffy-sub000/pkg/embedding"
	"github.com/kunaldev758/chataffy-sub000/pkg/fetcher"
	"github.com/kunaldev758/chataffy-sub000/pkg/llm/factory"
	"github.com/kunaldev758/chataffy-sub000/pkg/normalizer"
	"github.com/kunaldev758/chataffy-sub000/pkg/notifier"
	"github.com/kunaldev758/chataffy-sub000/pkg/rag/history"
	"github.com/kunaldev758/chataffy-sub000/pkg/rag/response"
	"github.com/kunaldev758/chataffy-sub000/pkg/rag/retriever"
	"github.com/kunaldev758/chataffy-sub000/pkg/taskqueue"
	qdrantindex "github.com/kunaldev758/chataffy-sub000/pkg/vectorindex/qdrant"

	pktNats "github.com/kunaldev758/chataffy-sub000/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Public services
	IngestionService service.IIngestionService
	AnswerService    service.IAnswerService

	// Background services (main.go runs these)
	CoordinatorService service.ICoordinatorService
	TaskQueue          *taskqueue.Queue
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	// Token usage goes to its own file so billing exports stay clean.
	billingLogger := logger.NewIsolatedLogger("logs/billing.log")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GeminiAPIKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}
	batcher := embedding.NewBatcher(embeddingProvider, cfg.Ingestion.BatchSize)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Vector index. Answering is dead without it, so fail hard.
	index, err := qdrantindex.NewIndex(cfg.Qdrant.Host, cfg.Qdrant.Port)
	if err != nil {
		log.Fatalf("[FATAL] Failed to connect to qdrant: %v", err)
	}
	ensureCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := index.EnsureCollection(ensureCtx, cfg.Qdrant.Collection, uint64(cfg.Ai.EmbeddingDim)); err != nil {
		log.Fatalf("[FATAL] Failed to ensure qdrant collection %q: %v", cfg.Qdrant.Collection, err)
	}

	// 5. NATS (progress events). Degraded visibility is acceptable;
	// ingestion must keep working without the bus.
	var progressNotifier notifier.ProgressNotifier = notifier.NoopNotifier{}
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		progressNotifier = notifier.NewProgressNotifier(natsPub, sysLogger)
	}

	// 6. Shared state (busy flags, task entries)
	var stateStore state.Store
	if cfg.App.StateStore == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Fatalf("[FATAL] STATE_STORE=redis but Redis is unreachable: %v", err)
		}
		stateStore = redisstate.NewStore(rdb)
		log.Printf("[INFO] Using State Store: REDIS")
	} else {
		stateStore = memorystate.NewStore()
		log.Printf("[INFO] Using State Store: MEMORY (single instance only)")
	}

	// 7. Completion queue
	queue := taskqueue.NewQueue(
		implementation.NewQueuedTaskRepository(db),
		stateStore,
		response.NewGenerator(llmProvider, sysLogger),
		taskqueue.NewRealClock(),
		sysLogger,
		billingLogger,
		taskqueue.Options{
			MaxPerWindow: cfg.TaskQueue.MaxPerWindow,
			Span:         time.Duration(cfg.TaskQueue.WindowSeconds) * time.Second,
			Tick:         time.Duration(cfg.TaskQueue.TickMs) * time.Millisecond,
			AwaitPoll:    time.Duration(cfg.TaskQueue.AwaitPollMs) * time.Millisecond,
		},
	)

	// 8. Services
	publisherService := service.NewPublisherService(cfg.Ingestion.TriggerTopic, pubSub)

	ingestionService := service.NewIngestionService(
		uowFactory,
		publisherService,
		index,
		cfg.Qdrant.Collection,
		cfg.Ingestion.MaxAttempts,
		sysLogger,
	)

	coordinatorService := service.NewCoordinatorService(
		pubSub,
		cfg.Ingestion.TriggerTopic,
		uowFactory,
		stateStore,
		fetcher.NewHTTPFetcher(time.Duration(cfg.Ingestion.FetchTimeoutMs)*time.Millisecond),
		normalizer.NewNormalizer(),
		chunker.NewChunker(cfg.Ingestion.ChunkSize, cfg.Ingestion.ChunkOverlap),
		batcher,
		index,
		cfg.Qdrant.Collection,
		progressNotifier,
		sysLogger,
		cfg.Ingestion.BatchSize,
		time.Duration(cfg.Ingestion.BusyTTLSeconds)*time.Second,
	)

	answerService := service.NewAnswerService(
		uowFactory,
		queue,
		retriever.NewRetriever(
			embeddingProvider,
			index,
			cfg.Qdrant.Collection,
			cfg.Retrieval.TopK,
			cfg.Retrieval.ThresholdRelaxStep,
			cfg.Retrieval.ThresholdFloor,
		),
		history.NewLoader(uowFactory, cfg.Retrieval.HistoryTurns),
		cfg.Retrieval.IrrelevantCutoff,
		cfg.Retrieval.ScoreThreshold,
		sysLogger,
	)

	return &Container{
		IngestionService:   ingestionService,
		AnswerService:      answerService,
		CoordinatorService: coordinatorService,
		TaskQueue:          queue,
	}
}
