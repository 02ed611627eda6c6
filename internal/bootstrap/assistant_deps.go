package bootstrap

import (
	"time"

	"assistant_server/adapter/out/persistence"
	"assistant_server/adapter/out/provider"
	"assistant_server/adapter/out/provider/serpapi"
	"assistant_server/config"
	"assistant_server/core/agent"
	"assistant_server/core/agent/composer"
	"assistant_server/core/agent/llm"
	"assistant_server/core/agent/responder"
	"assistant_server/core/agent/scheduler"
	"assistant_server/core/consent"
	"assistant_server/core/port/out"
	"assistant_server/core/service/inbox"
	"assistant_server/core/service/knowledge"
	respsvc "assistant_server/core/service/response"
	"assistant_server/infra/database"
	"assistant_server/pkg/cache"
	"assistant_server/pkg/crypto"
	"assistant_server/pkg/logger"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Dependencies holds every wired component of the service.
type Dependencies struct {
	Config *config.Config
	DB     *sqlx.DB
	Redis  *redis.Client

	// Repositories
	UserRepo     out.UserRepository
	ResponseRepo out.ResponseRepository

	// Security
	Encryptor  *crypto.Encryptor
	ConsentMgr *consent.Manager

	// Providers
	ProviderFactory out.ProviderFactory
	SearchProvider  out.SearchProviderPort

	// Agent
	LLMClient    *llm.Client
	Orchestrator *agent.Orchestrator

	// Services
	KnowledgeService *knowledge.Service
	InboxService     *inbox.Service
	ResponseService  *respsvc.Service
}

// NewDependencies wires the full dependency graph.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// PostgreSQL
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	deps.DB = db
	cleanups = append(cleanups, func() { db.Close() })

	if err := persistence.Migrate(db); err != nil {
		cleanup()
		return nil, nil, err
	}

	// Redis (optional; inbox summaries fall back to refetching)
	var inboxCache *cache.RedisCache
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, inbox caching disabled")
		} else {
			deps.Redis = redisClient
			inboxCache = cache.NewRedisCache(redisClient)
			cleanups = append(cleanups, func() { redisClient.Close() })
		}
	}

	// Security
	encryptor, err := crypto.NewEncryptor(cfg.EncryptionSecret)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.Encryptor = encryptor

	consentMgr, err := consent.NewManager(cfg.ConsentSecret, cfg.DefaultAgentID)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.ConsentMgr = consentMgr

	// Repositories
	deps.UserRepo = persistence.NewUserAdapter(db)
	deps.ResponseRepo = persistence.NewResponseAdapter(db)

	// Providers
	deps.ProviderFactory = provider.NewFactory(&provider.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})
	if cfg.SerpAPIKey != "" {
		deps.SearchProvider = serpapi.NewProvider(cfg.SerpAPIKey)
	} else {
		logger.Warn("SERPAPI_API_KEY not set, web search disabled")
	}

	// LLM
	deps.LLMClient = llm.NewClientWithConfig(llm.ClientConfig{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.LLMModel,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.LLMTimeout,
	})

	// Services
	deps.KnowledgeService = knowledge.NewService(cfg.KnowledgeBaseDir)
	deps.InboxService = inbox.NewService(deps.LLMClient, inboxCache,
		cfg.SummarizeWorkers, cfg.InboxWindowHours, cfg.InboxCacheTTL)

	// Agent pipeline
	classifier := agent.NewClassifier(deps.LLMClient)
	schedAgent := scheduler.NewAgent(deps.LLMClient, cfg.SchedulerMaxTurns)
	infoResp := responder.NewInfoResponder(deps.LLMClient, deps.LLMClient, deps.SearchProvider)
	generalResp := responder.NewGeneralResponder(deps.LLMClient)
	comp := composer.NewComposer(deps.LLMClient)

	deps.Orchestrator = agent.NewOrchestrator(
		classifier, schedAgent, infoResp, generalResp, comp,
		consentMgr, deps.LLMClient, deps.KnowledgeService,
		agent.Config{
			ChunkSize:         cfg.ChunkSize,
			ChunkOverlap:      cfg.ChunkOverlap,
			RetrievalTopK:     cfg.RetrievalTopK,
			ToneWindowDays:    cfg.ToneWindowDays,
			SchedulerMaxTurns: cfg.SchedulerMaxTurns,
			WorkingHoursStart: cfg.WorkingHoursStart,
			WorkingHoursEnd:   cfg.WorkingHoursEnd,
		},
	)

	deps.ResponseService = respsvc.NewService(deps.Orchestrator, deps.InboxService, deps.ResponseRepo)

	logger.Info("Dependencies initialized (redis=%t, web_search=%t)",
		deps.Redis != nil, deps.SearchProvider != nil)

	return deps, cleanup, nil
}

// ConsentTTL returns the login consent token lifetime.
func (d *Dependencies) ConsentTTL() time.Duration {
	return time.Duration(d.Config.ConsentTTLHours) * time.Hour
}
