package bootstrap

import (
	"strings"

	"assistant_server/adapter/in/http"
	"assistant_server/config"
	"assistant_server/infra/middleware"
	"assistant_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// NewAPI builds the configured Fiber application and its dependency graph.
func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	logLevel := logger.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = logger.LevelDebug
	}
	logger.Init(logger.Config{
		Level:   logLevel,
		Service: "assistant-api",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),

		// go-json is noticeably faster than encoding/json on the agent paths
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		// Attachments and KB uploads ride in request bodies
		BodyLimit: 12 * 1024 * 1024,

		ReadBufferSize:  16384,
		WriteBufferSize: 16384,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	if allowOrigins == "" && cfg.IsDevelopment() {
		allowOrigins = "http://localhost:3000,http://localhost:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders:    "X-Request-ID",
		AllowCredentials: allowOrigins != "" && allowOrigins != "*",
		MaxAge:           86400,
	}))

	// Health checks (no auth)
	healthHandler := http.NewHealthHandler(deps.DB, deps.Redis)
	healthHandler.Register(app)

	providers := http.NewGoogleProviders(deps.UserRepo, deps.ProviderFactory, deps.Encryptor)

	authHandler := http.NewAuthHandler(deps.UserRepo, deps.ConsentMgr, providers, deps.ConsentTTL())
	authHandler.Register(app)

	assistantHandler := http.NewAssistantHandler(deps.InboxService, deps.ResponseService,
		deps.ConsentMgr, providers, cfg.KBConsentTTL)
	assistantHandler.Register(app)

	knowledgeHandler := http.NewKnowledgeHandler(deps.KnowledgeService)
	knowledgeHandler.Register(app)

	accountHandler := http.NewAccountHandler(deps.UserRepo, deps.ResponseService)
	accountHandler.Register(app)

	logger.Info("API server initialized successfully")

	return app, cleanup, nil
}
