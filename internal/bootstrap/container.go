package bootstrap

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"notebook-widget-be/internal/config"
	"notebook-widget-be/internal/controller"
	"notebook-widget-be/internal/pkg/logger"
	"notebook-widget-be/internal/service"
	"notebook-widget-be/internal/session"
	"notebook-widget-be/pkg/opennotebook"
	"notebook-widget-be/pkg/sse"
)

type Container struct {
	ChatController      controller.IChatController
	ReferenceController controller.IReferenceController

	Logger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	transcriptLogger := logger.NewIsolatedLogger("logs/chat_transcript.log")

	// 2. Upstream Client
	notebookClient := opennotebook.NewClient(
		cfg.Notebook.Endpoint,
		cfg.Notebook.NotebookID,
		cfg.Notebook.DefaultModel,
		cfg.Notebook.APIKey,
	)
	if cfg.Notebook.Endpoint == "" {
		log.Printf("[WARN] OPEN_NOTEBOOK_ENDPOINT is not set; chat requests will fail")
	}

	// 3. Session Storage (Redis when configured, in-memory otherwise)
	var sessionRepo session.Repository = session.NewMemoryRepository(cfg.Session.Lifetime)
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using in-memory sessions", err)
		} else {
			rdb := redis.NewClient(opt)
			if _, err := rdb.Ping(context.Background()).Result(); err != nil {
				log.Printf("[WARN] Failed to connect to Redis: %v. Using in-memory sessions", err)
			} else {
				sessionRepo = session.NewRedisRepository(rdb, cfg.Session.Lifetime)
				log.Printf("[INFO] Using Redis session storage")
			}
		}
	}

	sessionStore := session.NewStore(sessionRepo, notebookClient, cfg.Notebook.SessionTitle, sysLogger)

	// 4. Services
	mode := sse.AnswerCumulative
	if cfg.Notebook.StreamMode == string(sse.AnswerIncremental) {
		mode = sse.AnswerIncremental
	}
	log.Printf("[INFO] Using answer stream mode: %s", mode)

	chatService := service.NewChatService(
		sessionStore,
		notebookClient,
		mode,
		sysLogger,
		transcriptLogger,
	)

	// 5. Controllers
	return &Container{
		ChatController:      controller.NewChatController(chatService, cfg, sysLogger),
		ReferenceController: controller.NewReferenceController(notebookClient),
		Logger:              sysLogger,
	}
}
