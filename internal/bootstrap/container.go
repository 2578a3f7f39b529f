package bootstrap

import (
	"context"
	"log"

	"portfolio-chat-be/internal/config"
	"portfolio-chat-be/internal/controller"
	"portfolio-chat-be/internal/entity"
	"portfolio-chat-be/internal/pkg/logger"
	"portfolio-chat-be/internal/repository/contract"
	"portfolio-chat-be/internal/repository/implementation"
	"portfolio-chat-be/internal/repository/memory"
	"portfolio-chat-be/internal/repository/redisstore"
	"portfolio-chat-be/internal/service"
	"portfolio-chat-be/pkg/database"
	"portfolio-chat-be/pkg/llm/factory"
	"portfolio-chat-be/pkg/weather"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

const persistTopic = "chat.transcript.persist"

type Container struct {
	// Controllers
	ChatController  controller.IChatController
	AdminController controller.IAdminController

	// Background services (exposed for main.go to run)
	PersistService service.IPersistService

	Logger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Event bus for the storage consumer
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// LLM provider per config
	llmProvider, err := factory.NewProvider(
		cfg.Ai.Provider,
		cfg.Ai.Model,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.OpenRouter,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.Provider, cfg.Ai.Model)

	// Session registry: redis when configured, in-memory otherwise
	var registry contract.SessionRegistry
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		registry = redisstore.NewSessionRepository(rdb)
		log.Printf("[INFO] Session registry: redis")
	} else {
		registry = memory.NewSessionRepository()
		log.Printf("[INFO] Session registry: in-memory")
	}

	// Chat log storage is optional; without a DSN the chat works the
	// same but keeps no history.
	var (
		sessionRepo    contract.ChatSessionRepository
		messageRepo    contract.ChatMessageRepository
		persistService service.IPersistService
	)
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Fatalf("[FATAL] Failed to connect to database: %v", err)
		}
		if err := db.AutoMigrate(&entity.ChatSession{}, &entity.ChatMessage{}); err != nil {
			log.Fatalf("[FATAL] Failed to migrate chat log schema: %v", err)
		}
		sessionRepo = implementation.NewChatSessionRepository(db)
		messageRepo = implementation.NewChatMessageRepository(db)
		persistService = service.NewPersistService(
			pubSub,
			persistTopic,
			sessionRepo,
			messageRepo,
			registry,
			sysLogger,
		)
		log.Printf("[INFO] Chat log storage: enabled")
	} else {
		log.Printf("[INFO] Chat log storage: disabled (no DB_CONNECTION_STRING)")
	}

	var weatherClient *weather.Client
	if cfg.Keys.OpenWeather != "" {
		weatherClient = weather.NewClient(cfg.Keys.OpenWeather)
	}

	chatService := service.NewChatService(
		registry,
		sessionRepo,
		messageRepo,
		llmProvider,
		weatherClient,
		pubSub,
		persistTopic,
		cfg.Weather.DefaultLocation,
		sysLogger,
	)

	adminService := service.NewAdminService(
		cfg.Admin.PasswordHash,
		cfg.Admin.JwtSecret,
		sessionRepo,
		messageRepo,
		sysLogger,
	)

	return &Container{
		ChatController:  controller.NewChatController(chatService),
		AdminController: controller.NewAdminController(adminService, chatService),
		PersistService:  persistService,
		Logger:          sysLogger,
	}
}
