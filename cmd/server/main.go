package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmednasr/repomind/internal/acquirer"
	"github.com/ahmednasr/repomind/internal/config"
	"github.com/ahmednasr/repomind/internal/contextbuilder"
	"github.com/ahmednasr/repomind/internal/database"
	"github.com/ahmednasr/repomind/internal/github"
	"github.com/ahmednasr/repomind/internal/handler"
	"github.com/ahmednasr/repomind/internal/llm"
	"github.com/ahmednasr/repomind/internal/metrics"
	"github.com/ahmednasr/repomind/internal/middleware"
	"github.com/ahmednasr/repomind/internal/repository"
	"github.com/ahmednasr/repomind/internal/service"
)

// sessionStore is what main needs from any store backend.
type sessionStore interface {
	service.SessionRepository
	Close(ctx context.Context) error
}

// main is the single entry-point for the REST API.
func main() {
	// Load configuration
	cfg := config.Load()
	log.Printf("Configuration loaded:")
	log.Printf("  - Acquirer: %s", cfg.Acquirer)
	log.Printf("  - Session store: %s", cfg.SessionStore)
	log.Printf("  - LLM provider: %s", cfg.LLMProvider)

	metrics.Init()

	// Session store
	store, err := newSessionStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			log.Printf("Session store close: %v", err)
		}
	}()

	// Acquisition
	gh := github.NewClient(cfg.GitHubToken,
		github.WithBaseURL(cfg.GitHubAPIURL),
		github.WithRateLimit(cfg.GitHubRPS),
	)
	source, err := acquirer.New(cfg.Acquirer, gh, cfg.CloneTimeout)
	if err != nil {
		log.Fatalf("Failed to initialize acquirer: %v", err)
	}

	// Language model
	provider, closeProvider, err := newProvider(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize LLM provider: %v", err)
	}
	defer closeProvider()

	// Initialize services
	ingestSvc := service.NewIngestService(source, contextbuilder.NewBuilder(), store)
	chatSvc := service.NewChatService(store, provider, cfg.QueryThinkingBudget)
	diagramSvc := service.NewDiagramService(store, provider, cfg.DiagramThinkingBudget)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "repomind",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: handler.ErrorHandler,
	})

	// Add middleware
	for _, mw := range middleware.Logging() {
		app.Use(mw)
	}

	// Register routes
	handler.RegisterRoutes(app, ingestSvc, chatSvc, diagramSvc, store)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Printf("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}()

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func newSessionStore(cfg config.Config) (sessionStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch cfg.SessionStore {
	case config.StoreMongo:
		client, err := database.NewMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		log.Printf("Connected to MongoDB, using database %s", cfg.DBName)
		store := repository.NewMongoSessionStore(client.Database(cfg.DBName))
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case config.StoreRedis:
		client, err := database.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		log.Printf("Connected to Redis at %s", cfg.RedisAddr)
		return repository.NewRedisSessionStore(client, repository.DefaultRedisPrefix), nil

	default:
		store := repository.NewMemorySessionStore()
		store.Start()
		return store, nil
	}
}

func newProvider(cfg config.Config) (llm.Provider, func(), error) {
	switch cfg.LLMProvider {
	case config.LLMVertex:
		v, err := llm.NewVertex(context.Background(), cfg.ProjectID, cfg.Location, cfg.VertexModel, cfg.CredentialsFile, cfg.LLMMaxTokens)
		if err != nil {
			return nil, nil, err
		}
		return v, func() { _ = v.Close() }, nil
	default:
		return llm.NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.LLMMaxTokens), func() {}, nil
	}
}
