package main

import (
	"time"

	"github.com/athenahq/scheduling-assistant/internal/agent"
	"github.com/athenahq/scheduling-assistant/internal/bot"
	"github.com/athenahq/scheduling-assistant/internal/calendar"
	"github.com/athenahq/scheduling-assistant/internal/clarifier"
	"github.com/athenahq/scheduling-assistant/internal/classifier"
	"github.com/athenahq/scheduling-assistant/internal/executor"
	"github.com/athenahq/scheduling-assistant/internal/planner"
	"github.com/athenahq/scheduling-assistant/internal/reasoner"
	"github.com/athenahq/scheduling-assistant/internal/responder"
	"github.com/athenahq/scheduling-assistant/internal/storage"
	"github.com/athenahq/scheduling-assistant/internal/temporal"
	"github.com/athenahq/scheduling-assistant/pkg/config"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	location, err := time.LoadLocation(cfg.Scheduling.Timezone)
	if err != nil {
		logger.Fatal("Failed to load timezone", zap.Error(err), zap.String("timezone", cfg.Scheduling.Timezone))
	}

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		dbConfig := storage.DatabaseConfig{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.DBName,
			SSLMode:     cfg.Database.SSLMode,
			UseInMemory: cfg.Database.UseInMemory,
		}
		store, err = storage.NewPostgresStorage(dbConfig, logger)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	requestTimeout := time.Duration(cfg.Scheduling.RequestTimeoutSeconds) * time.Second

	// Initialize the language model client shared by classification,
	// clarification and response phrasing
	llm := reasoner.NewOpenAIReasoner(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.MaxTokens,
		cfg.OpenAI.Temperature,
		requestTimeout,
		logger,
	)

	// Initialize the calendar backend
	cal := calendar.NewGoogleClient(calendar.GoogleConfig{
		ClientID:     cfg.Calendar.ClientID,
		ClientSecret: cfg.Calendar.ClientSecret,
		RefreshToken: cfg.Calendar.RefreshToken,
		Timeout:      requestTimeout,
	}, logger)

	defaultDuration := time.Duration(cfg.Scheduling.DefaultMeetingMinutes) * time.Minute

	resolver := temporal.NewResolver(temporal.Options{
		DefaultDuration:   defaultDuration,
		BusinessStartHour: cfg.Scheduling.BusinessDayStartHour,
		BusinessEndHour:   cfg.Scheduling.BusinessDayEndHour,
	}, logger)

	// Assemble the pipeline
	a := agent.New(
		classifier.NewLLMClassifier(llm, logger),
		planner.New(logger),
		clarifier.New(llm, logger),
		executor.New(cal, cfg.Calendar.CalendarIDs, defaultDuration, logger),
		responder.New(llm, logger),
		resolver,
		store,
		logger,
	)

	// Initialize bot
	b, err := bot.New(cfg.Telegram.Token, a, location, requestTimeout, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// Start the bot
	if err := b.Start(); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
}
