package main

import (
	"context"
	"log"
	"strings"

	api "replypilot-backend/cmd/api"
	accountdomain "replypilot-backend/internal/account/domain"
	accountRepo "replypilot-backend/internal/account/repository"
	accountUsecase "replypilot-backend/internal/account/usecase"
	authUsecase "replypilot-backend/internal/auth/usecase"
	"replypilot-backend/internal/notification"
	pipelineDelivery "replypilot-backend/internal/pipeline/delivery"
	pipelinedomain "replypilot-backend/internal/pipeline/domain"
	pipelineRepo "replypilot-backend/internal/pipeline/repository"
	pipelineUsecase "replypilot-backend/internal/pipeline/usecase"
	"replypilot-backend/pkg/ai"
	"replypilot-backend/pkg/config"
	"replypilot-backend/pkg/database"
	"replypilot-backend/pkg/gmail"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&accountdomain.Account{},
		&accountdomain.FAQ{},
		&accountdomain.RefreshToken{},
		&pipelinedomain.ProcessedMessage{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	accounts := accountRepo.NewAccountRepository(db)
	messages := pipelineRepo.NewProcessedMessageRepository(db)

	// Initialize Gmail service
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.PubSubTopic)

	// Initialize AI service
	aiService, err := ai.NewService(ai.Config{
		Provider:      cfg.AIProvider,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIModel:   cfg.OpenAIModel,
		OpenAITimeout: cfg.OpenAITimeout,
	})
	if err != nil {
		log.Fatal("Failed to initialize AI service:", err)
	}
	log.Printf("AI service initialized with provider: %s", cfg.AIProvider)

	// Initialize use cases (dependency injection)
	authUc := authUsecase.NewAuthUsecase(accounts, cfg)
	accountUc := accountUsecase.NewAccountUsecase(accounts, gmailService)
	processingUc := pipelineUsecase.NewProcessingUsecase(accounts, messages, gmailService, aiService, cfg.MessageTimeout)

	pipelineHandler := pipelineDelivery.NewPipelineHandler(processingUc, accounts, messages)

	// Initialize Notification Service (Pub/Sub pull).
	// Only started when a project ID is configured; push-webhook deployments
	// leave it off.
	if cfg.GoogleProjectID != "" {
		// Extract short topic name from full resource name if necessary
		topicName := cfg.PubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}
		if topicName == "" {
			topicName = "gmail-updates"
		}

		notifService, err := notification.NewService(cfg.GoogleProjectID, topicName, accounts, processingUc, cfg.GoogleCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize notification service: %v", err)
		} else {
			go notifService.Start(context.Background())
		}
	} else {
		log.Printf("[WARN] GOOGLE_PROJECT_ID not configured, notification service disabled")
	}

	// Initialize HTTP handler
	handler := api.NewHandler(authUc, accountUc, pipelineHandler)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
