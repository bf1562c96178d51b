package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"

	"dining-concierge/handler"
	"dining-concierge/internal/config"
	"dining-concierge/internal/integrations/queue"
	"dining-concierge/internal/repository"
	"dining-concierge/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	conf, err := config.Load[config.Dialogue]()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout, conf.LogLevel)
	slog.SetDefault(logger)

	// ---- AWS SDK config ----
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	prefClient, err := repository.NewPreferenceClient(awsdynamodb.NewFromConfig(cfg), conf.PreferencesTable)
	if err != nil {
		logger.Error("failed to create preference client", "err", err)
		os.Exit(1)
	}
	queueClient, err := queue.New(awssqs.NewFromConfig(cfg), conf.QueueURL)
	if err != nil {
		logger.Error("failed to create queue client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	dialogueService, err := usecase.NewDialogueService(prefClient, queueClient, logger)
	if err != nil {
		logger.Error("failed to create dialogue service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewLexHandler(dialogueService, logger)
	if err != nil {
		logger.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
