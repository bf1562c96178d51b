package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lexruntimev2"

	"dining-concierge/handler"
	"dining-concierge/internal/config"
	"dining-concierge/internal/integrations/lex"
	"dining-concierge/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	conf, err := config.Load[config.Chat]()
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
	lexClient, err := lex.New(lexruntimev2.NewFromConfig(cfg), lex.Config{
		BotID:      conf.LexBotID,
		BotAliasID: conf.LexBotAliasID,
		LocaleID:   conf.LexLocaleID,
	})
	if err != nil {
		logger.Error("failed to create Lex client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	chatService, err := usecase.NewChatService(lexClient, conf.MaxUtteranceLength)
	if err != nil {
		logger.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewChatHandler(chatService, logger)
	if err != nil {
		logger.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
