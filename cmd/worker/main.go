package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awssesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"dining-concierge/handler"
	"dining-concierge/internal/config"
	"dining-concierge/internal/integrations/mailer"
	"dining-concierge/internal/integrations/opensearch"
	"dining-concierge/internal/integrations/paramstore"
	"dining-concierge/internal/integrations/queue"
	"dining-concierge/internal/repository"
	"dining-concierge/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	conf, err := config.Load[config.Worker]()
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
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		logger.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	params, err := paramstore.NewCache(ssmClient)
	if err != nil {
		logger.Error("failed to create parameter cache", "err", err)
		os.Exit(1)
	}

	dynamoClient := awsdynamodb.NewFromConfig(cfg)
	prefClient, err := repository.NewPreferenceClient(dynamoClient, conf.PreferencesTable)
	if err != nil {
		logger.Error("failed to create preference client", "err", err)
		os.Exit(1)
	}
	restaurantClient, err := repository.NewRestaurantClient(dynamoClient, conf.RestaurantsTable, conf.RestaurantKey)
	if err != nil {
		logger.Error("failed to create restaurant client", "err", err)
		os.Exit(1)
	}

	queueClient, err := queue.New(awssqs.NewFromConfig(cfg), conf.QueueURL)
	if err != nil {
		logger.Error("failed to create queue client", "err", err)
		os.Exit(1)
	}

	searchClient, err := opensearch.NewClient(conf.SearchEndpoint,
		opensearch.WithIndex(conf.SearchIndex),
		opensearch.WithAWSConfig(cfg),
	)
	if err != nil {
		logger.Error("failed to create search client", "err", err)
		os.Exit(1)
	}

	senderParam := conf.SenderParameter()
	mailClient, err := mailer.New(awssesv2.NewFromConfig(cfg), func(ctx context.Context) (string, error) {
		return params.GetParameter(ctx, senderParam)
	})
	if err != nil {
		logger.Error("failed to create mail client", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	fulfillment, err := usecase.NewFulfillmentService(queueClient, searchClient, restaurantClient, prefClient, mailClient,
		usecase.FulfillmentConfig{
			BatchSize:   conf.BatchSize,
			SearchLimit: conf.SearchLimit,
			MinResults:  conf.MinResults,
		}, logger)
	if err != nil {
		logger.Error("failed to create fulfillment service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewWorkerHandler(fulfillment, logger)
	if err != nil {
		logger.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
