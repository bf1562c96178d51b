package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"dining-concierge/internal/usecase"
)

type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

type DrainUseCase interface {
	Drain(ctx context.Context) usecase.BatchResult
}

// WorkerHandler runs one fulfillment drain per scheduled invocation.
type WorkerHandler struct {
	uc     DrainUseCase
	logger *slog.Logger
}

func NewWorkerHandler(uc DrainUseCase, logger *slog.Logger) (*WorkerHandler, error) {
	if uc == nil {
		return nil, errors.New("handler: drain use case must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerHandler{uc: uc, logger: logger}, nil
}

func (h *WorkerHandler) Handle(ctx context.Context, event events.CloudWatchEvent) (Response, error) {
	res := h.uc.Drain(ctx)
	h.logger.InfoContext(ctx, "drain finished",
		"event_id", event.ID,
		"received", res.Received,
		"completed", res.Completed,
		"discarded", res.Discarded,
		"abandoned", res.Abandoned,
	)
	return Response{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"content-type": "text/plain"},
		Body:       res.String(),
	}, nil
}
