package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"dining-concierge/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

const messageTypeUnstructured = "unstructured"

type ChatUseCase interface {
	Converse(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

// ChatHandler serves POST /chat behind API Gateway. Every request is answered
// with 200 and a message envelope; failures surface as an apology text.
type ChatHandler struct {
	uc     ChatUseCase
	logger *slog.Logger
}

type unstructuredText struct {
	Text string `json:"text"`
}

type chatMessage struct {
	Type         string           `json:"type"`
	Unstructured unstructuredText `json:"unstructured"`
}

type chatEnvelope struct {
	Messages  []chatMessage `json:"messages"`
	SessionID string        `json:"sessionId,omitempty"`
}

func NewChatHandler(uc ChatUseCase, logger *slog.Logger) (*ChatHandler, error) {
	if uc == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{uc: uc, logger: logger}, nil
}

func (h *ChatHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = newCorrelationID()
	}
	log := h.logger.With("correlation_id", correlationID)

	in, err := decodeChatRequest(req)
	if err != nil {
		log.WarnContext(ctx, "invalid chat request", "err", err)
		return chatResponse(correlationID, usecase.FallbackReply(), ""), nil
	}

	out, err := h.uc.Converse(ctx, in)
	if err != nil {
		usecaseErr := usecase.AsError(err)
		log.ErrorContext(ctx, "chat turn failed", "code", usecaseErr.Code, "reason", usecaseErr.Reason, "err", usecaseErr.Err)
		return chatResponse(correlationID, usecase.FallbackReply(), in.SessionID), nil
	}

	log.InfoContext(ctx, "chat turn served", "session_id", out.SessionID, "intent", out.Intent)
	return chatResponse(correlationID, out.Reply, out.SessionID), nil
}

func decodeChatRequest(req events.APIGatewayProxyRequest) (usecase.ChatInput, error) {
	body := req.Body
	if req.IsBase64Encoded {
		raw, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return usecase.ChatInput{}, err
		}
		body = string(raw)
	}

	var env chatEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return usecase.ChatInput{}, err
	}
	in := usecase.ChatInput{SessionID: env.SessionID}
	for _, m := range env.Messages {
		if m.Type == messageTypeUnstructured {
			in.Text = m.Unstructured.Text
			return in, nil
		}
	}
	return in, errors.New("no unstructured message in request")
}

func chatResponse(correlationID, text, sessionID string) events.APIGatewayProxyResponse {
	body, err := json.Marshal(chatEnvelope{
		Messages: []chatMessage{{
			Type:         messageTypeUnstructured,
			Unstructured: unstructuredText{Text: text},
		}},
		SessionID: sessionID,
	})
	if err != nil {
		body = []byte(`{"messages":[]}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":                 "application/json",
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Headers": "Content-Type,X-Correlation-Id",
			"Access-Control-Allow-Methods": "OPTIONS,POST",
			correlationHeader:              correlationID,
		},
		Body: string(body),
	}
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

var newCorrelationID = func() string {
	return uuid.NewString()
}
