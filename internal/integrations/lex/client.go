package lex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lexruntimev2"

	"dining-concierge/internal/domain"
)

const defaultLocale = "en_US"

// lexAPI is the minimal Lex V2 runtime interface required by Client.
type lexAPI interface {
	RecognizeText(ctx context.Context, in *lexruntimev2.RecognizeTextInput, optFns ...func(*lexruntimev2.Options)) (*lexruntimev2.RecognizeTextOutput, error)
}

// Config identifies the bot alias that classifies utterances.
type Config struct {
	BotID      string
	BotAliasID string
	LocaleID   string
}

// Client sends free text to a Lex V2 bot. Lex resolves the intent and slots
// and invokes the dialogue code hook; the bot's reply comes back here.
type Client struct {
	api lexAPI
	cfg Config
}

// New creates a Client for the configured bot alias.
func New(api lexAPI, cfg Config) (*Client, error) {
	if api == nil {
		return nil, errors.New("lex: api must not be nil")
	}
	cfg.BotID = strings.TrimSpace(cfg.BotID)
	cfg.BotAliasID = strings.TrimSpace(cfg.BotAliasID)
	if cfg.BotID == "" || cfg.BotAliasID == "" {
		return nil, errors.New("lex: bot id and alias id are required")
	}
	if strings.TrimSpace(cfg.LocaleID) == "" {
		cfg.LocaleID = defaultLocale
	}
	return &Client{api: api, cfg: cfg}, nil
}

// RecognizeText classifies text within sessionID and returns the bot's messages.
func (c *Client) RecognizeText(ctx context.Context, sessionID, text string) (domain.Recognition, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.Recognition{}, errors.New("lex: session id is required")
	}
	out, err := c.api.RecognizeText(ctx, &lexruntimev2.RecognizeTextInput{
		BotId:      aws.String(c.cfg.BotID),
		BotAliasId: aws.String(c.cfg.BotAliasID),
		LocaleId:   aws.String(c.cfg.LocaleID),
		SessionId:  aws.String(sessionID),
		Text:       aws.String(text),
	})
	if err != nil {
		return domain.Recognition{}, fmt.Errorf("lex: recognize text: %w", err)
	}

	rec := domain.Recognition{SessionID: sessionID}
	if out == nil {
		return rec, nil
	}
	if out.SessionId != nil {
		rec.SessionID = *out.SessionId
	}
	if out.SessionState != nil && out.SessionState.Intent != nil {
		rec.Intent = aws.ToString(out.SessionState.Intent.Name)
	}
	for _, m := range out.Messages {
		if content := strings.TrimSpace(aws.ToString(m.Content)); content != "" {
			rec.Messages = append(rec.Messages, content)
		}
	}
	return rec, nil
}
