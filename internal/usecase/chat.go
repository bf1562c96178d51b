package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"dining-concierge/internal/domain"
)

const defaultMaxUtterance = 300

// Lex V2 session ids: 2-100 characters of [0-9a-zA-Z._:-].
var sessionIDPattern = regexp.MustCompile(`^[0-9a-zA-Z._:-]{2,100}$`)

type Classifier interface {
	RecognizeText(ctx context.Context, sessionID, text string) (domain.Recognition, error)
}

// ChatService relays one user utterance to the intent classifier and returns
// the bot's reply.
type ChatService struct {
	classifier   Classifier
	maxUtterance int
}

type ChatInput struct {
	Text      string
	SessionID string
}

type ChatOutput struct {
	Reply     string
	SessionID string
	// Intent is the classifier's intent for the turn, if any.
	Intent string
}

func NewChatService(classifier Classifier, maxUtterance int) (*ChatService, error) {
	if classifier == nil {
		return nil, errors.New("usecase: classifier must not be nil")
	}
	if maxUtterance <= 0 {
		maxUtterance = defaultMaxUtterance
	}
	return &ChatService{classifier: classifier, maxUtterance: maxUtterance}, nil
}

func (s *ChatService) Converse(ctx context.Context, in ChatInput) (ChatOutput, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "empty_utterance", nil)
	}
	if len(text) > s.maxUtterance {
		return ChatOutput{}, newError(ErrorInvalidInput, "utterance_too_long", nil)
	}

	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		sessionID = newUUID()
	} else if !sessionIDPattern.MatchString(sessionID) {
		return ChatOutput{}, newError(ErrorInvalidInput, "invalid_session_id", nil)
	}

	rec, err := s.classifier.RecognizeText(ctx, sessionID, text)
	if err != nil {
		return ChatOutput{}, newError(ErrorUpstream, "lex_error", err)
	}
	if rec.SessionID != "" {
		sessionID = rec.SessionID
	}

	reply := msgNotUnderstood
	if len(rec.Messages) > 0 {
		reply = rec.Messages[0]
	}
	return ChatOutput{Reply: reply, SessionID: sessionID, Intent: rec.Intent}, nil
}

// FallbackReply is the text shown to users when a turn cannot be served.
func FallbackReply() string {
	return msgApology
}

var newUUID = func() string {
	return uuid.NewString()
}
