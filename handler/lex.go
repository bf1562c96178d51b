package handler

import (
	"context"
	"errors"
	"log/slog"

	"dining-concierge/internal/domain"
	"dining-concierge/internal/usecase"
)

const (
	intentStateInProgress = "InProgress"
	contentTypePlainText  = "PlainText"
	slotShapeScalar       = "Scalar"
)

type DialogueUseCase interface {
	HandleTurn(ctx context.Context, sess domain.Session, utterance string) usecase.TurnResult
}

// LexEvent is the Lex V2 code hook input.
type LexEvent struct {
	SessionID        string          `json:"sessionId"`
	InputTranscript  string          `json:"inputTranscript"`
	InvocationSource string          `json:"invocationSource,omitempty"`
	SessionState     LexSessionState `json:"sessionState"`
}

type LexSessionState struct {
	DialogAction      *LexDialogAction  `json:"dialogAction,omitempty"`
	Intent            LexIntent         `json:"intent"`
	SessionAttributes map[string]string `json:"sessionAttributes"`
}

type LexDialogAction struct {
	Type         string `json:"type"`
	SlotToElicit string `json:"slotToElicit,omitempty"`
}

type LexIntent struct {
	Name  string              `json:"name"`
	Slots map[string]*LexSlot `json:"slots"`
	State string              `json:"state,omitempty"`
}

type LexSlot struct {
	Shape string        `json:"shape,omitempty"`
	Value *LexSlotValue `json:"value,omitempty"`
}

type LexSlotValue struct {
	OriginalValue    string `json:"originalValue,omitempty"`
	InterpretedValue string `json:"interpretedValue"`
}

type LexMessage struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// LexResponse is the Lex V2 code hook output.
type LexResponse struct {
	SessionState LexSessionState `json:"sessionState"`
	Messages     []LexMessage    `json:"messages,omitempty"`
}

type LexHandler struct {
	uc     DialogueUseCase
	logger *slog.Logger
}

func NewLexHandler(uc DialogueUseCase, logger *slog.Logger) (*LexHandler, error) {
	if uc == nil {
		return nil, errors.New("handler: dialogue use case must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LexHandler{uc: uc, logger: logger}, nil
}

// Handle runs one dialogue turn. A failed turn is returned as an error so Lex
// reports the failure to the caller.
func (h *LexHandler) Handle(ctx context.Context, event LexEvent) (LexResponse, error) {
	res := h.uc.HandleTurn(ctx, sessionFromEvent(event), event.InputTranscript)

	if res.Action == usecase.ActionFail {
		if res.Err == nil {
			res.Err = usecase.AsError(errors.New("handler: dialogue turn failed"))
		}
		h.logger.ErrorContext(ctx, "dialogue turn failed",
			"session_id", event.SessionID,
			"intent", event.SessionState.Intent.Name,
			"code", res.Err.Code,
			"reason", res.Err.Reason,
			"err", res.Err.Err,
		)
		return LexResponse{}, res.Err
	}

	state := res.IntentState
	if state == "" {
		state = intentStateInProgress
	}
	return LexResponse{
		SessionState: LexSessionState{
			DialogAction: &LexDialogAction{
				Type:         string(res.Action),
				SlotToElicit: res.SlotToElicit,
			},
			Intent: LexIntent{
				Name:  res.Session.IntentName,
				Slots: slotsToLex(res.Session.Slots, event.SessionState.Intent.Slots),
				State: state,
			},
			SessionAttributes: res.Session.Attributes,
		},
		Messages: []LexMessage{{ContentType: contentTypePlainText, Content: res.Message}},
	}, nil
}

func sessionFromEvent(event LexEvent) domain.Session {
	sess := domain.Session{
		SessionID:  event.SessionID,
		IntentName: event.SessionState.Intent.Name,
		Slots:      make(map[string]*domain.SlotValue, len(event.SessionState.Intent.Slots)),
		Attributes: make(map[string]string, len(event.SessionState.SessionAttributes)),
	}
	for name, slot := range event.SessionState.Intent.Slots {
		if slot == nil || slot.Value == nil || slot.Value.InterpretedValue == "" {
			sess.Slots[name] = nil
			continue
		}
		sess.Slots[name] = &domain.SlotValue{InterpretedValue: slot.Value.InterpretedValue}
	}
	for k, v := range event.SessionState.SessionAttributes {
		sess.Attributes[k] = v
	}
	return sess
}

// slotsToLex keeps the caller's original text for slots whose interpreted value
// did not change during the turn.
func slotsToLex(slots map[string]*domain.SlotValue, prev map[string]*LexSlot) map[string]*LexSlot {
	out := make(map[string]*LexSlot, len(slots))
	for name, v := range slots {
		if v == nil {
			out[name] = nil
			continue
		}
		original := v.InterpretedValue
		if p := prev[name]; p != nil && p.Value != nil && p.Value.InterpretedValue == v.InterpretedValue && p.Value.OriginalValue != "" {
			original = p.Value.OriginalValue
		}
		out[name] = &LexSlot{
			Shape: slotShapeScalar,
			Value: &LexSlotValue{OriginalValue: original, InterpretedValue: v.InterpretedValue},
		}
	}
	return out
}
