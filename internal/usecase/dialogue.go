package usecase

import (
	"context"
	"errors"
	"log/slog"

	"dining-concierge/internal/domain"
)

// Intents handled by the code hook.
const (
	IntentGreeting          = "GreetingIntent"
	IntentThanks            = "ThankYouIntent"
	IntentDiningSuggestions = "DiningSuggestionsIntent"
)

// DiningSuggestions slots.
const (
	SlotLocation  = "Location"
	SlotCuisine   = "Cuisine"
	SlotTime      = "Time"
	SlotPartySize = "Partysize"
	SlotEmail     = "Email"
)

// requiredSlots is the order in which missing slots are asked for.
var requiredSlots = []string{SlotLocation, SlotCuisine, SlotTime, SlotPartySize, SlotEmail}

// IntentStateFulfilled marks a closed intent.
const IntentStateFulfilled = "Fulfilled"

type Action string

const (
	ActionClose      Action = "Close"
	ActionElicitSlot Action = "ElicitSlot"
	ActionFail       Action = "Fail"
)

// TurnResult is the outcome of one dialogue turn. Session is a new value; the
// session passed to HandleTurn is never modified.
type TurnResult struct {
	Action       Action
	SlotToElicit string
	Message      string
	IntentState  string
	Session      domain.Session
	Err          *Error
}

type PreferenceStore interface {
	GetPreference(ctx context.Context, email string) (domain.PreferenceRecord, bool, error)
	PutPreference(ctx context.Context, rec domain.PreferenceRecord) error
}

type JobQueue interface {
	Enqueue(ctx context.Context, job domain.FulfillmentJob) (string, error)
}

// DialogueService drives the DiningSuggestions conversation one turn at a time.
// It keeps no state between calls.
type DialogueService struct {
	prefs  PreferenceStore
	queue  JobQueue
	logger *slog.Logger
}

func NewDialogueService(prefs PreferenceStore, queue JobQueue, logger *slog.Logger) (*DialogueService, error) {
	if prefs == nil {
		return nil, errors.New("usecase: preference store must not be nil")
	}
	if queue == nil {
		return nil, errors.New("usecase: job queue must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DialogueService{prefs: prefs, queue: queue, logger: logger}, nil
}

// HandleTurn decides the next system action for sess given the raw utterance.
func (s *DialogueService) HandleTurn(ctx context.Context, sess domain.Session, utterance string) TurnResult {
	next := sess.Clone()

	switch sess.IntentName {
	case IntentGreeting:
		return closeTurn(next, msgGreeting)
	case IntentThanks:
		return closeTurn(next, msgThanks)
	case IntentDiningSuggestions:
		return s.transition(ctx, next, utterance)
	}

	s.logger.WarnContext(ctx, "unknown intent", "intent", sess.IntentName, "session_id", sess.SessionID)
	return failTurn(next, newError(ErrorUnknownIntent, "unknown_intent", nil))
}

// transition advances the DiningSuggestions conversation from the state
// decoded out of the session attributes.
func (s *DialogueService) transition(ctx context.Context, sess domain.Session, utterance string) TurnResult {
	st := decodeState(sess.Attributes)
	s.logger.DebugContext(ctx, "dining turn", "session_id", sess.SessionID, "state", st.kind.String(), "slot", st.slot)

	email := sess.SlotText(SlotEmail)
	if email == "" {
		return elicitTurn(sess, st.awaiting(SlotEmail), SlotEmail, elicitMessage(SlotEmail))
	}

	switch st.kind {
	case stateDenied:
		return s.collectSlots(ctx, sess, st)

	case stateAwaitingConfirmation:
		prev, found := s.previousSearch(ctx, email)
		if !found {
			return s.collectSlots(ctx, sess, st)
		}
		if isAffirmative(utterance) {
			return s.reusePrevious(ctx, sess, st, prev, email)
		}
		return s.collectSlots(ctx, sess, dialogueState{kind: stateDenied})

	default:
		if prev, found := s.previousSearch(ctx, email); found {
			return elicitTurn(sess, dialogueState{kind: stateAwaitingConfirmation, slot: SlotLocation}, SlotLocation, reuseQuestion(prev))
		}
		return s.collectSlots(ctx, sess, st)
	}
}

func (s *DialogueService) reusePrevious(ctx context.Context, sess domain.Session, st dialogueState, prev domain.PreferenceRecord, email string) TurnResult {
	setSlot(sess, SlotLocation, prev.Location)
	setSlot(sess, SlotCuisine, prev.Cuisine)
	setSlot(sess, SlotTime, prev.DiningTime)
	setSlot(sess, SlotPartySize, prev.PartySize)

	job := domain.FulfillmentJob{
		Location:   prev.Location,
		Cuisine:    prev.Cuisine,
		DiningTime: prev.DiningTime,
		PartySize:  prev.PartySize,
		Email:      email,
	}
	if err := s.enqueue(ctx, job); err != nil {
		return failTurn(sess, err)
	}
	st.closed().encode(sess.Attributes)
	return closeTurn(sess, msgReuseConfirmed)
}

func (s *DialogueService) collectSlots(ctx context.Context, sess domain.Session, st dialogueState) TurnResult {
	for _, slot := range requiredSlots {
		if sess.SlotText(slot) == "" {
			return elicitTurn(sess, st.awaiting(slot), slot, elicitMessage(slot))
		}
	}

	job := domain.FulfillmentJob{
		Location:   sess.SlotText(SlotLocation),
		Cuisine:    sess.SlotText(SlotCuisine),
		DiningTime: sess.SlotText(SlotTime),
		PartySize:  sess.SlotText(SlotPartySize),
		Email:      sess.SlotText(SlotEmail),
	}

	// History is best effort.
	if err := s.prefs.PutPreference(ctx, job.Preference()); err != nil {
		s.logger.ErrorContext(ctx, "failed to store search history", "err", err, "email", job.Email)
	} else {
		s.logger.InfoContext(ctx, "stored search history", "email", job.Email)
	}

	if err := s.enqueue(ctx, job); err != nil {
		return failTurn(sess, err)
	}
	st.closed().encode(sess.Attributes)
	return closeTurn(sess, msgSearchConfirmed)
}

// previousSearch treats lookup failures as "no history".
func (s *DialogueService) previousSearch(ctx context.Context, email string) (domain.PreferenceRecord, bool) {
	rec, found, err := s.prefs.GetPreference(ctx, email)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch previous search", "err", err, "email", email)
		return domain.PreferenceRecord{}, false
	}
	return rec, found
}

func (s *DialogueService) enqueue(ctx context.Context, job domain.FulfillmentJob) *Error {
	id, err := s.queue.Enqueue(ctx, job)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to enqueue fulfillment job", "err", err, "email", job.Email)
		return newError(ErrorUpstream, "queue_send_error", err)
	}
	s.logger.InfoContext(ctx, "enqueued fulfillment job", "message_id", id, "email", job.Email, "cuisine", job.Cuisine)
	return nil
}

// setSlot must only be called with DiningSuggestions slot names.
func setSlot(sess domain.Session, name, value string) {
	sess.Slots[name] = &domain.SlotValue{InterpretedValue: value}
}

func closeTurn(sess domain.Session, msg string) TurnResult {
	return TurnResult{
		Action:      ActionClose,
		Message:     msg,
		IntentState: IntentStateFulfilled,
		Session:     sess,
	}
}

func elicitTurn(sess domain.Session, st dialogueState, slot, msg string) TurnResult {
	st.encode(sess.Attributes)
	return TurnResult{
		Action:       ActionElicitSlot,
		SlotToElicit: slot,
		Message:      msg,
		Session:      sess,
	}
}

func failTurn(sess domain.Session, err *Error) TurnResult {
	return TurnResult{
		Action:  ActionFail,
		Message: msgApology,
		Session: sess,
		Err:     err,
	}
}
