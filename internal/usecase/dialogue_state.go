package usecase

import "strings"

// Session attribute keys and values understood by the bot.
const (
	attrConfirmationState = "confirmation_state"
	attrElicitedSlot      = "elicited_slot"

	confirmationNotAsked = "not_asked"
	confirmationAsked    = "asked"
	confirmationDenied   = "denied"
)

type stateKind int

const (
	stateIdle stateKind = iota
	stateAwaitingSlot
	stateAwaitingConfirmation
	stateDenied
)

func (k stateKind) String() string {
	switch k {
	case stateAwaitingSlot:
		return "awaiting_slot"
	case stateAwaitingConfirmation:
		return "awaiting_confirmation"
	case stateDenied:
		return "denied"
	default:
		return "idle"
	}
}

// dialogueState is the DiningSuggestions progress carried in session
// attributes. slot is the slot asked for last; it is set for
// stateAwaitingSlot and may be set for stateDenied, which stays sticky until
// the intent closes.
type dialogueState struct {
	kind stateKind
	slot string
}

func decodeState(attrs map[string]string) dialogueState {
	slot := attrs[attrElicitedSlot]
	switch attrs[attrConfirmationState] {
	case confirmationAsked:
		return dialogueState{kind: stateAwaitingConfirmation, slot: slot}
	case confirmationDenied:
		return dialogueState{kind: stateDenied, slot: slot}
	}
	if slot != "" {
		return dialogueState{kind: stateAwaitingSlot, slot: slot}
	}
	return dialogueState{kind: stateIdle}
}

func (st dialogueState) encode(attrs map[string]string) {
	switch st.kind {
	case stateAwaitingConfirmation:
		attrs[attrConfirmationState] = confirmationAsked
	case stateDenied:
		attrs[attrConfirmationState] = confirmationDenied
	default:
		attrs[attrConfirmationState] = confirmationNotAsked
	}
	if st.slot == "" {
		delete(attrs, attrElicitedSlot)
		return
	}
	attrs[attrElicitedSlot] = st.slot
}

// awaiting returns the state after asking for slot. Denial is never undone.
func (st dialogueState) awaiting(slot string) dialogueState {
	if st.kind == stateDenied {
		return dialogueState{kind: stateDenied, slot: slot}
	}
	return dialogueState{kind: stateAwaitingSlot, slot: slot}
}

// closed returns the state after the intent is fulfilled.
func (st dialogueState) closed() dialogueState {
	if st.kind == stateDenied {
		return dialogueState{kind: stateDenied}
	}
	return dialogueState{kind: stateIdle}
}

var affirmatives = map[string]struct{}{
	"yes":  {},
	"yeah": {},
	"sure": {},
	"okay": {},
}

func isAffirmative(utterance string) bool {
	_, ok := affirmatives[strings.ToLower(strings.TrimSpace(utterance))]
	return ok
}
