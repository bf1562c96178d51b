package domain

// SlotValue is a resolved slot. A nil *SlotValue means the slot has not been
// elicited or could not be resolved.
type SlotValue struct {
	InterpretedValue string `json:"interpretedValue"`
}

// Session is the dialogue state carried between turns by the caller.
type Session struct {
	SessionID  string
	IntentName string
	Slots      map[string]*SlotValue
	Attributes map[string]string
}

// Clone returns a deep copy so a turn can transition the session without
// touching the caller's value.
func (s Session) Clone() Session {
	out := Session{
		SessionID:  s.SessionID,
		IntentName: s.IntentName,
		Slots:      make(map[string]*SlotValue, len(s.Slots)),
		Attributes: make(map[string]string, len(s.Attributes)),
	}
	for name, v := range s.Slots {
		if v == nil {
			out.Slots[name] = nil
			continue
		}
		cp := *v
		out.Slots[name] = &cp
	}
	for k, v := range s.Attributes {
		out.Attributes[k] = v
	}
	return out
}

// SlotText returns the interpreted value of a slot, or "" when unresolved.
func (s Session) SlotText(name string) string {
	v := s.Slots[name]
	if v == nil {
		return ""
	}
	return v.InterpretedValue
}
