package domain

// Event is pushed to listeners whenever session state changes.
type Event struct {
	Type      EventType `json:"type"`
	Ts        int64     `json:"ts"`
	SessionID string    `json:"session_id"`
	Message   *Message  `json:"message,omitempty"`
	Settings  *Settings `json:"settings,omitempty"`
	State     TurnState `json:"state,omitempty"`
	Status    *Status   `json:"status,omitempty"`
	Location  string    `json:"location,omitempty"`
}
