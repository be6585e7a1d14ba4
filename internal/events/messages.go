package events

// Event types raised by the deck builder.
const (
	SessionCreated        = "session:created"
	SessionRequestStarted = "session:request_started"
	SessionTurn           = "session:turn"
	SessionRequestFailed  = "session:request_failed"
	SessionClosed         = "session:closed"
	CatalogReplaced       = "catalog:replaced"
)

// SessionCreatedEvent is the payload for session:created.
type SessionCreatedEvent struct {
	Colors string `json:"colors"`
}

// RequestStartedEvent is the payload for session:request_started.
type RequestStartedEvent struct {
	Request  string `json:"request"`
	FollowUp bool   `json:"follow_up"`
}

// TurnEvent is the payload for session:turn, sent after a reply has been processed.
type TurnEvent struct {
	Result       string   `json:"result"`
	HasDeck      bool     `json:"has_deck"`
	TotalCards   int      `json:"total_cards,omitempty"`
	Unrecognized []string `json:"unrecognized,omitempty"`
	DurationMS   int64    `json:"duration_ms"`
}

// RequestFailedEvent is the payload for session:request_failed.
type RequestFailedEvent struct {
	Error string `json:"error"`
}

// SessionClosedEvent is the payload for session:closed.
type SessionClosedEvent struct {
	Reason string `json:"reason"` // "deleted" or "expired"
}

// CatalogReplacedEvent is the payload for catalog:replaced.
type CatalogReplacedEvent struct {
	Cards int `json:"cards"`
}
