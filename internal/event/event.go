package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeSessionEstablished Type = "session.established"
	TypeSessionRestored    Type = "session.restored"
	TypeSessionRefreshed   Type = "session.refreshed"
	TypeSessionCleared     Type = "session.cleared"
	TypeUnauthorized       Type = "session.unauthorized"
)

type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
}

// SessionPayload accompanies session lifecycle events. It never carries the token.
type SessionPayload struct {
	Role     string `json:"role,omitempty"`
	Username string `json:"username,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// UnauthorizedPayload describes the request whose response was a 401.
type UnauthorizedPayload struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Evicted bool   `json:"evicted"`
}

func New(t Type, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
