package audit

import "time"

// Event is one entry in the operator's activity trail. Events are never
// updated or deleted.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`

	UserID string `json:"userId,omitempty"`
	Role   string `json:"role,omitempty"`

	// Path is the API path that triggered an expiry, when there was one.
	Path    string `json:"path,omitempty"`
	Message string `json:"message,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

type EventType string

const (
	EventTypeLogin          EventType = "login"
	EventTypeLoginFailed    EventType = "login_failed"
	EventTypeLogout         EventType = "logout"
	EventTypeSessionExpired EventType = "session_expired"
	EventTypeRestored       EventType = "session_restored"
	EventTypePassword       EventType = "password_changed"
)
