package types

// SessionAuth is the caller identity carried by a session bearer token.
type SessionAuth struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}
