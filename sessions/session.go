package sessions

import (
	"encoding/json"
	"fmt"
	"time"
)

// State is the lifecycle state of a tenant session.
type State int

const (
	Uninitialized State = iota
	Restoring
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Restoring:
		return "restoring"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText lets State appear by name in JSON session views.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Credentials is the opaque bearer pair issued by the backend. The access
// token authorises API calls until rejected; the refresh token is only ever
// used to mint a new access token.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Identity is the user identity returned alongside the credentials. It is
// cached as-is and not verified against the token contents.
type Identity struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Session is what a Store persists for one tenant.
type Session struct {
	Identity    Identity    `json:"identity"`
	Credentials Credentials `json:"credentials"`
	SavedAt     time.Time   `json:"saved_at"`
}

// PayloadVersion is bumped whenever the persisted layout changes. Payloads
// with any other version are treated as absent.
const PayloadVersion = 1

type payload struct {
	Version int `json:"version"`
	Session
}

// Encode serialises a session into the persisted payload.
func Encode(s Session) ([]byte, error) {
	return json.Marshal(payload{Version: PayloadVersion, Session: s})
}

// Decode parses and validates a persisted payload.
func Decode(data []byte) (*Session, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if p.Version != PayloadVersion {
		return nil, fmt.Errorf("decode session: unsupported version %d", p.Version)
	}
	if p.Credentials.AccessToken == "" || p.Credentials.RefreshToken == "" {
		return nil, fmt.Errorf("decode session: missing credentials")
	}
	s := p.Session
	return &s, nil
}
