package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error values for the console
var (
	// Session errors
	ErrSessionExpired   = errors.New("session expired")
	ErrNotAuthenticated = errors.New("not authenticated")

	// Response errors
	ErrMalformedResponse = errors.New("malformed response")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Kind classifies a failure so that presentation code can pick a message
// without inspecting transport details.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindInvalidRequest
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindServer
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInvalidRequest:
		return "invalid_request"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Default user-facing messages
const (
	MsgInvalidRequest       = "invalid request"
	MsgIncorrectCredentials = "incorrect credentials"
	MsgForbidden            = "forbidden"
	MsgNotFound             = "not found"
	MsgServerError          = "server error"
	MsgNetworkError         = "network error"
	MsgUnexpected           = "unexpected error"
)

// Error is the typed failure returned by every operation that talks to the
// backend. Message is always safe to show to a user.
type Error struct {
	Kind    Kind   `json:"-"`
	Status  int    `json:"-"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Envelope is the error body the backend is expected to return.
type Envelope struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Envelope returns the wire form of the error.
func (e *Error) Envelope() Envelope {
	code := e.Code
	if code == "" {
		code = e.Kind.String()
	}
	return Envelope{Code: code, Message: e.Message}
}

// FromStatus maps an HTTP status and optional server envelope to an Error.
// A non-empty server message wins over the status default.
func FromStatus(status int, env Envelope) *Error {
	kind, msg := KindUnknown, MsgUnexpected
	switch {
	case status == http.StatusBadRequest:
		kind, msg = KindInvalidRequest, MsgInvalidRequest
	case status == http.StatusUnauthorized:
		kind, msg = KindAuthentication, MsgIncorrectCredentials
	case status == http.StatusForbidden:
		kind, msg = KindAuthorization, MsgForbidden
	case status == http.StatusNotFound:
		kind, msg = KindNotFound, MsgNotFound
	case status == http.StatusInternalServerError:
		kind, msg = KindServer, MsgServerError
	case status > http.StatusInternalServerError:
		kind = KindServer
	}
	if env.Message != "" {
		msg = env.Message
	}
	return &Error{Kind: kind, Status: status, Code: env.Code, Message: msg}
}

// Network wraps a transport failure where no response was received.
func Network(err error) *Error {
	return &Error{Kind: KindNetwork, Message: MsgNetworkError, Err: err}
}

// Validation reports a client-side validation failure.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// SessionExpired reports a session that could not be recovered.
func SessionExpired(cause error) *Error {
	err := ErrSessionExpired
	if cause != nil {
		err = fmt.Errorf("%w: %v", ErrSessionExpired, cause)
	}
	return &Error{Kind: KindAuthentication, Status: http.StatusUnauthorized, Code: "session_expired", Message: ErrSessionExpired.Error(), Err: err}
}

// NotAuthenticated reports an operation attempted without a session.
func NotAuthenticated() *Error {
	return &Error{Kind: KindAuthentication, Status: http.StatusUnauthorized, Code: "not_authenticated", Message: ErrNotAuthenticated.Error(), Err: ErrNotAuthenticated}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// EnvelopeOf returns the user-facing envelope for any error. Errors outside
// the taxonomy are reported as unexpected without leaking their text.
func EnvelopeOf(err error) Envelope {
	var e *Error
	if errors.As(err, &e) {
		return e.Envelope()
	}
	return Envelope{Code: KindUnknown.String(), Message: MsgUnexpected}
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
