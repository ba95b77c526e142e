package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/jrsteele09/helpdesk-console/internal/errors"
	"github.com/jrsteele09/helpdesk-console/sessions"
	"github.com/rs/zerolog/log"
)

// retryAfterSeconds is how long a client should wait for a restoring
// session before asking again.
const retryAfterSeconds = "1"

type loadingPage struct {
	Tenant     string
	RetryAfter string
}

// RequireSession guards console pages. While the tenant session is being
// restored it renders a placeholder and never redirects; without a session
// it sends the user to the tenant sign-in route, dropping the destination.
func (s *Server) RequireSession(tc *TenantContext) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			switch {
			case tc.Manager.Restoring():
				w.Header().Set("Retry-After", retryAfterSeconds)
				w.Header().Set("Cache-Control", "no-store")
				s.render(w, http.StatusOK, "loading.html", loadingPage{Tenant: tc.Tenant.Name, RetryAfter: retryAfterSeconds})
			case tc.Manager.State() == sessions.Authenticated:
				next(w, r)
			default:
				http.Redirect(w, r, tc.Tenant.SignInRoute, http.StatusSeeOther)
			}
		}
	}
}

// RequireAPISession is the JSON counterpart of RequireSession.
func (s *Server) RequireAPISession(tc *TenantContext) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			switch {
			case tc.Manager.Restoring():
				w.Header().Set("Retry-After", retryAfterSeconds)
				writeJSON(w, http.StatusServiceUnavailable, apperrors.Envelope{Code: "restoring", Message: "session is being restored"})
			case tc.Manager.State() == sessions.Authenticated:
				next(w, r)
			default:
				writeAPIError(w, apperrors.NotAuthenticated())
			}
		}
	}
}

// statusFor picks the HTTP status the console answers with for err.
func statusFor(err error) int {
	var e *apperrors.Error
	if apperrors.As(err, &e) && e.Status >= http.StatusBadRequest {
		return e.Status
	}
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation, apperrors.KindInvalidRequest:
		return http.StatusBadRequest
	case apperrors.KindAuthentication:
		return http.StatusUnauthorized
	case apperrors.KindAuthorization:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeAPIError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), apperrors.EnvelopeOf(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("Failed to encode response")
	}
}
