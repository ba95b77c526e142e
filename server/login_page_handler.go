package server

import (
	"net/http"

	apperrors "github.com/jrsteele09/helpdesk-console/internal/errors"
	"github.com/jrsteele09/helpdesk-console/sessions"
)

type loginPage struct {
	Tenant     string
	ConsoleURL string
	Username   string
	Error      string
}

// ConsoleRootHandler sends the console root to the tenant home route; the
// dashboard guard decides what happens from there.
func (s *Server) ConsoleRootHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, ok := tenantOrFail(w, r)
		if !ok {
			return
		}
		http.Redirect(w, r, tc.Tenant.HomeRoute, http.StatusSeeOther)
	}
}

func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, ok := tenantOrFail(w, r)
		if !ok {
			return
		}
		if tc.Manager.State() == sessions.Authenticated {
			http.Redirect(w, r, tc.Tenant.HomeRoute, http.StatusSeeOther)
			return
		}
		s.render(w, http.StatusOK, "login.html", loginPage{Tenant: tc.Tenant.Name, ConsoleURL: tc.Tenant.ConsolePath})
	}
}

func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, ok := tenantOrFail(w, r)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			s.render(w, http.StatusBadRequest, "login.html", loginPage{Tenant: tc.Tenant.Name, ConsoleURL: tc.Tenant.ConsolePath, Error: apperrors.MsgInvalidRequest})
			return
		}

		username := r.PostFormValue("username")
		if err := tc.Manager.SignIn(r.Context(), username, r.PostFormValue("password")); err != nil {
			s.render(w, statusFor(err), "login.html", loginPage{
				Tenant:     tc.Tenant.Name,
				ConsoleURL: tc.Tenant.ConsolePath,
				Username:   username,
				Error:      apperrors.EnvelopeOf(err).Message,
			})
			return
		}
		http.Redirect(w, r, tc.Tenant.HomeRoute, http.StatusSeeOther)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, ok := tenantOrFail(w, r)
		if !ok {
			return
		}
		tc.Manager.SignOut(r.Context())
		http.Redirect(w, r, tc.Tenant.SignInRoute, http.StatusSeeOther)
	}
}
