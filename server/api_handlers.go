package server

import (
	"net/http"

	apperrors "github.com/jrsteele09/helpdesk-console/internal/errors"
)

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// SessionHandler reports the tenant session without exposing tokens.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, ok := tenantOrFail(w, r)
		if !ok {
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, tc.Manager.View())
	}
}

// ResourceListHandler proxies a collection listing through the tenant's
// authenticated client. The query string is passed through unchanged.
func (s *Server) ResourceListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, ok := tenantOrFail(w, r)
		if !ok {
			return
		}
		list, ok := tc.Resources.Lister(r.PathValue("resource"))
		if !ok {
			writeAPIError(w, &apperrors.Error{Kind: apperrors.KindNotFound, Status: http.StatusNotFound, Message: apperrors.MsgNotFound, Err: apperrors.ErrNotFound})
			return
		}
		data, err := list(r.Context(), r.URL.Query())
		if err != nil {
			writeAPIError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}
