package fakeapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/helpdesk-console/tenants"
	"github.com/rs/zerolog/log"
)

// Envelope codes and messages returned by the auth endpoints.
const (
	CodeInvalidRequest     = "invalid_request"
	CodeInvalidCredentials = "invalid_credentials"
	CodeAccountBlocked     = "account_blocked"
	CodeTokenNotValid      = "token_not_valid"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"

	MsgIncorrectCredentials = "Incorrect username or password"
	MsgTokenNotValid        = "Token is invalid or expired"
)

type contextKey string

const (
	tenantKey contextKey = "tenant"
	claimsKey contextKey = "claims"
)

type accessClaims struct {
	Tenant     string `json:"tenant"`
	Generation int    `json:"gen"`
	jwt.RegisteredClaims
}

func tenantFrom(ctx context.Context) *tenants.Tenant {
	t, _ := ctx.Value(tenantKey).(*tenants.Tenant)
	return t
}

func claimsFrom(ctx context.Context) *accessClaims {
	c, _ := ctx.Value(claimsKey).(*accessClaims)
	return c
}

func (a *API) knownTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t, err := a.tenants.Get(chi.URLParam(r, "tenant"))
		if err != nil {
			writeError(w, http.StatusNotFound, CodeNotFound, "unknown tenant")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tenantKey, t)))
	})
}

func (a *API) mintAccess(tenantID, username string) (string, error) {
	a.lock.RLock()
	gen := a.generation
	a.lock.RUnlock()

	now := a.nowTime()
	claims := accessClaims{
		Tenant:     tenantID,
		Generation: gen,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *API) parseAccess(raw string) (*accessClaims, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.nowTime), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return claims, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	a.logins.Add(1)
	tenant := tenantFrom(r.Context())

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "username and password are required")
		return
	}

	user, err := a.accounts.GetByUsername(tenant.ID, req.Username)
	if err != nil || !user.CheckPassword(req.Password) {
		log.Debug().Str("tenant", tenant.ID).Str("user", req.Username).Msg("fakeapi: rejected login")
		writeError(w, http.StatusUnauthorized, CodeInvalidCredentials, MsgIncorrectCredentials)
		return
	}
	if user.Blocked {
		writeError(w, http.StatusForbidden, CodeAccountBlocked, "account is blocked")
		return
	}

	access, err := a.mintAccess(tenant.ID, user.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", "could not issue token")
		return
	}
	refresh := uuid.New().String()

	a.lock.Lock()
	a.grants[refresh] = refreshGrant{tenantID: tenant.ID, username: user.Username}
	a.lock.Unlock()

	seen := *user
	seen.LastLogin = a.nowTime().UTC()
	_ = a.accounts.Upsert(&seen)

	writeJSON(w, http.StatusOK, map[string]string{
		"access":   access,
		"refresh":  refresh,
		"username": user.Username,
		"email":    user.Email,
	})
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (a *API) refresh(w http.ResponseWriter, r *http.Request) {
	a.refreshes.Add(1)
	tenant := tenantFrom(r.Context())

	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil || req.Refresh == "" {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "refresh token is required")
		return
	}

	a.lock.RLock()
	grant, ok := a.grants[req.Refresh]
	a.lock.RUnlock()
	if !ok || grant.tenantID != tenant.ID {
		writeError(w, http.StatusUnauthorized, CodeTokenNotValid, MsgTokenNotValid)
		return
	}

	access, err := a.mintAccess(grant.tenantID, grant.username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	a.logouts.Add(1)

	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil || req.Refresh == "" {
		writeError(w, http.StatusBadRequest, CodeInvalidRequest, "refresh token is required")
		return
	}

	a.lock.Lock()
	delete(a.grants, req.Refresh)
	a.lock.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// requireToken admits requests carrying a current access token for the
// tenant in the path.
func (a *API) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := tenantFrom(r.Context())
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			a.rejected.Add(1)
			writeError(w, http.StatusUnauthorized, CodeTokenNotValid, "Authentication credentials were not provided")
			return
		}

		claims, err := a.parseAccess(raw)
		a.lock.RLock()
		current := a.generation
		a.lock.RUnlock()
		if err != nil || claims.Tenant != tenant.ID || claims.Generation != current {
			a.rejected.Add(1)
			writeError(w, http.StatusUnauthorized, CodeTokenNotValid, MsgTokenNotValid)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}
