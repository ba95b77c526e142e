package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jrsteele09/helpdesk-console/internal/config"
	apperrors "github.com/jrsteele09/helpdesk-console/internal/errors"
	"github.com/jrsteele09/helpdesk-console/internal/fakeapi"
	"github.com/jrsteele09/helpdesk-console/resources"
	"github.com/jrsteele09/helpdesk-console/server"
	"github.com/jrsteele09/helpdesk-console/sessions"
	sessionrepofakes "github.com/jrsteele09/helpdesk-console/sessions/repofakes"
	"github.com/jrsteele09/helpdesk-console/tenants"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type console struct {
	srv     *server.Server
	backend *fakeapi.API
	stores  map[string]*sessionrepofakes.FakeSessionStore
	byID    map[string]*server.TenantContext
}

// newConsole starts a seeded fake backend and a console for every default
// tenant. Sessions are left uninitialised.
func newConsole(t *testing.T) *console {
	t.Helper()

	backend := fakeapi.New(fakeapi.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, backend.Seed())
	api := httptest.NewServer(backend.Handler([]string{"*"}))
	t.Cleanup(api.Close)

	t.Setenv("API_BASE_URL", api.URL+"/api")
	t.Setenv("ENV", "TEST")
	cfg := config.New()

	c := &console{
		backend: backend,
		stores:  map[string]*sessionrepofakes.FakeSessionStore{},
		byID:    map[string]*server.TenantContext{},
	}
	var consoles []*server.TenantContext
	for _, tenant := range tenants.Defaults() {
		store := sessionrepofakes.NewFakeSessionStore()
		tc, err := server.NewTenantContext(cfg, tenant, store)
		require.NoError(t, err)
		c.stores[tenant.ID] = store
		c.byID[tenant.ID] = tc
		consoles = append(consoles, tc)
	}

	srv, err := server.New(cfg, consoles...)
	require.NoError(t, err)
	c.srv = srv
	return c
}

func (c *console) initialise(t *testing.T) {
	t.Helper()
	<-c.srv.InitialiseSessions(context.Background())
}

func (c *console) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c.srv.ServeHTTP(rec, req)
	return rec
}

func (c *console) signIn(t *testing.T, tenantID, username, password string) {
	t.Helper()
	rec := c.do(http.MethodPost, "/"+tenantID+"/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apperrors.Envelope {
	t.Helper()
	var env apperrors.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestGuardRendersPlaceholderWhileRestoring(t *testing.T) {
	c := newConsole(t)

	rec := c.do(http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))
	require.Empty(t, rec.Header().Get("Location"))
	require.Contains(t, rec.Body.String(), "Restoring your Super Admin session")

	rec = c.do(http.MethodGet, "/admin/api/tickets", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "restoring", decodeEnvelope(t, rec).Code)
}

func TestGuardRedirectsToTenantSignIn(t *testing.T) {
	c := newConsole(t)
	c.initialise(t)

	for _, tenantID := range []string{tenants.AdminID, tenants.SupporterID, tenants.CustomerID} {
		rec := c.do(http.MethodGet, "/"+tenantID+"/dashboard", nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/"+tenantID+"/login", rec.Header().Get("Location"))
	}
}

func TestConsoleRootGoesHome(t *testing.T) {
	c := newConsole(t)

	rec := c.do(http.MethodGet, "/customer/", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/customer/dashboard", rec.Header().Get("Location"))
}

func TestSignInShowsDashboard(t *testing.T) {
	c := newConsole(t)
	c.initialise(t)

	rec := c.do(http.MethodPost, "/admin/login", url.Values{"username": {"root"}, "password": {"Admin12345"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))

	saves, _, _ := c.stores[tenants.AdminID].Counts()
	require.Equal(t, 1, saves)

	rec = c.do(http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Signed in as root")
	require.Contains(t, body, "Printer on fire")
	require.Contains(t, body, "VPN drops every hour")

	rec = c.do(http.MethodGet, "/admin/login", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))
}

func TestSignInWithWrongPasswordShowsServerMessage(t *testing.T) {
	c := newConsole(t)
	c.initialise(t)

	rec := c.do(http.MethodPost, "/admin/login", url.Values{"username": {"root"}, "password": {"wrong-password"}})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Incorrect username or password")
	require.Contains(t, rec.Body.String(), `value="root"`)

	saves, _, _ := c.stores[tenants.AdminID].Counts()
	require.Zero(t, saves)
	require.Equal(t, sessions.Unauthenticated, c.byID[tenants.AdminID].Manager.State())
}

func TestSignInValidationSkipsBackend(t *testing.T) {
	c := newConsole(t)
	c.initialise(t)

	rec := c.do(http.MethodPost, "/admin/login", url.Values{"username": {"  "}, "password": {"x"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "username is required")
	require.Zero(t, c.backend.Stats().Logins)
}

func TestSignOut(t *testing.T) {
	c := newConsole(t)
	c.initialise(t)
	c.signIn(t, tenants.SupporterID, "sam", "Support12345")

	rec := c.do(http.MethodPost, "/supporter/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/supporter/login", rec.Header().Get("Location"))
	require.EqualValues(t, 1, c.backend.Stats().Logouts)

	_, ok := c.stores[tenants.SupporterID].Load(context.Background())
	require.False(t, ok)

	rec = c.do(http.MethodGet, "/supporter/dashboard", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestTenantsAreIsolated(t *testing.T) {
	c := newConsole(t)
	c.initialise(t)
	c.signIn(t, tenants.AdminID, "root", "Admin12345")

	rec := c.do(http.MethodGet, "/customer/dashboard", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/customer/login", rec.Header().Get("Location"))

	saves, _, _ := c.stores[tenants.CustomerID].Counts()
	require.Zero(t, saves)
}

func TestSessionView(t *testing.T) {
	c := newConsole(t)
	c.initialise(t)
	c.signIn(t, tenants.CustomerID, "carol", "Customer12345")

	rec := c.do(http.MethodGet, "/customer/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "access")

	var view struct {
		Tenant    string `json:"tenant"`
		State     string `json:"state"`
		Restoring bool   `json:"restoring"`
		Identity  *struct {
			Username string `json:"username"`
		} `json:"identity"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, tenants.CustomerID, view.Tenant)
	require.Equal(t, "authenticated", view.State)
	require.False(t, view.Restoring)
	require.NotNil(t, view.Identity)
	require.Equal(t, "carol", view.Identity.Username)
}

func TestResourceAPI(t *testing.T) {
	c := newConsole(t)
	c.initialise(t)
	c.signIn(t, tenants.AdminID, "root", "Admin12345")

	rec := c.do(http.MethodGet, "/admin/api/tickets?status=open", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tickets []resources.Ticket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tickets))
	require.Len(t, tickets, 1)
	require.Equal(t, "Printer on fire", tickets[0].Title)

	rec = c.do(http.MethodGet, "/admin/api/designations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var designations []resources.Designation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &designations))
	require.Len(t, designations, 2)

	rec = c.do(http.MethodGet, "/admin/api/messages", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", decodeEnvelope(t, rec).Code)
}

func TestResourceAPIWithoutSession(t *testing.T) {
	c := newConsole(t)
	c.initialise(t)

	rec := c.do(http.MethodGet, "/admin/api/tickets", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "not_authenticated", decodeEnvelope(t, rec).Code)
}

func TestResourceAPIRefreshesRejectedToken(t *testing.T) {
	c := newConsole(t)
	c.initialise(t)
	c.signIn(t, tenants.AdminID, "root", "Admin12345")
	c.backend.ExpireAccessTokens()

	rec := c.do(http.MethodGet, "/admin/api/tickets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 1, c.backend.Stats().Refreshes)
	require.Equal(t, sessions.Authenticated, c.byID[tenants.AdminID].Manager.State())
}

func TestResourceAPISessionExpired(t *testing.T) {
	c := newConsole(t)
	c.initialise(t)
	c.signIn(t, tenants.AdminID, "root", "Admin12345")
	c.backend.ExpireAccessTokens()
	c.backend.RevokeRefreshTokens()

	rec := c.do(http.MethodGet, "/admin/api/tickets", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "session_expired", decodeEnvelope(t, rec).Code)
	require.Equal(t, sessions.Unauthenticated, c.byID[tenants.AdminID].Manager.State())

	_, ok := c.stores[tenants.AdminID].Load(context.Background())
	require.False(t, ok)

	rec = c.do(http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/login", rec.Header().Get("Location"))
}

func TestRestoredSessionSkipsSignIn(t *testing.T) {
	c := newConsole(t)
	require.NoError(t, c.stores[tenants.AdminID].Save(context.Background(),
		sessions.Identity{Username: "root"},
		sessions.Credentials{AccessToken: "stale", RefreshToken: "unknown"}))
	c.initialise(t)

	require.Equal(t, sessions.Authenticated, c.byID[tenants.AdminID].Manager.State())

	// The backend does not know the restored refresh token, so the first
	// call ends the session.
	rec := c.do(http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/login", rec.Header().Get("Location"))
	require.Equal(t, sessions.Unauthenticated, c.byID[tenants.AdminID].Manager.State())
}

func TestIndexListsConsoles(t *testing.T) {
	c := newConsole(t)

	rec := c.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `href="/admin/dashboard"`)
	require.Contains(t, rec.Body.String(), `href="/customer/dashboard"`)
	require.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = c.do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRejectsDuplicateConsolePaths(t *testing.T) {
	t.Setenv("ENV", "TEST")
	cfg := config.New()
	tenant := tenants.Defaults()[0]
	a, err := server.NewTenantContext(cfg, tenant, sessionrepofakes.NewFakeSessionStore())
	require.NoError(t, err)
	b, err := server.NewTenantContext(cfg, tenant, sessionrepofakes.NewFakeSessionStore())
	require.NoError(t, err)

	_, err = server.New(cfg, a, b)
	require.Error(t, err)

	_, err = server.New(cfg)
	require.Error(t, err)
}
