package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/helpdesk-console/apiclient"
	apperrors "github.com/jrsteele09/helpdesk-console/internal/errors"
	"github.com/jrsteele09/helpdesk-console/sessions"
	"github.com/jrsteele09/helpdesk-console/tenants"
	"github.com/jrsteele09/helpdesk-console/token"
	"github.com/jrsteele09/helpdesk-console/token/refresh"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	defaultRefreshTimeout = 15 * time.Second
	defaultLogoutTimeout  = 5 * time.Second
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// View is a read-only snapshot of a tenant session.
type View struct {
	Tenant    string             `json:"tenant"`
	State     sessions.State     `json:"state"`
	Restoring bool               `json:"restoring"`
	Identity  *sessions.Identity `json:"identity,omitempty"`
}

// Manager owns the session lifecycle of one tenant: restoring it at start
// up, signing in and out, and refreshing the access token. Tenants never
// share a Manager.
type Manager struct {
	tenant        *tenants.Tenant
	store         sessions.Store
	api           *apiclient.Client
	validator     *Validator
	nav           Navigator
	refreshes     *refresh.Coordinator
	logoutTimeout time.Duration

	mu       sync.RWMutex
	state    sessions.State
	identity sessions.Identity
	creds    sessions.Credentials
	epoch    uint64 // bumped whenever the session is replaced or dropped

	// writeMu orders store writes with the epoch checks that guard them
	writeMu sync.Mutex

	initOnce sync.Once
	ready    chan struct{}
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNavigator sets where the manager sends the user.
func WithNavigator(nav Navigator) ManagerOption {
	return func(m *Manager) {
		m.nav = nav
	}
}

// WithRefreshTimeout bounds a single refresh round trip.
func WithRefreshTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.refreshes = refresh.NewCoordinator(d)
	}
}

// WithLogoutTimeout bounds the best-effort logout call.
func WithLogoutTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.logoutTimeout = d
	}
}

// NewManager creates the session manager for a tenant. api must not carry
// an authenticating transport: login, refresh and logout are plain calls.
func NewManager(tenant *tenants.Tenant, store sessions.Store, api *apiclient.Client, options ...ManagerOption) (*Manager, error) {
	if tenant == nil {
		return nil, errors.New("[NewManager] tenant is required")
	}
	if store == nil {
		return nil, errors.New("[NewManager] session store is required")
	}
	if api == nil {
		return nil, errors.New("[NewManager] api client is required")
	}

	m := &Manager{
		tenant:        tenant,
		store:         store,
		api:           api,
		validator:     NewValidator(),
		nav:           logNavigator{tenantID: tenant.ID},
		refreshes:     refresh.NewCoordinator(defaultRefreshTimeout),
		logoutTimeout: defaultLogoutTimeout,
		state:         sessions.Uninitialized,
		ready:         make(chan struct{}),
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Tenant returns the tenant this manager serves.
func (m *Manager) Tenant() *tenants.Tenant {
	return m.tenant
}

// Initialize restores a persisted session. It runs once per manager and
// never touches the network.
func (m *Manager) Initialize(ctx context.Context) {
	m.initOnce.Do(func() {
		defer close(m.ready)

		m.mu.Lock()
		m.state = sessions.Restoring
		m.mu.Unlock()

		s, ok := m.store.Load(ctx)

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.state != sessions.Restoring {
			// signed in or out while restoring; that outcome wins
			return
		}
		if !ok {
			m.state = sessions.Unauthenticated
			log.Debug().Str("tenant", m.tenant.ID).Msg("no persisted session")
			return
		}
		m.identity = s.Identity
		m.creds = s.Credentials
		m.state = sessions.Authenticated
		log.Info().Str("tenant", m.tenant.ID).Str("user", s.Identity.Username).Msg("session restored")
	})
}

// Ready is closed once Initialize has settled.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Restoring reports whether the session is not yet known, in which case
// guards must wait rather than redirect.
func (m *Manager) Restoring() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == sessions.Uninitialized || m.state == sessions.Restoring
}

// State returns the current lifecycle state.
func (m *Manager) State() sessions.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Identity returns the signed-in identity.
func (m *Manager) Identity() (sessions.Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.identity, m.state == sessions.Authenticated
}

// View returns a snapshot suitable for rendering.
func (m *Manager) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v := View{
		Tenant:    m.tenant.ID,
		State:     m.state,
		Restoring: m.state == sessions.Uninitialized || m.state == sessions.Restoring,
	}
	if m.state == sessions.Authenticated {
		identity := m.identity
		v.Identity = &identity
	}
	return v
}

// SignIn exchanges username and password for a session. Failures are
// *errors.Error values carrying a user-facing message; a failed sign-in
// leaves the store untouched.
func (m *Manager) SignIn(ctx context.Context, username, password string) error {
	if err := m.validator.ValidateCredentials(username, password); err != nil {
		return err
	}
	username = strings.TrimSpace(username)

	var resp loginResponse
	err := m.api.DoJSON(ctx, http.MethodPost, m.tenant.Endpoint("login"), loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		log.Warn().Err(err).Str("tenant", m.tenant.ID).Str("user", username).Msg("sign in failed")
		return err
	}
	if resp.Access == "" || resp.Refresh == "" {
		log.Error().Str("tenant", m.tenant.ID).Msg("login response without tokens")
		return &apperrors.Error{Kind: apperrors.KindServer, Status: http.StatusOK, Message: apperrors.MsgServerError, Err: apperrors.ErrMalformedResponse}
	}

	identity := sessions.Identity{Username: resp.Username, Email: resp.Email}
	creds := sessions.Credentials{AccessToken: resp.Access, RefreshToken: resp.Refresh}

	m.writeMu.Lock()
	if err := m.store.Save(ctx, identity, creds); err != nil {
		m.writeMu.Unlock()
		log.Error().Err(err).Str("tenant", m.tenant.ID).Msg("persist session")
		return &apperrors.Error{Kind: apperrors.KindUnknown, Message: PersistSessionErr.Error(), Err: errors.Wrap(err, "[Manager.SignIn] store.Save")}
	}
	m.mu.Lock()
	m.epoch++
	m.identity = identity
	m.creds = creds
	m.state = sessions.Authenticated
	m.mu.Unlock()
	m.writeMu.Unlock()

	log.Info().Str("tenant", m.tenant.ID).Str("user", identity.Username).Msg("signed in")
	m.nav.Navigate(m.tenant.HomeRoute)
	return nil
}

// SignOut ends the session. The logout call is best effort; the local
// session is always cleared and the user always lands on the sign-in route.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.RLock()
	creds := m.creds
	authenticated := m.state == sessions.Authenticated
	m.mu.RUnlock()

	defer m.drop(ctx, nil, "signed out")

	if !authenticated || creds.RefreshToken == "" {
		return
	}

	logoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.logoutTimeout)
	defer cancel()

	req, err := m.api.NewRequest(logoutCtx, http.MethodPost, m.tenant.Endpoint("logout"), refreshRequest{Refresh: creds.RefreshToken})
	if err != nil {
		log.Warn().Err(err).Str("tenant", m.tenant.ID).Msg("build logout request")
		return
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	if err := m.api.Do(req, nil); err != nil {
		log.Warn().Err(err).Str("tenant", m.tenant.ID).Msg("logout request failed, clearing local session anyway")
	}
}

// Refresh mints a new access token with the stored refresh token. Any
// failure ends the session. Concurrent calls share one request.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	m.mu.RLock()
	current := m.creds.AccessToken
	m.mu.RUnlock()
	return m.RefreshAfter(ctx, current)
}

// RefreshAfter refreshes unless the session already moved past the rejected
// token, in which case the current token is returned without a network call.
func (m *Manager) RefreshAfter(ctx context.Context, rejected string) (string, error) {
	m.mu.RLock()
	state, current, epoch := m.state, m.creds.AccessToken, m.epoch
	m.mu.RUnlock()

	if state != sessions.Authenticated {
		return "", apperrors.NotAuthenticated()
	}
	if current != rejected {
		return current, nil
	}

	access, shared, err := m.refreshes.Do(ctx, "refresh:"+strconv.FormatUint(epoch, 10), func(runCtx context.Context) (string, error) {
		return m.doRefresh(runCtx, epoch)
	})
	if shared {
		log.Debug().Str("tenant", m.tenant.ID).Msg("joined in-flight refresh")
	}
	return access, err
}

func (m *Manager) doRefresh(ctx context.Context, epoch uint64) (string, error) {
	m.mu.RLock()
	identity, creds, current := m.identity, m.creds, m.epoch
	m.mu.RUnlock()
	if current != epoch {
		return "", apperrors.NotAuthenticated()
	}

	var resp refreshResponse
	err := m.api.DoJSON(ctx, http.MethodPost, m.tenant.Endpoint("refresh"), refreshRequest{Refresh: creds.RefreshToken}, &resp)
	if err == nil && resp.Access == "" {
		err = &apperrors.Error{Kind: apperrors.KindServer, Status: http.StatusOK, Message: apperrors.MsgServerError, Err: apperrors.ErrMalformedResponse}
	}
	if err != nil {
		log.Warn().Err(err).Str("tenant", m.tenant.ID).Msg("refresh failed, ending session")
		m.drop(ctx, &epoch, "refresh failed")
		return "", err
	}

	updated := sessions.Credentials{AccessToken: resp.Access, RefreshToken: creds.RefreshToken}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	if m.epoch != epoch || m.state != sessions.Authenticated {
		m.mu.Unlock()
		log.Debug().Str("tenant", m.tenant.ID).Msg("discarding refresh for a replaced session")
		return "", apperrors.NotAuthenticated()
	}
	m.creds = updated
	m.mu.Unlock()

	if err := m.store.Save(ctx, identity, updated); err != nil {
		log.Error().Err(err).Str("tenant", m.tenant.ID).Msg("persist refreshed token")
	}
	log.Debug().Str("tenant", m.tenant.ID).Msg("access token refreshed")
	return resp.Access, nil
}

// drop clears the session and navigates to sign-in. With a non-nil epoch it
// only acts if the session has not been replaced since.
func (m *Manager) drop(ctx context.Context, epoch *uint64, reason string) {
	m.writeMu.Lock()

	m.mu.Lock()
	if epoch != nil && *epoch != m.epoch {
		m.mu.Unlock()
		m.writeMu.Unlock()
		return
	}
	m.epoch++
	m.identity = sessions.Identity{}
	m.creds = sessions.Credentials{}
	m.state = sessions.Unauthenticated
	m.mu.Unlock()

	if err := m.store.Clear(context.WithoutCancel(ctx)); err != nil {
		log.Error().Err(err).Str("tenant", m.tenant.ID).Msg("clear session store")
	}
	m.writeMu.Unlock()

	log.Info().Str("tenant", m.tenant.ID).Str("reason", reason).Msg("session ended")
	m.nav.Navigate(m.tenant.SignInRoute)
}

// Token implements oauth2.TokenSource with the current access token. The
// expiry is filled in when the token is a JWT.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != sessions.Authenticated {
		return nil, apperrors.NotAuthenticated()
	}
	tok := &oauth2.Token{
		AccessToken:  m.creds.AccessToken,
		RefreshToken: m.creds.RefreshToken,
		TokenType:    "Bearer",
	}
	if exp, ok := token.ExpiresAt(tok.AccessToken); ok {
		tok.Expiry = exp
	}
	return tok, nil
}

// Transport returns an authenticating round tripper bound to this session.
func (m *Manager) Transport(base http.RoundTripper, refreshSkew time.Duration) *apiclient.Transport {
	t := apiclient.NewTransport(m, m, base)
	t.RefreshSkew = refreshSkew
	return t
}

var (
	_ oauth2.TokenSource  = (*Manager)(nil)
	_ apiclient.Refresher = (*Manager)(nil)
)
