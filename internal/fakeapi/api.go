// Package fakeapi is an in-memory ticketing backend that speaks the same
// REST contract as the real one: per-tenant login, refresh and logout plus
// the resource collections. It backs local development and tests.
package fakeapi

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jrsteele09/helpdesk-console/resources"
	"github.com/jrsteele09/helpdesk-console/tenants"
	tenantrepofakes "github.com/jrsteele09/helpdesk-console/tenants/repofakes"
	"github.com/jrsteele09/helpdesk-console/users"
	userrepofakes "github.com/jrsteele09/helpdesk-console/users/repofakes"
	"github.com/pkg/errors"
)

const defaultAccessTTL = 5 * time.Minute

type refreshGrant struct {
	tenantID string
	username string
}

// Stats counts auth endpoint traffic.
type Stats struct {
	Logins    int64
	Refreshes int64
	Logouts   int64
	Rejected  int64 // requests refused for a missing or invalid access token
}

type API struct {
	tenants    tenants.Repo
	accounts   users.UserRepo
	secret     []byte
	accessTTL  time.Duration
	bcryptCost int
	nowTime    func() time.Time

	lock       sync.RWMutex
	grants     map[string]refreshGrant
	generation int

	tickets      *collection[resources.Ticket]
	supporters   *collection[resources.Supporter]
	designations *collection[resources.Designation]
	people       *collection[resources.User]
	messages     *collection[resources.Message]

	logins, refreshes, logouts, rejected atomic.Int64
}

// Option defines a function type to modify the API instance.
type Option func(*API)

func WithSecret(secret []byte) Option {
	return func(a *API) {
		a.secret = secret
	}
}

// WithAccessTTL sets how long minted access tokens stay valid.
func WithAccessTTL(ttl time.Duration) Option {
	return func(a *API) {
		a.accessTTL = ttl
	}
}

func WithBcryptCost(cost int) Option {
	return func(a *API) {
		a.bcryptCost = cost
	}
}

func WithNowTime(nowFunc func() time.Time) Option {
	return func(a *API) {
		a.nowTime = nowFunc
	}
}

// WithTenants replaces the built-in tenant list.
func WithTenants(list []*tenants.Tenant) Option {
	return func(a *API) {
		a.tenants = tenantrepofakes.NewFakeTenantRepo()
		if err := tenants.Populate(a.tenants, list); err != nil {
			panic(err)
		}
	}
}

func New(options ...Option) *API {
	a := &API{
		accounts:     userrepofakes.NewFakeUserRepo(),
		secret:       []byte("helpdesk-fakeapi-secret"),
		accessTTL:    defaultAccessTTL,
		nowTime:      time.Now,
		grants:       make(map[string]refreshGrant),
		tickets:      newCollection(func(t *resources.Ticket, id int) { t.ID = id }),
		supporters:   newCollection(func(s *resources.Supporter, id int) { s.ID = id }),
		designations: newCollection(func(d *resources.Designation, id int) { d.ID = id }),
		people:       newCollection(func(u *resources.User, id int) { u.ID = id }),
		messages:     newCollection(func(m *resources.Message, id int) { m.ID = id }),
	}
	WithTenants(tenants.Defaults())(a)
	for _, opt := range options {
		opt(a)
	}
	return a
}

// AddUser creates an account for a tenant. Supporter and customer accounts
// also appear in the supporters and users collections.
func (a *API) AddUser(tenantID, username, email, password string) error {
	if _, err := a.tenants.Get(tenantID); err != nil {
		return errors.Errorf("[API.AddUser] unknown tenant %q", tenantID)
	}
	if err := users.ValidatePasswordStrength(password); err != nil {
		return errors.Wrap(err, "[API.AddUser]")
	}
	hash, err := users.HashPassword(password, a.bcryptCost)
	if err != nil {
		return errors.Wrap(err, "[API.AddUser] hash password")
	}

	now := a.nowTime().UTC()
	if err := a.accounts.Upsert(&users.User{
		TenantID:     tenantID,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         tenantID,
		DateJoined:   now,
	}); err != nil {
		return errors.Wrap(err, "[API.AddUser] upsert")
	}

	switch tenantID {
	case tenants.SupporterID:
		a.supporters.create(resources.Supporter{Username: username, Email: email, Active: true})
	case tenants.CustomerID:
		a.people.create(resources.User{Username: username, Email: email, Role: tenantID, Active: true, DateJoined: now})
	}
	return nil
}

// BlockUser stops an account from signing in.
func (a *API) BlockUser(tenantID, username string) error {
	return a.accounts.SetBlocked(tenantID, username, true)
}

// ExpireAccessTokens invalidates every access token minted so far, which
// makes the next authorised call answer 401.
func (a *API) ExpireAccessTokens() {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.generation++
}

// RevokeRefreshTokens forgets every refresh grant.
func (a *API) RevokeRefreshTokens() {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.grants = make(map[string]refreshGrant)
}

func (a *API) Stats() Stats {
	return Stats{
		Logins:    a.logins.Load(),
		Refreshes: a.refreshes.Load(),
		Logouts:   a.logouts.Load(),
		Rejected:  a.rejected.Load(),
	}
}

// Handler returns the router. Every route lives under /api/{tenant}.
func (a *API) Handler(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           60 * 15,
	}))

	r.Route("/api/{tenant}", func(rr chi.Router) {
		rr.Use(a.knownTenant)
		rr.Post("/login/", a.login)
		rr.Post("/refresh/", a.refresh)
		rr.Post("/logout/", a.logout)

		rr.Group(func(g chi.Router) {
			g.Use(a.requireToken)
			a.mountTickets(g)
			mountCollection(g, a, resources.SupportersName, a.supporters)
			mountCollection(g, a, resources.DesignationsName, a.designations)
			mountCollection(g, a, resources.UsersName, a.people)
			a.mountMessages(g)
		})
	})
	return r
}
