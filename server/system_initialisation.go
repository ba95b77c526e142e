package server

import (
	"context"
	"sync"

	"github.com/jrsteele09/helpdesk-console/apiclient"
	"github.com/jrsteele09/helpdesk-console/auth"
	"github.com/jrsteele09/helpdesk-console/internal/config"
	"github.com/jrsteele09/helpdesk-console/resources"
	"github.com/jrsteele09/helpdesk-console/sessions"
	"github.com/jrsteele09/helpdesk-console/tenants"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// NewTenantContext wires a tenant's session manager and its authenticated
// client. Auth endpoints use a plain client so they never recurse into the
// refresh logic.
func NewTenantContext(cfg config.APIConfig, tenant *tenants.Tenant, store sessions.Store, options ...auth.ManagerOption) (*TenantContext, error) {
	plain, err := apiclient.New(cfg.GetAPIBaseURL(), apiclient.WithTimeout(cfg.GetRequestTimeout()))
	if err != nil {
		return nil, errors.Wrap(err, "[NewTenantContext] plain client")
	}

	options = append([]auth.ManagerOption{auth.WithRefreshTimeout(cfg.GetRefreshTimeout())}, options...)
	manager, err := auth.NewManager(tenant, store, plain, options...)
	if err != nil {
		return nil, errors.Wrapf(err, "[NewTenantContext] %s manager", tenant.ID)
	}

	authed, err := apiclient.New(cfg.GetAPIBaseURL(),
		apiclient.WithTimeout(cfg.GetRequestTimeout()),
		apiclient.WithTransport(manager.Transport(nil, cfg.GetRefreshSkew())),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[NewTenantContext] authenticated client")
	}

	return &TenantContext{
		Tenant:    tenant,
		Manager:   manager,
		API:       authed,
		Resources: resources.NewSet(authed, tenant),
	}, nil
}

// InitialiseSessions restores every tenant session concurrently. Guards show
// a loading page until each one settles. The returned channel closes when
// all are done.
func (s *Server) InitialiseSessions(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	var wg sync.WaitGroup
	for _, tc := range s.consoles {
		wg.Add(1)
		go func(tc *TenantContext) {
			defer wg.Done()
			tc.Manager.Initialize(ctx)
			log.Info().Str("tenant", tc.Tenant.ID).Str("state", tc.Manager.State().String()).Msg("session initialised")
		}(tc)
	}
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}
