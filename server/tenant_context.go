package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/helpdesk-console/apiclient"
	"github.com/jrsteele09/helpdesk-console/auth"
	"github.com/jrsteele09/helpdesk-console/resources"
	"github.com/jrsteele09/helpdesk-console/tenants"
)

// TenantContext is everything a console handler needs for one tenant. It is
// handed to handlers through the request context, never through globals.
type TenantContext struct {
	Tenant    *tenants.Tenant
	Manager   *auth.Manager
	API       *apiclient.Client // authenticated with the tenant session
	Resources *resources.Set
}

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const ContextKeyTenant ContextKey = "tenant_context"

func WithTenantContext(ctx context.Context, tc *TenantContext) context.Context {
	return context.WithValue(ctx, ContextKeyTenant, tc)
}

func TenantFromContext(ctx context.Context) (*TenantContext, bool) {
	tc, ok := ctx.Value(ContextKeyTenant).(*TenantContext)
	return tc, ok && tc != nil
}

// InjectTenant makes tc available to the rest of the chain.
func (s *Server) InjectTenant(tc *TenantContext) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			next(w, r.WithContext(WithTenantContext(r.Context(), tc)))
		}
	}
}

// tenantOrFail fetches the injected tenant context, answering 500 when a
// route was registered without one.
func tenantOrFail(w http.ResponseWriter, r *http.Request) (*TenantContext, bool) {
	tc, ok := TenantFromContext(r.Context())
	if !ok {
		http.Error(w, "tenant context missing", http.StatusInternalServerError)
	}
	return tc, ok
}
