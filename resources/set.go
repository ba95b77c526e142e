package resources

import (
	"context"
	"net/url"

	"github.com/jrsteele09/helpdesk-console/apiclient"
	"github.com/jrsteele09/helpdesk-console/tenants"
)

// Set groups the services a tenant console uses. Every service shares the
// tenant's authenticated client.
type Set struct {
	Tickets      *Tickets
	Supporters   *Service[Supporter]
	Designations *Service[Designation]
	Users        *Service[User]
	Messages     *Messages

	tenant *tenants.Tenant
}

func NewSet(api *apiclient.Client, tenant *tenants.Tenant) *Set {
	return &Set{
		Tickets:      NewTickets(api, tenant.BasePath),
		Supporters:   NewService[Supporter](api, tenant.BasePath, SupportersName),
		Designations: NewService[Designation](api, tenant.BasePath, DesignationsName),
		Users:        NewService[User](api, tenant.BasePath, UsersName),
		Messages:     NewMessages(api, tenant.BasePath),
		tenant:       tenant,
	}
}

// ListFunc lists a collection without exposing its element type.
type ListFunc func(ctx context.Context, query url.Values) (any, error)

func listAny[T any](s *Service[T]) ListFunc {
	return func(ctx context.Context, query url.Values) (any, error) {
		return s.List(ctx, query)
	}
}

// Lister returns the list operation for a named collection, limited to the
// collections the tenant exposes.
func (s *Set) Lister(name string) (ListFunc, bool) {
	if !s.tenant.HasResource(name) {
		return nil, false
	}
	switch name {
	case TicketsName:
		return listAny(s.Tickets.Service), true
	case SupportersName:
		return listAny(s.Supporters), true
	case DesignationsName:
		return listAny(s.Designations), true
	case UsersName:
		return listAny(s.Users), true
	case MessagesName:
		return listAny(s.Messages.Service), true
	}
	return nil, false
}
