package server

import (
	"context"
	"net/http"
	"net/url"

	apperrors "github.com/jrsteele09/helpdesk-console/internal/errors"
	"github.com/jrsteele09/helpdesk-console/internal/utils"
	"github.com/jrsteele09/helpdesk-console/resources"
)

type ticketRow struct {
	ID         int
	Title      string
	Status     resources.TicketStatus
	Customer   string
	AssignedTo int
	Assigned   bool
}

type dashboardPage struct {
	Tenant     string
	ConsoleURL string
	Username   string
	Tickets    []ticketRow
	Error      string
}

func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc, ok := tenantOrFail(w, r)
		if !ok {
			return
		}

		hook := resources.NewHook(func(ctx context.Context) ([]resources.Ticket, error) {
			return tc.Resources.Tickets.List(ctx, url.Values{})
		})
		snap := hook.Load(r.Context())
		if apperrors.Is(snap.Err, apperrors.ErrSessionExpired) || apperrors.Is(snap.Err, apperrors.ErrNotAuthenticated) {
			http.Redirect(w, r, tc.Tenant.SignInRoute, http.StatusSeeOther)
			return
		}

		identity, _ := tc.Manager.Identity()
		page := dashboardPage{
			Tenant:     tc.Tenant.Name,
			ConsoleURL: tc.Tenant.ConsolePath,
			Username:   identity.Username,
		}
		if snap.Error != nil {
			page.Error = snap.Error.Message
		}
		for _, t := range snap.Data {
			page.Tickets = append(page.Tickets, ticketRow{
				ID:         t.ID,
				Title:      t.Title,
				Status:     t.Status,
				Customer:   t.Customer,
				AssignedTo: utils.Value(t.AssignedTo),
				Assigned:   t.AssignedTo != nil,
			})
		}
		s.render(w, http.StatusOK, "dashboard.html", page)
	}
}
