package fakeapi

import (
	"time"

	"github.com/jrsteele09/helpdesk-console/internal/utils"
	"github.com/jrsteele09/helpdesk-console/resources"
	"github.com/jrsteele09/helpdesk-console/tenants"
	"github.com/pkg/errors"
)

// DemoAccount is a seeded login.
type DemoAccount struct {
	Tenant   string
	Username string
	Email    string
	Password string
}

var DemoAccounts = []DemoAccount{
	{tenants.AdminID, "root", "root@helpdesk.local", "Admin12345"},
	{tenants.SupporterID, "sam", "sam@helpdesk.local", "Support12345"},
	{tenants.CustomerID, "carol", "carol@example.com", "Customer12345"},
}

// Seed loads demo accounts, designations, tickets and a conversation.
func (a *API) Seed() error {
	for _, acc := range DemoAccounts {
		if err := a.AddUser(acc.Tenant, acc.Username, acc.Email, acc.Password); err != nil {
			return errors.Wrapf(err, "[API.Seed] %s/%s", acc.Tenant, acc.Username)
		}
	}

	tier1 := a.designations.create(resources.Designation{Name: "Tier 1", Description: "first line support"})
	a.designations.create(resources.Designation{Name: "Tier 2", Description: "escalations"})
	for _, s := range a.supporters.list(nil) {
		s.Designation = utils.Ptr(tier1.ID)
		a.supporters.put(s.ID, s)
	}

	now := a.nowTime().UTC()
	printer := a.tickets.create(resources.Ticket{
		Title:       "Printer on fire",
		Description: "The office printer is smoking again.",
		Status:      resources.TicketOpen,
		Priority:    "high",
		Customer:    "carol",
		CreatedAt:   now.Add(-2 * time.Hour),
		UpdatedAt:   now.Add(-2 * time.Hour),
	})
	a.tickets.create(resources.Ticket{
		Title:     "VPN drops every hour",
		Status:    resources.TicketResolved,
		Priority:  "normal",
		Customer:  "carol",
		CreatedAt: now.Add(-48 * time.Hour),
		UpdatedAt: now.Add(-24 * time.Hour),
	})
	a.messages.create(resources.Message{Ticket: printer.ID, Sender: "carol", Body: "Smoke everywhere, please help.", CreatedAt: now.Add(-2 * time.Hour)})
	a.messages.create(resources.Message{Ticket: printer.ID, Sender: "sam", Body: "On my way with an extinguisher.", CreatedAt: now.Add(-time.Hour)})
	return nil
}
