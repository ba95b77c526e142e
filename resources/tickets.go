package resources

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jrsteele09/helpdesk-console/apiclient"
)

type Tickets struct {
	*Service[Ticket]
}

func NewTickets(api *apiclient.Client, basePath string) *Tickets {
	return &Tickets{Service: NewService[Ticket](api, basePath, TicketsName)}
}

// Assign hands the ticket to a supporter.
func (t *Tickets) Assign(ctx context.Context, id, supporterID int) (*Ticket, error) {
	var ticket Ticket
	in := map[string]int{"supporter": supporterID}
	if err := t.api.DoJSON(ctx, http.MethodPost, t.path+strconv.Itoa(id)+"/assign/", in, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (t *Tickets) SetStatus(ctx context.Context, id int, status TicketStatus) (*Ticket, error) {
	return t.Update(ctx, id, map[string]TicketStatus{"status": status})
}
