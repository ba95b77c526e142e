package fakeapi

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/helpdesk-console/internal/utils"
	"github.com/jrsteele09/helpdesk-console/resources"
	"github.com/jrsteele09/helpdesk-console/tenants"
)

const maxUpload = 10 << 20

// allowResource refuses collections the caller's tenant does not expose.
func (a *API) allowResource(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tenantFrom(r.Context()).HasResource(name) {
				writeError(w, http.StatusForbidden, CodeForbidden, "You do not have permission to perform this action.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "Not found.")
		return 0, false
	}
	return id, true
}

// mountCollection registers list, create, get, patch and delete for a
// plain collection.
func mountCollection[T any](r chi.Router, a *API, name string, c *collection[T]) {
	r.Route("/"+name, func(rr chi.Router) {
		rr.Use(a.allowResource(name))
		rr.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, c.list(nil))
		})
		rr.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var item T
			if err := decodeJSON(r, &item); err != nil {
				writeError(w, http.StatusBadRequest, CodeInvalidRequest, "malformed body")
				return
			}
			writeJSON(w, http.StatusCreated, c.create(item))
		})
		rr.Get("/{id}/", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r)
			if !ok {
				return
			}
			item, found := c.get(id)
			if !found {
				writeError(w, http.StatusNotFound, CodeNotFound, "Not found.")
				return
			}
			writeJSON(w, http.StatusOK, item)
		})
		rr.Put("/{id}/", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r)
			if !ok {
				return
			}
			var item T
			if err := decodeJSON(r, &item); err != nil {
				writeError(w, http.StatusBadRequest, CodeInvalidRequest, "malformed body")
				return
			}
			item, found := c.replace(id, item)
			if !found {
				writeError(w, http.StatusNotFound, CodeNotFound, "Not found.")
				return
			}
			writeJSON(w, http.StatusOK, item)
		})
		rr.Patch("/{id}/", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r)
			if !ok {
				return
			}
			body, err := io.ReadAll(r.Body)
			if err != nil {
				writeError(w, http.StatusBadRequest, CodeInvalidRequest, "malformed body")
				return
			}
			item, found, err := c.patch(id, body)
			switch {
			case !found:
				writeError(w, http.StatusNotFound, CodeNotFound, "Not found.")
			case err != nil:
				writeError(w, http.StatusBadRequest, CodeInvalidRequest, "malformed body")
			default:
				writeJSON(w, http.StatusOK, item)
			}
		})
		rr.Delete("/{id}/", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r)
			if !ok {
				return
			}
			if !c.delete(id) {
				writeError(w, http.StatusNotFound, CodeNotFound, "Not found.")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})
}

// visibleTicket hides other customers' tickets from a customer.
func visibleTicket(r *http.Request, t resources.Ticket) bool {
	if tenantFrom(r.Context()).ID != tenants.CustomerID {
		return true
	}
	return t.Customer == claimsFrom(r.Context()).Subject
}

func (a *API) mountTickets(r chi.Router) {
	r.Route("/"+resources.TicketsName, func(rr chi.Router) {
		rr.Use(a.allowResource(resources.TicketsName))
		rr.Get("/", func(w http.ResponseWriter, r *http.Request) {
			status := resources.TicketStatus(r.URL.Query().Get("status"))
			writeJSON(w, http.StatusOK, a.tickets.list(func(t resources.Ticket) bool {
				return visibleTicket(r, t) && (status == "" || t.Status == status)
			}))
		})
		rr.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var t resources.Ticket
			if err := decodeJSON(r, &t); err != nil || strings.TrimSpace(t.Title) == "" {
				writeError(w, http.StatusBadRequest, CodeInvalidRequest, "title is required")
				return
			}
			now := a.nowTime().UTC()
			t.Status, t.CreatedAt, t.UpdatedAt = resources.TicketOpen, now, now
			if tenantFrom(r.Context()).ID == tenants.CustomerID {
				t.Customer = claimsFrom(r.Context()).Subject
			}
			writeJSON(w, http.StatusCreated, a.tickets.create(t))
		})
		rr.Get("/{id}/", func(w http.ResponseWriter, r *http.Request) {
			t, ok := a.ticketFor(w, r)
			if ok {
				writeJSON(w, http.StatusOK, t)
			}
		})
		rr.Put("/{id}/", func(w http.ResponseWriter, r *http.Request) {
			t, ok := a.ticketFor(w, r)
			if !ok {
				return
			}
			var next resources.Ticket
			if err := decodeJSON(r, &next); err != nil || next.Title == "" {
				writeError(w, http.StatusBadRequest, CodeInvalidRequest, "title is required")
				return
			}
			next.ID, next.Customer, next.AssignedTo, next.CreatedAt = t.ID, t.Customer, t.AssignedTo, t.CreatedAt
			if next.Status == "" {
				next.Status = t.Status
			}
			next.UpdatedAt = a.nowTime().UTC()
			a.tickets.put(t.ID, next)
			writeJSON(w, http.StatusOK, next)
		})
		rr.Patch("/{id}/", func(w http.ResponseWriter, r *http.Request) {
			t, ok := a.ticketFor(w, r)
			if !ok {
				return
			}
			var patch struct {
				Title       *string                 `json:"title"`
				Description *string                 `json:"description"`
				Status      *resources.TicketStatus `json:"status"`
				Priority    *string                 `json:"priority"`
			}
			if err := decodeJSON(r, &patch); err != nil {
				writeError(w, http.StatusBadRequest, CodeInvalidRequest, "malformed body")
				return
			}
			t.Title = utils.ValueOr(patch.Title, t.Title)
			t.Description = utils.ValueOr(patch.Description, t.Description)
			t.Status = utils.ValueOr(patch.Status, t.Status)
			t.Priority = utils.ValueOr(patch.Priority, t.Priority)
			t.UpdatedAt = a.nowTime().UTC()
			a.tickets.put(t.ID, t)
			writeJSON(w, http.StatusOK, t)
		})
		rr.Delete("/{id}/", func(w http.ResponseWriter, r *http.Request) {
			if tenantFrom(r.Context()).ID != tenants.AdminID {
				writeError(w, http.StatusForbidden, CodeForbidden, "You do not have permission to perform this action.")
				return
			}
			t, ok := a.ticketFor(w, r)
			if !ok {
				return
			}
			a.tickets.delete(t.ID)
			w.WriteHeader(http.StatusNoContent)
		})
		rr.Post("/{id}/assign/", func(w http.ResponseWriter, r *http.Request) {
			if tenantFrom(r.Context()).ID == tenants.CustomerID {
				writeError(w, http.StatusForbidden, CodeForbidden, "You do not have permission to perform this action.")
				return
			}
			t, ok := a.ticketFor(w, r)
			if !ok {
				return
			}
			var body struct {
				Supporter int `json:"supporter"`
			}
			if err := decodeJSON(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, CodeInvalidRequest, "malformed body")
				return
			}
			if _, found := a.supporters.get(body.Supporter); !found {
				writeError(w, http.StatusBadRequest, CodeInvalidRequest, "unknown supporter")
				return
			}
			t.AssignedTo = utils.Ptr(body.Supporter)
			if t.Status == resources.TicketOpen {
				t.Status = resources.TicketInProgress
			}
			t.UpdatedAt = a.nowTime().UTC()
			a.tickets.put(t.ID, t)
			writeJSON(w, http.StatusOK, t)
		})
	})
}

func (a *API) ticketFor(w http.ResponseWriter, r *http.Request) (resources.Ticket, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return resources.Ticket{}, false
	}
	t, found := a.tickets.get(id)
	if !found || !visibleTicket(r, t) {
		writeError(w, http.StatusNotFound, CodeNotFound, "Not found.")
		return resources.Ticket{}, false
	}
	return t, true
}

func (a *API) mountMessages(r chi.Router) {
	r.Route("/"+resources.MessagesName, func(rr chi.Router) {
		rr.Use(a.allowResource(resources.MessagesName))
		rr.Get("/", func(w http.ResponseWriter, r *http.Request) {
			ticketID, _ := strconv.Atoi(r.URL.Query().Get("ticket"))
			writeJSON(w, http.StatusOK, a.messages.list(func(m resources.Message) bool {
				if ticketID != 0 && m.Ticket != ticketID {
					return false
				}
				t, found := a.tickets.get(m.Ticket)
				return found && visibleTicket(r, t)
			}))
		})
		rr.Post("/", func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(maxUpload); err != nil {
				writeError(w, http.StatusBadRequest, CodeInvalidRequest, "expected a multipart form")
				return
			}
			ticketID, err := strconv.Atoi(r.FormValue("ticket"))
			if err != nil {
				writeError(w, http.StatusBadRequest, CodeInvalidRequest, "ticket is required")
				return
			}
			if t, found := a.tickets.get(ticketID); !found || !visibleTicket(r, t) {
				writeError(w, http.StatusNotFound, CodeNotFound, "Not found.")
				return
			}

			msg := resources.Message{
				Ticket:    ticketID,
				Sender:    claimsFrom(r.Context()).Subject,
				Body:      r.FormValue("body"),
				CreatedAt: a.nowTime().UTC(),
			}
			if file, hdr, err := r.FormFile("attachment"); err == nil {
				_ = file.Close()
				msg.Attachment = "/media/attachments/" + uuid.New().String() + "/" + hdr.Filename
			}
			writeJSON(w, http.StatusCreated, a.messages.create(msg))
		})
		rr.Get("/{id}/", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r)
			if !ok {
				return
			}
			m, found := a.messages.get(id)
			if !found {
				writeError(w, http.StatusNotFound, CodeNotFound, "Not found.")
				return
			}
			writeJSON(w, http.StatusOK, m)
		})
	})
}
