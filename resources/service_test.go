package resources_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/helpdesk-console/apiclient"
	apperrors "github.com/jrsteele09/helpdesk-console/internal/errors"
	"github.com/jrsteele09/helpdesk-console/resources"
	"github.com/jrsteele09/helpdesk-console/tenants"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  string
	body   string
}

type collectionServer struct {
	mu       sync.Mutex
	requests []recorded
	status   int
	response string
}

func newCollectionServer(t *testing.T, status int, response string) (*collectionServer, *apiclient.Client) {
	cs := &collectionServer{status: status, response: response}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		cs.mu.Lock()
		cs.requests = append(cs.requests, recorded{r.Method, r.URL.Path, r.URL.RawQuery, string(body)})
		status, response := cs.status, cs.response
		cs.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)

	api, err := apiclient.New(srv.URL)
	require.NoError(t, err)
	return cs, api
}

func (cs *collectionServer) last() recorded {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.requests[len(cs.requests)-1]
}

func TestServiceListAcceptsArrayAndPage(t *testing.T) {
	for name, body := range map[string]string{
		"array": `[{"id":1,"title":"Printer"},{"id":2,"title":"VPN"}]`,
		"page":  `{"count":2,"next":null,"results":[{"id":1,"title":"Printer"},{"id":2,"title":"VPN"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			cs, api := newCollectionServer(t, http.StatusOK, body)
			tickets := resources.NewTickets(api, "/admin")

			items, err := tickets.List(context.Background(), map[string][]string{"status": {"open"}})
			require.NoError(t, err)
			require.Len(t, items, 2)
			require.Equal(t, "VPN", items[1].Title)

			req := cs.last()
			require.Equal(t, http.MethodGet, req.method)
			require.Equal(t, "/admin/tickets/", req.path)
			require.Equal(t, "status=open", req.query)
		})
	}
}

func TestServiceListEmpty(t *testing.T) {
	_, api := newCollectionServer(t, http.StatusOK, `[]`)
	items, err := resources.NewService[resources.User](api, "/admin", resources.UsersName).List(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
}

func TestServiceListMalformed(t *testing.T) {
	_, api := newCollectionServer(t, http.StatusOK, `"nope"`)
	_, err := resources.NewService[resources.User](api, "/admin", resources.UsersName).List(context.Background(), nil)
	require.Equal(t, apperrors.KindServer, apperrors.KindOf(err))
}

func TestServiceItemOperations(t *testing.T) {
	cs, api := newCollectionServer(t, http.StatusOK, `{"id":7,"name":"Tier 2"}`)
	designations := resources.NewService[resources.Designation](api, "/admin/", resources.DesignationsName)
	ctx := context.Background()

	d, err := designations.Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, "Tier 2", d.Name)
	require.Equal(t, recorded{method: http.MethodGet, path: "/admin/designations/7/"}, cs.last())

	_, err = designations.Create(ctx, resources.Designation{Name: "Tier 2"})
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, cs.last().method)
	require.Equal(t, "/admin/designations/", cs.last().path)
	require.JSONEq(t, `{"id":0,"name":"Tier 2"}`, cs.last().body)

	_, err = designations.Update(ctx, 7, map[string]string{"description": "escalations"})
	require.NoError(t, err)
	require.Equal(t, http.MethodPatch, cs.last().method)
	require.Equal(t, "/admin/designations/7/", cs.last().path)

	_, err = designations.Replace(ctx, 7, resources.Designation{ID: 7, Name: "Tier 3"})
	require.NoError(t, err)
	require.Equal(t, http.MethodPut, cs.last().method)
	require.Equal(t, "/admin/designations/7/", cs.last().path)
	require.JSONEq(t, `{"id":7,"name":"Tier 3"}`, cs.last().body)

	cs.mu.Lock()
	cs.status, cs.response = http.StatusNoContent, ""
	cs.mu.Unlock()
	require.NoError(t, designations.Delete(ctx, 7))
	require.Equal(t, http.MethodDelete, cs.last().method)
}

func TestServiceSurfacesForbidden(t *testing.T) {
	_, api := newCollectionServer(t, http.StatusForbidden, `{"code":"denied","message":"not your ticket"}`)
	_, err := resources.NewTickets(api, "/customer").Get(context.Background(), 3)

	var apiErr *apperrors.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, apperrors.KindAuthorization, apiErr.Kind)
	require.Equal(t, "not your ticket", apiErr.Message)
}

func TestTicketsAssignAndStatus(t *testing.T) {
	cs, api := newCollectionServer(t, http.StatusOK, `{"id":4,"title":"VPN","status":"in_progress","assigned_to":9}`)
	tickets := resources.NewTickets(api, "/admin")

	ticket, err := tickets.Assign(context.Background(), 4, 9)
	require.NoError(t, err)
	require.Equal(t, 9, *ticket.AssignedTo)
	require.Equal(t, "/admin/tickets/4/assign/", cs.last().path)
	require.JSONEq(t, `{"supporter":9}`, cs.last().body)

	ticket, err = tickets.SetStatus(context.Background(), 4, resources.TicketInProgress)
	require.NoError(t, err)
	require.Equal(t, resources.TicketInProgress, ticket.Status)
	require.Equal(t, http.MethodPatch, cs.last().method)
	require.JSONEq(t, `{"status":"in_progress"}`, cs.last().body)
}

func TestMessagesListForTicket(t *testing.T) {
	cs, api := newCollectionServer(t, http.StatusOK, `[{"id":1,"ticket":5,"body":"hello"}]`)
	msgs, err := resources.NewMessages(api, "/customer").ListForTicket(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "/customer/messages/", cs.last().path)
	require.Equal(t, "ticket=5", cs.last().query)
}

func TestMessagesSendMultipart(t *testing.T) {
	type upload struct {
		contentType string
		ticket      string
		body        string
		filename    string
		file        string
	}
	got := make(chan upload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var u upload
		u.contentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			u.ticket = r.FormValue("ticket")
			u.body = r.FormValue("body")
			if f, hdr, err := r.FormFile("attachment"); err == nil {
				data, _ := io.ReadAll(f)
				u.filename, u.file = hdr.Filename, string(data)
				_ = f.Close()
			}
		}
		got <- u
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resources.Message{ID: 11, Ticket: 5, Body: u.body})
	}))
	t.Cleanup(srv.Close)
	api, err := apiclient.New(srv.URL)
	require.NoError(t, err)

	msg, err := resources.NewMessages(api, "/supporter").Send(context.Background(), 5, "see log", resources.Attachment{Name: "log.txt", Content: strings.NewReader("line 1")})
	require.NoError(t, err)
	require.Equal(t, 11, msg.ID)

	u := <-got
	require.True(t, strings.HasPrefix(u.contentType, "multipart/form-data; boundary="))
	require.Equal(t, "5", u.ticket)
	require.Equal(t, "see log", u.body)
	require.Equal(t, "log.txt", u.filename)
	require.Equal(t, "line 1", u.file)
}

func TestMessagesSendRejectsEmpty(t *testing.T) {
	cs, api := newCollectionServer(t, http.StatusOK, `{}`)
	_, err := resources.NewMessages(api, "/customer").Send(context.Background(), 5, "  ")
	require.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	require.Empty(t, cs.requests)
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestMessagesSendAttachmentReadFailure(t *testing.T) {
	cs, api := newCollectionServer(t, http.StatusOK, `{}`)
	readErr := errors.New("disk gone")

	_, err := resources.NewMessages(api, "/customer").Send(context.Background(), 5, "see log",
		resources.Attachment{Name: "log.txt", Content: failingReader{readErr}})
	require.ErrorIs(t, err, readErr)
	require.Contains(t, err.Error(), "[Messages.Send] copy attachment log.txt")
	require.Empty(t, cs.requests)
}

func TestSetListerFollowsTenantResources(t *testing.T) {
	_, api := newCollectionServer(t, http.StatusOK, `[]`)
	var customer *tenants.Tenant
	for _, tn := range tenants.Defaults() {
		if tn.ID == tenants.CustomerID {
			customer = tn
		}
	}
	set := resources.NewSet(api, customer)

	_, ok := set.Lister(resources.UsersName)
	require.False(t, ok)

	list, ok := set.Lister(resources.TicketsName)
	require.True(t, ok)
	out, err := list(context.Background(), nil)
	require.NoError(t, err)
	require.IsType(t, []resources.Ticket{}, out)
}
