package resources_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/helpdesk-console/apiclient"
	"github.com/jrsteele09/helpdesk-console/auth"
	apperrors "github.com/jrsteele09/helpdesk-console/internal/errors"
	"github.com/jrsteele09/helpdesk-console/resources"
	sessionrepofakes "github.com/jrsteele09/helpdesk-console/sessions/repofakes"
	"github.com/jrsteele09/helpdesk-console/tenants"
	"github.com/stretchr/testify/require"
)

func TestHookRecoversFromExpiredToken(t *testing.T) {
	var refreshes, listCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/login/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access": "tok1", "refresh": "ref1", "username": "alice", "email": "alice@example.com"})
	})
	mux.HandleFunc("/admin/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"access": "tok2"})
	})
	mux.HandleFunc("/admin/tickets/", func(w http.ResponseWriter, r *http.Request) {
		listCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer tok2" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(apperrors.Envelope{Code: "token_not_valid", Message: "Token is expired"})
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": 1, "title": "Printer on fire"}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	tenant := tenants.Defaults()[0]
	plain, err := apiclient.New(srv.URL)
	require.NoError(t, err)
	manager, err := auth.NewManager(tenant, sessionrepofakes.NewFakeSessionStore(), plain, auth.WithNavigator(auth.NavigatorFunc(func(string) {})))
	require.NoError(t, err)
	manager.Initialize(context.Background())
	require.NoError(t, manager.SignIn(context.Background(), "alice", "secret"))

	authed, err := apiclient.New(srv.URL, apiclient.WithTransport(manager.Transport(nil, 0)))
	require.NoError(t, err)
	set := resources.NewSet(authed, tenant)

	hook := resources.NewHook(func(ctx context.Context) ([]resources.Ticket, error) {
		return set.Tickets.List(ctx, nil)
	})
	snap := hook.Load(context.Background())

	require.NoError(t, snap.Err)
	require.Nil(t, snap.Error)
	require.False(t, snap.Loading)
	require.Len(t, snap.Data, 1)
	require.Equal(t, 1, snap.Data[0].ID)
	require.Equal(t, int32(1), refreshes.Load())
	require.Equal(t, int32(2), listCalls.Load())
}

func TestHookKeepsDataOnFailure(t *testing.T) {
	fail := false
	hook := resources.NewHook(func(ctx context.Context) (int, error) {
		if fail {
			return 0, apperrors.FromStatus(http.StatusInternalServerError, apperrors.Envelope{})
		}
		return 42, nil
	})

	snap := hook.Load(context.Background())
	require.Equal(t, 42, snap.Data)
	require.Nil(t, snap.Error)

	fail = true
	snap = hook.Load(context.Background())
	require.Equal(t, 42, snap.Data)
	require.Error(t, snap.Err)
	require.Equal(t, "server error", snap.Error.Message)

	fail = false
	snap = hook.Load(context.Background())
	require.NoError(t, snap.Err)
	require.Nil(t, snap.Error)
}

func TestHookReportsLoading(t *testing.T) {
	release := make(chan struct{})
	hook := resources.NewHook(func(ctx context.Context) (string, error) {
		<-release
		return "done", nil
	})

	done := make(chan resources.Snapshot[string], 1)
	go func() { done <- hook.Load(context.Background()) }()

	require.Eventually(t, func() bool { return hook.State().Loading }, time.Second, 5*time.Millisecond)
	close(release)
	snap := <-done
	require.False(t, snap.Loading)
	require.Equal(t, "done", snap.Data)
}
