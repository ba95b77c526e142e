package redisstore_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/helpdesk-console/sessions"
	"github.com/jrsteele09/helpdesk-console/sessions/redisstore"
	"github.com/stretchr/testify/require"
)

func testStores(t *testing.T) (context.Context, *miniredis.Miniredis, *redisstore.Store, *redisstore.Store) {
	t.Helper()
	mr := miniredis.RunT(t)

	ctx := context.Background()
	client, err := redisstore.Connect(ctx, mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	admin, err := redisstore.New(client, "admin_")
	require.NoError(t, err)
	customer, err := redisstore.New(client, "customer_")
	require.NoError(t, err)
	return ctx, mr, admin, customer
}

func TestRedisSaveLoadClear(t *testing.T) {
	ctx, mr, admin, customer := testStores(t)

	identity := sessions.Identity{Username: "alice", Email: "alice@example.com"}
	creds := sessions.Credentials{AccessToken: "tok1", RefreshToken: "ref1"}
	require.NoError(t, admin.Save(ctx, identity, creds))
	require.True(t, mr.Exists("admin_session"))
	require.Zero(t, mr.TTL("admin_session"))

	loaded, ok := admin.Load(ctx)
	require.True(t, ok)
	require.Equal(t, identity, loaded.Identity)
	require.Equal(t, creds, loaded.Credentials)

	_, ok = customer.Load(ctx)
	require.False(t, ok)

	require.NoError(t, admin.Clear(ctx))
	require.False(t, mr.Exists("admin_session"))
	_, ok = admin.Load(ctx)
	require.False(t, ok)

	require.NoError(t, admin.Clear(ctx))
}

func TestRedisBadPayloadLoadsEmpty(t *testing.T) {
	ctx, mr, admin, _ := testStores(t)

	for name, raw := range map[string]string{
		"malformed":      "{not json",
		"unknown":        `{"version":99,"identity":{"username":"alice"},"credentials":{"access_token":"a","refresh_token":"r"}}`,
		"missing tokens": `{"version":1,"identity":{"username":"alice"},"credentials":{}}`,
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, mr.Set(admin.Key(), raw))
			_, ok := admin.Load(ctx)
			require.False(t, ok)
		})
	}
}

func TestRedisConnectFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := redisstore.Connect(context.Background(), addr, "")
	require.Error(t, err)
}

func TestRedisRequiresArguments(t *testing.T) {
	_, err := redisstore.New(nil, "admin_")
	require.Error(t, err)
}
