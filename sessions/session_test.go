package sessions_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/helpdesk-console/sessions"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	sessions.NowTimeFunc = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	defer func() { sessions.NowTimeFunc = time.Now }()

	s := sessions.New(
		sessions.Identity{Username: "alice", Email: "alice@example.com"},
		sessions.Credentials{AccessToken: "tok1", RefreshToken: "ref1"},
	)
	data, err := sessions.Encode(s)
	require.NoError(t, err)
	require.Contains(t, string(data), `"version":1`)

	decoded, err := sessions.Decode(data)
	require.NoError(t, err)
	require.Equal(t, s, *decoded)
}

func TestDecodeRejects(t *testing.T) {
	tests := map[string]string{
		"malformed json":  `{"version":1,`,
		"not an object":   `"tok1"`,
		"missing version": `{"credentials":{"access_token":"a","refresh_token":"r"}}`,
		"future version":  `{"version":2,"credentials":{"access_token":"a","refresh_token":"r"}}`,
		"missing access":  `{"version":1,"credentials":{"refresh_token":"r"}}`,
		"missing refresh": `{"version":1,"credentials":{"access_token":"a"}}`,
		"empty":           ``,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := sessions.Decode([]byte(raw))
			require.Error(t, err)
		})
	}
}

func TestStateString(t *testing.T) {
	require.Equal(t, "restoring", sessions.Restoring.String())
	text, err := sessions.Authenticated.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "authenticated", string(text))
}
