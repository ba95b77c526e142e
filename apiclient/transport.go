package apiclient

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/helpdesk-console/internal/errors"
	"github.com/jrsteele09/helpdesk-console/token"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// HeaderRequestID correlates a request and its retry in logs.
const HeaderRequestID = "X-Request-ID"

// Refresher mints a new access token after the backend rejected one.
type Refresher interface {
	// RefreshAfter returns a usable access token given the rejected one. If
	// the session already holds a newer token it is returned without a
	// network call.
	RefreshAfter(ctx context.Context, rejected string) (string, error)
}

// Transport authorises outbound requests with the session's current access
// token and recovers from a single 401 by refreshing and replaying the
// request once.
type Transport struct {
	Source    oauth2.TokenSource
	Refresher Refresher
	Base      http.RoundTripper

	// RefreshSkew, when positive, refreshes ahead of sending if the token is
	// known to expire within the skew.
	RefreshSkew time.Duration
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(source oauth2.TokenSource, refresher Refresher, base http.RoundTripper) *Transport {
	return &Transport{
		Source:    source,
		Refresher: refresher,
		Base:      base,
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	getBody, err := replayableBody(req)
	if err != nil {
		return nil, apperrors.Network(err)
	}

	// read at call time: a refresh may have replaced the token since the
	// request was built
	tok, err := t.Source.Token()
	if err != nil {
		return nil, err
	}
	access := tok.AccessToken

	if t.expiresSoon(tok) {
		if access, err = t.refresh(ctx, access); err != nil {
			return nil, err
		}
	}

	requestID := req.Header.Get(HeaderRequestID)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	resp, err := t.send(req, access, requestID, getBody)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()

	fresh, err := t.refresh(ctx, access)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Msg("retrying request after token refresh")

	return t.send(req, fresh, requestID, getBody)
}

func (t *Transport) refresh(ctx context.Context, rejected string) (string, error) {
	fresh, err := t.Refresher.RefreshAfter(ctx, rejected)
	if err != nil {
		if ctx.Err() != nil {
			// the caller gave up waiting; the session itself may be fine
			return "", apperrors.Network(ctx.Err())
		}
		return "", apperrors.SessionExpired(err)
	}
	return fresh, nil
}

// expiresSoon prefers the source's expiry and falls back to the JWT exp
// claim for sources that leave Expiry unset.
func (t *Transport) expiresSoon(tok *oauth2.Token) bool {
	if t.RefreshSkew <= 0 {
		return false
	}
	if tok.Expiry.IsZero() {
		return token.ExpiresWithin(tok.AccessToken, t.RefreshSkew)
	}
	return !time.Now().Add(t.RefreshSkew).Before(tok.Expiry)
}

func (t *Transport) send(orig *http.Request, access, requestID string, getBody func() (io.ReadCloser, error)) (*http.Response, error) {
	r := orig.Clone(orig.Context())
	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, apperrors.Network(err)
		}
		r.Body = body
		r.GetBody = getBody
	}

	r.Header.Set("Authorization", "Bearer "+access)
	if !isMultipart(r.Header.Get("Content-Type")) {
		r.Header.Set("Content-Type", contentTypeJSON)
	}
	r.Header.Set(HeaderRequestID, requestID)

	return t.base().RoundTrip(r)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// replayableBody returns a function producing a fresh copy of the request
// body, buffering it when the request cannot rewind itself. The original
// body is always closed.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		req.Body.Close()
		return req.GetBody, nil
	}

	buf, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, err
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf)), nil
	}, nil
}

func isMultipart(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.HasPrefix(strings.ToLower(contentType), "multipart/")
	}
	return strings.HasPrefix(mediaType, "multipart/")
}
