package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/helpdesk-console/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json"
	maxErrorBody    = 64 << 10
	defaultTimeout  = 30 * time.Second
)

// Shared transport with connection pooling
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
}

// Client talks JSON to the ticketing backend and normalises every failure
// into an *errors.Error.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTransport sets the round tripper, typically an authenticating Transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// WithTimeout bounds every request issued by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a client for the API origin in baseURL.
func New(baseURL string, options ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("[apiclient.New] parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[apiclient.New] base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout, Transport: sharedTransport},
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API origin.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// URL resolves path (optionally carrying a query) against the base URL,
// keeping any trailing slash.
func (c *Client) URL(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse path %q: %w", path, err)
	}
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(ref.Path, "/")
	u.RawPath = ""
	u.RawQuery = ref.RawQuery
	return u.String(), nil
}

// NewRequest builds a request whose body, if any, is JSON encoded.
func (c *Client) NewRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	target, err := c.URL(path)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &apperrors.Error{Kind: apperrors.KindValidation, Message: apperrors.MsgInvalidRequest, Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &apperrors.Error{Kind: apperrors.KindValidation, Message: apperrors.MsgInvalidRequest, Err: err}
	}
	req.Header.Set("Accept", contentTypeJSON)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	return req, nil
}

// NewBodyRequest builds a request around an already encoded body, such as a
// multipart form. The body is buffered so the request can be replayed.
func (c *Client) NewBodyRequest(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Request, error) {
	target, err := c.URL(path)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	buf := &bytes.Buffer{}
	if body != nil {
		if _, err := io.Copy(buf, body); err != nil {
			return nil, &apperrors.Error{Kind: apperrors.KindValidation, Message: apperrors.MsgInvalidRequest, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, buf)
	if err != nil {
		return nil, &apperrors.Error{Kind: apperrors.KindValidation, Message: apperrors.MsgInvalidRequest, Err: err}
	}
	req.Header.Set("Accept", contentTypeJSON)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// Do sends req and decodes a 2xx JSON body into out (which may be nil).
// Non-2xx responses become *errors.Error built from the {code,message}
// envelope; transport failures become network errors.
func (c *Client) Do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		var apiErr *apperrors.Error
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return apperrors.Network(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apperrors.Error{
			Kind:    apperrors.KindServer,
			Status:  resp.StatusCode,
			Message: apperrors.MsgServerError,
			Err:     fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err),
		}
	}
	return nil
}

// DoJSON is NewRequest followed by Do.
func (c *Client) DoJSON(ctx context.Context, method, path string, in, out any) error {
	req, err := c.NewRequest(ctx, method, path, in)
	if err != nil {
		return err
	}
	return c.Do(req, out)
}

func errorFromResponse(resp *http.Response) *apperrors.Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var env apperrors.Envelope
	if len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil {
			log.Debug().Int("status", resp.StatusCode).Msg("error response without envelope")
			env = apperrors.Envelope{}
		}
	}
	return apperrors.FromStatus(resp.StatusCode, env)
}
