// Package api implements the authenticated HTTP client the rest of the
// SDK is built on: bearer-token attachment, a request/response
// middleware pipeline, single-flight token refresh on 401 and a single
// normalized error shape.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/creds"
)

// DefaultTimeout matches the backend's expectation of client behaviour:
// a request that takes longer is abandoned and reported as a network
// error, never retried through the auth path.
const DefaultTimeout = 15 * time.Second

// RequestMiddleware runs before dispatch and may mutate the outgoing
// request. Returning an error aborts the call.
type RequestMiddleware func(*http.Request) error

// ResponseMiddleware observes the outcome of a dispatch and may replace
// the error. resp is nil when the transport failed.
type ResponseMiddleware func(req *http.Request, resp *http.Response, err error) error

// Client wraps outbound requests to the backend. All session state it
// touches lives in the credential store; the only in-process mutable
// state is the refresh coordinator, so a single Client is safe for
// concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      creds.Store
	refresh    refreshCoordinator

	requestMW  []RequestMiddleware
	responseMW []ResponseMiddleware

	onSessionInvalidated func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithDebugLogging logs request/response/error metadata. Diagnostic
// only; never affects control flow.
func WithDebugLogging() Option {
	return func(c *Client) {
		c.requestMW = append(c.requestMW, logRequest)
		c.responseMW = append(c.responseMW, logResponse)
	}
}

// WithRequestMiddleware appends transforms applied to every outgoing
// request, after the bearer token has been attached.
func WithRequestMiddleware(mw ...RequestMiddleware) Option {
	return func(c *Client) {
		c.requestMW = append(c.requestMW, mw...)
	}
}

// WithResponseMiddleware appends transforms applied to every response.
func WithResponseMiddleware(mw ...ResponseMiddleware) Option {
	return func(c *Client) {
		c.responseMW = append(c.responseMW, mw...)
	}
}

// WithSessionInvalidatedHook registers a callback fired after a failed
// refresh (or a 401 on a replayed request) purges the stored session.
func WithSessionInvalidatedHook(fn func()) Option {
	return func(c *Client) {
		c.onSessionInvalidated = fn
	}
}

// New creates a Client rooted at baseURL, reading and writing session
// credentials through store.
func New(baseURL string, store creds.Store, options ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[api.New] baseURL is required")
	}
	if store == nil {
		return nil, errors.New("[api.New] credential store is required")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		store:      store,
	}
	c.requestMW = append(c.requestMW, bearerMiddleware(store))
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Do dispatches a request and decodes the response body into out (when
// out is non-nil). Absence of an access token is not an error here;
// some endpoints are public. A 401 triggers one transparent refresh and
// replay; any further 401 is terminal and invalidates the session.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Message: "invalid request body", cause: err}
		}
		payload = data
	}
	return c.do(ctx, method, path, payload, out, false)
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any, retried bool) error {
	resp, body, usedToken, err := c.dispatch(ctx, method, path, payload)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if retried {
			// The replayed request was rejected again. Do not start
			// another refresh cycle; the session is gone.
			c.invalidateSession(ctx)
			return &Error{
				Message: "Session expired. Please sign in again.",
				Status:  http.StatusUnauthorized,
				cause:   ErrSessionExpired,
			}
		}
		if refreshErr := c.refreshTokens(ctx, usedToken); refreshErr != nil {
			if errors.Is(refreshErr, errNoRefreshToken) {
				// No session to refresh. Surface the original failure;
				// typically a rejected signin attempt.
				return normalizeResponse(resp.StatusCode, body)
			}
			return refreshErr
		}
		return c.do(ctx, method, path, payload, out, true)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return normalizeResponse(resp.StatusCode, body)
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return &Error{
				Message: "Unexpected response from server.",
				Status:  resp.StatusCode,
				cause:   err,
			}
		}
	}
	return nil
}

// dispatch performs one round-trip: build, run request middleware,
// send, run response middleware, read the body. It also reports which
// bearer token the request went out with, so 401 handling can tell a
// stale token from a fresh one. Transport failures come back as
// normalized network errors.
func (c *Client) dispatch(ctx context.Context, method, path string, payload []byte) (*http.Response, []byte, string, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, "", &Error{Message: "invalid request", cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	for _, mw := range c.requestMW {
		if err := mw(req); err != nil {
			return nil, nil, "", &Error{Message: "request preparation failed", cause: err}
		}
	}
	usedToken := strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")

	resp, callErr := c.httpClient.Do(req)
	for _, mw := range c.responseMW {
		callErr = mw(req, resp, callErr)
	}
	if callErr != nil {
		if apiErr := AsError(callErr); apiErr != nil {
			return nil, nil, usedToken, apiErr
		}
		return nil, nil, usedToken, networkError(callErr)
	}

	defer resp.Body.Close()
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, nil, usedToken, networkError(readErr)
	}
	return resp, body, usedToken, nil
}

// invalidateSession purges the stored credentials and cached user, then
// notifies any observer. Store failures are logged, not surfaced; the
// caller is already on an error path.
func (c *Client) invalidateSession(ctx context.Context) {
	if err := c.store.Delete(ctx, creds.SessionKeys...); err != nil {
		log.Warn().Err(err).Msg("failed to purge stored session")
	}
	if c.onSessionInvalidated != nil {
		c.onSessionInvalidated()
	}
}

// bearerMiddleware attaches the current access token, when one is
// stored, to the outgoing request.
func bearerMiddleware(store creds.Store) RequestMiddleware {
	return func(req *http.Request) error {
		token, err := store.Get(req.Context(), creds.KeyAccessToken)
		if err != nil {
			return errors.Wrap(err, "read access token")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return nil
	}
}

func logRequest(req *http.Request) error {
	log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Bool("authorized", req.Header.Get("Authorization") != "").
		Msg("api request")
	return nil
}

func logResponse(req *http.Request, resp *http.Response, err error) error {
	event := log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String())
	if err != nil {
		event.Err(err).Msg("api error")
	} else {
		event.Int("status", resp.StatusCode).Msg("api response")
	}
	return err
}
