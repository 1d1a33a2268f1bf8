package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/creds"
)

// refreshCoordinator serializes token refresh. However many in-flight
// requests observe a 401 at once, exactly one refresh call reaches the
// backend per cycle; the rest block on the leader's result and replay
// (or fail) together. The flight group is the only shared mutable state
// in the client and is touched nowhere else.
type refreshCoordinator struct {
	flight singleflight.Group
}

const refreshFlightKey = "refresh"

// errNoRefreshToken means there was no session to refresh. The original
// 401 belongs to the caller unchanged; a signin attempt with bad
// credentials must not look like an expired session.
var errNoRefreshToken = errors.New("no refresh token stored")

// refreshTokens runs one refresh cycle, joining an in-progress one when
// a concurrent request already started it. staleToken is the access
// token the failed request carried: when the store already holds a
// different one, a refresh completed between the 401 and this call, so
// the cycle resolves without touching the backend. On success the new
// token pair is in the store; on failure the session has been purged
// and the returned error is terminal.
func (c *Client) refreshTokens(ctx context.Context, staleToken string) error {
	_, err, _ := c.refresh.flight.Do(refreshFlightKey, func() (any, error) {
		if current, err := c.store.Get(ctx, creds.KeyAccessToken); err == nil && current != "" && current != staleToken {
			return nil, nil
		}
		if err := c.callRefreshEndpoint(ctx); err != nil {
			if errors.Is(err, errNoRefreshToken) {
				return nil, err
			}
			// A failed refresh always fully invalidates the session;
			// there is no partial state to fall back to.
			c.invalidateSession(ctx)
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, errNoRefreshToken) {
			return err
		}
		if apiErr := AsError(err); apiErr != nil {
			return apiErr
		}
		return &Error{Message: "Session expired. Please sign in again.", cause: ErrSessionExpired}
	}
	return nil
}

// callRefreshEndpoint exchanges the stored refresh token for a new pair
// and writes both back in one store operation. The call bypasses the
// middleware pipeline: it must not carry the expired bearer token and
// must never recurse into refresh handling itself.
func (c *Client) callRefreshEndpoint(ctx context.Context) error {
	refreshToken, err := c.store.Get(ctx, creds.KeyRefreshToken)
	if err != nil {
		return &Error{Message: "Session expired. Please sign in again.", cause: err}
	}
	if refreshToken == "" {
		return errNoRefreshToken
	}

	payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return &Error{Message: "invalid refresh request", cause: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+RouteRefreshToken, bytes.NewReader(payload))
	if err != nil {
		return &Error{Message: "invalid refresh request", cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// A rejected refresh token ends the session, whatever message
		// the backend attached.
		apiErr := normalizeResponse(resp.StatusCode, body)
		apiErr.cause = ErrSessionExpired
		return apiErr
	}

	var envelope TokenEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &Error{Message: "Unexpected refresh response from server.", Status: resp.StatusCode, cause: err}
	}
	access, refreshed := envelope.Tokens()
	if !envelope.Ok() || access == "" {
		message := envelope.Message
		if message == "" {
			message = "Session expired. Please sign in again."
		}
		return &Error{Message: message, Status: resp.StatusCode, cause: ErrSessionExpired}
	}
	if envelope.LegacyShape() {
		log.Debug().Msg("refresh-token endpoint returned legacy top-level token shape")
	}

	entries := map[string]string{creds.KeyAccessToken: access}
	if refreshed != "" {
		entries[creds.KeyRefreshToken] = refreshed
	}
	if err := c.store.SetMulti(ctx, entries); err != nil {
		return &Error{Message: "failed to persist refreshed tokens", cause: err}
	}
	return nil
}
