// Package creds defines the persistent credential store the client keeps
// its session material in: the current token pair, the cached user record
// and the optional remembered sign-in credentials.
package creds

import "context"

// Storage keys. These match the keys the backend-facing client and the
// auth flows agree on; anything else written to a store is ignored by
// the session machinery.
const (
	KeyAccessToken      = "accessToken"
	KeyRefreshToken     = "refreshToken"
	KeyUser             = "user"
	KeySavedCredentials = "savedCredentials"
)

// SessionKeys are the keys purged together on logout or failed refresh.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}

// Store is a string key-value store that survives process restarts.
// A missing key reads as the empty string, never as an error. Individual
// writes are atomic per key; the multi-key operations are conveniences
// that apply all entries in a single save where the backing medium
// allows it, but callers must not rely on cross-crash transactionality.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	GetMulti(ctx context.Context, keys ...string) (map[string]string, error)
	SetMulti(ctx context.Context, values map[string]string) error
}
