// Package sessions resolves and publishes the active user identity.
// The identity is never authoritative on the client: it is recomputed
// at read time from the cached user record plus the claims in the
// current access token, with the token winning on conflicts.
package sessions

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/creds"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/token"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/users"
)

// Resolver derives the current user identity and notifies subscribers
// when it changes. Safe for concurrent use.
type Resolver struct {
	store creds.Store

	lock        sync.Mutex
	subscribers []func(*users.User)
}

// NewResolver creates a Resolver backed by store.
func NewResolver(store creds.Store) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("[NewResolver] credential store is required")
	}
	return &Resolver{store: store}, nil
}

// Resolve returns the active user identity, or nil when nothing is
// known. Claims decoded from the access token are merged over the
// stored record (claims win, the record fills gaps) and the merged
// result is written back so the cache heals itself. A corrupt stored
// record is treated as absent, never as an error; Resolve is idempotent
// and safe to call on every bootstrap.
func (r *Resolver) Resolve(ctx context.Context) (*users.User, error) {
	values, err := r.store.GetMulti(ctx, creds.KeyUser, creds.KeyAccessToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Resolver.Resolve] read session")
	}

	stored := decodeStoredUser(values[creds.KeyUser])
	tokenUser := token.Decode(values[creds.KeyAccessToken]).User()

	merged := stored
	if tokenUser != nil {
		merged = users.Merge(stored, tokenUser)
	}
	if merged == nil {
		return nil, nil
	}

	if data, err := json.Marshal(merged); err == nil {
		if err := r.store.Set(ctx, creds.KeyUser, string(data)); err != nil {
			log.Warn().Err(err).Msg("failed to write back resolved user")
		}
	}
	return merged, nil
}

// Publish pushes a new identity (nil on logout) to all subscribers.
func (r *Resolver) Publish(u *users.User) {
	r.lock.Lock()
	subscribers := make([]func(*users.User), len(r.subscribers))
	copy(subscribers, r.subscribers)
	r.lock.Unlock()
	for _, fn := range subscribers {
		fn(u)
	}
}

// Subscribe registers fn to be called on every identity change.
func (r *Resolver) Subscribe(fn func(*users.User)) {
	if fn == nil {
		return
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

func decodeStoredUser(raw string) *users.User {
	if raw == "" {
		return nil
	}
	var u users.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		log.Debug().Err(err).Msg("discarding corrupt stored user record")
		return nil
	}
	return &u
}
