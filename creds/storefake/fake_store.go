package storefake

import (
	"context"
	"sync"

	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/creds"
)

var _ creds.Store = (*FakeStore)(nil)

// FakeStore is an in-memory creds.Store for tests.
type FakeStore struct {
	values map[string]string
	lock   sync.RWMutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{values: make(map[string]string)}
}

func (fs *FakeStore) Get(_ context.Context, key string) (string, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.values[key], nil
}

func (fs *FakeStore) Set(_ context.Context, key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.values[key] = value
	return nil
}

func (fs *FakeStore) Delete(_ context.Context, keys ...string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	for _, k := range keys {
		delete(fs.values, k)
	}
	return nil
}

func (fs *FakeStore) GetMulti(_ context.Context, keys ...string) (map[string]string, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = fs.values[k]
	}
	return out, nil
}

func (fs *FakeStore) SetMulti(_ context.Context, entries map[string]string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	for k, v := range entries {
		fs.values[k] = v
	}
	return nil
}

// Has reports whether a key currently holds a non-empty value.
func (fs *FakeStore) Has(key string) bool {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.values[key] != ""
}
