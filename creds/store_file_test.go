package creds_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/creds"
)

func newTestStore(t *testing.T) (*creds.FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	store, err := creds.NewFileStore(path)
	require.NoError(t, err)
	return store, path
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key reads as empty", func(t *testing.T) {
		store, _ := newTestStore(t)
		value, err := store.Get(ctx, creds.KeyAccessToken)
		require.NoError(t, err)
		require.Empty(t, value)
	})

	t.Run("set then get", func(t *testing.T) {
		store, _ := newTestStore(t)
		require.NoError(t, store.Set(ctx, creds.KeyAccessToken, "at1"))
		value, err := store.Get(ctx, creds.KeyAccessToken)
		require.NoError(t, err)
		require.Equal(t, "at1", value)
	})

	t.Run("multi set and get", func(t *testing.T) {
		store, _ := newTestStore(t)
		require.NoError(t, store.SetMulti(ctx, map[string]string{
			creds.KeyAccessToken:  "at1",
			creds.KeyRefreshToken: "rt1",
		}))
		values, err := store.GetMulti(ctx, creds.KeyAccessToken, creds.KeyRefreshToken, creds.KeyUser)
		require.NoError(t, err)
		require.Equal(t, "at1", values[creds.KeyAccessToken])
		require.Equal(t, "rt1", values[creds.KeyRefreshToken])
		require.Empty(t, values[creds.KeyUser])
	})

	t.Run("delete multiple keys", func(t *testing.T) {
		store, _ := newTestStore(t)
		require.NoError(t, store.SetMulti(ctx, map[string]string{
			creds.KeyAccessToken:  "at1",
			creds.KeyRefreshToken: "rt1",
			creds.KeyUser:         `{"email":"a@x.com"}`,
		}))
		require.NoError(t, store.Delete(ctx, creds.SessionKeys...))
		values, err := store.GetMulti(ctx, creds.SessionKeys...)
		require.NoError(t, err)
		for _, key := range creds.SessionKeys {
			require.Empty(t, values[key])
		}
	})

	t.Run("survives reopening", func(t *testing.T) {
		store, path := newTestStore(t)
		require.NoError(t, store.Set(ctx, creds.KeyRefreshToken, "rt1"))

		reopened, err := creds.NewFileStore(path)
		require.NoError(t, err)
		value, err := reopened.Get(ctx, creds.KeyRefreshToken)
		require.NoError(t, err)
		require.Equal(t, "rt1", value)
	})

	t.Run("no temp file left behind", func(t *testing.T) {
		store, path := newTestStore(t)
		require.NoError(t, store.Set(ctx, creds.KeyAccessToken, "at1"))
		_, err := os.Stat(path + ".tmp")
		require.True(t, os.IsNotExist(err))
	})

	t.Run("empty path rejected", func(t *testing.T) {
		_, err := creds.NewFileStore("")
		require.Error(t, err)
	})
}
