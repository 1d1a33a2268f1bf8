package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/api"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/creds"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/creds/storefake"
)

// backend is a scripted stand-in for the real API. Its refresh endpoint
// rotates at1/rt1 to at2/rt2; the protected endpoint accepts whichever
// token acceptToken names.
type backend struct {
	server       *httptest.Server
	refreshCalls atomic.Int32

	acceptToken  string
	refreshDelay time.Duration
	refreshFails bool
	legacyShape  bool
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{acceptToken: "at2"}
	mux := http.NewServeMux()
	mux.HandleFunc(api.RouteRefreshToken, b.handleRefresh)
	mux.HandleFunc("/protected", b.handleProtected)
	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)
	if b.refreshDelay > 0 {
		time.Sleep(b.refreshDelay)
	}
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if b.refreshFails || req.RefreshToken != "rt1" {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "fail", "message": "Invalid refresh token"})
		return
	}
	if b.legacyShape {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":       "success",
			"accessToken":  "at2",
			"refreshToken": "rt2",
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"data":   map[string]string{"accessToken": "at2", "refreshToken": "rt2"},
	})
}

func (b *backend) handleProtected(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+b.acceptToken {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "fail", "message": "Unauthorized"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": map[string]string{"value": "ok"}})
}

func seededStore(t *testing.T) *storefake.FakeStore {
	t.Helper()
	store := storefake.NewFakeStore()
	require.NoError(t, store.SetMulti(context.Background(), map[string]string{
		creds.KeyAccessToken:  "at1",
		creds.KeyRefreshToken: "rt1",
	}))
	return store
}

func TestTransparentRefreshAndReplay(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	store := seededStore(t)
	client, err := api.New(b.server.URL, store)
	require.NoError(t, err)

	var out struct {
		Data struct {
			Value string `json:"value"`
		} `json:"data"`
	}
	require.NoError(t, client.Get(ctx, "/protected", &out))
	require.Equal(t, "ok", out.Data.Value)
	require.Equal(t, int32(1), b.refreshCalls.Load())

	values, err := store.GetMulti(ctx, creds.KeyAccessToken, creds.KeyRefreshToken)
	require.NoError(t, err)
	require.Equal(t, "at2", values[creds.KeyAccessToken])
	require.Equal(t, "rt2", values[creds.KeyRefreshToken])
}

func TestLegacyRefreshShapeAccepted(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	b.legacyShape = true
	store := seededStore(t)
	client, err := api.New(b.server.URL, store)
	require.NoError(t, err)

	require.NoError(t, client.Get(ctx, "/protected", nil))
	values, err := store.GetMulti(ctx, creds.KeyAccessToken, creds.KeyRefreshToken)
	require.NoError(t, err)
	require.Equal(t, "at2", values[creds.KeyAccessToken])
	require.Equal(t, "rt2", values[creds.KeyRefreshToken])
}

func TestConcurrentRequestsShareOneRefresh(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	b.refreshDelay = 50 * time.Millisecond
	store := seededStore(t)
	client, err := api.New(b.server.URL, store)
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = client.Get(ctx, "/protected", nil)
		}(i)
	}
	close(start)
	wg.Wait()

	for i, callErr := range errs {
		require.NoError(t, callErr, "caller %d", i)
	}
	require.Equal(t, int32(1), b.refreshCalls.Load())
}

func TestSecond401IsTerminal(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	b.acceptToken = "never-issued"
	store := seededStore(t)

	var hookCalls atomic.Int32
	client, err := api.New(b.server.URL, store,
		api.WithSessionInvalidatedHook(func() { hookCalls.Add(1) }),
	)
	require.NoError(t, err)

	err = client.Get(ctx, "/protected", nil)
	require.Error(t, err)
	require.True(t, api.IsSessionExpired(err))
	require.Equal(t, int32(1), b.refreshCalls.Load())
	require.Equal(t, int32(1), hookCalls.Load())
	for _, key := range creds.SessionKeys {
		require.False(t, store.Has(key), "key %s should be purged", key)
	}
}

func TestFailedRefreshRejectsAllWaiters(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	b.refreshFails = true
	b.refreshDelay = 50 * time.Millisecond
	store := seededStore(t)

	var hookCalls atomic.Int32
	client, err := api.New(b.server.URL, store,
		api.WithSessionInvalidatedHook(func() { hookCalls.Add(1) }),
	)
	require.NoError(t, err)

	const callers = 4
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = client.Get(ctx, "/protected", nil)
		}(i)
	}
	close(start)
	wg.Wait()

	for i, callErr := range errs {
		require.Error(t, callErr, "caller %d", i)
		require.True(t, api.IsSessionExpired(callErr), "caller %d", i)
	}
	require.Equal(t, int32(1), b.refreshCalls.Load())
	require.Equal(t, int32(1), hookCalls.Load())
	for _, key := range creds.SessionKeys {
		require.False(t, store.Has(key))
	}
}

func TestNoStoredSessionSurfacesOriginal401(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	store := storefake.NewFakeStore()

	client, err := api.New(b.server.URL, store)
	require.NoError(t, err)

	err = client.Get(ctx, "/protected", nil)
	require.Error(t, err)
	require.False(t, api.IsSessionExpired(err))
	apiErr := api.AsError(err)
	require.NotNil(t, apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, "Unauthorized", apiErr.Message)
	require.Equal(t, int32(0), b.refreshCalls.Load())
}

func TestTimeoutReportsNetworkError(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer slow.Close()

	client, err := api.New(slow.URL, seededStore(t), api.WithTimeout(30*time.Millisecond))
	require.NoError(t, err)

	err = client.Get(ctx, "/protected", nil)
	require.Error(t, err)
	require.True(t, api.IsNetworkError(err))
	require.False(t, api.IsSessionExpired(err))
	apiErr := api.AsError(err)
	require.NotNil(t, apiErr)
	require.Zero(t, apiErr.Status)
	require.Equal(t, "Request timeout. Please try again.", apiErr.Message)
	// A request that never reached the server must not burn a refresh.
	require.Equal(t, int32(0), b.refreshCalls.Load())
}

func TestNoTokenMeansNoAuthorizationHeader(t *testing.T) {
	ctx := context.Background()
	var sawAuth atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth.Store(r.Header.Get("Authorization") != "")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success"})
	}))
	defer server.Close()

	client, err := api.New(server.URL, storefake.NewFakeStore())
	require.NoError(t, err)
	require.NoError(t, client.Get(ctx, "/public", nil))
	require.False(t, sawAuth.Load())
}

func TestRequestMiddleware(t *testing.T) {
	ctx := context.Background()
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Client-Version")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success"})
	}))
	defer server.Close()

	client, err := api.New(server.URL, storefake.NewFakeStore(),
		api.WithRequestMiddleware(func(req *http.Request) error {
			req.Header.Set("X-Client-Version", "1.2.3")
			return nil
		}),
	)
	require.NoError(t, err)
	require.NoError(t, client.Get(ctx, "/anything", nil))
	require.Equal(t, "1.2.3", gotHeader)
}

func TestErrorNormalization(t *testing.T) {
	ctx := context.Background()

	serve := func(t *testing.T, status int, body string) *api.Error {
		t.Helper()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
		defer server.Close()
		client, err := api.New(server.URL, storefake.NewFakeStore())
		require.NoError(t, err)
		callErr := client.Get(ctx, "/anything", nil)
		require.Error(t, callErr)
		apiErr := api.AsError(callErr)
		require.NotNil(t, apiErr)
		return apiErr
	}

	t.Run("validation details map", func(t *testing.T) {
		apiErr := serve(t, http.StatusUnprocessableEntity,
			`{"status":"fail","message":"Validation failed","errors":{"email":["Invalid email address"],"amount":["Must be positive"]}}`)
		require.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
		require.Equal(t, "Validation failed", apiErr.Message)
		require.Equal(t, []string{"Invalid email address"}, apiErr.Details["email"])
		require.Equal(t, []string{"Must be positive"}, apiErr.Details["amount"])
	})

	t.Run("validator array shape", func(t *testing.T) {
		apiErr := serve(t, http.StatusBadRequest,
			`{"errors":[{"param":"email","msg":"Invalid email"},{"param":"email","msg":"Invalid email"}]}`)
		require.Equal(t, []string{"Invalid email"}, apiErr.Details["email"])
	})

	t.Run("message as array", func(t *testing.T) {
		apiErr := serve(t, http.StatusBadRequest, `{"message":["first problem","second problem"]}`)
		require.Equal(t, "first problem\nsecond problem", apiErr.Message)
	})

	t.Run("error key fallback", func(t *testing.T) {
		apiErr := serve(t, http.StatusConflict, `{"error":"Email already registered"}`)
		require.Equal(t, "Email already registered", apiErr.Message)
	})

	t.Run("plain text body", func(t *testing.T) {
		apiErr := serve(t, http.StatusBadGateway, "upstream unavailable")
		require.Equal(t, "upstream unavailable", apiErr.Message)
	})

	t.Run("empty body gets a generic message", func(t *testing.T) {
		apiErr := serve(t, http.StatusInternalServerError, "")
		require.Equal(t, "Request failed with status 500", apiErr.Message)
		require.False(t, apiErr.IsNetwork)
	})

	t.Run("html body is not surfaced verbatim", func(t *testing.T) {
		apiErr := serve(t, http.StatusInternalServerError, "<html><body>panic</body></html>")
		require.Equal(t, "Request failed with status 500", apiErr.Message)
	})
}

func TestNewRejectsBadArguments(t *testing.T) {
	_, err := api.New("", storefake.NewFakeStore())
	require.Error(t, err)
	_, err = api.New("http://localhost", nil)
	require.Error(t, err)
}
