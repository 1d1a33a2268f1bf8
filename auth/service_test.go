package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/api"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/auth"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/creds"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/creds/storefake"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/internal/utils"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/sessions"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/users"
)

func mintToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

type fixture struct {
	service  *auth.Service
	store    *storefake.FakeStore
	resolver *sessions.Resolver
}

func newFixture(t *testing.T, handler http.Handler) *fixture {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := storefake.NewFakeStore()
	client, err := api.New(server.URL, store)
	require.NoError(t, err)
	resolver, err := sessions.NewResolver(store)
	require.NoError(t, err)
	service, err := auth.NewService(client, store, resolver)
	require.NoError(t, err)
	return &fixture{service: service, store: store, resolver: resolver}
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success stores tokens and identity from claims", func(t *testing.T) {
		accessToken := mintToken(t, jwtlib.MapClaims{
			"_id": "u1", "email": "john@x.com", "firstName": "John", "lastName": "Doe", "verified": true,
		})
		mux := http.NewServeMux()
		mux.HandleFunc(api.RouteSignin, func(w http.ResponseWriter, r *http.Request) {
			var req auth.LoginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "john@x.com", req.Email)
			writeJSON(t, w, http.StatusOK, map[string]any{
				"status": "success",
				"data":   map[string]string{"accessToken": accessToken, "refreshToken": "rt1"},
			})
		})
		f := newFixture(t, mux)

		var published []*users.User
		f.resolver.Subscribe(func(u *users.User) { published = append(published, u) })

		session, err := f.service.Login(ctx, auth.LoginRequest{Email: "john@x.com", Password: "pw"})
		require.NoError(t, err)
		require.Equal(t, accessToken, session.AccessToken)
		require.Equal(t, "rt1", session.RefreshToken)
		require.Equal(t, "u1", session.User.ID)
		require.Equal(t, "John Doe", session.User.FullName())
		require.True(t, session.User.IsVerified)

		values, err := f.store.GetMulti(ctx, creds.KeyAccessToken, creds.KeyRefreshToken)
		require.NoError(t, err)
		require.Equal(t, accessToken, values[creds.KeyAccessToken])
		require.Equal(t, "rt1", values[creds.KeyRefreshToken])

		require.Len(t, published, 1)
		require.Equal(t, "u1", published[0].ID)
	})

	t.Run("opaque token falls back to submitted email", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc(api.RouteSignin, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{
				"status": "success",
				"data":   map[string]string{"accessToken": "opaque-token", "refreshToken": "rt1"},
			})
		})
		f := newFixture(t, mux)

		session, err := f.service.Login(ctx, auth.LoginRequest{Email: "jane@x.com", Password: "pw"})
		require.NoError(t, err)
		require.Equal(t, "jane@x.com", session.User.Email)
	})

	t.Run("rejected credentials surface the backend message", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc(api.RouteSignin, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusUnauthorized, map[string]any{
				"status": "fail", "message": "Invalid email or password",
			})
		})
		f := newFixture(t, mux)

		_, err := f.service.Login(ctx, auth.LoginRequest{Email: "john@x.com", Password: "wrong"})
		require.Error(t, err)
		apiErr := api.AsError(err)
		require.NotNil(t, apiErr)
		require.Equal(t, "Invalid email or password", apiErr.Message)
		require.False(t, f.store.Has(creds.KeyAccessToken))
	})

	t.Run("success envelope without token", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc(api.RouteSignin, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{"status": "success"})
		})
		f := newFixture(t, mux)

		_, err := f.service.Login(ctx, auth.LoginRequest{Email: "john@x.com", Password: "pw"})
		require.ErrorIs(t, err, auth.MissingAccessTokenErr)
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("signup then login with form fallback identity", func(t *testing.T) {
		// The minted token carries no identity claims, so the cached
		// record must come from the registration form plus the signup
		// response id.
		accessToken := mintToken(t, jwtlib.MapClaims{"iat": 1700000000})
		mux := http.NewServeMux()
		mux.HandleFunc(api.RouteSignup, func(w http.ResponseWriter, r *http.Request) {
			var req auth.SignupRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			writeJSON(t, w, http.StatusCreated, map[string]any{
				"status": "success",
				"data":   map[string]string{"id": "u9", "email": req.Email},
			})
		})
		mux.HandleFunc(api.RouteSignin, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{
				"status": "success",
				"data":   map[string]string{"accessToken": accessToken, "refreshToken": "rt1"},
			})
		})
		f := newFixture(t, mux)

		session, err := f.service.Register(ctx, auth.SignupRequest{
			FirstName:   "Jane",
			LastName:    "Roe",
			Email:       "jane@x.com",
			Password:    "longenough",
			DateOfBirth: "1995-05-05",
		})
		require.NoError(t, err)
		require.Equal(t, "u9", session.User.ID)
		require.Equal(t, "Jane Roe", session.User.FullName())
		require.Equal(t, "jane@x.com", session.User.Email)
		require.True(t, f.store.Has(creds.KeyRefreshToken))
	})

	t.Run("duplicate email fails before login", func(t *testing.T) {
		var signinCalled bool
		mux := http.NewServeMux()
		mux.HandleFunc(api.RouteSignup, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusConflict, map[string]any{
				"status": "fail", "message": "Email already registered",
			})
		})
		mux.HandleFunc(api.RouteSignin, func(w http.ResponseWriter, r *http.Request) {
			signinCalled = true
		})
		f := newFixture(t, mux)

		_, err := f.service.Register(ctx, auth.SignupRequest{Email: "jane@x.com", Password: "longenough"})
		require.Error(t, err)
		require.False(t, signinCalled)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, f *fixture) {
		require.NoError(t, f.store.SetMulti(ctx, map[string]string{
			creds.KeyAccessToken:  "at1",
			creds.KeyRefreshToken: "rt1",
			creds.KeyUser:         `{"email":"john@x.com"}`,
		}))
	}

	t.Run("purges the session and publishes nil", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc(api.RouteLogout, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, map[string]any{"status": "success"})
		})
		f := newFixture(t, mux)
		seed(t, f)

		var published []*users.User
		f.resolver.Subscribe(func(u *users.User) { published = append(published, u) })

		require.NoError(t, f.service.Logout(ctx))
		for _, key := range creds.SessionKeys {
			require.False(t, f.store.Has(key))
		}
		require.Len(t, published, 1)
		require.Nil(t, published[0])
	})

	t.Run("purges locally even when the backend fails", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc(api.RouteLogout, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		f := newFixture(t, mux)
		seed(t, f)

		require.NoError(t, f.service.Logout(ctx))
		for _, key := range creds.SessionKeys {
			require.False(t, f.store.Has(key))
		}
	})
}

func TestConfirmVerification(t *testing.T) {
	ctx := context.Background()
	mux := http.NewServeMux()
	mux.HandleFunc(api.RouteVerifyConfirm, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"status": "success"})
	})
	f := newFixture(t, mux)
	require.NoError(t, f.store.Set(ctx, creds.KeyUser, `{"email":"john@x.com","isVerified":false}`))

	require.NoError(t, f.service.ConfirmVerification(ctx, auth.VerificationConfirmRequest{
		Email: "john@x.com", OTP: "123456",
	}))

	raw, err := f.store.Get(ctx, creds.KeyUser)
	require.NoError(t, err)
	var stored users.User
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	require.True(t, stored.IsVerified)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	mux := http.NewServeMux()
	mux.HandleFunc(api.RouteProfile, func(w http.ResponseWriter, r *http.Request) {
		var req auth.UpdateProfileRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.FirstName)
		require.Nil(t, req.LastName)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"status": "success",
			"data":   map[string]any{"firstName": *req.FirstName},
		})
	})
	f := newFixture(t, mux)
	require.NoError(t, f.store.Set(ctx, creds.KeyUser, `{"email":"john@x.com","firstName":"John","lastName":"Doe"}`))

	user, err := f.service.UpdateProfile(ctx, auth.UpdateProfileRequest{
		FirstName: utils.Ptr("Johnny"),
	})
	require.NoError(t, err)
	require.Equal(t, "Johnny", user.FirstName)
	require.Equal(t, "Doe", user.LastName)
	require.Equal(t, "john@x.com", user.Email)
}

func TestSavedCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, http.NewServeMux())

	saved, err := f.service.Saved(ctx)
	require.NoError(t, err)
	require.Nil(t, saved)

	require.NoError(t, f.service.SaveCredentials(ctx, auth.SavedCredentials{
		Email: "john@x.com", Password: "pw",
	}))
	saved, err = f.service.Saved(ctx)
	require.NoError(t, err)
	require.NotNil(t, saved)
	require.Equal(t, "john@x.com", saved.Email)

	require.NoError(t, f.service.ClearSavedCredentials(ctx))
	saved, err = f.service.Saved(ctx)
	require.NoError(t, err)
	require.Nil(t, saved)
}

func TestValidator(t *testing.T) {
	v := auth.NewValidator()

	require.NoError(t, v.ValidateCredentials("john@x.com", "pw"))
	require.Error(t, v.ValidateCredentials("", "pw"))
	require.Error(t, v.ValidateCredentials("not-an-email", "pw"))
	require.Error(t, v.ValidateCredentials("john@x.com", ""))

	require.NoError(t, v.ValidateSignup(auth.SignupRequest{
		FirstName: "John", LastName: "Doe", Email: "john@x.com",
		Password: "longenough", DateOfBirth: "1990-01-01",
	}))
	require.Error(t, v.ValidateSignup(auth.SignupRequest{
		FirstName: "John", LastName: "Doe", Email: "john@x.com",
		Password: "short", DateOfBirth: "1990-01-01",
	}))

	require.NoError(t, v.ValidateOTP("123456"))
	require.Error(t, v.ValidateOTP("12"))
}
