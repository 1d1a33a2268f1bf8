// Package auth implements the account flows: login, registration,
// logout, email verification, password recovery and profile updates.
// They are thin orchestration over the api client, the credential store
// and the session resolver.
package auth

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/api"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/creds"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/sessions"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/token"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/users"
)

// Session is the outcome of a successful login or registration.
type Session struct {
	User         *users.User
	AccessToken  string
	RefreshToken string
}

// Service wires the auth flows together.
type Service struct {
	client  *api.Client
	store   creds.Store
	session *sessions.Resolver
}

// NewService creates the auth service. All dependencies are required.
func NewService(client *api.Client, store creds.Store, session *sessions.Resolver) (*Service, error) {
	if client == nil {
		return nil, errors.New("[auth.NewService] api client is required")
	}
	if store == nil {
		return nil, errors.New("[auth.NewService] credential store is required")
	}
	if session == nil {
		return nil, errors.New("[auth.NewService] session resolver is required")
	}
	return &Service{client: client, store: store, session: session}, nil
}

// Login exchanges credentials for a token pair, persists both tokens in
// one write, derives the identity (token claims preferred, then the
// cached record, then the submitted email) and publishes it.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	var envelope api.TokenEnvelope
	if err := s.client.Post(ctx, api.RouteSignin, req, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Ok() {
		if envelope.Message != "" {
			return nil, errors.Wrap(LoginFailedErr, envelope.Message)
		}
		return nil, LoginFailedErr
	}
	accessToken, refreshToken := envelope.Tokens()
	if accessToken == "" {
		return nil, MissingAccessTokenErr
	}

	if err := s.store.SetMulti(ctx, map[string]string{
		creds.KeyAccessToken:  accessToken,
		creds.KeyRefreshToken: refreshToken,
	}); err != nil {
		return nil, errors.Wrap(err, "[Login] persist tokens")
	}

	user := token.Decode(accessToken).User()
	if user == nil {
		user = s.storedUser(ctx)
	}
	if user == nil {
		user = &users.User{Email: req.Email}
	}
	if err := s.persistUser(ctx, user); err != nil {
		return nil, err
	}
	s.session.Publish(user)

	return &Session{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Register signs the user up and immediately logs in with the same
// credentials, since registration alone does not yield a session. When
// the token carries no claims, the identity falls back to the submitted
// registration fields.
func (s *Service) Register(ctx context.Context, req SignupRequest) (*Session, error) {
	var envelope api.Envelope
	if err := s.client.Post(ctx, api.RouteSignup, req, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Ok() {
		if envelope.Message != "" {
			return nil, errors.Wrap(RegistrationFailedErr, envelope.Message)
		}
		return nil, RegistrationFailedErr
	}
	var created struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := envelope.Decode(&created); err != nil {
		log.Debug().Err(err).Msg("unreadable signup response data")
	}

	session, err := s.Login(ctx, LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		return nil, errors.Wrap(err, "login after signup failed")
	}

	fallback := &users.User{
		ID:           created.ID,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		DateOfBirth:  req.DateOfBirth,
		PlaceOfBirth: req.PlaceOfBirth,
	}
	if created.Email != "" {
		fallback.Email = created.Email
	}

	user := fallback
	if tokenUser := token.Decode(session.AccessToken).User(); tokenUser != nil {
		user = users.Merge(fallback, tokenUser)
	}
	if err := s.persistUser(ctx, user); err != nil {
		return nil, err
	}
	s.session.Publish(user)

	session.User = user
	return session, nil
}

// Logout tells the backend to drop the session on a best-effort basis,
// then unconditionally purges the local one. A failing backend call is
// logged, never surfaced.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.client.Post(ctx, api.RouteLogout, nil, nil); err != nil {
		log.Warn().Err(err).Msg("logout call failed, clearing local session anyway")
	}
	if err := s.store.Delete(ctx, creds.SessionKeys...); err != nil {
		return errors.Wrap(err, "[Logout] purge session")
	}
	s.session.Publish(nil)
	return nil
}

// RequestVerification asks the backend to email a verification code.
func (s *Service) RequestVerification(ctx context.Context, email string) error {
	return s.simplePost(ctx, api.RouteVerifyRequest, map[string]string{"email": email})
}

// ConfirmVerification submits the emailed code. On success the stored
// identity is marked verified.
func (s *Service) ConfirmVerification(ctx context.Context, req VerificationConfirmRequest) error {
	if err := s.simplePost(ctx, api.RouteVerifyConfirm, req); err != nil {
		return err
	}
	if user := s.storedUser(ctx); user != nil {
		user.IsVerified = true
		if err := s.persistUser(ctx, user); err != nil {
			return err
		}
		s.session.Publish(user)
	}
	return nil
}

// ForgotPassword starts the password recovery flow.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	return s.simplePost(ctx, api.RoutePasswordForgot, map[string]string{"email": email})
}

// ResetPassword completes the password recovery flow.
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	return s.simplePost(ctx, api.RoutePasswordReset, req)
}

// UpdateProfile submits profile changes and refreshes the cached
// identity with whatever the backend returns.
func (s *Service) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*users.User, error) {
	var envelope api.Envelope
	if err := s.client.Put(ctx, api.RouteProfile, req, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Ok() {
		if envelope.Message != "" {
			return nil, errors.Wrap(ProfileUpdateFailedErr, envelope.Message)
		}
		return nil, ProfileUpdateFailedErr
	}
	var updated users.User
	if err := envelope.Decode(&updated); err != nil {
		return nil, errors.Wrap(err, "[UpdateProfile] decode response")
	}
	user := users.Merge(s.storedUser(ctx), &updated)
	if err := s.persistUser(ctx, user); err != nil {
		return nil, err
	}
	s.session.Publish(user)
	return user, nil
}

// SaveCredentials remembers the sign-in form values for next time.
func (s *Service) SaveCredentials(ctx context.Context, saved SavedCredentials) error {
	data, err := json.Marshal(saved)
	if err != nil {
		return errors.Wrap(err, "[SaveCredentials] marshal")
	}
	return s.store.Set(ctx, creds.KeySavedCredentials, string(data))
}

// Saved returns the remembered sign-in form values, or nil.
func (s *Service) Saved(ctx context.Context) (*SavedCredentials, error) {
	raw, err := s.store.Get(ctx, creds.KeySavedCredentials)
	if err != nil || raw == "" {
		return nil, err
	}
	var saved SavedCredentials
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		return nil, nil
	}
	return &saved, nil
}

// ClearSavedCredentials forgets the remembered sign-in form values.
func (s *Service) ClearSavedCredentials(ctx context.Context) error {
	return s.store.Delete(ctx, creds.KeySavedCredentials)
}

func (s *Service) simplePost(ctx context.Context, path string, body any) error {
	var envelope api.Envelope
	if err := s.client.Post(ctx, path, body, &envelope); err != nil {
		return err
	}
	if !envelope.Ok() {
		message := envelope.Message
		if message == "" {
			message = "request failed"
		}
		return errors.New(message)
	}
	return nil
}

func (s *Service) storedUser(ctx context.Context) *users.User {
	raw, err := s.store.Get(ctx, creds.KeyUser)
	if err != nil || raw == "" {
		return nil
	}
	var u users.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil
	}
	return &u
}

func (s *Service) persistUser(ctx context.Context, user *users.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "marshal user")
	}
	return errors.Wrap(s.store.Set(ctx, creds.KeyUser, string(data)), "persist user")
}
