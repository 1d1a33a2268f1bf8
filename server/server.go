// Package server is an in-memory development backend implementing the
// expenses API contract the SDK consumes. It exists so the CLI and the
// end-to-end tests have a real peer to talk to; it is not a production
// service and persists nothing.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/api"
	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/internal/config"
)

// Server holds the in-memory state and the signing secret for the dev
// backend.
type Server struct {
	config config.Config
	router chi.Router
	data   *dataStore
	tokens *tokenIssuer
}

// Option configures a Server.
type Option func(*Server)

// WithAccessTokenTTL shortens or extends access token lifetime. The dev
// default is deliberately short so clients exercise their refresh path.
func WithAccessTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.tokens.accessTTL = ttl
	}
}

// WithSigningSecret overrides the random per-process HS256 secret.
func WithSigningSecret(secret []byte) Option {
	return func(s *Server) {
		s.tokens.secret = secret
	}
}

// New creates a dev server with empty stores.
func New(cfg config.Config, options ...Option) *Server {
	s := &Server{
		config: cfg,
		data:   newDataStore(),
		tokens: newTokenIssuer(),
	}
	for _, opt := range options {
		opt(s)
	}
	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) initRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.config.GetEnv() == "DEV" {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post(api.RouteSignin, s.SigninHandler)
		r.Post(api.RouteSignup, s.SignupHandler)
		r.Post(api.RouteLogout, s.LogoutHandler)
		r.Post(api.RouteRefreshToken, s.RefreshTokenHandler)
		r.Post(api.RouteVerifyRequest, s.VerifyRequestHandler)
		r.Post(api.RouteVerifyConfirm, s.VerifyConfirmHandler)
		r.Post(api.RoutePasswordForgot, s.ForgotPasswordHandler)
		r.Post(api.RoutePasswordReset, s.ResetPasswordHandler)

		r.Group(func(r chi.Router) {
			r.Use(s.RequireAuth)

			r.Put(api.RouteProfile, s.UpdateProfileHandler)

			r.Get(api.RouteExpenses, s.ListExpensesHandler)
			r.Post(api.RouteExpenses, s.CreateExpenseHandler)
			r.Get(api.RouteExpenses+"/{id}", s.GetExpenseHandler)
			r.Put(api.RouteExpenses+"/{id}", s.UpdateExpenseHandler)
			r.Delete(api.RouteExpenses+"/{id}", s.DeleteExpenseHandler)

			r.Get(api.RouteCategories, s.ListCategoriesHandler)
			r.Post(api.RouteCategories, s.CreateCategoryHandler)
			r.Get(api.RouteCategories+"/{id}", s.GetCategoryHandler)
			r.Put(api.RouteCategories+"/{id}", s.UpdateCategoryHandler)
			r.Delete(api.RouteCategories+"/{id}", s.DeleteCategoryHandler)

			r.Get(api.RouteStatisticsByCategory, s.StatisticsByCategoryHandler)
			r.Get(api.RouteStatisticsMonthlyTrends, s.StatisticsMonthlyTrendsHandler)
			r.Get(api.RouteStatisticsTopCategories, s.StatisticsTopCategoriesHandler)
			r.Get(api.RouteStatisticsSummary, s.StatisticsSummaryHandler)
		})
	})

	s.router = r
}
