package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth rejects requests without a valid bearer token and puts
// the authenticated user ID on the request context.
func (s *Server) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeFail(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID := s.tokens.verifyAccess(strings.TrimPrefix(header, "Bearer "))
		if userID == "" || s.data.userByID(userID) == nil {
			writeFail(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func requestUserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

type userResponse struct {
	ID           string `json:"_id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	DateOfBirth  string `json:"dateOfBirth,omitempty"`
	PlaceOfBirth string `json:"placeOfBirth,omitempty"`
	IsVerified   bool   `json:"isVerified"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

func toUserResponse(u *storedUser) userResponse {
	return userResponse{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		DateOfBirth:  u.DateOfBirth,
		PlaceOfBirth: u.PlaceOfBirth,
		IsVerified:   u.Verified,
		CreatedAt:    u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    u.UpdatedAt.Format(time.RFC3339),
	}
}

// SigninHandler implements POST /users/signin with the nested token
// pair shape.
func (s *Server) SigninHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user := s.data.userByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if user == nil || bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)) != nil {
		writeFail(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	access, refresh, err := s.tokens.issuePair(user)
	if err != nil {
		writeFail(w, http.StatusInternalServerError, "failed to issue tokens")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"user":         toUserResponse(user),
		"accessToken":  access,
		"refreshToken": refresh,
	})
}

// SignupHandler implements POST /users/signup. It creates the account
// only; the client signs in afterwards to obtain tokens.
func (s *Server) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName    string `json:"firstName"`
		LastName     string `json:"lastName"`
		Email        string `json:"email"`
		Password     string `json:"password"`
		DateOfBirth  string `json:"dateOfBirth"`
		PlaceOfBirth string `json:"placeOfBirth"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	details := map[string][]string{}
	if strings.TrimSpace(req.FirstName) == "" {
		details["firstName"] = append(details["firstName"], "first name is required")
	}
	if strings.TrimSpace(req.Email) == "" || !strings.Contains(req.Email, "@") {
		details["email"] = append(details["email"], "a valid email is required")
	}
	if len(req.Password) < 8 {
		details["password"] = append(details["password"], "password must be at least 8 characters")
	}
	if len(details) > 0 {
		writeValidationFail(w, "validation failed", details)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeFail(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	user := &storedUser{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		DateOfBirth:  req.DateOfBirth,
		PlaceOfBirth: req.PlaceOfBirth,
	}
	if !s.data.createUser(user) {
		writeFail(w, http.StatusConflict, "email already registered")
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]string{"id": user.ID, "email": user.Email})
}

// LogoutHandler implements POST /users/logout. Works with or without a
// valid token; the client treats it as best-effort anyway.
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		if userID := s.tokens.verifyAccess(strings.TrimPrefix(header, "Bearer ")); userID != "" {
			s.tokens.revokeUser(userID)
		}
	}
	writeSuccess(w, http.StatusOK, nil)
}

// RefreshTokenHandler implements POST /users/refresh-token. It rotates
// the refresh token and, matching the deployed backend's quirk, returns
// the new pair at the top level rather than under data.
func (s *Server) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeBody(r, &req); err != nil || req.RefreshToken == "" {
		writeFail(w, http.StatusBadRequest, "refreshToken is required")
		return
	}
	userID := s.tokens.redeemRefresh(req.RefreshToken)
	user := s.data.userByID(userID)
	if user == nil {
		writeFail(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	access, refresh, err := s.tokens.issuePair(user)
	if err != nil {
		writeFail(w, http.StatusInternalServerError, "failed to issue tokens")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "success",
		"accessToken":  access,
		"refreshToken": refresh,
	})
}

// VerifyRequestHandler implements POST /users/verify/request. The OTP
// is returned in the response since there is no mailer in dev.
func (s *Server) VerifyRequestHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user := s.data.userByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if user == nil {
		writeFail(w, http.StatusNotFound, "user not found")
		return
	}
	s.data.updateUser(user.ID, func(u *storedUser) { u.PendingOTP = "123456" })
	writeSuccess(w, http.StatusOK, map[string]string{"message": "verification code sent", "otp": "123456"})
}

// VerifyConfirmHandler implements POST /users/verify/confirm.
func (s *Server) VerifyConfirmHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user := s.data.userByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if user == nil || user.PendingOTP == "" || user.PendingOTP != req.OTP {
		writeFail(w, http.StatusBadRequest, "invalid verification code")
		return
	}
	s.data.updateUser(user.ID, func(u *storedUser) {
		u.Verified = true
		u.PendingOTP = ""
	})
	writeSuccess(w, http.StatusOK, map[string]string{"message": "email verified"})
}

// ForgotPasswordHandler implements POST /users/password/forgot.
func (s *Server) ForgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user := s.data.userByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if user == nil {
		// Do not reveal whether the account exists
		writeSuccess(w, http.StatusOK, map[string]string{"message": "if the account exists, a code was sent"})
		return
	}
	s.data.updateUser(user.ID, func(u *storedUser) { u.PendingOTP = "654321" })
	writeSuccess(w, http.StatusOK, map[string]string{"message": "reset code sent", "otp": "654321"})
}

// ResetPasswordHandler implements POST /users/password/reset.
func (s *Server) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user := s.data.userByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if user == nil || user.PendingOTP == "" || user.PendingOTP != req.OTP {
		writeFail(w, http.StatusBadRequest, "invalid reset code")
		return
	}
	if len(req.NewPassword) < 8 {
		writeValidationFail(w, "validation failed", map[string][]string{
			"newPassword": {"password must be at least 8 characters"},
		})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeFail(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	s.data.updateUser(user.ID, func(u *storedUser) {
		u.PasswordHash = hash
		u.PendingOTP = ""
	})
	s.tokens.revokeUser(user.ID)
	writeSuccess(w, http.StatusOK, map[string]string{"message": "password reset"})
}

// UpdateProfileHandler implements PUT /users/profile.
func (s *Server) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName    *string `json:"firstName"`
		LastName     *string `json:"lastName"`
		DateOfBirth  *string `json:"dateOfBirth"`
		PlaceOfBirth *string `json:"placeOfBirth"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user := s.data.updateUser(requestUserID(r), func(u *storedUser) {
		if req.FirstName != nil {
			u.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			u.LastName = *req.LastName
		}
		if req.DateOfBirth != nil {
			u.DateOfBirth = *req.DateOfBirth
		}
		if req.PlaceOfBirth != nil {
			u.PlaceOfBirth = *req.PlaceOfBirth
		}
	})
	if user == nil {
		writeFail(w, http.StatusNotFound, "user not found")
		return
	}
	writeSuccess(w, http.StatusOK, toUserResponse(user))
}
