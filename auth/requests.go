package auth

// LoginRequest carries sign-in credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest carries the registration form fields the backend
// requires.
type SignupRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	DateOfBirth  string `json:"dateOfBirth"`
	PlaceOfBirth string `json:"placeOfBirth"`
}

// UpdateProfileRequest carries the editable profile fields. Nil fields
// are omitted and left unchanged by the backend.
type UpdateProfileRequest struct {
	FirstName    *string `json:"firstName,omitempty"`
	LastName     *string `json:"lastName,omitempty"`
	DateOfBirth  *string `json:"dateOfBirth,omitempty"`
	PlaceOfBirth *string `json:"placeOfBirth,omitempty"`
}

// VerificationConfirmRequest confirms an emailed OTP.
type VerificationConfirmRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// ResetPasswordRequest completes the forgot-password flow.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// SavedCredentials is the optional "remember me" record kept by the
// login UI. It is not part of the session model and never read by the
// core client.
type SavedCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
