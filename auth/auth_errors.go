package auth

import "errors"

var (
	LoginFailedErr         = errors.New("login failed")
	RegistrationFailedErr  = errors.New("registration failed")
	MissingAccessTokenErr  = errors.New("missing access token in login response")
	ProfileUpdateFailedErr = errors.New("profile update failed")
)
