package auth

import (
	"fmt"
	"strings"
)

// Validator provides client-side validation for the auth forms so
// obviously bad input never reaches the backend.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCredentials validates sign-in form input.
func (v *Validator) ValidateCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return fmt.Errorf("invalid email format")
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// ValidateSignup validates the registration form.
func (v *Validator) ValidateSignup(req SignupRequest) error {
	if strings.TrimSpace(req.FirstName) == "" {
		return fmt.Errorf("first name is required")
	}
	if strings.TrimSpace(req.LastName) == "" {
		return fmt.Errorf("last name is required")
	}
	if err := v.ValidateCredentials(req.Email, req.Password); err != nil {
		return err
	}
	if len(req.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if strings.TrimSpace(req.DateOfBirth) == "" {
		return fmt.Errorf("date of birth is required")
	}
	return nil
}

// ValidateOTP validates a one-time verification code.
func (v *Validator) ValidateOTP(otp string) error {
	otp = strings.TrimSpace(otp)
	if otp == "" {
		return fmt.Errorf("verification code is required")
	}
	if len(otp) < 4 {
		return fmt.Errorf("verification code is too short")
	}
	return nil
}
