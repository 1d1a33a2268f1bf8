// Package users holds the client-side user identity model. The record is
// derived, not authoritative: it is rebuilt by merging whatever the
// backend last told us (cached locally) with the claims carried in the
// current access token.
package users

import "strings"

// User mirrors the backend user schema. JSON tags follow the backend's
// field names so the cached record round-trips unchanged.
type User struct {
	ID           string `json:"_id,omitempty"`          // Unique identifier for the user
	FirstName    string `json:"firstName,omitempty"`    // First name of the user
	LastName     string `json:"lastName,omitempty"`     // Last name of the user
	Email        string `json:"email,omitempty"`        // User's email address
	DateOfBirth  string `json:"dateOfBirth,omitempty"`  // ISO date string, backend-formatted
	PlaceOfBirth string `json:"placeOfBirth,omitempty"` // Free-form place of birth
	IsVerified   bool   `json:"isVerified"`             // Has the user verified their email
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// Valid reports whether the record identifies anyone at all. A user with
// no id, email or name is treated as absent.
func (u *User) Valid() bool {
	if u == nil {
		return false
	}
	return u.ID != "" || u.Email != "" || u.FirstName != "" || u.LastName != ""
}

// FullName returns "First Last" with missing parts dropped.
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// Merge lays over on top of u and returns the combined record. Fields set
// on over win; fields only u has fill the gaps. IsVerified always follows
// over when over is present, since the token is the fresher source.
// Neither input is mutated.
func Merge(u, over *User) *User {
	if over == nil {
		if u == nil {
			return nil
		}
		out := *u
		return &out
	}
	if u == nil {
		out := *over
		return &out
	}
	out := *u
	if over.ID != "" {
		out.ID = over.ID
	}
	if over.FirstName != "" {
		out.FirstName = over.FirstName
	}
	if over.LastName != "" {
		out.LastName = over.LastName
	}
	if over.Email != "" {
		out.Email = over.Email
	}
	if over.DateOfBirth != "" {
		out.DateOfBirth = over.DateOfBirth
	}
	if over.PlaceOfBirth != "" {
		out.PlaceOfBirth = over.PlaceOfBirth
	}
	out.IsVerified = over.IsVerified
	if over.CreatedAt != "" {
		out.CreatedAt = over.CreatedAt
	}
	if over.UpdatedAt != "" {
		out.UpdatedAt = over.UpdatedAt
	}
	return &out
}
