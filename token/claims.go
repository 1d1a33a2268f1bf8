// Package token decodes identity claims out of backend-issued access
// tokens. Decoding is a pure parse of the payload segment: the client
// never verifies signatures or expiry; the backend signals an expired
// or invalid token with a 401 and the client reacts to that instead.
package token

import (
	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/mohamed-dhia-ben-amar/expensesTrackerFrontend/users"
)

// Claims is the decoded payload of an access token. The backend has
// shipped the user id under several names over time (_id, id, sub), so
// all are accepted. Unknown payload fields are kept in Extra but unused.
type Claims struct {
	Subject   string
	Email     string
	FirstName string
	LastName  string
	Verified  bool
	Extra     map[string]any
}

// Decode parses the payload of raw without verifying the signature.
// Any malformed input (not a JWT, bad base64, non-JSON payload) yields
// nil rather than an error; a token we cannot read is simply a token
// carrying no claims.
func Decode(raw string) *Claims {
	if raw == "" {
		return nil
	}
	parsed, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return nil
	}
	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil
	}

	c := &Claims{Extra: map[string]any{}}
	for key, value := range mapClaims {
		switch key {
		case "_id", "id", "sub":
			if c.Subject == "" {
				if s, ok := value.(string); ok {
					c.Subject = s
				}
			}
		case "email":
			c.Email, _ = value.(string)
		case "firstName":
			c.FirstName, _ = value.(string)
		case "lastName":
			c.LastName, _ = value.(string)
		case "verified", "isVerified":
			if v, ok := value.(bool); ok && v {
				c.Verified = true
			}
		default:
			c.Extra[key] = value
		}
	}

	// _id beats id beats sub when more than one is present
	if s, ok := mapClaims["id"].(string); ok && s != "" {
		c.Subject = s
	}
	if s, ok := mapClaims["_id"].(string); ok && s != "" {
		c.Subject = s
	}

	return c
}

// User converts the claims into a user record, or nil when the claims
// carry no usable identity.
func (c *Claims) User() *users.User {
	if c == nil {
		return nil
	}
	u := &users.User{
		ID:         c.Subject,
		Email:      c.Email,
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		IsVerified: c.Verified,
	}
	if !u.Valid() {
		return nil
	}
	return u
}
