package api

import "encoding/json"

// Envelope is the backend's standard response wrapper. Newer endpoints
// report `status: "success"`; a few older ones still send the boolean
// `success` flag, so both are honoured.
type Envelope struct {
	Status  string          `json:"status,omitempty"`
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Ok reports whether the envelope signals success.
func (e *Envelope) Ok() bool {
	if e.Status == "success" {
		return true
	}
	return e.Success != nil && *e.Success
}

// Decode unmarshals the data payload into out. An absent or null data
// field leaves out untouched.
func (e *Envelope) Decode(out any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	return json.Unmarshal(e.Data, out)
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenEnvelope is the response wrapper for endpoints that return a
// token pair. The backend is inconsistent here: sign-in nests the pair
// under data, refresh-token has been observed returning it at the top
// level as well. Both shapes are accepted, with the nested one winning.
type TokenEnvelope struct {
	Status       string    `json:"status,omitempty"`
	Success      *bool     `json:"success,omitempty"`
	Message      string    `json:"message,omitempty"`
	Data         tokenPair `json:"data,omitempty"`
	AccessToken  string    `json:"accessToken,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty"`
}

func (e *TokenEnvelope) Ok() bool {
	if e.Status == "success" {
		return true
	}
	return e.Success != nil && *e.Success
}

// Tokens returns the access/refresh pair from whichever shape was sent.
func (e *TokenEnvelope) Tokens() (access, refresh string) {
	access, refresh = e.Data.AccessToken, e.Data.RefreshToken
	if access == "" {
		access = e.AccessToken
	}
	if refresh == "" {
		refresh = e.RefreshToken
	}
	return access, refresh
}

// LegacyShape reports whether the pair arrived at the top level instead
// of under data. Logged so the backend inconsistency stays visible.
func (e *TokenEnvelope) LegacyShape() bool {
	return e.Data.AccessToken == "" && e.AccessToken != ""
}
