package server

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// tokenIssuer mints HS256 access tokens carrying the claim set the SDK
// decodes, and opaque refresh tokens it tracks for rotation.
type tokenIssuer struct {
	secret    []byte
	accessTTL time.Duration

	lock     sync.Mutex
	refresh  map[string]string // refresh token -> user ID
	byUserID map[string]string // user ID -> refresh token
}

func newTokenIssuer() *tokenIssuer {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic(err)
	}
	return &tokenIssuer{
		secret:    secret,
		accessTTL: 2 * time.Minute, // short on purpose: dev clients should hit the refresh path
		refresh:   make(map[string]string),
		byUserID:  make(map[string]string),
	}
}

// issuePair mints an access/refresh pair for u, rotating any refresh
// token the user already held (single refresh token per user).
func (t *tokenIssuer) issuePair(u *storedUser) (access, refresh string, err error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"sub":       u.ID,
		"_id":       u.ID,
		"email":     u.Email,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"verified":  u.Verified,
		"iat":       now.Unix(),
		"exp":       now.Add(t.accessTTL).Unix(),
		"jti":       uuid.New().String(),
	}
	access, err = jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", "", err
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", "", err
	}
	refresh = hex.EncodeToString(tokenBytes)

	t.lock.Lock()
	defer t.lock.Unlock()
	if old, ok := t.byUserID[u.ID]; ok {
		delete(t.refresh, old)
	}
	t.refresh[refresh] = u.ID
	t.byUserID[u.ID] = refresh
	return access, refresh, nil
}

// redeemRefresh consumes a refresh token and returns the owning user
// ID; a token that was rotated away or never issued returns "".
func (t *tokenIssuer) redeemRefresh(refresh string) string {
	t.lock.Lock()
	defer t.lock.Unlock()
	userID, ok := t.refresh[refresh]
	if !ok {
		return ""
	}
	delete(t.refresh, refresh)
	delete(t.byUserID, userID)
	return userID
}

// revokeUser drops the user's refresh token on logout.
func (t *tokenIssuer) revokeUser(userID string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if refresh, ok := t.byUserID[userID]; ok {
		delete(t.refresh, refresh)
		delete(t.byUserID, userID)
	}
}

// verifyAccess validates signature and expiry and returns the subject
// user ID, or "".
func (t *tokenIssuer) verifyAccess(raw string) string {
	parsed, err := jwtlib.Parse(raw, func(tok *jwtlib.Token) (any, error) {
		if _, ok := tok.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, jwtlib.ErrSignatureInvalid
		}
		return t.secret, nil
	}, jwtlib.WithTimeFunc(func() time.Time { return NowTimeFunc() }))
	if err != nil || !parsed.Valid {
		return ""
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}
