package core

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenExpiringSoonWindow = 2 * time.Minute

// TokenState describes the stored credential pair. ExpiresAt is read from the
// access token's exp claim without verifying the signature; the server stays
// the only authority on validity.
type TokenState struct {
	ExpiresAt       *time.Time
	HasAccessToken  bool
	HasRefreshToken bool
	IsExpired       bool
	IsExpiringSoon  bool
}

func ResolveTokenState(now time.Time, pair CredentialPair, expiringSoonWindow time.Duration) TokenState {
	if now.IsZero() {
		now = time.Now().UTC()
	} else {
		now = now.UTC()
	}
	if expiringSoonWindow <= 0 {
		expiringSoonWindow = DefaultTokenExpiringSoonWindow
	}
	state := TokenState{
		HasAccessToken:  strings.TrimSpace(pair.AccessToken) != "",
		HasRefreshToken: pair.CanRefresh(),
	}
	expiresAt, ok := AccessTokenExpiry(pair.AccessToken)
	if !ok {
		return state
	}
	state.ExpiresAt = &expiresAt
	if !expiresAt.After(now) {
		state.IsExpired = true
		return state
	}
	state.IsExpiringSoon = !expiresAt.After(now.Add(expiringSoonWindow))
	return state
}

// AccessTokenExpiry returns the exp claim of a JWT access token. Opaque tokens
// report false.
func AccessTokenExpiry(token string) (time.Time, bool) {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.UTC(), true
}

func tokenLogFields(now time.Time, pair CredentialPair, expiresIn int64) map[string]any {
	fields := map[string]any{
		"has_refresh_token": pair.CanRefresh(),
	}
	if expiresAt, ok := AccessTokenExpiry(pair.AccessToken); ok {
		fields["token_expires_at"] = expiresAt.Format(time.RFC3339)
		fields["token_expires_in_ms"] = expiresAt.Sub(now).Milliseconds()
		return fields
	}
	if expiresIn > 0 {
		fields["token_expires_in_ms"] = (time.Duration(expiresIn) * time.Second).Milliseconds()
	}
	return fields
}
