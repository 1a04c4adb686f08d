package models

import "time"

// OAuthCredential is the credential set handed to the app after a successful
// consent flow. Only one is live per linked account; a new link replaces it in
// full.
type OAuthCredential struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"` // Empty when offline access was not granted
	ExpiresIn    *int64 `json:"expiresIn,omitempty"`    // Seconds, as declared by the provider at issuance
	IssuedAt     *int64 `json:"issuedAt,omitempty"`     // Epoch millis, client clock
	TokenType    string `json:"tokenType"`
	Scope        string `json:"scope"`
}

// IsValid reports whether the access token can still be used at now.
// Credentials without expiry information never expire.
func (c OAuthCredential) IsValid(now time.Time) bool {
	if c.AccessToken == "" {
		return false
	}
	if c.ExpiresIn == nil || c.IssuedAt == nil {
		return true
	}
	return now.UnixMilli() < *c.IssuedAt+*c.ExpiresIn*1000
}

// ExpiresAt returns the absolute expiry, if known.
func (c OAuthCredential) ExpiresAt() (time.Time, bool) {
	if c.ExpiresIn == nil || c.IssuedAt == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*c.IssuedAt + *c.ExpiresIn*1000), true
}

// HasRefreshToken reports whether a new access token can be minted without
// re-running consent.
func (c OAuthCredential) HasRefreshToken() bool {
	return c.RefreshToken != ""
}

// Int64 returns a pointer to v. Handy for the optional numeric fields.
func Int64(v int64) *int64 {
	return &v
}

// Refreshed applies a refresh response to c. The refresh token and scope
// carry over unless the provider rotated them.
func (c OAuthCredential) Refreshed(resp RefreshResponse, now time.Time) OAuthCredential {
	next := OAuthCredential{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		IssuedAt:     Int64(now.UnixMilli()),
		TokenType:    resp.TokenType,
		Scope:        c.Scope,
	}
	if next.RefreshToken == "" {
		next.RefreshToken = c.RefreshToken
	}
	if next.TokenType == "" {
		next.TokenType = "Bearer"
	}
	return next
}
