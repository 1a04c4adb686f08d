package deeplink

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"fetchit-auth/models"
)

// Route prefixes of the app's custom URL scheme.
const (
	Scheme                = "fetchit://"
	AuthCallbackPrefix    = "fetchit://auth/callback"
	PaymentCallbackPrefix = "fetchit://payment/callback"
	SharePrefix           = "fetchit://share/"
)

var (
	// ErrMissingAccessToken is returned for an auth callback without an access token.
	ErrMissingAccessToken = errors.New("no access token received")
	// ErrMalformedDeepLink is returned when the URL or one of its fields cannot be parsed.
	ErrMalformedDeepLink = errors.New("malformed deep link")
)

// authCallbackParams is the wire order of the auth callback query.
var authCallbackParams = []string{"accessToken", "refreshToken", "expiresIn", "tokenType", "scope"}

// BuildAuthCallbackURL serializes cred into the auth callback deep link.
// Every parameter is always present; absent optional fields are sent as
// empty strings so the app receives a complete parameter set.
func BuildAuthCallbackURL(cred models.OAuthCredential) string {
	tokenType := cred.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	values := map[string]string{
		"accessToken":  cred.AccessToken,
		"refreshToken": cred.RefreshToken,
		"expiresIn":    formatOptional(cred.ExpiresIn),
		"tokenType":    tokenType,
		"scope":        cred.Scope,
	}

	var b strings.Builder
	b.WriteString(AuthCallbackPrefix)
	for i, name := range authCallbackParams {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(values[name]))
	}
	return b.String()
}

// ParseAuthCallback reads a credential back out of an auth callback deep link.
// Empty optional fields come back absent. IssuedAt is left for the caller to
// stamp, since no server timestamp crosses the boundary.
func ParseAuthCallback(raw string) (models.OAuthCredential, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return models.OAuthCredential{}, fmt.Errorf("%w: %v", ErrMalformedDeepLink, err)
	}
	q := u.Query()

	accessToken := q.Get("accessToken")
	if accessToken == "" {
		return models.OAuthCredential{}, ErrMissingAccessToken
	}

	cred := models.OAuthCredential{
		AccessToken:  accessToken,
		RefreshToken: q.Get("refreshToken"),
		TokenType:    q.Get("tokenType"),
		Scope:        q.Get("scope"),
	}
	if cred.TokenType == "" {
		cred.TokenType = "Bearer"
	}
	if v := q.Get("expiresIn"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return models.OAuthCredential{}, fmt.Errorf("%w: expiresIn %q", ErrMalformedDeepLink, v)
		}
		cred.ExpiresIn = models.Int64(n)
	}
	return cred, nil
}

func formatOptional(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
