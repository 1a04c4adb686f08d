package provider

import (
	"errors"
	"fmt"
)

// ErrCodeReplayed is wrapped by TokenExchangeError when an authorization code
// has already been presented once. Codes are single-use.
var ErrCodeReplayed = errors.New("authorization code already used")

// TokenExchangeError means the provider rejected (or never answered) an
// authorization-code exchange. It is never retried.
type TokenExchangeError struct {
	Err error
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: %v", e.Err)
}

func (e *TokenExchangeError) Unwrap() error { return e.Err }

// TokenRefreshError means the provider rejected a refresh token (revoked,
// expired or malformed). The caller decides whether to re-run consent.
type TokenRefreshError struct {
	Err error
}

func (e *TokenRefreshError) Error() string {
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *TokenRefreshError) Unwrap() error { return e.Err }
