package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fetchit-auth/config"
	"fetchit-auth/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// TokenExchanger talks to the identity provider's token endpoint on behalf of
// the app. It holds no per-user state; the oauth2 config is immutable after
// construction, so one instance serves concurrent requests.
type TokenExchanger struct {
	oauthConfig *oauth2.Config
	timeout     time.Duration
	httpClient  *http.Client
}

// NewTokenExchanger builds the exchanger from process configuration.
// Endpoint overrides exist for tests and for non-Google deployments.
func NewTokenExchanger(cfg config.ServerConfig) *TokenExchanger {
	endpoint := google.Endpoint
	if cfg.GoogleAuthURL != "" {
		endpoint.AuthURL = cfg.GoogleAuthURL
	}
	if cfg.GoogleTokenURL != "" {
		endpoint.TokenURL = cfg.GoogleTokenURL
	}

	return &TokenExchanger{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.RedirectURI(),
			Scopes:       []string{config.GmailReadonlyScope},
			Endpoint:     endpoint,
		},
		timeout:    cfg.ExchangeTimeout,
		httpClient: &http.Client{Timeout: cfg.ExchangeTimeout},
	}
}

// AuthCodeURL returns the consent URL. Offline access plus a forced consent
// prompt make the provider re-issue a refresh token on every link.
func (t *TokenExchanger) AuthCodeURL() string {
	return t.oauthConfig.AuthCodeURL("", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeCode trades a single-use authorization code for a credential.
func (t *TokenExchanger) ExchangeCode(ctx context.Context, code string) (models.OAuthCredential, error) {
	if code == "" {
		return models.OAuthCredential{}, &TokenExchangeError{Err: errors.New("empty authorization code")}
	}

	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	tok, err := t.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return models.OAuthCredential{}, &TokenExchangeError{Err: describe(err)}
	}
	if tok.AccessToken == "" {
		return models.OAuthCredential{}, &TokenExchangeError{Err: errors.New("provider returned no access token")}
	}
	return credentialFromToken(tok), nil
}

// RefreshAccessToken mints a new access token from a refresh token.
// The returned credential carries the refresh token only when the provider
// rotated it.
func (t *TokenExchanger) RefreshAccessToken(ctx context.Context, refreshToken string) (models.OAuthCredential, error) {
	if refreshToken == "" {
		return models.OAuthCredential{}, &TokenRefreshError{Err: errors.New("empty refresh token")}
	}

	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	// An expired seed forces the token source to hit the token endpoint.
	src := t.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return models.OAuthCredential{}, &TokenRefreshError{Err: describe(err)}
	}
	if tok.AccessToken == "" {
		return models.OAuthCredential{}, &TokenRefreshError{Err: errors.New("provider returned no access token")}
	}

	cred := credentialFromToken(tok)
	if cred.RefreshToken == refreshToken {
		cred.RefreshToken = ""
	}
	return cred, nil
}

func (t *TokenExchanger) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, t.httpClient)
	return context.WithTimeout(ctx, t.timeout)
}

func credentialFromToken(tok *oauth2.Token) models.OAuthCredential {
	cred := models.OAuthCredential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		cred.Scope = scope
	}
	if secs, ok := expiresInSeconds(tok); ok {
		cred.ExpiresIn = models.Int64(secs)
	}
	return cred
}

// expiresInSeconds prefers the provider's raw expires_in and falls back to
// the absolute expiry oauth2 computed from it.
func expiresInSeconds(tok *oauth2.Token) (int64, bool) {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int64(v), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n, true
		}
	}
	if tok.Expiry.IsZero() {
		return 0, false
	}
	return int64(time.Until(tok.Expiry).Round(time.Second) / time.Second), true
}

// describe turns oauth2's RetrieveError into the provider's own error code
// and description, which is what users and logs need to see.
func describe(err error) error {
	var rErr *oauth2.RetrieveError
	if !errors.As(err, &rErr) {
		return err
	}
	if rErr.ErrorCode == "" {
		return err
	}
	if rErr.ErrorDescription != "" {
		return fmt.Errorf("%s: %s", rErr.ErrorCode, rErr.ErrorDescription)
	}
	return errors.New(rErr.ErrorCode)
}
