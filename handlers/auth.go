package handlers

import (
	"context"

	"fetchit-auth/models"
)

// TokenExchanger is the provider-facing side of the flow.
// provider.TokenExchanger is the production implementation.
type TokenExchanger interface {
	AuthCodeURL() string
	ExchangeCode(ctx context.Context, code string) (models.OAuthCredential, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (models.OAuthCredential, error)
}

// CodeLedger records authorization codes already presented to the callback.
type CodeLedger interface {
	Seen(code string) bool
	Remember(code string) error
}

// AuthHandler serves the backend's OAuth endpoints.
// It never stores tokens; the only shared state is the code ledger.
type AuthHandler struct {
	exchanger TokenExchanger
	ledger    CodeLedger
}

// NewAuthHandler creates the handler. ledger may be nil.
func NewAuthHandler(exchanger TokenExchanger, ledger CodeLedger) *AuthHandler {
	return &AuthHandler{
		exchanger: exchanger,
		ledger:    ledger,
	}
}
