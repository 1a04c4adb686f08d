package handlers

import (
	"context"
	"fmt"
	"net/http"

	"fetchit-auth/deeplink"
	"fetchit-auth/models"
	"fetchit-auth/provider"

	"go.uber.org/zap"
)

// callbackState tracks where a callback request is in the handshake.
type callbackState int

const (
	stateAwaitingCode callbackState = iota
	stateExchanging
	stateRedirectingSuccess
	stateRenderingError
)

func (s callbackState) String() string {
	switch s {
	case stateAwaitingCode:
		return "awaiting_code"
	case stateExchanging:
		return "exchanging"
	case stateRedirectingSuccess:
		return "redirecting_success"
	case stateRenderingError:
		return "rendering_error"
	}
	return "unknown"
}

// HandleCallback handles GET /auth/callback?code=...
// Exchanges the code and hands the credential back to the app through the
// custom-scheme redirect. Tokens never leave this request any other way.
func (h *AuthHandler) HandleCallback(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	logRequest(ctx, "info", "OAuth callback received", zap.Stringer("state", stateAwaitingCode))

	query := r.URL.Query()
	code := query.Get("code")
	if code == "" {
		// Provider should always send either a code or an error.
		logRequest(ctx, "error", "No authorization code provided",
			zap.Stringer("state", stateRenderingError),
			zap.String("provider_error", query.Get("error")))
		writeHTML(w, http.StatusBadRequest, missingCodePage)
		return
	}

	logRequest(ctx, "debug", "Exchanging authorization code", zap.Stringer("state", stateExchanging))
	cred, err := h.exchange(ctx, code)
	if err != nil {
		logRequest(ctx, "error", "Error exchanging code for tokens",
			zap.Stringer("state", stateRenderingError), zap.Error(err))
		writeHTML(w, http.StatusInternalServerError, exchangeErrorPage(err.Error()))
		return
	}

	redirectURL := deeplink.BuildAuthCallbackURL(cred)

	logRequest(ctx, "info", "Token exchange successful, redirecting to app",
		zap.Stringer("state", stateRedirectingSuccess),
		zap.String("access_token", tokenPreview(cred.AccessToken)),
		zap.Bool("refresh_token_present", cred.RefreshToken != ""))

	writeHTML(w, http.StatusOK, successPage(redirectURL))
}

// exchange redeems code once. A code seen before is refused locally; the
// provider would reject it too.
func (h *AuthHandler) exchange(ctx context.Context, code string) (models.OAuthCredential, error) {
	if h.ledger != nil {
		if h.ledger.Seen(code) {
			return models.OAuthCredential{}, &provider.TokenExchangeError{Err: provider.ErrCodeReplayed}
		}
		if err := h.ledger.Remember(code); err != nil {
			// The exchange still goes ahead; only replay detection is lost.
			logRequest(ctx, "error", "Failed to record authorization code", zap.Error(err))
		}
	}

	cred, err := h.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		return models.OAuthCredential{}, fmt.Errorf("exchange authorization code: %w", err)
	}
	return cred, nil
}
