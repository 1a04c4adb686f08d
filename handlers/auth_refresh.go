package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"fetchit-auth/models"

	"github.com/umakantv/go-utils/errs"
	"go.uber.org/zap"
)

// HandleRefresh handles POST /auth/refresh
// Mints a new access token from the app's refresh token. Not retried; the
// app decides whether to fall back to the full consent flow.
func (h *AuthHandler) HandleRefresh(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	logRequest(ctx, "info", "Token refresh request")

	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logRequest(ctx, "error", "Invalid refresh request body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Invalid request body"))
		return
	}

	if req.RefreshToken == "" {
		logRequest(ctx, "error", "No refresh token provided")
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "No refresh token provided"})
		return
	}

	cred, err := h.exchanger.RefreshAccessToken(ctx, req.RefreshToken)
	if err != nil {
		logRequest(ctx, "error", "Error refreshing token", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to refresh token"})
		return
	}

	logRequest(ctx, "info", "Token refreshed", zap.String("access_token", tokenPreview(cred.AccessToken)))

	writeJSON(w, http.StatusOK, models.RefreshResponse{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		ExpiresIn:    cred.ExpiresIn,
		TokenType:    cred.TokenType,
	})
}
