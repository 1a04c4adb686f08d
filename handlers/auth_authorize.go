package handlers

import (
	"context"
	"net/http"
)

// HandleAuthorize handles GET /auth/authorize
// Takes no input; redirects the browser to the provider's consent screen.
func (h *AuthHandler) HandleAuthorize(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	logRequest(ctx, "info", "Redirecting to provider consent screen")
	http.Redirect(w, r, h.exchanger.AuthCodeURL(), http.StatusFound)
}
