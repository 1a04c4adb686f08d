// Package authclient is the app's client for the backend's programmatic
// endpoints.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fetchit-auth/models"
)

// RefreshError is a refresh the backend (or provider behind it) refused.
type RefreshError struct {
	StatusCode int
	Message    string
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh rejected (%d): %s", e.StatusCode, e.Message)
}

// Client calls POST /auth/refresh. No retries: a refused refresh means the
// user has to link again.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the backend at baseURL with a per-request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Refresh exchanges refreshToken for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (models.RefreshResponse, error) {
	if refreshToken == "" {
		return models.RefreshResponse{}, errors.New("no refresh token")
	}

	body, err := json.Marshal(models.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return models.RefreshResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return models.RefreshResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.RefreshResponse{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.RefreshResponse{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp models.ErrorResponse
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return models.RefreshResponse{}, &RefreshError{StatusCode: resp.StatusCode, Message: msg}
	}

	var out models.RefreshResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return models.RefreshResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.AccessToken == "" {
		return models.RefreshResponse{}, errors.New("backend returned no access token")
	}
	return out, nil
}
