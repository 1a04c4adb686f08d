package models

// RefreshRequest is the POST /auth/refresh body
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse is returned by POST /auth/refresh.
// ExpiresIn is in seconds, matching the deep-link field of the same name.
type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"` // Only when the provider rotated it
	ExpiresIn    *int64 `json:"expiresIn,omitempty"`
	TokenType    string `json:"tokenType"`
}

// ErrorResponse is the JSON error body used by the programmatic endpoints
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse for GET /
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
