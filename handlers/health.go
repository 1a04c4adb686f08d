package handlers

import (
	"context"
	"net/http"
	"time"

	"fetchit-auth/models"
)

// HandleHealth handles GET /
func HandleHealth(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "FetchIt OAuth Backend Server Running",
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}
