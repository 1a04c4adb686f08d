package deeplink

import (
	"context"
	"strings"
	"time"

	"fetchit-auth/models"

	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// AuthCallbackSink receives the outcome of an auth callback deep link.
// authsession.Controller is the implementation.
type AuthCallbackSink interface {
	LinkSucceeded(ctx context.Context, cred models.OAuthCredential) error
	LinkFailed(err error)
}

// AuthCallbackHandler handles fetchit://auth/callback. A link without an
// access token is claimed but reported as a failure; nothing is persisted.
func AuthCallbackHandler(sink AuthCallbackSink, now func() time.Time) Handler {
	if now == nil {
		now = time.Now
	}
	return func(url string) bool {
		if !strings.HasPrefix(url, AuthCallbackPrefix) {
			return false
		}

		cred, err := ParseAuthCallback(url)
		if err != nil {
			logger.Error("Invalid auth callback deep link", zap.Error(err))
			sink.LinkFailed(err)
			return true
		}
		cred.IssuedAt = models.Int64(now().UnixMilli())

		logger.Info("OAuth credential received via deep link",
			zap.Bool("refresh_token_present", cred.RefreshToken != ""))
		if err := sink.LinkSucceeded(context.Background(), cred); err != nil {
			logger.Error("Failed to link credential", zap.Error(err))
		}
		return true
	}
}

// LoggingHandler claims every URL under prefix and only logs it. Used for
// routes the app reserves but does not act on yet.
func LoggingHandler(route Route, prefix string) Handler {
	return func(url string) bool {
		if !strings.HasPrefix(url, prefix) {
			return false
		}
		logger.Info("Deep link received", zap.Stringer("route", route), zap.String("url", redact(url)))
		return true
	}
}
