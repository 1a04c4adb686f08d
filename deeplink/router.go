package deeplink

import (
	"context"
	"fmt"
	"sync"

	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// Handler processes one deep link and reports whether it claimed it.
type Handler func(url string) bool

// Handlers has one slot per Route. A nil slot leaves its route unclaimed.
type Handlers struct {
	AuthCallback    Handler
	PaymentCallback Handler
	Share           Handler
}

// Router dispatches deep links one at a time, in arrival order.
// It is the only place in the app that listens for deep links.
type Router struct {
	handlers Handlers

	mu sync.Mutex // serializes Dispatch

	initialOnce sync.Once
	initialMu   sync.Mutex
	initialURL  string // cold-start URL, dropped once if it is redelivered live
}

func NewRouter(handlers Handlers) *Router {
	return &Router{handlers: handlers}
}

// Dispatch routes url to its handler. Unclaimed links are logged and dropped;
// a failing handler never takes the app down.
func (r *Router) Dispatch(url string) (route Route, claimed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	route = Classify(url)
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Deep link handler panicked",
				zap.Stringer("route", route), zap.String("panic", fmt.Sprint(p)))
			claimed = true
		}
	}()

	var h Handler
	switch route {
	case RouteAuthCallback:
		h = r.handlers.AuthCallback
	case RoutePaymentCallback:
		h = r.handlers.PaymentCallback
	case RouteShare:
		h = r.handlers.Share
	case RouteUnknown:
	}

	if h != nil && h(url) {
		return route, true
	}

	logger.Info("Unclaimed deep link dropped", zap.Stringer("route", route), zap.String("url", redact(url)))
	return route, false
}

// HandleInitialURL processes the URL the process was launched with.
// Only the first call per Router does anything. Call it before Listen starts
// receiving: the cold-start URL is only recognized as a redelivery if it was
// recorded here first.
func (r *Router) HandleInitialURL(url string) (handled bool) {
	r.initialOnce.Do(func() {
		if url == "" {
			return
		}
		r.initialMu.Lock()
		r.initialURL = url
		r.initialMu.Unlock()

		logger.Info("Processing cold-start deep link", zap.String("url", redact(url)))
		r.Dispatch(url)
		handled = true
	})
	return handled
}

// Listen dispatches live deep links until ctx ends or events is closed.
// Start it after HandleInitialURL, or a redelivered cold-start URL is
// dispatched twice.
func (r *Router) Listen(ctx context.Context, events <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case url, ok := <-events:
			if !ok {
				return
			}
			if r.isColdStartRedelivery(url) {
				logger.Debug("Dropping duplicate delivery of cold-start deep link")
				continue
			}
			r.Dispatch(url)
		}
	}
}

// isColdStartRedelivery reports (once) whether url is the cold-start URL
// arriving again through the live listener.
func (r *Router) isColdStartRedelivery(url string) bool {
	r.initialMu.Lock()
	defer r.initialMu.Unlock()

	if r.initialURL == "" || r.initialURL != url {
		return false
	}
	r.initialURL = ""
	return true
}

// redact keeps the route part of a deep link; query strings may carry tokens.
func redact(url string) string {
	for i := 0; i < len(url); i++ {
		if url[i] == '?' {
			return url[:i] + "?..."
		}
	}
	return url
}
